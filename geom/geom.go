// Package geom holds the small 2D helpers the physics core needs on top of r2.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Range is a closed interval produced by projecting points onto an axis.
type Range struct {
	Min, Max float64
}

// Shift moves both ends of the range by d.
func (r Range) Shift(d float64) Range {
	return Range{Min: r.Min + d, Max: r.Max + d}
}

// Overlaps reports whether the two ranges share more than a single point.
// Touching ranges do not overlap.
func (r Range) Overlaps(o Range) bool {
	return !(r.Min >= o.Max || o.Min >= r.Max)
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Perpendicular returns the point velocity contribution of an angular speed s
// at lever arm v, expressed so that vel - Perpendicular(r, w) equals vel + w x r.
func Perpendicular(v r2.Vec, s float64) r2.Vec {
	return r2.Vec{X: s * v.Y, Y: -s * v.X}
}

// Clamp limits each component of v to [lo, hi].
func Clamp(v, lo, hi r2.Vec) r2.Vec {
	return r2.Vec{
		X: math.Max(lo.X, math.Min(v.X, hi.X)),
		Y: math.Max(lo.Y, math.Min(v.Y, hi.Y)),
	}
}

// Transform scales v and then rotates it about the origin by rotation degrees.
func Transform(v r2.Vec, scale, rotation float64) r2.Vec {
	scaled := r2.Scale(scale, v)
	if rotation == 0 {
		return scaled
	}
	return r2.Rotate(scaled, Deg2Rad(rotation), r2.Vec{})
}

// SafeUnit normalises v, returning fallback for the zero vector.
func SafeUnit(v, fallback r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n == 0 {
		return fallback
	}
	return r2.Scale(1/n, v)
}

// Project returns the extent of verts along axis.
func Project(verts []r2.Vec, axis r2.Vec) Range {
	rng := Range{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range verts {
		d := r2.Dot(axis, v)
		rng.Min = math.Min(rng.Min, d)
		rng.Max = math.Max(rng.Max, d)
	}
	return rng
}

// ContainsConvex reports whether p lies inside or on the boundary of the
// convex polygon verts. Either winding is accepted.
func ContainsConvex(verts []r2.Vec, p r2.Vec) bool {
	var pos, neg bool
	for i, v := range verts {
		c := r2.Cross(r2.Sub(verts[(i+1)%len(verts)], v), r2.Sub(p, v))
		switch {
		case c > 0:
			pos = true
		case c < 0:
			neg = true
		}
		if pos && neg {
			return false
		}
	}
	return len(verts) > 0
}

// SegmentIntersection returns the crossing point of segments p1-p2 and
// q1-q2. Parallel segments never cross.
func SegmentIntersection(p1, p2, q1, q2 r2.Vec) (r2.Vec, bool) {
	r, s := r2.Sub(p2, p1), r2.Sub(q2, q1)
	denom := r2.Cross(r, s)
	if denom == 0 {
		return r2.Vec{}, false
	}
	qp := r2.Sub(q1, p1)
	t := r2.Cross(qp, s) / denom
	u := r2.Cross(qp, r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return r2.Vec{}, false
	}
	return r2.Add(p1, r2.Scale(t, r)), true
}
