package collision

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/impulse/geom"
)

// Overlap runs the narrow phase between a and b. It returns nil when the
// shapes do not overlap; shapes that only touch do not overlap. The returned
// manifold always has a as ShapeA.
//
// Overlap panics if either shape was not built by a constructor.
func Overlap(a, b *Shape) *Manifold {
	if err := a.Validate(); err != nil {
		panic(fmt.Errorf("collision: overlap: %w", err))
	}
	if err := b.Validate(); err != nil {
		panic(fmt.Errorf("collision: overlap: %w", err))
	}

	switch {
	case a.kind == KindCircle && b.kind == KindCircle:
		return circleCircle(a, b)
	case a.kind == KindCircle:
		return circlePolygon(a, b, false)
	case b.kind == KindCircle:
		return circlePolygon(b, a, true)
	default:
		return polygonPolygon(a, b)
	}
}

func circleCircle(a, b *Shape) *Manifold {
	d := r2.Sub(a.Pos(), b.Pos())
	dist := r2.Norm(d)
	rsum := a.circle.EffectiveRadius() + b.circle.EffectiveRadius()
	if dist >= rsum {
		return nil
	}
	normal := geom.SafeUnit(d, r2.Vec{X: 1})
	// Deepest point of a inside b; any point on the line of centers gives
	// both circles a lever arm parallel to the normal.
	contact := r2.Sub(a.Pos(), r2.Scale(a.circle.EffectiveRadius(), normal))
	return newManifold(a, b, r2.Scale(rsum-dist, normal), contact)
}

// circlePolygon tests circle c against polygon p. The separation is computed
// to move the circle; flip reports that the caller passed the polygon first.
func circlePolygon(c, p *Shape, flip bool) *Manifold {
	origin := p.Pos()
	rel := r2.Sub(c.Pos(), origin)
	verts := p.TransformedVertices()
	r := c.circle.EffectiveRadius()

	axes := make([]r2.Vec, 0, len(verts)+1)
	closest := verts[0]
	best := math.Inf(1)
	for _, v := range verts {
		if d := r2.Norm(r2.Sub(rel, v)); d < best {
			closest, best = v, d
		}
	}
	if toCenter := r2.Sub(rel, closest); best > 0 {
		axes = append(axes, r2.Scale(1/best, toCenter))
	}
	axes = appendEdgeNormals(axes, verts)

	circle := func(axis r2.Vec) geom.Range {
		return geom.Range{Min: -r, Max: r}.Shift(r2.Dot(axis, rel))
	}
	sep, ok := sweep(axes, circle, func(axis r2.Vec) geom.Range { return geom.Project(verts, axis) })
	if !ok {
		return nil
	}
	// The circle's deepest point inside the polygon.
	contact := r2.Sub(c.Pos(), r2.Scale(r, geom.SafeUnit(sep, r2.Vec{})))
	if flip {
		return newManifold(p, c, r2.Scale(-1, sep), contact)
	}
	return newManifold(c, p, sep, contact)
}

// polygonPolygon sweeps the edge normals of a, then of b, and keeps the
// smaller separation. On a tie the normal of b wins. The contact point is the
// centroid of the overlap region's corners; when that region is degenerate
// it falls back to the deepest vertex of the shape whose edge did not win.
func polygonPolygon(a, b *Shape) *Manifold {
	origin := b.Pos()
	offset := r2.Sub(a.Pos(), origin)
	vertsA := a.TransformedVertices()
	for i := range vertsA {
		vertsA[i] = r2.Add(vertsA[i], offset)
	}
	vertsB := b.TransformedVertices()

	projA := func(axis r2.Vec) geom.Range { return geom.Project(vertsA, axis) }
	projB := func(axis r2.Vec) geom.Range { return geom.Project(vertsB, axis) }

	sepA, ok := sweep(appendEdgeNormals(nil, vertsA), projA, projB)
	if !ok {
		return nil
	}
	sepB, ok := sweep(appendEdgeNormals(nil, vertsB), projA, projB)
	if !ok {
		return nil
	}
	// sep points from b toward a, so a vertex of b reaches deepest along
	// +sep and a vertex of a along -sep.
	sep, incident, dir := sepA, vertsB, sepA
	if r2.Norm(sepB) <= r2.Norm(sepA) {
		sep, incident, dir = sepB, vertsA, r2.Scale(-1, sepB)
	}
	contact, ok := overlapCentroid(vertsA, vertsB)
	if !ok {
		contact = support(incident, dir)
	}
	return newManifold(a, b, sep, r2.Add(origin, contact))
}

// sweep projects both shapes on every axis. It reports false as soon as one
// axis separates them; otherwise it returns the shortest vector that moves
// the first shape out of the second.
func sweep(axes []r2.Vec, first, second func(r2.Vec) geom.Range) (r2.Vec, bool) {
	var best r2.Vec
	bestDepth := math.Inf(1)
	for _, axis := range axes {
		ra, rb := first(axis), second(axis)
		if !ra.Overlaps(rb) {
			return r2.Vec{}, false
		}
		d := separation(ra, rb)
		if math.Abs(d) < bestDepth {
			bestDepth = math.Abs(d)
			best = r2.Scale(d, axis)
		}
	}
	return best, !math.IsInf(bestDepth, 1)
}

// separation returns the signed distance along an axis that moves range a
// clear of range b, choosing the shorter direction.
func separation(a, b geom.Range) float64 {
	up := b.Max - a.Min
	down := a.Max - b.Min
	if up < down {
		return up
	}
	return -down
}

// perpendicularAxis returns the unit normal of the edge p1 -> p2.
func perpendicularAxis(p1, p2 r2.Vec) r2.Vec {
	return geom.SafeUnit(r2.Vec{X: p1.Y - p2.Y, Y: p2.X - p1.X}, r2.Vec{})
}

func appendEdgeNormals(axes, verts []r2.Vec) []r2.Vec {
	for i := range verts {
		axis := perpendicularAxis(verts[i], verts[(i+1)%len(verts)])
		if axis == (r2.Vec{}) {
			continue
		}
		axes = append(axes, axis)
	}
	return axes
}
