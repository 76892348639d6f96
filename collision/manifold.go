package collision

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/impulse/geom"
)

// Manifold describes one overlap between two shapes.
//
// Separation is the vector that moves ShapeA out of ShapeB, so Normal points
// from B toward A. ContactA and ContactB are the lever arms from each
// shape's center to a single world contact point inside the overlap. The
// contact point does not depend on which shape is ShapeA.
type Manifold struct {
	ShapeA      *Shape
	ShapeB      *Shape
	Separation  r2.Vec
	Penetration float64
	Normal      r2.Vec
	ContactA    r2.Vec
	ContactB    r2.Vec
}

func newManifold(a, b *Shape, sep, contact r2.Vec) *Manifold {
	depth := r2.Norm(sep)
	return &Manifold{
		ShapeA:      a,
		ShapeB:      b,
		Separation:  sep,
		Penetration: depth,
		Normal:      r2.Scale(1/depth, sep),
		ContactA:    r2.Sub(contact, a.Pos()),
		ContactB:    r2.Sub(contact, b.Pos()),
	}
}

// Flip returns the same overlap seen from ShapeB.
func (m *Manifold) Flip() *Manifold {
	return &Manifold{
		ShapeA:      m.ShapeB,
		ShapeB:      m.ShapeA,
		Separation:  r2.Scale(-1, m.Separation),
		Penetration: m.Penetration,
		Normal:      r2.Scale(-1, m.Normal),
		ContactA:    m.ContactB,
		ContactB:    m.ContactA,
	}
}

func (m *Manifold) String() string {
	return fmt.Sprintf("manifold(pen=%.4g, normal=%v)", m.Penetration, m.Normal)
}

// support returns the vertex of verts furthest along dir.
func support(verts []r2.Vec, dir r2.Vec) r2.Vec {
	best := verts[0]
	bestDot := r2.Dot(best, dir)
	for _, v := range verts[1:] {
		if d := r2.Dot(v, dir); d > bestDot {
			best, bestDot = v, d
		}
	}
	return best
}

// overlapCentroid averages the corners of the region shared by two convex
// polygons: the vertices of each inside the other and the crossings of
// their edges. It reports false when the region has no corners.
func overlapCentroid(a, b []r2.Vec) (r2.Vec, bool) {
	var sum r2.Vec
	n := 0
	add := func(p r2.Vec) {
		sum = r2.Add(sum, p)
		n++
	}
	for _, v := range a {
		if geom.ContainsConvex(b, v) {
			add(v)
		}
	}
	for _, v := range b {
		if geom.ContainsConvex(a, v) {
			add(v)
		}
	}
	for i := range a {
		a1, a2 := a[i], a[(i+1)%len(a)]
		for j := range b {
			if p, ok := geom.SegmentIntersection(a1, a2, b[j], b[(j+1)%len(b)]); ok {
				add(p)
			}
		}
	}
	if n == 0 {
		return r2.Vec{}, false
	}
	return r2.Scale(1/float64(n), sum), true
}
