package collision

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// NewCircle creates a circle hitbox.
func NewCircle(radius, scale float64) (*Shape, error) {
	if !(radius > 0) {
		return nil, fmt.Errorf("circle radius %v: %w", radius, ErrInvalidShape)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("circle scale %v: %w", scale, ErrInvalidShape)
	}
	return &Shape{kind: KindCircle, circle: Circle{Radius: radius, Scale: scale}}, nil
}

// NewPolygon creates a convex polygon hitbox from local-space vertices.
// The slice is copied.
func NewPolygon(verts []r2.Vec, rotation, scale float64) (*Shape, error) {
	if len(verts) < 3 {
		return nil, fmt.Errorf("polygon needs at least 3 vertices, got %d: %w", len(verts), ErrInvalidShape)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("polygon scale %v: %w", scale, ErrInvalidShape)
	}
	return &Shape{
		kind: KindPolygon,
		polygon: Polygon{
			Vertices: append([]r2.Vec(nil), verts...),
			Rotation: rotation,
			Scale:    scale,
		},
	}, nil
}

// NewRectangle creates an axis-aligned box polygon centred on its position.
func NewRectangle(width, height, rotation, scale float64) (*Shape, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("rectangle %vx%v: %w", width, height, ErrInvalidShape)
	}
	return NewPolygon(GenerateRect(width, height), rotation, scale)
}

// GenerateRect returns the counter-clockwise corners of a box centred on the origin.
func GenerateRect(width, height float64) []r2.Vec {
	w, h := width/2, height/2
	return []r2.Vec{
		{X: -w, Y: -h},
		{X: w, Y: -h},
		{X: w, Y: h},
		{X: -w, Y: h},
	}
}

// GeneratePolygon returns the counter-clockwise vertices of a regular polygon
// with the given circumradius.
func GeneratePolygon(sides int, radius float64) ([]r2.Vec, error) {
	if sides < 3 {
		return nil, fmt.Errorf("regular polygon needs at least 3 sides, got %d: %w", sides, ErrInvalidShape)
	}
	step := 2 * math.Pi / float64(sides)
	verts := make([]r2.Vec, sides)
	for i := range verts {
		a := step * float64(i)
		verts[i] = r2.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
	}
	return verts, nil
}
