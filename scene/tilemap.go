package scene

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/impulse/collision"
	"github.com/pthm-cable/impulse/components"
	"github.com/pthm-cable/impulse/config"
)

// TilemapSpec describes a grid of tiles. Tiles whose id is listed in
// Collision become static rectangle hitboxes of the owning object.
type TilemapSpec struct {
	Name         string     `yaml:"name"`
	Position     r2.Vec     `yaml:"position"`
	TileSize     r2.Vec     `yaml:"tile_size"`
	Scale        r2.Vec     `yaml:"scale"`
	Map          [][]int    `yaml:"map"`
	Collision    []int      `yaml:"collision"`
	ColliderTags []string   `yaml:"collider_tags"` // indexed by tile id
	Body         yaml.Node  `yaml:"body"`
}

func (tm TilemapSpec) validate() error {
	if tm.TileSize.X <= 0 || tm.TileSize.Y <= 0 {
		return fmt.Errorf("tile_size must be positive, got %v: %w", tm.TileSize, ErrInvalidScene)
	}
	if tm.Scale.X < 0 || tm.Scale.Y < 0 {
		return fmt.Errorf("scale must not be negative, got %v: %w", tm.Scale, ErrInvalidScene)
	}
	return checkBody(&tm.Body)
}

func (tm TilemapSpec) scale() r2.Vec {
	s := tm.Scale
	if s.X == 0 {
		s.X = 1
	}
	if s.Y == 0 {
		s.Y = 1
	}
	return s
}

// Dims returns the unscaled size of the map: the longest row by the row count.
func (tm TilemapSpec) Dims() r2.Vec {
	cols := 0
	for _, row := range tm.Map {
		cols = max(cols, len(row))
	}
	return r2.Vec{X: float64(cols) * tm.TileSize.X, Y: float64(len(tm.Map)) * tm.TileSize.Y}
}

func (tm TilemapSpec) collides(id int) bool {
	for _, c := range tm.Collision {
		if c == id {
			return true
		}
	}
	return false
}

func (tm TilemapSpec) tag(id int) string {
	if id >= 0 && id < len(tm.ColliderTags) {
		return tm.ColliderTags[id]
	}
	return ""
}

// Hitboxes returns one rectangle per colliding tile, offset so the map is
// centred on its object.
func (tm TilemapSpec) Hitboxes() ([]*collision.Shape, error) {
	dims := tm.Dims()
	scale := tm.scale()
	tw, th := tm.TileSize.X*scale.X, tm.TileSize.Y*scale.Y

	var out []*collision.Shape
	for i, row := range tm.Map {
		for j, id := range row {
			if !tm.collides(id) {
				continue
			}
			s, err := collision.NewRectangle(tw, th, 0, 1)
			if err != nil {
				return nil, err
			}
			s.Tag = tm.tag(id)
			s.Offset = r2.Vec{
				X: (float64(j)*tm.TileSize.X - dims.X/2 + tm.TileSize.X/2) * scale.X,
				Y: (float64(i)*tm.TileSize.Y - dims.Y/2 + tm.TileSize.Y/2) * scale.Y,
			}
			out = append(out, s)
		}
	}
	return out, nil
}

func (tm TilemapSpec) build(cfg *config.Config) (Object, error) {
	obj := Object{
		Name:      tm.Name,
		Transform: components.Transform{Position: tm.Position},
	}
	if hasBody(&tm.Body) {
		base := cfg.RigidBody
		base.Static = true
		body, err := decodeBody(&tm.Body, base)
		if err != nil {
			return Object{}, err
		}
		obj.Body = body
	}
	shapes, err := tm.Hitboxes()
	if err != nil {
		return Object{}, err
	}
	obj.Hitboxes = shapes
	return obj, nil
}
