// Package scene loads YAML scene descriptions of game objects and tilemaps.
package scene

import (
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/impulse/collision"
	"github.com/pthm-cable/impulse/components"
	"github.com/pthm-cable/impulse/config"
	"github.com/pthm-cable/impulse/physics"
)

// ErrInvalidScene is returned for scene files that do not describe a valid scene.
var ErrInvalidScene = errors.New("scene: invalid scene")

// Scene is the top-level document of a scene file.
type Scene struct {
	Objects  []ObjectSpec  `yaml:"objects"`
	Tilemaps []TilemapSpec `yaml:"tilemaps"`
}

// ObjectSpec describes one game object.
type ObjectSpec struct {
	Name     string       `yaml:"name"`
	Position r2.Vec       `yaml:"position"`
	Rotation float64      `yaml:"rotation"`
	Body     yaml.Node    `yaml:"body"` // overrides of the rigidbody defaults; absent = no body
	Hitboxes []HitboxSpec `yaml:"hitboxes"`
}

// HitboxSpec describes one shape. Exactly one variant must be set.
type HitboxSpec struct {
	Circle  *CircleSpec  `yaml:"circle"`
	Polygon *PolygonSpec `yaml:"polygon"`
	Rect    *RectSpec    `yaml:"rect"`
	Regular *RegularSpec `yaml:"regular"`

	Trigger bool   `yaml:"trigger"`
	Debug   bool   `yaml:"debug"`
	Tag     string `yaml:"tag"`
	Offset  r2.Vec `yaml:"offset"`
}

// CircleSpec describes a circle. Zero fields take the config defaults.
type CircleSpec struct {
	Radius float64 `yaml:"radius"`
	Scale  float64 `yaml:"scale"`
}

// PolygonSpec describes a convex polygon by its local vertices.
type PolygonSpec struct {
	Vertices []r2.Vec `yaml:"vertices"`
	Rotation float64  `yaml:"rotation"`
	Scale    float64  `yaml:"scale"`
}

// RectSpec describes a box centred on the object.
type RectSpec struct {
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Rotation float64 `yaml:"rotation"`
	Scale    float64 `yaml:"scale"`
}

// RegularSpec describes a regular polygon by side count and circumradius.
type RegularSpec struct {
	Sides    int     `yaml:"sides"`
	Radius   float64 `yaml:"radius"`
	Rotation float64 `yaml:"rotation"`
	Scale    float64 `yaml:"scale"`
}

// Object is a built game object ready to spawn.
type Object struct {
	Name      string
	Transform components.Transform
	Body      *physics.Config
	Hitboxes  []*collision.Shape
}

// Load reads and validates a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: load %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scene: %s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scene document.
func Parse(data []byte) (*Scene, error) {
	var sc Scene
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the structure of the scene without building shapes.
func (sc *Scene) Validate() error {
	for i, o := range sc.Objects {
		for j, h := range o.Hitboxes {
			if n := h.variants(); n != 1 {
				return fmt.Errorf("object %d (%q) hitbox %d sets %d shape variants, want 1: %w", i, o.Name, j, n, ErrInvalidScene)
			}
		}
		if err := checkBody(&o.Body); err != nil {
			return fmt.Errorf("object %d (%q): %w", i, o.Name, err)
		}
	}
	for i, tm := range sc.Tilemaps {
		if err := tm.validate(); err != nil {
			return fmt.Errorf("tilemap %d (%q): %w", i, tm.Name, err)
		}
	}
	return nil
}

// hasBody reports whether a body section was written. An omitted key leaves
// the node zero; "body:" or "body: null" yields a null scalar.
func hasBody(n *yaml.Node) bool {
	return n.Kind != 0 && n.ShortTag() != "!!null"
}

func checkBody(n *yaml.Node) error {
	if hasBody(n) && n.Kind != yaml.MappingNode {
		return fmt.Errorf("body must be a mapping: %w", ErrInvalidScene)
	}
	return nil
}

// decodeBody overlays the keys of n on base.
func decodeBody(n *yaml.Node, base physics.Config) (*physics.Config, error) {
	if err := n.Decode(&base); err != nil {
		return nil, fmt.Errorf("body: %v: %w", err, ErrInvalidScene)
	}
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	return &base, nil
}

func (h HitboxSpec) variants() int {
	n := 0
	if h.Circle != nil {
		n++
	}
	if h.Polygon != nil {
		n++
	}
	if h.Rect != nil {
		n++
	}
	if h.Regular != nil {
		n++
	}
	return n
}

// Build constructs every object and tilemap, filling omitted values from cfg.
func (sc *Scene) Build(cfg *config.Config) ([]Object, error) {
	var out []Object
	for i, o := range sc.Objects {
		obj, err := o.build(cfg)
		if err != nil {
			return nil, fmt.Errorf("object %d (%q): %w", i, o.Name, err)
		}
		out = append(out, obj)
	}
	for i, tm := range sc.Tilemaps {
		obj, err := tm.build(cfg)
		if err != nil {
			return nil, fmt.Errorf("tilemap %d (%q): %w", i, tm.Name, err)
		}
		out = append(out, obj)
	}
	return out, nil
}

func (o ObjectSpec) build(cfg *config.Config) (Object, error) {
	obj := Object{
		Name:      o.Name,
		Transform: components.Transform{Position: o.Position, Rotation: o.Rotation},
	}
	if hasBody(&o.Body) {
		body, err := decodeBody(&o.Body, cfg.RigidBody)
		if err != nil {
			return Object{}, err
		}
		obj.Body = body
	}
	for j, h := range o.Hitboxes {
		s, err := h.build(cfg)
		if err != nil {
			return Object{}, fmt.Errorf("hitbox %d: %w", j, err)
		}
		obj.Hitboxes = append(obj.Hitboxes, s)
	}
	return obj, nil
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func (h HitboxSpec) build(cfg *config.Config) (*collision.Shape, error) {
	var (
		s   *collision.Shape
		err error
	)
	polyScale := func(v float64) float64 { return orDefault(v, cfg.Polygon.Scale) }
	polyRot := func(v float64) float64 { return v + cfg.Polygon.Rotation }

	switch {
	case h.Circle != nil:
		s, err = collision.NewCircle(orDefault(h.Circle.Radius, cfg.Circle.Radius), orDefault(h.Circle.Scale, cfg.Circle.Scale))
	case h.Polygon != nil:
		s, err = collision.NewPolygon(h.Polygon.Vertices, polyRot(h.Polygon.Rotation), polyScale(h.Polygon.Scale))
	case h.Rect != nil:
		s, err = collision.NewRectangle(h.Rect.Width, h.Rect.Height, polyRot(h.Rect.Rotation), polyScale(h.Rect.Scale))
	case h.Regular != nil:
		var verts []r2.Vec
		verts, err = collision.GeneratePolygon(h.Regular.Sides, h.Regular.Radius)
		if err == nil {
			s, err = collision.NewPolygon(verts, polyRot(h.Regular.Rotation), polyScale(h.Regular.Scale))
		}
	default:
		return nil, fmt.Errorf("no shape variant: %w", ErrInvalidScene)
	}
	if err != nil {
		return nil, err
	}

	s.Trigger = h.Trigger
	s.Debug = h.Debug
	s.Tag = h.Tag
	s.Offset = h.Offset
	return s, nil
}
