package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/impulse/collision"
	"github.com/pthm-cable/impulse/config"
)

const sampleScene = `
objects:
  - name: ball
    position: {x: 0, y: 10}
    body:
      mass: 4
      gravity: {x: 0, y: -9.8}
    hitboxes:
      - circle: {radius: 2}
        tag: ball
  - name: sensor
    position: {x: 5, y: 0}
    hitboxes:
      - rect: {width: 2, height: 4}
        trigger: true
      - regular: {sides: 6, radius: 1}
        offset: {x: 3, y: 0}
      - polygon:
          vertices: [{x: 0, y: 0}, {x: 1, y: 0}, {x: 0, y: 1}]
          scale: 2
tilemaps:
  - name: ground
    position: {x: 0, y: -20}
    tile_size: {x: 32, y: 32}
    map:
      - [1, 1]
      - [0, 1]
    collision: [1]
    collider_tags: ["", "ground"]
`

func mustConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

func TestParseAndBuild(t *testing.T) {
	sc, err := Parse([]byte(sampleScene))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	objs, err := sc.Build(mustConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(objs) != 3 {
		t.Fatalf("got %d objects, want 3", len(objs))
	}

	ball := objs[0]
	if ball.Transform.Position != (r2.Vec{Y: 10}) {
		t.Errorf("ball position = %v", ball.Transform.Position)
	}
	if ball.Body == nil {
		t.Fatal("ball has no body")
	}
	if ball.Body.Mass != 4 || ball.Body.Gravity != (r2.Vec{Y: -9.8}) {
		t.Errorf("ball body = %+v", ball.Body)
	}
	// Keys not overridden keep the config defaults.
	if ball.Body.PosCorrection != 0.25 || ball.Body.Moment != 1 {
		t.Errorf("ball body lost defaults: %+v", ball.Body)
	}
	c, ok := ball.Hitboxes[0].AsCircle()
	if !ok || c.Radius != 2 || c.Scale != 1 {
		t.Errorf("ball circle = %+v", c)
	}
	if ball.Hitboxes[0].Tag != "ball" {
		t.Errorf("tag = %q", ball.Hitboxes[0].Tag)
	}

	sensor := objs[1]
	if sensor.Body != nil {
		t.Error("sensor should have no body")
	}
	if len(sensor.Hitboxes) != 3 {
		t.Fatalf("sensor hitboxes = %d, want 3", len(sensor.Hitboxes))
	}
	if !sensor.Hitboxes[0].Trigger {
		t.Error("rect should be a trigger")
	}
	if p, _ := sensor.Hitboxes[1].AsPolygon(); len(p.Vertices) != 6 {
		t.Errorf("regular polygon has %d vertices, want 6", len(p.Vertices))
	}
	if sensor.Hitboxes[1].Offset != (r2.Vec{X: 3}) {
		t.Errorf("offset = %v", sensor.Hitboxes[1].Offset)
	}
	if p, _ := sensor.Hitboxes[2].AsPolygon(); p.Scale != 2 {
		t.Errorf("polygon scale = %v, want 2", p.Scale)
	}
	for i, s := range sensor.Hitboxes {
		if s.Host() != nil {
			t.Errorf("hitbox %d is attached before spawning", i)
		}
	}

	ground := objs[2]
	if ground.Name != "ground" || ground.Body != nil {
		t.Errorf("ground = %+v", ground)
	}
	if len(ground.Hitboxes) != 3 {
		t.Fatalf("ground hitboxes = %d, want 3", len(ground.Hitboxes))
	}
}

func TestTilemapHitboxes(t *testing.T) {
	tm := TilemapSpec{
		TileSize:     r2.Vec{X: 32, Y: 32},
		Map:          [][]int{{1, 1}, {0, 1}},
		Collision:    []int{1},
		ColliderTags: []string{"", "ground"},
	}
	if d := tm.Dims(); d != (r2.Vec{X: 64, Y: 64}) {
		t.Fatalf("Dims = %v, want {64 64}", d)
	}

	shapes, err := tm.Hitboxes()
	if err != nil {
		t.Fatalf("Hitboxes: %v", err)
	}
	want := []r2.Vec{{X: -16, Y: -16}, {X: 16, Y: -16}, {X: 16, Y: 16}}
	if len(shapes) != len(want) {
		t.Fatalf("got %d shapes, want %d", len(shapes), len(want))
	}
	for i, s := range shapes {
		if s.Offset != want[i] {
			t.Errorf("shape %d offset = %v, want %v", i, s.Offset, want[i])
		}
		if s.Tag != "ground" {
			t.Errorf("shape %d tag = %q", i, s.Tag)
		}
		if s.Kind() != collision.KindPolygon {
			t.Errorf("shape %d kind = %v", i, s.Kind())
		}
		dims := s.BoundingBoxDims()
		if !scalar.EqualWithinAbs(dims.X, 32, 1e-9) || !scalar.EqualWithinAbs(dims.Y, 32, 1e-9) {
			t.Errorf("shape %d dims = %v, want 32x32", i, dims)
		}
	}
}

func TestTilemapScaleAndRaggedRows(t *testing.T) {
	tm := TilemapSpec{
		TileSize:  r2.Vec{X: 10, Y: 10},
		Scale:     r2.Vec{X: 2, Y: 2},
		Map:       [][]int{{2}, {0, 0, 2}},
		Collision: []int{2},
	}
	if d := tm.Dims(); d != (r2.Vec{X: 30, Y: 20}) {
		t.Fatalf("Dims = %v, want {30 20}", d)
	}
	shapes, err := tm.Hitboxes()
	if err != nil {
		t.Fatal(err)
	}
	if len(shapes) != 2 {
		t.Fatalf("got %d shapes, want 2", len(shapes))
	}
	// Tile ids beyond the tag list get no tag.
	if shapes[0].Tag != "" {
		t.Errorf("tag = %q, want empty", shapes[0].Tag)
	}
	if shapes[0].Offset != (r2.Vec{X: -20, Y: -10}) {
		t.Errorf("first offset = %v, want {-20 -10}", shapes[0].Offset)
	}
	if shapes[1].Offset != (r2.Vec{X: 20, Y: 10}) {
		t.Errorf("second offset = %v, want {20 10}", shapes[1].Offset)
	}
	dims := shapes[0].BoundingBoxDims()
	if !scalar.EqualWithinAbs(dims.X, 20, 1e-9) {
		t.Errorf("scaled tile width = %v, want 20", dims.X)
	}
}

func TestTilemapBodyDefaultsStatic(t *testing.T) {
	sc, err := Parse([]byte(`
tilemaps:
  - name: walls
    tile_size: {x: 1, y: 1}
    map: [[1]]
    collision: [1]
    body: {friction: 0.5}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	objs, err := sc.Build(mustConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b := objs[0].Body
	if b == nil || !b.Static || b.Friction != 0.5 {
		t.Errorf("tilemap body = %+v, want static with friction 0.5", b)
	}
}

func TestBodyPresence(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantBody bool
	}{
		{"omitted", "objects:\n  - name: a\n", false},
		{"null", "objects:\n  - name: a\n    body: null\n", false},
		{"empty key", "objects:\n  - name: a\n    body:\n", false},
		{"empty mapping", "objects:\n  - name: a\n    body: {}\n", true},
		{"overrides", "objects:\n  - name: a\n    body: {mass: 2}\n", true},
	}
	cfg := mustConfig(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			objs, err := sc.Build(cfg)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if got := objs[0].Body != nil; got != tt.wantBody {
				t.Fatalf("has body = %v, want %v", got, tt.wantBody)
			}
			if tt.wantBody && objs[0].Body.Moment != cfg.RigidBody.Moment {
				t.Errorf("moment = %v, want default %v", objs[0].Body.Moment, cfg.RigidBody.Moment)
			}
		})
	}
}

func TestInvalidScenes(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no variant", "objects:\n  - name: a\n    hitboxes:\n      - tag: x\n"},
		{"two variants", "objects:\n  - name: a\n    hitboxes:\n      - circle: {radius: 1}\n        rect: {width: 1, height: 1}\n"},
		{"body not a mapping", "objects:\n  - name: a\n    body: 3\n"},
		{"body is a sequence", "objects:\n  - name: a\n    body: [1, 2]\n"},
		{"tilemap body not a mapping", "tilemaps:\n  - name: t\n    tile_size: {x: 1, y: 1}\n    body: static\n"},
		{"zero tile size", "tilemaps:\n  - name: t\n    map: [[1]]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, ErrInvalidScene) {
				t.Errorf("err = %v, want ErrInvalidScene", err)
			}
		})
	}
}

func TestBuildRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"polygon with two vertices", "objects:\n  - hitboxes:\n      - polygon: {vertices: [{x: 0, y: 0}, {x: 1, y: 0}]}\n", collision.ErrInvalidShape},
		{"regular with two sides", "objects:\n  - hitboxes:\n      - regular: {sides: 2, radius: 1}\n", collision.ErrInvalidShape},
		{"negative radius", "objects:\n  - hitboxes:\n      - circle: {radius: -1}\n", collision.ErrInvalidShape},
	}
	cfg := mustConfig(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if _, err := sc.Build(cfg); !errors.Is(err, tt.want) {
				t.Errorf("Build err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(sampleScene), 0644); err != nil {
		t.Fatal(err)
	}
	sc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sc.Objects) != 2 || len(sc.Tilemaps) != 1 {
		t.Errorf("loaded %d objects and %d tilemaps", len(sc.Objects), len(sc.Tilemaps))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of a missing file should fail")
	}
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	other := filepath.Join(dir, "other.yaml")
	if err := os.WriteFile(path, []byte(sampleScene), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(other, []byte("objects: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("objects: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	abs, _ := filepath.Abs(path)
	select {
	case got := <-w.Events:
		if got != abs {
			t.Errorf("event for %q, want %q", got, abs)
		}
	case err := <-w.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("no event after writing the scene file")
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, ok := <-w.Events; ok {
		t.Error("Events still open after Close")
	}
}
