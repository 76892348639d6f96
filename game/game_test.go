package game

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/impulse/collision"
	"github.com/pthm-cable/impulse/components"
	"github.com/pthm-cable/impulse/config"
	"github.com/pthm-cable/impulse/physics"
	"github.com/pthm-cable/impulse/telemetry"
)

func testConfig(t *testing.T, fixedDeltaMS float64) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Physics.FixedDeltaMS = fixedDeltaMS
	cfg.Derived.FixedDeltaSec = fixedDeltaMS / 1000
	return cfg
}

func newTestGame(t *testing.T, fixedDeltaMS float64) *Game {
	t.Helper()
	g := NewGameWithOptions(Options{Config: testConfig(t, fixedDeltaMS)})
	t.Cleanup(g.Unload)
	return g
}

func bodyConfig(g *Game, mutate func(*physics.Config)) *physics.Config {
	cfg := g.cfg.RigidBody
	if mutate != nil {
		mutate(&cfg)
	}
	return &cfg
}

func circle(t *testing.T, r float64) *collision.Shape {
	t.Helper()
	s, err := collision.NewCircle(r, 1)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func rect(t *testing.T, w, h float64) *collision.Shape {
	t.Helper()
	s, err := collision.NewRectangle(w, h, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func spawn(t *testing.T, g *Game, spec ObjectSpec) ecs.Entity {
	t.Helper()
	e, err := g.SpawnObject(spec)
	if err != nil {
		t.Fatalf("SpawnObject(%q): %v", spec.Name, err)
	}
	return e
}

func TestSpawnObject(t *testing.T) {
	g := newTestGame(t, 20)
	s := circle(t, 1)
	e := spawn(t, g, ObjectSpec{
		Name:      "ball",
		Transform: components.Transform{Position: r2.Vec{X: 3, Y: 4}},
		Body:      bodyConfig(g, nil),
		Hitboxes:  []*collision.Shape{s},
	})

	if g.Name(e) != "ball" {
		t.Errorf("Name = %q", g.Name(e))
	}
	if g.Body(e) == nil {
		t.Fatal("Body is nil")
	}
	if g.Body(e).FixedDelta() != 0.02 {
		t.Errorf("body fixed delta = %v, want 0.02", g.Body(e).FixedDelta())
	}
	if hb := g.Hitboxes(e); len(hb) != 1 || hb[0] != s {
		t.Errorf("Hitboxes = %v", hb)
	}
	if s.Host() != collision.Host(g) || s.Owner() != e {
		t.Error("shape not attached to its object")
	}
	if s.Pos() != (r2.Vec{X: 3, Y: 4}) {
		t.Errorf("shape position = %v, want {3 4}", s.Pos())
	}
}

func TestSpawnObjectErrors(t *testing.T) {
	g := newTestGame(t, 20)
	e := spawn(t, g, ObjectSpec{Name: "a", Body: bodyConfig(g, nil)})

	if err := g.AttachBody(e, g.cfg.RigidBody); !errors.Is(err, ErrDuplicateComponent) {
		t.Errorf("second body: err = %v, want ErrDuplicateComponent", err)
	}

	s := circle(t, 1)
	if err := g.AttachHitbox(e, s); err != nil {
		t.Fatalf("AttachHitbox: %v", err)
	}
	other := spawn(t, g, ObjectSpec{Name: "b"})
	if err := g.AttachHitbox(other, s); !errors.Is(err, ErrDuplicateComponent) {
		t.Errorf("shared shape: err = %v, want ErrDuplicateComponent", err)
	}

	if _, err := g.SpawnObject(ObjectSpec{Hitboxes: []*collision.Shape{{}}}); !errors.Is(err, collision.ErrMissingCapability) {
		t.Errorf("uninitialized shape: err = %v, want ErrMissingCapability", err)
	}
	if _, err := g.SpawnObject(ObjectSpec{Body: &physics.Config{Mass: -1}}); !errors.Is(err, physics.ErrInvalidConfig) {
		t.Errorf("negative mass: err = %v, want ErrInvalidConfig", err)
	}

	if err := g.AddForce(other, r2.Vec{X: 1}); !errors.Is(err, collision.ErrMissingCapability) {
		t.Errorf("force on bodyless object: err = %v, want ErrMissingCapability", err)
	}
	if err := g.AddContinuousForce(other, r2.Vec{X: 1}, 1); !errors.Is(err, collision.ErrMissingCapability) {
		t.Errorf("continuous force on bodyless object: err = %v, want ErrMissingCapability", err)
	}

	if err := g.RemoveObject(e); err != nil {
		t.Fatalf("RemoveObject: %v", err)
	}
	if s.Host() != nil {
		t.Error("shape still attached after its object was removed")
	}
	if err := g.RemoveObject(e); !errors.Is(err, ErrNoObject) {
		t.Errorf("double remove: err = %v, want ErrNoObject", err)
	}
	if err := g.SetTransform(e, components.Transform{}); !errors.Is(err, ErrNoObject) {
		t.Errorf("SetTransform on removed: err = %v, want ErrNoObject", err)
	}
}

func TestRestsOnStaticGround(t *testing.T) {
	tests := []struct {
		name        string
		shape       func(t *testing.T) *collision.Shape
		groundFirst bool
	}{
		{"ball", func(t *testing.T) *collision.Shape { return circle(t, 1) }, false},
		{"ball after ground", func(t *testing.T) *collision.Shape { return circle(t, 1) }, true},
		{"box", func(t *testing.T) *collision.Shape { return rect(t, 2, 2) }, false},
		{"box after ground", func(t *testing.T) *collision.Shape { return rect(t, 2, 2) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, 20)
			ground := ObjectSpec{
				Name:     "ground",
				Body:     bodyConfig(g, func(c *physics.Config) { c.Static = true }),
				Hitboxes: []*collision.Shape{rect(t, 20, 2)},
			}
			if tt.groundFirst {
				spawn(t, g, ground)
			}
			obj := spawn(t, g, ObjectSpec{
				Name:      "falling",
				Transform: components.Transform{Position: r2.Vec{Y: 5}},
				Body:      bodyConfig(g, func(c *physics.Config) { c.Gravity = r2.Vec{Y: -10} }),
				Hitboxes:  []*collision.Shape{tt.shape(t)},
			})
			if !tt.groundFirst {
				spawn(t, g, ground)
			}

			for i := 0; i < 200; i++ {
				g.Step()
			}

			pos, _ := g.Transform(obj)
			if pos.Position.Y < 1.9 || pos.Position.Y > 2.05 {
				t.Errorf("rests at y = %v, want about 2", pos.Position.Y)
			}
			if math.Abs(pos.Position.X) > 1e-6 {
				t.Errorf("drifted to x = %v", pos.Position.X)
			}
			if math.Abs(pos.Rotation) > 1e-6 {
				t.Errorf("rotated to %v degrees resting flat", pos.Rotation)
			}
			if v := g.Body(obj).Velocity.Y; math.Abs(v) > 0.5 {
				t.Errorf("still moving: vy = %v", v)
			}
			if w := g.Body(obj).AngularVelocity; math.Abs(w) > 1e-6 {
				t.Errorf("spinning at %v deg/s", w)
			}
			if g.Tick() != 200 {
				t.Errorf("Tick = %d, want 200", g.Tick())
			}
		})
	}
}

func TestTriggerDoesNotResolve(t *testing.T) {
	g := newTestGame(t, 20)
	var hits int
	zone := rect(t, 4, 4)
	zone.Trigger = true
	zone.Callback = func(*collision.Manifold) { hits++ }

	ball := spawn(t, g, ObjectSpec{
		Name:      "ball",
		Transform: components.Transform{Position: r2.Vec{X: -5}},
		Body:      bodyConfig(g, func(c *physics.Config) { c.Velocity = r2.Vec{X: 10} }),
		Hitboxes:  []*collision.Shape{circle(t, 0.5)},
	})
	spawn(t, g, ObjectSpec{Name: "zone", Hitboxes: []*collision.Shape{zone}})

	for i := 0; i < 50; i++ {
		g.Step()
	}
	if hits == 0 {
		t.Error("trigger callback never fired")
	}
	if v := g.Body(ball).Velocity; v != (r2.Vec{X: 10}) {
		t.Errorf("trigger changed velocity to %v", v)
	}
}

func TestCallbackMayRemoveObjects(t *testing.T) {
	g := newTestGame(t, 20)
	var target ecs.Entity
	pickup := circle(t, 1)
	pickup.Trigger = true
	pickup.Callback = func(m *collision.Manifold) {
		if err := g.RemoveObject(target); err != nil {
			t.Errorf("RemoveObject in callback: %v", err)
		}
	}
	target = spawn(t, g, ObjectSpec{Name: "pickup", Hitboxes: []*collision.Shape{pickup}})
	spawn(t, g, ObjectSpec{Name: "player", Body: bodyConfig(g, nil), Hitboxes: []*collision.Shape{circle(t, 1)}})
	spawn(t, g, ObjectSpec{Name: "other", Body: bodyConfig(g, nil), Hitboxes: []*collision.Shape{circle(t, 1)}})

	g.Step()
	if g.world.Alive(target) {
		t.Error("pickup survived its callback")
	}
	g.Step()
}

func TestContinuousForceThroughGame(t *testing.T) {
	g := newTestGame(t, 250)
	e := spawn(t, g, ObjectSpec{Name: "rocket", Body: bodyConfig(g, nil)})

	if err := g.AddContinuousForce(e, r2.Vec{X: 4}, 0.75); err != nil {
		t.Fatalf("AddContinuousForce: %v", err)
	}
	for i := 0; i < 10; i++ {
		g.Step()
	}
	if v := g.Body(e).Velocity.X; v != 3 {
		t.Errorf("velocity = %v, want 3 applications of 1", v)
	}
	if g.Scheduler().Pending() != 0 {
		t.Errorf("Pending = %d", g.Scheduler().Pending())
	}
}

func TestContinuousForceOnRemovedObject(t *testing.T) {
	g := newTestGame(t, 250)
	e := spawn(t, g, ObjectSpec{Name: "rocket", Body: bodyConfig(g, nil)})
	if err := g.AddContinuousForce(e, r2.Vec{X: 4}, 10); err != nil {
		t.Fatal(err)
	}
	if err := g.RemoveObject(e); err != nil {
		t.Fatal(err)
	}
	g.Step()
	if g.Scheduler().Pending() != 0 {
		t.Errorf("force kept running after its object was removed")
	}
}

func TestAdvanceRunsDueSteps(t *testing.T) {
	g := newTestGame(t, 20)
	if n := g.Advance(50 * time.Millisecond); n != 2 {
		t.Errorf("Advance(50ms) ran %d steps, want 2", n)
	}
	if n := g.Advance(10 * time.Millisecond); n != 1 {
		t.Errorf("Advance(10ms) ran %d steps, want 1", n)
	}
	if n := g.Advance(time.Second); n != g.cfg.Physics.MaxStepsPerUpdate {
		t.Errorf("Advance(1s) ran %d steps, want the cap %d", n, g.cfg.Physics.MaxStepsPerUpdate)
	}
}

func TestTelemetryWindows(t *testing.T) {
	var windows []telemetry.WindowStats
	dir := t.TempDir()
	g := NewGameWithOptions(Options{
		Config:         testConfig(t, 20),
		StatsWindowSec: 0.1,
		OutputDir:      dir,
		StatsCallback:  func(s telemetry.WindowStats) { windows = append(windows, s) },
	})

	spawn(t, g, ObjectSpec{Name: "a", Body: bodyConfig(g, nil), Hitboxes: []*collision.Shape{circle(t, 1)}})
	spawn(t, g, ObjectSpec{
		Name:      "b",
		Transform: components.Transform{Position: r2.Vec{X: 10}},
		Body:      bodyConfig(g, func(c *physics.Config) { c.Static = true }),
		Hitboxes:  []*collision.Shape{circle(t, 1)},
	})

	for i := 0; i < 10; i++ {
		g.Step()
	}
	g.Unload()

	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(windows))
	}
	w := windows[0]
	if w.Bodies != 2 || w.DynamicBodies != 1 {
		t.Errorf("bodies = %d dynamic = %d, want 2 and 1", w.Bodies, w.DynamicBodies)
	}
	if w.Tests != 5 || w.Manifolds != 0 {
		t.Errorf("tests = %d manifolds = %d, want 5 and 0", w.Tests, w.Manifolds)
	}

	f, err := os.Open(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatalf("telemetry.csv: %v", err)
	}
	defer f.Close()
	rows, err := telemetry.ReadTelemetry(f)
	if err != nil {
		t.Fatalf("ReadTelemetry: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("telemetry.csv has %d rows, want 2", len(rows))
	}
}

func TestPenetrationCountsResolvedOverlapsOnly(t *testing.T) {
	tests := []struct {
		name         string
		vx           float64
		wantResolved bool
	}{
		{"separating", -4, false},
		{"approaching", 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var windows []telemetry.WindowStats
			g := NewGameWithOptions(Options{
				Config:         testConfig(t, 20),
				StatsWindowSec: 0.1,
				StatsCallback:  func(s telemetry.WindowStats) { windows = append(windows, s) },
			})
			t.Cleanup(g.Unload)

			spawn(t, g, ObjectSpec{
				Name:     "a",
				Body:     bodyConfig(g, func(c *physics.Config) { c.Velocity = r2.Vec{X: tt.vx} }),
				Hitboxes: []*collision.Shape{circle(t, 1)},
			})
			spawn(t, g, ObjectSpec{
				Name:      "b",
				Transform: components.Transform{Position: r2.Vec{X: 1.5}},
				Body:      bodyConfig(g, func(c *physics.Config) { c.Static = true }),
				Hitboxes:  []*collision.Shape{circle(t, 1)},
			})

			for i := 0; i < 5; i++ {
				g.Step()
			}
			if len(windows) != 1 {
				t.Fatalf("got %d windows, want 1", len(windows))
			}
			w := windows[0]
			if w.Manifolds == 0 {
				t.Fatal("no overlaps recorded")
			}
			if tt.wantResolved {
				if w.Resolved == 0 || w.PenetrationMax < 0.5 {
					t.Errorf("resolved = %d penetration max = %v, want impulses with depth >= 0.5", w.Resolved, w.PenetrationMax)
				}
				return
			}
			if w.Resolved != 0 || w.Separating != w.Manifolds {
				t.Errorf("resolved = %d separating = %d manifolds = %d", w.Resolved, w.Separating, w.Manifolds)
			}
			if w.PenetrationMean != 0 || w.PenetrationMax != 0 {
				t.Errorf("separating overlaps counted: mean %v max %v", w.PenetrationMean, w.PenetrationMax)
			}
		})
	}
}

func TestLoadSceneFile(t *testing.T) {
	g := newTestGame(t, 20)
	path := filepath.Join(t.TempDir(), "scene.yaml")
	data := []byte(`
objects:
  - name: ball
    position: {x: 0, y: 3}
    body: {gravity: {x: 0, y: -10}}
    hitboxes:
      - circle: {radius: 1}
tilemaps:
  - name: floor
    tile_size: {x: 2, y: 2}
    map: [[1, 1, 1]]
    collision: [1]
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	spawned, err := g.LoadSceneFile(path)
	if err != nil {
		t.Fatalf("LoadSceneFile: %v", err)
	}
	if len(spawned) != 2 {
		t.Fatalf("spawned %d objects, want 2", len(spawned))
	}
	ball, floor := spawned[0], spawned[1]
	if g.Name(ball) != "ball" || g.Body(ball) == nil {
		t.Errorf("ball not spawned with a body")
	}
	if g.Body(floor) != nil || len(g.Hitboxes(floor)) != 3 {
		t.Errorf("floor: body %v, %d hitboxes", g.Body(floor), len(g.Hitboxes(floor)))
	}

	for i := 0; i < 200; i++ {
		g.Step()
	}
	pos, _ := g.Transform(ball)
	// Floor tiles span y in [-1, 1]; the ball rests on top.
	if pos.Position.Y < 1.9 || pos.Position.Y > 2.05 {
		t.Errorf("ball rests at y = %v, want about 2", pos.Position.Y)
	}

	if err := os.WriteFile(path, []byte("objects:\n  - name: only\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := g.ReloadSceneFile(path); err != nil {
		t.Fatalf("ReloadSceneFile: %v", err)
	}
	if g.world.Alive(ball) || g.world.Alive(floor) {
		t.Error("reload kept old objects")
	}
}

func TestReloadKeepsObjectsOnBadScene(t *testing.T) {
	g := newTestGame(t, 20)
	e := spawn(t, g, ObjectSpec{Name: "keep"})
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("objects:\n  - hitboxes:\n      - {}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := g.ReloadSceneFile(path); err == nil {
		t.Fatal("ReloadSceneFile accepted an invalid scene")
	}
	if !g.world.Alive(e) {
		t.Error("bad reload removed existing objects")
	}
}
