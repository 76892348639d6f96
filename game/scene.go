package game

import (
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/impulse/scene"
)

// LoadScene spawns every object of sc. On error nothing from sc remains.
func (g *Game) LoadScene(sc *scene.Scene) ([]ecs.Entity, error) {
	objects, err := sc.Build(g.cfg)
	if err != nil {
		return nil, err
	}

	spawned := make([]ecs.Entity, 0, len(objects))
	for _, o := range objects {
		e, err := g.SpawnObject(ObjectSpec{
			Name:      o.Name,
			Transform: o.Transform,
			Body:      o.Body,
			Hitboxes:  o.Hitboxes,
		})
		if err != nil {
			for _, s := range spawned {
				g.RemoveObject(s)
			}
			return nil, err
		}
		spawned = append(spawned, e)
	}
	return spawned, nil
}

// LoadSceneFile reads a scene file and spawns its objects.
func (g *Game) LoadSceneFile(path string) ([]ecs.Entity, error) {
	sc, err := scene.Load(path)
	if err != nil {
		return nil, err
	}
	spawned, err := g.LoadScene(sc)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	slog.Info("scene loaded", "path", path, "objects", len(spawned))
	return spawned, nil
}

// ReloadSceneFile replaces every object with the contents of a scene file.
// The current objects are kept if the file fails to load.
func (g *Game) ReloadSceneFile(path string) error {
	sc, err := scene.Load(path)
	if err != nil {
		return err
	}
	if _, err := sc.Build(g.cfg); err != nil {
		return fmt.Errorf("scene %s: %w", path, err)
	}
	g.ClearObjects()
	_, err = g.LoadScene(sc)
	return err
}
