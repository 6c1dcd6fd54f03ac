package main

import (
	"context"
	"io/ioutil"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/sdfcraft/world"
)

func testGameConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.Chunk.Size = 8
	cfg.Chunk.LoadDistance = 1
	cfg.Provider.Kind = "flat"
	cfg.Store.Path = filepath.Join(t.TempDir(), "chunks.db")
	cfg.Walk = WalkConfig{Start: [3]float32{4, 6, 4}, Pitch: -89, Crater: 2}
	return cfg
}

func quietLogger() *log.Logger {
	return log.New(ioutil.Discard, "", 0)
}

func TestObserverWalk(t *testing.T) {
	o := NewObserver(mgl32.Vec3{0, 10, 0}, 0, -30, 8)
	o.Walk(1)
	if !o.Pos().ApproxEqualThreshold(mgl32.Vec3{8, 10, 0}, 1e-4) {
		t.Fatalf("walked to %v", o.Pos())
	}
	if o.Front().Y() >= 0 {
		t.Fatalf("front %v should look down", o.Front())
	}
	o.ChangeAngle(90, -200)
	if s := o.State(); s.Ry != -89 || s.Rx != 90 {
		t.Fatalf("angles %v %v", s.Rx, s.Ry)
	}
	o.Move(MoveRight, 1)
	o.Move(MoveLeft, 1)
	if !o.Pos().ApproxEqualThreshold(mgl32.Vec3{8, 10, 0}, 1e-4) {
		t.Fatalf("left/right moved to %v", o.Pos())
	}
}

func TestGameDigsAndPersists(t *testing.T) {
	cfg := testGameConfig(t)
	g, err := NewGame(cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Start(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for !(g.dug && g.chunks.Stats().Loaded == 7 && g.meshes.Stats().Pending == 0) {
		if time.Now().After(deadline) {
			t.Fatalf("did not settle: dug %v chunks %+v meshes %+v", g.dug, g.chunks.Stats(), g.meshes.Stats())
		}
		g.Update(0.05)
		time.Sleep(time.Millisecond)
	}
	// flush the crater edits into the meshes
	g.Update(0.05)
	g.Update(0.05)

	if s := g.chunks.Stats(); s.Edited == 0 {
		t.Fatalf("no chunk edited: %+v", s)
	}
	if len(g.triangles) != 7 || g.Triangles() == 0 {
		t.Fatalf("%d meshes, %d triangles", len(g.triangles), g.Triangles())
	}
	if h, ok := g.meshes.Holder(world.Vec3{}); !ok || h.Version == 0 {
		t.Fatalf("holder %+v", h)
	}
	if err := g.Close(); err != nil {
		t.Fatal(err)
	}

	store, err := world.OpenStore(cfg.Store.Path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	coords, err := store.Coords()
	if err != nil {
		t.Fatal(err)
	}
	saved := map[world.Vec3]bool{}
	for _, c := range coords {
		saved[c] = true
	}
	if !saved[world.Vec3{}] {
		t.Fatalf("crater chunk not saved: %v", coords)
	}
}

func TestGameRunStops(t *testing.T) {
	cfg := testGameConfig(t)
	cfg.Store.Path = ""
	g, err := NewGame(cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Start(ctx)
	calls := 0
	g.Run(ctx, 5, time.Millisecond, func(f func()) {
		calls++
		f()
	})
	if calls != 5 || g.tick != 5 {
		t.Fatalf("%d calls, tick %d", calls, g.tick)
	}
	cancel()
	g.Run(ctx, 0, time.Millisecond, func(f func()) { f() })
	if g.tick != 5 {
		t.Fatalf("ran after cancel: tick %d", g.tick)
	}
	if err := g.Close(); err != nil {
		t.Fatal(err)
	}
}
