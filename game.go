package main

import (
	"context"
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/sdfcraft/render"
	"github.com/humboldt-xie/sdfcraft/world"
	"github.com/pkg/errors"
)

type Game struct {
	cfg      *Config
	log      *log.Logger
	registry *world.TypeRegistry

	store  *world.Store
	client *world.Client

	chunks   *world.Manager
	meshes   *render.MeshManager
	observer *Observer

	tick      int
	dug       bool
	triangles map[world.Vec3]int
	meshed    int
}

// NewLoader builds the chunk loader chain for cfg: a remote server when
// cfg.Server is set, otherwise the provider behind an optional store.
func NewLoader(cfg *Config, registry *world.TypeRegistry, logger *log.Logger) (world.Loader, *world.Store, *world.Client, error) {
	if cfg.Server != "" {
		client, err := world.Dial(cfg.Server)
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "dial %s", cfg.Server)
		}
		logger.Printf("loading chunks from %s", cfg.Server)
		return &world.RemoteLoader{Client: client, Lookup: registry.Lookup}, nil, client, nil
	}
	provider, err := cfg.NewProvider(registry)
	if err != nil {
		return nil, nil, nil, err
	}
	var loader world.Loader = world.ProviderLoader{Provider: provider}
	if cfg.Store.Path == "" {
		return loader, nil, nil, nil
	}
	store, err := world.OpenStore(cfg.Store.Path, cfg.Store.CacheSize)
	if err != nil {
		return nil, nil, nil, err
	}
	store.Logger = logger
	return &world.StoreLoader{
		Store:    store,
		Fallback: loader,
		Lookup:   registry.Lookup,
		Logger:   logger,
	}, store, nil, nil
}

func NewGame(cfg *Config, logger *log.Logger) (*Game, error) {
	g := &Game{
		cfg:       cfg,
		log:       logger,
		registry:  cfg.Registry(),
		triangles: make(map[world.Vec3]int),
	}
	loader, store, client, err := NewLoader(cfg, g.registry, logger)
	if err != nil {
		return nil, err
	}
	g.store, g.client = store, client

	mcfg := world.ManagerConfig{
		ChunkSize:    cfg.Chunk.Size,
		LoadDistance: cfg.Chunk.LoadDistance,
		Workers:      cfg.Chunk.Workers,
		Logger:       logger,
	}
	if store != nil {
		mcfg.Saver = store
	}
	g.chunks = world.NewManager(mcfg, cfg.Factory(), loader)
	g.meshes = render.NewMeshManager(g.chunks, render.NewMarchingCubes(), render.MeshConfig{
		MaxPerTick:    cfg.Mesh.MaxPerTick,
		QueueFraction: cfg.Mesh.QueueFraction,
		OnMeshed:      g.onMeshed,
		OnReleased:    g.onReleased,
		Logger:        logger,
	})

	w := cfg.Walk
	g.observer = NewObserver(mgl32.Vec3(w.Start), w.Yaw, w.Pitch, w.Speed)
	return g, nil
}

func (g *Game) onMeshed(h *render.ChunkMesh) {
	g.meshed++
	g.triangles[h.Coord] = h.Mesh.TriangleCount()
}

func (g *Game) onReleased(h *render.ChunkMesh) {
	delete(g.triangles, h.Coord)
}

// Start launches the chunk loaders and attaches the mesh manager.
func (g *Game) Start(ctx context.Context) {
	g.meshes.Attach()
	g.chunks.Start(ctx)
}

// Update advances one tick of dt seconds. It must run on the control
// goroutine.
func (g *Game) Update(dt float64) {
	g.tick++
	g.observer.Walk(dt)
	g.chunks.Update(g.observer.Pos())
	if !g.dug && g.cfg.Walk.Crater > 0 {
		g.dig()
	}
	g.meshes.Update(dt)
	if g.cfg.Walk.StatTick > 0 && g.tick%g.cfg.Walk.StatTick == 0 {
		g.logStat()
	}
}

// dig carves a crater where the observer first looks at the ground. It is
// retried each tick until the chunks around the crater are loaded.
func (g *Game) dig() {
	hit, _, ok := world.HitTest(g.chunks, g.observer.Pos(), g.observer.Front(), float32(g.cfg.Chunk.Size)*g.cfg.Chunk.LoadDistance)
	if !ok {
		return
	}
	n, err := world.Deform(g.chunks, hit.Vec(), g.cfg.Walk.Crater, 1)
	if errors.Is(err, world.ErrChunkNotLoaded) {
		return
	}
	if err != nil {
		g.log.Printf("dig at %v: %v", hit, err)
	}
	g.dug = true
	g.log.Printf("dug crater at %v, %d voxels changed", hit, n)
}

func (g *Game) Triangles() int {
	n := 0
	for _, t := range g.triangles {
		n += t
	}
	return n
}

func (g *Game) logStat() {
	cs := g.chunks.Stats()
	ms := g.meshes.Stats()
	p := g.observer.Pos()
	g.log.Printf("tick %d [%.2f %.2f %.2f] %v chunks %d/%d queued %d meshes %d pending %d built %d triangles %d",
		g.tick, p.X(), p.Y(), p.Z(), g.chunks.Center(),
		cs.Loaded, cs.Loaded+cs.Loading, cs.Queued, ms.Holders, ms.Pending, g.meshed, g.Triangles())
}

// Run ticks the game every interval until ticks have run or ctx is done.
// call wraps each tick; the CLI uses it to run ticks on the main thread.
func (g *Game) Run(ctx context.Context, ticks int, interval time.Duration, call func(func())) {
	timer := time.NewTimer(interval)
	defer timer.Stop()
	last := time.Now()
	for i := 0; ticks <= 0 || i < ticks; i++ {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		start := time.Now()
		dt := start.Sub(last).Seconds()
		last = start
		if dt > 0.1 {
			dt = 0.1
		}
		call(func() { g.Update(dt) })
		d := interval - time.Since(start)
		if d < 0 {
			d = 1
		}
		timer.Reset(d)
	}
}

// Close stops loading, persists edited chunks and releases the store and
// remote connection.
func (g *Game) Close() error {
	g.meshes.Detach()
	err := g.chunks.Close()
	if g.store != nil {
		if cerr := g.store.Close(); err == nil {
			err = cerr
		}
	}
	if g.client != nil {
		g.client.Close()
	}
	g.logStat()
	return err
}
