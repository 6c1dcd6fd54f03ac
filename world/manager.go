package world

import (
	"context"
	"log"
	"math"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

type ManagerConfig struct {
	// ChunkSize is the edge length of a chunk in voxels.
	ChunkSize int
	// LoadDistance is the radius, in chunks, of the resident sphere.
	LoadDistance float32
	// Workers is the number of loader goroutines. With one worker chunks
	// complete in request order.
	Workers int
	// Saver, when set, receives edited chunks on eviction and on Close.
	Saver  Saver
	Logger *log.Logger
}

func (c ManagerConfig) withDefaults() ManagerConfig {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 16
	}
	if c.LoadDistance < 0 {
		c.LoadDistance = 0
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}

type ManagerStats struct {
	Loaded     int
	Loading    int
	Queued     int
	Recyclable int
	Edited     int
	Requested  int
	Discarded  int
	Failed     int
}

type loadJob struct {
	coord   Vec3
	size    int
	factory Factory
}

type loadResult struct {
	coord Vec3
	size  int
	chunk Chunk
	err   error
}

// Manager keeps the chunks inside a sphere around the observer resident.
// Apart from Start and Close, its methods must be called from one control
// goroutine; chunks cross to the loader goroutines only through queues.
type Manager struct {
	cfg     ManagerConfig
	log     *log.Logger
	factory Factory
	loader  Loader

	size     int
	distance float32
	offsets  []Vec3

	center     Vec3
	haveCenter bool
	wanted     map[Vec3]bool

	loaded   map[Vec3]Chunk
	loading  map[Vec3]bool
	edited   map[Vec3]bool
	modified map[Vec3]uint8

	recycle *Pool[Chunk]
	jobs    *Queue[loadJob]
	results *Queue[loadResult]

	events listeners
	stats  ManagerStats

	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

func NewManager(cfg ManagerConfig, factory Factory, loader Loader) *Manager {
	cfg = cfg.withDefaults()
	m := &Manager{
		cfg:      cfg,
		log:      cfg.Logger,
		factory:  factory,
		loader:   loader,
		size:     cfg.ChunkSize,
		loaded:   make(map[Vec3]Chunk),
		loading:  make(map[Vec3]bool),
		edited:   make(map[Vec3]bool),
		modified: make(map[Vec3]uint8),
		recycle:  NewPool[Chunk](),
		jobs:     NewQueue[loadJob](),
		results:  NewQueue[loadResult](),
	}
	m.setDistance(cfg.LoadDistance)
	return m
}

// Start launches the loader goroutines. They exit when ctx is done or the
// manager is closed.
func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	for i := 0; i < m.cfg.Workers; i++ {
		m.wg.Add(1)
		go m.run(ctx)
	}
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	for {
		job, err := m.jobs.Pop(ctx)
		if err != nil || ctx.Err() != nil {
			return
		}
		m.results.Push(m.load(job))
	}
}

func (m *Manager) load(job loadJob) loadResult {
	offset := job.coord.Mul(job.size)
	var c Chunk
	for c == nil {
		pooled, ok := m.recycle.Get()
		if !ok {
			c = job.factory(offset)
			break
		}
		if SameShape(pooled, job.size, job.size, job.size) {
			pooled.SetOffset(offset)
			c = pooled
		}
	}
	err := m.loader.Load(c)
	return loadResult{coord: job.coord, size: job.size, chunk: c, err: err}
}

// Close stops the loaders, waits for in-flight loads to finish and saves
// edited chunks.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if m.cancel != nil {
		m.cancel()
	}
	m.jobs.Close()
	m.jobs.Clear()
	m.wg.Wait()
	return m.SaveEdited()
}

// SaveEdited persists every resident chunk edited since it was loaded.
func (m *Manager) SaveEdited() error {
	if m.cfg.Saver == nil {
		return nil
	}
	var first error
	for _, coord := range sortedCoords(m.edited) {
		c, ok := m.loaded[coord]
		if !ok {
			delete(m.edited, coord)
			continue
		}
		if err := m.cfg.Saver.Save(coord, c); err != nil {
			m.log.Printf("save chunk %v: %v", coord, err)
			if first == nil {
				first = err
			}
			continue
		}
		delete(m.edited, coord)
	}
	return first
}

// Update runs one scheduling tick for an observer at the given position.
func (m *Manager) Update(observer mgl32.Vec3) {
	m.flushModified()

	center := ChunkOf(observer, m.size)
	if !m.haveCenter || center != m.center || m.wanted == nil {
		m.center = center
		m.haveCenter = true
		m.wanted = make(map[Vec3]bool, len(m.offsets))
		for _, o := range m.offsets {
			m.wanted[center.Add(o)] = true
		}
	}

	for _, coord := range sortedChunks(m.loaded) {
		if !m.wanted[coord] {
			m.evict(coord)
		}
	}

	for _, o := range m.offsets {
		coord := m.center.Add(o)
		if m.loaded[coord] != nil || m.loading[coord] {
			continue
		}
		m.loading[coord] = true
		m.stats.Requested++
		m.jobs.Push(loadJob{coord: coord, size: m.size, factory: m.factory})
	}

	m.drain()
}

func (m *Manager) evict(coord Vec3) {
	c := m.loaded[coord]
	delete(m.loaded, coord)
	delete(m.modified, coord)
	if m.edited[coord] {
		delete(m.edited, coord)
		if m.cfg.Saver != nil {
			if err := m.cfg.Saver.Save(coord, c); err != nil {
				m.log.Printf("save chunk %v: %v", coord, err)
			}
		}
	}
	m.recycleChunk(c)
	m.events.fire(Event{Kind: ChunkUnloaded, Coord: coord})
}

// recycleChunk pools c if it still fits the current chunk size.
func (m *Manager) recycleChunk(c Chunk) {
	if c != nil && SameShape(c, m.size, m.size, m.size) {
		m.recycle.Put(c)
	}
}

func (m *Manager) drain() {
	for {
		r, ok := m.results.TryPop()
		if !ok {
			return
		}
		if r.size != m.size {
			m.stats.Discarded++
			continue
		}
		delete(m.loading, r.coord)
		if r.err != nil {
			m.stats.Failed++
			m.log.Printf("load chunk %v: %v", r.coord, r.err)
			m.recycleChunk(r.chunk)
			continue
		}
		if !m.wanted[r.coord] || m.loaded[r.coord] != nil {
			m.stats.Discarded++
			m.recycleChunk(r.chunk)
			continue
		}
		m.loaded[r.coord] = r.chunk
		m.events.fire(Event{Kind: ChunkLoaded, Coord: r.coord})
	}
}

func (m *Manager) flushModified() {
	if len(m.modified) == 0 {
		return
	}
	coords := make([]Vec3, 0, len(m.modified))
	for coord := range m.modified {
		coords = append(coords, coord)
	}
	sortVec3s(coords)
	for _, coord := range coords {
		faces := m.modified[coord]
		delete(m.modified, coord)
		if m.loaded[coord] == nil {
			continue
		}
		m.events.fire(Event{Kind: ChunkModified, Coord: coord, Faces: faces})
	}
}

// SetLoadDistance changes the resident radius, in chunks. It takes effect
// on the next Update.
func (m *Manager) SetLoadDistance(d float32) {
	if d < 0 {
		d = 0
	}
	if d == m.distance {
		return
	}
	m.setDistance(d)
	m.wanted = nil
}

func (m *Manager) setDistance(d float32) {
	m.distance = d
	m.offsets = SphereOffsets(d)
}

// SetChunkSize switches to a new chunk size. Resident chunks are unloaded
// without being recycled and queued requests are dropped. Loads in flight
// are discarded when they arrive.
func (m *Manager) SetChunkSize(size int, factory Factory) {
	if size <= 0 {
		log.Panicf("chunk size %d", size)
	}
	if size == m.size {
		m.factory = factory
		return
	}
	m.flushModified()
	m.size = size
	m.factory = factory
	m.jobs.Clear()
	m.loading = make(map[Vec3]bool)
	m.recycle.Drain()
	for _, coord := range sortedChunks(m.loaded) {
		m.evict(coord)
	}
	m.haveCenter = false
	m.wanted = nil
}

// SphereOffsets lists the chunk offsets within distance d of the origin,
// nearest first.
func SphereOffsets(d float32) []Vec3 {
	r := int(math.Ceil(float64(d)))
	d2 := float64(d) * float64(d)
	var offsets []Vec3
	for x := -r; x <= r; x++ {
		for y := -r; y <= r; y++ {
			for z := -r; z <= r; z++ {
				o := Vec3{x, y, z}
				if float64(o.Len2()) <= d2 {
					offsets = append(offsets, o)
				}
			}
		}
	}
	sort.SliceStable(offsets, func(i, j int) bool {
		return offsets[i].Len2() < offsets[j].Len2()
	})
	return offsets
}

// Chunk returns the resident chunk at coord.
func (m *Manager) Chunk(coord Vec3) (Chunk, bool) {
	c, ok := m.loaded[coord]
	return c, ok
}

// LoadedChunks returns the resident chunk coordinates in ascending order.
func (m *Manager) LoadedChunks() []Vec3 {
	return sortedChunks(m.loaded)
}

func (m *Manager) Loaded(coord Vec3) bool {
	return m.loaded[coord] != nil
}

func (m *Manager) Loading(coord Vec3) bool {
	return m.loading[coord]
}

// Wanted reports whether coord was inside the load sphere at the last
// Update.
func (m *Manager) Wanted(coord Vec3) bool {
	return m.wanted[coord]
}

func (m *Manager) Center() Vec3 {
	return m.center
}

func (m *Manager) ChunkSize() int {
	return m.size
}

func (m *Manager) LoadDistance() float32 {
	return m.distance
}

func (m *Manager) locate(world Vec3) (Chunk, Vec3, Vec3, error) {
	coord := world.ChunkID(m.size)
	c, ok := m.loaded[coord]
	if !ok {
		return nil, coord, Vec3{}, errors.Wrapf(ErrChunkNotLoaded, "voxel %v chunk %v", world, coord)
	}
	return c, coord, world.Local(m.size), nil
}

// Voxel reads the voxel at a world coordinate.
func (m *Manager) Voxel(world Vec3) (VoxelInfo, error) {
	c, _, local, err := m.locate(world)
	if err != nil {
		return VoxelInfo{}, err
	}
	return c.Voxel(local.X, local.Y, local.Z), nil
}

// SetVoxel writes the voxel at a world coordinate. The chunk is reported
// modified once at the start of the next Update.
func (m *Manager) SetVoxel(world Vec3, v VoxelInfo) error {
	c, coord, local, err := m.locate(world)
	if err != nil {
		return err
	}
	c.SetVoxel(local.X, local.Y, local.Z, v)
	m.edited[coord] = true
	m.modified[coord] |= FaceMask(local)
	return nil
}

// Subscribe registers fn for chunk events and returns an id for
// Unsubscribe. Events fire on the control goroutine after the state change
// is visible.
func (m *Manager) Subscribe(fn Listener) int {
	return m.events.subscribe(fn)
}

func (m *Manager) Unsubscribe(id int) {
	m.events.unsubscribe(id)
}

func (m *Manager) Stats() ManagerStats {
	s := m.stats
	s.Loaded = len(m.loaded)
	s.Loading = len(m.loading)
	s.Queued = m.jobs.Len()
	s.Recyclable = m.recycle.Len()
	s.Edited = len(m.edited)
	return s
}

func sortedChunks(m map[Vec3]Chunk) []Vec3 {
	coords := make([]Vec3, 0, len(m))
	for coord := range m {
		coords = append(coords, coord)
	}
	sortVec3s(coords)
	return coords
}

func sortedCoords(m map[Vec3]bool) []Vec3 {
	coords := make([]Vec3, 0, len(m))
	for coord := range m {
		coords = append(coords, coord)
	}
	sortVec3s(coords)
	return coords
}

func sortVec3s(vs []Vec3) {
	sort.Slice(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
}
