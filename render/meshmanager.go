package render

import (
	"log"
	"math"
	"sort"

	"github.com/humboldt-xie/sdfcraft/world"
)

// Terrain is the part of the chunk manager the mesh manager depends on.
type Terrain interface {
	world.ChunkSource
	Loaded(coord Vec3) bool
	Wanted(coord Vec3) bool
	ChunkSize() int
	Subscribe(fn world.Listener) int
	Unsubscribe(id int)
}

type MeshConfig struct {
	// MaxPerTick caps the queued remeshes done by one Update.
	MaxPerTick int
	// QueueFraction is the share of the queue meshed per second of dt.
	QueueFraction float64
	// OnMeshed is called after a holder's mesh is rebuilt and OnReleased
	// after a holder is emptied.
	OnMeshed   func(h *ChunkMesh)
	OnReleased func(h *ChunkMesh)
	Logger     *log.Logger
}

func (c MeshConfig) withDefaults() MeshConfig {
	if c.MaxPerTick <= 0 {
		c.MaxPerTick = 16
	}
	if c.QueueFraction <= 0 {
		c.QueueFraction = 0.5
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}

type MeshStats struct {
	Holders    int
	Pending    int
	Recyclable int
	Meshed     int
	Requeued   int
	Dropped    int
}

// MeshManager keeps a mesh holder for every loaded chunk, remeshing in
// response to chunk events. It runs on the control goroutine.
type MeshManager struct {
	terrain Terrain
	gen     Generator
	cfg     MeshConfig
	log     *log.Logger

	holders map[Vec3]*ChunkMesh
	recycle *world.Pool[*ChunkMesh]
	pending *world.UniqueQueue[Vec3]

	sub   int
	stats MeshStats
}

func NewMeshManager(terrain Terrain, gen Generator, cfg MeshConfig) *MeshManager {
	cfg = cfg.withDefaults()
	return &MeshManager{
		terrain: terrain,
		gen:     gen,
		cfg:     cfg,
		log:     cfg.Logger,
		holders: make(map[Vec3]*ChunkMesh),
		recycle: world.NewPool[*ChunkMesh](),
		pending: world.NewUniqueQueue[Vec3](),
	}
}

// Attach subscribes to the terrain's chunk events.
func (mm *MeshManager) Attach() {
	if mm.sub == 0 {
		mm.sub = mm.terrain.Subscribe(mm.HandleChunkEvent)
	}
}

func (mm *MeshManager) Detach() {
	if mm.sub != 0 {
		mm.terrain.Unsubscribe(mm.sub)
		mm.sub = 0
	}
}

func (mm *MeshManager) HandleChunkEvent(e world.Event) {
	offsets := world.CornerOffsets()
	switch e.Kind {
	case world.ChunkLoaded:
		// the new chunk may complete the border of the chunks below it
		for _, o := range offsets {
			mm.pending.Push(e.Coord.Sub(o))
		}
	case world.ChunkUnloaded:
		mm.pending.Remove(e.Coord)
		mm.release(e.Coord)
	case world.ChunkModified:
		mm.remesh(e.Coord)
		for _, o := range offsets[1:] {
			if touches(e.Faces, o) {
				mm.remesh(e.Coord.Sub(o))
			}
		}
	}
}

// touches reports whether every axis set in o has its low face in faces.
func touches(faces uint8, o Vec3) bool {
	if o.X == 1 && faces&world.FaceX == 0 {
		return false
	}
	if o.Y == 1 && faces&world.FaceY == 0 {
		return false
	}
	if o.Z == 1 && faces&world.FaceZ == 0 {
		return false
	}
	return true
}

// Update meshes part of the queue: ceil(len*dt*QueueFraction) entries,
// at least one and at most MaxPerTick. It returns the number of meshes
// built.
func (mm *MeshManager) Update(dt float64) int {
	n := mm.pending.Len()
	if n == 0 {
		return 0
	}
	k := int(math.Ceil(float64(n) * dt * mm.cfg.QueueFraction))
	if k < 1 {
		k = 1
	}
	if k > mm.cfg.MaxPerTick {
		k = mm.cfg.MaxPerTick
	}
	var retry []Vec3
	built := 0
	for i := 0; i < k; i++ {
		coord, ok := mm.pending.Pop()
		if !ok {
			break
		}
		switch mm.state(coord) {
		case meshReady:
			mm.build(coord)
			built++
		case meshWaiting:
			retry = append(retry, coord)
		default:
			mm.log.Printf("drop mesh %v: chunk not loaded", coord)
			mm.stats.Dropped++
		}
	}
	for _, coord := range retry {
		mm.stats.Requeued++
		mm.pending.Push(coord)
	}
	return built
}

type meshState int

const (
	meshDrop meshState = iota
	meshWaiting
	meshReady
)

// state decides whether coord can be meshed now. Neighbours that are
// wanted but still loading hold it back; neighbours outside the load
// sphere count as open boundary.
func (mm *MeshManager) state(coord Vec3) meshState {
	if !mm.terrain.Loaded(coord) {
		return meshDrop
	}
	offsets := world.CornerOffsets()
	for _, o := range offsets[1:] {
		n := coord.Add(o)
		if mm.terrain.Wanted(n) && !mm.terrain.Loaded(n) {
			return meshWaiting
		}
	}
	return meshReady
}

// remesh rebuilds coord right away when possible, else queues it.
func (mm *MeshManager) remesh(coord Vec3) {
	switch mm.state(coord) {
	case meshReady:
		mm.pending.Remove(coord)
		mm.build(coord)
	case meshWaiting:
		mm.pending.Push(coord)
	}
}

func (mm *MeshManager) build(coord Vec3) {
	size := mm.terrain.ChunkSize()
	h, ok := mm.holders[coord]
	if !ok {
		h = mm.takeHolder(size)
	}
	if !mm.gen.GenerateMesh(coord, mm.terrain, &h.Mesh) {
		if !ok {
			mm.recycle.Put(h)
		}
		mm.stats.Dropped++
		return
	}
	h.place(coord, size)
	h.Version++
	mm.holders[coord] = h
	mm.stats.Meshed++
	if mm.cfg.OnMeshed != nil {
		mm.cfg.OnMeshed(h)
	}
}

func (mm *MeshManager) takeHolder(size int) *ChunkMesh {
	for {
		h, ok := mm.recycle.Get()
		if !ok {
			return newChunkMesh()
		}
		if h.size == size {
			return h
		}
	}
}

func (mm *MeshManager) release(coord Vec3) {
	h, ok := mm.holders[coord]
	if !ok {
		return
	}
	delete(mm.holders, coord)
	h.release()
	if mm.cfg.OnReleased != nil {
		mm.cfg.OnReleased(h)
	}
	if h.size == mm.terrain.ChunkSize() {
		mm.recycle.Put(h)
	}
}

func (mm *MeshManager) Holder(coord Vec3) (*ChunkMesh, bool) {
	h, ok := mm.holders[coord]
	return h, ok
}

// Holders returns the live holders ordered by chunk coordinate.
func (mm *MeshManager) Holders() []*ChunkMesh {
	hs := make([]*ChunkMesh, 0, len(mm.holders))
	for _, h := range mm.holders {
		hs = append(hs, h)
	}
	sort.Slice(hs, func(i, j int) bool {
		a, b := hs[i].Coord, hs[j].Coord
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return hs
}

// Pending reports whether coord is queued for meshing.
func (mm *MeshManager) Pending(coord Vec3) bool {
	return mm.pending.Contains(coord)
}

func (mm *MeshManager) Stats() MeshStats {
	s := mm.stats
	s.Holders = len(mm.holders)
	s.Pending = mm.pending.Len()
	s.Recyclable = mm.recycle.Len()
	return s
}
