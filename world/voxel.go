package world

import (
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// VoxelType is an immutable material. ID is stable and used for
// serialization; types are re-resolved by ID when chunks are read back.
type VoxelType struct {
	ID     int
	Name   string
	Colour mgl32.Vec4
}

// VoxelInfo is one sample of the signed distance field. Distance is negative
// inside the solid, positive outside and zero on the surface. A nil Type means
// the default material.
type VoxelInfo struct {
	Distance float32
	Type     *VoxelType
}

// TypeID returns the ID of the voxel type, or -1 when untyped.
func (v VoxelInfo) TypeID() int32 {
	if v.Type == nil {
		return -1
	}
	return int32(v.Type.ID)
}

// Outside reports whether the voxel lies outside the surface.
func (v VoxelInfo) Outside() bool {
	return v.Distance > 0
}

// TypeLookup resolves a voxel type ID. It returns nil for unknown IDs.
type TypeLookup func(id int) *VoxelType

// TypeRegistry maps voxel type IDs to types.
type TypeRegistry struct {
	mutex sync.RWMutex
	types map[int]*VoxelType
}

func NewTypeRegistry(types ...*VoxelType) *TypeRegistry {
	r := &TypeRegistry{types: make(map[int]*VoxelType)}
	for _, t := range types {
		r.Register(t)
	}
	return r
}

// Register adds t, replacing any type with the same ID.
func (r *TypeRegistry) Register(t *VoxelType) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.types[t.ID] = t
}

func (r *TypeRegistry) Lookup(id int) *VoxelType {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.types[id]
}

// ByName returns the first registered type with the given name.
func (r *TypeRegistry) ByName(name string) *VoxelType {
	for _, t := range r.Types() {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Types returns all registered types ordered by ID.
func (r *TypeRegistry) Types() []*VoxelType {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	types := make([]*VoxelType, 0, len(r.types))
	for _, t := range r.types {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i].ID < types[j].ID
	})
	return types
}
