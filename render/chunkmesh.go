package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const recyclableName = "recyclable_chunk"

// ChunkMesh holds the mesh of one chunk and where it sits in the world.
// Holders are pooled and renamed when reused for another chunk.
type ChunkMesh struct {
	Name     string
	Coord    Vec3
	Position mgl32.Vec3
	Mesh     Mesh
	// Version counts how often the mesh was rebuilt.
	Version int64

	size int
}

func newChunkMesh() *ChunkMesh {
	return &ChunkMesh{Name: recyclableName}
}

func holderName(coord Vec3) string {
	return fmt.Sprintf("Chunk %d, %d, %d", coord.X, coord.Y, coord.Z)
}

func (h *ChunkMesh) place(coord Vec3, size int) {
	h.Name = holderName(coord)
	h.Coord = coord
	h.Position = coord.Mul(size).Vec()
	h.size = size
}

// Size is the chunk size the holder was placed with.
func (h *ChunkMesh) Size() int {
	return h.size
}

func (h *ChunkMesh) release() {
	h.Mesh.Clear()
	h.Name = recyclableName
}
