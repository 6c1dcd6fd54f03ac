package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/sdfcraft/world"
)

type Vec3 = world.Vec3

// Mesh is a triangle soup in chunk-local voxel units. Every three
// consecutive entries of Triangles form one triangle.
type Mesh struct {
	Vertices  []mgl32.Vec3
	Colours   []mgl32.Vec4
	Triangles []int
}

// Clear drops the geometry but keeps the buffers for reuse.
func (m *Mesh) Clear() {
	m.Vertices = m.Vertices[:0]
	m.Colours = m.Colours[:0]
	m.Triangles = m.Triangles[:0]
}

func (m *Mesh) TriangleCount() int {
	return len(m.Triangles) / 3
}

func (m *Mesh) IsEmpty() bool {
	return len(m.Triangles) == 0
}

func (m *Mesh) add(v mgl32.Vec3, c mgl32.Vec4) {
	m.Triangles = append(m.Triangles, len(m.Vertices))
	m.Vertices = append(m.Vertices, v)
	m.Colours = append(m.Colours, c)
}
