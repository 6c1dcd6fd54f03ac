package render

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/sdfcraft/world"
)

const testSize = 16

// loadChunks builds array chunks at coord plus each coord+{0,1}^3.
func loadChunks(p world.Provider, coords ...Vec3) world.ChunkMap {
	m := world.ChunkMap{}
	for _, c := range coords {
		chunk := world.NewArrayChunk(testSize, testSize, testSize, c.Mul(testSize))
		chunk.Load(p)
		m[c] = chunk
	}
	return m
}

func withNeighbours(c Vec3) []Vec3 {
	var coords []Vec3
	for _, o := range world.CornerOffsets() {
		coords = append(coords, c.Add(o))
	}
	return coords
}

func uniform(d float32) world.Provider {
	return world.ProviderFunc(func(x, y, z int) world.VoxelInfo {
		return world.VoxelInfo{Distance: d}
	})
}

func TestMeshMissingChunk(t *testing.T) {
	mesh := &Mesh{}
	if NewMarchingCubes().GenerateMesh(Vec3{}, world.ChunkMap{}, mesh) {
		t.Fatalf("meshed a missing chunk")
	}
}

func TestMeshUniformOutside(t *testing.T) {
	chunks := loadChunks(uniform(1), Vec3{})
	mesh := &Mesh{}
	if !NewMarchingCubes().GenerateMesh(Vec3{}, chunks, mesh) {
		t.Fatalf("chunk not meshed")
	}
	if !mesh.IsEmpty() {
		t.Fatalf("%d triangles in empty space", mesh.TriangleCount())
	}
}

func TestMeshUniformInside(t *testing.T) {
	chunks := loadChunks(uniform(-1), withNeighbours(Vec3{})...)
	mesh := &Mesh{}
	NewMarchingCubes().GenerateMesh(Vec3{}, chunks, mesh)
	if !mesh.IsEmpty() {
		t.Fatalf("%d triangles inside solid", mesh.TriangleCount())
	}
}

func TestMeshPlane(t *testing.T) {
	grass := &world.VoxelType{ID: 1, Name: "grass", Colour: mgl32.Vec4{0, 1, 0, 1}}
	chunks := loadChunks(world.FlatLandProvider{Ground: 5, Type: grass}, withNeighbours(Vec3{})...)
	mesh := &Mesh{}
	NewMarchingCubes().GenerateMesh(Vec3{}, chunks, mesh)
	if n := mesh.TriangleCount(); n != testSize*testSize*2 {
		t.Fatalf("%d triangles", n)
	}
	if len(mesh.Vertices) != len(mesh.Triangles) || len(mesh.Colours) != len(mesh.Vertices) {
		t.Fatalf("%d vertices %d indices %d colours", len(mesh.Vertices), len(mesh.Triangles), len(mesh.Colours))
	}
	for i, v := range mesh.Vertices {
		if math.Abs(float64(v.Y()-5)) > 1e-5 {
			t.Fatalf("vertex %d at %v", i, v)
		}
		if mesh.Triangles[i] != i {
			t.Fatalf("index %d is %d", i, mesh.Triangles[i])
		}
		if mesh.Colours[i] != grass.Colour {
			t.Fatalf("colour %v", mesh.Colours[i])
		}
	}
}

func TestMeshReusesBuffer(t *testing.T) {
	g := NewMarchingCubes()
	mesh := &Mesh{}
	plane := loadChunks(world.FlatLandProvider{Ground: 5}, withNeighbours(Vec3{})...)
	g.GenerateMesh(Vec3{}, plane, mesh)
	if mesh.Colours[0] != defaultColour {
		t.Fatalf("untyped colour %v", mesh.Colours[0])
	}
	g.GenerateMesh(Vec3{}, loadChunks(uniform(1), Vec3{}), mesh)
	if !mesh.IsEmpty() || len(mesh.Vertices) != 0 {
		t.Fatalf("stale geometry left in mesh")
	}
}

func TestMeshSeam(t *testing.T) {
	ball := world.SphereProvider{Centre: mgl32.Vec3{testSize, 8, 8}, Radius: 5.3}
	chunks := loadChunks(ball, Vec3{}, Vec3{X: 1, Y: 0, Z: 0})
	g := NewMarchingCubes()
	left, right := &Mesh{}, &Mesh{}
	g.GenerateMesh(Vec3{}, chunks, left)
	g.GenerateMesh(Vec3{X: 1, Y: 0, Z: 0}, chunks, right)

	onSeam := func(m *Mesh, x float32) map[[3]int]bool {
		points := map[[3]int]bool{}
		for _, v := range m.Vertices {
			if v.X() == x {
				points[[3]int{int(math.Round(float64(v.Y() * 1e4))), int(math.Round(float64(v.Z() * 1e4)))}] = true
			}
		}
		return points
	}
	a := onSeam(left, testSize)
	b := onSeam(right, 0)
	if len(a) == 0 {
		t.Fatalf("no vertices on the seam")
	}
	if len(a) != len(b) {
		t.Fatalf("%d seam points on the left, %d on the right", len(a), len(b))
	}
	for p := range a {
		if !b[p] {
			t.Fatalf("seam point %v missing on the right", p)
		}
	}
}

func TestMeshOctreeMatchesArray(t *testing.T) {
	ball := world.SphereProvider{Centre: mgl32.Vec3{10, 12, 6}, Radius: 7}
	arrays := loadChunks(ball, withNeighbours(Vec3{})...)
	octrees := world.ChunkMap{}
	for _, c := range withNeighbours(Vec3{}) {
		chunk := world.NewOctreeChunk(4, c.Mul(testSize))
		chunk.Load(ball)
		octrees[c] = chunk
	}
	g := NewMarchingCubes()
	a, b := &Mesh{}, &Mesh{}
	g.GenerateMesh(Vec3{}, arrays, a)
	g.GenerateMesh(Vec3{}, octrees, b)
	if a.IsEmpty() || len(a.Vertices) != len(b.Vertices) {
		t.Fatalf("array mesh %d vertices, octree mesh %d", len(a.Vertices), len(b.Vertices))
	}
	for i := range a.Vertices {
		if a.Vertices[i] != b.Vertices[i] {
			t.Fatalf("vertex %d: %v != %v", i, a.Vertices[i], b.Vertices[i])
		}
	}
}

func TestMeshIgnoresMismatchedNeighbour(t *testing.T) {
	chunks := loadChunks(uniform(-1), withNeighbours(Vec3{})...)
	chunks[Vec3{X: 1, Y: 0, Z: 0}] = world.NewArrayChunk(8, 8, 8, Vec3{X: testSize, Y: 0, Z: 0})
	mesh := &Mesh{}
	NewMarchingCubes().GenerateMesh(Vec3{}, chunks, mesh)
	if mesh.IsEmpty() {
		t.Fatalf("mismatched neighbour was sampled")
	}
	for _, v := range mesh.Vertices {
		if v.X() < testSize-1 {
			t.Fatalf("vertex %v away from the open face", v)
		}
	}
}

func TestInterpolate(t *testing.T) {
	pa, pb := mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 2, 0}
	cases := []struct {
		a, b float32
		y    float32
	}{
		{-1, 1, 1},
		{-1, 3, 0.5},
		{0, 0, 1},
		{0.5, 2, 0},
		{-2, -0.5, 2},
	}
	for _, c := range cases {
		p, _ := interpolate(pa, pb, world.VoxelInfo{Distance: c.a}, world.VoxelInfo{Distance: c.b})
		if p.Y() != c.y || math.IsNaN(float64(p.Y())) {
			t.Errorf("interpolate(%v, %v) = %v, want y=%v", c.a, c.b, p, c.y)
		}
	}
}

func TestTables(t *testing.T) {
	if edgeTable[0] != 0 || edgeTable[255] != 0 {
		t.Fatalf("uniform configs have edges")
	}
	if edgeTable[1] != 0x109 || edgeTable[3] != 0x30a {
		t.Fatalf("edge table %x %x", edgeTable[1], edgeTable[3])
	}
	for config, row := range triTable {
		if len(row)%3 != 0 || len(row) > 15 {
			t.Fatalf("config %d has %d entries", config, len(row))
		}
		for _, e := range row {
			a, b := edgeCorners[e][0], edgeCorners[e][1]
			if (config>>uint(a))&1 == (config>>uint(b))&1 {
				t.Fatalf("config %d uses edge %d without a sign change", config, e)
			}
		}
	}
}
