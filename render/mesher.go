package render

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/sdfcraft/world"
)

// Generator builds the mesh of one chunk from the chunks around it.
type Generator interface {
	// GenerateMesh replaces mesh with the surface of the chunk at coord. It
	// reports false when that chunk is not available.
	GenerateMesh(coord Vec3, chunks world.ChunkSource, mesh *Mesh) bool
}

var (
	// outside is sampled where a neighbour chunk is missing.
	outside       = world.VoxelInfo{Distance: 1}
	defaultColour = mgl32.Vec4{1, 1, 1, 1}
)

// MarchingCubes meshes a chunk together with a one voxel border taken from
// the seven chunks above it on +x, +y and +z, so neighbouring meshes meet
// exactly.
type MarchingCubes struct {
	samplePool *sync.Pool
}

func NewMarchingCubes() *MarchingCubes {
	return &MarchingCubes{
		samplePool: &sync.Pool{
			New: func() interface{} {
				return new(block)
			},
		},
	}
}

// block is a padded (w+1)*(h+1)*(d+1) sample grid.
type block struct {
	w, h, d int
	samples []world.VoxelInfo
}

func (b *block) reset(w, h, d int) {
	b.w, b.h, b.d = w+1, h+1, d+1
	n := b.w * b.h * b.d
	if cap(b.samples) < n {
		b.samples = make([]world.VoxelInfo, n)
	}
	b.samples = b.samples[:n]
	for i := range b.samples {
		b.samples[i] = outside
	}
}

func (b *block) index(x, y, z int) int {
	return (x*b.h+y)*b.d + z
}

func (b *block) at(x, y, z int) world.VoxelInfo {
	return b.samples[b.index(x, y, z)]
}

func (b *block) set(x, y, z int, v world.VoxelInfo) {
	b.samples[b.index(x, y, z)] = v
}

// fill copies the chunk and the border of its upper neighbours into b.
func (b *block) fill(c world.Chunk, coord Vec3, chunks world.ChunkSource) {
	w, h, d := c.Width(), c.Height(), c.Depth()
	b.reset(w, h, d)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			for z := 0; z < d; z++ {
				b.set(x, y, z, world.VoxelInfo{})
			}
		}
	}
	c.Range(func(p Vec3, v world.VoxelInfo) bool {
		b.set(p.X, p.Y, p.Z, v)
		return true
	})

	offsets := world.CornerOffsets()
	for _, o := range offsets[1:] {
		n, ok := chunks.Chunk(coord.Add(o))
		if !ok || !world.SameShape(n, w, h, d) {
			continue
		}
		xs, ys, zs := span(o.X, w), span(o.Y, h), span(o.Z, d)
		for x := xs[0]; x < xs[1]; x++ {
			for y := ys[0]; y < ys[1]; y++ {
				for z := zs[0]; z < zs[1]; z++ {
					b.set(x, y, z, n.Voxel(x-o.X*w, y-o.Y*h, z-o.Z*d))
				}
			}
		}
	}
}

// span is the padded range covered by a neighbour at offset o along an
// axis of length n.
func span(o, n int) [2]int {
	if o == 0 {
		return [2]int{0, n}
	}
	return [2]int{n, n + 1}
}

func (g *MarchingCubes) GenerateMesh(coord Vec3, chunks world.ChunkSource, mesh *Mesh) bool {
	c, ok := chunks.Chunk(coord)
	if !ok {
		return false
	}
	b := g.samplePool.Get().(*block)
	defer g.samplePool.Put(b)
	b.fill(c, coord, chunks)

	mesh.Clear()
	var (
		corners [8]world.VoxelInfo
		pos     [8]mgl32.Vec3
	)
	for x := 0; x < b.w-1; x++ {
		for y := 0; y < b.h-1; y++ {
			for z := 0; z < b.d-1; z++ {
				config := 0
				for i, o := range cornerOffsets {
					corners[i] = b.at(x+o[0], y+o[1], z+o[2])
					if corners[i].Outside() {
						config |= 1 << uint(i)
					}
				}
				if edgeTable[config] == 0 {
					continue
				}
				for i, o := range cornerOffsets {
					pos[i] = mgl32.Vec3{float32(x + o[0]), float32(y + o[1]), float32(z + o[2])}
				}
				for _, e := range triTable[config] {
					ca, cb := edgeCorners[e][0], edgeCorners[e][1]
					p, col := interpolate(pos[ca], pos[cb], corners[ca], corners[cb])
					mesh.add(p, col)
				}
			}
		}
	}
	return true
}

// interpolate finds the zero crossing between two corners. The colour comes
// from the nearer corner.
func interpolate(pa, pb mgl32.Vec3, a, b world.VoxelInfo) (mgl32.Vec3, mgl32.Vec4) {
	t := float32(0.5)
	if a.Distance != b.Distance {
		t = mgl32.Clamp(a.Distance/(a.Distance-b.Distance), 0, 1)
	}
	near := a
	if t > 0.5 {
		near = b
	}
	col := defaultColour
	if near.Type != nil {
		col = near.Type.Colour
	}
	return pa.Add(pb.Sub(pa).Mul(t)), col
}
