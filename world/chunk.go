package world

import (
	"bufio"
	"io"
	"log"
)

// Chunk is a fixed-size cube of voxels placed in world space by a mutable
// offset, so that an instance can be recycled for another location.
// Changing the offset does not reload data; Load or Deserialize must follow.
type Chunk interface {
	// Voxel returns the voxel at local coordinate (x, y, z).
	Voxel(x, y, z int) VoxelInfo
	SetVoxel(x, y, z int, v VoxelInfo)

	Width() int
	Height() int
	Depth() int

	// Offset is the world position of local voxel (0, 0, 0).
	Offset() Vec3
	SetOffset(offset Vec3)

	// Load fills every cell from p, sampling at local + offset.
	Load(p Provider)

	Serialize(w io.Writer) error
	// Deserialize reads a chunk written by Serialize. It reports false
	// without error when the stream holds a different chunk kind or
	// dimensions; err is only set for stream failures.
	Deserialize(r io.Reader, lookup TypeLookup) (bool, error)

	// Range calls f for voxels in storage order until f returns false.
	// Implementations may skip cells that were never written; those read as
	// the zero VoxelInfo.
	Range(f func(local Vec3, v VoxelInfo) bool)
}

// Factory constructs an empty chunk at the given world offset.
type Factory func(offset Vec3) Chunk

// ChunkSource resolves chunk coordinates to resident chunks.
type ChunkSource interface {
	Chunk(coord Vec3) (Chunk, bool)
}

// ChunkMap is a plain ChunkSource.
type ChunkMap map[Vec3]Chunk

func (m ChunkMap) Chunk(coord Vec3) (Chunk, bool) {
	c, ok := m[coord]
	return c, ok
}

// ChunkCoord returns the chunk coordinate of c from its offset.
func ChunkCoord(c Chunk) Vec3 {
	o := c.Offset()
	return Vec3{FloorDiv(o.X, c.Width()), FloorDiv(o.Y, c.Height()), FloorDiv(o.Z, c.Depth())}
}

// SameShape reports whether c has the given dimensions.
func SameShape(c Chunk, width, height, depth int) bool {
	return c.Width() == width && c.Height() == height && c.Depth() == depth
}

// ArrayChunk stores voxels in a flat slice, x-major then y then z.
type ArrayChunk struct {
	width, height, depth int
	offset               Vec3
	voxels               []VoxelInfo
}

func NewArrayChunk(width, height, depth int, offset Vec3) *ArrayChunk {
	return &ArrayChunk{
		width:  width,
		height: height,
		depth:  depth,
		offset: offset,
		voxels: make([]VoxelInfo, width*height*depth),
	}
}

// ArrayFactory returns a Factory building cubic ArrayChunks.
func ArrayFactory(size int) Factory {
	return func(offset Vec3) Chunk {
		return NewArrayChunk(size, size, size, offset)
	}
}

func (c *ArrayChunk) index(x, y, z int) int {
	if x < 0 || x >= c.width || y < 0 || y >= c.height || z < 0 || z >= c.depth {
		log.Panicf("voxel (%d,%d,%d) outside chunk %dx%dx%d", x, y, z, c.width, c.height, c.depth)
	}
	return (x*c.height+y)*c.depth + z
}

func (c *ArrayChunk) Voxel(x, y, z int) VoxelInfo {
	return c.voxels[c.index(x, y, z)]
}

func (c *ArrayChunk) SetVoxel(x, y, z int, v VoxelInfo) {
	c.voxels[c.index(x, y, z)] = v
}

func (c *ArrayChunk) Width() int  { return c.width }
func (c *ArrayChunk) Height() int { return c.height }
func (c *ArrayChunk) Depth() int  { return c.depth }

func (c *ArrayChunk) Offset() Vec3 {
	return c.offset
}

func (c *ArrayChunk) SetOffset(offset Vec3) {
	c.offset = offset
}

func (c *ArrayChunk) Load(p Provider) {
	i := 0
	for x := 0; x < c.width; x++ {
		for y := 0; y < c.height; y++ {
			for z := 0; z < c.depth; z++ {
				c.voxels[i] = p.VoxelInfo(x+c.offset.X, y+c.offset.Y, z+c.offset.Z)
				i++
			}
		}
	}
}

func (c *ArrayChunk) Range(f func(local Vec3, v VoxelInfo) bool) {
	i := 0
	for x := 0; x < c.width; x++ {
		for y := 0; y < c.height; y++ {
			for z := 0; z < c.depth; z++ {
				if !f(Vec3{x, y, z}, c.voxels[i]) {
					return
				}
				i++
			}
		}
	}
}

func (c *ArrayChunk) Serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := writeTag(bw, arrayChunkTag); err != nil {
		return err
	}
	if err := writeInt32s(bw, int32(c.width), int32(c.height), int32(c.depth)); err != nil {
		return err
	}
	var rec [recordSize]byte
	for _, v := range c.voxels {
		putRecord(rec[:], v)
		if _, err := bw.Write(rec[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (c *ArrayChunk) Deserialize(r io.Reader, lookup TypeLookup) (bool, error) {
	tag, err := readTag(r)
	if err != nil {
		return false, err
	}
	if tag != arrayChunkTag {
		return false, nil
	}
	dims, err := readInt32s(r, 3)
	if err != nil {
		return false, err
	}
	if int(dims[0]) != c.width || int(dims[1]) != c.height || int(dims[2]) != c.depth {
		return false, nil
	}
	payload, err := readRecords(r, len(c.voxels))
	if err != nil {
		return false, err
	}
	for i := range c.voxels {
		c.voxels[i] = record(payload[i*recordSize:], lookup)
	}
	return true, nil
}
