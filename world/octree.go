package world

import (
	"bufio"
	"io"
	"log"
)

type octreeNode[T comparable] struct {
	children [8]*octreeNode[T]
	value    T
	// dirty bit i is set when child i was written through Set.
	dirty uint8
}

// Octree is a sparse cube of 2^subdivisions cells per edge. Children are
// allocated on first write; unwritten cells read as the zero value.
type Octree[T comparable] struct {
	subdivisions int
	root         *octreeNode[T]
}

func NewOctree[T comparable](subdivisions int) *Octree[T] {
	if subdivisions < 0 {
		log.Panicf("octree subdivisions %d", subdivisions)
	}
	return &Octree[T]{subdivisions: subdivisions}
}

func (t *Octree[T]) Subdivisions() int {
	return t.subdivisions
}

// Size is the edge length in cells.
func (t *Octree[T]) Size() int {
	return 1 << t.subdivisions
}

func (t *Octree[T]) childIndex(x, y, z, level int) int {
	bit := t.subdivisions - 1 - level
	return (x>>bit&1)<<2 | (y>>bit&1)<<1 | (z >> bit & 1)
}

func (t *Octree[T]) Get(x, y, z int) T {
	n := t.root
	for level := 0; n != nil && level < t.subdivisions; level++ {
		n = n.children[t.childIndex(x, y, z, level)]
	}
	if n == nil {
		var zero T
		return zero
	}
	return n.value
}

// Set writes v and marks every node on the path dirty.
func (t *Octree[T]) Set(x, y, z int, v T) {
	t.put(x, y, z, v, true)
}

// put writes v. Without mark, a zero value on an unallocated path is a no-op.
func (t *Octree[T]) put(x, y, z int, v T, mark bool) {
	var zero T
	if t.root == nil {
		if !mark && v == zero {
			return
		}
		t.root = &octreeNode[T]{}
	}
	n := t.root
	for level := 0; level < t.subdivisions; level++ {
		i := t.childIndex(x, y, z, level)
		if mark {
			n.dirty |= 1 << uint(i)
		}
		next := n.children[i]
		if next == nil {
			if !mark && v == zero {
				return
			}
			next = &octreeNode[T]{}
			n.children[i] = next
		}
		n = next
	}
	n.value = v
}

// Dirty returns the dirty mask of the node at the given level containing
// (x, y, z). Level 0 is the root. Missing nodes report 0.
func (t *Octree[T]) Dirty(x, y, z, level int) uint8 {
	n := t.root
	for l := 0; n != nil && l < level; l++ {
		n = n.children[t.childIndex(x, y, z, l)]
	}
	if n == nil {
		return 0
	}
	return n.dirty
}

func (t *Octree[T]) ClearDirty() {
	clearDirty(t.root)
}

func clearDirty[T comparable](n *octreeNode[T]) {
	if n == nil {
		return
	}
	n.dirty = 0
	for _, c := range n.children {
		clearDirty(c)
	}
}

// Range visits allocated cells depth-first, children in index order.
func (t *Octree[T]) Range(f func(x, y, z int, v T) bool) {
	t.rangeNode(t.root, 0, 0, 0, t.Size(), f)
}

func (t *Octree[T]) rangeNode(n *octreeNode[T], x, y, z, size int, f func(x, y, z int, v T) bool) bool {
	if n == nil {
		return true
	}
	if size == 1 {
		return f(x, y, z, n.value)
	}
	half := size / 2
	for i, c := range n.children {
		if !t.rangeNode(c, x+(i>>2&1)*half, y+(i>>1&1)*half, z+(i&1)*half, half, f) {
			return false
		}
	}
	return true
}

// walkOrder calls f for every cell of a cube with the given edge length in
// the same depth-first order Range uses.
func walkOrder(x, y, z, size int, f func(x, y, z int)) {
	if size == 1 {
		f(x, y, z)
		return
	}
	half := size / 2
	for i := 0; i < 8; i++ {
		walkOrder(x+(i>>2&1)*half, y+(i>>1&1)*half, z+(i&1)*half, half, f)
	}
}

// OctreeChunk is a Chunk backed by an Octree. Width, height and depth are
// all 2^subdivisions.
type OctreeChunk struct {
	tree   *Octree[VoxelInfo]
	offset Vec3
}

func NewOctreeChunk(subdivisions int, offset Vec3) *OctreeChunk {
	return &OctreeChunk{tree: NewOctree[VoxelInfo](subdivisions), offset: offset}
}

// OctreeFactory returns a Factory building OctreeChunks.
func OctreeFactory(subdivisions int) Factory {
	return func(offset Vec3) Chunk {
		return NewOctreeChunk(subdivisions, offset)
	}
}

func (c *OctreeChunk) Tree() *Octree[VoxelInfo] {
	return c.tree
}

func (c *OctreeChunk) check(x, y, z int) {
	s := c.tree.Size()
	if x < 0 || x >= s || y < 0 || y >= s || z < 0 || z >= s {
		log.Panicf("voxel (%d,%d,%d) outside octree chunk of size %d", x, y, z, s)
	}
}

func (c *OctreeChunk) Voxel(x, y, z int) VoxelInfo {
	c.check(x, y, z)
	return c.tree.Get(x, y, z)
}

func (c *OctreeChunk) SetVoxel(x, y, z int, v VoxelInfo) {
	c.check(x, y, z)
	c.tree.Set(x, y, z, v)
}

func (c *OctreeChunk) Width() int  { return c.tree.Size() }
func (c *OctreeChunk) Height() int { return c.tree.Size() }
func (c *OctreeChunk) Depth() int  { return c.tree.Size() }

func (c *OctreeChunk) Offset() Vec3 {
	return c.offset
}

func (c *OctreeChunk) SetOffset(offset Vec3) {
	c.offset = offset
}

func (c *OctreeChunk) Load(p Provider) {
	s := c.tree.Size()
	for x := 0; x < s; x++ {
		for y := 0; y < s; y++ {
			for z := 0; z < s; z++ {
				c.tree.put(x, y, z, p.VoxelInfo(x+c.offset.X, y+c.offset.Y, z+c.offset.Z), false)
			}
		}
	}
	c.tree.ClearDirty()
}

func (c *OctreeChunk) Range(f func(local Vec3, v VoxelInfo) bool) {
	c.tree.Range(func(x, y, z int, v VoxelInfo) bool {
		return f(Vec3{x, y, z}, v)
	})
}

func (c *OctreeChunk) Serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := writeTag(bw, octreeChunkTag); err != nil {
		return err
	}
	if err := writeInt32s(bw, int32(c.tree.Subdivisions())); err != nil {
		return err
	}
	var rec [recordSize]byte
	var err error
	walkOrder(0, 0, 0, c.tree.Size(), func(x, y, z int) {
		if err != nil {
			return
		}
		putRecord(rec[:], c.tree.Get(x, y, z))
		_, err = bw.Write(rec[:])
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

func (c *OctreeChunk) Deserialize(r io.Reader, lookup TypeLookup) (bool, error) {
	tag, err := readTag(r)
	if err != nil {
		return false, err
	}
	if tag != octreeChunkTag {
		return false, nil
	}
	subs, err := readInt32s(r, 1)
	if err != nil {
		return false, err
	}
	if int(subs[0]) != c.tree.Subdivisions() {
		return false, nil
	}
	s := c.tree.Size()
	payload, err := readRecords(r, s*s*s)
	if err != nil {
		return false, err
	}
	i := 0
	walkOrder(0, 0, 0, s, func(x, y, z int) {
		c.tree.put(x, y, z, record(payload[i*recordSize:], lookup), false)
		i++
	})
	c.tree.ClearDirty()
	return true, nil
}
