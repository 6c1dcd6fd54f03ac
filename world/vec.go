package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is an integer lattice coordinate. Depending on context it addresses a
// voxel in world space, a voxel inside a chunk, or a whole chunk.
type Vec3 struct {
	X, Y, Z int
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Mul(s int) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Left() Vec3 {
	return Vec3{v.X - 1, v.Y, v.Z}
}
func (v Vec3) Right() Vec3 {
	return Vec3{v.X + 1, v.Y, v.Z}
}
func (v Vec3) Up() Vec3 {
	return Vec3{v.X, v.Y + 1, v.Z}
}
func (v Vec3) Down() Vec3 {
	return Vec3{v.X, v.Y - 1, v.Z}
}
func (v Vec3) Front() Vec3 {
	return Vec3{v.X, v.Y, v.Z + 1}
}
func (v Vec3) Back() Vec3 {
	return Vec3{v.X, v.Y, v.Z - 1}
}

// Len2 is the squared euclidean length.
func (v Vec3) Len2() int {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func (v Vec3) Vec() mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// ChunkID returns the coordinate of the chunk holding world voxel v.
func (v Vec3) ChunkID(size int) Vec3 {
	return Vec3{FloorDiv(v.X, size), FloorDiv(v.Y, size), FloorDiv(v.Z, size)}
}

// Local returns the position of world voxel v inside its chunk.
func (v Vec3) Local(size int) Vec3 {
	return Vec3{Mod(v.X, size), Mod(v.Y, size), Mod(v.Z, size)}
}

// FloorDiv divides rounding towards negative infinity. b must be positive.
func FloorDiv(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

// Mod returns a value in [0, b) for any a. b must be positive.
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// ChunkOf returns the chunk coordinate containing a world position.
func ChunkOf(pos mgl32.Vec3, size int) Vec3 {
	s := float64(size)
	return Vec3{
		int(math.Floor(float64(pos.X()) / s)),
		int(math.Floor(float64(pos.Y()) / s)),
		int(math.Floor(float64(pos.Z()) / s)),
	}
}

func NearVoxel(pos mgl32.Vec3) Vec3 {
	return Vec3{
		int(round(pos.X())),
		int(round(pos.Y())),
		int(round(pos.Z())),
	}
}

func round(f float32) float32 {
	return float32(math.Round(float64(f)))
}

// lowerCorner lists the eight offsets {0,1}^3, index i = x | y<<1 | z<<2.
var lowerCorner = func() [8]Vec3 {
	var r [8]Vec3
	for i := range r {
		r[i] = Vec3{i & 1, (i >> 1) & 1, (i >> 2) & 1}
	}
	return r
}()

// CornerOffsets returns the offsets {0,1}^3 with (0,0,0) first.
func CornerOffsets() [8]Vec3 {
	return lowerCorner
}
