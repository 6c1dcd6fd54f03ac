package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// SpherePoints returns the lattice points within radius of centre.
func SpherePoints(centre mgl32.Vec3, radius float32) []Vec3 {
	c := NearVoxel(centre)
	r := int(math.Ceil(float64(radius))) + 1
	var points []Vec3
	for x := c.X - r; x <= c.X+r; x++ {
		for y := c.Y - r; y <= c.Y+r; y++ {
			for z := c.Z - r; z <= c.Z+r; z++ {
				p := Vec3{x, y, z}
				if p.Vec().Sub(centre).Len() <= radius {
					points = append(points, p)
				}
			}
		}
	}
	return points
}

// Deform adds delta to the distance of every voxel within radius of centre,
// clamped to [-1, 1]. A positive delta digs, a negative one raises. Nothing
// is written unless every affected chunk is loaded. It returns the number
// of voxels changed.
func Deform(m *Manager, centre mgl32.Vec3, radius, delta float32) (int, error) {
	points := SpherePoints(centre, radius)
	size := m.ChunkSize()
	for _, p := range points {
		if coord := p.ChunkID(size); !m.Loaded(coord) {
			return 0, errors.Wrapf(ErrChunkNotLoaded, "deform at %v chunk %v", centre, coord)
		}
	}
	n := 0
	for _, p := range points {
		v, err := m.Voxel(p)
		if err != nil {
			return n, err
		}
		d := mgl32.Clamp(v.Distance+delta, -1, 1)
		if d == v.Distance {
			continue
		}
		v.Distance = d
		if err := m.SetVoxel(p, v); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// HitTest marches from pos along dir and returns the first voxel inside the
// surface within maxLen, along with the last outside voxel before it. It
// stops at the first voxel whose chunk is not loaded.
func HitTest(m *Manager, pos, dir mgl32.Vec3, maxLen float32) (hit, prev Vec3, ok bool) {
	const step = float32(0.125)
	dir = dir.Normalize()
	prev = NearVoxel(pos)
	for length := float32(0); length < maxLen; length += step {
		voxel := NearVoxel(pos.Add(dir.Mul(length)))
		v, err := m.Voxel(voxel)
		if err != nil {
			return Vec3{}, Vec3{}, false
		}
		if !v.Outside() {
			return voxel, prev, true
		}
		prev = voxel
	}
	return Vec3{}, Vec3{}, false
}
