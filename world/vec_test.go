package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestFloorDivMod(t *testing.T) {
	cases := []struct {
		a, b, div, mod int
	}{
		{0, 16, 0, 0},
		{15, 16, 0, 15},
		{16, 16, 1, 0},
		{-1, 16, -1, 15},
		{-16, 16, -1, 0},
		{-17, 16, -2, 15},
		{33, 8, 4, 1},
	}
	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.div {
			t.Errorf("FloorDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.div)
		}
		if got := Mod(c.a, c.b); got != c.mod {
			t.Errorf("Mod(%d, %d) = %d, want %d", c.a, c.b, got, c.mod)
		}
	}
}

func TestModRange(t *testing.T) {
	for m := 1; m < 20; m++ {
		for x := -100; x < 100; x++ {
			r := Mod(x, m)
			if r < 0 || r >= m {
				t.Fatalf("Mod(%d, %d) = %d", x, m, r)
			}
			if FloorDiv(x, m)*m+r != x {
				t.Fatalf("FloorDiv(%d, %d)*%d + %d != %d", x, m, m, r, x)
			}
		}
	}
}

func TestChunkIDLocal(t *testing.T) {
	v := Vec3{-1, 17, 0}
	if id := v.ChunkID(16); id != (Vec3{-1, 1, 0}) {
		t.Fatalf("chunk id %v", id)
	}
	if l := v.Local(16); l != (Vec3{15, 1, 0}) {
		t.Fatalf("local %v", l)
	}
	if c := ChunkOf(mgl32.Vec3{-0.5, 15.9, 16}, 16); c != (Vec3{-1, 0, 1}) {
		t.Fatalf("chunk of %v", c)
	}
}

func TestSphereOffsets(t *testing.T) {
	cases := []struct {
		d    float32
		want int
	}{
		{0, 1},
		{1, 7},
		{1.5, 19},
		{2, 33},
	}
	for _, c := range cases {
		offsets := SphereOffsets(c.d)
		if len(offsets) != c.want {
			t.Errorf("SphereOffsets(%v) has %d offsets, want %d", c.d, len(offsets), c.want)
			continue
		}
		if offsets[0] != (Vec3{}) {
			t.Errorf("SphereOffsets(%v) starts at %v", c.d, offsets[0])
		}
		for i := 1; i < len(offsets); i++ {
			if offsets[i].Len2() < offsets[i-1].Len2() {
				t.Fatalf("SphereOffsets(%v) not sorted at %d", c.d, i)
			}
		}
	}
}

func TestCornerOffsets(t *testing.T) {
	seen := map[Vec3]bool{}
	for _, o := range CornerOffsets() {
		seen[o] = true
	}
	if len(seen) != 8 || !seen[Vec3{}] || !seen[Vec3{1, 1, 1}] {
		t.Fatalf("corner offsets %v", CornerOffsets())
	}
}
