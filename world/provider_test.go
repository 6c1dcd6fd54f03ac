package world

import (
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/go-gl/mathgl/mgl32"
)

func TestFlatLandProvider(t *testing.T) {
	p := FlatLandProvider{Ground: 5, Type: testGrass}
	for y := 0; y < 10; y++ {
		v := p.VoxelInfo(3, y, -7)
		if v.Distance != float32(y-5) || v.Type != testGrass {
			t.Fatalf("y=%d: %v", y, v)
		}
	}
}

func TestSphereProvider(t *testing.T) {
	p := SphereProvider{Centre: mgl32.Vec3{0, 0, 0}, Radius: 3}
	if d := p.VoxelInfo(0, 0, 0).Distance; d != -3 {
		t.Fatalf("centre distance %v", d)
	}
	if d := p.VoxelInfo(0, 3, 0).Distance; d != 0 {
		t.Fatalf("surface distance %v", d)
	}
	if d := p.VoxelInfo(5, 0, 0).Distance; d != 2 {
		t.Fatalf("outside distance %v", d)
	}
}

func TestNoiseProvider(t *testing.T) {
	bands := Bands{Grass: testGrass, Rock: testRock, Snow: testSnow, RockHeight: 10, SnowHeight: 20}
	a := NewNoiseProvider(42, 4, 8, 0.02, bands)
	b := NewNoiseProvider(42, 4, 8, 0.02, bands)
	for x := -20; x < 20; x += 3 {
		for z := -20; z < 20; z += 7 {
			h := a.Height(x, z)
			if h < 4 || h > 12 {
				t.Fatalf("height %v at (%d,%d) outside [4, 12]", h, x, z)
			}
			if h != b.Height(x, z) {
				t.Fatalf("same seed differs at (%d,%d)", x, z)
			}
			v := a.VoxelInfo(x, 6, z)
			if v.Distance != 6-h {
				t.Fatalf("distance %v, height %v", v.Distance, h)
			}
		}
	}
	if a.VoxelInfo(0, 5, 0).Type != testGrass || a.VoxelInfo(0, 15, 0).Type != testRock || a.VoxelInfo(0, 25, 0).Type != testSnow {
		t.Fatalf("height bands")
	}
}

func TestHeightMapProvider(t *testing.T) {
	img := imaging.New(8, 8, color.NRGBA{R: 102, G: 102, B: 102, A: 255})
	p := NewHeightMapProvider(img)
	p.Amplitude = 10
	p.BaseHeight = 1
	want := float32(1 + 10*102.0/255)
	for _, c := range []Vec3{{0, 0, 0}, {-13, 2, 5}, {100, 7, -100}} {
		v := p.VoxelInfo(c.X, c.Y, c.Z)
		if math.Abs(float64(v.Distance-(float32(c.Y)-want))) > 1e-4 {
			t.Fatalf("distance at %v = %v", c, v.Distance)
		}
	}
}

func TestHeightMapBilinear(t *testing.T) {
	img := imaging.New(2, 1, color.NRGBA{A: 255})
	img.Set(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	p := NewHeightMapProvider(img)
	// texel centres
	if g := p.Sample(0.25, 0.5); math.Abs(float64(g)) > 1e-4 {
		t.Fatalf("sample at black texel %v", g)
	}
	if g := p.Sample(0.75, 0.5); math.Abs(float64(g-1)) > 1e-4 {
		t.Fatalf("sample at white texel %v", g)
	}
	if g := p.Sample(0.5, 0.5); math.Abs(float64(g-0.5)) > 1e-4 {
		t.Fatalf("sample between texels %v", g)
	}
	// wraps around
	if g := p.Sample(1.25, 0.5); math.Abs(float64(g)) > 1e-4 {
		t.Fatalf("wrapped sample %v", g)
	}
}
