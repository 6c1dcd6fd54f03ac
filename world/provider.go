package world

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"
	"github.com/pkg/errors"
)

// Provider produces the voxel at a world lattice coordinate. It must be a
// pure function of its arguments; it is called from the loader goroutine.
type Provider interface {
	VoxelInfo(x, y, z int) VoxelInfo
}

type ProviderFunc func(x, y, z int) VoxelInfo

func (f ProviderFunc) VoxelInfo(x, y, z int) VoxelInfo {
	return f(x, y, z)
}

// Bands picks a voxel type by height.
type Bands struct {
	Grass, Rock, Snow      *VoxelType
	RockHeight, SnowHeight float32
}

func (b Bands) TypeAt(y int) *VoxelType {
	h := float32(y)
	if h > b.SnowHeight {
		return b.Snow
	}
	if h > b.RockHeight {
		return b.Rock
	}
	return b.Grass
}

// FlatLandProvider is a flat ground plane at Ground.
type FlatLandProvider struct {
	Ground float32
	Type   *VoxelType
}

func (p FlatLandProvider) VoxelInfo(x, y, z int) VoxelInfo {
	return VoxelInfo{Distance: float32(y) - p.Ground, Type: p.Type}
}

// SphereProvider is a single solid ball in empty space.
type SphereProvider struct {
	Centre mgl32.Vec3
	Radius float32
	Type   *VoxelType
}

func (p SphereProvider) VoxelInfo(x, y, z int) VoxelInfo {
	d := mgl32.Vec3{float32(x), float32(y), float32(z)}.Sub(p.Centre).Len()
	return VoxelInfo{Distance: d - p.Radius, Type: p.Type}
}

// NoiseProvider is a height field of fractal simplex noise.
type NoiseProvider struct {
	BaseHeight  float32
	Amplitude   float32
	Frequency   float32
	Octaves     int
	Lacunarity  float32
	Persistence float32
	Bands       Bands

	noise opensimplex.Noise32
}

func NewNoiseProvider(seed int64, baseHeight, amplitude, frequency float32, bands Bands) *NoiseProvider {
	return &NoiseProvider{
		BaseHeight:  baseHeight,
		Amplitude:   amplitude,
		Frequency:   frequency,
		Octaves:     4,
		Lacunarity:  2,
		Persistence: 0.5,
		Bands:       bands,
		noise:       opensimplex.New32(seed),
	}
}

// Height returns the terrain height at column (x, z).
func (p *NoiseProvider) Height(x, z int) float32 {
	fx := float32(x) * p.Frequency
	fz := float32(z) * p.Frequency
	amplitude := float32(1)
	total := float32(0)
	norm := float32(0)
	for i := 0; i < p.Octaves; i++ {
		total += (p.noise.Eval2(fx, fz) + 1) / 2 * amplitude
		norm += amplitude
		fx *= p.Lacunarity
		fz *= p.Lacunarity
		amplitude *= p.Persistence
	}
	if norm == 0 {
		return p.BaseHeight
	}
	return p.BaseHeight + p.Amplitude*total/norm
}

func (p *NoiseProvider) VoxelInfo(x, y, z int) VoxelInfo {
	return VoxelInfo{
		Distance: float32(y) - p.Height(x, z),
		Type:     p.Bands.TypeAt(y),
	}
}

// HeightMapProvider raises terrain from the grey levels of an image. The
// image repeats; Scale is the number of voxels per image width.
type HeightMapProvider struct {
	Scale      mgl32.Vec2
	Offset     mgl32.Vec2
	Amplitude  float32
	BaseHeight float32
	Bands      Bands

	width, height int
	grey          []float32
}

// LoadHeightMap reads an image file for a HeightMapProvider.
func LoadHeightMap(path string) (*HeightMapProvider, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open height map %s", path)
	}
	return NewHeightMapProvider(img), nil
}

func NewHeightMapProvider(img image.Image) *HeightMapProvider {
	g := imaging.Grayscale(img)
	b := g.Bounds()
	p := &HeightMapProvider{
		Scale:     mgl32.Vec2{float32(b.Dx()), float32(b.Dy())},
		Amplitude: 1,
		width:     b.Dx(),
		height:    b.Dy(),
		grey:      make([]float32, b.Dx()*b.Dy()),
	}
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			p.grey[y*p.width+x] = float32(g.Pix[y*g.Stride+x*4]) / 255
		}
	}
	return p
}

func (p *HeightMapProvider) pixel(x, y int) float32 {
	return p.grey[Mod(y, p.height)*p.width+Mod(x, p.width)]
}

// Sample returns the bilinear grey level at texture coordinate (u, v).
func (p *HeightMapProvider) Sample(u, v float32) float32 {
	fx := float64(u)*float64(p.width) - 0.5
	fy := float64(v)*float64(p.height) - 0.5
	x0 := math.Floor(fx)
	y0 := math.Floor(fy)
	tx := float32(fx - x0)
	ty := float32(fy - y0)
	ix, iy := int(x0), int(y0)
	top := p.pixel(ix, iy)*(1-tx) + p.pixel(ix+1, iy)*tx
	bottom := p.pixel(ix, iy+1)*(1-tx) + p.pixel(ix+1, iy+1)*tx
	return top*(1-ty) + bottom*ty
}

func (p *HeightMapProvider) VoxelInfo(x, y, z int) VoxelInfo {
	h := p.Sample(float32(x)/p.Scale.X()+p.Offset.X(), float32(z)/p.Scale.Y()+p.Offset.Y())
	return VoxelInfo{
		Distance: float32(y) - p.BaseHeight - h*p.Amplitude,
		Type:     p.Bands.TypeAt(y),
	}
}
