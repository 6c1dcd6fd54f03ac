package main

import (
	"io/ioutil"
	"math/bits"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/sdfcraft/world"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type TypeConfig struct {
	Id     int        `yaml:"id"`
	Name   string     `yaml:"name"`
	Colour [4]float32 `yaml:"colour"` //rgba
}

type ChunkConfig struct {
	Size         int     `yaml:"size"`
	Kind         string  `yaml:"kind"` // array or octree
	LoadDistance float32 `yaml:"load_distance"`
	Workers      int     `yaml:"workers"`
}

type MeshConfig struct {
	MaxPerTick    int     `yaml:"max_per_tick"`
	QueueFraction float64 `yaml:"queue_fraction"`
}

type ProviderConfig struct {
	Kind       string     `yaml:"kind"` // flat, noise, sphere or heightmap
	Seed       int64      `yaml:"seed"`
	Ground     float32    `yaml:"ground"`
	BaseHeight float32    `yaml:"base_height"`
	Amplitude  float32    `yaml:"amplitude"`
	Frequency  float32    `yaml:"frequency"`
	Radius     float32    `yaml:"radius"`
	HeightMap  string     `yaml:"heightmap"`
	Scale      [2]float32 `yaml:"scale"`
	RockHeight float32    `yaml:"rock_height"`
	SnowHeight float32    `yaml:"snow_height"`
	Grass      string     `yaml:"grass"`
	Rock       string     `yaml:"rock"`
	Snow       string     `yaml:"snow"`
}

type StoreConfig struct {
	Path      string `yaml:"path"`
	CacheSize int    `yaml:"cache_size"`
}

type WalkConfig struct {
	Start    [3]float32 `yaml:"start"`
	Yaw      float32    `yaml:"yaw"`
	Pitch    float32    `yaml:"pitch"`
	Speed    float32    `yaml:"speed"`
	Crater   float32    `yaml:"crater"` // radius, 0 disables digging
	StatTick int        `yaml:"stat_tick"`
}

type Config struct {
	Chunk    ChunkConfig    `yaml:"chunk"`
	Mesh     MeshConfig     `yaml:"mesh"`
	Provider ProviderConfig `yaml:"provider"`
	Store    StoreConfig    `yaml:"store"`
	Walk     WalkConfig     `yaml:"walk"`
	Types    []TypeConfig   `yaml:"types"`

	// Server is the remote chunk server; empty means generate locally.
	Server string `yaml:"server"`
}

func DefaultConfig() *Config {
	return &Config{
		Chunk: ChunkConfig{
			Size:         16,
			Kind:         "array",
			LoadDistance: 3,
			Workers:      1,
		},
		Mesh: MeshConfig{
			MaxPerTick:    16,
			QueueFraction: 0.5,
		},
		Provider: ProviderConfig{
			Kind:       "noise",
			Seed:       1,
			BaseHeight: -8,
			Amplitude:  24,
			Frequency:  0.01,
			Radius:     12,
			RockHeight: 6,
			SnowHeight: 12,
			Grass:      "grass",
			Rock:       "rock",
			Snow:       "snow",
		},
		Store: StoreConfig{
			CacheSize: 256,
		},
		Walk: WalkConfig{
			Start:    [3]float32{0, 24, 0},
			Yaw:      0,
			Pitch:    -30,
			Speed:    8,
			Crater:   4,
			StatTick: 60,
		},
		Types: []TypeConfig{
			{Id: 1, Name: "grass", Colour: [4]float32{0.33, 0.6, 0.2, 1}},
			{Id: 2, Name: "rock", Colour: [4]float32{0.5, 0.5, 0.5, 1}},
			{Id: 3, Name: "snow", Colour: [4]float32{0.95, 0.95, 1, 1}},
		},
	}
}

// LoadConfig reads a yaml config on top of DefaultConfig. An empty path
// returns the defaults.
func LoadConfig(file string) (*Config, error) {
	config := DefaultConfig()
	if file == "" {
		return config, nil
	}
	data, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", file)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", file)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Chunk.Size <= 0 {
		return errors.Errorf("chunk size %d", c.Chunk.Size)
	}
	switch c.Chunk.Kind {
	case "array":
	case "octree":
		if bits.OnesCount(uint(c.Chunk.Size)) != 1 {
			return errors.Errorf("octree chunk size %d is not a power of two", c.Chunk.Size)
		}
	default:
		return errors.Errorf("unknown chunk kind %q", c.Chunk.Kind)
	}
	if c.Chunk.LoadDistance < 0 {
		return errors.Errorf("load distance %v", c.Chunk.LoadDistance)
	}
	ids := map[int]bool{}
	for _, t := range c.Types {
		if ids[t.Id] {
			return errors.Errorf("duplicate voxel type id %d", t.Id)
		}
		ids[t.Id] = true
	}
	switch c.Provider.Kind {
	case "flat", "noise", "sphere":
	case "heightmap":
		if c.Provider.HeightMap == "" {
			return errors.New("heightmap provider without an image")
		}
	default:
		return errors.Errorf("unknown provider %q", c.Provider.Kind)
	}
	return nil
}

// Registry registers the configured voxel types.
func (c *Config) Registry() *world.TypeRegistry {
	r := world.NewTypeRegistry()
	for _, t := range c.Types {
		r.Register(&world.VoxelType{
			ID:     t.Id,
			Name:   t.Name,
			Colour: mgl32.Vec4(t.Colour),
		})
	}
	return r
}

// Factory returns the chunk factory for the configured kind and size.
func (c *Config) Factory() world.Factory {
	if c.Chunk.Kind == "octree" {
		return world.OctreeFactory(bits.TrailingZeros(uint(c.Chunk.Size)))
	}
	return world.ArrayFactory(c.Chunk.Size)
}

// NewProvider builds the configured voxel provider. Type names that are
// not registered fall back to untyped voxels.
func (c *Config) NewProvider(r *world.TypeRegistry) (world.Provider, error) {
	p := c.Provider
	bands := world.Bands{
		Grass:      r.ByName(p.Grass),
		Rock:       r.ByName(p.Rock),
		Snow:       r.ByName(p.Snow),
		RockHeight: p.RockHeight,
		SnowHeight: p.SnowHeight,
	}
	switch p.Kind {
	case "flat":
		return world.FlatLandProvider{Ground: p.Ground, Type: bands.Grass}, nil
	case "sphere":
		return world.SphereProvider{Radius: p.Radius, Type: bands.Rock}, nil
	case "noise":
		return world.NewNoiseProvider(p.Seed, p.BaseHeight, p.Amplitude, p.Frequency, bands), nil
	case "heightmap":
		hm, err := world.LoadHeightMap(p.HeightMap)
		if err != nil {
			return nil, err
		}
		if p.Scale != [2]float32{} {
			hm.Scale = mgl32.Vec2(p.Scale)
		}
		if p.Amplitude != 0 {
			hm.Amplitude = p.Amplitude
		}
		hm.BaseHeight = p.BaseHeight
		hm.Bands = bands
		return hm, nil
	}
	return nil, errors.Errorf("unknown provider %q", p.Kind)
}
