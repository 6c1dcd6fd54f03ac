package world

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	p := filepath.Join(t.TempDir(), "chunks.db")
	s, err := OpenStore(p, 4)
	if err != nil {
		t.Fatal(err)
	}
	s.Logger = quietLogger()
	return s, p
}

func TestStoreSaveLoad(t *testing.T) {
	s, p := openTestStore(t)
	src := NewArrayChunk(4, 4, 4, Vec3{-4, 0, 8})
	src.Load(testProvider())
	coord := ChunkCoord(src)
	if coord != (Vec3{-1, 0, 2}) {
		t.Fatalf("coord %v", coord)
	}
	if err := s.Save(coord, src); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := s.Load(Vec3{}); ok || err != nil {
		t.Fatalf("missing chunk: ok=%v err=%v", ok, err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err := OpenStore(p, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	s.Logger = quietLogger()
	data, ok, err := s.Load(coord)
	if err != nil || !ok {
		t.Fatalf("load ok=%v err=%v", ok, err)
	}
	dst := NewArrayChunk(4, 4, 4, Vec3{})
	if ok, err := dst.Deserialize(bytes.NewReader(data), testRegistry().Lookup); !ok || err != nil {
		t.Fatalf("deserialize ok=%v err=%v", ok, err)
	}
	compareChunks(t, src, dst)

	coords, err := s.Coords()
	if err != nil || len(coords) != 1 || coords[0] != coord {
		t.Fatalf("coords %v %v", coords, err)
	}
	if err := s.Delete(coord); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Load(coord); ok {
		t.Fatalf("deleted chunk still stored")
	}
}

func TestStoreLoader(t *testing.T) {
	s, _ := openTestStore(t)
	defer s.Close()

	edited := NewArrayChunk(4, 4, 4, Vec3{4, 0, 0})
	edited.Load(FlatLandProvider{Ground: 2})
	edited.SetVoxel(1, 1, 1, VoxelInfo{Distance: 0.75, Type: testRock})
	s.Save(Vec3{1, 0, 0}, edited)
	s.Save(Vec3{2, 0, 0}, NewOctreeChunk(2, Vec3{8, 0, 0}))

	loader := &StoreLoader{
		Store:    s,
		Fallback: ProviderLoader{FlatLandProvider{Ground: 2}},
		Lookup:   testRegistry().Lookup,
		Logger:   quietLogger(),
	}

	c := NewArrayChunk(4, 4, 4, Vec3{4, 0, 0})
	if err := loader.Load(c); err != nil {
		t.Fatal(err)
	}
	if v := c.Voxel(1, 1, 1); v.Distance != 0.75 || v.Type != testRock {
		t.Fatalf("stored voxel %v", v)
	}

	// stored as an octree, so the array chunk is regenerated
	c.SetOffset(Vec3{8, 0, 0})
	if err := loader.Load(c); err != nil {
		t.Fatal(err)
	}
	if v := c.Voxel(1, 1, 1); v.Distance != -1 || v.Type != nil {
		t.Fatalf("regenerated voxel %v", v)
	}

	c.SetOffset(Vec3{0, 4, 0})
	if err := loader.Load(c); err != nil {
		t.Fatal(err)
	}
	if d := c.Voxel(0, 0, 0).Distance; d != 2 {
		t.Fatalf("fallback distance %v", d)
	}
}

func TestManagerWithStore(t *testing.T) {
	s, _ := openTestStore(t)
	defer s.Close()
	loader := &StoreLoader{Store: s, Fallback: ProviderLoader{FlatLandProvider{Ground: 2}}, Logger: quietLogger()}
	m := newTestManager(t, ManagerConfig{LoadDistance: 1, Saver: s}, loader)
	settle(t, m, mgl32.Vec3{})
	if err := m.SetVoxel(Vec3{1, 1, 1}, VoxelInfo{Distance: 0.5}); err != nil {
		t.Fatal(err)
	}
	settle(t, m, mgl32.Vec3{400, 0, 0})
	settle(t, m, mgl32.Vec3{})
	if v, _ := m.Voxel(Vec3{1, 1, 1}); v.Distance != 0.5 {
		t.Fatalf("edit lost across eviction: %v", v)
	}
}
