package world

import (
	"net"
	"testing"
)

func TestRemoteLoader(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	server := NewServer(OctreeFactory(2), ProviderLoader{testProvider()}, quietLogger())
	go server.Serve(l)

	client, err := Dial(l.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	loader := &RemoteLoader{Client: client, Lookup: testRegistry().Lookup}

	for _, offset := range []Vec3{{0, 0, 0}, {-4, 4, 8}} {
		got := NewOctreeChunk(2, offset)
		if err := loader.Load(got); err != nil {
			t.Fatal(err)
		}
		want := NewOctreeChunk(2, offset)
		want.Load(testProvider())
		compareChunks(t, want, got)
	}

	err = loader.Load(NewArrayChunk(4, 4, 4, Vec3{}))
	if err == nil {
		t.Fatalf("array chunk accepted octree data")
	}
}
