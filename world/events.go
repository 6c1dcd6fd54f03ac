package world

import (
	"fmt"
	"sort"
	"sync"
)

type EventKind int

const (
	ChunkLoaded EventKind = iota
	ChunkUnloaded
	ChunkModified
)

func (k EventKind) String() string {
	switch k {
	case ChunkLoaded:
		return "loaded"
	case ChunkUnloaded:
		return "unloaded"
	case ChunkModified:
		return "modified"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Face bits of a ChunkModified event. A bit is set when a voxel on the
// chunk's low face along that axis was written.
const (
	FaceX uint8 = 1 << iota
	FaceY
	FaceZ
)

// FaceMask returns the low faces a local coordinate lies on.
func FaceMask(local Vec3) uint8 {
	var mask uint8
	if local.X == 0 {
		mask |= FaceX
	}
	if local.Y == 0 {
		mask |= FaceY
	}
	if local.Z == 0 {
		mask |= FaceZ
	}
	return mask
}

type Event struct {
	Kind  EventKind
	Coord Vec3
	// Faces is only set for ChunkModified.
	Faces uint8
}

func (e Event) String() string {
	if e.Kind == ChunkModified {
		return fmt.Sprintf("%v %v faces=%03b", e.Kind, e.Coord, e.Faces)
	}
	return fmt.Sprintf("%v %v", e.Kind, e.Coord)
}

type Listener func(e Event)

type listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]Listener
}

func (l *listeners) subscribe(fn Listener) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]Listener)
	}
	l.next++
	l.fns[l.next] = fn
	return l.next
}

func (l *listeners) unsubscribe(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.fns, id)
}

// fire calls listeners in subscription order. Listeners may subscribe or
// unsubscribe while being called.
func (l *listeners) fire(e Event) {
	l.mu.Lock()
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	fns := l.fns
	sort.Ints(ids)
	calls := make([]Listener, 0, len(ids))
	for _, id := range ids {
		calls = append(calls, fns[id])
	}
	l.mu.Unlock()
	for _, fn := range calls {
		fn(e)
	}
}
