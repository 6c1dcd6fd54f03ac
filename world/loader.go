package world

import (
	"bytes"
	"io"
	"log"
	"sync"

	"github.com/pkg/errors"
)

// Loader populates a chunk whose offset is already set. It runs on the
// loader goroutine and owns the chunk for the duration of the call.
type Loader interface {
	Load(c Chunk) error
}

type LoaderFunc func(c Chunk) error

func (f LoaderFunc) Load(c Chunk) error {
	return f(c)
}

// Saver persists a chunk's content under its chunk coordinate.
type Saver interface {
	Save(coord Vec3, c Chunk) error
}

// ProviderLoader fills chunks from a Provider.
type ProviderLoader struct {
	Provider Provider
}

func (l ProviderLoader) Load(c Chunk) error {
	c.Load(l.Provider)
	return nil
}

// StreamLoader reads consecutive serialized chunks from one stream, one per
// Load call.
type StreamLoader struct {
	mutex  sync.Mutex
	r      io.Reader
	lookup TypeLookup
}

func NewStreamLoader(r io.Reader, lookup TypeLookup) *StreamLoader {
	return &StreamLoader{r: r, lookup: lookup}
}

func (l *StreamLoader) Load(c Chunk) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	ok, err := c.Deserialize(l.r, l.lookup)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrChunkMismatch, "chunk at %v", c.Offset())
	}
	return nil
}

// StoreLoader prefers a stored copy of a chunk and falls back to another
// loader when nothing usable is stored.
type StoreLoader struct {
	Store    *Store
	Fallback Loader
	Lookup   TypeLookup
	Logger   *log.Logger
}

func (l *StoreLoader) Load(c Chunk) error {
	coord := ChunkCoord(c)
	data, found, err := l.Store.Load(coord)
	if err != nil {
		logger(l.Logger).Printf("store load chunk %v: %v", coord, err)
	}
	if found {
		ok, err := c.Deserialize(bytes.NewReader(data), l.Lookup)
		switch {
		case err != nil:
			logger(l.Logger).Printf("stored chunk %v corrupt: %v", coord, err)
		case !ok:
			logger(l.Logger).Printf("stored chunk %v does not match, regenerating", coord)
		default:
			return nil
		}
	}
	return l.Fallback.Load(c)
}

func logger(l *log.Logger) *log.Logger {
	if l == nil {
		return log.Default()
	}
	return l
}
