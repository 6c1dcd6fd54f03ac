package world

import "github.com/pkg/errors"

var (
	// ErrChunkNotLoaded is returned for world voxel access into a chunk that
	// is not resident.
	ErrChunkNotLoaded = errors.New("chunk not loaded")
	// ErrChunkMismatch is returned when stored data does not fit the chunk
	// it is loaded into.
	ErrChunkMismatch = errors.New("chunk kind or dimensions mismatch")
	ErrClosed        = errors.New("closed")
)
