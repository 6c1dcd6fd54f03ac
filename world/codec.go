package world

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

const (
	arrayChunkTag  = "ArrayChunk"
	octreeChunkTag = "OctreeChunk"

	// maxTagLen bounds the tag read from a stream; longer tags cannot be ours.
	maxTagLen = 64

	// recordSize is float32 distance + int32 type id.
	recordSize = 8
)

func writeTag(w io.Writer, tag string) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], uint64(len(tag)))
	if _, err := w.Write(buf[:n]); err != nil {
		return err
	}
	_, err := io.WriteString(w, tag)
	return err
}

// byteReader reads single bytes without buffering ahead, so sequential
// chunks can be read from one stream.
type byteReader struct {
	r   io.Reader
	buf [1]byte
}

func (b *byteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(b.r, b.buf[:]); err != nil {
		return 0, err
	}
	return b.buf[0], nil
}

// readTag returns "" without error when the length prefix is too long to be
// a known tag.
func readTag(r io.Reader) (string, error) {
	n, err := binary.ReadUvarint(&byteReader{r: r})
	if err != nil {
		return "", errors.Wrap(err, "read chunk tag")
	}
	if n > maxTagLen {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", errors.Wrap(err, "read chunk tag")
	}
	return string(buf), nil
}

func writeInt32s(w io.Writer, vs ...int32) error {
	return binary.Write(w, binary.LittleEndian, vs)
}

func readInt32s(r io.Reader, n int) ([]int32, error) {
	vs := make([]int32, n)
	if err := binary.Read(r, binary.LittleEndian, vs); err != nil {
		return nil, errors.Wrap(err, "read chunk header")
	}
	return vs, nil
}

// readRecords reads n voxel records in one go, so a short stream never
// leaves a chunk half written.
func readRecords(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n*recordSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, "read chunk payload")
	}
	return buf, nil
}

func putRecord(b []byte, v VoxelInfo) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v.Distance))
	binary.LittleEndian.PutUint32(b[4:], uint32(v.TypeID()))
}

func record(b []byte, lookup TypeLookup) VoxelInfo {
	v := VoxelInfo{Distance: math.Float32frombits(binary.LittleEndian.Uint32(b))}
	id := int32(binary.LittleEndian.Uint32(b[4:]))
	if id >= 0 && lookup != nil {
		v.Type = lookup(int(id))
	}
	return v
}
