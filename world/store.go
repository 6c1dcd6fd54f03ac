package world

import (
	"bytes"
	"encoding/binary"
	"log"

	"github.com/boltdb/bolt"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

var (
	chunkBucket = []byte("chunk")
)

// Store keeps serialized chunks in a bolt database keyed by chunk
// coordinate, with an lru cache in front of reads.
type Store struct {
	db     *bolt.DB
	cache  *lru.Cache // map[Vec3][]byte
	Logger *log.Logger
}

func OpenStore(p string, cacheSize int) (*Store, error) {
	db, err := bolt.Open(p, 0666, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open store %s", p)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(chunkBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	db.NoSync = true
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{
		db:    db,
		cache: cache,
	}, nil
}

// Save serializes c under coord.
func (s *Store) Save(coord Vec3, c Chunk) error {
	buf := new(bytes.Buffer)
	if err := c.Serialize(buf); err != nil {
		return errors.Wrapf(err, "serialize chunk %v", coord)
	}
	return s.Put(coord, buf.Bytes())
}

// Put stores raw chunk data under coord.
func (s *Store) Put(coord Vec3, data []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(chunkBucket).Put(encodeVec3(coord), data)
	})
	if err != nil {
		return errors.Wrapf(err, "put chunk %v", coord)
	}
	logger(s.Logger).Printf("stored chunk %v (%d bytes)", coord, len(data))
	s.cache.Add(coord, data)
	return nil
}

// Load returns the stored data for coord. The slice must not be modified.
func (s *Store) Load(coord Vec3) ([]byte, bool, error) {
	if v, ok := s.cache.Get(coord); ok {
		return v.([]byte), true, nil
	}
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(chunkBucket).Get(encodeVec3(coord))
		if v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, errors.Wrapf(err, "get chunk %v", coord)
	}
	if data == nil {
		return nil, false, nil
	}
	s.cache.Add(coord, data)
	return data, true, nil
}

func (s *Store) Delete(coord Vec3) error {
	s.cache.Remove(coord)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(chunkBucket).Delete(encodeVec3(coord))
	})
}

// Coords lists every stored chunk coordinate in key order.
func (s *Store) Coords() ([]Vec3, error) {
	var coords []Vec3
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(chunkBucket).ForEach(func(k, v []byte) error {
			coord, err := decodeVec3(k)
			if err != nil {
				return err
			}
			coords = append(coords, coord)
			return nil
		})
	})
	return coords, err
}

func (s *Store) Close() error {
	s.db.Sync()
	return s.db.Close()
}

func encodeVec3(v Vec3) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, [...]int32{int32(v.X), int32(v.Y), int32(v.Z)})
	return buf.Bytes()
}

func decodeVec3(b []byte) (Vec3, error) {
	if len(b) != 4*3 {
		return Vec3{}, errors.Errorf("bad chunk key length:%d", len(b))
	}
	var arr [3]int32
	binary.Read(bytes.NewReader(b), binary.LittleEndian, &arr)
	return Vec3{int(arr[0]), int(arr[1]), int(arr[2])}, nil
}
