// Package geomstore is a read-only mmap-backed reader for the compressed
// per-edge geometry file, adapted from atlasdatatech-gotiler's menfile.go
// MemFile. MemFile grew its backing file on demand as it appended
// tippecanoe records (MemFileWrite); a rendering-time facade only ever
// reads a file a separate graph-build step already wrote, so this keeps
// gommap's zero-copy mapping but drops the growth/truncate machinery
// entirely.
//
// Record layout for one packed geometry, starting at its offset:
//
//	uint32          node count n
//	[n]uint32       node ids
//	[n-1]int32      per-segment weights, deciseconds
//	[n-1]uint8      per-segment datasource ids
//
// All integers are little-endian, matching atlasdatatech-gotiler's use of
// encoding/binary throughout serial.go.
package geomstore

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/tysonmote/gommap"

	"github.com/tilecore/vtrender/internal/facade"
)

// Store is a memory-mapped view of a packed-geometry file.
type Store struct {
	file *os.File
	mmap gommap.MMap
}

// Open maps path read-only for the lifetime of the returned Store.
func Open(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := gommap.Map(f.Fd(), gommap.PROT_READ, gommap.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Store{file: f, mmap: m}, nil
}

// Close unmaps the file and releases the descriptor.
func (s *Store) Close() error {
	if err := s.mmap.UnsafeUnmap(); err != nil {
		return err
	}
	return s.file.Close()
}

func (s *Store) nodeCount(offset int64) (int, error) {
	if offset < 0 || offset+4 > int64(len(s.mmap)) {
		return 0, fmt.Errorf("geomstore: offset %d out of range (file size %d)", offset, len(s.mmap))
	}
	return int(binary.LittleEndian.Uint32(s.mmap[offset : offset+4])), nil
}

// ReadNodes returns the node-id sequence for the packed geometry at offset.
func (s *Store) ReadNodes(offset int64) ([]facade.NodeID, error) {
	n, err := s.nodeCount(offset)
	if err != nil {
		return nil, err
	}
	start := offset + 4
	end := start + int64(n)*4
	if end > int64(len(s.mmap)) {
		return nil, fmt.Errorf("geomstore: node block at %d overruns file", offset)
	}
	nodes := make([]facade.NodeID, n)
	for i := 0; i < n; i++ {
		nodes[i] = facade.NodeID(binary.LittleEndian.Uint32(s.mmap[start+int64(i)*4:]))
	}
	return nodes, nil
}

// ReadWeights returns the per-segment weight vector (length n-1) for the
// packed geometry at offset.
func (s *Store) ReadWeights(offset int64) ([]int32, error) {
	n, err := s.nodeCount(offset)
	if err != nil {
		return nil, err
	}
	start := offset + 4 + int64(n)*4
	segs := n - 1
	if segs < 0 {
		segs = 0
	}
	end := start + int64(segs)*4
	if end > int64(len(s.mmap)) {
		return nil, fmt.Errorf("geomstore: weight block at %d overruns file", offset)
	}
	weights := make([]int32, segs)
	for i := 0; i < segs; i++ {
		weights[i] = int32(binary.LittleEndian.Uint32(s.mmap[start+int64(i)*4:]))
	}
	return weights, nil
}

// ReadDatasources returns the per-segment datasource-id vector (length
// n-1) for the packed geometry at offset.
func (s *Store) ReadDatasources(offset int64) ([]uint8, error) {
	n, err := s.nodeCount(offset)
	if err != nil {
		return nil, err
	}
	segs := n - 1
	if segs < 0 {
		segs = 0
	}
	start := offset + 4 + int64(n)*4 + int64(segs)*4
	end := start + int64(segs)
	if end > int64(len(s.mmap)) {
		return nil, fmt.Errorf("geomstore: datasource block at %d overruns file", offset)
	}
	return append([]uint8(nil), s.mmap[start:end]...), nil
}
