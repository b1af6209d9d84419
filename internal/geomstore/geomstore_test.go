package geomstore

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/tilecore/vtrender/internal/facade"
)

func writeRecord(nodes []uint32, weights []int32, datasources []uint8) []byte {
	buf := make([]byte, 4+len(nodes)*4+len(weights)*4+len(datasources))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(nodes)))
	off := 4
	for _, n := range nodes {
		binary.LittleEndian.PutUint32(buf[off:off+4], n)
		off += 4
	}
	for _, w := range weights {
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(w))
		off += 4
	}
	copy(buf[off:], datasources)
	return buf
}

func openFixture(t *testing.T, data []byte) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geom.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestReadNodesWeightsDatasources(t *testing.T) {
	data := writeRecord(
		[]uint32{100, 200, 300},
		[]int32{-15, 42},
		[]uint8{1, 2},
	)
	s := openFixture(t, data)

	nodes, err := s.ReadNodes(0)
	if err != nil {
		t.Fatalf("ReadNodes: %v", err)
	}
	want := []facade.NodeID{100, 200, 300}
	if len(nodes) != len(want) {
		t.Fatalf("ReadNodes = %v, want %v", nodes, want)
	}
	for i := range want {
		if nodes[i] != want[i] {
			t.Fatalf("ReadNodes[%d] = %d, want %d", i, nodes[i], want[i])
		}
	}

	weights, err := s.ReadWeights(0)
	if err != nil {
		t.Fatalf("ReadWeights: %v", err)
	}
	if len(weights) != 2 || weights[0] != -15 || weights[1] != 42 {
		t.Fatalf("ReadWeights = %v, want [-15 42]", weights)
	}

	ds, err := s.ReadDatasources(0)
	if err != nil {
		t.Fatalf("ReadDatasources: %v", err)
	}
	if len(ds) != 2 || ds[0] != 1 || ds[1] != 2 {
		t.Fatalf("ReadDatasources = %v, want [1 2]", ds)
	}
}

func TestReadSingleNodeGeometryHasNoSegments(t *testing.T) {
	data := writeRecord([]uint32{42}, nil, nil)
	s := openFixture(t, data)

	nodes, err := s.ReadNodes(0)
	if err != nil {
		t.Fatalf("ReadNodes: %v", err)
	}
	if len(nodes) != 1 || nodes[0] != 42 {
		t.Fatalf("ReadNodes = %v, want [42]", nodes)
	}

	weights, err := s.ReadWeights(0)
	if err != nil {
		t.Fatalf("ReadWeights: %v", err)
	}
	if len(weights) != 0 {
		t.Fatalf("ReadWeights = %v, want empty", weights)
	}
}

func TestReadNodesOffsetOutOfRangeErrors(t *testing.T) {
	data := writeRecord([]uint32{1, 2}, []int32{5}, []uint8{0})
	s := openFixture(t, data)

	if _, err := s.ReadNodes(int64(len(data) + 100)); err == nil {
		t.Fatalf("ReadNodes at out-of-range offset should error")
	}
}
