// Package memcheck guards against mmap-opening a geometry store the host
// cannot actually back with memory, adapted from atlasdatatech-gotiler's
// radix() (main.go), which logged gopsutil's VirtualMemory stats before
// sizing its own in-memory sort buffers.
package memcheck

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

// HaveHeadroom reports whether at least minFreeBytes of free (or
// reclaimable cached) memory is currently available. The CLI calls this
// before mapping a packed-geometry file so a too-small host fails fast
// with a clear message instead of thrashing under memory pressure.
func HaveHeadroom(minFreeBytes uint64) (bool, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return false, fmt.Errorf("memcheck: %w", err)
	}
	available := v.Available
	return available >= minFreeBytes, nil
}
