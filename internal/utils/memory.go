package utils

import (
	"fmt"
	"runtime/debug"
	"strings"
)

const (
	AllocatorDefault    = "default"
	AllocatorThroughput = "throughput"

	throughputGCPercent = 400
)

// SelectAllocator tunes the runtime allocator once at process start.
//
// "throughput" trades memory headroom for fewer collections: the GC target is
// raised and a soft memory limit of softLimit bytes keeps the heap from
// running away. "default" leaves the runtime untouched. Correctness never
// depends on the choice.
func SelectAllocator(name string, softLimit int64) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", AllocatorThroughput:
		debug.SetGCPercent(throughputGCPercent)
		if softLimit > 0 {
			debug.SetMemoryLimit(softLimit)
		}
		return nil
	case AllocatorDefault:
		return nil
	default:
		return fmt.Errorf("unknown allocator %q", name)
	}
}

// ReleaseMemory forces a collection and hands freed pages back to the OS.
// The pipeline calls it right after dropping its large intermediate maps.
func ReleaseMemory() {
	debug.FreeOSMemory()
}
