package assemble

import "fmt"

// errOutOfRange reports a facade lookup inconsistency: the graph or
// geometry store returned a vector too short for the segment position
// the edge record claims. This is a programming error upstream, not
// something a caller can retry past, so it aborts the request.
func errOutOfRange(what string, pos, length int) error {
	return fmt.Errorf("assemble: %s index %d out of range for length %d", what, pos, length)
}
