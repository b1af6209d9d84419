package quadkey

import "testing"

func TestEncodeZero(t *testing.T) {
	if got := Encode(0, 0); got != 0 {
		t.Fatalf("Encode(0,0) = %d, want 0", got)
	}
}

func TestEncodeSingleBit(t *testing.T) {
	// The most significant bit of wx lands in the top bit of the index;
	// the most significant bit of wy lands just below it.
	got := Encode(1<<31, 0)
	want := uint64(1) << 63
	if got != want {
		t.Fatalf("Encode(1<<31,0) = %#x, want %#x", got, want)
	}

	got = Encode(0, 1<<31)
	want = uint64(1) << 62
	if got != want {
		t.Fatalf("Encode(0,1<<31) = %#x, want %#x", got, want)
	}
}

func TestEncodeOrderingMatchesMortonInterleave(t *testing.T) {
	// Incrementing wx alone must increase the key (bit 1 of each pair is x).
	a := Encode(4, 4)
	b := Encode(5, 4)
	if !(b > a) {
		t.Fatalf("Encode(5,4)=%d should exceed Encode(4,4)=%d", b, a)
	}
}

func TestGridCoordMapsRangeEndpoints(t *testing.T) {
	x, y := GridCoord(-180_000_000, -90_000_000)
	if x != 0 || y != 0 {
		t.Fatalf("GridCoord(-180,-90) = (%d,%d), want (0,0)", x, y)
	}

	x, _ = GridCoord(0, 0)
	if x == 0 {
		t.Fatalf("GridCoord(0,0) x should be roughly mid-range, got 0")
	}
}
