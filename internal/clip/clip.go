// Package clip clips a 2-point line against the tile's buffered extent,
// and tests whether a point falls inside that same box.
//
// atlasdatatech-gotiler's geometry.go carried a hand-rolled Draw/DrawVec
// pair for exactly this kind of tile-local integer geometry;
// TilePoint/TileLine here play the same role, renamed to match the data
// model, with the clip box fixed to the vector tile EXTENT/BUFFER
// instead of a zoom-dependent scale.
//
// Liang-Barsky is used instead of a general-purpose clipping library
// (orb/clip included) because output has to be bit-reproducible:
// rounding to int32 grid units happens before clipping, and the clipped
// endpoints are then truncated (not rounded) back to int32 the same way
// the original's `static_cast<int32_t>` does on the doubles
// boost::geometry::intersection hands back. A library built for general
// float geometry doesn't promise that exact truncation-after-clip
// behavior.
package clip

// Extent is the tile grid resolution: one tile spans [0, Extent) on each
// axis before buffering.
const Extent int32 = 4096

// Buffer is the overdraw margin, in grid units, added around the tile so
// geometry spanning tile borders still renders without seams.
const Buffer int32 = 128

var (
	boxMin = float64(-Buffer)
	boxMax = float64(Extent + Buffer)
)

// TilePoint is a point in tile grid units.
type TilePoint struct {
	X, Y int32
}

// TileLine is an ordered sequence of TilePoint. After clipping its length
// is 0 or >= 2; length 1 cannot occur and must be discarded by the caller
// (ClipLine already enforces this).
type TileLine []TilePoint

// ClipLine clips the segment a->b against the buffered tile box and
// returns the clipped line, or nil if the segment lies entirely outside
// or the clipped result collapses to a single point.
func ClipLine(a, b TilePoint) TileLine {
	x0, y0 := float64(a.X), float64(a.Y)
	x1, y1 := float64(b.X), float64(b.Y)

	cx0, cy0, cx1, cy1, ok := liangBarsky(x0, y0, x1, y1, boxMin, boxMin, boxMax, boxMax)
	if !ok {
		return nil
	}

	p0 := TilePoint{X: int32(cx0), Y: int32(cy0)}
	p1 := TilePoint{X: int32(cx1), Y: int32(cy1)}
	if p0 == p1 {
		return nil
	}
	return TileLine{p0, p1}
}

// PointInClipBox reports whether p lies within the inclusive clip box.
func PointInClipBox(p TilePoint) bool {
	x, y := float64(p.X), float64(p.Y)
	return x >= boxMin && x <= boxMax && y >= boxMin && y <= boxMax
}

// liangBarsky clips the segment (x0,y0)-(x1,y1) against the axis-aligned
// box [xmin,xmax]x[ymin,ymax]. Collinear overlaps with the box boundary
// count as inside, matching the spec's clip-containment property.
func liangBarsky(x0, y0, x1, y1, xmin, ymin, xmax, ymax float64) (ox0, oy0, ox1, oy1 float64, ok bool) {
	dx := x1 - x0
	dy := y1 - y0

	t0, t1 := 0.0, 1.0
	p := [4]float64{-dx, dx, -dy, dy}
	q := [4]float64{x0 - xmin, xmax - x0, y0 - ymin, ymax - y0}

	for i := 0; i < 4; i++ {
		if p[i] == 0 {
			if q[i] < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q[i] / p[i]
		if p[i] < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}

	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}
