// Package mercator turns a (z, x, y) tile address into its WGS84 and
// Web-Mercator bounding boxes, and projects a WGS84 point into
// tile-local grid units.
//
// The formulas mirror atlasdatatech-gotiler's EPSG4326/EPSG3857
// Project/UnProject pair in projection.go, specialized to the exact
// constants the vector tile spec requires instead of that pair's generic
// zoom-shift version.
package mercator

import (
	"fmt"
	"math"

	"github.com/tilecore/vtrender/internal/geocoord"
)

// TileSize is the conventional pixel width/height of a slippy-map tile at
// DEGREE_TO_PX scale.
const TileSize = 256

// DegreeToPx converts a longitude degree span directly into Web-Mercator
// pixel units at the reference (TileSize-px) resolution.
const DegreeToPx = TileSize / 360.0

// MaxZoom is the highest zoom level a TileParams may name.
const MaxZoom = 22

// TileParams identifies a single slippy-map tile.
type TileParams struct {
	Z uint8
	X uint32
	Y uint32
}

// Validate checks the invariants from the data model: 0 <= z <= 22 and
// x, y < 2^z.
func (p TileParams) Validate() error {
	if p.Z > MaxZoom {
		return fmt.Errorf("mercator: zoom %d exceeds max zoom %d", p.Z, MaxZoom)
	}
	limit := uint32(1) << p.Z
	if p.X >= limit || p.Y >= limit {
		return fmt.Errorf("mercator: tile %d/%d/%d out of range for zoom", p.Z, p.X, p.Y)
	}
	return nil
}

// WGS84Bbox is a geographic bounding box, degrees.
type WGS84Bbox struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// MercBbox is a Web-Mercator bounding box in DegreeToPx-scaled units
// (i.e. "mercator pixels" at the TileSize reference resolution), matching
// the units xyz_to_mercator hands to wgs84_to_tile.
type MercBbox struct {
	MinX, MinY, MaxX, MaxY float64

	// Width and Height memoize maxX-minX / maxY-minY, used on every point
	// projected against this bbox.
	Width, Height float64
}

func latToMercY(latDeg float64) float64 {
	latRad := latDeg * math.Pi / 180
	return math.Log(math.Tan(math.Pi/4+latRad/2)) * 180 / math.Pi
}

// XYZToWGS84 computes the geographic bounding box of tile (z, x, y) using
// the standard slippy-map formulas.
func XYZToWGS84(p TileParams) WGS84Bbox {
	n := math.Exp2(float64(p.Z))

	lonAt := func(x uint32) float64 {
		return float64(x)/n*360.0 - 180.0
	}
	latAt := func(y uint32) float64 {
		yy := 1 - 2*float64(y)/n
		return math.Atan(math.Sinh(math.Pi*yy)) * 180 / math.Pi
	}

	minLon := lonAt(p.X)
	maxLon := lonAt(p.X + 1)
	// y grows downward: smaller y is further north (larger latitude).
	maxLat := latAt(p.Y)
	minLat := latAt(p.Y + 1)

	return WGS84Bbox{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat}
}

// XYZToMercator computes the bbox of tile (z, x, y) in DegreeToPx-scaled
// Web-Mercator units.
func XYZToMercator(p TileParams) MercBbox {
	wgs := XYZToWGS84(p)

	minX := wgs.MinLon * DegreeToPx
	maxX := wgs.MaxLon * DegreeToPx
	// Mercator Y grows northward with latitude, so MaxY is the tile's
	// north edge; WGS84ToTile measures tile y downward from it.
	minY := latToMercY(wgs.MinLat) * DegreeToPx
	maxY := latToMercY(wgs.MaxLat) * DegreeToPx

	return MercBbox{
		MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY,
		Width: maxX - minX, Height: maxY - minY,
	}
}

// ProjectPoint converts a WGS84 point to DegreeToPx-scaled Web-Mercator
// units, the same units a MercBbox is expressed in.
func ProjectPoint(pt geocoord.GeoCoord) geocoord.MercCoord {
	return geocoord.MercCoord{
		X: pt.Lon() * DegreeToPx,
		Y: latToMercY(pt.Lat()) * DegreeToPx,
	}
}

// WGS84ToTile projects a geographic point into tile-local grid units
// against the given mercator bbox. The Y axis inverts: tile coordinates
// grow downward while mercator Y grows northward.
func WGS84ToTile(pt geocoord.GeoCoord, bbox MercBbox, extent int32) (x, y int32) {
	merc := ProjectPoint(pt)

	tx := math.Round((merc.X - bbox.MinX) / bbox.Width * float64(extent))
	ty := math.Round((bbox.MaxY - merc.Y) / bbox.Height * float64(extent))

	return int32(tx), int32(ty)
}
