// Package geocoord holds the fixed-point WGS84 coordinate type shared by
// every component that talks to the routing graph, plus the Web-Mercator
// coordinate type used mid-projection.
package geocoord

import "github.com/paulmach/orb"

// CoordinatePrecision is the fixed-point scale used for GeoCoord, matching
// the routing engine's own on-disk node coordinate encoding (microdegrees).
const CoordinatePrecision = 1e6

// GeoCoord is a WGS84 longitude/latitude pair stored as fixed-point
// integers, the same representation the graph uses for node coordinates.
type GeoCoord struct {
	LonFixed int32
	LatFixed int32
}

// FromDegrees builds a GeoCoord from floating-point degrees.
func FromDegrees(lon, lat float64) GeoCoord {
	return GeoCoord{
		LonFixed: int32(lon * CoordinatePrecision),
		LatFixed: int32(lat * CoordinatePrecision),
	}
}

// Lon returns the longitude in floating-point degrees.
func (c GeoCoord) Lon() float64 { return float64(c.LonFixed) / CoordinatePrecision }

// Lat returns the latitude in floating-point degrees.
func (c GeoCoord) Lat() float64 { return float64(c.LatFixed) / CoordinatePrecision }

// Point returns the coordinate as an orb.Point (X=lon, Y=lat), the shape
// orb's geo and maptile packages expect.
func (c GeoCoord) Point() orb.Point { return orb.Point{c.Lon(), c.Lat()} }

// MercCoord is a Web-Mercator coordinate pair, in the same DegreeToPx
// pixel units a MercBbox is expressed in.
type MercCoord struct {
	X, Y float64
}
