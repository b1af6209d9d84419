// Package assemble runs the two-pass walk over a bbox's edges that
// produces the full MVT tile, driving the mercator, clip, intern, turns,
// and mvtwire packages.
package assemble

import (
	"math"

	"github.com/paulmach/orb/geo"

	"github.com/tilecore/vtrender/internal/clip"
	"github.com/tilecore/vtrender/internal/facade"
	"github.com/tilecore/vtrender/internal/geocoord"
	"github.com/tilecore/vtrender/internal/intern"
	"github.com/tilecore/vtrender/internal/mercator"
	"github.com/tilecore/vtrender/internal/mvtwire"
	"github.com/tilecore/vtrender/internal/turns"
)

const (
	layerVersion = 2

	speedsLayerName = "speeds"
	turnsLayerName  = "turns"

	// Value-table layout: 128 speed buckets, then true/false, then one
	// slot per datasource name.
	speedValueCount = 128
	trueOffset      = speedValueCount
	falseOffset     = speedValueCount + 1
	datasourceBase  = speedValueCount + 2
)

// cachedEdge holds the per-edge values pass 1 computed, reused in pass 2
// instead of re-fetching them from the facade.
type cachedEdge struct {
	fwdWeight int32
	fwdDS     uint8
	revWeight int32
	revDS     uint8
}

// Render produces the MVT tile for the given tile address. It is the
// only exported entry point of this package.
func Render(f facade.Facade, params mercator.TileParams) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	wgsBbox := mercator.XYZToWGS84(params)
	sw := geocoord.FromDegrees(wgsBbox.MinLon, wgsBbox.MinLat)
	ne := geocoord.FromDegrees(wgsBbox.MaxLon, wgsBbox.MaxLat)

	edges, err := f.EdgesInBox(sw, ne)
	if err != nil {
		return nil, err
	}

	lineInts := intern.New[int32]()
	pointInts := intern.New[uint64]()

	var maxDatasourceID uint8
	cached := make([]cachedEdge, len(edges))
	allTurnData := make([][]turns.Data, len(edges))

	// Pass 1: tally intern tables and resolve turn penalties.
	for i, edge := range edges {
		var c cachedEdge

		if edge.ForwardPackedGeometryID != facade.NoGeometry {
			weights, err := f.UncompressedWeights(edge.ForwardPackedGeometryID)
			if err != nil {
				return nil, err
			}
			if edge.FwdSegmentPosition >= len(weights) {
				return nil, errOutOfRange("forward weight", edge.FwdSegmentPosition, len(weights))
			}
			c.fwdWeight = weights[edge.FwdSegmentPosition]

			datasources, err := f.UncompressedDatasources(edge.ForwardPackedGeometryID)
			if err != nil {
				return nil, err
			}
			if edge.FwdSegmentPosition >= len(datasources) {
				return nil, errOutOfRange("forward datasource", edge.FwdSegmentPosition, len(datasources))
			}
			c.fwdDS = datasources[edge.FwdSegmentPosition]

			lineInts.Intern(c.fwdWeight)

			nodes, err := f.UncompressedGeometry(edge.ForwardPackedGeometryID)
			if err != nil {
				return nil, err
			}
			if edge.FwdSegmentPosition == len(nodes)-1 {
				td, err := turns.Extract(f, edge, weights, nodes, pointInts)
				if err != nil {
					return nil, err
				}
				allTurnData[i] = td
			}
		}

		if edge.ReversePackedGeometryID != facade.NoGeometry {
			weights, err := f.UncompressedWeights(edge.ReversePackedGeometryID)
			if err != nil {
				return nil, err
			}
			revPos := len(weights) - edge.FwdSegmentPosition - 1
			if revPos < 0 || revPos >= len(weights) {
				return nil, errOutOfRange("reverse weight", revPos, len(weights))
			}
			c.revWeight = weights[revPos]

			datasources, err := f.UncompressedDatasources(edge.ReversePackedGeometryID)
			if err != nil {
				return nil, err
			}
			dsPos := len(datasources) - edge.FwdSegmentPosition - 1
			if dsPos < 0 || dsPos >= len(datasources) {
				return nil, errOutOfRange("reverse datasource", dsPos, len(datasources))
			}
			c.revDS = datasources[dsPos]

			lineInts.Intern(c.revWeight)
		}

		if c.fwdDS > maxDatasourceID {
			maxDatasourceID = c.fwdDS
		}
		if c.revDS > maxDatasourceID {
			maxDatasourceID = c.revDS
		}

		cached[i] = c
	}

	mercBbox := mercator.XYZToMercator(params)

	speedsLayer, err := buildSpeedsLayer(f, edges, cached, lineInts, maxDatasourceID, mercBbox)
	if err != nil {
		return nil, err
	}
	turnsLayer, err := buildTurnsLayer(f, edges, allTurnData, pointInts, mercBbox)
	if err != nil {
		return nil, err
	}

	var tile mvtwire.TileBuilder
	tile.AddLayer(speedsLayer.Bytes())
	tile.AddLayer(turnsLayer.Bytes())
	return tile.Bytes(), nil
}

func buildSpeedsLayer(f facade.Facade, edges []facade.Edge, cached []cachedEdge, lineInts *intern.Table[int32], maxDatasourceID uint8, bbox mercator.MercBbox) (*mvtwire.LayerBuilder, error) {
	layer := mvtwire.NewLayerBuilder(speedsLayerName, layerVersion, uint32(clip.Extent))

	var nextID uint64 = 1
	for i, edge := range edges {
		c := cached[i]

		a, err := f.CoordinateOfNode(edge.U)
		if err != nil {
			return nil, err
		}
		b, err := f.CoordinateOfNode(edge.V)
		if err != nil {
			return nil, err
		}
		lengthM := geo.DistanceHaversine(a.Point(), b.Point())

		if c.fwdWeight != 0 && edge.ForwardSegmentID.Enabled {
			speedKmh := math.Round(lengthM / float64(c.fwdWeight) * 10 * 3.6)
			line := projectAndClip(a, b, bbox)
			if len(line) > 0 {
				durOffset, _ := lineInts.Offset(c.fwdWeight)
				tags := speedTags(speedKmh, edge.Component.IsTiny, c.fwdDS, maxDatasourceID, durOffset)
				layer.AddFeature(mvtwire.BuildFeature(nextID, mvtwire.GeomTypeLine, tags, mvtwire.EncodeLineString(line)))
				nextID++
			}
		}

		if c.revWeight != 0 && edge.ReverseSegmentID.Enabled {
			speedKmh := math.Round(lengthM / float64(c.revWeight) * 10 * 3.6)
			line := projectAndClip(b, a, bbox)
			if len(line) > 0 {
				durOffset, _ := lineInts.Offset(c.revWeight)
				tags := speedTags(speedKmh, edge.Component.IsTiny, c.revDS, maxDatasourceID, durOffset)
				layer.AddFeature(mvtwire.BuildFeature(nextID, mvtwire.GeomTypeLine, tags, mvtwire.EncodeLineString(line)))
				nextID++
			}
		}
	}

	layer.AddKey("speed")
	layer.AddKey("is_small")
	layer.AddKey("datasource")
	layer.AddKey("duration")

	for i := 0; i < speedValueCount; i++ {
		layer.AddValue(mvtwire.UintValue(uint64(i)))
	}
	layer.AddValue(mvtwire.BoolValue(true))
	layer.AddValue(mvtwire.BoolValue(false))
	for id := 0; id <= int(maxDatasourceID); id++ {
		name, err := f.DatasourceName(uint8(id))
		if err != nil {
			return nil, err
		}
		layer.AddValue(mvtwire.StringValue(name))
	}
	for _, weight := range lineInts.Values() {
		layer.AddValue(mvtwire.DoubleValue(float64(weight) / 10.0))
	}

	return layer, nil
}

func speedTags(speedKmh float64, isTiny bool, datasource, maxDatasourceID uint8, durationOffset int) []uint32 {
	isSmallOffset := falseOffset
	if isTiny {
		isSmallOffset = trueOffset
	}
	durationBase := datasourceBase + int(maxDatasourceID) + 1
	return []uint32{
		0, clampSpeed(speedKmh),
		1, uint32(isSmallOffset),
		2, uint32(datasourceBase + int(datasource)),
		3, uint32(durationBase + durationOffset),
	}
}

func clampSpeed(v float64) uint32 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint32(v)
}

func buildTurnsLayer(f facade.Facade, edges []facade.Edge, allTurnData [][]turns.Data, pointInts *intern.Table[uint64], bbox mercator.MercBbox) (*mvtwire.LayerBuilder, error) {
	layer := mvtwire.NewLayerBuilder(turnsLayerName, layerVersion, uint32(clip.Extent))

	var nextID uint64 = 1
	for i, edge := range edges {
		turnData := allTurnData[i]
		if len(turnData) == 0 {
			continue
		}

		turnCoord, err := f.CoordinateOfNode(edge.V)
		if err != nil {
			return nil, err
		}
		tp := projectPoint(turnCoord, bbox)
		if !clip.PointInClipBox(tp) {
			continue
		}

		for _, td := range turnData {
			tags := []uint32{
				0, uint32(td.InBearingOffset),
				1, uint32(td.OutBearingOffset),
				2, uint32(td.WeightOffset),
			}
			layer.AddFeature(mvtwire.BuildFeature(nextID, mvtwire.GeomTypePoint, tags, mvtwire.EncodePoint(tp)))
			nextID++
		}
	}

	layer.AddKey("bearing_in")
	layer.AddKey("bearing_out")
	layer.AddKey("weight")

	for _, v := range pointInts.Values() {
		layer.AddValue(mvtwire.UintValue(v))
	}

	return layer, nil
}

func projectAndClip(a, b geocoord.GeoCoord, bbox mercator.MercBbox) clip.TileLine {
	ax, ay := mercator.WGS84ToTile(a, bbox, clip.Extent)
	bx, by := mercator.WGS84ToTile(b, bbox, clip.Extent)
	return clip.ClipLine(clip.TilePoint{X: ax, Y: ay}, clip.TilePoint{X: bx, Y: by})
}

func projectPoint(p geocoord.GeoCoord, bbox mercator.MercBbox) clip.TilePoint {
	x, y := mercator.WGS84ToTile(p, bbox, clip.Extent)
	return clip.TilePoint{X: x, Y: y}
}
