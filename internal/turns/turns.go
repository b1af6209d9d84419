// Package turns extracts, for a segment that terminates at an
// intersection, the outgoing shortcuts from the contraction hierarchy,
// unpacks each one level, and derives bearings and turn weights for
// every distinct successor node.
//
// Extract is a pure function of the facade and the edge, called as a
// free function the way the original's helper lambda was, not a method
// on some shared tile-building object.
package turns

import (
	"math"
	"sort"

	"github.com/paulmach/orb/geo"

	"github.com/tilecore/vtrender/internal/facade"
	"github.com/tilecore/vtrender/internal/geocoord"
	"github.com/tilecore/vtrender/internal/intern"
)

// Data is one outgoing turn at an intersection: offsets into the point
// layer's interned value table.
type Data struct {
	InBearingOffset  int
	OutBearingOffset int
	WeightOffset     int
}

// bearingDegrees returns the geodesic azimuth from a to b in [0, 360),
// truncated the way the original truncates a double to a uint64.
func bearingDegrees(a, b geocoord.GeoCoord) uint64 {
	deg := geo.Bearing(a.Point(), b.Point())
	if deg < 0 {
		deg += 360
	}
	return uint64(math.Trunc(deg))
}

// Extract computes the outgoing turn data for an edge whose forward
// segment is the last segment on its edge-based node (i.e. it ends at an
// intersection). forwardWeights and forwardNodes are the already-fetched
// forward weight and geometry-node vectors for edge.ForwardPackedGeometryID,
// reused from the assembler's pass-1 lookups rather than re-fetched here.
//
// Returns nil if no qualifying outgoing shortcut exists.
func Extract(f facade.Facade, edge facade.Edge, forwardWeights []int32, forwardNodes []facade.NodeID, pointInts *intern.Table[uint64]) ([]Data, error) {
	var sumNodeWeight int32
	for _, w := range forwardWeights {
		sumNodeWeight += w
	}

	precedingNode := edge.U
	if len(forwardNodes) > 1 {
		precedingNode = forwardNodes[len(forwardNodes)-2]
	}
	coordA, err := f.CoordinateOfNode(precedingNode)
	if err != nil {
		return nil, err
	}
	coordB, err := f.CoordinateOfNode(edge.V)
	if err != nil {
		return nil, err
	}

	shortcuts, err := f.AdjacentEdgeRange(edge.ForwardSegmentID.ID)
	if err != nil {
		return nil, err
	}

	cNodes := make(map[facade.NodeID]int32)
	for _, s := range shortcuts {
		edgeData, err := f.EdgeData(s)
		if err != nil {
			return nil, err
		}
		if !edgeData.Forward {
			continue
		}

		target, err := f.Target(s)
		if err != nil {
			return nil, err
		}

		unpacked, err := f.UnpackEdgeToEdges(edge.ForwardSegmentID.ID, target)
		if err != nil {
			return nil, err
		}
		if len(unpacked) < 2 {
			continue
		}

		firstGeomID, err := f.GeometryIndexForEdge(unpacked[1].ID)
		if err != nil {
			return nil, err
		}
		firstGeomNodes, err := f.UncompressedGeometry(firstGeomID)
		if err != nil {
			return nil, err
		}
		if len(firstGeomNodes) == 0 {
			continue
		}

		turnWeight := unpacked[0].Distance - sumNodeWeight
		cNodes[firstGeomNodes[0]] = turnWeight // last write wins if two shortcuts reach the same successor
	}

	if len(cNodes) == 0 {
		return nil, nil
	}

	bearingIn := bearingDegrees(coordA, coordB)
	inOffset := pointInts.Intern(bearingIn)

	successors := make([]facade.NodeID, 0, len(cNodes))
	for n := range cNodes {
		successors = append(successors, n)
	}
	sort.Slice(successors, func(i, j int) bool { return successors[i] < successors[j] })

	data := make([]Data, 0, len(successors))
	for _, cNode := range successors {
		turnWeight := cNodes[cNode]
		coordC, err := f.CoordinateOfNode(cNode)
		if err != nil {
			return nil, err
		}
		bearingOut := bearingDegrees(coordB, coordC)

		outOffset := pointInts.Intern(bearingOut)
		// Turn weights are signed but interned as u64: a negative weight
		// reinterprets its bits as a very large unsigned value on the
		// wire, matching how the original casts a signed weight into an
		// unsigned attribute slot.
		weightOffset := pointInts.Intern(uint64(int64(turnWeight)))

		data = append(data, Data{
			InBearingOffset:  inOffset,
			OutBearingOffset: outOffset,
			WeightOffset:     weightOffset,
		})
	}

	return data, nil
}
