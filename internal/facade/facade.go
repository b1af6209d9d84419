// Package facade declares the read-only collaborator the tile-rendering
// core depends on: the routing graph, the compressed geometry store, and
// the static spatial index. Loading graph data from disk, the R-tree,
// and the geometry store live behind this interface so any backend can
// be swapped in, the way atlasdatatech-gotiler's own Projection
// interface in projection.go let EPSG4326/EPSG3857 swap behind one
// abstraction.
package facade

import "github.com/tilecore/vtrender/internal/geocoord"

// NodeID identifies a node in the routing graph.
type NodeID uint32

// PackedGeomID is an opaque handle into the compressed per-edge geometry
// store. NoGeometry marks a disabled direction.
type PackedGeomID int64

// NoGeometry is the sentinel PackedGeomID meaning "this direction has no
// geometry", i.e. the direction is disabled.
const NoGeometry PackedGeomID = -1

// EdgeBasedEdgeID identifies an edge in the edge-based graph (maneuvers).
type EdgeBasedEdgeID uint32

// ShortcutID identifies a contraction-hierarchy shortcut edge.
type ShortcutID uint32

// SegmentRef is one direction's edge-based segment reference.
type SegmentRef struct {
	ID      EdgeBasedEdgeID
	Enabled bool
}

// ComponentData tags the small-disconnected-subgraph flag.
type ComponentData struct {
	IsTiny bool
}

// Edge is one directed road segment, as returned by a bbox query.
type Edge struct {
	U, V NodeID

	ForwardPackedGeometryID PackedGeomID
	ReversePackedGeometryID PackedGeomID
	FwdSegmentPosition      int

	ForwardSegmentID SegmentRef
	ReverseSegmentID SegmentRef

	Component ComponentData
}

// EdgeData describes a shortcut's traversal directions.
type EdgeData struct {
	Forward  bool
	Backward bool
}

// UnpackedEdge is one constituent edge-based edge of an unpacked shortcut.
type UnpackedEdge struct {
	ID       EdgeBasedEdgeID
	Distance int32 // cumulative weight, deciseconds
}

// Facade is the read-only interface the core uses to query the routing
// graph, compressed geometry store, and contraction-hierarchy index.
// Implementations must be safe for concurrent reads across requests,
// though no single request calls concurrently into it.
type Facade interface {
	// EdgesInBox returns every directed segment whose bounding box
	// intersects [sw, ne]. Backed by the static R-tree's edges-in-box
	// query.
	EdgesInBox(sw, ne geocoord.GeoCoord) ([]Edge, error)

	// CoordinateOfNode returns the WGS84 coordinate of a graph node.
	CoordinateOfNode(id NodeID) (geocoord.GeoCoord, error)

	// UncompressedWeights returns the per-segment weight vector
	// (deciseconds) for a packed geometry.
	UncompressedWeights(id PackedGeomID) ([]int32, error)

	// UncompressedDatasources returns the per-segment datasource id
	// vector for a packed geometry.
	UncompressedDatasources(id PackedGeomID) ([]uint8, error)

	// UncompressedGeometry returns the node sequence for a packed
	// geometry.
	UncompressedGeometry(id PackedGeomID) ([]NodeID, error)

	// AdjacentEdgeRange enumerates the outgoing shortcuts of an
	// edge-based node in the contraction hierarchy.
	AdjacentEdgeRange(id EdgeBasedEdgeID) ([]ShortcutID, error)

	// EdgeData returns the traversal-direction flags of a shortcut.
	EdgeData(id ShortcutID) (EdgeData, error)

	// Target returns the edge-based-edge id a shortcut points to.
	Target(id ShortcutID) (EdgeBasedEdgeID, error)

	// UnpackEdgeToEdges expands a shortcut into its (at most two)
	// constituent edge-based edges.
	UnpackEdgeToEdges(source, target EdgeBasedEdgeID) ([]UnpackedEdge, error)

	// GeometryIndexForEdge returns the packed geometry handle for an
	// edge-based edge.
	GeometryIndexForEdge(id EdgeBasedEdgeID) (PackedGeomID, error)

	// DatasourceName returns the human-readable name of a datasource id.
	DatasourceName(id uint8) (string, error)
}
