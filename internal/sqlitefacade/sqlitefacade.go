// Package sqlitefacade is a reference facade.Facade implementation backed
// by a SQLite database (the routing graph, contraction hierarchy, and
// datasource names) plus a memory-mapped packed-geometry file (the
// compressed per-edge node/weight/datasource vectors). Loading graph data
// from disk is explicitly outside the core's scope; this package is a
// consumer of the facade.Facade contract, grounded on
// atlasdatatech-gotiler's own sqlite (mbtiles.go) and mmap (menfile.go)
// building blocks, the way that repo's MBTile store and MemFile geometry
// buffer sat alongside its tiler rather than inside it.
package sqlitefacade

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tilecore/vtrender/internal/facade"
	"github.com/tilecore/vtrender/internal/geocoord"
	"github.com/tilecore/vtrender/internal/geomstore"
	"github.com/tilecore/vtrender/internal/quadkey"
)

// Facade implements facade.Facade over a sqlite graph database and an
// mmap'd packed-geometry file. It is safe for concurrent read-only use
// across requests, since *sql.DB and geomstore.Store's mmap are both
// safe for concurrent reads.
type Facade struct {
	db   *sql.DB
	geom *geomstore.Store
}

// Open attaches to an existing graph database (dbPath) and packed
// geometry file (geomPath). Both are assumed to have been produced by a
// separate graph-build step; this package only ever reads them.
func Open(dbPath, geomPath string) (*Facade, error) {
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	store, err := geomstore.Open(geomPath)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Facade{db: db, geom: store}, nil
}

// Close releases the database handle and the mmap.
func (f *Facade) Close() error {
	geomErr := f.geom.Close()
	dbErr := f.db.Close()
	if geomErr != nil {
		return geomErr
	}
	return dbErr
}

// EdgesInBox implements facade.Facade. The edges table is ordered by a
// quadkey column (see internal/quadkey), so this narrows to the matching
// quadkey range before filtering by exact bbox overlap, the same
// coarse-then-exact pattern a real R-tree-backed facade would use.
func (f *Facade) EdgesInBox(sw, ne geocoord.GeoCoord) ([]facade.Edge, error) {
	swX, swY := quadkey.GridCoord(sw.LonFixed, sw.LatFixed)
	neX, neY := quadkey.GridCoord(ne.LonFixed, ne.LatFixed)
	loKey := quadkey.Encode(swX, swY)
	hiKey := quadkey.Encode(neX, neY)
	if loKey > hiKey {
		loKey, hiKey = hiKey, loKey
	}

	rows, err := f.db.Query(`
		select u, v, fwd_geom_id, rev_geom_id, fwd_pos,
		       fwd_segment_id, fwd_enabled, rev_segment_id, rev_enabled, is_tiny
		from edges
		where quadkey between ? and ?
		  and max_lon >= ? and min_lon <= ?
		  and max_lat >= ? and min_lat <= ?`,
		loKey, hiKey, sw.LonFixed, ne.LonFixed, sw.LatFixed, ne.LatFixed,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []facade.Edge
	for rows.Next() {
		var e facade.Edge
		var fwdGeom, revGeom int64
		var fwdSeg, revSeg uint32
		var fwdEnabled, revEnabled, isTiny int
		if err := rows.Scan(&e.U, &e.V, &fwdGeom, &revGeom, &e.FwdSegmentPosition,
			&fwdSeg, &fwdEnabled, &revSeg, &revEnabled, &isTiny); err != nil {
			return nil, err
		}
		e.ForwardPackedGeometryID = facade.PackedGeomID(fwdGeom)
		e.ReversePackedGeometryID = facade.PackedGeomID(revGeom)
		e.ForwardSegmentID = facade.SegmentRef{ID: facade.EdgeBasedEdgeID(fwdSeg), Enabled: fwdEnabled != 0}
		e.ReverseSegmentID = facade.SegmentRef{ID: facade.EdgeBasedEdgeID(revSeg), Enabled: revEnabled != 0}
		e.Component.IsTiny = isTiny != 0
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// CoordinateOfNode implements facade.Facade.
func (f *Facade) CoordinateOfNode(id facade.NodeID) (geocoord.GeoCoord, error) {
	var lon, lat int32
	err := f.db.QueryRow("select lon, lat from nodes where id = ?", id).Scan(&lon, &lat)
	if err != nil {
		return geocoord.GeoCoord{}, fmt.Errorf("sqlitefacade: node %d: %w", id, err)
	}
	return geocoord.GeoCoord{LonFixed: lon, LatFixed: lat}, nil
}

func (f *Facade) packedOffset(id facade.PackedGeomID) (int64, error) {
	var offset int64
	err := f.db.QueryRow("select offset from packed_geometries where id = ?", id).Scan(&offset)
	if err != nil {
		return 0, fmt.Errorf("sqlitefacade: packed geometry %d: %w", id, err)
	}
	return offset, nil
}

// UncompressedWeights implements facade.Facade.
func (f *Facade) UncompressedWeights(id facade.PackedGeomID) ([]int32, error) {
	offset, err := f.packedOffset(id)
	if err != nil {
		return nil, err
	}
	return f.geom.ReadWeights(offset)
}

// UncompressedDatasources implements facade.Facade.
func (f *Facade) UncompressedDatasources(id facade.PackedGeomID) ([]uint8, error) {
	offset, err := f.packedOffset(id)
	if err != nil {
		return nil, err
	}
	return f.geom.ReadDatasources(offset)
}

// UncompressedGeometry implements facade.Facade.
func (f *Facade) UncompressedGeometry(id facade.PackedGeomID) ([]facade.NodeID, error) {
	offset, err := f.packedOffset(id)
	if err != nil {
		return nil, err
	}
	return f.geom.ReadNodes(offset)
}

// AdjacentEdgeRange implements facade.Facade.
func (f *Facade) AdjacentEdgeRange(id facade.EdgeBasedEdgeID) ([]facade.ShortcutID, error) {
	rows, err := f.db.Query("select shortcut_id from adjacency where edge_based_edge_id = ? order by shortcut_id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []facade.ShortcutID
	for rows.Next() {
		var s uint32
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, facade.ShortcutID(s))
	}
	return out, rows.Err()
}

// EdgeData implements facade.Facade.
func (f *Facade) EdgeData(id facade.ShortcutID) (facade.EdgeData, error) {
	var fwd, bwd int
	err := f.db.QueryRow("select forward, backward from shortcuts where id = ?", id).Scan(&fwd, &bwd)
	if err != nil {
		return facade.EdgeData{}, fmt.Errorf("sqlitefacade: shortcut %d: %w", id, err)
	}
	return facade.EdgeData{Forward: fwd != 0, Backward: bwd != 0}, nil
}

// Target implements facade.Facade.
func (f *Facade) Target(id facade.ShortcutID) (facade.EdgeBasedEdgeID, error) {
	var target uint32
	err := f.db.QueryRow("select target_edge from shortcuts where id = ?", id).Scan(&target)
	if err != nil {
		return 0, fmt.Errorf("sqlitefacade: shortcut %d: %w", id, err)
	}
	return facade.EdgeBasedEdgeID(target), nil
}

// UnpackEdgeToEdges implements facade.Facade.
func (f *Facade) UnpackEdgeToEdges(source, target facade.EdgeBasedEdgeID) ([]facade.UnpackedEdge, error) {
	rows, err := f.db.Query(
		"select constituent_edge, distance from unpacked_shortcuts where source_edge = ? and target_edge = ? order by seq",
		source, target,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []facade.UnpackedEdge
	for rows.Next() {
		var e facade.UnpackedEdge
		var id uint32
		if err := rows.Scan(&id, &e.Distance); err != nil {
			return nil, err
		}
		e.ID = facade.EdgeBasedEdgeID(id)
		out = append(out, e)
	}
	return out, rows.Err()
}

// GeometryIndexForEdge implements facade.Facade.
func (f *Facade) GeometryIndexForEdge(id facade.EdgeBasedEdgeID) (facade.PackedGeomID, error) {
	var geomID int64
	err := f.db.QueryRow("select packed_geom_id from edge_geometry_index where edge_based_edge_id = ?", id).Scan(&geomID)
	if err != nil {
		return facade.NoGeometry, fmt.Errorf("sqlitefacade: edge %d: %w", id, err)
	}
	return facade.PackedGeomID(geomID), nil
}

// DatasourceName implements facade.Facade.
func (f *Facade) DatasourceName(id uint8) (string, error) {
	var name string
	err := f.db.QueryRow("select name from datasources where id = ?", id).Scan(&name)
	if err != nil {
		return "", fmt.Errorf("sqlitefacade: datasource %d: %w", id, err)
	}
	return name, nil
}
