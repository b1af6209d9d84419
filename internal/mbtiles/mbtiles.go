// Package mbtiles writes rendered tiles to an on-disk MBTiles archive.
// It is a thin, optional convenience for the CLI, adapted from
// atlasdatatech-gotiler's mbtiles.go and trimmed to the table setup and
// tile/metadata writes. The tilestats sampling code (TypeAndString,
// AddToFileKeys, lowerBound) existed to build tippecanoe's
// layer-statistics JSON, which has no equivalent in a router's tile
// endpoint, so it is dropped rather than adapted.
package mbtiles

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Archive is an open MBTiles sqlite database ready to accept tiles.
type Archive struct {
	db *sql.DB
}

// Open creates (if needed) and prepares the tiles/metadata tables at path,
// applying the same pragmas atlasdatatech-gotiler used for bulk
// single-writer ingestion: synchronous off, exclusive locking, and the
// default rollback journal (journal_mode=DELETE).
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	for _, pragma := range []string{
		"PRAGMA synchronous=0",
		"PRAGMA locking_mode=EXCLUSIVE",
		"PRAGMA journal_mode=DELETE",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}
	statements := []string{
		"create table if not exists tiles (zoom_level integer, tile_column integer, tile_row integer, tile_data blob);",
		"create table if not exists metadata (name text, value text);",
		"create unique index if not exists name on metadata (name);",
		"create unique index if not exists tile_index on tiles(zoom_level, tile_column, tile_row);",
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &Archive{db: db}, nil
}

// Close runs ANALYZE and closes the underlying database, the same
// shutdown sequence atlasdatatech-gotiler's mbtilesClose performed.
func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	if _, err := a.db.Exec("ANALYZE;"); err != nil {
		return err
	}
	return a.db.Close()
}

// WriteTile inserts a rendered tile, flipping the row the way MBTiles'
// TMS convention requires (row 0 is the southernmost row, opposite of the
// slippy-map y used elsewhere in this module).
func (a *Archive) WriteTile(z, x, y int, data []byte) error {
	if a.db == nil {
		return fmt.Errorf("mbtiles: archive is not open")
	}
	tmsY := (1 << uint(z)) - 1 - y
	_, err := a.db.Exec(
		"insert into tiles (zoom_level, tile_column, tile_row, tile_data) values (?, ?, ?, ?);",
		z, x, tmsY, data,
	)
	return err
}

// WriteMetadata upserts a metadata row, used for the name/format/bounds
// fields MBTiles readers expect.
func (a *Archive) WriteMetadata(name, value string) error {
	if a.db == nil {
		return fmt.Errorf("mbtiles: archive is not open")
	}
	_, err := a.db.Exec("insert or replace into metadata (name, value) values (?, ?);", name, value)
	return err
}
