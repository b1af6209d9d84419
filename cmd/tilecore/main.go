// Command tilecore renders a single MVT tile from a routing graph and
// prints or archives it. It replaces atlasdatatech-gotiler's raw
// os.Args/flag handling in main.go with a cobra command tree plus
// viper-sourced configuration, the same CLI stack samirrijal-bilbopass
// wires up for its own HTTP-adjacent tooling.
package main

import (
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tilecore/vtrender/internal/assemble"
	"github.com/tilecore/vtrender/internal/mbtiles"
	"github.com/tilecore/vtrender/internal/memcheck"
	"github.com/tilecore/vtrender/internal/mercator"
	"github.com/tilecore/vtrender/internal/sqlitefacade"
)

const minHeadroomBytes = 256 << 20 // 256MiB, enough for one mmap window plus working set

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tilecore",
		Short: "Render a Mapbox Vector Tile of road speeds and turn penalties",
	}

	var graphDB, geomFile, outFile, archivePath string

	render := &cobra.Command{
		Use:   "render <z> <x> <y>",
		Short: "Render one tile and write it to --out (or stdout)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			z, err := strconv.ParseUint(args[0], 10, 8)
			if err != nil {
				return fmt.Errorf("invalid zoom %q: %w", args[0], err)
			}
			x, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid x %q: %w", args[1], err)
			}
			y, err := strconv.ParseUint(args[2], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid y %q: %w", args[2], err)
			}
			params := mercator.TileParams{Z: uint8(z), X: uint32(x), Y: uint32(y)}

			ok, err := memcheck.HaveHeadroom(minHeadroomBytes)
			if err != nil {
				log.Warnf("memcheck: %v", err)
			} else if !ok {
				return fmt.Errorf("insufficient free memory to map %s", viper.GetString("geom-file"))
			}

			f, err := sqlitefacade.Open(viper.GetString("graph-db"), viper.GetString("geom-file"))
			if err != nil {
				return fmt.Errorf("opening facade: %w", err)
			}
			defer f.Close()

			tile, err := assemble.Render(f, params)
			if err != nil {
				return fmt.Errorf("rendering tile: %w", err)
			}

			if archivePath != "" {
				archive, err := mbtiles.Open(archivePath)
				if err != nil {
					return fmt.Errorf("opening mbtiles archive: %w", err)
				}
				defer archive.Close()
				if err := archive.WriteTile(int(params.Z), int(params.X), int(params.Y), tile); err != nil {
					return fmt.Errorf("writing to mbtiles archive: %w", err)
				}
				bbox := mercator.XYZToWGS84(params)
				for _, kv := range [][2]string{
					{"name", "tilecore"},
					{"format", "pbf"},
					{"bounds", fmt.Sprintf("%f,%f,%f,%f", bbox.MinLon, bbox.MinLat, bbox.MaxLon, bbox.MaxLat)},
				} {
					if err := archive.WriteMetadata(kv[0], kv[1]); err != nil {
						return fmt.Errorf("writing mbtiles metadata: %w", err)
					}
				}
			}

			if outFile == "" || outFile == "-" {
				_, err = os.Stdout.Write(tile)
				return err
			}
			return os.WriteFile(outFile, tile, 0o644)
		},
	}

	render.Flags().StringVar(&graphDB, "graph-db", "", "path to the sqlite routing-graph database")
	render.Flags().StringVar(&geomFile, "geom-file", "", "path to the packed-geometry mmap file")
	render.Flags().StringVar(&outFile, "out", "-", "output path for the rendered tile (- for stdout)")
	render.Flags().StringVar(&archivePath, "mbtiles", "", "optional MBTiles archive to also write the tile into")
	viper.BindPFlag("graph-db", render.Flags().Lookup("graph-db"))
	viper.BindPFlag("geom-file", render.Flags().Lookup("geom-file"))

	root.AddCommand(render)

	cobra.OnInitialize(func() {
		viper.SetEnvPrefix("TILECORE")
		viper.AutomaticEnv()
	})

	return root
}
