package elevation

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/tphakala/hubheight/internal/conf"
	"github.com/tphakala/hubheight/internal/elevation"
	"github.com/tphakala/hubheight/internal/errors"
	"github.com/tphakala/hubheight/internal/geo"
	"github.com/tphakala/hubheight/internal/logger"
)

// Command creates the elevation command, which looks up terrain height
// through the same tile cache the estimator uses
func Command(settings *conf.Settings) *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "elevation",
		Short: "Print the terrain elevation at a latitude and longitude",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if settings.Elevation.Coverage == "" {
				return errors.Newf("elevation.coverage is not set").
					Component("cli").
					Category(errors.CategoryConfiguration).
					Build()
			}

			f, err := os.Open(settings.Elevation.Coverage)
			if err != nil {
				return errors.FileError(err, settings.Elevation.Coverage)
			}
			defer func() { _ = f.Close() }()

			zone := geo.Zone(settings.Elevation.Zone)
			index, err := elevation.LoadCoverage(f, settings.Elevation.FileKey, settings.Elevation.ZoneKey, zone)
			if err != nil {
				return err
			}

			ledger := elevation.NewLedger()
			cache := elevation.NewTileCache(index, os.DirFS(settings.Elevation.Tiles), ledger, logger.Global().Module("cli"))
			h := cache.Elevation(lat, lon)

			w := cmd.OutOrStdout()
			switch {
			case !math.IsNaN(h):
				fmt.Fprintf(w, "Elevation: %.2f m (tile %s)\n", h, cache.Resident())
			case ledger.Len() > 0:
				fmt.Fprintf(w, "Elevation unknown: tile %s is missing\n", ledger.List()[0])
			case cache.Uncovered() > 0:
				fmt.Fprintln(w, "Elevation unknown: no tile covers this point")
			default:
				fmt.Fprintf(w, "Elevation unknown: no data at this point in tile %s\n", cache.Resident())
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in degrees")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")

	return cmd
}
