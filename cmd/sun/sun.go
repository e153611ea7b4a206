package sun

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/hubheight/internal/conf"
	"github.com/tphakala/hubheight/internal/site"
	"github.com/tphakala/hubheight/internal/suncalc"
)

// Command creates the sun command, which prints the solar geometry used for
// a photo taken at the given place and time
func Command(settings *conf.Settings) *cobra.Command {
	var lat, lon float64
	var timestamp string

	cmd := &cobra.Command{
		Use:   "sun",
		Short: "Print sun altitude, azimuth, sunrise and sunset for a place and time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := site.ParseTimestamp(timestamp)
			if err != nil {
				return err
			}

			eph, err := suncalc.NewEphemeris(settings.Ephemeris.Start, settings.Ephemeris.End, settings.Ephemeris.Step)
			if err != nil {
				return err
			}
			pos, err := eph.Position(lat, lon, t)
			if err != nil {
				return err
			}

			sc := suncalc.NewSunCalc(lat, lon)
			events, err := sc.GetSunEventTimes(t)
			if err != nil {
				return err
			}
			day, err := sc.IsDaylight(t)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Time:     %s\n", t.Format(time.RFC3339))
			fmt.Fprintf(w, "Altitude: %.2f°\n", pos.Altitude)
			fmt.Fprintf(w, "Azimuth:  %.2f°\n", pos.Azimuth)
			fmt.Fprintf(w, "Sunrise:  %s\n", events.Sunrise.Format(time.RFC3339))
			fmt.Fprintf(w, "Sunset:   %s\n", events.Sunset.Format(time.RFC3339))
			fmt.Fprintf(w, "Daylight: %t\n", day)
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in degrees")
	cmd.Flags().StringVar(&timestamp, "time", "", "Photo timestamp, RFC 3339 or \"YYYY-MM-DD hh:mm:ss±hh:mm\"; UTC when no offset")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	_ = cmd.MarkFlagRequired("time")

	return cmd
}
