package estimate

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tphakala/hubheight/internal/analysis"
	"github.com/tphakala/hubheight/internal/conf"
	"github.com/tphakala/hubheight/internal/logger"
)

type flags struct {
	workers int
	output  string
	format  string
	metrics string
}

// Command creates the estimate command, which runs the whole batch for a run
func Command(settings *conf.Settings) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "estimate [run]",
		Short: "Estimate hub heights for every labelled turbine of a run",
		Long: "Read the detector labels of a run (for example \"train\" or \"test\"), estimate each " +
			"turbine's hub height and write the turbine, site and summary reports.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				settings.Estimate.Run = args[0]
			}
			f.apply(cmd, settings)

			res, err := analysis.Run(cmd.Context(), settings, logger.Global().Module("cli"))
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	setupFlags(cmd, &f)

	return cmd
}

// setupFlags configures flags specific to the estimate command.
func setupFlags(cmd *cobra.Command, f *flags) {
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Number of worker goroutines, 0 uses all CPUs")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Path to output directory")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: csv, table")
	cmd.Flags().StringVar(&f.metrics, "metrics", "", "Write Prometheus metrics to this textfile")
}

// apply overrides settings with the flags given on the command line
func (f *flags) apply(cmd *cobra.Command, settings *conf.Settings) {
	if cmd.Flags().Changed("workers") {
		settings.Estimate.Workers = f.workers
	}
	if cmd.Flags().Changed("output") {
		settings.Output.Dir = f.output
	}
	if cmd.Flags().Changed("format") {
		settings.Output.Format = f.format
	}
	if cmd.Flags().Changed("metrics") {
		settings.Output.MetricsFile = f.metrics
	}
}

func printResult(w io.Writer, res *analysis.Result) {
	var valid int
	for i := range res.Turbines {
		if res.Turbines[i].Valid() {
			valid++
		}
	}

	fmt.Fprintf(w, "Run %s (%s)\n", res.Run, res.RunID)
	fmt.Fprintf(w, "Turbines: %d, valid estimates: %d, sites: %d\n", len(res.Turbines), valid, len(res.Sites))
	if res.Validation != nil {
		v := res.Validation
		fmt.Fprintf(w, "P-value: %.3f\nP-lower: %.3f\nP-upper: %.3f\n", v.P, v.PLower, v.PUpper)
		fmt.Fprintf(w, "Mean site error: %.2f m, within [%g, %g] m: %t\n", v.Mean, v.Lower, v.Upper, v.WithinBand)
	} else if res.ValidationErr != nil {
		fmt.Fprintf(w, "Validation skipped: %v\n", res.ValidationErr)
	}
	if len(res.MissingTiles) > 0 {
		fmt.Fprintf(w, "Missing elevation tiles: %d\n", len(res.MissingTiles))
	}
	for _, p := range res.Outputs {
		fmt.Fprintf(w, "Wrote %s\n", p)
	}
}
