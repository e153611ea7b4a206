package validate

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/tphakala/hubheight/internal/conf"
	"github.com/tphakala/hubheight/internal/errors"
	"github.com/tphakala/hubheight/internal/report"
	"github.com/tphakala/hubheight/internal/validation"
)

// Command creates the validate command, which reruns the accuracy test on
// an existing site predictions table
func Command(settings *conf.Settings) *cobra.Command {
	var lower, upper, alpha float64

	cmd := &cobra.Command{
		Use:   "validate <site_predictions.csv>",
		Short: "Test whether the mean site error lies inside the accuracy band",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("lower") {
				settings.Validation.LowerBound = lower
			}
			if cmd.Flags().Changed("upper") {
				settings.Validation.UpperBound = upper
			}
			if cmd.Flags().Changed("alpha") {
				settings.Validation.Alpha = alpha
			}
			return run(cmd.OutOrStdout(), args[0], settings.Validation)
		},
	}

	cmd.Flags().Float64Var(&lower, "lower", 0, "Lower bound of the accuracy band in metres")
	cmd.Flags().Float64Var(&upper, "upper", 0, "Upper bound of the accuracy band in metres")
	cmd.Flags().Float64Var(&alpha, "alpha", 0, "Significance level")

	return cmd
}

func run(w io.Writer, path string, vs conf.ValidationSettings) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.FileError(err, path)
	}
	defer func() { _ = f.Close() }()

	errs, err := report.ReadSiteErrors(f)
	if err != nil {
		return err
	}

	res, err := validation.Validate(errs, vs.LowerBound, vs.UpperBound, vs.Alpha)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Sites: %d\n", res.N)
	fmt.Fprintf(w, "Mean error: %.3f m (sd %.3f)\n", res.Mean, res.StdDev)
	fmt.Fprintf(w, "P-value: %.3f\nP-lower: %.3f\nP-upper: %.3f\n", res.P, res.PLower, res.PUpper)
	fmt.Fprintf(w, "Within [%g, %g] m at alpha %g: %t\n", res.Lower, res.Upper, res.Alpha, res.WithinBand)
	if !math.IsNaN(res.ShapiroW) {
		fmt.Fprintf(w, "Shapiro-Wilk: W=%.4f p=%.4f\n", res.ShapiroW, res.ShapiroP)
	}
	return nil
}
