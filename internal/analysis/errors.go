package analysis

import "github.com/tphakala/hubheight/internal/errors"

// ErrAnalysisCanceled is returned when the run's context is canceled
var ErrAnalysisCanceled = errors.NewStd("analysis canceled")

// referenceError marks a failure that aborts the whole run
func referenceError(err error, what, path string) error {
	b := errors.New(err).
		Component("analysis").
		Category(errors.CategoryReferenceData).
		Context("reference", what)
	if path != "" {
		b = b.FileContext(path)
	}
	return b.Build()
}
