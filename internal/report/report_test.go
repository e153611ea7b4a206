package report

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/hubheight/internal/errors"
	"github.com/tphakala/hubheight/internal/estimator"
	"github.com/tphakala/hubheight/internal/geo"
	"github.com/tphakala/hubheight/internal/logger"
	"github.com/tphakala/hubheight/internal/quality"
	"github.com/tphakala/hubheight/internal/shadow"
	"github.com/tphakala/hubheight/internal/validation"
)

func sampleRows() []quality.Turbine {
	measured := estimator.Outcome{
		Site:          "becerril",
		Turbine:       3,
		Counts:        shadow.Counts{Bases: 1, HubShadows: 1},
		Measured:      true,
		PhotoTime:     time.Date(2019, 7, 15, 11, 0, 0, 0, time.UTC),
		ShadowLength:  61.234,
		ShadowAzimuth: 341.26,
		SolarAltitude: 52.71,
		SolarAzimuth:  158.04,
		RawHeight:     80.44,
		Correction:    -1.5,
		Corrected:     true,
		Height:        81.9,
		AzimuthDiff:   183,
		ActualHeight:  78.8,
		Error:         3.1000000000000085,
		Base:          geo.Projected{X: 500080.004, Y: 4699904, Zone: 30},
		Tip:           geo.Projected{X: 500060, Y: 4699962.5, Zone: 30},
		BaseLat:       42.45,
		BaseLon:       -2.99,
		TipLat:        42.451,
		TipLon:        -2.991,
		BaseElevation: 812.25,
		TipElevation:  813.75,
	}
	unmeasured := estimator.Unmeasurable("becerril", 4, shadow.Counts{Bases: 1}, 78.8, estimator.ReasonDetectionCountMismatch)
	missingImage := estimator.Unmeasurable("pena", 1, shadow.Counts{Bases: 1, HubShadows: 1}, 80, estimator.ReasonImageMissing)
	return quality.ClassifyAll([]estimator.Outcome{measured, unmeasured, missingImage}, quality.DefaultMaxAzimuthDiff)
}

func readCSV(t *testing.T, data string, comma rune) []map[string]string {
	t.Helper()
	r := csv.NewReader(strings.NewReader(data))
	r.Comma = comma
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)

	var out []map[string]string
	for _, rec := range records[1:] {
		row := make(map[string]string, len(rec))
		for i, h := range records[0] {
			row[h] = rec[i]
		}
		out = append(out, row)
	}
	return out
}

func TestWriteTurbines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteTurbines(&buf, sampleRows(), FormatCSV))

	rows := readCSV(t, buf.String(), ',')
	require.Len(t, rows, 3)

	m := rows[0]
	assert.Equal(t, "becerril", m["site"])
	assert.Equal(t, "3", m["turbine_id"])
	assert.Equal(t, "81.9", m["estimated_hub_height"])
	assert.Equal(t, "3.1", m["hub_height_diff"])
	assert.Equal(t, "61.2", m["shadow_length"])
	assert.Equal(t, "341.3", m["shadow_azimuth"])
	assert.Equal(t, "158", m["azimuth"])
	assert.Equal(t, "-1.5", m["terrain_correction"])
	assert.Equal(t, "500080", m["base_x"])
	assert.Equal(t, "2019-07-15T11:00:00Z", m["photo_timestamp"])
	assert.Equal(t, "true", m["azimuth_mismatch"])
	assert.Equal(t, "false", m["good_estimate"])
	assert.Empty(t, m["reason"])

	u := rows[1]
	assert.Equal(t, "detection-count-mismatch", u["reason"])
	assert.Equal(t, "true", u["missing_labels"])
	assert.Empty(t, u["estimated_hub_height"])
	assert.Empty(t, u["base_x"])
	assert.Empty(t, u["photo_timestamp"])
	assert.Equal(t, "78.8", u["actual_hub_height"])

	assert.Equal(t, "image-missing", rows[2]["reason"])
	assert.Equal(t, "true", rows[2]["good_estimate"])
}

func TestWriteTurbinesTableFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteTurbines(&buf, sampleRows(), FormatTable))

	header, _, _ := strings.Cut(buf.String(), "\n")
	assert.True(t, strings.HasPrefix(header, "site\tturbine_id\tactual_hub_height"))
	assert.Len(t, readCSV(t, buf.String(), '\t'), 3)
}

func TestWriteSitesAndReadBack(t *testing.T) {
	t.Parallel()

	sites := []quality.SiteAggregate{
		{Site: "a", MeanActual: 100, MeanEstimated: 101.5, MeanError: 1.5, Valid: 2, MissingLabels: 1, NumTurbines: 3},
		{Site: "b", MeanActual: math.NaN(), MeanEstimated: math.NaN(), MeanError: math.NaN(), MultipleLabels: 2, Unmeasurable: 1, NumTurbines: 2},
		{Site: "c", MeanActual: 80, MeanEstimated: 76, MeanError: -4, Valid: 1, NumTurbines: 1},
	}

	for _, format := range []Format{FormatCSV, FormatTable} {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			require.NoError(t, WriteSites(&buf, sites, format))

			rows := readCSV(t, buf.String(), format.comma())
			require.Len(t, rows, 3)
			assert.Equal(t, "1.5", rows[0]["hub_height_diff"])
			assert.Equal(t, "3", rows[0]["num_turbines"])
			assert.Empty(t, rows[1]["hub_height_diff"])
			assert.Equal(t, "1", rows[1]["unmeasurable"])

			errs, err := ReadSiteErrors(&buf)
			require.NoError(t, err)
			assert.Equal(t, []float64{1.5, -4}, errs)
		})
	}
}

func TestReadSiteErrorsRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := ReadSiteErrors(strings.NewReader("site,mean\na,1\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))

	_, err = ReadSiteErrors(strings.NewReader("site,hub_height_diff\na,abc\n"))
	require.Error(t, err)

	_, err = ReadSiteErrors(strings.NewReader(""))
	require.Error(t, err)
}

func TestWriteLedger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteLedger(&buf, []string{"a.asc", "b.asc"}))
	assert.Equal(t, "a.asc\nb.asc\n", buf.String())
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"": FormatCSV, "csv": FormatCSV, "CSV": FormatCSV, " table ": FormatTable} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xlsx")
	require.Error(t, err)
	assert.Equal(t, ".txt", FormatTable.Extension())
	assert.Equal(t, ".csv", FormatCSV.Extension())
}

func TestSummaryRoundTrip(t *testing.T) {
	t.Parallel()

	rows := sampleRows()
	sites := quality.Aggregate(rows)
	val, err := validation.Validate([]float64{1.2, -0.7, 0.4, 2.1}, -5, 5, 0.05)
	require.NoError(t, err)

	s := Summarize(rows, sites, &val, nil)
	s.RunID = "4b7f0c1e-1111-4222-8333-944455556666"
	s.Run = "test"
	s.Started = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.Elevation = ElevationSummary{TileLoads: 4, MissingTiles: []string{"x.asc"}}

	assert.Equal(t, 3, s.Turbines.Total)
	assert.Zero(t, s.Turbines.Valid)
	assert.Equal(t, 1, s.Turbines.AzimuthMismatch)
	assert.Equal(t, 1, s.Turbines.MissingLabels)
	assert.Equal(t, map[string]int{"image-missing": 1}, s.Turbines.Unmeasurable)
	assert.Nil(t, s.Turbines.MeanAbsError)
	assert.Equal(t, 2, s.Sites)
	require.NotNil(t, s.Validation)
	assert.True(t, s.Validation.WithinBand)
	require.NotNil(t, s.Validation.ShapiroW)

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, s))
	assert.Contains(t, buf.String(), "run_id: 4b7f0c1e-1111-4222-8333-944455556666")
	assert.Contains(t, buf.String(), "within_band: true")

	back, err := ReadSummary(&buf)
	require.NoError(t, err)
	assert.Equal(t, s.Turbines, back.Turbines)
	assert.Equal(t, s.Elevation, back.Elevation)
	assert.InDelta(t, s.Validation.P, back.Validation.P, 1e-12)
	assert.True(t, s.Started.Equal(back.Started))
}

func TestSummarizeValidationError(t *testing.T) {
	t.Parallel()

	_, err := validation.Validate([]float64{1}, -5, 5, 0.05)
	require.Error(t, err)

	s := Summarize(nil, nil, nil, err)
	require.NotNil(t, s.Validation)
	assert.Contains(t, s.Validation.Error, "insufficient samples")

	assert.Nil(t, Summarize(nil, nil, nil, nil).Validation)
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	log := logger.NewSlogLogger(&logs, logger.LogLevelInfo, time.UTC)
	path := filepath.Join(t.TempDir(), "results", "test_missing_tiles.txt")

	err := WriteFile(path, log, func(w io.Writer) error {
		return WriteLedger(w, []string{"tile.asc"})
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tile.asc\n", string(data))
	assert.Contains(t, logs.String(), "Output written")
}
