// Package report writes run results: the per-turbine and per-site tables, the
// missing tile ledger and a YAML run summary.
package report

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/hubheight/internal/errors"
	"github.com/tphakala/hubheight/internal/logger"
	"github.com/tphakala/hubheight/internal/quality"
)

// Format selects the delimiter of the result tables
type Format string

const (
	FormatCSV   Format = "csv"
	FormatTable Format = "table" // tab separated
)

// ParseFormat accepts "csv", "table" or "" (csv)
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatTable:
		return FormatTable, nil
	default:
		return "", errors.Newf("unsupported output format %q", s).
			Component("report").
			Category(errors.CategoryValidation).
			Build()
	}
}

// Extension returns the file extension for the format
func (f Format) Extension() string {
	if f == FormatTable {
		return ".txt"
	}
	return ".csv"
}

func (f Format) comma() rune {
	if f == FormatTable {
		return '\t'
	}
	return ','
}

var turbineHeader = []string{
	"site", "turbine_id", "actual_hub_height", "num_bases", "num_hub_shadows",
	"estimated_hub_height", "raw_hub_height", "terrain_correction", "terrain_corrected",
	"hub_height_diff", "azimuth_diff", "shadow_azimuth", "azimuth", "shadow_length", "altitude",
	"photo_timestamp", "base_x", "base_y", "tip_x", "tip_y",
	"base_lat", "base_lon", "tip_lat", "tip_lon", "base_elevation", "tip_elevation",
	"reason", "missing_labels", "multiple_labels", "azimuth_mismatch", "good_estimate",
}

// WriteTurbines writes one row per turbine, measured or not. NaN values are
// written as empty cells.
func WriteTurbines(w io.Writer, rows []quality.Turbine, format Format) error {
	cw := csv.NewWriter(w)
	cw.Comma = format.comma()

	if err := cw.Write(turbineHeader); err != nil {
		return writeError(err, "turbines")
	}
	for i := range rows {
		r := &rows[i]
		var photo string
		if !r.PhotoTime.IsZero() {
			photo = r.PhotoTime.UTC().Format(time.RFC3339)
		}
		var baseX, baseY, tipX, tipY string
		if r.Base.Zone != 0 {
			baseX, baseY = num(r.Base.X, 2), num(r.Base.Y, 2)
			tipX, tipY = num(r.Tip.X, 2), num(r.Tip.Y, 2)
		}
		record := []string{
			r.Site,
			strconv.Itoa(r.Turbine),
			num(r.ActualHeight, -1),
			strconv.Itoa(r.Counts.Bases),
			strconv.Itoa(r.Counts.HubShadows),
			num(r.Height, 1),
			num(r.RawHeight, 1),
			num(r.Correction, 2),
			strconv.FormatBool(r.Corrected),
			num(r.Error, 1),
			num(r.AzimuthDiff, 0),
			num(r.ShadowAzimuth, 1),
			num(r.SolarAzimuth, 1),
			num(r.ShadowLength, 1),
			num(r.SolarAltitude, 1),
			photo,
			baseX, baseY, tipX, tipY,
			num(r.BaseLat, 6), num(r.BaseLon, 6), num(r.TipLat, 6), num(r.TipLon, 6),
			num(r.BaseElevation, 2), num(r.TipElevation, 2),
			string(r.Reason),
			strconv.FormatBool(r.MissingLabels),
			strconv.FormatBool(r.MultipleLabels),
			strconv.FormatBool(r.AzimuthMismatch),
			strconv.FormatBool(r.Good),
		}
		if err := cw.Write(record); err != nil {
			return writeError(err, "turbines")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return writeError(err, "turbines")
	}
	return nil
}

var siteHeader = []string{
	"site", "actual_hub_height", "estimated_hub_height", "hub_height_diff", "valid_estimates",
	"missing_labels", "multiple_labels", "azimuth_mismatch", "unmeasurable", "num_turbines",
}

// WriteSites writes the per-site aggregate table
func WriteSites(w io.Writer, sites []quality.SiteAggregate, format Format) error {
	cw := csv.NewWriter(w)
	cw.Comma = format.comma()

	if err := cw.Write(siteHeader); err != nil {
		return writeError(err, "sites")
	}
	for i := range sites {
		s := &sites[i]
		record := []string{
			s.Site,
			num(s.MeanActual, -1),
			num(s.MeanEstimated, -1),
			num(s.MeanError, -1),
			strconv.Itoa(s.Valid),
			strconv.Itoa(s.MissingLabels),
			strconv.Itoa(s.MultipleLabels),
			strconv.Itoa(s.AzimuthMismatch),
			strconv.Itoa(s.Unmeasurable),
			strconv.Itoa(s.NumTurbines),
		}
		if err := cw.Write(record); err != nil {
			return writeError(err, "sites")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return writeError(err, "sites")
	}
	return nil
}

// WriteLedger writes one missing tile filename per line
func WriteLedger(w io.Writer, files []string) error {
	for _, f := range files {
		if _, err := io.WriteString(w, f+"\n"); err != nil {
			return writeError(err, "ledger")
		}
	}
	return nil
}

// ReadSiteErrors reads the hub_height_diff column of a site table written by
// WriteSites, in either format. Empty cells are skipped.
func ReadSiteErrors(r io.Reader) ([]float64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, readError(err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	firstLine, _, _ := strings.Cut(text, "\n")

	cr := csv.NewReader(strings.NewReader(text))
	if strings.Contains(firstLine, "\t") {
		cr.Comma = '\t'
	}
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, readError(err)
	}
	if len(records) == 0 {
		return nil, readError(errors.NewStd("empty site table"))
	}

	col := -1
	for i, h := range records[0] {
		if strings.EqualFold(strings.TrimSpace(h), "hub_height_diff") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, readError(errors.NewStd("site table has no hub_height_diff column"))
	}

	var out []float64
	for line, rec := range records[1:] {
		if col >= len(rec) || strings.TrimSpace(rec[col]) == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
		if err != nil {
			return nil, errors.New(err).
				Component("report").
				Category(errors.CategoryFileParsing).
				Context("line", line+2).
				Build()
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteFile creates path, including missing directories, and hands it to write
func WriteFile(path string, log logger.Logger, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.FileError(err, dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.FileError(err, path)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.FileError(err, path)
	}

	if log != nil {
		log.Module("report").Info("Output written", logger.String("path", path))
	}
	return nil
}

// num formats v with the given decimals, -1 for the shortest exact form
func num(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	if decimals >= 0 {
		p := math.Pow10(decimals)
		v = math.Round(v*p) / p
	}
	if v == 0 {
		v = 0 // drop the sign of negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeError(err error, table string) error {
	return errors.New(err).
		Component("report").
		Category(errors.CategoryFileIO).
		Context("table", table).
		Build()
}

func readError(err error) error {
	return errors.New(err).
		Component("report").
		Category(errors.CategoryFileParsing).
		Build()
}
