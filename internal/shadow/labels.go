// Package shadow reads detector label files and turns a turbine base and its
// hub shadow tip into a ground shadow vector.
package shadow

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tphakala/hubheight/internal/errors"
)

// Class is the detector class tag of a bounding box
type Class int

const (
	ClassBase      Class = 0 // turbine base
	ClassHubShadow Class = 1 // shadow of the hub
)

// Detection is one predicted bounding box. Coordinates are normalized to [0,1].
type Detection struct {
	Class         Class
	X, Y          float64 // box centre
	Width, Height float64
	Confidence    float64 // NaN when the label file has no confidence column
}

// ParseLabels reads whitespace-separated rows of
// "class centerX centerY width height [confidence]".
func ParseLabels(r io.Reader) ([]Detection, error) {
	var dets []Detection

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 5 || len(fields) > 6 {
			return nil, labelError(line, fmt.Errorf("expected 5 or 6 columns, got %d", len(fields)))
		}

		values := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, labelError(line, err)
			}
			values[i] = v
		}
		if values[0] != math.Trunc(values[0]) {
			return nil, labelError(line, fmt.Errorf("class %q is not an integer", fields[0]))
		}

		d := Detection{
			Class:      Class(values[0]),
			X:          values[1],
			Y:          values[2],
			Width:      values[3],
			Height:     values[4],
			Confidence: math.NaN(),
		}
		if len(values) == 6 {
			d.Confidence = values[5]
		}
		dets = append(dets, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(err).
			Component("shadow").
			Category(errors.CategoryFileIO).
			Build()
	}

	return dets, nil
}

func labelError(line int, err error) error {
	return errors.New(err).
		Component("shadow").
		Category(errors.CategoryFileParsing).
		Context("line", line).
		Build()
}

// Counts tallies detections per class
type Counts struct {
	Bases      int
	HubShadows int
}

// Total returns the number of base and hub shadow detections
func (c Counts) Total() int { return c.Bases + c.HubShadows }

// Measurable reports whether there is exactly one of each class
func (c Counts) Measurable() bool { return c.Bases == 1 && c.HubShadows == 1 }

// Count tallies base and hub shadow detections, other classes are ignored
func Count(dets []Detection) Counts {
	var c Counts
	for _, d := range dets {
		switch d.Class {
		case ClassBase:
			c.Bases++
		case ClassHubShadow:
			c.HubShadows++
		}
	}
	return c
}

// Best returns the most confident detection of a class. Without confidences
// the first row wins, matching the detector's confidence-descending output.
func Best(dets []Detection, class Class) (Detection, bool) {
	var best Detection
	found := false
	for _, d := range dets {
		if d.Class != class {
			continue
		}
		if !found || (!math.IsNaN(d.Confidence) && (math.IsNaN(best.Confidence) || d.Confidence > best.Confidence)) {
			best = d
			found = true
		}
	}
	return best, found
}

var labelNameRegex = regexp.MustCompile(`_(\d+)(?:_|\.|$)`)

// ParseLabelName splits a label filename such as "becerril_12_png.txt" or
// "becerril_12.txt" into site and turbine number.
func ParseLabelName(name string) (site string, turbine int, err error) {
	m := labelNameRegex.FindStringSubmatchIndex(name)
	if m == nil || m[0] == 0 {
		return "", 0, errors.Newf("label file name %q has no <site>_<turbine> prefix", name).
			Component("shadow").
			Category(errors.CategoryConfiguration).
			Build()
	}

	turbine, err = strconv.Atoi(name[m[2]:m[3]])
	if err != nil {
		return "", 0, errors.New(err).
			Component("shadow").
			Category(errors.CategoryConfiguration).
			Context("file", name).
			Build()
	}
	return name[:m[0]], turbine, nil
}
