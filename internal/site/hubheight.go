package site

import (
	"math"
	"regexp"
	"strconv"

	"github.com/tphakala/hubheight/internal/errors"
)

var numberRegex = regexp.MustCompile(`([0-9]*[.]?[0-9]+)`)

// HeightGroup is a turbine model at a site: its hub height and how many
// turbines of it the site has. Count is 0 when unknown.
type HeightGroup struct {
	Height float64
	Count  float64
}

// HubHeights lists the turbine models of a site
type HubHeights []HeightGroup

// ParseHubHeight reads tuple-valued hub height and turbine count fields such
// as "(80.0, 78.0)" and "(10, 5)". A single height needs no counts.
func ParseHubHeight(heights, counts string) (HubHeights, error) {
	hs := numbers(heights)
	cs := numbers(counts)

	out := make(HubHeights, len(hs))
	for i, h := range hs {
		out[i].Height = h
	}

	if out.leadingPairEqual() {
		if len(cs) == len(hs) {
			for i := range out {
				out[i].Count = cs[i]
			}
		}
		return out, nil
	}

	if len(cs) != len(hs) {
		return nil, errors.Newf("%d hub heights but %d turbine counts", len(hs), len(cs)).
			Component("site").
			Category(errors.CategoryConfiguration).
			Context("hub_height", heights).
			Context("num_turbines", counts).
			Build()
	}
	for i := range out {
		out[i].Count = cs[i]
	}
	return out, nil
}

func numbers(s string) []float64 {
	matches := numberRegex.FindAllString(s, -1)
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// leadingPairEqual reports a single model, or a first and second model of the
// same height. Later entries are not compared.
func (h HubHeights) leadingPairEqual() bool {
	return len(h) == 1 || (len(h) > 1 && h[0].Height == h[1].Height)
}

// Nominal returns the site's reference hub height: NaN when unknown, the
// first height when the first two models agree, otherwise the average
// weighted by turbine counts.
func (h HubHeights) Nominal() float64 {
	if len(h) == 0 {
		return math.NaN()
	}
	if h.leadingPairEqual() {
		return h[0].Height
	}

	var sum, weight float64
	for _, g := range h {
		sum += g.Height * g.Count
		weight += g.Count
	}
	if weight == 0 {
		return math.NaN()
	}
	return sum / weight
}

// Turbines returns the total turbine count, 0 when unknown
func (h HubHeights) Turbines() int {
	var n float64
	for _, g := range h {
		n += g.Count
	}
	return int(n)
}
