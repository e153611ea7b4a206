package shadow

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		base, tip   Point
		wantLength  float64
		wantAzimuth float64
	}{
		// tip straight above the base in the image: shadow cast northwards,
		// bearing matches a sun due south
		{"tip north of base", Point{0.5, 0.6}, Point{0.5, 0.4}, 32, 180},
		{"tip south of base", Point{0.5, 0.4}, Point{0.5, 0.6}, 32, 0},
		{"tip west of base", Point{0.6, 0.5}, Point{0.4, 0.5}, 32, 90},
		{"tip east of base", Point{0.4, 0.5}, Point{0.6, 0.5}, 32, 270},
		{"tip north-west of base", Point{0.6, 0.6}, Point{0.4, 0.4}, math.Hypot(32, 32), 135},
		{"tip north-east of base", Point{0.4, 0.6}, Point{0.6, 0.4}, math.Hypot(32, 32), 225},
		{"tip south-east of base", Point{0.4, 0.4}, Point{0.6, 0.6}, math.Hypot(32, 32), 315},
		{"coincident points", Point{0.5, 0.5}, Point{0.5, 0.5}, 0, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			length, azimuth := Vector(tt.base, tt.tip, 640, 640, 0.25)
			assert.InDelta(t, tt.wantLength, length, 1e-9)
			assert.InDelta(t, tt.wantAzimuth, azimuth, 1e-9)
		})
	}
}

func TestVectorAzimuthAlwaysNormalized(t *testing.T) {
	t.Parallel()

	for i := range 21 {
		for j := range 21 {
			tip := Point{float64(i) / 20, float64(j) / 20}
			_, az := Vector(Point{0.5, 0.5}, tip, 512, 384, 0.5)
			assert.GreaterOrEqual(t, az, 0.0)
			assert.Less(t, az, 360.0)
		}
	}
}

func TestVectorUsesPixelSizePerAxis(t *testing.T) {
	t.Parallel()

	length, _ := Vector(Point{0.5, 0.5}, Point{0.25, 0.25}, 400, 200, 0.5)
	assert.InDelta(t, math.Hypot(50, 25), length, 1e-9)
}
