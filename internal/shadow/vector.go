package shadow

import "math"

// Point is a normalized image position, y grows downwards
type Point struct {
	X, Y float64
}

// Vector returns the ground length in metres and the compass bearing in
// degrees of the displacement from the hub shadow tip to the turbine base.
//
// The bearing keeps its two-branch form: 90+angle east of the tip, 270+angle
// west of it, with angle = atan(dy/dx). A vertical displacement takes the
// limit of the arctangent, ±90°.
func Vector(base, tip Point, widthPx, heightPx int, resolution float64) (length, azimuth float64) {
	dx := (base.X - tip.X) * float64(widthPx) * resolution
	dy := (base.Y - tip.Y) * float64(heightPx) * resolution
	length = math.Hypot(dx, dy)

	var angle float64
	switch {
	case dx != 0:
		angle = math.Atan(dy/dx) * 180 / math.Pi
	case dy > 0:
		angle = 90
	case dy < 0:
		angle = -90
	}

	if dx >= 0 {
		azimuth = 90 + angle
	} else {
		azimuth = 270 + angle
	}

	azimuth = math.Mod(azimuth, 360)
	if azimuth < 0 {
		azimuth += 360
	}
	return length, azimuth
}
