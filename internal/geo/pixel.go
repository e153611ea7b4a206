package geo

// Crop locates an image crop on the ground. Corner is the top-left corner of
// the crop; image rows grow southwards and columns eastwards.
type Crop struct {
	Corner     Projected
	Resolution float64 // metres per pixel
	Width      int     // pixels
	Height     int     // pixels
}

// PixelToGround converts normalized image coordinates in [0,1] to ground
// coordinates in the crop's projection.
func PixelToGround(pxNorm, pyNorm, cornerX, cornerY, resolution float64, widthPx, heightPx int) (groundX, groundY float64) {
	groundX = cornerX + pxNorm*float64(widthPx)*resolution
	groundY = cornerY - pyNorm*float64(heightPx)*resolution
	return groundX, groundY
}

// Ground returns the projected position of a normalized point inside the crop
func (c Crop) Ground(pxNorm, pyNorm float64) Projected {
	x, y := PixelToGround(pxNorm, pyNorm, c.Corner.X, c.Corner.Y, c.Resolution, c.Width, c.Height)
	return Projected{X: x, Y: y, Zone: c.Corner.Zone}
}

// Geodetic returns latitude/longitude of a normalized point inside the crop
func (c Crop) Geodetic(pxNorm, pyNorm float64) (lat, lon float64, err error) {
	p := c.Ground(pxNorm, pyNorm)
	return ProjectedToGeodetic(p.X, p.Y, p.Zone)
}
