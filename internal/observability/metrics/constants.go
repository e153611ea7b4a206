package metrics

// Operation names
const (
	OpEstimate     = "estimate"
	OpLoadLabels   = "load_labels"
	OpLocateImage  = "locate_image"
	OpSunPosition  = "sun_position"
	OpSunEvents    = "sun_events"
	OpTileLoad     = "tile_load"
	OpElevation    = "elevation_lookup"
	OpWriteReports = "write_reports"
)

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusNaN     = "nan"
	StatusMissing = "missing"
	StatusHit     = "hit"
	StatusMiss    = "miss"
)

// Histogram bucket parameters
const (
	// BucketStart100us is the starting bucket for 0.1ms histograms (0.1ms to ~400ms range).
	BucketStart100us = 0.0001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01
	// BucketFactor2 is the exponential growth factor of 2.
	BucketFactor2 = 2
	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12

	// BucketErrorWidth is the width in metres of each absolute error bucket.
	BucketErrorWidth = 1.0
	// BucketErrorCount covers absolute errors from 0 to 20 m.
	BucketErrorCount = 21
)
