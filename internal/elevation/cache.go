package elevation

import (
	"io/fs"
	"math"
	"path"
	"time"

	"github.com/tphakala/hubheight/internal/errors"
	"github.com/tphakala/hubheight/internal/geo"
	"github.com/tphakala/hubheight/internal/logger"
)

// Tile load outcomes reported to an Observer
const (
	LoadSuccess = "success"
	LoadMissing = "missing"
	LoadError   = "error"
)

// Observer receives tile cache events, typically a metrics collector
type Observer interface {
	RecordTileLoad(status string, seconds float64)
	RecordLookup(ok bool)
}

// TileCache keeps exactly one decoded tile resident. A query needing a
// different tile replaces the slot. Missing tile files are recorded in the
// shared Ledger and answer NaN.
//
// A TileCache is not safe for concurrent use; give each worker its own.
type TileCache struct {
	index  *CoverageIndex
	tiles  fs.FS
	ledger *Ledger
	log    logger.Logger
	obs    Observer

	resident string   // filename of the slot, "" when empty
	zone     geo.Zone // projection of the resident grid
	grid     *Grid    // nil when the resident tile could not be loaded
	loads    int
	misses   int // queries not covered by any tile
}

// NewTileCache creates an empty cache reading tile files from tiles
func NewTileCache(index *CoverageIndex, tiles fs.FS, ledger *Ledger, log logger.Logger) *TileCache {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &TileCache{
		index:  index,
		tiles:  tiles,
		ledger: ledger,
		log:    log.Module("elevation"),
	}
}

// SetObserver attaches o to receive load and lookup events
func (c *TileCache) SetObserver(o Observer) {
	c.obs = o
}

// Elevation returns terrain height at a geodetic position, NaN when unknown
func (c *TileCache) Elevation(lat, lon float64) float64 {
	p, err := geo.GeodeticToProjected(lat, lon, c.index.Zone())
	if err != nil {
		c.log.Debug("Cannot project elevation query",
			logger.Float64("lat", lat),
			logger.Float64("lon", lon),
			logger.Error(err))
		return math.NaN()
	}
	return c.ElevationAt(p)
}

// ElevationAt returns terrain height at a projected position, NaN when unknown
func (c *TileCache) ElevationAt(p geo.Projected) float64 {
	v := c.elevationAt(p)
	if c.obs != nil {
		c.obs.RecordLookup(!math.IsNaN(v))
	}
	return v
}

func (c *TileCache) elevationAt(p geo.Projected) float64 {
	tile, err := c.index.Lookup(p)
	if err != nil {
		c.misses++
		c.log.Debug("No elevation tile for point",
			logger.Float64("x", p.X),
			logger.Float64("y", p.Y),
			logger.Error(err))
		return math.NaN()
	}

	if tile.File != c.resident {
		c.load(tile)
	}
	if c.grid == nil {
		return math.NaN()
	}

	if p.Zone != c.zone {
		if p, err = geo.Reproject(p, c.zone); err != nil {
			return math.NaN()
		}
	}
	return c.grid.Interpolate(p.X, p.Y)
}

// load replaces the resident tile
func (c *TileCache) load(tile Tile) {
	c.loads++
	c.resident = tile.File
	c.zone = tile.Zone
	c.grid = nil
	start := time.Now()

	f, err := c.tiles.Open(path.Clean(tile.File))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if c.ledger.Add(tile.File) {
				c.log.Warn("Elevation tile missing, terrain correction disabled for its area",
					logger.String("tile", tile.File))
			}
			c.observeLoad(LoadMissing, start)
			return
		}
		c.log.Error("Cannot open elevation tile",
			logger.String("tile", tile.File),
			logger.Error(err))
		c.observeLoad(LoadError, start)
		return
	}
	defer func() { _ = f.Close() }()

	grid, err := ParseGrid(f)
	if err != nil {
		c.log.Error("Cannot parse elevation tile",
			logger.String("tile", tile.File),
			logger.Error(err))
		c.observeLoad(LoadError, start)
		return
	}

	c.grid = grid
	c.observeLoad(LoadSuccess, start)
	c.log.Debug("Loaded elevation tile",
		logger.String("tile", tile.File),
		logger.Int("cols", grid.NCols),
		logger.Int("rows", grid.NRows),
		logger.Float64("cellsize", grid.CellSize))
}

func (c *TileCache) observeLoad(status string, start time.Time) {
	if c.obs != nil {
		c.obs.RecordTileLoad(status, time.Since(start).Seconds())
	}
}

// Loads returns how many times the slot has been replaced
func (c *TileCache) Loads() int { return c.loads }

// Resident returns the filename of the resident tile, "" when empty
func (c *TileCache) Resident() string { return c.resident }

// Uncovered returns the number of queries that fell outside every tile
func (c *TileCache) Uncovered() int { return c.misses }
