package imagery

import (
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io/fs"
	"path"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/tphakala/hubheight/internal/errors"
)

// imageExtensions are the crop image formats searched for, in preference order
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".webp"}

// Locator finds turbine crop images named <site>_<turbine>.<ext> anywhere
// below its root. The tree is indexed once; lookups are safe for concurrent use.
type Locator struct {
	fsys  fs.FS
	files map[string]string // "<site>_<turbine>" -> path

	mu   sync.RWMutex
	dims map[string]Dimensions
}

// Dimensions is an image size in pixels
type Dimensions struct {
	Width  int
	Height int
}

// NewLocator walks fsys and indexes every crop image
func NewLocator(fsys fs.FS) (*Locator, error) {
	l := &Locator{
		fsys:  fsys,
		files: make(map[string]string),
		dims:  make(map[string]Dimensions),
	}

	rank := func(ext string) int {
		for i, e := range imageExtensions {
			if e == ext {
				return i
			}
		}
		return -1
	}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(path.Ext(p))
		r := rank(ext)
		if r < 0 {
			return nil
		}
		stem := strings.TrimSuffix(path.Base(p), path.Ext(p))
		if prev, ok := l.files[stem]; ok {
			prevRank := rank(strings.ToLower(path.Ext(prev)))
			if prevRank < r || (prevRank == r && prev < p) {
				return nil
			}
		}
		l.files[stem] = p
		return nil
	})
	if err != nil {
		return nil, errors.New(err).
			Component("imagery").
			Category(errors.CategoryFileIO).
			Build()
	}
	return l, nil
}

// Find returns the path of a turbine's crop image
func (l *Locator) Find(site string, turbine int) (string, bool) {
	p, ok := l.files[fmt.Sprintf("%s_%d", site, turbine)]
	return p, ok
}

// Len returns the number of indexed images
func (l *Locator) Len() int { return len(l.files) }

// Dimensions reads the pixel size of an image from its header. Results are
// cached by path.
func (l *Locator) Dimensions(p string) (Dimensions, error) {
	l.mu.RLock()
	d, ok := l.dims[p]
	l.mu.RUnlock()
	if ok {
		return d, nil
	}

	d, err := ReadDimensions(l.fsys, p)
	if err != nil {
		return Dimensions{}, err
	}

	l.mu.Lock()
	l.dims[p] = d
	l.mu.Unlock()
	return d, nil
}

// ReadDimensions decodes only the image header of p
func ReadDimensions(fsys fs.FS, p string) (Dimensions, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return Dimensions{}, errors.New(err).
			Component("imagery").
			Category(errors.CategoryDataUnavailable).
			FileContext(p).
			Build()
	}
	defer func() { _ = f.Close() }()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Dimensions{}, errors.New(err).
			Component("imagery").
			Category(errors.CategoryFileParsing).
			FileContext(p).
			Build()
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Dimensions{}, errors.Newf("%s image has no pixels", format).
			Component("imagery").
			Category(errors.CategoryFileParsing).
			FileContext(p).
			Build()
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}
