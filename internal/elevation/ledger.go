package elevation

import (
	"slices"
	"sync"
)

// Ledger records tile files that could not be found. It is shared by all
// workers of a run and safe for concurrent use.
type Ledger struct {
	mu    sync.Mutex
	files map[string]struct{}
}

// NewLedger returns an empty ledger
func NewLedger() *Ledger {
	return &Ledger{files: make(map[string]struct{})}
}

// Add records a missing file and reports whether it was new
func (l *Ledger) Add(file string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.files[file]; ok {
		return false
	}
	l.files[file] = struct{}{}
	return true
}

// List returns the recorded files sorted by name
func (l *Ledger) List() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.files))
	for f := range l.files {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of distinct missing files
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.files)
}
