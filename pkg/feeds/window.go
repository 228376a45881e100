package feeds

import (
	"sync"

	"github.com/sudorandom/arcmap/pkg/arcengine"
)

// DefaultWindowSize is the number of live records kept when no size is configured.
const DefaultWindowSize = 5000

// Window is a bounded buffer of the most recent live records. The oldest records are
// dropped first. It is safe for concurrent use.
type Window struct {
	mu      sync.Mutex
	size    int
	records []arcengine.RawRecord
	version uint64
}

func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{size: size}
}

// Append adds records in arrival order.
func (w *Window) Append(records ...arcengine.RawRecord) {
	if len(records) == 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(records) >= w.size {
		w.records = append(w.records[:0], records[len(records)-w.size:]...)
	} else {
		if over := len(w.records) + len(records) - w.size; over > 0 {
			w.records = append(w.records[:0], w.records[over:]...)
		}
		w.records = append(w.records, records...)
	}
	w.version++
}

// Handle is a Handler that appends every batch.
func (w *Window) Handle(_ string, records []arcengine.RawRecord) {
	w.Append(records...)
}

// Records returns a copy of the buffered records, oldest first.
func (w *Window) Records() []arcengine.RawRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]arcengine.RawRecord, len(w.records))
	copy(out, w.records)
	return out
}

func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.records)
}

// Version increases on every Append.
func (w *Window) Version() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.version
}
