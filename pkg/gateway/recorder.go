package gateway

import (
	"sort"
	"sync"
	"time"
)

// Recording is the last raw response seen for a path, kept for diagnostic
// export.
type Recording struct {
	Method string    `json:"method"`
	Path   string    `json:"path"`
	URL    string    `json:"url"`
	Status int       `json:"status"`
	Body   string    `json:"body"`
	Time   time.Time `json:"time"`
}

// Recorder keeps the most recent raw response per path.
type Recorder struct {
	mu     sync.Mutex
	latest map[string]Recording
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		latest: make(map[string]Recording),
	}
}

func (r *Recorder) record(rec Recording) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest[rec.Method+" "+rec.Path] = rec
}

// Latest returns the recordings ordered by path.
func (r *Recorder) Latest() []Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recording, 0, len(r.latest))
	for _, rec := range r.latest {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Method < out[j].Method
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Reset forgets every recording.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = make(map[string]Recording)
}
