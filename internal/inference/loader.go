package inference

import (
	"sync"

	"moodscope/internal/artifact"
	"moodscope/internal/encoder"
	"moodscope/internal/logging"
)

// Loader provides lazy, cached engine initialization: the first caller
// triggers the artifact load, later callers reuse the built engine. A failed
// load is never cached, so a caller that retries after training completes
// gets a working engine instead of a poisoned singleton.
type Loader struct {
	dir    string
	enc    encoder.TextEncoder
	maxSeq int

	mu     sync.Mutex
	engine *Engine
}

// NewLoader creates a loader for the artifact directory. Nothing is read
// until the first Engine call.
func NewLoader(dir string, enc encoder.TextEncoder, maxSequenceLength int) *Loader {
	return &Loader{dir: dir, enc: enc, maxSeq: maxSequenceLength}
}

// Engine returns the cached engine, loading it on first use.
func (l *Loader) Engine() (*Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.engine != nil {
		return l.engine, nil
	}

	bundle, err := artifact.Load(l.dir)
	if err != nil {
		return nil, err
	}
	eng, err := NewEngine(bundle, l.enc, l.maxSeq)
	if err != nil {
		return nil, err
	}

	l.engine = eng
	logging.Inference("Inference engine initialized from %s", l.dir)
	return eng, nil
}

// Invalidate drops the cached engine. The next Engine call reloads from
// disk. In-flight Predict calls keep using the engine they already hold.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.engine != nil {
		logging.Inference("Inference engine cache invalidated for %s", l.dir)
	}
	l.engine = nil
}
