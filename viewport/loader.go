package viewport

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

type loadState int

const (
	loadIdle loadState = iota
	loadDone
	loadFailed
)

// Loader loads an external dependency at most once per process lifetime.
// Concurrent callers share the in-flight load. A failure is final: the
// dependent visual simply stays unrendered.
type Loader struct {
	load   func(ctx context.Context) error
	logger *slog.Logger
	group  singleflight.Group

	mu    sync.Mutex
	state loadState
}

// NewLoader wraps load. logger may be nil.
func NewLoader(load func(ctx context.Context) error, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{load: load, logger: logger}
}

// Do makes sure the dependency is loaded and then calls then. It blocks
// while a load is in flight and returns false, without calling then, if
// the load failed now or earlier.
func (l *Loader) Do(ctx context.Context, then func()) bool {
	switch l.current() {
	case loadDone:
		then()
		return true
	case loadFailed:
		return false
	}

	_, err, _ := l.group.Do("load", func() (any, error) {
		// A flight that finished just before this one started already
		// settled the state.
		switch l.current() {
		case loadDone:
			return nil, nil
		case loadFailed:
			return nil, errLoadFailed
		}

		err := l.load(ctx)

		l.mu.Lock()
		if err != nil {
			l.state = loadFailed
		} else {
			l.state = loadDone
		}
		l.mu.Unlock()

		if err != nil {
			l.logger.Warn("viewport: dependency load failed", "error", err)
		}
		return nil, err
	})
	if err != nil {
		return false
	}

	then()
	return true
}

// Loaded reports whether the dependency is available.
func (l *Loader) Loaded() bool { return l.current() == loadDone }

func (l *Loader) current() loadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

var errLoadFailed = errors.New("viewport: dependency load failed earlier")
