package common

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/leapstack-labs/taxonomy/internal/apiclient"
)

// SnapshotSource is the part of the API client the loader needs.
type SnapshotSource interface {
	LoadSnapshot(ctx context.Context) (apiclient.Snapshot, error)
}

// Loader fetches snapshots for the views and remembers the last good one so
// pages can keep rendering while the API is down.
type Loader struct {
	source SnapshotSource
	logger *slog.Logger

	seq atomic.Uint64

	mu      sync.RWMutex
	last    apiclient.Snapshot
	lastSeq uint64
	gens    map[string]uint64
}

// NewLoader creates a loader around source.
func NewLoader(source SnapshotSource, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		source: source,
		logger: logger,
		gens:   make(map[string]uint64),
	}
}

// Load fetches a fresh snapshot. On failure it returns the last good
// snapshot, possibly zero, together with the error.
func (l *Loader) Load(ctx context.Context) (apiclient.Snapshot, error) {
	seq := l.seq.Add(1)
	snap, err := l.source.LoadSnapshot(ctx)
	if err != nil {
		l.logger.Warn("snapshot load failed", "error", err)
		l.mu.RLock()
		defer l.mu.RUnlock()
		return l.last, err
	}

	l.mu.Lock()
	// a load that started earlier but finished later must not win
	if seq > l.lastSeq {
		l.last = snap
		l.lastSeq = seq
	}
	l.mu.Unlock()
	return snap, nil
}

// Last returns the most recent good snapshot.
func (l *Loader) Last() apiclient.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last
}

// Begin starts a new load generation for a browser session and returns it.
func (l *Loader) Begin(sid string) uint64 {
	gen := l.seq.Add(1)
	l.mu.Lock()
	l.gens[sid] = gen
	l.mu.Unlock()
	return gen
}

// Current reports whether gen is still the newest generation of sid.
// Responses from older generations are discarded by the caller.
func (l *Loader) Current(sid string, gen uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.gens[sid] == gen
}
