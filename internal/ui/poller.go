package ui

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/leapstack-labs/taxonomy/internal/apiclient"
	"github.com/leapstack-labs/taxonomy/internal/ui/features/common"
	"github.com/leapstack-labs/taxonomy/internal/ui/notifier"
)

// poller reloads the snapshot periodically and broadcasts a refresh when the
// data changed outside the console, or when the API comes back after an
// outage.
type poller struct {
	loader   *common.Loader
	notifier *notifier.Notifier
	logger   *slog.Logger

	prev apiclient.Snapshot
	down bool
}

func newPoller(loader *common.Loader, notify *notifier.Notifier, logger *slog.Logger) *poller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &poller{loader: loader, notifier: notify, logger: logger, prev: loader.Last()}
}

func (p *poller) run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick performs one poll and reports whether a refresh was broadcast.
func (p *poller) tick(ctx context.Context) bool {
	snap, err := p.loader.Load(ctx)
	if err != nil {
		if !p.down {
			p.logger.Warn("taxonomy API unreachable", "error", err)
		}
		p.down = true
		return false
	}

	recovered := p.down
	p.down = false
	changed := !sameData(p.prev, snap)
	p.prev = snap
	if !recovered && !changed {
		return false
	}

	p.logger.Debug("taxonomy data refreshed", "recovered", recovered, "changed", changed)
	p.notifier.Broadcast(notifier.Event{Kind: notifier.KindRefresh})
	return true
}

func sameData(a, b apiclient.Snapshot) bool {
	return reflect.DeepEqual(a.Clusters, b.Clusters) &&
		reflect.DeepEqual(a.Areas, b.Areas) &&
		reflect.DeepEqual(a.Tags, b.Tags)
}
