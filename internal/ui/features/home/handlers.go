package home

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/taxonomy/internal/ui/features/common"
	"github.com/leapstack-labs/taxonomy/internal/ui/notifier"
	"github.com/leapstack-labs/taxonomy/internal/ui/views"
	"github.com/leapstack-labs/taxonomy/pkg/stats"
)

// Handlers provides HTTP handlers for the home feature.
type Handlers struct {
	loader   *common.Loader
	health   HealthSource
	notifier *notifier.Notifier
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(loader *common.Loader, health HealthSource, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		loader:   loader,
		health:   health,
		notifier: notify,
		logger:   logger,
	}
}

// HomePage renders the dashboard with full content.
func (h *Handlers) HomePage(w http.ResponseWriter, r *http.Request) {
	data := h.buildDashboardData(r.Context())
	if err := views.Component(views.TmplHome, data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HomePageUpdates is the long-lived SSE endpoint for the dashboard.
// It sends nothing initially; the page is already rendered by HomePage.
func (h *Handlers) HomePageUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			if err := h.sendDashboard(ctx, sse); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

func (h *Handlers) sendDashboard(ctx context.Context, sse *datastar.ServerSentEventGenerator) error {
	data := h.buildDashboardData(ctx)
	if err := sse.PatchElementTempl(views.Component(views.TmplDashboard, data)); err != nil {
		return err
	}
	if len(data.Toasts) > 0 {
		return sse.PatchElementTempl(views.Component(views.TmplToasts, data.Shell))
	}
	return nil
}

// buildDashboardData assembles the summary cards, the tag cloud and the
// health badge. API failures degrade to the last good snapshot.
func (h *Handlers) buildDashboardData(ctx context.Context) views.HomeData {
	snap, err := h.loader.Load(ctx)
	data := views.HomeData{
		Shell:   common.NewShell("Dashboard", "/", snap, err),
		Summary: stats.Summarize(snap.Clusters, snap.Areas, snap.Tags),
		Cloud:   stats.TagCloud(snap.Clusters, snap.Areas, snap.Tags),
		Health:  h.healthBadge(ctx),
	}
	if len(data.Cloud) > cloudSize {
		data.Cloud = data.Cloud[:cloudSize]
	}
	if data.Summary.Unreachable > 0 {
		h.logger.Warn("clusters not reachable from a root", "count", data.Summary.Unreachable)
	}
	return data
}

func (h *Handlers) healthBadge(ctx context.Context) views.HealthBadge {
	report, err := h.health.Health(ctx)
	if err != nil {
		h.logger.Debug("health check failed", "error", err)
		return views.HealthBadge{Label: "API unreachable"}
	}
	badge := views.HealthBadge{OK: report.Healthy(), Label: "API " + report.Status, Version: report.Version}
	return badge
}
