package graph

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/taxonomy/internal/ui/features/common"
	"github.com/leapstack-labs/taxonomy/internal/ui/notifier"
	"github.com/leapstack-labs/taxonomy/internal/ui/views"
)

const reloadScript = "document.dispatchEvent(new Event('graph:reload'))"

// Handlers provides HTTP handlers for the graph feature.
type Handlers struct {
	loader   *common.Loader
	sessions *common.Sessions
	notifier *notifier.Notifier
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(loader *common.Loader, sessions *common.Sessions, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		loader:   loader,
		sessions: sessions,
		notifier: notify,
		logger:   logger,
	}
}

// GraphPage renders the graph page. The graph itself is fetched by the
// browser from /graph/data.
func (h *Handlers) GraphPage(w http.ResponseWriter, r *http.Request) {
	vs, sess := h.sessions.Load(r)
	if err := h.sessions.Save(w, r, sess, vs); err != nil {
		h.logger.Warn("failed to save session", "error", err)
	}

	snap, err := h.loader.Load(r.Context())
	data := views.GraphData{
		Shell:   common.NewShell("Graph", "/graph", snap, err),
		Signals: common.MarshalSignals(common.SignalsFor(vs.Filter)),
		Filter: views.FilterBar{
			Spec:     vs.Filter.Normalize(),
			Trees:    common.TreeOptions(snap.Trees(), vs.Filter.Tree),
			Endpoint: "/graph/filter",
			ShowTree: true,
			ShowType: true,
		},
	}
	if err := views.Component(views.TmplGraph, data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GraphData serves the filtered graph as JSON. The last good snapshot is
// served while the API is down; with no snapshot at all it fails with 502.
func (h *Handlers) GraphData(w http.ResponseWriter, r *http.Request) {
	vs, _ := h.sessions.Load(r)

	snap, err := h.loader.Load(r.Context())
	if err != nil && snap.IsZero() {
		h.logger.Warn("graph data unavailable", "error", err)
		http.Error(w, common.ErrorMessage(err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(buildGraph(vs.Filter, snap)); err != nil {
		h.logger.Debug("failed to write graph data", "error", err)
	}
}

// GraphUpdates tells the page to refetch the graph whenever the taxonomy
// changes.
func (h *Handlers) GraphUpdates(w http.ResponseWriter, r *http.Request) {
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
			if err := sse.ExecuteScript(reloadScript); err != nil {
				return
			}
		}
	}
}

// FilterSSE stores the filter bar signals and asks the page to refetch.
func (h *Handlers) FilterSSE(w http.ResponseWriter, r *http.Request) {
	var signals common.FilterSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = common.SendToast(sse, "error", "Failed to read signals: "+err.Error())
		return
	}

	spec := signals.Spec()
	if err := spec.Validate(); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = common.SendToast(sse, "error", err.Error())
		return
	}
	vs, sess := h.sessions.Load(r)
	vs.Filter = spec
	if err := h.sessions.Save(w, r, sess, vs); err != nil {
		h.logger.Warn("failed to save session", "error", err)
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.ExecuteScript(reloadScript); err != nil {
		_ = sse.ConsoleError(err)
	}
}
