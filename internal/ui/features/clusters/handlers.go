package clusters

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/taxonomy/internal/apiclient"
	"github.com/leapstack-labs/taxonomy/internal/ui/features/common"
	"github.com/leapstack-labs/taxonomy/internal/ui/notifier"
	"github.com/leapstack-labs/taxonomy/internal/ui/views"
	"github.com/leapstack-labs/taxonomy/pkg/core"
	"github.com/leapstack-labs/taxonomy/pkg/filter"
	"github.com/leapstack-labs/taxonomy/pkg/hierarchy"
)

// Handlers provides HTTP handlers for the clusters feature.
type Handlers struct {
	api      ClusterAPI
	loader   *common.Loader
	sessions *common.Sessions
	notifier *notifier.Notifier
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(api ClusterAPI, loader *common.Loader, sessions *common.Sessions, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		api:      api,
		loader:   loader,
		sessions: sessions,
		notifier: notify,
		logger:   logger,
	}
}

// ClustersPage renders the cluster tree page with full content.
func (h *Handlers) ClustersPage(w http.ResponseWriter, r *http.Request) {
	vs, sess := h.sessions.Load(r)
	if err := h.sessions.Save(w, r, sess, vs); err != nil {
		h.logger.Warn("failed to save session", "error", err)
	}

	snap, err := h.loader.Load(r.Context())
	data := views.ClustersData{
		Shell:   common.NewShell("Clusters", "/clusters", snap, err),
		Signals: common.MarshalSignals(Signals{FilterSignals: common.SignalsFor(vs.Filter)}),
		Filter:  filterBar(vs.Filter, snap),
		View:    h.buildView(vs, snap),
		Form:    buildForm(snap, "", nil, ""),
	}
	if err := views.Component(views.TmplClusters, data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ClustersUpdates is the long-lived SSE endpoint of the clusters page. It
// re-renders the tree with the browser's latest view state on every change.
func (h *Handlers) ClustersUpdates(w http.ResponseWriter, r *http.Request) {
	vs, _ := h.sessions.Load(r)
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-updates:
			if !ok {
				return
			}
			if !ev.Affects(notifier.KindCluster, notifier.KindArea, notifier.KindTag) {
				continue
			}
			h.sendView(ctx, sse, h.sessions.Current(vs.SID, vs))
		}
	}
}

// FilterSSE applies the filter bar signals, stores them in the session and
// patches the tree.
func (h *Handlers) FilterSSE(w http.ResponseWriter, r *http.Request) {
	var signals Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = common.SendToast(sse, "error", "Failed to read signals: "+err.Error())
		return
	}

	vs, sess := h.sessions.Load(r)
	spec := signals.Spec()
	if err := spec.Validate(); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = common.SendToast(sse, "error", err.Error())
		return
	}
	vs.Filter = spec
	if err := h.sessions.Save(w, r, sess, vs); err != nil {
		h.logger.Warn("failed to save session", "error", err)
	}

	gen := h.loader.Begin(vs.SID)
	sse := datastar.NewSSE(w, r)
	snap, err := h.loader.Load(r.Context())
	if !h.loader.Current(vs.SID, gen) {
		h.logger.Debug("discarding superseded load", "sid", vs.SID, "filter", spec.String())
		return
	}
	h.patchView(sse, vs, snap, err)
}

// ToggleSSE expands or collapses one tree node.
func (h *Handlers) ToggleSSE(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	vs, sess := h.sessions.Load(r)
	if vs.Collapsed[uid] {
		delete(vs.Collapsed, uid)
	} else {
		vs.Collapsed[uid] = true
	}
	if err := h.sessions.Save(w, r, sess, vs); err != nil {
		h.logger.Warn("failed to save session", "error", err)
	}

	sse := datastar.NewSSE(w, r)
	h.sendView(r.Context(), sse, vs)
}

// NewForm resets the form to create a cluster.
func (h *Handlers) NewForm(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	snap, _ := h.loader.Load(r.Context())
	if err := sse.MarshalAndPatchSignals(formSignals{}); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElementTempl(views.Component(views.TmplClusterForm, buildForm(snap, "", nil, ""))); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// EditForm fills the form with an existing cluster.
func (h *Handlers) EditForm(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	sse := datastar.NewSSE(w, r)

	c, err := h.api.GetCluster(r.Context(), uid)
	if err != nil {
		_ = common.SendError(sse, err)
		return
	}
	snap, _ := h.loader.Load(r.Context())
	if err := sse.MarshalAndPatchSignals(formFor(c)); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElementTempl(views.Component(views.TmplClusterForm, buildForm(snap, uid, nil, ""))); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// CreateCluster validates the form and creates a cluster.
func (h *Handlers) CreateCluster(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "")
}

// UpdateCluster validates the form and updates the cluster named in the path.
func (h *Handlers) UpdateCluster(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, chi.URLParam(r, "uid"))
}

func (h *Handlers) save(w http.ResponseWriter, r *http.Request, uid string) {
	var signals Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = common.SendToast(sse, "error", "Failed to read signals: "+err.Error())
		return
	}
	vs, _ := h.sessions.Load(r)
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	in := signals.Input()
	if err := in.Validate(); err != nil {
		h.patchForm(ctx, sse, uid, common.FieldErrors(err), "")
		return
	}

	var (
		c   core.Cluster
		err error
	)
	if uid == "" {
		c, err = h.api.CreateCluster(ctx, in)
	} else {
		c, err = h.api.UpdateCluster(ctx, uid, in)
	}
	if err != nil {
		h.logger.Info("cluster save rejected", "uid", uid, "error", err)
		h.patchForm(ctx, sse, uid, nil, common.ErrorMessage(err))
		return
	}

	h.notifier.Broadcast(notifier.Event{Kind: notifier.KindCluster, UID: c.UID})
	msg := "Created cluster " + c.Name
	if uid != "" {
		msg = "Saved cluster " + c.Name
	}
	h.sendView(ctx, sse, h.sessions.Current(vs.SID, vs))
	_ = sse.MarshalAndPatchSignals(formSignals{})
	h.patchForm(ctx, sse, "", nil, "")
	_ = common.SendToast(sse, "success", msg)
}

// DeleteCluster removes a cluster. The API refuses clusters with children.
func (h *Handlers) DeleteCluster(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Deleted cluster", func(ctx context.Context, uid string) error {
		return h.api.DeleteCluster(ctx, uid)
	})
}

// ActivateCluster sets a cluster active.
func (h *Handlers) ActivateCluster(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Activated cluster", func(ctx context.Context, uid string) error {
		_, err := h.api.ActivateCluster(ctx, uid)
		return err
	})
}

// DeactivateCluster sets a cluster inactive.
func (h *Handlers) DeactivateCluster(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Deactivated cluster", func(ctx context.Context, uid string) error {
		_, err := h.api.DeactivateCluster(ctx, uid)
		return err
	})
}

// MoveCluster re-parents the cluster being edited.
func (h *Handlers) MoveCluster(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	var signals Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = common.SendToast(sse, "error", "Failed to read signals: "+err.Error())
		return
	}
	vs, _ := h.sessions.Load(r)
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	c, err := h.api.MoveCluster(ctx, uid, signals.MoveParent, signals.MoveOrder.Ptr())
	if err != nil {
		h.logger.Info("cluster move rejected", "uid", uid, "parent", signals.MoveParent, "error", err)
		h.patchForm(ctx, sse, uid, nil, common.ErrorMessage(err))
		return
	}

	h.notifier.Broadcast(notifier.Event{Kind: notifier.KindCluster, UID: c.UID})
	h.sendView(ctx, sse, h.sessions.Current(vs.SID, vs))
	_ = sse.MarshalAndPatchSignals(formFor(c))
	h.patchForm(ctx, sse, uid, nil, "")
	_ = common.SendToast(sse, "success", "Moved cluster "+c.Name)
}

// mutate runs a row action and refreshes the tree, or reports the API error.
func (h *Handlers) mutate(w http.ResponseWriter, r *http.Request, done string, fn func(ctx context.Context, uid string) error) {
	uid := chi.URLParam(r, "uid")
	vs, _ := h.sessions.Load(r)
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	if err := fn(ctx, uid); err != nil {
		h.logger.Info("cluster action rejected", "uid", uid, "error", err)
		_ = common.SendError(sse, err)
		return
	}
	h.notifier.Broadcast(notifier.Event{Kind: notifier.KindCluster, UID: uid})
	_ = common.SendToast(sse, "success", done+" "+uid)
	h.sendView(ctx, sse, h.sessions.Current(vs.SID, vs))
}

func (h *Handlers) sendView(ctx context.Context, sse *datastar.ServerSentEventGenerator, vs common.ViewState) {
	snap, err := h.loader.Load(ctx)
	if ctx.Err() != nil {
		return
	}
	h.patchView(sse, vs, snap, err)
}

// patchView patches the tree, then reports a load error as a toast. The
// tree shows the last good snapshot when the load failed.
func (h *Handlers) patchView(sse *datastar.ServerSentEventGenerator, vs common.ViewState, snap apiclient.Snapshot, loadErr error) {
	if err := sse.PatchElementTempl(views.Component(views.TmplClusterView, h.buildView(vs, snap))); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if loadErr != nil {
		_ = common.SendError(sse, loadErr)
	}
}

func (h *Handlers) patchForm(ctx context.Context, sse *datastar.ServerSentEventGenerator, editing string, errs core.FieldErrors, message string) {
	snap := h.loader.Last()
	if snap.IsZero() {
		snap, _ = h.loader.Load(ctx)
	}
	if err := sse.PatchElementTempl(views.Component(views.TmplClusterForm, buildForm(snap, editing, errs, message))); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// buildView runs the filter, builds the forest and flattens it into rows.
func (h *Handlers) buildView(vs common.ViewState, snap apiclient.Snapshot) views.ClusterView {
	res := filter.Flat(snap.Clusters, snap.Areas, snap.Tags, vs.Filter)
	clusters := res.Clusters
	if vs.Filter.Normalize().Search != "" {
		// matches stay reachable from their root
		clusters = filter.WithAncestors(snap.Clusters, clusters)
	}
	dropped := hierarchy.Dropped(clusters)
	if len(dropped) > 0 {
		uids := make([]string, 0, len(dropped))
		for _, d := range dropped {
			uids = append(uids, d.Cluster.UID)
		}
		h.logger.Warn("clusters dropped from tree", "count", len(dropped), "uids", uids, "filter", vs.Filter.String())
	}

	rows := common.BuildTreeRows(clusters, res.Areas, common.TagIndex(snap.Tags), vs.Collapsed)
	return views.ClusterView{
		Rows:    rows,
		Total:   len(snap.Clusters),
		Shown:   len(clusters) - len(dropped),
		Dropped: len(dropped),
	}
}

func filterBar(spec core.FilterSpec, snap apiclient.Snapshot) views.FilterBar {
	return views.FilterBar{
		Spec:     spec.Normalize(),
		Trees:    common.TreeOptions(snap.Trees(), spec.Tree),
		Endpoint: "/clusters/filter",
		ShowTree: true,
		ShowType: true,
	}
}

// buildForm lists candidate parents. When editing, the cluster and its
// descendants are excluded since the API rejects cycles.
func buildForm(snap apiclient.Snapshot, editing string, errs core.FieldErrors, message string) views.ClusterForm {
	var exclude map[string]bool
	if editing != "" {
		exclude = hierarchy.Descendants(snap.Clusters, editing)
	}
	return views.ClusterForm{
		Editing: editing,
		Parents: common.ClusterOptions(snap.Clusters, "", exclude),
		Errors:  errs,
		Message: message,
	}
}
