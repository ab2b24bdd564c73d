package areas

import (
	"cmp"
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/taxonomy/internal/apiclient"
	"github.com/leapstack-labs/taxonomy/internal/ui/features/common"
	"github.com/leapstack-labs/taxonomy/internal/ui/notifier"
	"github.com/leapstack-labs/taxonomy/internal/ui/views"
	"github.com/leapstack-labs/taxonomy/pkg/core"
	"github.com/leapstack-labs/taxonomy/pkg/filter"
)

// Handlers provides HTTP handlers for the areas feature.
type Handlers struct {
	api      AreaAPI
	loader   *common.Loader
	sessions *common.Sessions
	notifier *notifier.Notifier
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(api AreaAPI, loader *common.Loader, sessions *common.Sessions, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
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

// AreasPage renders the area list with full content.
func (h *Handlers) AreasPage(w http.ResponseWriter, r *http.Request) {
	vs, sess := h.sessions.Load(r)
	if err := h.sessions.Save(w, r, sess, vs); err != nil {
		h.logger.Warn("failed to save session", "error", err)
	}

	snap, err := h.loader.Load(r.Context())
	data := views.AreasData{
		Shell:   common.NewShell("Areas", "/areas", snap, err),
		Signals: common.MarshalSignals(Signals{FilterSignals: common.SignalsFor(vs.Filter)}),
		Filter: views.FilterBar{
			Spec:     vs.Filter.Normalize(),
			Trees:    common.TreeOptions(snap.Trees(), vs.Filter.Tree),
			Endpoint: "/areas/filter",
			ShowTree: true,
		},
		View: buildView(vs.Filter, snap),
		Form: buildForm(snap, "", nil, ""),
	}
	if err := views.Component(views.TmplAreas, data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// AreasUpdates is the long-lived SSE endpoint of the areas page.
func (h *Handlers) AreasUpdates(w http.ResponseWriter, r *http.Request) {
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
			if !ev.Affects(notifier.KindArea, notifier.KindCluster, notifier.KindTag) {
				continue
			}
			h.sendView(ctx, sse, h.sessions.Current(vs.SID, vs))
		}
	}
}

// FilterSSE applies the filter bar signals and patches the list.
func (h *Handlers) FilterSSE(w http.ResponseWriter, r *http.Request) {
	var signals Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = common.SendToast(sse, "error", "Failed to read signals: "+err.Error())
		return
	}

	vs, sess := h.sessions.Load(r)
	spec := signals.Spec()
	// the areas page has no type select; keep the one chosen elsewhere
	spec.Type = vs.Filter.Type
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

// NewForm resets the form to create an area.
func (h *Handlers) NewForm(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	if err := sse.MarshalAndPatchSignals(formSignals{}); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	h.patchForm(r.Context(), sse, "", nil, "")
}

// EditForm fills the form with an existing area.
func (h *Handlers) EditForm(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	sse := datastar.NewSSE(w, r)

	a, err := h.api.GetArea(r.Context(), uid)
	if err != nil {
		_ = common.SendError(sse, err)
		return
	}
	if err := sse.MarshalAndPatchSignals(formFor(a)); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	h.patchForm(r.Context(), sse, uid, nil, "")
}

// CreateArea validates the form and creates an area.
func (h *Handlers) CreateArea(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "")
}

// UpdateArea validates the form and updates the area named in the path.
func (h *Handlers) UpdateArea(w http.ResponseWriter, r *http.Request) {
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
		a   core.Area
		err error
	)
	if uid == "" {
		a, err = h.api.CreateArea(ctx, in)
	} else {
		a, err = h.api.UpdateArea(ctx, uid, in)
	}
	if err != nil {
		h.logger.Info("area save rejected", "uid", uid, "error", err)
		h.patchForm(ctx, sse, uid, nil, common.ErrorMessage(err))
		return
	}

	h.notifier.Broadcast(notifier.Event{Kind: notifier.KindArea, UID: a.UID})
	msg := "Created area " + a.Name
	if uid != "" {
		msg = "Saved area " + a.Name
	}
	h.sendView(ctx, sse, h.sessions.Current(vs.SID, vs))
	_ = sse.MarshalAndPatchSignals(formSignals{})
	h.patchForm(ctx, sse, "", nil, "")
	_ = common.SendToast(sse, "success", msg)
}

// TagArea adds the slugs of the tag form to the area being edited.
func (h *Handlers) TagArea(w http.ResponseWriter, r *http.Request) {
	h.retag(w, r, h.api.TagArea, "Tagged area ")
}

// UntagArea removes the slugs of the tag form from the area being edited.
func (h *Handlers) UntagArea(w http.ResponseWriter, r *http.Request) {
	h.retag(w, r, h.api.UntagArea, "Untagged area ")
}

func (h *Handlers) retag(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, []string) (core.Area, error), done string) {
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

	req := core.TagRequest{AreaUID: uid, TagSlugs: common.SplitSlugs(signals.TagSlugs)}
	if err := req.Validate(); err != nil {
		h.patchForm(ctx, sse, uid, common.FieldErrors(err), "")
		return
	}
	a, err := fn(ctx, uid, req.TagSlugs)
	if err != nil {
		h.logger.Info("area tagging rejected", "uid", uid, "tags", req.TagSlugs, "error", err)
		h.patchForm(ctx, sse, uid, nil, common.ErrorMessage(err))
		return
	}

	h.notifier.Broadcast(notifier.Event{Kind: notifier.KindArea, UID: a.UID})
	h.sendView(ctx, sse, h.sessions.Current(vs.SID, vs))
	_ = sse.MarshalAndPatchSignals(formFor(a))
	h.patchForm(ctx, sse, uid, nil, "")
	_ = common.SendToast(sse, "success", done+a.Name)
}

// DeleteArea removes an area.
func (h *Handlers) DeleteArea(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Deleted area", func(ctx context.Context, uid string) error {
		return h.api.DeleteArea(ctx, uid)
	})
}

// ActivateArea sets an area active.
func (h *Handlers) ActivateArea(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Activated area", func(ctx context.Context, uid string) error {
		_, err := h.api.ActivateArea(ctx, uid)
		return err
	})
}

// DeactivateArea sets an area inactive.
func (h *Handlers) DeactivateArea(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Deactivated area", func(ctx context.Context, uid string) error {
		_, err := h.api.DeactivateArea(ctx, uid)
		return err
	})
}

func (h *Handlers) mutate(w http.ResponseWriter, r *http.Request, done string, fn func(ctx context.Context, uid string) error) {
	uid := chi.URLParam(r, "uid")
	vs, _ := h.sessions.Load(r)
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	if err := fn(ctx, uid); err != nil {
		h.logger.Info("area action rejected", "uid", uid, "error", err)
		_ = common.SendError(sse, err)
		return
	}
	h.notifier.Broadcast(notifier.Event{Kind: notifier.KindArea, UID: uid})
	h.sendView(ctx, sse, h.sessions.Current(vs.SID, vs))
	_ = common.SendToast(sse, "success", done+" "+uid)
}

func (h *Handlers) sendView(ctx context.Context, sse *datastar.ServerSentEventGenerator, vs common.ViewState) {
	snap, err := h.loader.Load(ctx)
	if ctx.Err() != nil {
		return
	}
	h.patchView(sse, vs, snap, err)
}

func (h *Handlers) patchView(sse *datastar.ServerSentEventGenerator, vs common.ViewState, snap apiclient.Snapshot, loadErr error) {
	if err := sse.PatchElementTempl(views.Component(views.TmplAreaView, buildView(vs.Filter, snap))); err != nil {
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
	if err := sse.PatchElementTempl(views.Component(views.TmplAreaForm, buildForm(snap, editing, errs, message))); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// buildView filters the snapshot and lists the surviving areas grouped by
// cluster path. The type step does not apply to this list.
func buildView(spec core.FilterSpec, snap apiclient.Snapshot) views.AreaView {
	spec.Type = core.TypeAll
	res := filter.Flat(snap.Clusters, snap.Areas, snap.Tags, spec)

	paths := make(map[string]string, len(snap.Clusters))
	for _, c := range snap.Clusters {
		paths[c.UID] = c.Path
		if c.Path == "" {
			paths[c.UID] = c.Name
		}
	}
	tags := common.TagIndex(snap.Tags)

	rows := make([]views.AreaRow, 0, len(res.Areas))
	for _, a := range res.Areas {
		rows = append(rows, views.AreaRow{
			UID:         a.UID,
			Name:        a.Name,
			Description: a.Description,
			ClusterUID:  a.ClusterUID,
			ClusterPath: paths[a.ClusterUID],
			SortOrder:   a.SortOrder,
			Status:      a.Status,
			Tags:        common.Chips(a.Tags, tags),
		})
	}
	slices.SortStableFunc(rows, func(a, b views.AreaRow) int {
		if c := cmp.Compare(a.ClusterPath, b.ClusterPath); c != 0 {
			return c
		}
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})
	return views.AreaView{Areas: rows, Total: len(snap.Areas)}
}

func buildForm(snap apiclient.Snapshot, editing string, errs core.FieldErrors, message string) views.AreaForm {
	tags := make([]views.Option, 0, len(snap.Tags))
	for _, t := range snap.Tags {
		if t.Status.IsActive() {
			tags = append(tags, views.Option{Value: t.Slug, Label: t.Label()})
		}
	}
	return views.AreaForm{
		Editing:  editing,
		Clusters: common.ClusterOptions(snap.Clusters, "", nil),
		Tags:     tags,
		Errors:   errs,
		Message:  message,
	}
}
