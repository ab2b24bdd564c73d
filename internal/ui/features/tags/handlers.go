package tags

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
	"github.com/leapstack-labs/taxonomy/pkg/stats"
)

// Handlers provides HTTP handlers for the tags feature.
type Handlers struct {
	api      TagAPI
	loader   *common.Loader
	sessions *common.Sessions
	notifier *notifier.Notifier
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(api TagAPI, loader *common.Loader, sessions *common.Sessions, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
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

// TagsPage renders the tag list with full content.
func (h *Handlers) TagsPage(w http.ResponseWriter, r *http.Request) {
	vs, sess := h.sessions.Load(r)
	if err := h.sessions.Save(w, r, sess, vs); err != nil {
		h.logger.Warn("failed to save session", "error", err)
	}

	snap, err := h.loader.Load(r.Context())
	data := views.TagsData{
		Shell:   common.NewShell("Tags", "/tags", snap, err),
		Signals: common.MarshalSignals(Signals{FilterSignals: common.SignalsFor(vs.Filter)}),
		Filter:  views.FilterBar{Spec: vs.Filter.Normalize(), Endpoint: "/tags/filter"},
		View:    buildView(vs.Filter, snap),
	}
	if err := views.Component(views.TmplTags, data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// TagsUpdates is the long-lived SSE endpoint of the tags page. Area changes
// move the usage counts, so they re-render the table too.
func (h *Handlers) TagsUpdates(w http.ResponseWriter, r *http.Request) {
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
			if !ev.Affects(notifier.KindTag, notifier.KindArea) {
				continue
			}
			h.sendView(ctx, sse, h.sessions.Current(vs.SID, vs))
		}
	}
}

// FilterSSE applies the status and search signals and patches the table.
// The tree and type chosen on other pages are kept in the session.
func (h *Handlers) FilterSSE(w http.ResponseWriter, r *http.Request) {
	var signals Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = common.SendToast(sse, "error", "Failed to read signals: "+err.Error())
		return
	}

	vs, sess := h.sessions.Load(r)
	spec := signals.Spec()
	spec.Tree = vs.Filter.Tree
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

// NewForm resets the form to create a tag.
func (h *Handlers) NewForm(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	if err := sse.MarshalAndPatchSignals(formSignals{}); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	h.patchForm(sse, "", nil, "")
}

// EditForm fills the form with an existing tag.
func (h *Handlers) EditForm(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	sse := datastar.NewSSE(w, r)

	t, err := h.api.GetTag(r.Context(), slug)
	if err != nil {
		_ = common.SendError(sse, err)
		return
	}
	if err := sse.MarshalAndPatchSignals(formFor(t)); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	h.patchForm(sse, slug, nil, "")
}

// CreateTag validates the form and creates a tag.
func (h *Handlers) CreateTag(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "")
}

// UpdateTag validates the form and updates the tag named in the path. The
// slug cannot change.
func (h *Handlers) UpdateTag(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, chi.URLParam(r, "slug"))
}

func (h *Handlers) save(w http.ResponseWriter, r *http.Request, slug string) {
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
	if slug != "" {
		in.Slug = slug
	}
	if err := in.Validate(); err != nil {
		h.patchForm(sse, slug, common.FieldErrors(err), "")
		return
	}

	var (
		t   core.Tag
		err error
	)
	if slug == "" {
		t, err = h.api.CreateTag(ctx, in)
	} else {
		t, err = h.api.UpdateTag(ctx, slug, in)
	}
	if err != nil {
		h.logger.Info("tag save rejected", "slug", in.Slug, "error", err)
		h.patchForm(sse, slug, nil, common.ErrorMessage(err))
		return
	}

	h.notifier.Broadcast(notifier.Event{Kind: notifier.KindTag, UID: t.Slug})
	msg := "Created tag " + t.Label()
	if slug != "" {
		msg = "Saved tag " + t.Label()
	}
	h.sendView(ctx, sse, h.sessions.Current(vs.SID, vs))
	_ = sse.MarshalAndPatchSignals(formSignals{})
	h.patchForm(sse, "", nil, "")
	_ = common.SendToast(sse, "success", msg)
}

// DeleteTag removes a tag and its area links.
func (h *Handlers) DeleteTag(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Deleted tag", func(ctx context.Context, slug string) error {
		return h.api.DeleteTag(ctx, slug)
	})
}

// ActivateTag sets a tag active.
func (h *Handlers) ActivateTag(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Activated tag", func(ctx context.Context, slug string) error {
		_, err := h.api.ActivateTag(ctx, slug)
		return err
	})
}

// DeactivateTag sets a tag inactive.
func (h *Handlers) DeactivateTag(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Deactivated tag", func(ctx context.Context, slug string) error {
		_, err := h.api.DeactivateTag(ctx, slug)
		return err
	})
}

func (h *Handlers) mutate(w http.ResponseWriter, r *http.Request, done string, fn func(ctx context.Context, slug string) error) {
	slug := chi.URLParam(r, "slug")
	vs, _ := h.sessions.Load(r)
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	if err := fn(ctx, slug); err != nil {
		h.logger.Info("tag action rejected", "slug", slug, "error", err)
		_ = common.SendError(sse, err)
		return
	}
	h.notifier.Broadcast(notifier.Event{Kind: notifier.KindTag, UID: slug})
	h.sendView(ctx, sse, h.sessions.Current(vs.SID, vs))
	_ = common.SendToast(sse, "success", done+" "+slug)
}

func (h *Handlers) sendView(ctx context.Context, sse *datastar.ServerSentEventGenerator, vs common.ViewState) {
	snap, err := h.loader.Load(ctx)
	if ctx.Err() != nil {
		return
	}
	h.patchView(sse, vs, snap, err)
}

func (h *Handlers) patchView(sse *datastar.ServerSentEventGenerator, vs common.ViewState, snap apiclient.Snapshot, loadErr error) {
	if err := sse.PatchElementTempl(views.Component(views.TmplTagView, buildView(vs.Filter, snap))); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if loadErr != nil {
		_ = common.SendError(sse, loadErr)
	}
}

func (h *Handlers) patchForm(sse *datastar.ServerSentEventGenerator, editing string, errs core.FieldErrors, message string) {
	form := views.TagForm{Editing: editing, Errors: errs, Message: message}
	if err := sse.PatchElementTempl(views.Component(views.TmplTagForm, form)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// buildView applies the status and search steps to the tags and counts how
// many areas carry each one. Counts cover every area, not only visible ones.
func buildView(spec core.FilterSpec, snap apiclient.Snapshot) views.TagView {
	spec.Tree = core.ScopeAll
	spec.Type = core.TypeAll
	res := filter.Flat(nil, nil, snap.Tags, spec)
	usage := stats.TagUsage(snap.Areas)

	rows := make([]views.TagRow, 0, len(res.Tags))
	for _, t := range res.Tags {
		rows = append(rows, views.TagRow{
			Slug:        t.Slug,
			DisplayName: t.Label(),
			Color:       t.Color,
			Status:      t.Status,
			Usage:       usage[t.Slug],
		})
	}
	slices.SortStableFunc(rows, func(a, b views.TagRow) int {
		return cmp.Compare(a.Slug, b.Slug)
	})
	return views.TagView{Tags: rows, Total: len(snap.Tags)}
}
