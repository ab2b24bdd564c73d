package mockapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// Handlers provides the HTTP handlers of the mock API.
type Handlers struct {
	store   Store
	logger  *slog.Logger
	version string
	now     func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store Store, logger *slog.Logger, version string) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		store:   store,
		logger:  logger,
		version: version,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create bodies may carry a client-chosen uid.
type clusterBody struct {
	UID string `json:"uid,omitempty"`
	core.ClusterInput
}

type areaBody struct {
	UID string `json:"uid,omitempty"`
	core.AreaInput
}

// Clusters

func (h *Handlers) ListClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := h.store.ListClusters(r.Context(), core.ParseListOptions(r.URL.Query()))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	ok(w, clusters)
}

func (h *Handlers) GetCluster(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetCluster(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	ok(w, c)
}

func (h *Handlers) CreateCluster(w http.ResponseWriter, r *http.Request) {
	var body clusterBody
	if err := decode(r, &body); err != nil {
		h.badRequest(w, err)
		return
	}
	c, err := h.store.CreateCluster(r.Context(), body.UID, body.ClusterInput)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	created(w, c)
}

func (h *Handlers) UpdateCluster(w http.ResponseWriter, r *http.Request) {
	var in core.ClusterInput
	if err := decode(r, &in); err != nil {
		h.badRequest(w, err)
		return
	}
	c, err := h.store.UpdateCluster(r.Context(), chi.URLParam(r, "uid"), in)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	ok(w, c)
}

func (h *Handlers) DeleteCluster(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteCluster(r.Context(), chi.URLParam(r, "uid")); err != nil {
		h.storeError(w, r, err)
		return
	}
	ok(w, nil)
}

func (h *Handlers) setClusterStatus(status core.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := h.store.SetClusterStatus(r.Context(), chi.URLParam(r, "uid"), status)
		if err != nil {
			h.storeError(w, r, err)
			return
		}
		ok(w, c)
	}
}

func (h *Handlers) MoveCluster(w http.ResponseWriter, r *http.Request) {
	var req core.MoveRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	c, err := h.store.MoveCluster(r.Context(), chi.URLParam(r, "uid"), req.NewParentUID, req.SortOrder)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	ok(w, c)
}

// Areas

func (h *Handlers) ListAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.store.ListAreas(r.Context(), core.ParseListOptions(r.URL.Query()))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	ok(w, areas)
}

func (h *Handlers) GetArea(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.GetArea(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	ok(w, a)
}

func (h *Handlers) CreateArea(w http.ResponseWriter, r *http.Request) {
	var body areaBody
	if err := decode(r, &body); err != nil {
		h.badRequest(w, err)
		return
	}
	a, err := h.store.CreateArea(r.Context(), body.UID, body.AreaInput)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	created(w, a)
}

func (h *Handlers) UpdateArea(w http.ResponseWriter, r *http.Request) {
	var in core.AreaInput
	if err := decode(r, &in); err != nil {
		h.badRequest(w, err)
		return
	}
	a, err := h.store.UpdateArea(r.Context(), chi.URLParam(r, "uid"), in)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	ok(w, a)
}

func (h *Handlers) DeleteArea(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteArea(r.Context(), chi.URLParam(r, "uid")); err != nil {
		h.storeError(w, r, err)
		return
	}
	ok(w, nil)
}

func (h *Handlers) setAreaStatus(status core.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := h.store.SetAreaStatus(r.Context(), chi.URLParam(r, "uid"), status)
		if err != nil {
			h.storeError(w, r, err)
			return
		}
		ok(w, a)
	}
}

func (h *Handlers) TagArea(w http.ResponseWriter, r *http.Request) {
	var req core.TagRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	a, err := h.store.TagArea(r.Context(), req)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	ok(w, a)
}

func (h *Handlers) UntagArea(w http.ResponseWriter, r *http.Request) {
	var req core.TagRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	a, err := h.store.UntagArea(r.Context(), req)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	ok(w, a)
}

// Tags

func (h *Handlers) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.ListTags(r.Context(), core.ParseListOptions(r.URL.Query()))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	ok(w, tags)
}

func (h *Handlers) GetTag(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.GetTag(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	ok(w, t)
}

func (h *Handlers) CreateTag(w http.ResponseWriter, r *http.Request) {
	var in core.TagInput
	if err := decode(r, &in); err != nil {
		h.badRequest(w, err)
		return
	}
	t, err := h.store.CreateTag(r.Context(), in)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	created(w, t)
}

func (h *Handlers) UpdateTag(w http.ResponseWriter, r *http.Request) {
	var in core.TagInput
	if err := decode(r, &in); err != nil {
		h.badRequest(w, err)
		return
	}
	t, err := h.store.UpdateTag(r.Context(), chi.URLParam(r, "slug"), in)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	ok(w, t)
}

func (h *Handlers) DeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTag(r.Context(), chi.URLParam(r, "slug")); err != nil {
		h.storeError(w, r, err)
		return
	}
	ok(w, nil)
}

func (h *Handlers) setTagStatus(status core.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := h.store.SetTagStatus(r.Context(), chi.URLParam(r, "slug"), status)
		if err != nil {
			h.storeError(w, r, err)
			return
		}
		ok(w, t)
	}
}

// Stats and health

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Stats(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	ok(w, st)
}

// Health reports ok with the database state. A failed ping answers 503
// with the same payload shape so clients can still read it.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health := core.Health{Status: "ok", Version: h.version, Database: "ok", Timestamp: h.now()}
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", "error", err)
		health.Status = "degraded"
		health.Database = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, envelope{Success: false, Data: health, Message: "database unavailable"})
		return
	}
	ok(w, health)
}
