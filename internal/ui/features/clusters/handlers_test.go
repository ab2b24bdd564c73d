package clusters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/taxonomy/internal/state"
	"github.com/leapstack-labs/taxonomy/internal/ui/features"
	"github.com/leapstack-labs/taxonomy/internal/ui/notifier"
	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()
	fixture := features.SetupTestFixture(t, nil)
	h := NewHandlers(fixture.Client, fixture.Loader, fixture.Sessions, fixture.Notifier, fixture.Logger)
	return h, fixture
}

type filterSignals map[string]any

func allFilter() filterSignals {
	return filterSignals{"tree": "all", "status": "all", "type": "all", "search": ""}
}

func (f filterSignals) with(key string, value any) filterSignals {
	out := filterSignals{}
	for k, v := range f {
		out[k] = v
	}
	out[key] = value
	return out
}

func serve(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

// =============================================================================
// ClustersPage Tests
// =============================================================================

func TestClustersPage(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := serve(h.ClustersPage, httptest.NewRequest(http.MethodGet, "/clusters", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, want := range []string{
		"<title>Clusters - Taxonomy</title>",
		`id="cluster-view"`,
		`id="cluster-form"`,
		`data-uid="engineering"`,
		`data-uid="legacy"`,
		"Component library",
		"6 of 7 clusters",
		"1 not reachable from a root",
	} {
		assert.Contains(t, body, want)
	}
	assert.NotContains(t, body, `data-uid="lost"`, "dangling cluster is not rendered")
	assert.NotEmpty(t, rec.Result().Cookies(), "session cookie is set")
}

func TestClustersPage_InheritedStatus(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	_, err := fixture.Store.SetClusterStatus(context.Background(), "frontend", core.StatusInactive)
	require.NoError(t, err)

	rec := serve(h.ClustersPage, httptest.NewRequest(http.MethodGet, "/clusters", nil))

	assert.Contains(t, rec.Body.String(), "status-inactive inherited")
	assert.Contains(t, rec.Body.String(), "via inactive ancestor")
}

func TestClustersPage_StaleWhenAPIDown(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	first := serve(h.ClustersPage, httptest.NewRequest(http.MethodGet, "/clusters", nil))
	require.Contains(t, first.Body.String(), `data-uid="engineering"`)

	fixture.API.Close()
	rec := serve(h.ClustersPage, httptest.NewRequest(http.MethodGet, "/clusters", nil))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "banner-warn")
	assert.Contains(t, body, "toast-error")
	assert.Contains(t, body, `data-uid="engineering"`, "last good snapshot still rendered")
}

func TestClustersPage_NoDataWhenAPIDown(t *testing.T) {
	fixture := features.SetupOfflineFixture(t)
	h := NewHandlers(fixture.Client, fixture.Loader, fixture.Sessions, fixture.Notifier, fixture.Logger)

	rec := serve(h.ClustersPage, httptest.NewRequest(http.MethodGet, "/clusters", nil))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "No clusters match the current filter.")
	assert.Contains(t, body, "toast-error")
}

// =============================================================================
// FilterSSE Tests
// =============================================================================

func TestFilterSSE(t *testing.T) {
	tests := []struct {
		name    string
		signals filterSignals
		want    []string
		notWant []string
	}{
		{
			name:    "active only",
			signals: allFilter().with("status", "active"),
			want:    []string{`data-uid="engineering"`, `data-uid="backend"`, "4 of 7 clusters"},
			notWant: []string{`data-uid="legacy"`, `data-uid="research"`},
		},
		{
			name:    "tree scope",
			signals: allFilter().with("tree", "engineering"),
			want:    []string{`data-uid="engineering"`, `data-uid="legacy"`},
			notWant: []string{`data-uid="design"`},
		},
		{
			name:    "search is case insensitive",
			signals: allFilter().with("search", "DESIGN"),
			want:    []string{`data-uid="design"`, "Design system"},
			notWant: []string{`data-uid="engineering"`, `data-uid="research"`},
		},
		{
			name:    "search keeps ancestors of matches",
			signals: allFilter().with("search", "react"),
			want:    []string{`data-uid="engineering"`, `data-uid="frontend"`, "Component library"},
			notWant: []string{`data-uid="backend"`, "Marketing site"},
		},
		{
			name:    "clusters only hides areas",
			signals: allFilter().with("type", "clusters"),
			want:    []string{`data-uid="frontend"`},
			notWant: []string{"Component library"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupTestHandlers(t)

			req := features.SignalRequest(t, http.MethodPost, "/clusters/filter", tt.signals)
			rec := serve(h.FilterSSE, req)

			body := rec.Body.String()
			assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1)
			for _, want := range tt.want {
				assert.Contains(t, body, want)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, body, nw)
			}
		})
	}
}

func TestFilterSSE_PersistsInSession(t *testing.T) {
	h, _ := setupTestHandlers(t)

	filterRec := serve(h.FilterSSE, features.SignalRequest(t, http.MethodPost, "/clusters/filter", allFilter().with("status", "active")))
	require.NotEmpty(t, filterRec.Result().Cookies())

	req := features.WithCookies(httptest.NewRequest(http.MethodGet, "/clusters", nil), filterRec)
	rec := serve(h.ClustersPage, req)

	body := rec.Body.String()
	assert.Contains(t, body, `data-uid="engineering"`)
	assert.NotContains(t, body, `data-uid="legacy"`)
	assert.Contains(t, body, `<option value="active" selected>`)
}

func TestFilterSSE_RejectsUnknownStatus(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := serve(h.FilterSSE, features.SignalRequest(t, http.MethodPost, "/clusters/filter", allFilter().with("status", "archived")))

	body := rec.Body.String()
	assert.Contains(t, body, "toast-error")
	assert.Contains(t, body, "unknown status")
	assert.Empty(t, rec.Result().Cookies(), "invalid filter is not saved")
}

func TestFilterSSE_BadSignals(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/clusters/filter", strings.NewReader("{not json"))
	rec := serve(h.FilterSSE, req)

	assert.Contains(t, rec.Body.String(), "Failed to read signals")
}

// =============================================================================
// ToggleSSE Tests
// =============================================================================

func TestToggleSSE(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := features.RequestWithPathParam(httptest.NewRequest(http.MethodPost, "/clusters/engineering/toggle", nil), "uid", "engineering")
	collapsed := serve(h.ToggleSSE, req)

	body := collapsed.Body.String()
	assert.Contains(t, body, `data-uid="engineering"`)
	assert.Contains(t, body, `aria-expanded="false"`)
	assert.NotContains(t, body, `data-uid="frontend"`)

	req = features.RequestWithPathParam(httptest.NewRequest(http.MethodPost, "/clusters/engineering/toggle", nil), "uid", "engineering")
	req = features.WithCookies(req, collapsed)
	expanded := serve(h.ToggleSSE, req)

	assert.Contains(t, expanded.Body.String(), `data-uid="frontend"`)
}

// =============================================================================
// Form and mutation Tests
// =============================================================================

func TestEditForm(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := features.RequestWithPathParam(httptest.NewRequest(http.MethodGet, "/clusters/backend/edit", nil), "uid", "backend")
	rec := serve(h.EditForm, req)

	body := rec.Body.String()
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, `"name":"Backend"`)
	assert.Contains(t, body, `"parent":"engineering"`)
	assert.Contains(t, body, "Edit cluster")
}

func TestEditForm_UnknownCluster(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := features.RequestWithPathParam(httptest.NewRequest(http.MethodGet, "/clusters/nope/edit", nil), "uid", "nope")
	rec := serve(h.EditForm, req)

	assert.Contains(t, rec.Body.String(), "toast-error")
}

func TestNewForm(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := serve(h.NewForm, httptest.NewRequest(http.MethodGet, "/clusters/new", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `"name":""`)
	assert.Contains(t, body, "New cluster")
}

func TestCreateCluster(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	events := fixture.Notifier.Subscribe()
	defer fixture.Notifier.Unsubscribe(events)

	req := features.SignalRequest(t, http.MethodPost, "/clusters", map[string]any{
		"name": "Platform", "parent": "engineering", "order": 3,
	})
	rec := serve(h.CreateCluster, req)

	body := rec.Body.String()
	assert.Contains(t, body, "Created cluster Platform")
	assert.Contains(t, body, "toast-success")

	got, err := fixture.Store.ListClusters(context.Background(), core.ListOptions{Search: "Platform"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "engineering", got[0].ParentUID)
	assert.Equal(t, 3, got[0].SortOrder)

	select {
	case ev := <-events:
		assert.Equal(t, notifier.KindCluster, ev.Kind)
		assert.Equal(t, got[0].UID, ev.UID)
	case <-time.After(time.Second):
		t.Fatal("no change event broadcast")
	}
}

func TestCreateCluster_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		signals map[string]any
		want    string
	}{
		{name: "missing name", signals: map[string]any{"name": "  "}, want: "is required"},
		{name: "unknown parent", signals: map[string]any{"name": "Orphan", "parent": "missing"}, want: "form-message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, fixture := setupTestHandlers(t)

			rec := serve(h.CreateCluster, features.SignalRequest(t, http.MethodPost, "/clusters", tt.signals))

			assert.Contains(t, rec.Body.String(), tt.want)
			assert.NotContains(t, rec.Body.String(), "toast-success")
			all, err := fixture.Store.ListClusters(context.Background(), core.ListOptions{IncludeInactive: true})
			require.NoError(t, err)
			assert.Len(t, all, 7, "nothing created")
		})
	}
}

func TestUpdateCluster(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	req := features.SignalRequest(t, http.MethodPut, "/clusters/backend", map[string]any{
		"name": "Back end", "parent": "engineering", "order": "2",
	})
	rec := serve(h.UpdateCluster, features.RequestWithPathParam(req, "uid", "backend"))

	assert.Contains(t, rec.Body.String(), "Saved cluster Back end")
	c, err := fixture.Store.GetCluster(context.Background(), "backend")
	require.NoError(t, err)
	assert.Equal(t, "Back end", c.Name)
	assert.Equal(t, "Engineering / Back end", c.Path)
}

func TestDeleteCluster(t *testing.T) {
	tests := []struct {
		name       string
		uid        string
		want       string
		wantExists bool
	}{
		{name: "leaf", uid: "lost", want: "Deleted cluster lost", wantExists: false},
		{name: "with children", uid: "engineering", want: "toast-error", wantExists: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, fixture := setupTestHandlers(t)

			req := features.RequestWithPathParam(httptest.NewRequest(http.MethodDelete, "/clusters/"+tt.uid, nil), "uid", tt.uid)
			rec := serve(h.DeleteCluster, req)

			assert.Contains(t, rec.Body.String(), tt.want)
			_, err := fixture.Store.GetCluster(context.Background(), tt.uid)
			if tt.wantExists {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, state.ErrNotFound)
			}
		})
	}
}

func TestActivateDeactivateCluster(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	ctx := context.Background()

	req := features.RequestWithPathParam(httptest.NewRequest(http.MethodPatch, "/clusters/frontend/deactivate", nil), "uid", "frontend")
	rec := serve(h.DeactivateCluster, req)
	assert.Contains(t, rec.Body.String(), "Deactivated cluster frontend")

	c, err := fixture.Store.GetCluster(ctx, "frontend")
	require.NoError(t, err)
	assert.Equal(t, core.StatusInactive, c.Status)

	req = features.RequestWithPathParam(httptest.NewRequest(http.MethodPatch, "/clusters/research/activate", nil), "uid", "research")
	rec = serve(h.ActivateCluster, req)
	assert.Contains(t, rec.Body.String(), "Activated cluster research")

	c, err = fixture.Store.GetCluster(ctx, "research")
	require.NoError(t, err)
	assert.Equal(t, core.StatusActive, c.Status)
}

func TestMoveCluster(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	req := features.SignalRequest(t, http.MethodPost, "/clusters/research/move", map[string]any{
		"moveparent": "engineering", "moveorder": 5,
	})
	rec := serve(h.MoveCluster, features.RequestWithPathParam(req, "uid", "research"))

	assert.Contains(t, rec.Body.String(), "Moved cluster Research")
	c, err := fixture.Store.GetCluster(context.Background(), "research")
	require.NoError(t, err)
	assert.Equal(t, "engineering", c.ParentUID)
	assert.Equal(t, 5, c.SortOrder)
}

func TestMoveCluster_RejectsCycle(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	req := features.SignalRequest(t, http.MethodPost, "/clusters/engineering/move", map[string]any{
		"moveparent": "frontend", "moveorder": "",
	})
	rec := serve(h.MoveCluster, features.RequestWithPathParam(req, "uid", "engineering"))

	assert.Contains(t, rec.Body.String(), "form-message")
	c, err := fixture.Store.GetCluster(context.Background(), "engineering")
	require.NoError(t, err)
	assert.Empty(t, c.ParentUID)
}

// =============================================================================
// ClustersUpdates Tests
// =============================================================================

func TestClustersUpdates_SendsViewOnBroadcast(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/clusters/updates", nil)
	body := features.RunSSE(h.ClustersUpdates, req, 300*time.Millisecond, func() {
		fixture.Notifier.Broadcast(notifier.Event{Kind: notifier.KindArea})
	})

	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1)
	assert.Contains(t, body, "cluster-view")
}

func TestClustersUpdates_UsesLatestFilter(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	page := serve(h.ClustersPage, httptest.NewRequest(http.MethodGet, "/clusters", nil))
	stream := features.WithCookies(httptest.NewRequest(http.MethodGet, "/clusters/updates", nil), page)

	body := features.RunSSE(h.ClustersUpdates, stream, 300*time.Millisecond, func() {
		// the filter changes after the stream was opened
		filterReq := features.WithCookies(
			features.SignalRequest(t, http.MethodPost, "/clusters/filter", allFilter().with("status", "active")), page)
		serve(h.FilterSSE, filterReq)
		fixture.Notifier.Broadcast(notifier.Event{Kind: notifier.KindCluster})
	})

	assert.Contains(t, body, "cluster-view")
	assert.NotContains(t, body, `data-uid="legacy"`)
}

func TestClustersUpdates_NoInitialState(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/clusters/updates", nil)
	body := features.RunSSE(h.ClustersUpdates, req, 50*time.Millisecond, nil)

	assert.Equal(t, 0, strings.Count(body, "event:"))
}
