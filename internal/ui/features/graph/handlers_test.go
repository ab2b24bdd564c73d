package graph

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/taxonomy/internal/ui/features"
	"github.com/leapstack-labs/taxonomy/internal/ui/notifier"
)

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()
	fixture := features.SetupTestFixture(t, nil)
	return NewHandlers(fixture.Loader, fixture.Sessions, fixture.Notifier, fixture.Logger), fixture
}

func fetchGraph(t *testing.T, h *Handlers, req *http.Request) Data {
	t.Helper()
	rec := httptest.NewRecorder()
	h.GraphData(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var data Data
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	return data
}

func countTypes(nodes []Node) map[string]int {
	out := map[string]int{}
	for _, n := range nodes {
		out[n.Type]++
	}
	return out
}

func hasLink(links []Link, source, target string) bool {
	for _, l := range links {
		if l.Source == source && l.Target == target {
			return true
		}
	}
	return false
}

func TestGraphPage(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := httptest.NewRecorder()
	h.GraphPage(rec, httptest.NewRequest(http.MethodGet, "/graph", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Graph - Taxonomy</title>")
	assert.Contains(t, body, `<svg id="graph" class="graph-canvas"></svg>`)
	assert.Contains(t, body, "/static/graph.js")
	assert.NotEmpty(t, rec.Result().Cookies())
}

func TestGraphData_Default(t *testing.T) {
	h, _ := setupTestHandlers(t)

	data := fetchGraph(t, h, httptest.NewRequest(http.MethodGet, "/graph/data", nil))

	assert.Equal(t, map[string]int{NodeCluster: 6, NodeArea: 7, NodeTag: 6}, countTypes(data.Nodes))
	assert.Len(t, data.Links, 20)
	assert.True(t, hasLink(data.Links, "cluster:engineering", "cluster:frontend"))
	assert.True(t, hasLink(data.Links, "cluster:backend", "area:billing"))
	assert.True(t, hasLink(data.Links, "area:component-library", "tag:react"))

	for _, n := range data.Nodes {
		assert.NotEqual(t, "cluster:lost", n.ID, "unreachable clusters are not drawn")
	}
}

func TestGraphData_UsesSessionFilter(t *testing.T) {
	tests := []struct {
		name    string
		signals map[string]any
		want    map[string]int
	}{
		{
			name:    "clusters only",
			signals: map[string]any{"tree": "all", "status": "all", "type": "clusters"},
			want:    map[string]int{NodeCluster: 6},
		},
		{
			name:    "active only",
			signals: map[string]any{"tree": "all", "status": "active", "type": "all"},
			want:    map[string]int{NodeCluster: 4, NodeArea: 5, NodeTag: 4},
		},
		{
			name:    "one tree",
			signals: map[string]any{"tree": "design", "status": "all", "type": "all"},
			want:    map[string]int{NodeCluster: 2, NodeArea: 2, NodeTag: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupTestHandlers(t)

			rec := httptest.NewRecorder()
			h.FilterSSE(rec, features.SignalRequest(t, http.MethodPost, "/graph/filter", tt.signals))
			assert.Contains(t, rec.Body.String(), "graph:reload")

			req := features.WithCookies(httptest.NewRequest(http.MethodGet, "/graph/data", nil), rec)
			data := fetchGraph(t, h, req)
			assert.Equal(t, tt.want, countTypes(data.Nodes))
		})
	}
}

func TestFilterSSE_RejectsUnknownType(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := httptest.NewRecorder()
	h.FilterSSE(rec, features.SignalRequest(t, http.MethodPost, "/graph/filter", map[string]any{"type": "widgets"}))

	assert.Contains(t, rec.Body.String(), "toast-error")
	assert.NotContains(t, rec.Body.String(), "graph:reload")
	assert.Empty(t, rec.Result().Cookies())
}

func TestGraphData_APIDown(t *testing.T) {
	fixture := features.SetupOfflineFixture(t)
	h := NewHandlers(fixture.Loader, fixture.Sessions, fixture.Notifier, fixture.Logger)

	rec := httptest.NewRecorder()
	h.GraphData(rec, httptest.NewRequest(http.MethodGet, "/graph/data", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "unreachable")
}

func TestGraphUpdates_ReloadsOnChange(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	body := features.RunSSE(h.GraphUpdates, httptest.NewRequest(http.MethodGet, "/graph/updates", nil), 300*time.Millisecond, func() {
		fixture.Notifier.Broadcast(notifier.Event{Kind: notifier.KindArea, UID: "billing"})
	})

	assert.Equal(t, 1, strings.Count(body, "event:"))
	assert.Contains(t, body, "graph:reload")
}
