// Package features provides shared test utilities for UI feature tests.
package features

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/taxonomy/internal/apiclient"
	"github.com/leapstack-labs/taxonomy/internal/mockapi"
	"github.com/leapstack-labs/taxonomy/internal/state"
	"github.com/leapstack-labs/taxonomy/internal/testutil"
	"github.com/leapstack-labs/taxonomy/internal/ui/features/common"
	"github.com/leapstack-labs/taxonomy/internal/ui/notifier"
)

// TestFixture holds all dependencies needed for UI handler tests: a mock API
// served from an in-memory store, a client pointed at it, and the console's
// shared services.
type TestFixture struct {
	Store        *state.SQLiteStore
	API          *httptest.Server
	Client       *apiclient.Client
	Loader       *common.Loader
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
	Sessions     *common.Sessions
	Logger       *slog.Logger
}

// SetupTestFixture starts a mock API seeded with seed, or with the default
// fixture when seed is nil.
func SetupTestFixture(t *testing.T, seed *state.Seed) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)

	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })

	if seed == nil {
		seed = mockapi.DefaultSeed()
	}
	require.NoError(t, store.ApplySeed(context.Background(), seed))

	api := httptest.NewServer(mockapi.NewServer(mockapi.Config{
		Store:   store,
		Version: "test",
		Logger:  logger,
	}).Handler())
	t.Cleanup(api.Close)

	client, err := apiclient.New(api.URL+mockapi.BasePath, apiclient.WithRetries(0), apiclient.WithLogger(logger))
	require.NoError(t, err)

	sessionStore := NewTestSessionStore()
	return &TestFixture{
		Store:        store,
		API:          api,
		Client:       client,
		Loader:       common.NewLoader(client, logger),
		Notifier:     notifier.New(),
		SessionStore: sessionStore,
		Sessions:     common.NewSessions(sessionStore),
		Logger:       logger,
	}
}

// SetupOfflineFixture returns a fixture whose client points at a closed
// server, so every API call fails.
func SetupOfflineFixture(t *testing.T) *TestFixture {
	t.Helper()
	f := SetupTestFixture(t, &state.Seed{})
	f.API.Close()
	return f
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// SignalRequest builds a datastar request carrying signals as its JSON body.
func SignalRequest(t *testing.T, method, target string, signals any) *http.Request {
	t.Helper()
	body, err := json.Marshal(signals)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Datastar-Request", "true")
	return req
}

// WithCookies copies the cookies set by a previous response onto req.
func WithCookies(req *http.Request, rec *httptest.ResponseRecorder) *http.Request {
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

// RunSSE runs handler until ctx times out, calling during once the handler
// has had time to subscribe. It returns the response body.
func RunSSE(handler http.HandlerFunc, req *http.Request, timeout time.Duration, during func()) string {
	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	defer cancel()
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler(rec, req)
		close(done)
	}()

	if during != nil {
		time.Sleep(50 * time.Millisecond)
		during()
	}
	<-done
	return rec.Body.String()
}

// NewTestNotifier creates a notifier for testing.
func NewTestNotifier() *notifier.Notifier {
	return notifier.New()
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
