// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/taxonomy/internal/apiclient"
	areasFeature "github.com/leapstack-labs/taxonomy/internal/ui/features/areas"
	clustersFeature "github.com/leapstack-labs/taxonomy/internal/ui/features/clusters"
	"github.com/leapstack-labs/taxonomy/internal/ui/features/common"
	graphFeature "github.com/leapstack-labs/taxonomy/internal/ui/features/graph"
	homeFeature "github.com/leapstack-labs/taxonomy/internal/ui/features/home"
	tagsFeature "github.com/leapstack-labs/taxonomy/internal/ui/features/tags"
	"github.com/leapstack-labs/taxonomy/internal/ui/notifier"
	"github.com/leapstack-labs/taxonomy/internal/ui/resources"
)

// Deps are the shared services every feature is built from.
type Deps struct {
	Client   *apiclient.Client
	Loader   *common.Loader
	Sessions *common.Sessions
	Notifier *notifier.Notifier
	Logger   *slog.Logger
}

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(router chi.Router, deps Deps, isDev bool) {
	// Hot reload endpoint for dev mode
	if isDev {
		setupReload(router)
	}

	// Static assets
	router.Handle("/static/*", resources.Handler())

	homeFeature.SetupRoutes(router, deps.Loader, deps.Client, deps.Notifier, deps.Logger)
	clustersFeature.SetupRoutes(router, deps.Client, deps.Loader, deps.Sessions, deps.Notifier, deps.Logger)
	areasFeature.SetupRoutes(router, deps.Client, deps.Loader, deps.Sessions, deps.Notifier, deps.Logger)
	tagsFeature.SetupRoutes(router, deps.Client, deps.Loader, deps.Sessions, deps.Notifier, deps.Logger)
	graphFeature.SetupRoutes(router, deps.Loader, deps.Sessions, deps.Notifier, deps.Logger)
}

func setupReload(router chi.Router) {
	reloadChan := make(chan struct{}, 1)
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		hotReloadOnce.Do(reload)
		select {
		case <-reloadChan:
			reload()
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
