package clusters

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/taxonomy/internal/ui/features/common"
	"github.com/leapstack-labs/taxonomy/internal/ui/notifier"
)

// SetupRoutes configures routes for the clusters feature.
func SetupRoutes(
	router chi.Router,
	api ClusterAPI,
	loader *common.Loader,
	sessions *common.Sessions,
	notify *notifier.Notifier,
	logger *slog.Logger,
) {
	handlers := NewHandlers(api, loader, sessions, notify, logger)

	router.Route("/clusters", func(r chi.Router) {
		r.Get("/", handlers.ClustersPage)
		r.Post("/", handlers.CreateCluster)
		r.Get("/updates", handlers.ClustersUpdates)
		r.Post("/filter", handlers.FilterSSE)
		r.Get("/new", handlers.NewForm)

		r.Route("/{uid}", func(r chi.Router) {
			r.Put("/", handlers.UpdateCluster)
			r.Delete("/", handlers.DeleteCluster)
			r.Get("/edit", handlers.EditForm)
			r.Post("/toggle", handlers.ToggleSSE)
			r.Patch("/activate", handlers.ActivateCluster)
			r.Patch("/deactivate", handlers.DeactivateCluster)
			r.Post("/move", handlers.MoveCluster)
		})
	})
}
