package graph

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/taxonomy/internal/ui/features/common"
	"github.com/leapstack-labs/taxonomy/internal/ui/notifier"
)

// SetupRoutes registers the graph feature routes.
func SetupRoutes(
	router chi.Router,
	loader *common.Loader,
	sessions *common.Sessions,
	notify *notifier.Notifier,
	logger *slog.Logger,
) {
	handlers := NewHandlers(loader, sessions, notify, logger)

	router.Route("/graph", func(r chi.Router) {
		r.Get("/", handlers.GraphPage)
		r.Get("/updates", handlers.GraphUpdates)
		r.Get("/data", handlers.GraphData)
		r.Post("/filter", handlers.FilterSSE)
	})
}
