package areas

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/taxonomy/internal/ui/features/common"
	"github.com/leapstack-labs/taxonomy/internal/ui/notifier"
)

// SetupRoutes configures routes for the areas feature.
func SetupRoutes(
	router chi.Router,
	api AreaAPI,
	loader *common.Loader,
	sessions *common.Sessions,
	notify *notifier.Notifier,
	logger *slog.Logger,
) {
	handlers := NewHandlers(api, loader, sessions, notify, logger)

	router.Route("/areas", func(r chi.Router) {
		r.Get("/", handlers.AreasPage)
		r.Post("/", handlers.CreateArea)
		r.Get("/updates", handlers.AreasUpdates)
		r.Post("/filter", handlers.FilterSSE)
		r.Get("/new", handlers.NewForm)

		r.Route("/{uid}", func(r chi.Router) {
			r.Put("/", handlers.UpdateArea)
			r.Delete("/", handlers.DeleteArea)
			r.Get("/edit", handlers.EditForm)
			r.Patch("/activate", handlers.ActivateArea)
			r.Patch("/deactivate", handlers.DeactivateArea)
			r.Post("/tag", handlers.TagArea)
			r.Post("/untag", handlers.UntagArea)
		})
	})
}
