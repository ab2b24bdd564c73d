package tags

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/taxonomy/internal/ui/features/common"
	"github.com/leapstack-labs/taxonomy/internal/ui/notifier"
)

// SetupRoutes configures routes for the tags feature.
func SetupRoutes(
	router chi.Router,
	api TagAPI,
	loader *common.Loader,
	sessions *common.Sessions,
	notify *notifier.Notifier,
	logger *slog.Logger,
) {
	handlers := NewHandlers(api, loader, sessions, notify, logger)

	router.Route("/tags", func(r chi.Router) {
		r.Get("/", handlers.TagsPage)
		r.Post("/", handlers.CreateTag)
		r.Get("/updates", handlers.TagsUpdates)
		r.Post("/filter", handlers.FilterSSE)
		r.Get("/new", handlers.NewForm)

		r.Route("/{slug}", func(r chi.Router) {
			r.Put("/", handlers.UpdateTag)
			r.Delete("/", handlers.DeleteTag)
			r.Get("/edit", handlers.EditForm)
			r.Patch("/activate", handlers.ActivateTag)
			r.Patch("/deactivate", handlers.DeactivateTag)
		})
	})
}
