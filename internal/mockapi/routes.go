package mockapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// BasePath is the prefix every endpoint is mounted under.
const BasePath = "/api/v1"

// SetupRoutes registers the API endpoints under BasePath.
func SetupRoutes(router chi.Router, h *Handlers) {
	router.Route(BasePath, func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/stats", h.Stats)

		r.Route("/clusters", func(r chi.Router) {
			r.Get("/", h.ListClusters)
			r.Post("/", h.CreateCluster)
			r.Route("/{uid}", func(r chi.Router) {
				r.Get("/", h.GetCluster)
				r.Put("/", h.UpdateCluster)
				r.Delete("/", h.DeleteCluster)
				r.Patch("/activate", h.setClusterStatus(core.StatusActive))
				r.Patch("/deactivate", h.setClusterStatus(core.StatusInactive))
				r.Post("/move", h.MoveCluster)
			})
		})

		r.Route("/areas", func(r chi.Router) {
			r.Get("/", h.ListAreas)
			r.Post("/", h.CreateArea)
			r.Post("/tag", h.TagArea)
			r.Post("/untag", h.UntagArea)
			r.Route("/{uid}", func(r chi.Router) {
				r.Get("/", h.GetArea)
				r.Put("/", h.UpdateArea)
				r.Delete("/", h.DeleteArea)
				r.Patch("/activate", h.setAreaStatus(core.StatusActive))
				r.Patch("/deactivate", h.setAreaStatus(core.StatusInactive))
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", h.ListTags)
			r.Post("/", h.CreateTag)
			r.Route("/{slug}", func(r chi.Router) {
				r.Get("/", h.GetTag)
				r.Put("/", h.UpdateTag)
				r.Delete("/", h.DeleteTag)
				r.Patch("/activate", h.setTagStatus(core.StatusActive))
				r.Patch("/deactivate", h.setTagStatus(core.StatusInactive))
			})
		})
	})

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		fail(w, http.StatusNotFound, "no such endpoint")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		fail(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}
