package home

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/taxonomy/internal/ui/features/common"
	"github.com/leapstack-labs/taxonomy/internal/ui/notifier"
)

// SetupRoutes configures routes for the home feature.
func SetupRoutes(
	router chi.Router,
	loader *common.Loader,
	health HealthSource,
	notify *notifier.Notifier,
	logger *slog.Logger,
) {
	handlers := NewHandlers(loader, health, notify, logger)

	router.Get("/", handlers.HomePage)
	router.Get("/updates", handlers.HomePageUpdates)
}
