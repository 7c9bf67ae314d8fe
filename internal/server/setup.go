package server

import (
	"fmt"
	"log/slog"

	"newsrelay/internal/config"
	"newsrelay/internal/discovery"
	"newsrelay/internal/domain/services"
	"newsrelay/internal/service"
)

// SetupQueryService wires the discovery client and the query service from cfg.
func SetupQueryService(cfg *config.Config, logger *slog.Logger) (services.QueryService, error) {
	client, err := discovery.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup discovery client: %w", err)
	}
	return service.NewQueryService(client, cfg.Scope, logger), nil
}
