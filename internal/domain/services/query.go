package services

import (
	"context"

	"newsrelay/internal/domain/models"
)

// QueryService relays natural-language queries to the discovery service
type QueryService interface {
	// Query runs req against the configured collection.
	// Errors are *domain.QueryError values carrying a kind.
	Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResult, error)
}

// DiscoveryClient is the outbound side of the relay.
type DiscoveryClient interface {
	Query(ctx context.Context, scope models.Scope, naturalLanguageQuery string) (*models.QueryResult, error)
}
