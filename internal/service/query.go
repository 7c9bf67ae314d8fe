package service

import (
	"context"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"newsrelay/internal/domain"
	"newsrelay/internal/domain/models"
	"newsrelay/internal/domain/services"
)

// queryService implements the QueryService interface
type queryService struct {
	client services.DiscoveryClient
	scope  models.Scope
	logger *slog.Logger
}

// NewQueryService creates a query service bound to one discovery scope
func NewQueryService(client services.DiscoveryClient, scope models.Scope, logger *slog.Logger) services.QueryService {
	return &queryService{
		client: client,
		scope:  scope,
		logger: logger,
	}
}

// Query forwards the query text unchanged. The field must be present and a
// string; the discovery service is the judge of what a valid query is.
// There are no retries: a failure is final for this request.
func (s *queryService) Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResult, error) {
	if err := validateQueryRequest(req); err != nil {
		return nil, domain.NewQueryError(domain.KindInvalidInput, err)
	}

	start := time.Now()
	query, _ := req.QueryText()
	result, err := s.client.Query(ctx, s.scope, query)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("query answered",
		"results", len(result.Results),
		"matching", result.MatchingCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func validateQueryRequest(req *models.QueryRequest) error {
	if req == nil {
		return validation.NewError("validation_request_nil", "request is required")
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.Query, validation.Required, validation.By(func(interface{}) error {
			if _, ok := req.QueryText(); !ok {
				return validation.NewError("validation_is_string", "must be a string")
			}
			return nil
		})),
	)
}
