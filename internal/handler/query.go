package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"newsrelay/internal/domain"
	"newsrelay/internal/domain/models"
	"newsrelay/internal/domain/services"
	"newsrelay/internal/httputil"
)

// QueryHandler handles relay HTTP requests
type QueryHandler struct {
	queryService services.QueryService
	logger       *slog.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(queryService services.QueryService, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// Query relays a natural-language query to the discovery service
// POST /api/query
//
// Every query failure answers 200 {"err": true}; the failure kind is only logged.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleParseError(w, err)
		return
	}

	result, err := h.queryService.Query(r.Context(), &req)
	if err != nil {
		h.logQueryError(r, err)
		httputil.RespondJSON(w, http.StatusOK, models.ErrorEnvelope())
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.SuccessEnvelope(result.Results))
}

func (h *QueryHandler) logQueryError(r *http.Request, err error) {
	attrs := []any{
		"kind", domain.KindOf(err),
		"error", err,
		"request_id", httputil.GetRequestID(r.Context()),
	}

	var qe *domain.QueryError
	if errors.As(err, &qe) && qe.Status != 0 {
		attrs = append(attrs, "upstream_status", qe.Status)
	}

	// Client disconnects and deadlines log at warn
	if errors.Is(err, domain.ErrCanceled) {
		h.logger.Warn("query canceled", attrs...)
		return
	}
	h.logger.Error("query failed", attrs...)
}
