package handler

import (
	"errors"
	"net/http"

	"newsrelay/internal/httputil"
)

// handleParseError answers a body that could not be decoded. These are the
// only HTTP-level errors the relay returns; query failures use the envelope.
func handleParseError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &tooLarge):
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, httputil.ErrEmptyBody):
		httputil.RespondError(w, http.StatusBadRequest, "request body with a query field is required")
	default:
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	}
}
