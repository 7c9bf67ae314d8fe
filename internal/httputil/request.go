package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"newsrelay/internal/config"
)

// ErrEmptyBody is returned by ParseJSON when the request has no body at all.
var ErrEmptyBody = errors.New("request body is empty")

// ParseJSON decodes JSON from the request body into the given destination.
// The body is capped at config.MaxRequestBodyBytes. Unknown fields are
// accepted; callers validate what they need.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
