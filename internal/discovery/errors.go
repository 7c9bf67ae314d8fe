package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"newsrelay/internal/config"
	"newsrelay/internal/domain"
)

// apiError is the error body returned by the Discovery API
type apiError struct {
	Code        int    `json:"code"`
	Error       string `json:"error"`
	Description string `json:"description"`
}

// iamError is the error body returned by the IAM token endpoint
type iamError struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// kindForStatus maps a non-2xx Discovery status to an error kind.
func kindForStatus(status int) domain.ErrorKind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.KindAuth
	case status == http.StatusTooManyRequests:
		return domain.KindQuota
	case status == http.StatusBadRequest:
		return domain.KindBadQuery
	default:
		return domain.KindUpstream
	}
}

// transportError classifies a failed round trip. A done context wins over
// whatever the transport reported, since that is the root cause.
func transportError(ctx context.Context, err error) *domain.QueryError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.NewQueryError(domain.KindCanceled, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewQueryError(domain.KindCanceled, err)
	}
	return domain.NewQueryError(domain.KindTransport, err)
}

// statusError builds a classified error from a non-2xx Discovery response.
func statusError(resp *http.Response) *domain.QueryError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, config.MaxUpstreamErrorBytes))

	qe := &domain.QueryError{
		Kind:   kindForStatus(resp.StatusCode),
		Status: resp.StatusCode,
	}

	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		qe.Message = apiErr.Error
		if apiErr.Description != "" {
			qe.Message += " - " + apiErr.Description
		}
	} else if len(body) > 0 {
		qe.Message = string(body)
	}
	return qe
}

// iamStatusError builds an auth error from a failed token exchange.
func iamStatusError(resp *http.Response) *domain.QueryError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, config.MaxUpstreamErrorBytes))

	kind := domain.KindAuth
	if resp.StatusCode >= 500 {
		kind = domain.KindUpstream
	}
	qe := &domain.QueryError{
		Kind:   kind,
		Status: resp.StatusCode,
		Err:    errors.New("iam token exchange failed"),
	}

	var ie iamError
	if json.Unmarshal(body, &ie) == nil && ie.ErrorMessage != "" {
		qe.Message = ie.ErrorCode + ": " + ie.ErrorMessage
	} else if len(body) > 0 {
		qe.Message = string(body)
	}
	return qe
}
