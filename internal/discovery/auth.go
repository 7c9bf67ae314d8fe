package discovery

import (
	"context"
	"fmt"
	"net/http"

	"newsrelay/internal/config"
)

// Authenticator decorates outbound requests with credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, req *http.Request) error
}

// BearerAuthenticator sends a pre-issued token as-is.
type BearerAuthenticator struct {
	Token string
}

func (a *BearerAuthenticator) Authenticate(_ context.Context, req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+a.Token)
	return nil
}

// BasicAuthenticator sends the key as the password of the "apikey" user,
// which older Discovery instances accept instead of IAM tokens.
type BasicAuthenticator struct {
	APIKey string
}

func (a *BasicAuthenticator) Authenticate(_ context.Context, req *http.Request) error {
	req.SetBasicAuth("apikey", a.APIKey)
	return nil
}

// NewAuthenticator picks the authenticator named by cfg.AuthType.
func NewAuthenticator(cfg *config.Config, httpClient *http.Client) (Authenticator, error) {
	switch cfg.AuthType {
	case config.AuthIAM:
		return NewIAMAuthenticator(cfg.DiscoveryAPIKey, cfg.AuthURL, httpClient), nil
	case config.AuthBearer:
		return &BearerAuthenticator{Token: cfg.DiscoveryAPIKey}, nil
	case config.AuthBasic:
		return &BasicAuthenticator{APIKey: cfg.DiscoveryAPIKey}, nil
	default:
		return nil, fmt.Errorf("unsupported auth type %q", cfg.AuthType)
	}
}
