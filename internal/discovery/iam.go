package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"newsrelay/internal/domain"
)

const iamGrantType = "urn:ibm:params:oauth:grant-type:apikey"

// refreshFraction is how much of a token's lifetime may pass before it is renewed
const refreshFraction = 0.8

// IAMAuthenticator exchanges an API key for short-lived IAM access tokens and
// caches them until they are close to expiry.
type IAMAuthenticator struct {
	apiKey     string
	tokenURL   string
	httpClient *http.Client
	now        func() time.Time

	// mu is held across the token exchange so concurrent callers share one refresh
	mu        sync.Mutex
	token     string
	refreshAt time.Time
}

// NewIAMAuthenticator creates an authenticator for the given API key.
// A nil httpClient means http.DefaultClient.
func NewIAMAuthenticator(apiKey, tokenURL string, httpClient *http.Client) *IAMAuthenticator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &IAMAuthenticator{
		apiKey:     apiKey,
		tokenURL:   tokenURL,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// Authenticate implements Authenticator.
func (a *IAMAuthenticator) Authenticate(ctx context.Context, req *http.Request) error {
	token, err := a.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Token returns a valid access token, fetching a new one when the cached
// token is missing or due for refresh.
func (a *IAMAuthenticator) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && a.now().Before(a.refreshAt) {
		return a.token, nil
	}

	tok, err := a.requestToken(ctx)
	if err != nil {
		return "", err
	}

	issued := a.now()
	expiresAt := tok.expiry(issued)
	lifetime := expiresAt.Sub(issued)
	a.token = tok.AccessToken
	a.refreshAt = issued.Add(time.Duration(float64(lifetime) * refreshFraction))

	return a.token, nil
}

// iamToken is the IAM token endpoint response
type iamToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
	Expiration  int64  `json:"expiration"` // unix seconds
}

// expiry works out when the token stops being valid. The explicit response
// fields are preferred; the JWT exp claim is the fallback.
func (t iamToken) expiry(issued time.Time) time.Time {
	if t.ExpiresIn > 0 {
		return issued.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	if t.Expiration > 0 {
		return time.Unix(t.Expiration, 0)
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(t.AccessToken, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}

	// Unknown lifetime: never cache
	return issued
}

func (a *IAMAuthenticator) requestToken(ctx context.Context) (*iamToken, error) {
	form := url.Values{}
	form.Set("grant_type", iamGrantType)
	form.Set("apikey", a.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, domain.NewQueryError(domain.KindAuth, fmt.Errorf("create token request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, iamStatusError(resp)
	}

	var tok iamToken
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, domain.NewQueryError(domain.KindAuth, fmt.Errorf("decode token response: %w", err))
	}
	if tok.AccessToken == "" {
		return nil, domain.NewQueryError(domain.KindAuth, errors.New("token response has no access_token"))
	}
	return &tok, nil
}
