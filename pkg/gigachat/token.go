package gigachat

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/looksy-group/stylist-api/internal/resilience"
)

// expirySafetyMargin is subtracted from the reported TTL so a token is
// refreshed before the provider actually rejects it.
const expirySafetyMargin = 60 * time.Second

// degradedTokenTTL keeps the sentinel token alive just long enough to stop
// every request from re-hitting a failing auth endpoint.
const degradedTokenTTL = 2 * time.Minute

// sentinelToken marks "authentication degraded". It is never sent upstream.
const sentinelToken = "fallback-token"

// AccessToken is a cached bearer credential.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// Degraded reports whether this is the sentinel fallback token rather than
// a real credential.
func (t AccessToken) Degraded() bool {
	return t.Value == sentinelToken
}

// Valid reports whether the token can still be used at the given instant.
func (t AccessToken) Valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// tokenCache guards the one piece of shared mutable state in the client.
type tokenCache struct {
	mu  sync.Mutex
	tok AccessToken
}

func (c *tokenCache) Get(now time.Time) (AccessToken, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tok.Valid(now) {
		return c.tok, true
	}
	return AccessToken{}, false
}

func (c *tokenCache) Set(tok AccessToken) {
	c.mu.Lock()
	c.tok = tok
	c.mu.Unlock()
}

// Invalidate drops the cached token (e.g. after a 401).
func (c *tokenCache) Invalidate() {
	c.mu.Lock()
	c.tok = AccessToken{}
	c.mu.Unlock()
}

// tokenResponse is the token endpoint's response shape.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
	// Some deployments report an absolute expiry in epoch milliseconds
	// instead of a TTL.
	ExpiresAt int64 `json:"expires_at"`
}

// getAccessToken returns a cached token while valid, otherwise performs the
// client-credentials exchange. Concurrent callers share one in-flight fetch.
// The returned token may be the degraded sentinel; the error is non-nil only
// for context cancellation.
func (c *httpClient) getAccessToken(ctx context.Context) (AccessToken, error) {
	if tok, ok := c.tokens.Get(c.now()); ok {
		return tok, nil
	}

	v, err, _ := c.flight.Do("token", func() (any, error) {
		// Re-check under the flight: another caller may have just stored one.
		if tok, ok := c.tokens.Get(c.now()); ok {
			return tok, nil
		}

		tok := c.exchangeToken(ctx)
		c.tokens.Set(tok)
		return tok, nil
	})
	if err != nil {
		return AccessToken{}, err
	}
	if ctx.Err() != nil {
		return AccessToken{}, ctx.Err()
	}
	return v.(AccessToken), nil
}

// exchangeToken performs the Basic-auth client-credentials exchange. It never
// fails the caller: any error degrades to the sentinel token so downstream
// logic can special-case "auth unavailable" without an exception path.
func (c *httpClient) exchangeToken(ctx context.Context) AccessToken {
	tok, err := resilience.DoVal(ctx, resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: 200 * time.Millisecond,
		OnRetry:        resilience.RetryLogger("gigachat", "token_exchange"),
	}, c.fetchToken)
	if err != nil {
		zap.L().Warn("gigachat: token exchange failed, degrading to sentinel token",
			zap.Error(err),
		)
		return AccessToken{
			Value:     sentinelToken,
			ExpiresAt: c.now().Add(degradedTokenTTL),
		}
	}
	return tok
}

func (c *httpClient) fetchToken(ctx context.Context) (AccessToken, error) {
	form := url.Values{"scope": {c.scope}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return AccessToken{}, resilience.NewNetworkError("gigachat: create token request", err)
	}

	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("RqUID", c.newRequestID())

	resp, err := c.authHTTP.Do(req)
	if err != nil {
		return AccessToken{}, resilience.NewNetworkError("gigachat: token exchange", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return AccessToken{}, resilience.NewNetworkError("gigachat: read token response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return AccessToken{}, resilience.NewProviderError("gigachat-auth", resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return AccessToken{}, resilience.NewProviderError("gigachat-auth", resp.StatusCode, body)
	}

	now := c.now()
	var expiresAt time.Time
	switch {
	case tr.ExpiresIn > 0:
		expiresAt = now.Add(time.Duration(tr.ExpiresIn)*time.Second - expirySafetyMargin)
	case tr.ExpiresAt > 0:
		expiresAt = time.UnixMilli(tr.ExpiresAt).Add(-expirySafetyMargin)
	default:
		expiresAt = now.Add(10 * time.Minute)
	}

	zap.L().Debug("gigachat: token acquired",
		zap.Time("expires_at", expiresAt),
	)

	return AccessToken{Value: tr.AccessToken, ExpiresAt: expiresAt}, nil
}
