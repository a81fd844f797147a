package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/looksy-group/stylist-api/internal/resilience"
)

// maxResponseBytes bounds marketplace responses; search pages and API
// payloads beyond this are noise.
const maxResponseBytes = 2 << 20

// fetcher is the shared HTTP plumbing for all tiers: browser headers,
// bounded reads, typed errors.
type fetcher struct {
	http    *http.Client
	headers *headerSource
}

func newFetcher(hc *http.Client, headers *headerSource) *fetcher {
	if hc == nil {
		hc = &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		}
	}
	return &fetcher{http: hc, headers: headers}
}

// GetJSON fetches url and unmarshals the response into out.
func (f *fetcher) GetJSON(ctx context.Context, tier, url string, out any) error {
	body, err := f.do(ctx, tier, http.MethodGet, url, nil, "")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "%s: unmarshal response", tier)
	}
	return nil
}

// PostJSON sends payload as a JSON body and unmarshals the response into out.
func (f *fetcher) PostJSON(ctx context.Context, tier, url string, payload, out any) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrapf(err, "%s: marshal request", tier)
	}
	body, err := f.do(ctx, tier, http.MethodPost, url, reqBody, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "%s: unmarshal response", tier)
	}
	return nil
}

// GetHTML fetches url and returns the raw page.
func (f *fetcher) GetHTML(ctx context.Context, tier, url string) (string, error) {
	body, err := f.do(ctx, tier, http.MethodGet, url, nil, "")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (f *fetcher) do(ctx context.Context, tier, method, url string, body []byte, contentType string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: create request", tier)
	}
	f.headers.Apply(req)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, resilience.NewNetworkError(tier, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resilience.NewNetworkError(tier, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resilience.NewProviderError(tier, resp.StatusCode, respBody)
	}

	return respBody, nil
}
