// Package gigachat is a client for the GigaChat completion API, including
// the OAuth-style client-credentials token exchange it requires.
package gigachat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/looksy-group/stylist-api/internal/resilience"
)

const (
	defaultBaseURL = "https://gigachat.devices.sberbank.ru/api/v1"
	defaultAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	defaultScope   = "GIGACHAT_API_PERS"
	defaultModel   = "GigaChat"
)

// ErrAuthDegraded is returned by ChatCompletion when only the sentinel
// fallback token is available. Callers treat it as "skip the model, go
// straight to the template fallback" rather than as a hard failure.
var ErrAuthDegraded = eris.New("gigachat: authentication degraded")

// Client performs chat completions against the GigaChat API.
type Client interface {
	ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error)
	GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// ChatCompletionRequest is the request body for POST /chat/completions.
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

// Message represents a single message in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse is the response from POST /chat/completions.
type ChatCompletionResponse struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is a single completion choice.
type Choice struct {
	Index   int     `json:"index"`
	Message Message `json:"message"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerateOptions tunes a single GenerateText call. Zero values fall back
// to the client defaults.
type GenerateOptions struct {
	Model       string
	Temperature *float64
	MaxTokens   int
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default completion API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithAuthURL overrides the default token endpoint.
func WithAuthURL(url string) Option {
	return func(c *httpClient) {
		c.authURL = url
	}
}

// WithScope overrides the default OAuth scope.
func WithScope(scope string) Option {
	return func(c *httpClient) {
		c.scope = scope
	}
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *httpClient) {
		c.model = model
	}
}

// WithDefaults sets the default temperature and max tokens for GenerateText.
func WithDefaults(temperature float64, maxTokens int) Option {
	return func(c *httpClient) {
		c.temperature = temperature
		c.maxTokens = maxTokens
	}
}

// WithHTTPClient overrides the http.Client used for completions.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithAuthHTTPClient overrides the http.Client used for the token exchange.
func WithAuthHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.authHTTP = hc
	}
}

// WithNow injects the clock used for token expiry checks.
func WithNow(now func() time.Time) Option {
	return func(c *httpClient) {
		c.now = now
	}
}

// WithRequestID injects the RqUID generator (pinned in tests).
func WithRequestID(gen func() string) Option {
	return func(c *httpClient) {
		c.newRequestID = gen
	}
}

type httpClient struct {
	clientID     string
	clientSecret string
	authURL      string
	baseURL      string
	scope        string
	model        string
	temperature  float64
	maxTokens    int
	http         *http.Client
	authHTTP     *http.Client
	now          func() time.Time
	newRequestID func() string

	tokens tokenCache
	flight singleflight.Group
}

// NewClient creates a GigaChat API client.
func NewClient(clientID, clientSecret string, opts ...Option) Client {
	c := &httpClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		authURL:      defaultAuthURL,
		baseURL:      defaultBaseURL,
		scope:        defaultScope,
		model:        defaultModel,
		temperature:  0.7,
		maxTokens:    1500,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		authHTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
		now:          time.Now,
		newRequestID: uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GenerateText sends prompt as a single user message and returns the first
// choice's content.
func (c *httpClient) GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	req := ChatCompletionRequest{
		Model:       opts.Model,
		Temperature: opts.Temperature,
		Messages:    []Message{{Role: "user", Content: prompt}},
	}
	if req.Temperature == nil {
		t := c.temperature
		req.Temperature = &t
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}
	req.MaxTokens = &maxTokens

	resp, err := c.ChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("gigachat: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatCompletion performs one completion call. On 401 the cached token is
// invalidated and the call is retried exactly once with a fresh token.
func (c *httpClient) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	tok, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	if tok.Degraded() {
		// No real credential; don't waste a round-trip on a sentinel.
		return nil, ErrAuthDegraded
	}

	resp, err := c.doChat(ctx, req, tok.Value)
	if err == nil {
		return resp, nil
	}

	pe, ok := resilience.AsProvider(err)
	if !ok || pe.Status != http.StatusUnauthorized {
		return nil, err
	}

	// Token rejected: invalidate, re-auth once, retry once.
	zap.L().Info("gigachat: token rejected, re-authenticating")
	c.tokens.Invalidate()
	tok, err = c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	if tok.Degraded() {
		return nil, ErrAuthDegraded
	}
	return c.doChat(ctx, req, tok.Value)
}

func (c *httpClient) doChat(ctx context.Context, req ChatCompletionRequest, bearer string) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "gigachat: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "gigachat: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, resilience.NewNetworkError("gigachat: chat completion", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewNetworkError("gigachat: read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resilience.NewProviderError("gigachat", resp.StatusCode, respBody)
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "gigachat: unmarshal response")
	}

	return &result, nil
}
