package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"annotator/internal/services"
)

const (
	jsonResponseType   = "json_object"
	defaultHTTPTimeout = 120 * time.Second
	defaultBaseURL     = "http://127.0.0.1:8000/v1"
	completionsPath    = "chat/completions"
	anonymousAPIKey    = "EMPTY"
)

// Config captures the runtime settings required to talk to the inference endpoint.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Referer           string
	Title             string
	TimeoutSeconds    int
	RequestsPerMinute int
}

// DefaultHTTPTimeout returns the default timeout used for inference requests.
func DefaultHTTPTimeout() time.Duration {
	return defaultHTTPTimeout
}

// ChatOptions tunes a single chat round trip.
type ChatOptions struct {
	Temperature float64
	MaxTokens   int
	// JSON asks the endpoint for a strict JSON object reply. Endpoints are free
	// to ignore it, so replies still go through ExtractObject.
	JSON bool
}

// Client talks to an OpenAI-compatible chat completions endpoint. Each Chat
// call is exactly one HTTP round trip; failures are returned, never retried.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLimiter overrides the request pacing limiter. A nil limiter disables pacing.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// NewClient constructs an inference client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:            strings.TrimSpace(cfg.APIKey),
			BaseURL:           strings.TrimSpace(cfg.BaseURL),
			Model:             strings.TrimSpace(cfg.Model),
			Referer:           strings.TrimSpace(cfg.Referer),
			Title:             strings.TrimSpace(cfg.Title),
			TimeoutSeconds:    cfg.TimeoutSeconds,
			RequestsPerMinute: cfg.RequestsPerMinute,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	if cfg.RequestsPerMinute > 0 {
		client.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Model reports the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Endpoint reports the fully resolved chat completions URL.
func (c *Client) Endpoint() (string, error) {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	if strings.HasSuffix(base, "/"+completionsPath) {
		return base, nil
	}
	return url.JoinPath(base, completionsPath)
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, summarizePayloadSnippet(e.Body))
}

// StatusCode extracts the HTTP status carried by a Chat error, if any.
func StatusCode(err error) (int, bool) {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	return 0, false
}

type emptyContentError struct {
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf(
		"empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.FinishReason,
		e.Refusal,
		e.Snippet,
	)
}

// Chat sends the messages and returns the best choice's text content.
//
// Transport failures, non-2xx statuses and undecodable envelopes are marked
// services.ErrExternalTool; a well-formed envelope without content is marked
// services.ErrMalformedResponse.
func (c *Client) Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	if len(messages) == 0 {
		return "", services.Wrap(services.ErrValidation, "llm", "chat", "at least one message required", nil)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	payload := chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSON {
		payload.ResponseFormat = map[string]string{"type": jsonResponseType}
	}
	completion, body, err := c.sendChatRequestOnce(ctx, payload)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", services.Wrap(services.ErrExternalTool, "llm", "chat", c.cfg.Model, err)
	}
	content, finishReason := extractCompletionPayload(completion)
	if content == "" {
		return "", services.Wrap(services.ErrMalformedResponse, "llm", "chat", c.cfg.Model, &emptyContentError{
			FinishReason: finishReason,
			Refusal:      extractCompletionRefusal(completion),
			Snippet:      summarizePayloadSnippet(string(body)),
		})
	}
	return content, nil
}

// HealthCheck issues a tiny JSON request to verify the endpoint and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	content, err := c.Chat(ctx, []Message{
		SystemMessage("You must respond with JSON only."),
		UserMessage(`Respond with {"ok":true}`),
	}, ChatOptions{Temperature: 0, MaxTokens: 16, JSON: true})
	if err != nil {
		return err
	}
	obj, err := ExtractObject(content)
	if err != nil {
		return err
	}
	if !Truthy(obj["ok"]) {
		return services.Wrap(services.ErrMalformedResponse, "llm", "health", "unexpected response", nil)
	}
	return nil
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers mistakenly return the streaming schema (delta) even when
		// stream=false, so tolerate it as a fallback.
		Delta chatCompletionMessage `json:"delta"`
		// Legacy "text" field (completion-style responses).
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

func extractCompletionPayload(completion chatCompletionResponse) (string, string) {
	var finishReason string
	for _, choice := range completion.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if content := firstNonEmpty(
			choice.Message.Content,
			choice.Delta.Content,
			choice.Text,
		); content != "" {
			return content, finishReason
		}
	}
	return "", finishReason
}

func extractCompletionRefusal(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		if refusal := firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal); refusal != "" {
			return refusal
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func (c *Client) sendChatRequestOnce(ctx context.Context, payload chatCompletionRequest) (chatCompletionResponse, []byte, error) {
	var completion chatCompletionResponse
	endpoint, err := c.Endpoint()
	if err != nil {
		return completion, nil, fmt.Errorf("build url: %w", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return completion, nil, fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return completion, nil, fmt.Errorf("new request: %w", err)
	}
	apiKey := c.cfg.APIKey
	if apiKey == "" {
		apiKey = anonymousAPIKey
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completion, nil, fmt.Errorf("http error (timeout=%s): %w", c.timeoutDuration(), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return completion, nil, fmt.Errorf("read body (timeout=%s): %w", c.timeoutDuration(), err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return completion, body, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return completion, body, fmt.Errorf("decode response: %w (snippet: %s)", err, summarizePayloadSnippet(string(body)))
	}
	if completion.Error != nil {
		return completion, body, fmt.Errorf("api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	return completion, body, nil
}

func (c *Client) timeoutDuration() time.Duration {
	if c == nil || c.httpClient == nil {
		return defaultHTTPTimeout
	}
	if c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := replacer.Replace(trimmed)
	clean = strings.Join(strings.Fields(clean), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
