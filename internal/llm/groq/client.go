package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"greenintellect-backend/internal/llm"
	"greenintellect-backend/internal/retry"
	"greenintellect-backend/internal/shared/metrics"
	"greenintellect-backend/internal/shared/telemetry"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.1-8b-instant"

	systemPrompt = "You are a professional sustainability and ESG analyst specializing in greenwashing detection. " +
		"Provide detailed, actionable analysis based on company scoring data. " +
		"Your analysis should be comprehensive, evidence-based, and suitable for investment decision-making. " +
		"Format your response in clear sections with headers and bullet points for readability."

	msgRateLimited  = "Groq API rate limit exceeded. Please try again in a few moments."
	msgUnauthorized = "Invalid Groq API key. Please check your configuration."
	msgMalformed    = "Invalid response format from Groq API"
	msgUnexpected   = "An unexpected error occurred while generating analysis."
)

// Config configures the Groq chat-completions client.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	MaxRetries  int
	Timeout     time.Duration
	HTTPClient  *http.Client
	Sleep       retry.SleepFunc
}

// Client implements llm.Client against Groq's OpenAI-compatible API.
type Client struct {
	apiKey      string
	model       string
	endpoint    string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	executor    retry.Executor
}

// NewClient constructs a Groq client. The API key is required.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GROQ_API_KEY is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:      cfg.APIKey,
		model:       model,
		endpoint:    base + "/chat/completions",
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		httpClient:  httpClient,
		executor: retry.Executor{
			MaxRetries: cfg.MaxRetries,
			Sleep:      cfg.Sleep,
			Retryable:  retryableStatus,
			Name:       "groq",
		},
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message *chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends the prompt with the analyst system message and returns the
// first choice's content.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}

	metrics.IncLLMRequest()
	start := time.Now()
	resp, err := c.executor.Do(ctx, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return c.httpClient.Do(req)
	})
	metrics.ObserveLLMDurationMs(metrics.SinceMillis(start))

	if err != nil {
		lerr := classify(err)
		metrics.AddLLMAttempts(lerr.Attempts)
		metrics.IncLLMFailure(string(lerr.Kind))
		telemetry.Error("llm.complete.failed", map[string]any{
			"model":    c.model,
			"kind":     string(lerr.Kind),
			"status":   lerr.Status,
			"attempts": lerr.Attempts,
			"error":    err.Error(),
		})
		return "", lerr
	}
	metrics.AddLLMAttempts(resp.Attempts)

	content, err := parseContent(resp.Body)
	if err != nil {
		metrics.IncLLMFailure(string(llm.KindMalformed))
		telemetry.Error("llm.complete.malformed", map[string]any{
			"model":    c.model,
			"attempts": resp.Attempts,
			"error":    err.Error(),
		})
		return "", &llm.Error{Kind: llm.KindMalformed, Status: resp.StatusCode, Message: msgMalformed, Attempts: resp.Attempts, Err: err}
	}
	telemetry.Info("llm.complete", map[string]any{
		"model":         c.model,
		"attempts":      resp.Attempts,
		"content_chars": len(content),
	})
	return content, nil
}

// retryableStatus narrows retries to throttling and server errors; other 4xx
// responses are configuration or request problems that will not heal.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func classify(err error) *llm.Error {
	var terr *retry.TransportError
	if !errors.As(err, &terr) {
		return &llm.Error{Kind: llm.KindTransport, Message: msgUnexpected, Err: err}
	}
	switch {
	case terr.StatusCode == 0:
		return &llm.Error{Kind: llm.KindTransport, Message: msgUnexpected, Attempts: terr.Attempts, Err: err}
	case terr.StatusCode == http.StatusTooManyRequests:
		return &llm.Error{Kind: llm.KindRateLimited, Status: terr.StatusCode, Message: msgRateLimited, Attempts: terr.Attempts, Err: err}
	case terr.StatusCode == http.StatusUnauthorized:
		return &llm.Error{Kind: llm.KindUnauthorized, Status: terr.StatusCode, Message: msgUnauthorized, Attempts: terr.Attempts, Err: err}
	default:
		detail := ""
		if terr.Response != nil {
			detail = providerMessage(terr.Response.Body)
		}
		msg := strings.TrimSpace(fmt.Sprintf("Groq API error: %s. %s", http.StatusText(terr.StatusCode), detail))
		return &llm.Error{Kind: llm.KindProvider, Status: terr.StatusCode, Message: msg, Attempts: terr.Attempts, Err: err}
	}
}

func providerMessage(body []byte) string {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error == nil {
		return ""
	}
	return strings.TrimSpace(parsed.Error.Message)
}

func parseContent(body []byte) (string, error) {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("groq response parse: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil {
		return "", fmt.Errorf("groq response missing choices")
	}
	content := parsed.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("groq response empty content")
	}
	return content, nil
}

var _ llm.Client = (*Client)(nil)
