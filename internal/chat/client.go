package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/soundleap/soundleap-cli/internal/config"
)

const (
	maxResponseBody = 10 << 20

	breakerMaxFailures uint32 = 3
	breakerTimeout            = 30 * time.Second
	breakerInterval           = 60 * time.Second
)

var (
	ErrRateLimit   = errors.New("rate limited")
	ErrAuthInvalid = errors.New("invalid API key")
	ErrEmptyAnswer = errors.New("empty answer")
)

// Client asks the FAQ assistant questions over an OpenAI compatible
// chat/completions endpoint (OpenRouter by default).
type Client struct {
	baseURL      string
	model        string
	apiKey       string
	systemPrompt string

	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
	logger  *slog.Logger
}

// refererTransport adds the attribution headers OpenRouter asks for.
type refererTransport struct {
	base http.RoundTripper
}

func (t *refererTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("HTTP-Referer", "https://soundleap.nl")
	clone.Header.Set("X-Title", "soundleap")
	return t.base.RoundTrip(clone)
}

// NewClient builds a chat client from config.
func NewClient(cfg config.ChatConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerMin > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMin) / 60.0)
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "chat",
		MaxRequests: 1,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		// bad credentials will not heal by waiting
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrAuthInvalid) || errors.Is(err, context.Canceled)
		},
	})

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		client: &http.Client{
			Timeout:   timeout,
			Transport: &refererTransport{base: http.DefaultTransport},
		},
		limiter: rate.NewLimiter(limit, 1),
		breaker: cb,
		logger:  logger,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Ask sends the system prompt and question and returns the answer text.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.New("empty question")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRateLimit, err)
	}

	answer, err := c.breaker.Execute(func() (string, error) {
		return c.complete(ctx, question)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("chat service unavailable (circuit open): %w", err)
	}
	return answer, err
}

func (c *Client) complete(ctx context.Context, question string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: question},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("chat completion", "model", c.model, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return "", mapHTTPError(resp.StatusCode, data)
	}

	var out completionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("API error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyAnswer
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func mapHTTPError(statusCode int, body []byte) error {
	detail := fmt.Sprintf("API error %d: %s", statusCode, strings.TrimSpace(string(body)))

	switch {
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimit, detail)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthInvalid, detail)
	default:
		return errors.New(detail)
	}
}
