package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

// DefaultBaseURL is the public SoundLeap game service.
const DefaultBaseURL = "https://www.cakelab.co.nl/ssa-server"

const (
	indexPath    = "/index.php"
	gameCodePath = "/gamecode.php"

	maxResponseBytes = 10 << 20

	breakerMaxFailures uint32 = 5
	breakerTimeout            = 30 * time.Second
	breakerInterval           = 60 * time.Second
)

// ErrGameNotFound is returned when the service has no game for a uid.
var ErrGameNotFound = errors.New("game not found")

// Client talks to the JSON game catalog.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
}

// NewClient creates a catalog client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "catalog",
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
		// a missing game is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrGameNotFound)
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		breaker:    cb,
		logger:     logger,
	}
}

// get fetches path with query through the circuit breaker.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, err
	}
	u.RawQuery = query.Encode()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		c.logger.Debug("catalog request", "url", u.String())
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request %s: %w", path, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrGameNotFound
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("catalog API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return data, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("catalog unavailable (circuit open): %w", err)
	}
	return body, err
}
