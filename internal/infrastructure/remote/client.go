package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/v42069/kafka-payments/internal/pipeline"
)

// Client calls the remote validation service synchronously. The HTTP client
// carries its own connect/read timeout; a timeout counts as a transport
// failure and is retryable.
type Client struct {
	httpClient *http.Client
	url        string
	logger     *slog.Logger
}

func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		logger:     logger,
	}
}

// Validate performs the remote call. 200 means success; 5xx and transport
// errors are retryable; any other status is not.
func (c *Client) Validate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return pipeline.NotRetryable(fmt.Errorf("build remote request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pipeline.Retryable(fmt.Errorf("call remote service: %w", err))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusOK:
		c.logger.Info("received response from remote service", "body", string(body))
		return nil
	case resp.StatusCode >= 500:
		return pipeline.Retryable(fmt.Errorf("remote service unavailable: status %d", resp.StatusCode))
	default:
		return pipeline.NotRetryable(fmt.Errorf("remote service rejected request: status %d", resp.StatusCode))
	}
}
