package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/corpix/uarand"

	apperrors "github.com/abitbot/itmo-tgbot-go/internal/errors"
)

// maxDocumentSize caps downloaded document bodies (10 MiB). Academic plan
// PDFs are well under 1 MiB, anything larger indicates a wrong URL.
const maxDocumentSize = 10 << 20

// Client is an HTTP client for admission site retrieval with retries
type Client struct {
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a new scraper client
func NewClient(timeout time.Duration, maxRetries int) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxRetries: maxRetries,
		retryDelay: 1 * time.Second,
	}
}

// GetBody performs a GET request with retries and returns the response body.
// 4xx responses are permanent and not retried, 5xx responses are retried
// with exponential backoff.
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	err := RetryWithBackoff(ctx, c.maxRetries, c.retryDelay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		req.Header.Set("User-Agent", uarand.GetRandom())
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf,*/*;q=0.8")
		req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return apperrors.NewScrapeError(url, 0, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return Permanent(apperrors.NewScrapeError(url, resp.StatusCode, fmt.Errorf("client error")))
		}
		if resp.StatusCode != http.StatusOK {
			return apperrors.NewScrapeError(url, resp.StatusCode, fmt.Errorf("unexpected status"))
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
		if err != nil {
			return apperrors.NewScrapeError(url, resp.StatusCode, fmt.Errorf("read body: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return body, nil
}
