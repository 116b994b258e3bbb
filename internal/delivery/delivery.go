package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"linkstat/internal/scraper"
)

// ErrWebhookDeliveryFailed matches every *WebhookError.
var ErrWebhookDeliveryFailed = errors.New("webhook delivery failed")

// WebhookError reports a non-2xx response from the ingestion endpoint.
type WebhookError struct {
	Status int
	Body   string
}

func (e *WebhookError) Error() string {
	return fmt.Sprintf("webhook delivery failed: status %d: %s", e.Status, e.Body)
}

func (e *WebhookError) Is(target error) bool {
	return target == ErrWebhookDeliveryFailed
}

// Options configures the HTTP client.
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// Client posts batches to one webhook endpoint.
type Client struct {
	endpoint string
	http     *resty.Client
}

// New builds a Client. Retries are disabled: a failed delivery fails the run.
func New(endpoint string, opts Options) *Client {
	client := resty.New()
	client.SetRetryCount(0)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		zerolog.Ctx(res.Request.Context()).Debug().
			Str("method", res.Request.Method).
			Str("url", res.Request.URL).
			Int("status", res.StatusCode()).
			Dur("elapsed", res.Time()).
			Msg("Webhook responded")
		return nil
	})

	return &Client{
		endpoint: endpoint,
		http:     client,
	}
}

// Deliver sends batch as one JSON POST and returns the response body.
func (c *Client) Deliver(ctx context.Context, batch scraper.Batch) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(batch).
		Post(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to post batch: %w", err)
	}

	body := string(res.Body())
	if !res.IsSuccess() {
		return "", &WebhookError{Status: res.StatusCode(), Body: body}
	}

	zerolog.Ctx(ctx).Info().
		Str("date", batch.DateISO()).
		Int("items", batch.Len()).
		Int("status", res.StatusCode()).
		Msg("Batch delivered")
	return body, nil
}
