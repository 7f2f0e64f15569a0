// Package delivery pushes mapped products to the downstream product system.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mercadoapps/filemonitor/internal/entity"
)

// Error is a delivery failure: transport-level or a non-2xx response. It is
// reported distinctly from parse and mapping failures.
type Error struct {
	Status int
	Body   string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("product delivery failed: %v", e.Cause)
	}
	return fmt.Sprintf("product delivery failed: status %d: %s", e.Status, e.Body)
}

func (e *Error) Unwrap() error { return e.Cause }

// Sender is the behavior the orchestrator depends on.
type Sender interface {
	SendProducts(ctx context.Context, products []entity.Product) error
}

// Client posts product batches over HTTP.
type Client struct {
	http   *resty.Client
	path   string
	logger *slog.Logger
}

func New(baseURL, productsPath string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	c := resty.New().SetBaseURL(baseURL).SetTimeout(timeout)
	return &Client{http: c, path: productsPath, logger: logger}
}

// SendProducts posts the batch as JSON and expects a 2xx response.
func (c *Client) SendProducts(ctx context.Context, products []entity.Product) error {
	c.logger.Info("delivering products", "count", len(products))

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(products).
		Post(c.path)
	if err != nil {
		return &Error{Cause: err}
	}
	if resp.IsError() {
		return &Error{Status: resp.StatusCode(), Body: resp.String()}
	}

	c.logger.Info("products delivered", "count", len(products), "status", resp.StatusCode())
	return nil
}
