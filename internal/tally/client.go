package tally

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ShashankBhutiya/TallyAI/internal/model"
)

// ClientConfig holds transport settings for the Tally HTTP server.
type ClientConfig struct {
	URL     string
	Timeout time.Duration // per-request timeout; default 20s
	Retries int           // extra attempts for connection/timeout failures
	Backoff time.Duration // base retry delay, doubled per attempt; default 500ms
}

// Client posts import-data documents to a Tally HTTP server. Transport
// failures are classified into messages rather than returned as errors;
// connection and timeout failures are retried with exponential backoff,
// protocol-level (non-2xx) failures are not.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	enc    *Encoder
	logger *slog.Logger
}

// NewClient creates a Client around enc.
func NewClient(cfg ClientConfig, enc *Encoder, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{},
		enc:    enc,
		logger: logger,
	}
}

// CreateLedger creates or updates a ledger under the encoder's company.
func (c *Client) CreateLedger(ctx context.Context, l Ledger) (bool, string) {
	doc, err := c.enc.CreateLedger(l)
	if err != nil {
		return false, fmt.Sprintf("encoding ledger request: %v", err)
	}
	ok, resp := c.Send(ctx, doc)
	if !ok {
		return false, resp
	}
	return true, fmt.Sprintf("Ledger '%s' created/updated successfully", l.Name)
}

// ImportVouchers posts one Receipt voucher per item.
func (c *Client) ImportVouchers(ctx context.Context, items []model.LineItem, partyLedger, contraLedger string) (bool, string) {
	doc, err := c.enc.Vouchers(items, partyLedger, contraLedger)
	if err != nil {
		return false, fmt.Sprintf("encoding vouchers: %v", err)
	}
	ok, resp := c.Send(ctx, doc)
	if !ok {
		return false, resp
	}
	return true, fmt.Sprintf("Successfully imported %d vouchers", len(items))
}

// Send posts a document as UTF-8 XML. It never returns an error: the
// boolean reports success and the message is either the raw response
// body or a human-readable failure description.
func (c *Client) Send(ctx context.Context, doc []byte) (bool, string) {
	for attempt := 0; ; attempt++ {
		ok, msg, retryable := c.post(ctx, doc)
		if ok {
			return true, msg
		}
		if !retryable || attempt >= c.cfg.Retries {
			return false, msg
		}

		delay := c.cfg.Backoff << attempt
		c.logger.Warn("tally request failed, retrying",
			"attempt", attempt+1, "delay", delay, "reason", msg)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false, msg
		}
	}
}

func (c *Client) post(ctx context.Context, doc []byte) (ok bool, msg string, retryable bool) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(doc))
	if err != nil {
		return false, fmt.Sprintf("Error communicating with Tally: %v", err), false
	}
	req.Header.Set("Content-Type", "application/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return false, fmt.Sprintf("Request to Tally timed out after %s.", c.cfg.Timeout), true
		}
		return false, "Failed to connect to Tally. Please ensure Tally is running and HTTP Server is enabled.", true
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Sprintf("Error communicating with Tally: %v", err), false
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Sprintf("Error communicating with Tally: unexpected status %s", resp.Status), false
	}
	return true, string(body), false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
