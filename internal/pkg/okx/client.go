// Package okx verifies USDT deposits against the OKX deposit-history API.
package okx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"

	"github.com/mxi-labs/presale/internal/pkg/env"
)

const (
	defaultBaseURL        = "https://www.okx.com"
	depositHistoryPath    = "/api/v5/asset/deposit-history"
	defaultAsset          = "USDT"
	defaultMaxAttempts    = 3
	defaultBaseDelay      = 1000 * time.Millisecond
	defaultAttemptTimeout = 30 * time.Second
)

// ManualVerificationRequired is reported when no provider credentials are set.
const ManualVerificationRequired = "Manual verification required: OKX API credentials not configured"

// VerificationResult describes the outcome of a deposit lookup. Verified is
// false whenever Error is set.
type VerificationResult struct {
	Verified bool
	Amount   *decimal.Decimal
	Error    string
}

type Client struct {
	APIKey     string
	SecretKey  string
	Passphrase string
	BaseURL    string
	Asset      string

	MaxAttempts    int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration

	HTTPClient *http.Client
	// Sleep waits between attempts; replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// requestError is a failed provider call. Retryable marks 5xx, 429 and
// network level failures.
type requestError struct {
	StatusCode int
	Message    string
	Retryable  bool
}

func (e *requestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("okx request failed: status=%d %s", e.StatusCode, e.Message)
	}
	return "okx request failed: " + e.Message
}

func NewClientFromEnv() *Client {
	return &Client{
		APIKey:         strings.TrimSpace(env.GetEnv("OKX_API_KEY", "")),
		SecretKey:      strings.TrimSpace(env.GetEnv("OKX_SECRET_KEY", "")),
		Passphrase:     strings.TrimSpace(env.GetEnv("OKX_PASSPHRASE", "")),
		BaseURL:        strings.TrimSpace(env.GetEnv("OKX_BASE_URL", defaultBaseURL)),
		Asset:          strings.TrimSpace(env.GetEnv("PRESALE_ASSET", defaultAsset)),
		MaxAttempts:    defaultMaxAttempts,
		BaseDelay:      defaultBaseDelay,
		AttemptTimeout: defaultAttemptTimeout,
		HTTPClient:     &http.Client{},
	}
}

// IsConfigured reports whether all provider credentials are present.
func (c *Client) IsConfigured() bool {
	return c.APIKey != "" && c.SecretKey != "" && c.Passphrase != ""
}

// VerifyDeposit checks that txID is a credited deposit of expectedAmount
// (within 1%) to expectedDestination. Provider failures never surface as
// errors; they are reported as an unverified result.
func (c *Client) VerifyDeposit(ctx context.Context, txID string, expectedAmount decimal.Decimal, expectedDestination string) VerificationResult {
	if !c.IsConfigured() {
		return VerificationResult{Error: ManualVerificationRequired}
	}

	records, err := c.fetchWithRetry(ctx, txID)
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) && !reqErr.Retryable {
			return VerificationResult{Error: reqErr.Message}
		}
		return VerificationResult{Error: "Verification provider unavailable: " + err.Error()}
	}

	return matchDeposit(records, txID, expectedAmount, expectedDestination, c.asset())
}

func (c *Client) fetchWithRetry(ctx context.Context, txID string) ([]depositRecord, error) {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		records, err := c.fetchDeposits(ctx, txID)
		if err == nil {
			return records, nil
		}
		lastErr = err

		var reqErr *requestError
		if errors.As(err, &reqErr) && !reqErr.Retryable {
			return nil, err
		}
		if attempt == attempts-1 {
			break
		}

		delay := c.backoff(attempt)
		log.Warnf("[OKX] Attempt %d/%d for tx %s failed, retrying in %s: %v", attempt+1, attempts, txID, delay, err)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// backoff returns 2^attempt * BaseDelay for a zero-based attempt number.
func (c *Client) backoff(attempt int) time.Duration {
	base := c.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}
	return base * time.Duration(1<<attempt)
}

func (c *Client) fetchDeposits(ctx context.Context, txID string) ([]depositRecord, error) {
	timeout := c.AttemptTimeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	q := url.Values{}
	q.Set("ccy", c.asset())
	q.Set("txId", txID)
	requestPath := depositHistoryPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, strings.TrimRight(c.baseURL(), "/")+requestPath, nil)
	if err != nil {
		return nil, &requestError{Message: err.Error()}
	}
	timestamp := FormatTimestamp(c.now())
	req.Header.Set("OK-ACCESS-KEY", c.APIKey)
	req.Header.Set("OK-ACCESS-SIGN", Sign(timestamp, http.MethodGet, requestPath, "", c.SecretKey))
	req.Header.Set("OK-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("OK-ACCESS-PASSPHRASE", c.Passphrase)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &requestError{Message: err.Error(), Retryable: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &requestError{StatusCode: resp.StatusCode, Message: "read provider response: " + err.Error(), Retryable: true}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &requestError{
			StatusCode: resp.StatusCode,
			Message:    providerMessage(body, resp.Status),
			Retryable:  resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
	}

	var out depositHistoryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &requestError{StatusCode: resp.StatusCode, Message: "invalid provider response: " + err.Error()}
	}
	if out.Code != "" && out.Code != "0" {
		return nil, &requestError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("OKX error %s: %s", out.Code, out.Msg)}
	}
	return out.Data, nil
}

func providerMessage(body []byte, fallback string) string {
	var payload struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Msg) != "" {
		return payload.Msg
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return fallback
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return defaultBaseURL
	}
	return c.BaseURL
}

func (c *Client) asset() string {
	if c.Asset == "" {
		return defaultAsset
	}
	return c.Asset
}
