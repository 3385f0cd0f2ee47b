// Package provider holds the upstream market data adapters.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"stock-advisor/internal/domain"
)

const maxErrorBody = 512

// HTTPStatusError carries a non-2xx upstream response.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("status %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

type ClientOptions struct {
	Timeout         time.Duration
	RatePerSec      float64
	MaxRetries      int
	InitialInterval time.Duration
	MaxElapsed      time.Duration
}

// HTTPClient rate-limits outbound calls and retries transient failures.
type HTTPClient struct {
	http    *http.Client
	limiter *rate.Limiter
	opts    ClientOptions
	logger  zerolog.Logger
}

func NewHTTPClient(opts ClientOptions) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 5
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 300 * time.Millisecond
	}
	if opts.MaxElapsed <= 0 {
		opts.MaxElapsed = 30 * time.Second
	}
	burst := int(opts.RatePerSec)
	if burst < 1 {
		burst = 1
	}
	return &HTTPClient{
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), burst),
		opts:    opts,
		logger:  log.With().Str("component", "http_client").Logger(),
	}
}

func (c *HTTPClient) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.InitialInterval
	b.MaxElapsedTime = c.opts.MaxElapsed
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.opts.MaxRetries)), ctx)
}

// GetJSON issues a GET and decodes a 2xx body into out. Failures come back as
// *domain.UpstreamProviderError tagged with provider and op.
func (c *HTTPClient) GetJSON(ctx context.Context, provider, op, url string, headers map[string]string, out any) error {
	attempt := 0
	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.logger.Debug().Err(err).Str("provider", provider).Int("attempt", attempt).Msg("request failed")
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
			if !retryable(resp.StatusCode) {
				return backoff.Permanent(statusErr)
			}
			c.logger.Debug().Int("status", resp.StatusCode).Str("provider", provider).Int("attempt", attempt).Msg("retrying upstream")
			return statusErr
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	if err := backoff.Retry(operation, c.policy(ctx)); err != nil {
		c.logger.Warn().Err(err).Str("provider", provider).Str("op", op).Int("attempts", attempt).Msg("upstream call failed")
		return &domain.UpstreamProviderError{Provider: provider, Op: op, Err: err}
	}
	return nil
}
