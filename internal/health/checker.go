// Package health probes a URL until it answers with the expected status or
// the attempts run out. It is deliberately a dumb predicate; what a result
// means for the deployment is the orchestrator's call.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Result of a health check.
type Result string

const (
	Healthy   Result = "healthy"
	Unhealthy Result = "unhealthy"
	Skipped   Result = "skipped"
)

// Options for one check. Retries is the total number of attempts.
type Options struct {
	URL            string
	ExpectedStatus int
	Retries        int
	Interval       time.Duration
	RequestTimeout time.Duration
}

type Checker struct {
	client *http.Client
	logger zerolog.Logger
}

func NewChecker(logger zerolog.Logger) *Checker {
	return &Checker{
		// Per-attempt timeouts come from Options; the client itself has none.
		client: &http.Client{},
		logger: logger.With().Str("component", "health").Logger(),
	}
}

// Check probes opts.URL up to opts.Retries times. Connection errors and wrong
// statuses both count as failed attempts; the first expected status wins.
func (c *Checker) Check(ctx context.Context, opts Options) Result {
	expected := opts.ExpectedStatus
	if expected == 0 {
		expected = http.StatusOK
	}
	attempts := opts.Retries
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		status, err := c.probe(ctx, opts.URL, opts.RequestTimeout)
		if err == nil && status == expected {
			c.logger.Debug().Str("url", opts.URL).Int("attempt", attempt).Msg("healthy")
			return Healthy
		}

		ev := c.logger.Debug().Str("url", opts.URL).Int("attempt", attempt).Int("of", attempts)
		if err != nil {
			ev.Err(err).Msg("probe failed")
		} else {
			ev.Int("status", status).Int("expected", expected).Msg("unexpected status")
		}

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return Unhealthy
			case <-time.After(opts.Interval):
			}
		}
	}

	return Unhealthy
}

func (c *Checker) probe(ctx context.Context, url string, timeout time.Duration) (int, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
