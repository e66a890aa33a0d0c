// Package probe polls a URL until the service behind it answers, so the
// loader can be ordered after the catalog service in compose-style setups.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Sternrassler/animals-etl-client/pkg/logging"
)

// ErrNotReady is returned when the service never answered with a good
// status before the deadline.
var ErrNotReady = errors.New("service not ready before deadline")

// Defaults applied by WaitForReady when the corresponding Options field is
// zero.
const (
	DefaultTimeout      = 180 * time.Second
	DefaultInterval     = time.Second
	DefaultProbeTimeout = 3 * time.Second
)

// Options tunes the polling loop.
type Options struct {
	// Timeout bounds the whole wait.
	Timeout time.Duration
	// Interval is the pause between probes.
	Interval time.Duration
	// ProbeTimeout bounds one probe request.
	ProbeTimeout time.Duration
}

// WaitForReady polls url until it answers with a status below 400 or the
// deadline passes. A failed probe, including a 4xx or 5xx answer, just
// means "not yet"; only the deadline or the caller's context ends the wait.
func WaitForReady(ctx context.Context, url string, opts Options) error {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}

	base, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("invalid probe url %q: %w", url, err)
	}

	logger := logging.NewLogger("probe")
	logger.Info().
		Str("url", url).
		Dur("timeout", opts.Timeout).
		Msg("Waiting for service")

	client := &http.Client{Timeout: opts.ProbeTimeout}
	deadline := time.Now().Add(opts.Timeout)

	for attempt := 1; time.Now().Before(deadline); attempt++ {
		status, err := probeOnce(ctx, client, base)
		if err == nil && status >= 200 && status < 400 {
			logger.Info().
				Int("status", status).
				Int("attempt", attempt).
				Msg("Service is up")
			return nil
		}
		event := logger.Debug().Int("attempt", attempt)
		if err != nil {
			event = event.Err(err)
		} else {
			event = event.Int("status", status)
		}
		event.Msg("Service not ready yet")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrNotReady, ctx.Err())
		case <-time.After(opts.Interval):
		}
	}

	return fmt.Errorf("%w after %s", ErrNotReady, opts.Timeout)
}

func probeOnce(ctx context.Context, client *http.Client, base *http.Request) (int, error) {
	resp, err := client.Do(base.Clone(ctx))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
