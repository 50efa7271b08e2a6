package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/logging"
)

const (
	httpTimeout       = 15 * time.Second
	challengeTimeout  = 20 * time.Second
	browserNavTimeout = 30 * time.Second
	playwrightSettle  = 3 * time.Second
	rodSettle         = 2 * time.Second
	maxRedirects      = 5
	maxPageBytes      = 10 << 20 // 10 MB
	challengeAttempts = 3
	challengeBudget   = 30 * time.Second
)

type settings struct {
	logger         logging.Logger
	blockPrivate   bool
	escalateShells bool
	challengeDelay time.Duration
	timeout        time.Duration
	settle         time.Duration
	browserBin     string
	driverDir      string
}

// Option configures a strategy. Options a strategy has no use for are ignored.
type Option func(*settings)

func WithLogger(logger logging.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithBlockPrivateNetworks refuses destinations that resolve to loopback,
// private or link-local addresses. On by default.
func WithBlockPrivateNetworks(enabled bool) Option {
	return func(s *settings) { s.blockPrivate = enabled }
}

// WithShellEscalation makes the HTTP strategy fail with ErrClientShell on
// pages that need a browser to render.
func WithShellEscalation(enabled bool) Option {
	return func(s *settings) { s.escalateShells = enabled }
}

// WithChallengeDelay sets the wait between challenge re-requests.
func WithChallengeDelay(d time.Duration) Option {
	return func(s *settings) { s.challengeDelay = d }
}

// WithTimeout overrides the strategy's request or navigation timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithSettle overrides how long browser strategies let scripts run after
// DOMContentLoaded.
func WithSettle(d time.Duration) Option {
	return func(s *settings) { s.settle = d }
}

// WithBrowserBin points the browser strategies at a Chromium executable
// instead of the one their drivers manage.
func WithBrowserBin(path string) Option {
	return func(s *settings) { s.browserBin = path }
}

// WithDriverDirectory sets where playwright looks for its driver.
func WithDriverDirectory(dir string) Option {
	return func(s *settings) { s.driverDir = dir }
}

func newSettings(timeout, settle time.Duration, opts []Option) settings {
	s := settings{
		blockPrivate:   true,
		challengeDelay: 5 * time.Second,
		timeout:        timeout,
		settle:         settle,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logging.NewLogger()
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// observe records one strategy attempt.
func observe(m Method, start time.Time, err error) {
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrClientShell):
		status = "shell"
	case errors.Is(err, ErrChallengeUnsolved):
		status = "challenge"
	default:
		status = "error"
	}
	fetchAttemptsTotal.WithLabelValues(m.String(), status).Inc()
	fetchDuration.WithLabelValues(m.String()).Observe(time.Since(start).Seconds())
}
