package resilient

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"

	"github.com/bryanwahyu/automaton-compliance/internal/domain/ai"
)

// Config for retry + timeout around an oracle.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Timeout      time.Duration
}

// DefaultConfig returns the settings used when a field is left zero.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  2,
		InitialDelay: time.Second,
		Timeout:      90 * time.Second,
	}
}

// Oracle wraps another oracle with retries and an overall deadline covering all
// attempts.
type Oracle struct {
	inner ai.Oracle
	cfg   Config
}

func New(inner ai.Oracle, cfg Config) *Oracle {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Oracle{inner: inner, cfg: cfg}
}

var _ ai.Oracle = (*Oracle)(nil)

func (o *Oracle) Invoke(ctx context.Context, prompt string) (string, error) {
	r := retry.New[string](retry.Config{
		MaxAttempts:   o.cfg.MaxAttempts,
		InitialDelay:  o.cfg.InitialDelay,
		BackoffPolicy: retry.BackoffExponential,
	})
	t := timeout.New[string](timeout.Config{
		DefaultTimeout: o.cfg.Timeout,
	})

	return t.Execute(ctx, o.cfg.Timeout, func(ctx context.Context) (string, error) {
		return r.Do(ctx, func(ctx context.Context) (string, error) {
			return o.inner.Invoke(ctx, prompt)
		})
	})
}
