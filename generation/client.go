// Package generation calls the language model provider with a per-attempt timeout
// and bounded retries for transient failures.
package generation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Provider sends a prompt to a model and returns its raw text output.
type Provider interface {
	Send(ctx context.Context, model, prompt string) (string, error)
}

// Kind classifies a generation failure.
type Kind int

const (
	KindOther Kind = iota
	KindTimeout
	KindRateLimited
	KindServerError
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	default:
		return "other"
	}
}

// Error is the failure returned by Generate.
type Error struct {
	Kind    Kind
	Message string
	// RetryAfter is the provider's retry hint, zero when none was given.
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generation %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindRateLimited || e.Kind == KindServerError
}

// Config bounds the time spent on one Generate call.
type Config struct {
	Timeout    time.Duration // per attempt
	MaxRetries int
	BaseDelay  time.Duration
	MaxJitter  time.Duration
	MaxDelay   time.Duration // caps computed delays and provider hints
}

// DefaultConfig returns 20s attempts, 2 retries and 500ms doubling backoff.
func DefaultConfig() Config {
	return Config{
		Timeout:    20 * time.Second,
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxJitter:  250 * time.Millisecond,
		MaxDelay:   8 * time.Second,
	}
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Client wraps a Provider with timeout and retry handling.
type Client struct {
	provider Provider
	cfg      Config
	logger   *zap.Logger
	sleep    Sleeper
	jitter   func(limit time.Duration) time.Duration
}

// Option configures a Client.
type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

func WithJitter(j func(limit time.Duration) time.Duration) Option {
	return func(c *Client) { c.jitter = j }
}

// NewClient creates a Client. A negative MaxRetries is treated as zero.
func NewClient(p Provider, cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	c := &Client{
		provider: p,
		cfg:      cfg,
		logger:   zap.NewNop(),
		sleep:    sleepContext,
		jitter:   randomJitter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate returns the model's raw output for prompt. Failures are *Error.
// Only rate-limited and server errors are retried; attempts never overlap.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	var lastErr *Error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		text, err := c.attempt(ctx, model, prompt)
		if err == nil {
			if attempt > 0 {
				c.logger.Info("generation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil || !err.Retryable() || attempt == c.cfg.MaxRetries {
			break
		}

		delay := NextDelay(attempt, c.cfg.BaseDelay, c.jitter(c.cfg.MaxJitter), err.RetryAfter, c.cfg.MaxDelay)
		c.logger.Warn("generation attempt failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Stringer("kind", err.Kind),
			zap.Duration("delay", delay),
			zap.Error(err))
		if serr := c.sleep(ctx, delay); serr != nil {
			return "", &Error{Kind: KindOther, Message: "cancelled during backoff", Err: errors.Join(serr, err)}
		}
	}
	return "", lastErr
}

func (c *Client) attempt(ctx context.Context, model, prompt string) (string, *Error) {
	actx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := c.provider.Send(actx, model, prompt)
		done <- result{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", classify(ctx, res.err)
		}
		if strings.TrimSpace(res.text) == "" {
			return "", &Error{Kind: KindOther, Message: "empty response"}
		}
		return res.text, nil
	case <-actx.Done():
		if err := ctx.Err(); err != nil {
			return "", &Error{Kind: KindOther, Message: "request cancelled", Err: err}
		}
		return "", &Error{Kind: KindTimeout, Message: fmt.Sprintf("no response within %s", c.cfg.Timeout), Err: actx.Err()}
	}
}

// classify turns a provider error into an *Error. Providers usually classify
// their own SDK errors; anything unrecognised is KindOther.
func classify(parent context.Context, err error) *Error {
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return &Error{Kind: KindTimeout, Message: err.Error(), Err: err}
	}
	return &Error{Kind: KindOther, Message: err.Error(), Err: err}
}

// NextDelay returns the wait before retry number attempt+1. A positive hint wins
// over the computed base*2^attempt+jitter; both are capped at ceiling when it is set.
func NextDelay(attempt int, base, jitter, hint, ceiling time.Duration) time.Duration {
	d := hint
	if d <= 0 {
		d = base<<uint(attempt) + jitter
	}
	if ceiling > 0 && d > ceiling {
		d = ceiling
	}
	return d
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(limit)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
