package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// started by an init func in the Google API client's tracing dependency
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

type step struct {
	text  string
	err   error
	block bool // wait for ctx instead of answering
}

type fakeProvider struct {
	mu     sync.Mutex
	steps  []step
	calls  int
	models []string
}

func (p *fakeProvider) Send(ctx context.Context, model, prompt string) (string, error) {
	p.mu.Lock()
	i := p.calls
	p.calls++
	p.models = append(p.models, model)
	s := p.steps[len(p.steps)-1]
	if i < len(p.steps) {
		s = p.steps[i]
	}
	p.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.text, s.err
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type recordingSleeper struct {
	delays []time.Duration
	err    error
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return s.err
}

func noJitter(time.Duration) time.Duration { return 0 }

func newTestClient(t *testing.T, p Provider, s *recordingSleeper, cfg Config) *Client {
	return NewClient(p, cfg,
		WithLogger(zaptest.NewLogger(t)),
		WithSleeper(s.Sleep),
		WithJitter(noJitter),
	)
}

func serverError() error { return &Error{Kind: KindServerError, Message: "503"} }

func TestGenerateRetriesServerErrors(t *testing.T) {
	p := &fakeProvider{steps: []step{
		{err: serverError()},
		{err: serverError()},
		{text: `{"ok":true}`},
	}}
	s := &recordingSleeper{}
	c := newTestClient(t, p, s, DefaultConfig())

	text, err := c.Generate(context.Background(), "model-a", "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)
	assert.Equal(t, 3, p.Calls())
	require.Len(t, s.delays, 2)
	assert.Equal(t, 500*time.Millisecond, s.delays[0])
	assert.Equal(t, time.Second, s.delays[1])
	assert.LessOrEqual(t, s.delays[0], s.delays[1])
	assert.Equal(t, []string{"model-a", "model-a", "model-a"}, p.models)
}

func TestGenerateDelaysNonDecreasingWithJitter(t *testing.T) {
	p := &fakeProvider{steps: []step{
		{err: serverError()},
		{err: serverError()},
		{text: "done"},
	}}
	s := &recordingSleeper{}
	c := NewClient(p, DefaultConfig(), WithSleeper(s.Sleep))

	_, err := c.Generate(context.Background(), "m", "p")
	require.NoError(t, err)
	require.Len(t, s.delays, 2)
	assert.LessOrEqual(t, s.delays[0], s.delays[1])
	assert.GreaterOrEqual(t, s.delays[0], 500*time.Millisecond)
	assert.Less(t, s.delays[0], 750*time.Millisecond)
}

func TestGenerateOtherIsNotRetried(t *testing.T) {
	p := &fakeProvider{steps: []step{{err: errors.New("bad request")}}}
	s := &recordingSleeper{}
	c := newTestClient(t, p, s, DefaultConfig())

	_, err := c.Generate(context.Background(), "m", "p")
	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, KindOther, ge.Kind)
	assert.Equal(t, 1, p.Calls())
	assert.Empty(t, s.delays)
}

func TestGenerateEmptyTextIsOther(t *testing.T) {
	p := &fakeProvider{steps: []step{{text: "  \n"}}}
	s := &recordingSleeper{}
	c := newTestClient(t, p, s, DefaultConfig())

	_, err := c.Generate(context.Background(), "m", "p")
	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, KindOther, ge.Kind)
	assert.Equal(t, 1, p.Calls())
}

func TestGenerateTimeoutIsNotRetried(t *testing.T) {
	p := &fakeProvider{steps: []step{{block: true}}}
	s := &recordingSleeper{}
	cfg := DefaultConfig()
	cfg.Timeout = 20 * time.Millisecond
	c := newTestClient(t, p, s, cfg)

	start := time.Now()
	_, err := c.Generate(context.Background(), "m", "p")
	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, KindTimeout, ge.Kind)
	assert.Equal(t, 1, p.Calls())
	assert.Empty(t, s.delays)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGenerateExhaustsRetries(t *testing.T) {
	p := &fakeProvider{steps: []step{{err: &Error{Kind: KindRateLimited, Message: "429"}}}}
	s := &recordingSleeper{}
	c := newTestClient(t, p, s, DefaultConfig())

	_, err := c.Generate(context.Background(), "m", "p")
	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, KindRateLimited, ge.Kind)
	assert.Equal(t, 3, p.Calls())
	assert.Len(t, s.delays, 2)
}

func TestGenerateUsesProviderHint(t *testing.T) {
	p := &fakeProvider{steps: []step{
		{err: &Error{Kind: KindRateLimited, Message: "429", RetryAfter: 3 * time.Second}},
		{err: &Error{Kind: KindRateLimited, Message: "429", RetryAfter: time.Minute}},
		{text: "ok"},
	}}
	s := &recordingSleeper{}
	c := newTestClient(t, p, s, DefaultConfig())

	_, err := c.Generate(context.Background(), "m", "p")
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{3 * time.Second, 8 * time.Second}, s.delays)
}

func TestGenerateCancelledDuringBackoff(t *testing.T) {
	p := &fakeProvider{steps: []step{{err: serverError()}}}
	s := &recordingSleeper{err: context.Canceled}
	c := newTestClient(t, p, s, DefaultConfig())

	_, err := c.Generate(context.Background(), "m", "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, p.Calls())
}

func TestGenerateParentCancelled(t *testing.T) {
	p := &fakeProvider{steps: []step{{block: true}}}
	s := &recordingSleeper{}
	c := newTestClient(t, p, s, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err := c.Generate(ctx, "m", "p")
	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, KindOther, ge.Kind)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.delays)
}

func TestNewClientNormalizesConfig(t *testing.T) {
	c := NewClient(&fakeProvider{}, Config{MaxRetries: -1})
	assert.Equal(t, 0, c.cfg.MaxRetries)
	assert.Equal(t, DefaultConfig().Timeout, c.cfg.Timeout)
}

func TestNextDelay(t *testing.T) {
	const (
		base = 500 * time.Millisecond
		cap_ = 8 * time.Second
	)
	tests := []struct {
		name    string
		attempt int
		jitter  time.Duration
		hint    time.Duration
		want    time.Duration
	}{
		{"first", 0, 0, 0, 500 * time.Millisecond},
		{"second", 1, 0, 0, time.Second},
		{"third with jitter", 2, 100 * time.Millisecond, 0, 2100 * time.Millisecond},
		{"hint wins", 0, 200 * time.Millisecond, 2 * time.Second, 2 * time.Second},
		{"hint capped", 0, 0, time.Minute, cap_},
		{"computed capped", 6, 0, 0, cap_},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextDelay(tt.attempt, base, tt.jitter, tt.hint, cap_))
		})
	}
	assert.Equal(t, 32*time.Second, NextDelay(6, base, 0, 0, 0))
}

func TestErrorRetryable(t *testing.T) {
	assert.True(t, (&Error{Kind: KindRateLimited}).Retryable())
	assert.True(t, (&Error{Kind: KindServerError}).Retryable())
	assert.False(t, (&Error{Kind: KindTimeout}).Retryable())
	assert.False(t, (&Error{Kind: KindOther}).Retryable())
	assert.Equal(t, "generation timeout: slow", (&Error{Kind: KindTimeout, Message: "slow"}).Error())
}
