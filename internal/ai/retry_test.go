package ai

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
)

type scriptedBackend struct {
	errs    []error
	content string
	calls   int
}

func (s *scriptedBackend) Name() string { return "scripted" }

func (s *scriptedBackend) Chat(ctx context.Context, _ []Message, _ Params) (string, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return "", err
	}
	return s.content, nil
}

func stubWait(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	original := waitFor
	waitFor = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	t.Cleanup(func() { waitFor = original })
	return &waits
}

func transient() error {
	return FromStatus("scripted", http.StatusServiceUnavailable, "overloaded", nil)
}

func TestRetrierSucceedsOnFifthAttempt(t *testing.T) {
	waits := stubWait(t)

	b := &scriptedBackend{
		errs:    []error{transient(), transient(), transient(), transient()},
		content: `{"questions": []}`,
	}

	res := NewRetrier(0, zap.NewNop()).Call(context.Background(), b, []Message{{Role: RoleUser, Content: "hi"}}, Params{})
	if !res.OK {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Attempts != 5 || b.calls != 5 {
		t.Fatalf("expected 5 attempts, got %d (calls %d)", res.Attempts, b.calls)
	}
	if res.Reason != "ok" || res.Content != `{"questions": []}` {
		t.Fatalf("unexpected result: %+v", res)
	}

	if len(*waits) != 4 {
		t.Fatalf("expected 4 backoff waits, got %d", len(*waits))
	}

	// 0.5s, 1s, 2s, 4s with 25% jitter.
	base := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second, 4 * time.Second}
	for i, d := range *waits {
		lo := time.Duration(float64(base[i]) * 0.75)
		hi := time.Duration(float64(base[i]) * 1.25)
		if d < lo || d > hi {
			t.Fatalf("wait %d = %v outside [%v, %v]", i, d, lo, hi)
		}
	}
}

func TestRetrierCapsBackoff(t *testing.T) {
	waits := stubWait(t)

	errs := make([]error, 9)
	for i := range errs {
		errs[i] = transient()
	}
	b := &scriptedBackend{errs: errs}

	r := NewRetrier(10, zap.NewNop())
	r.Jitter = 0

	res := r.Call(context.Background(), b, nil, Params{})
	if !res.OK || res.Attempts != 10 {
		t.Fatalf("unexpected result: %+v", res)
	}
	for _, d := range *waits {
		if d > DefaultMaxInterval {
			t.Fatalf("backoff %v exceeds cap", d)
		}
	}
	if last := (*waits)[len(*waits)-1]; last != DefaultMaxInterval {
		t.Fatalf("expected capped interval, got %v", last)
	}
}

func TestRetrierStopsOnQuota(t *testing.T) {
	waits := stubWait(t)

	quota := FromStatus("scripted", http.StatusTooManyRequests, "You exceeded your current quota", nil)
	b := &scriptedBackend{errs: []error{quota}}

	res := NewRetrier(5, zap.NewNop()).Call(context.Background(), b, nil, Params{})
	if res.OK {
		t.Fatalf("expected failure")
	}
	if res.Attempts != 1 || b.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", res.Attempts)
	}
	if res.Reason != "quota_exhausted" || !errors.Is(res.Err, ErrQuotaExhausted) {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(*waits) != 0 {
		t.Fatalf("expected no backoff, got %v", *waits)
	}
}

func TestRetrierExhaustsAttempts(t *testing.T) {
	stubWait(t)

	rate := FromStatus("scripted", http.StatusTooManyRequests, "slow down", nil)
	b := &scriptedBackend{errs: []error{rate, rate, rate}}

	res := NewRetrier(3, zap.NewNop()).Call(context.Background(), b, nil, Params{})
	if res.OK || res.Reason != "max_retries" || res.Attempts != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !errors.Is(res.Err, ErrRateLimited) {
		t.Fatalf("expected rate limited cause, got %v", res.Err)
	}
}

func TestRetrierUnconfiguredAndBadRequest(t *testing.T) {
	stubWait(t)

	res := NewRetrier(5, zap.NewNop()).Call(context.Background(), nil, nil, Params{})
	if res.OK || res.Reason != "unconfigured" || res.Attempts != 1 {
		t.Fatalf("unexpected result for nil backend: %+v", res)
	}

	bad := FromStatus("scripted", http.StatusBadRequest, "invalid model", nil)
	b := &scriptedBackend{errs: []error{bad}}
	res = NewRetrier(5, zap.NewNop()).Call(context.Background(), b, nil, Params{})
	if res.Reason != "bad_request" || res.Attempts != 1 {
		t.Fatalf("unexpected result for bad request: %+v", res)
	}
}

func TestRetrierHonoursCancellation(t *testing.T) {
	original := waitFor
	waitFor = func(ctx context.Context, _ time.Duration) error { return context.Canceled }
	t.Cleanup(func() { waitFor = original })

	b := &scriptedBackend{errs: []error{transient(), transient()}}
	res := NewRetrier(5, zap.NewNop()).Call(context.Background(), b, nil, Params{})
	if res.OK || res.Reason != "canceled" || res.Attempts != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res = NewRetrier(5, zap.NewNop()).Call(ctx, &scriptedBackend{}, nil, Params{})
	if res.Reason != "canceled" || res.Attempts != 0 {
		t.Fatalf("expected no attempts on cancelled context, got %+v", res)
	}
}

type deadlineBackend struct{}

func (deadlineBackend) Name() string { return "slow" }

func (deadlineBackend) Chat(ctx context.Context, _ []Message, _ Params) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestRetrierAppliesPerCallTimeout(t *testing.T) {
	stubWait(t)

	res := NewRetrier(2, zap.NewNop()).Call(context.Background(), deadlineBackend{}, nil, Params{Timeout: time.Millisecond})
	if res.OK || res.Reason != "max_retries" || !errors.Is(res.Err, ErrTimeout) {
		t.Fatalf("unexpected result: %+v", res)
	}
}
