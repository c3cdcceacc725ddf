package ai

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/logger"
	"github.com/spigell/talentscout/internal/utils"
)

const (
	DefaultMaxAttempts     = 5
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 8 * time.Second
	DefaultMultiplier      = 2.0
	DefaultJitter          = 0.25

	previewLimit = 200
)

var waitFor = utils.WaitFor

// Result is the outcome of a retried backend call. Reason is "ok" on success,
// the error reason for fatal failures, or "max_retries" when every attempt
// failed transiently.
type Result struct {
	OK       bool
	Content  string
	Err      error
	Reason   string
	Attempts int
}

// Retrier calls a backend with exponential backoff between transient failures.
type Retrier struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	Jitter          float64

	logger *zap.Logger
}

// NewRetrier returns a Retrier with the default schedule. maxAttempts <= 0
// selects DefaultMaxAttempts.
func NewRetrier(maxAttempts int, log *zap.Logger) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Retrier{
		MaxAttempts:     maxAttempts,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		Multiplier:      DefaultMultiplier,
		Jitter:          DefaultJitter,
		logger:          logger.WithFields(log),
	}
}

func (r *Retrier) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.InitialInterval
	b.MaxInterval = r.MaxInterval
	b.Multiplier = r.Multiplier
	b.RandomizationFactor = r.Jitter
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Call sends messages to b, retrying transient failures. It never panics on a
// nil backend and always reports the number of attempts made.
func (r *Retrier) Call(ctx context.Context, b Backend, messages []Message, params Params) Result {
	if b == nil {
		b = Unconfigured{}
	}

	log := logger.WithBackend(r.logger, b.Name(), params.Model)
	schedule := r.newBackOff()

	var last *Error
	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{Err: err, Reason: "canceled", Attempts: attempt - 1}
		}

		content, err := r.once(ctx, b, messages, params)
		if err == nil {
			log.Debug("backend call succeeded",
				zap.Int("attempt", attempt),
				zap.String("response_preview", utils.TruncateForLog(content, previewLimit)),
			)
			return Result{OK: true, Content: content, Reason: "ok", Attempts: attempt}
		}

		last = Classify(b.Name(), err)
		if !last.Retryable() {
			log.Warn("backend call failed",
				zap.Int("attempt", attempt),
				zap.String("reason", last.Reason()),
				zap.Error(last),
			)
			return Result{Err: last, Reason: last.Reason(), Attempts: attempt}
		}

		if attempt == r.MaxAttempts {
			break
		}

		delay := schedule.NextBackOff()
		log.Debug("backend call failed, retrying",
			zap.Int("attempt", attempt),
			zap.String("reason", last.Reason()),
			zap.Duration("backoff", delay),
			zap.Error(last),
		)

		if err := waitFor(ctx, delay); err != nil {
			return Result{Err: errors.Join(last, err), Reason: "canceled", Attempts: attempt}
		}
	}

	log.Warn("backend call exhausted retries", zap.Int("attempts", r.MaxAttempts), zap.Error(last))
	return Result{Err: last, Reason: "max_retries", Attempts: r.MaxAttempts}
}

func (r *Retrier) once(ctx context.Context, b Backend, messages []Message, params Params) (string, error) {
	if params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}
	return b.Chat(ctx, messages, params)
}
