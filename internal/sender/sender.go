package sender

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/wasender/internal/domain"
	"github.com/kursadbilgin/wasender/internal/observability"
	"github.com/kursadbilgin/wasender/internal/provider"
	"github.com/kursadbilgin/wasender/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = time.Second
	maxRetryDelay      = 60 * time.Second

	// Multiplicative jitter bounds. The random factor desynchronizes
	// concurrent retriers that would otherwise back off in lockstep.
	jitterMin = 0.8
	jitterMax = 1.2
)

// ErrRetriesExhausted wraps the last retryable error once the attempt
// ceiling is reached.
var ErrRetriesExhausted = errors.New("retries exhausted")

// SendResult is the per-message outcome of a batch. Exactly one result is
// produced per attempted send; retries happen inside producing it.
type SendResult struct {
	Recipient domain.Recipient
	MessageID string
	Err       error
}

func (r SendResult) Succeeded() bool { return r.Err == nil }

// Sender drives sends through the provider with classified retries and
// fixed-rate pacing for batches. It does not deduplicate: a retry after an
// ambiguous network failure may deliver twice, and callers needing
// exactly-once must track message IDs externally.
type Sender struct {
	provider    provider.Provider
	pacer       ratelimit.Pacer
	logger      *zap.Logger
	metrics     *observability.Metrics
	maxAttempts int
	baseDelay   time.Duration
	now         func() time.Time
	randFloat   func() float64
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewSender(
	p provider.Provider,
	pacer ratelimit.Pacer,
	maxAttempts int,
	baseDelay time.Duration,
	logger *zap.Logger,
) (*Sender, error) {
	if p == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if pacer == nil {
		return nil, fmt.Errorf("pacer is required")
	}
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sender{
		provider:    p,
		pacer:       pacer,
		logger:      logger,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		now:         time.Now,
		randFloat:   rand.Float64,
		sleep:       sleepWithContext,
	}, nil
}

func (s *Sender) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// SendWithRetry attempts one send, retrying only RateLimited and Transient
// classifications with exponential backoff and jitter. DeveloperFixable and
// PlatformEnforced errors return immediately: retrying them wastes quota
// and cannot succeed.
func (s *Sender) SendWithRetry(ctx context.Context, request *domain.Request) (*provider.SendResponse, error) {
	if s == nil || s.provider == nil {
		return nil, fmt.Errorf("sender is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger := observability.WithContextLogger(s.logger, ctx)

	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		sendStart := s.now()
		response, err := s.provider.Send(ctx, request)
		if s.metrics != nil {
			s.metrics.ObserveSendDuration(s.now().Sub(sendStart))
		}

		if err == nil {
			if s.metrics != nil {
				s.metrics.IncMessageSent()
			}
			if attempt > 0 {
				logger.Info("send recovered after retry",
					zap.String("recipient", request.Recipient.String()),
					zap.Int("attempts", attempt+1),
				)
			}
			return response, nil
		}

		lastErr = err
		classification := classificationOf(err)

		if !provider.IsRetryable(err) {
			if s.metrics != nil {
				s.metrics.IncMessageFailed(classification.String())
			}
			logger.Warn("send failed without retry",
				zap.String("recipient", request.Recipient.String()),
				zap.String("classification", classification.String()),
				zap.Error(err),
			)
			return nil, err
		}

		if attempt == s.maxAttempts-1 {
			break
		}

		delay := s.backoffDelay(attempt)
		if s.metrics != nil {
			s.metrics.IncRetry(classification.String())
		}
		logger.Info("retrying send",
			zap.String("recipient", request.Recipient.String()),
			zap.String("classification", classification.String()),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
		)

		if err := s.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	if s.metrics != nil {
		s.metrics.IncMessageFailed("retry_exhausted")
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, s.maxAttempts, lastErr)
}

// SendBatch dispatches requests in order with a fixed pacing interval
// between them, collecting one result per input. A failed item never aborts
// the batch; cancellation fails the remaining items in place so the result
// slice stays aligned with the input.
func (s *Sender) SendBatch(ctx context.Context, requests []*domain.Request) []SendResult {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx = observability.WithBatchID(ctx, uuid.NewString())
	logger := observability.WithContextLogger(s.logger, ctx)

	if s.metrics != nil {
		s.metrics.ObserveBatchSize(len(requests))
	}

	results := make([]SendResult, 0, len(requests))
	for i, request := range requests {
		if i > 0 {
			if err := s.pacer.Wait(ctx); err != nil {
				return s.failRemaining(results, requests[i:], err, logger)
			}
		}
		if err := ctx.Err(); err != nil {
			return s.failRemaining(results, requests[i:], err, logger)
		}

		result := SendResult{Recipient: request.Recipient}
		response, err := s.SendWithRetry(ctx, request)
		if err != nil {
			result.Err = err
			logger.Warn("batch item failed",
				zap.Int("index", i),
				zap.String("recipient", request.Recipient.String()),
				zap.Error(err),
			)
		} else {
			result.MessageID = response.MessageID
			logger.Debug("batch item sent",
				zap.Int("index", i),
				zap.String("recipient", request.Recipient.String()),
				zap.String("messageId", response.MessageID),
			)
		}

		results = append(results, result)
	}

	return results
}

func (s *Sender) failRemaining(results []SendResult, remaining []*domain.Request, cause error, logger *zap.Logger) []SendResult {
	logger.Warn("batch interrupted",
		zap.Int("remaining", len(remaining)),
		zap.Error(cause),
	)

	for _, request := range remaining {
		results = append(results, SendResult{
			Recipient: request.Recipient,
			Err:       cause,
		})
	}

	return results
}

func (s *Sender) backoffDelay(attemptIndex int) time.Duration {
	if attemptIndex < 0 {
		attemptIndex = 0
	}

	delay := s.baseDelay
	for i := 0; i < attemptIndex; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			delay = maxRetryDelay
			break
		}
	}

	multiplier := jitterMin
	if s.randFloat != nil {
		multiplier += s.randFloat() * (jitterMax - jitterMin)
	}

	return time.Duration(float64(delay) * multiplier)
}

func classificationOf(err error) provider.Classification {
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Classification()
	}
	if provider.IsRetryable(err) {
		return provider.Transient
	}
	return provider.DeveloperFixable
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
