package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

type retryProvider struct {
	inner Provider
	cfg   RetryConfig
}

// WithRetry retries transient failures with exponential backoff and ±20%
// jitter. Invalid responses are retried once; context errors and
// truncation never are.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &retryProvider{inner: p, cfg: cfg}
}

func (r *retryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var (
		lastErr        error
		invalidRetried bool
	)
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err, &invalidRetried) || attempt == r.cfg.MaxAttempts-1 {
			break
		}

		t := time.NewTimer(r.wait(attempt, err))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return nil, lastErr
}

func (r *retryProvider) ModelID() string {
	return r.inner.ModelID()
}

func retryable(err error, invalidRetried *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var maxTok *ErrMaxTokensExceeded
	if errors.As(err, &maxTok) {
		return false
	}
	var inv *ErrInvalidResponse
	if errors.As(err, &inv) {
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
	}
	return true
}

func (r *retryProvider) wait(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	d := float64(r.cfg.InitialWait) * math.Pow(r.cfg.Multiplier, float64(attempt))
	d = math.Min(d, float64(r.cfg.MaxWait))
	d += d * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(math.Max(d, 0))
}

type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout bounds every Generate call by d.
func WithTimeout(p Provider, d time.Duration) Provider {
	return &timeoutProvider{inner: p, timeout: d}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *timeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
