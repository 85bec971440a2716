package infrastructure

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultRetryBase = 500 * time.Millisecond

// RetryPolicy retries transient provider failures with exponential backoff.
type RetryPolicy struct {
	MaxRetries int
	Base       time.Duration
}

func (p RetryPolicy) backoff() retry.Backoff {
	base := p.Base
	if base <= 0 {
		base = defaultRetryBase
	}
	max := p.MaxRetries
	if max < 0 {
		max = 0
	}
	return retry.WithMaxRetries(uint64(max), retry.NewExponential(base))
}

// Do runs fn until it succeeds, fails permanently or the budget runs out.
func (p RetryPolicy) Do(ctx context.Context, log *zap.Logger, fn func(ctx context.Context) error) error {
	attempt := 0
	return retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			log.Warn("transient provider error, retrying", zap.Int("attempt", attempt), zap.Error(err))
			return retry.RetryableError(err)
		}
		return err
	})
}

// IsTransient reports rate limiting and server-side failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return transientStatus(genaiErr.Code)
	}
	var genaiPtr *genai.APIError
	if errors.As(err, &genaiPtr) && genaiPtr != nil {
		return transientStatus(genaiPtr.Code)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return transientStatus(reqErr.HTTPStatusCode)
	}

	var status statusError
	if errors.As(err, &status) {
		return transientStatus(status.StatusCode())
	}
	return false
}

type statusError interface {
	StatusCode() int
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
