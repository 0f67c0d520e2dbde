package oracle

import (
	"context"
	"log"
	"time"
)

// #region fallback

// CallWithFallback runs call with a per-attempt timeout and up to retries
// additional attempts. When every attempt fails it returns the fallback value
// together with the last error, so callers always get a usable result and can
// decide whether to fail closed on it.
func CallWithFallback[T any](ctx context.Context, timeout time.Duration, retries int, fallback T, call func(ctx context.Context) (T, error)) (T, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		out, err := call(attemptCtx)
		cancel()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		log.Printf("[ORACLE] attempt %d/%d failed: %v", attempt+1, retries+1, err)
	}
	return fallback, lastErr
}

// #endregion fallback
