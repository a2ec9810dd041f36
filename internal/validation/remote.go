package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DefaultTimeout bounds a remote validation call when none is configured.
const DefaultTimeout = 10 * time.Second

// Remote posts requests as JSON to a validation endpoint and decodes the
// JSON verdict. Calls are not retried.
type Remote struct {
	URL     string
	Timeout time.Duration
}

// NewRemote returns a Remote for url. A zero timeout uses DefaultTimeout.
func NewRemote(url string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Remote{URL: url, Timeout: timeout}
}

// Validate implements Validator. The call is bounded by the configured
// timeout or the context deadline, whichever is sooner.
func (r *Remote) Validate(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	timeout := r.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return Result{}, context.DeadlineExceeded
	}

	var res Result
	agent := fiber.Post(r.URL).JSON(req).Timeout(timeout)
	code, body, errs := agent.Struct(&res)
	if code != 0 && (code < fiber.StatusOK || code >= fiber.StatusMultipleChoices) {
		return Result{}, fmt.Errorf("%w: status %d: %s", ErrUnavailable, code, snippet(body))
	}
	if len(errs) > 0 {
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
	}
	if !res.IsValid && len(res.Errors) == 0 {
		res.Errors = []string{"entry rejected by validation service"}
	}
	return res, nil
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
