package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
)

// WithTimeout bounds fn by timeout; zero or less leaves ctx alone. It waits
// for fn to return, so fn has to watch its context. Running out of time
// yields a timeout AppError that still matches context.DeadlineExceeded.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	bounded, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(bounded)
	if err == nil || ctx.Err() != nil || !errors.Is(bounded.Err(), context.DeadlineExceeded) {
		return err
	}
	return &apperrors.AppError{
		Err:        fmt.Errorf("%w: %w", apperrors.ErrTimeout, err),
		Message:    fmt.Sprintf("%s took longer than %v", name, timeout),
		StatusCode: http.StatusGatewayTimeout,
	}
}
