package social

import (
	"context"
	"fmt"
	"time"

	"social-publisher/domain/model"
)

// Poll calls check up to maxAttempts times, waiting interval before each call.
// It stops when check reports done or returns an error. Running out of attempts
// is a timeout error; the worker pool decides whether to try the job again.
func Poll(ctx context.Context, platform model.Platform, interval time.Duration, maxAttempts int, check func(attempt int) (bool, error)) error {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		done, err := check(attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		timer.Reset(interval)
	}
	return model.NewTimeoutError(platform,
		fmt.Sprintf("%s still processing after %d status checks", platform, maxAttempts))
}
