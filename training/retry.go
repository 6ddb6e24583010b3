// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package training

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/didyoumean/storage"
)

// RetryWithBackoff runs operation until it succeeds, maxAttempts is used up
// or the error is permanent. The first retry waits baseDelay and each later
// one waits twice as long as the one before.
//
// A closed store is permanent. Cancellation of ctx ends the wait early and
// returns ctx.Err().
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var err error
	wait := baseDelay
	for attempt := range maxAttempts {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = operation(); err == nil {
			if attempt > 0 {
				slog.Debug("store operation recovered", "retries", attempt)
			}
			return nil
		}
		if errors.Is(err, storage.ErrStorageClosed) || attempt == maxAttempts-1 {
			break
		}

		slog.Debug("store operation failed, retrying", "attempt", attempt+1, "wait", wait, "err", err)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= 2
	}
	return err
}
