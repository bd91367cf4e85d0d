package observability

import (
	"context"
	"time"
)

// RunHeartbeat records a heartbeat every interval until ctx is done.
func RunHeartbeat(ctx context.Context, status *Status, logger *Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status.Heartbeat()
			logger.LogHeartbeat()
		}
	}
}
