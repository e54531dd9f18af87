package attempt

import (
	"context"
	"time"
)

// RunTimer drives a timed machine at 1 Hz until it expires or ctx is
// canceled. On expiry, onExpire receives the frozen snapshot exactly
// once. Cancel ctx the instant the attempt leaves in_progress so a
// stray tick can never fire after submission or session teardown.
//
// Call in a goroutine.
func RunTimer(ctx context.Context, m *Machine, onExpire func(Snapshot)) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if snap, expired := m.Tick(); expired {
				onExpire(snap)
				return
			}
			if m.Closed() {
				return
			}
		}
	}
}
