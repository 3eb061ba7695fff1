package port

import (
	"context"
	"fmt"
	"net"
	"time"
)

// probeInterval is the pause between readiness dial attempts. Long
// enough to avoid hammering a starting container, short enough that a
// fast service is reported ready almost immediately.
const probeInterval = 250 * time.Millisecond

// WaitReady blocks until a TCP connection to addr succeeds, the context
// is cancelled, or the timeout elapses. A successful dial means the
// launched process has bound its port and is accepting connections.
//
// The probe connection is closed immediately after the dial; no bytes
// are exchanged, so the check is protocol-agnostic.
func WaitReady(ctx context.Context, addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var dialer net.Dialer
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	for {
		dialCtx, dialCancel := context.WithTimeout(ctx, probeInterval)
		conn, err := dialer.DialContext(dialCtx, "tcp", addr)
		dialCancel()
		if err == nil {
			_ = conn.Close()
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("service at %s not ready within %s: %w", addr, timeout, ctx.Err())
		case <-ticker.C:
		}
	}
}
