package port

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIsPortAvailable_BusyPort verifies that a port held by a live
// listener is reported as unavailable, and released again after close.
func TestIsPortAvailable_BusyPort(t *testing.T) {
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port

	scanner := NewScanner()
	assert.False(t, scanner.IsPortAvailable(port, "tcp"))

	require.NoError(t, listener.Close())
	assert.True(t, scanner.IsPortAvailable(port, "tcp"))
}

// TestIsPortAvailable_UnknownProtocol fails safe on protocols the
// scanner does not understand.
func TestIsPortAvailable_UnknownProtocol(t *testing.T) {
	assert.False(t, NewScanner().IsPortAvailable(28991, "sctp"))
}

// TestFindAvailablePort verifies the sequential search skips a busy
// port and reports exhaustion of a fully busy range.
func TestFindAvailablePort(t *testing.T) {
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() { _ = listener.Close() }()
	busy := listener.Addr().(*net.TCPAddr).Port

	scanner := NewScanner()

	found, err := scanner.FindAvailablePort(busy, busy+10, "tcp")
	require.NoError(t, err)
	assert.NotEqual(t, busy, found)
	assert.Greater(t, found, busy)

	// A range containing only the busy port has nothing to offer.
	_, err = scanner.FindAvailablePort(busy, busy, "tcp")
	assert.Error(t, err)
}

// TestWaitReady_Succeeds verifies the probe returns once a listener is
// accepting connections.
func TestWaitReady_Succeeds(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = listener.Close() }()

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	err = WaitReady(context.Background(), listener.Addr().String(), 2*time.Second)
	assert.NoError(t, err)
}

// TestWaitReady_TimesOut verifies the probe gives up with a timeout
// error when nothing ever binds the port.
func TestWaitReady_TimesOut(t *testing.T) {
	// Grab a free port and close it so the dial has a concrete target
	// with no listener behind it.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	err = WaitReady(context.Background(), addr, 600*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready within")
}

// TestWaitReady_ContextCancelled verifies cancellation is honored
// before the timeout.
func TestWaitReady_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := WaitReady(ctx, fmt.Sprintf("127.0.0.1:%d", 29871), 10*time.Second)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "cancellation should end the wait early")
}
