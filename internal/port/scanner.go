package port

import (
	"fmt"
	"net"
)

// Scanner checks whether specific ports are available on the host
// machine. It asks the OS directly via net.Listen / net.ListenPacket,
// which is more reliable than parsing /proc/net/* and needs no elevated
// permissions.
//
// The struct is currently stateless but defined as a struct so future
// options (bind address, timeout) can be added without breaking the
// API, and so it stays injectable into the Allocator for tests.
type Scanner struct{}

// NewScanner creates a new Scanner instance.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsPortAvailable checks whether a single port is free on the host.
//
// It binds to all interfaces (":port" rather than "127.0.0.1:port")
// because Docker publishes ports on 0.0.0.0, so the same address space
// must be checked to avoid false positives. The probe listener is
// closed immediately.
//
// Returns true if the port is free, false if in use or invalid.
func (s *Scanner) IsPortAvailable(port int, protocol string) bool {
	addr := fmt.Sprintf(":%d", port)

	switch protocol {
	case "tcp":
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return false
		}
		defer func() { _ = listener.Close() }()
		return true

	case "udp":
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			return false
		}
		defer func() { _ = conn.Close() }()
		return true

	default:
		// Unknown protocol — treat as unavailable to fail safe.
		return false
	}
}

// FindAvailablePort scans [startPort, endPort] (inclusive) and returns
// the first available port for the given protocol. The sequential
// search keeps selection deterministic for a given host state.
func (s *Scanner) FindAvailablePort(startPort, endPort int, protocol string) (int, error) {
	for port := startPort; port <= endPort; port++ {
		if s.IsPortAvailable(port, protocol) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available %s port found in range %d-%d", protocol, startPort, endPort)
}
