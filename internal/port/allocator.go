package port

import (
	"fmt"

	"github.com/riskline/mlship/internal/model"
)

const (
	// replicaBandWidth is the offset multiplied by the replica index to
	// compute the published host port. Each replica gets its own
	// 10000-port band so side-by-side replicas never collide.
	//
	// Example: replica=1, containerPort=10000 → 10000 + (1*10000) = 20000
	replicaBandWidth = 10000

	// maxPort is the highest valid TCP/UDP port number (2^16 - 1).
	maxPort = 65535

	// dynamicRangeStart/End bound the IANA dynamic/private port range
	// used as a fallback when the banded port is unavailable or the
	// shift overflows the port space.
	dynamicRangeStart = 49152
	dynamicRangeEnd   = 65535

	// maxReplica is the highest supported replica index. Five bands
	// above the default service port of 10000 stay inside the port
	// space with room to spare.
	maxReplica = 5
)

// Allocator computes host port assignments for deployment replicas
// using band-based shifting: hostPort = containerPort + replica*10000.
// The deterministic formula lets users predict where a replica will be
// published without running any commands.
//
// The Allocator consults a Scanner for OS-level availability and a set
// of existing bindings (reconstructed from the labels of running
// deployments) to avoid cross-deployment conflicts.
type Allocator struct {
	scanner *Scanner

	// existing tracks host ports already published by other
	// deployments, including stopped ones whose containers would
	// re-bind the same port on start.
	existing []model.PortBinding
}

// NewAllocator creates a new Allocator with the given Scanner.
// The scanner must not be nil.
func NewAllocator(scanner *Scanner) *Allocator {
	return &Allocator{scanner: scanner}
}

// SetExistingBindings registers host ports already claimed by other
// deployments, gathered from Docker labels. Call before Allocate.
func (a *Allocator) SetExistingBindings(bindings []model.PortBinding) {
	a.existing = bindings
}

// Allocate computes the host port for one container port at the given
// replica index.
//
// Algorithm:
//  1. replica 0 uses the container port unchanged — the primary
//     deployment behaves exactly like a plain `docker run -p N:N`.
//  2. Otherwise hostPort = containerPort + replica*10000.
//  3. On overflow past 65535, fall back to the dynamic range.
//  4. If the banded port is taken, search upward within the same band;
//     if the band is exhausted, fall back to the dynamic range.
func (a *Allocator) Allocate(containerPort, replica int) (*model.PortBinding, error) {
	if replica < 0 || replica > maxReplica {
		return nil, fmt.Errorf("replica index %d out of range (0-%d)", replica, maxReplica)
	}

	hostPort := containerPort + replica*replicaBandWidth

	if hostPort > maxPort {
		fallback, err := a.findAvailable(dynamicRangeStart, dynamicRangeEnd)
		if err != nil {
			return nil, fmt.Errorf("port overflow: %d+(%d*%d) exceeds %d, and fallback failed: %w",
				containerPort, replica, replicaBandWidth, maxPort, err)
		}
		hostPort = fallback
	} else if !a.available(hostPort) {
		// Search the remainder of this replica's band. Band boundaries
		// keep the search from stepping into another replica's range.
		bandEnd := hostPort + replicaBandWidth - 1
		if bandEnd > maxPort {
			bandEnd = maxPort
		}

		found := false
		for candidate := hostPort + 1; candidate <= bandEnd; candidate++ {
			if a.available(candidate) {
				hostPort = candidate
				found = true
				break
			}
		}

		if !found {
			fallback, err := a.findAvailable(dynamicRangeStart, dynamicRangeEnd)
			if err != nil {
				return nil, fmt.Errorf("port %d (replica %d) is in use and no alternative found: %w",
					containerPort+replica*replicaBandWidth, replica, err)
			}
			hostPort = fallback
		}
	}

	binding := &model.PortBinding{
		ContainerPort: containerPort,
		HostPort:      hostPort,
		Protocol:      "tcp",
	}

	// Register the result so a subsequent Allocate in the same run
	// cannot hand out the same host port.
	a.existing = append(a.existing, *binding)

	return binding, nil
}

// available checks both the known bindings of other deployments and the
// OS. The two layers catch different conflicts: existing bindings cover
// stopped deployments whose ports the Scanner would report free, the
// Scanner covers unrelated host processes.
func (a *Allocator) available(port int) bool {
	for _, b := range a.existing {
		if b.HostPort == port {
			return false
		}
	}
	return a.scanner.IsPortAvailable(port, "tcp")
}

// findAvailable searches a range for the first port that passes both
// availability layers.
func (a *Allocator) findAvailable(start, end int) (int, error) {
	for port := start; port <= end; port++ {
		if a.available(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available tcp port found in range %d-%d", start, end)
}
