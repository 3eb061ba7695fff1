package port

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskline/mlship/internal/model"
)

// TestAllocate_Replica0 verifies that the primary replica attempts to
// publish the container port unchanged. If the port happens to be busy
// on the test machine the allocator moves within the band, which is
// also correct — so a high, almost-certainly-free port is used.
func TestAllocate_Replica0(t *testing.T) {
	allocator := NewAllocator(NewScanner())

	binding, err := allocator.Allocate(27750, 0)
	require.NoError(t, err)

	assert.Equal(t, 27750, binding.HostPort, "replica 0 should publish the container port unchanged")
	assert.Equal(t, 27750, binding.ContainerPort)
	assert.Equal(t, "tcp", binding.Protocol)
}

// TestAllocate_Replica1 verifies the banding formula:
// 10000 + (1 * 10000) = 20000.
func TestAllocate_Replica1(t *testing.T) {
	allocator := NewAllocator(NewScanner())

	binding, err := allocator.Allocate(10000, 1)
	require.NoError(t, err)

	assert.Equal(t, 20000, binding.HostPort)
	assert.Equal(t, 10000, binding.ContainerPort)
}

// TestAllocate_ReplicaOutOfRange rejects indexes outside the supported
// band count.
func TestAllocate_ReplicaOutOfRange(t *testing.T) {
	allocator := NewAllocator(NewScanner())

	_, err := allocator.Allocate(10000, -1)
	assert.Error(t, err)

	_, err = allocator.Allocate(10000, maxReplica+1)
	assert.Error(t, err)
}

// TestAllocate_Overflow verifies the dynamic-range fallback when the
// banded port exceeds 65535: 60000 + (1*10000) = 70000 overflows.
func TestAllocate_Overflow(t *testing.T) {
	allocator := NewAllocator(NewScanner())

	binding, err := allocator.Allocate(60000, 1)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, binding.HostPort, dynamicRangeStart)
	assert.LessOrEqual(t, binding.HostPort, dynamicRangeEnd)
}

// TestAllocate_ExistingBindingConflict verifies that a host port already
// claimed by another deployment is skipped even when the OS reports it
// free (the other deployment may be stopped).
func TestAllocate_ExistingBindingConflict(t *testing.T) {
	allocator := NewAllocator(NewScanner())
	allocator.SetExistingBindings([]model.PortBinding{
		{ContainerPort: 10000, HostPort: 20000, Protocol: "tcp"},
	})

	binding, err := allocator.Allocate(10000, 1)
	require.NoError(t, err)

	assert.NotEqual(t, 20000, binding.HostPort, "claimed port must be skipped")
	// The replacement stays inside replica 1's band.
	assert.Greater(t, binding.HostPort, 20000)
	assert.Less(t, binding.HostPort, 30000)
}

// TestAllocate_SequentialAllocationsDoNotCollide verifies that repeated
// allocations in the same run register their results and never hand out
// the same host port twice.
func TestAllocate_SequentialAllocationsDoNotCollide(t *testing.T) {
	allocator := NewAllocator(NewScanner())

	first, err := allocator.Allocate(10000, 1)
	require.NoError(t, err)

	second, err := allocator.Allocate(10000, 1)
	require.NoError(t, err)

	assert.NotEqual(t, first.HostPort, second.HostPort)
}
