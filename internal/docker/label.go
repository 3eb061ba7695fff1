package docker

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/riskline/mlship/internal/model"
)

// Label key constants define the Docker label keys used to persist
// deployment metadata on containers. These labels are the sole
// persistence mechanism — there is no external state file.
//
// All keys share the "mlship." prefix to namespace them and avoid
// collisions with labels set by other tools.
const (
	// LabelPrefix is the common prefix for all mlship labels.
	LabelPrefix = "mlship."

	// LabelManagedBy identifies containers managed by mlship. This is
	// the primary label used for filtering and discovery.
	// Key: "mlship.managed-by", Value: always "mlship".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelName stores the deployment's unique identifier.
	LabelName = LabelPrefix + "name"

	// LabelImage stores the image reference the container was created from.
	LabelImage = LabelPrefix + "image"

	// LabelReplica stores the 0-based replica index used for host port
	// band allocation.
	LabelReplica = LabelPrefix + "replica"

	// LabelPortPrefix is the prefix for per-port labels. Each published
	// port gets its own label with the container port appended:
	//
	//	"mlship.port.10000" = "20000"
	//
	// This allows reconstructing the full publication table from labels.
	LabelPortPrefix = LabelPrefix + "port."

	// LabelCreatedAt stores the RFC3339 timestamp of deployment creation.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value for the LabelManagedBy label.
const ManagedByValue = "mlship"

// BuildLabels constructs a Docker label map from a Deployment. These
// labels are applied to the deployment's container, allowing full
// reconstruction of the Deployment from container inspection alone.
//
// Port publications are encoded as individual labels, one per container
// port. Per-port labels keep `docker inspect` output human-readable and
// avoid encoding structures inside a single label value.
func BuildLabels(dep *model.Deployment) map[string]string {
	labels := map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelName:      dep.Name,
		LabelImage:     dep.Image,
		LabelReplica:   strconv.Itoa(dep.Replica),
		// UTC keeps timestamps consistent regardless of host timezone.
		LabelCreatedAt: dep.CreatedAt.UTC().Format(time.RFC3339),
	}

	for _, pb := range dep.Ports {
		labels[BuildPortLabel(pb.ContainerPort)] = strconv.Itoa(pb.HostPort)
	}

	return labels
}

// ParseLabels reconstructs a Deployment from Docker container labels.
// This is the inverse of BuildLabels and is used when listing or
// inspecting containers to rebuild the domain model.
//
// Required labels: managed-by, name, image, replica, created-at.
// Missing required labels cause an error. Status, ExitCode, and
// ContainerID are NOT reconstructed from labels because they come from
// runtime container state.
func ParseLabels(labels map[string]string) (*model.Deployment, error) {
	// Check all required labels at once so the error message lists every
	// missing key instead of just the first.
	requiredKeys := []string{
		LabelManagedBy,
		LabelName,
		LabelImage,
		LabelReplica,
		LabelCreatedAt,
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required Docker labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	replica, err := strconv.Atoi(labels[LabelReplica])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelReplica, err)
	}

	createdAt, err := time.Parse(time.RFC3339, labels[LabelCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelCreatedAt, err)
	}

	ports, err := ParsePortLabels(labels)
	if err != nil {
		return nil, fmt.Errorf("failed to parse port labels: %w", err)
	}

	return &model.Deployment{
		Name:      labels[LabelName],
		Image:     labels[LabelImage],
		Replica:   replica,
		Ports:     ports,
		CreatedAt: createdAt,
	}, nil
}

// BuildPortLabel generates a Docker label key for a specific container
// port, e.g. BuildPortLabel(10000) → "mlship.port.10000".
func BuildPortLabel(containerPort int) string {
	return fmt.Sprintf("%s%d", LabelPortPrefix, containerPort)
}

// ParsePortLabels extracts all port publications from a Docker label
// map. It scans for keys with the LabelPortPrefix and parses the
// container port from the key suffix and the host port from the value.
//
// Returns an empty slice (not nil) if no port labels are found.
// Returns an error if any port label has a malformed key or value.
func ParsePortLabels(labels map[string]string) ([]model.PortBinding, error) {
	bindings := make([]model.PortBinding, 0, 2)

	for key, value := range labels {
		if !strings.HasPrefix(key, LabelPortPrefix) {
			continue
		}

		portStr := strings.TrimPrefix(key, LabelPortPrefix)
		containerPort, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid container port in label key %q: %w", key, err)
		}

		hostPort, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid host port in label %q=%q: %w", key, value, err)
		}

		bindings = append(bindings, model.PortBinding{
			ContainerPort: containerPort,
			HostPort:      hostPort,
			// Protocol is not stored in labels; the service port is TCP.
			Protocol: "tcp",
		})
	}

	return bindings, nil
}
