package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DeploymentStatus represents the lifecycle state of a deployed
// inference service. The state transitions are:
//
//	[Built] → Running → Stopped ⇄ Running → [Removed]
//	Running → Failed (entrypoint exited non-zero)
type DeploymentStatus string

const (
	// StatusRunning indicates the deployment's container is running and
	// the service port is (or is about to be) bound.
	StatusRunning DeploymentStatus = "running"

	// StatusStopped indicates the container exists but is not running.
	// The image and configuration are preserved for a later start.
	StatusStopped DeploymentStatus = "stopped"

	// StatusFailed indicates the container exited with a non-zero code,
	// typically because the entrypoint could not start (e.g., the app
	// module is missing from the image).
	StatusFailed DeploymentStatus = "failed"
)

// String returns the string representation of DeploymentStatus.
// Satisfies fmt.Stringer for CLI output and logging.
func (s DeploymentStatus) String() string {
	return string(s)
}

// IsValid checks whether the DeploymentStatus value is one of the
// predefined valid states.
func (s DeploymentStatus) IsValid() bool {
	switch s {
	case StatusRunning, StatusStopped, StatusFailed:
		return true
	default:
		return false
	}
}

// ParseDeploymentStatus converts a string to a DeploymentStatus.
// Returns an error if the string does not match any valid status.
func ParseDeploymentStatus(s string) (DeploymentStatus, error) {
	status := DeploymentStatus(strings.ToLower(s))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid deployment status: %q (valid: running, stopped, failed)", s)
	}
	return status, nil
}

// Deployment represents a packaged inference service running (or
// stopped) as a Docker container. This is the primary aggregate entity
// in the domain.
//
// All fields are reconstructed at runtime from Docker container labels
// (see the mlship.* label schema in internal/docker). There is no
// persistent state file on disk.
type Deployment struct {
	// Name is the unique identifier for this deployment.
	// Must contain only alphanumeric characters and hyphens.
	Name string `json:"name"`

	// Image is the image reference the container was created from,
	// e.g. "risk-api:latest".
	Image string `json:"image"`

	// Replica is the 0-based replica index of this deployment. Replica 0
	// publishes the service port unshifted; higher replicas are shifted
	// into their own port band by the allocator.
	Replica int `json:"replica"`

	// Status is the current lifecycle state of the deployment.
	Status DeploymentStatus `json:"status"`

	// ExitCode is the container's exit code when Status is "failed".
	// Zero otherwise.
	ExitCode int `json:"exitCode,omitempty"`

	// ContainerID is the Docker container identifier backing this
	// deployment. Fetched dynamically, never stored in labels.
	ContainerID string `json:"containerId,omitempty"`

	// Ports holds the container-port to host-port publications.
	Ports []PortBinding `json:"ports,omitempty"`

	// CreatedAt is the timestamp when this deployment was created.
	CreatedAt time.Time `json:"createdAt"`
}

// nameRegex validates deployment names: alphanumeric + hyphens only,
// must start and end with alphanumeric.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateName checks if the given name is a valid deployment name.
// Valid names contain only alphanumeric characters and hyphens,
// and must start/end with an alphanumeric character. Docker accepts a
// wider character set for container names, but we keep the stricter
// rule so names survive as image tags and label values unchanged.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("deployment name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid deployment name %q: must contain only alphanumeric characters and hyphens, and start/end with alphanumeric", name)
	}
	return nil
}

// PortBinding represents a single port publication between a container
// port and a host port.
//
// Host ports are assigned by the replica-band allocator:
//
//	hostPort = containerPort + (replica * 10000)
//
// If the result exceeds 65535 or is already taken, dynamic discovery
// via net.Listen() is used instead.
type PortBinding struct {
	// ContainerPort is the port the service binds inside the container
	// (1-65535). For the default manifest this is 10000.
	ContainerPort int `json:"containerPort"`

	// HostPort is the port published on the host (1024-65535). Must be
	// unique across all deployments and free of other host processes.
	HostPort int `json:"hostPort"`

	// Protocol is the network protocol for the binding.
	// Defaults to "tcp". Also supports "udp".
	Protocol string `json:"protocol"`
}

// Validate checks whether the PortBinding has valid field values.
func (p *PortBinding) Validate() error {
	if p.ContainerPort < 1 || p.ContainerPort > 65535 {
		return fmt.Errorf("port binding: container port %d out of range (1-65535)", p.ContainerPort)
	}
	if p.HostPort < 1024 || p.HostPort > 65535 {
		return fmt.Errorf("port binding: host port %d out of range (1024-65535)", p.HostPort)
	}
	if p.Protocol == "" {
		p.Protocol = "tcp"
	}
	if p.Protocol != "tcp" && p.Protocol != "udp" {
		return fmt.Errorf("port binding: invalid protocol %q (valid: tcp, udp)", p.Protocol)
	}
	return nil
}

// String returns a human-readable representation of the binding.
// Format: "containerPort → hostPort/protocol"
func (p *PortBinding) String() string {
	proto := p.Protocol
	if proto == "" {
		proto = "tcp"
	}
	return fmt.Sprintf("%d → %d/%s", p.ContainerPort, p.HostPort, proto)
}

// ValidatePortBindings checks a slice of PortBindings for individual
// validity and cross-binding host port uniqueness.
func ValidatePortBindings(bindings []PortBinding) error {
	// Track seen host ports to detect duplicates within the same
	// deployment. Key: "hostPort/protocol".
	seen := make(map[string]int)

	for i := range bindings {
		if err := bindings[i].Validate(); err != nil {
			return err
		}

		key := fmt.Sprintf("%d/%s", bindings[i].HostPort, bindings[i].Protocol)
		if prev, exists := seen[key]; exists {
			return fmt.Errorf("port binding: host port %s is published for both container port %d and %d",
				key, prev, bindings[i].ContainerPort)
		}
		seen[key] = bindings[i].ContainerPort
	}
	return nil
}

// ContainerInfo holds runtime information about a Docker container.
// This data is fetched dynamically from the Docker API, not persisted.
type ContainerInfo struct {
	// ContainerID is the unique Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the human-readable Docker container name.
	ContainerName string `json:"containerName"`

	// Image is the image reference the container was created from.
	Image string `json:"image"`

	// State is the Docker container state (e.g., "running", "exited", "created").
	State string `json:"state"`

	// ExitCode is the container's exit code. Only meaningful when the
	// container has exited.
	ExitCode int `json:"exitCode,omitempty"`

	// Labels is the full set of Docker labels on the container,
	// including the mlship.* management labels.
	Labels map[string]string `json:"labels,omitempty"`
}

// ExitCode defines standard CLI exit codes. These codes allow scripts
// and CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitManifestNotFound indicates mlship.json was not found or could
	// not be parsed in the application directory.
	ExitManifestNotFound ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitPortAllocationFailed indicates a host port could not be
	// allocated without conflicting with existing deployments.
	ExitPortAllocationFailed ExitCode = 4

	// ExitBuildFailed indicates the image build was aborted by the
	// daemon; no image was tagged.
	ExitBuildFailed ExitCode = 5

	// ExitDeploymentNotFound indicates the named deployment does not exist.
	ExitDeploymentNotFound ExitCode = 6

	// ExitLaunchFailed indicates the container started but the service
	// never became ready (e.g., the entrypoint exited immediately).
	ExitLaunchFailed ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
