// container.go implements container lifecycle operations for mlship
// deployments: run, list, start, stop, and remove.
//
// Every managed container is identified by the "mlship.managed-by"
// label, which separates deployments from unrelated containers on the
// same host. Deployment metadata is reconstructed entirely from labels;
// there is no state file.
package docker

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/riskline/mlship/internal/model"
)

// ListManagedContainers queries the Docker daemon for all containers
// carrying the "mlship.managed-by=mlship" label, including stopped and
// exited ones — a failed deployment still needs to show up in `mlship
// list` so the user can see its exit code and remove it.
func ListManagedContainers(ctx context.Context, cli *Client) ([]model.ContainerInfo, error) {
	// Server-side label filtering is cheaper than listing everything
	// and filtering in Go.
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]model.ContainerInfo, 0, len(containers))
	for _, c := range containers {
		// Docker returns names with a leading "/" that is an API
		// artifact, not meaningful to users.
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}

		result = append(result, model.ContainerInfo{
			ContainerID:   c.ID,
			ContainerName: name,
			Image:         c.Image,
			State:         c.State,
			Labels:        c.Labels,
		})
	}

	return result, nil
}

// FindDeployment locates the container backing the named deployment and
// reconstructs the Deployment aggregate from its labels and runtime
// state. Returns ExitDeploymentNotFound when no managed container
// carries the name.
func FindDeployment(ctx context.Context, cli *Client, name string) (*model.Deployment, error) {
	containers, err := ListManagedContainers(ctx, cli)
	if err != nil {
		return nil, err
	}

	for _, c := range containers {
		if c.Labels[LabelName] != name {
			continue
		}
		return BuildDeployment(ctx, cli, c)
	}

	return nil, model.NewCLIError(
		model.ExitDeploymentNotFound,
		fmt.Sprintf("deployment %q not found", name),
	)
}

// BuildDeployment converts a managed container into the Deployment
// domain object: labels provide the static metadata, the container
// state provides status, and — for exited containers — an inspect call
// provides the exit code.
func BuildDeployment(ctx context.Context, cli *Client, c model.ContainerInfo) (*model.Deployment, error) {
	dep, err := ParseLabels(c.Labels)
	if err != nil {
		return nil, fmt.Errorf("failed to parse labels for container %q: %w", c.ContainerName, err)
	}

	dep.ContainerID = c.ContainerID
	dep.Status = statusFromState(c.State, 0)

	if c.State == "exited" || c.State == "dead" {
		// The list endpoint does not include exit codes; inspect the
		// container to distinguish a clean stop from a crash.
		inspect, err := cli.Inner().ContainerInspect(ctx, c.ContainerID)
		if err == nil && inspect.State != nil {
			dep.ExitCode = inspect.State.ExitCode
			dep.Status = statusFromState(c.State, inspect.State.ExitCode)
		}
	}

	return dep, nil
}

// statusFromState maps a Docker container state (plus exit code for
// exited containers) onto the deployment lifecycle.
func statusFromState(state string, exitCode int) model.DeploymentStatus {
	switch state {
	case "running", "restarting":
		return model.StatusRunning
	case "exited", "dead":
		if exitCode != 0 {
			return model.StatusFailed
		}
		return model.StatusStopped
	default:
		// "created", "paused" and anything Docker adds later count as
		// stopped: present but not serving.
		return model.StatusStopped
	}
}

// RunDeployment starts a detached container for the deployment using
// "docker run -d".
//
// os/exec is used rather than the SDK's ContainerCreate + ContainerStart
// workflow because "docker run" accepts the same flags users already
// know, while the SDK requires assembling Config/HostConfig structs for
// no benefit at this call volume. Labels and port publications are
// passed as --label and -p flags derived from the deployment.
func RunDeployment(ctx context.Context, cli *Client, dep *model.Deployment) (string, error) {
	args := []string{"run", "-d", "--name", containerName(dep)}

	for key, value := range BuildLabels(dep) {
		args = append(args, "--label", key+"="+value)
	}
	for _, pb := range dep.Ports {
		proto := pb.Protocol
		if proto == "" {
			proto = "tcp"
		}
		args = append(args, "-p", fmt.Sprintf("%d:%d/%s", pb.HostPort, pb.ContainerPort, proto))
	}
	args = append(args, dep.Image)

	cmd := exec.CommandContext(ctx, "docker", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitLaunchFailed,
			fmt.Sprintf("docker run failed for deployment %q: %s",
				dep.Name, strings.TrimSpace(string(output))),
			err,
		)
	}

	// docker run -d prints the new container ID on stdout.
	return strings.TrimSpace(string(output)), nil
}

// containerName derives the Docker container name for a deployment.
// Replica 0 keeps the bare name; higher replicas get a numeric suffix.
func containerName(dep *model.Deployment) string {
	if dep.Replica == 0 {
		return "mlship-" + dep.Name
	}
	return fmt.Sprintf("mlship-%s-%d", dep.Name, dep.Replica)
}

// StartContainer starts a stopped container by ID. Docker returns an
// error if the container is already running.
func StartContainer(ctx context.Context, cli *Client, containerID string) error {
	if err := cli.Inner().ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to start container %q", containerID),
			err,
		)
	}
	return nil
}

// StopContainer stops a running container by ID. A nil timeout uses
// Docker's default (SIGTERM, then SIGKILL after ~10 seconds), giving
// the server a chance to drain in-flight requests.
func StopContainer(ctx context.Context, cli *Client, containerID string) error {
	if err := cli.Inner().ContainerStop(ctx, containerID, container.StopOptions{}); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to stop container %q", containerID),
			err,
		)
	}
	return nil
}

// RemoveContainer removes a container by ID. The container must be
// stopped first unless force is true, in which case Docker kills it
// before removal.
func RemoveContainer(ctx context.Context, cli *Client, containerID string, force bool) error {
	if err := cli.Inner().ContainerRemove(ctx, containerID, container.RemoveOptions{Force: force}); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove container %q", containerID),
			err,
		)
	}
	return nil
}

// InspectExit returns whether the container is still running and, if it
// has exited, its exit code. The launcher uses this during the
// readiness wait to turn "the entrypoint crashed immediately" into a
// real error instead of a probe timeout.
func InspectExit(ctx context.Context, cli *Client, containerID string) (running bool, exitCode int, err error) {
	inspect, err := cli.Inner().ContainerInspect(ctx, containerID)
	if err != nil {
		return false, 0, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to inspect container %q", containerID),
			err,
		)
	}
	if inspect.State == nil {
		return false, 0, fmt.Errorf("container %q has no state", containerID)
	}
	return inspect.State.Running, inspect.State.ExitCode, nil
}
