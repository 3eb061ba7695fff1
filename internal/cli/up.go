// Package cli — up.go implements the "mlship up" command.
//
// The up command is the primary deployment operation. It orchestrates
// the full workflow of launching a replica of a previously built image:
//  1. Load and validate the mlship.json manifest
//  2. Verify the image exists locally (pointing at "build" if not)
//  3. Determine the replica index (next free, or --replica)
//  4. Allocate a non-conflicting host port for the service port
//  5. Run the container detached with mlship labels and the port
//     publication
//  6. Optionally wait for the service to accept TCP connections
//  7. Output results (text or JSON)
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskline/mlship/internal/buildspec"
	"github.com/riskline/mlship/internal/docker"
	"github.com/riskline/mlship/internal/model"
	"github.com/riskline/mlship/internal/port"
)

// upFlags holds the flag values for the up command.
// These are bound to cobra flags in NewUpCommand.
type upFlags struct {
	replica     int           // --replica: explicit replica index (-1 = next free)
	wait        bool          // --wait: block until the service accepts connections
	waitTimeout time.Duration // --wait-timeout: readiness deadline
}

// NewUpCommand creates the "up" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewUpCommand() *cobra.Command {
	flags := &upFlags{}

	cmd := &cobra.Command{
		Use:   "up [directory]",
		Short: "Launch a replica of a built deployment",
		Long: `Launch a container for the application in the given directory
(default: current directory). The image must have been built first
with "mlship build".

Replica 0 publishes the service port unshifted; each further replica
is shifted into its own port band so replicas never collide.

Examples:
  mlship up
  mlship up --wait
  mlship up --replica 2 ./services/risk-api`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runUp(cmd.Context(), dir, flags)
		},
	}

	cmd.Flags().IntVar(&flags.replica, "replica", -1, "Replica index (default: next free)")
	cmd.Flags().BoolVar(&flags.wait, "wait", false, "Wait until the service accepts TCP connections")
	cmd.Flags().DurationVar(&flags.waitTimeout, "wait-timeout", 30*time.Second, "Readiness deadline used with --wait")

	return cmd
}

// runUp is the main orchestration function for the up command.
func runUp(ctx context.Context, dir string, flags *upFlags) error {
	// Step 1: Load and validate the manifest.
	plan, err := buildspec.Load(dir)
	if err != nil {
		return model.WrapCLIError(model.ExitManifestNotFound,
			fmt.Sprintf("failed to load %s from %s", buildspec.ManifestFileName, dir), err)
	}
	if err := plan.Validate(); err != nil {
		return model.WrapCLIError(model.ExitManifestNotFound, "manifest validation failed", err)
	}

	// Step 2: Connect to Docker.
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	// Step 3: The image must exist locally. A raw daemon 404 at run time
	// is a confusing way to learn that build was never run.
	exists, err := docker.ImageExists(ctx, cli, plan.Image)
	if err != nil {
		return err
	}
	if !exists {
		return model.NewCLIError(model.ExitBuildFailed,
			fmt.Sprintf("image %q not found: run \"mlship build\" first", plan.Image))
	}

	// Step 4: Discover existing replicas and their port claims.
	containers, err := docker.ListManagedContainers(ctx, cli)
	if err != nil {
		return err
	}

	usedReplicas := make(map[int]bool)
	var existingBindings []model.PortBinding
	for _, c := range containers {
		bindings, err := docker.ParsePortLabels(c.Labels)
		if err != nil {
			VerboseLog("Warning: skipping container %q with invalid port labels: %v", c.ContainerName, err)
			continue
		}
		// Ports of every managed deployment count as taken, not just
		// this deployment's: two services publishing the same host port
		// conflict regardless of name.
		existingBindings = append(existingBindings, bindings...)

		if c.Labels[docker.LabelName] != plan.Name {
			continue
		}
		if dep, err := docker.ParseLabels(c.Labels); err == nil {
			usedReplicas[dep.Replica] = true
		}
	}

	// Step 5: Resolve the replica index.
	replica := flags.replica
	if replica < 0 {
		replica = nextFreeReplica(usedReplicas)
	} else if usedReplicas[replica] {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("replica %d of deployment %q already exists", replica, plan.Name))
	}
	VerboseLog("Replica index: %d", replica)

	// Step 6: Allocate the host port.
	allocator := port.NewAllocator(port.NewScanner())
	allocator.SetExistingBindings(existingBindings)

	binding, err := allocator.Allocate(plan.Port, replica)
	if err != nil {
		return model.WrapCLIError(model.ExitPortAllocationFailed, "port allocation failed", err)
	}
	VerboseLog("Port allocated: %s", binding.String())

	// Step 7: Run the container.
	dep := &model.Deployment{
		Name:      plan.Name,
		Image:     plan.Image,
		Replica:   replica,
		Status:    model.StatusRunning,
		Ports:     []model.PortBinding{*binding},
		CreatedAt: time.Now().UTC(),
	}

	containerID, err := docker.RunDeployment(ctx, cli, dep)
	if err != nil {
		return err
	}
	dep.ContainerID = containerID
	VerboseLog("Container started: %s", containerID)

	// Step 8: Optionally wait for readiness.
	if flags.wait {
		if err := waitForService(ctx, cli, dep, binding.HostPort, flags.waitTimeout); err != nil {
			return err
		}
	}

	printUpResult(dep)
	return nil
}

// nextFreeReplica returns the lowest replica index not in use.
func nextFreeReplica(used map[int]bool) int {
	for i := 0; ; i++ {
		if !used[i] {
			return i
		}
	}
}

// waitForService blocks until the published host port accepts TCP
// connections. If the probe times out, the container is inspected to
// distinguish a crashed entrypoint (reported with its exit code) from a
// service that is merely slow.
func waitForService(ctx context.Context, cli *docker.Client, dep *model.Deployment, hostPort int, timeout time.Duration) error {
	addr := fmt.Sprintf("127.0.0.1:%d", hostPort)
	VerboseLog("Waiting for %s to accept connections...", addr)

	if err := port.WaitReady(ctx, addr, timeout); err != nil {
		running, exitCode, inspectErr := docker.InspectExit(ctx, cli, dep.ContainerID)
		if inspectErr == nil && !running {
			// The usual cause is the entrypoint module not resolving
			// (e.g. gunicorn could not import app:app), which kills the
			// container immediately with a non-zero code.
			return model.NewCLIError(model.ExitLaunchFailed,
				fmt.Sprintf("deployment %q exited with code %d before becoming ready", dep.Name, exitCode))
		}
		return model.WrapCLIError(model.ExitLaunchFailed,
			fmt.Sprintf("deployment %q did not become ready on %s", dep.Name, addr), err)
	}

	VerboseLog("Service is ready")
	return nil
}

// printUpResult outputs the up command results in text or JSON format.
func printUpResult(dep *model.Deployment) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(dep, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Started deployment %q (replica %d)\n", dep.Name, dep.Replica)
	fmt.Printf("  Image:     %s\n", dep.Image)
	fmt.Printf("  Container: %.12s\n", dep.ContainerID)
	for _, pb := range dep.Ports {
		fmt.Printf("  Service:   http://localhost:%d  (container: %d)\n", pb.HostPort, pb.ContainerPort)
	}
}
