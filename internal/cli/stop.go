// Package cli — stop.go implements the "mlship stop" command.
//
// The stop command stops the running containers of a deployment without
// removing them. Stopped replicas keep their labels (and therefore
// their port claims), so "mlship start" brings them back on the same
// host ports.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riskline/mlship/internal/docker"
	"github.com/riskline/mlship/internal/model"
)

// stopFlags holds the flag values for the stop command.
type stopFlags struct {
	replica int // --replica: target a single replica (-1 = all)
}

// NewStopCommand creates the "stop" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewStopCommand() *cobra.Command {
	flags := &stopFlags{}

	cmd := &cobra.Command{
		Use:   "stop <name>",
		Short: "Stop a deployment's containers",
		Long: `Stop the containers of the named deployment. The containers are kept,
so the deployment can be resumed with "mlship start".

Examples:
  mlship stop risk-api
  mlship stop risk-api --replica 1`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().IntVar(&flags.replica, "replica", -1, "Stop only the given replica (default: all)")

	return cmd
}

// runStop is the main logic function for the stop command.
func runStop(ctx context.Context, name string, flags *stopFlags) error {
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	deps, err := findReplicas(ctx, cli, name, flags.replica)
	if err != nil {
		return err
	}

	stopped := 0
	for _, dep := range deps {
		if dep.Status != model.StatusRunning {
			VerboseLog("Replica %d is not running, skipping", dep.Replica)
			continue
		}
		VerboseLog("Stopping replica %d (container %.12s)...", dep.Replica, dep.ContainerID)
		if err := docker.StopContainer(ctx, cli, dep.ContainerID); err != nil {
			return err
		}
		stopped++
	}

	printActionResult("stopped", name, stopped)
	return nil
}

// findReplicas returns the deployment's replicas, optionally narrowed
// to a single replica index. Returns ExitDeploymentNotFound when the
// name (or the requested replica) does not exist.
func findReplicas(ctx context.Context, cli *docker.Client, name string, replica int) ([]*model.Deployment, error) {
	containers, err := docker.ListManagedContainers(ctx, cli)
	if err != nil {
		return nil, err
	}

	var deps []*model.Deployment
	for _, c := range containers {
		if c.Labels[docker.LabelName] != name {
			continue
		}
		dep, err := docker.BuildDeployment(ctx, cli, c)
		if err != nil {
			VerboseLog("Warning: skipping container %q: %v", c.ContainerName, err)
			continue
		}
		if replica >= 0 && dep.Replica != replica {
			continue
		}
		deps = append(deps, dep)
	}

	if len(deps) == 0 {
		msg := fmt.Sprintf("deployment %q not found", name)
		if replica >= 0 {
			msg = fmt.Sprintf("replica %d of deployment %q not found", replica, name)
		}
		return nil, model.NewCLIError(model.ExitDeploymentNotFound, msg)
	}
	return deps, nil
}

// printActionResult reports how many replicas a lifecycle command
// touched, in text or JSON format.
func printActionResult(action, name string, count int) {
	if IsJSONOutput() {
		fmt.Printf("{\n  \"name\": %q,\n  \"action\": %q,\n  \"replicas\": %d\n}\n", name, action, count)
		return
	}
	fmt.Printf("Deployment %q: %d replica(s) %s\n", name, count, action)
}
