// Package cli — start.go implements the "mlship start" command.
//
// The start command resumes previously stopped replicas. The containers
// already exist with their port publications baked in, so no allocation
// happens here: each replica comes back on the same host port it had.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/riskline/mlship/internal/docker"
	"github.com/riskline/mlship/internal/model"
)

// startFlags holds the flag values for the start command.
type startFlags struct {
	replica int // --replica: target a single replica (-1 = all)
}

// NewStartCommand creates the "start" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewStartCommand() *cobra.Command {
	flags := &startFlags{}

	cmd := &cobra.Command{
		Use:   "start <name>",
		Short: "Start a stopped deployment's containers",
		Long: `Start the stopped containers of the named deployment. Replicas resume
on the host ports they were originally published on.

Examples:
  mlship start risk-api
  mlship start risk-api --replica 1`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().IntVar(&flags.replica, "replica", -1, "Start only the given replica (default: all)")

	return cmd
}

// runStart is the main logic function for the start command.
func runStart(ctx context.Context, name string, flags *startFlags) error {
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	deps, err := findReplicas(ctx, cli, name, flags.replica)
	if err != nil {
		return err
	}

	started := 0
	for _, dep := range deps {
		if dep.Status == model.StatusRunning {
			VerboseLog("Replica %d is already running, skipping", dep.Replica)
			continue
		}
		VerboseLog("Starting replica %d (container %.12s)...", dep.Replica, dep.ContainerID)
		if err := docker.StartContainer(ctx, cli, dep.ContainerID); err != nil {
			return err
		}
		started++
	}

	printActionResult("started", name, started)
	return nil
}
