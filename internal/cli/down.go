// Package cli — down.go implements the "mlship down" command.
//
// The down command removes a deployment's containers entirely,
// releasing their names and port claims. Running replicas are refused
// unless --force is given, in which case Docker kills them before
// removal.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riskline/mlship/internal/docker"
	"github.com/riskline/mlship/internal/model"
)

// downFlags holds the flag values for the down command.
type downFlags struct {
	replica int  // --replica: target a single replica (-1 = all)
	force   bool // --force: remove running replicas too
}

// NewDownCommand creates the "down" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewDownCommand() *cobra.Command {
	flags := &downFlags{}

	cmd := &cobra.Command{
		Use:   "down <name>",
		Short: "Remove a deployment's containers",
		Long: `Remove the containers of the named deployment. Stopped and failed
replicas are removed directly; running replicas require --force.

Examples:
  mlship down risk-api
  mlship down risk-api --force
  mlship down risk-api --replica 1`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDown(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().IntVar(&flags.replica, "replica", -1, "Remove only the given replica (default: all)")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Remove running replicas (kills them first)")

	return cmd
}

// runDown is the main logic function for the down command.
func runDown(ctx context.Context, name string, flags *downFlags) error {
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	deps, err := findReplicas(ctx, cli, name, flags.replica)
	if err != nil {
		return err
	}

	// Refuse before removing anything, so the command is all-or-nothing
	// instead of leaving a half-removed deployment behind.
	if !flags.force {
		for _, dep := range deps {
			if dep.Status == model.StatusRunning {
				return model.NewCLIError(model.ExitGeneralError,
					fmt.Sprintf("replica %d of deployment %q is running: stop it first or use --force", dep.Replica, name))
			}
		}
	}

	removed := 0
	for _, dep := range deps {
		VerboseLog("Removing replica %d (container %.12s)...", dep.Replica, dep.ContainerID)
		if err := docker.RemoveContainer(ctx, cli, dep.ContainerID, flags.force); err != nil {
			return err
		}
		removed++
	}

	printActionResult("removed", name, removed)
	return nil
}
