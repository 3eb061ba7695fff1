// Package cli — list.go implements the "mlship list" command.
//
// The list command displays all managed deployments by querying Docker
// for containers with the "mlship.managed-by=mlship" label. Each
// deployment replica is one row, reconstructed entirely from container
// labels and runtime state, and presented as a text table or JSON
// array depending on the --json flag.
//
// An optional --status flag allows filtering by lifecycle state
// (running, stopped, failed, or all).
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riskline/mlship/internal/docker"
	"github.com/riskline/mlship/internal/model"
)

// listFlags holds the flag values for the list command.
// These are bound to cobra flags in NewListCommand.
type listFlags struct {
	// status filters deployments by their lifecycle state.
	// Valid values: "running", "stopped", "failed", "all" (default).
	status string
}

// NewListCommand creates the "list" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all managed deployments",
		Long: `List all managed deployments and their status.

Each replica is shown with its deployment name, replica index,
lifecycle status, published host ports, and (for failed replicas)
the container exit code.

Examples:
  mlship list
  mlship list --status running
  mlship list --json`,

		// No positional arguments are required for the list command.
		Args: cobra.NoArgs,

		// RunE returns an error to the root command's error handler.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.status, "status", "all",
		"Filter by status: running, stopped, failed, all (default: all)")

	return cmd
}

// runList is the main logic function for the list command.
// It connects to Docker, discovers managed deployments, applies the
// status filter, and outputs results in the appropriate format.
func runList(ctx context.Context, flags *listFlags) error {
	// Step 1: Validate the --status flag value.
	statusFilter := flags.status
	if statusFilter != "all" {
		if _, err := model.ParseDeploymentStatus(statusFilter); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("invalid status filter %q: valid values are running, stopped, failed, all", statusFilter), nil)
		}
	}

	// Step 2: Connect to Docker and verify the daemon is available.
	cli, err := docker.NewClient()
	if err != nil {
		return err // NewClient already returns CLIError with ExitDockerNotRunning
	}
	defer func() { _ = cli.Close() }()

	VerboseLog("Connected to Docker daemon")

	// Step 3: List all containers that are managed by mlship.
	containers, err := docker.ListManagedContainers(ctx, cli)
	if err != nil {
		return err // ListManagedContainers already returns CLIError
	}
	VerboseLog("Found %d managed containers", len(containers))

	// Step 4: Build Deployment domain objects from container labels.
	var deps []*model.Deployment
	for _, c := range containers {
		dep, err := docker.BuildDeployment(ctx, cli, c)
		if err != nil {
			// Log the error but continue processing other deployments.
			// A single corrupted container should not prevent listing others.
			VerboseLog("Warning: skipping container %q: %v", c.ContainerName, err)
			continue
		}
		deps = append(deps, dep)
	}

	// Step 5: Sort by name, then replica, for stable output.
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Name != deps[j].Name {
			return deps[i].Name < deps[j].Name
		}
		return deps[i].Replica < deps[j].Replica
	})

	// Step 6: Apply the --status filter if specified.
	if statusFilter != "all" {
		filtered := make([]*model.Deployment, 0, len(deps))
		for _, dep := range deps {
			if dep.Status.String() == statusFilter {
				filtered = append(filtered, dep)
			}
		}
		deps = filtered
	}

	// Step 7: Output results in the appropriate format.
	printListResult(deps)
	return nil
}

// printListResult outputs the list of deployments in text or JSON
// format, depending on the global --json flag.
func printListResult(deps []*model.Deployment) {
	if IsJSONOutput() {
		printListResultJSON(deps)
	} else {
		printListResultText(deps)
	}
}

// printListResultJSON outputs the deployment list as structured JSON.
// The top-level key is "deployments" containing an array of objects.
func printListResultJSON(deps []*model.Deployment) {
	type resultJSON struct {
		Deployments []*model.Deployment `json:"deployments"`
	}

	result := resultJSON{
		// Use an empty slice instead of nil to ensure JSON output shows []
		// instead of null when no deployments are found.
		Deployments: make([]*model.Deployment, 0, len(deps)),
	}
	result.Deployments = append(result.Deployments, deps...)

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printListResultText outputs the deployment list as a human-readable
// text table with aligned columns.
//
// The table format is:
//
//	NAME       REPLICA  STATUS    IMAGE             PORTS
//	risk-api   0        running   risk-api:latest   10000
//	risk-api   1        failed    risk-api:latest   20000 (exit 3)
func printListResultText(deps []*model.Deployment) {
	if len(deps) == 0 {
		fmt.Println("No deployments found.")
		return
	}

	fmt.Printf("%-20s %-8s %-10s %-24s %s\n",
		"NAME", "REPLICA", "STATUS", "IMAGE", "PORTS")

	for _, dep := range deps {
		portsStr := FormatPortsList(dep.Ports)
		if dep.Status == model.StatusFailed {
			portsStr = fmt.Sprintf("%s (exit %d)", portsStr, dep.ExitCode)
		}

		fmt.Printf("%-20s %-8d %-10s %-24s %s\n",
			dep.Name,
			dep.Replica,
			dep.Status.String(),
			dep.Image,
			portsStr,
		)
	}
}

// FormatPortsList converts a slice of PortBindings into a comma-separated
// string of host ports. Returns "-" if no ports are published.
//
// This function is exported for testing purposes (tested in list_test.go).
//
// Example:
//
//	[{HostPort: 10000}, {HostPort: 20000}] → "10000,20000"
//	[]                                      → "-"
func FormatPortsList(bindings []model.PortBinding) string {
	if len(bindings) == 0 {
		return "-"
	}

	// Collect all host ports as integers for proper numeric sorting.
	portNums := make([]int, 0, len(bindings))
	for _, pb := range bindings {
		portNums = append(portNums, pb.HostPort)
	}

	// Sort numerically to ensure correct ordering (e.g., 3000 before 15432).
	// Lexicographic sort would incorrectly order "15432" before "3000".
	sort.Ints(portNums)

	ports := make([]string, 0, len(portNums))
	for _, p := range portNums {
		ports = append(ports, strconv.Itoa(p))
	}
	return strings.Join(ports, ",")
}
