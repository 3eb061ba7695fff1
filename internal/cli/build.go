// Package cli — build.go implements the "mlship build" command.
//
// The build command turns an application directory into a container
// image:
//  1. Load and validate the mlship.json manifest
//  2. Generate the Dockerfile (system packages, dependency layer,
//     source copy, entrypoint)
//  3. Stream the build context to the Docker daemon
//  4. Report the resulting image tag (text or JSON)
//
// The daemon tags the image only after every instruction succeeds, so a
// failed build never leaves a partially built image behind.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/riskline/mlship/internal/buildspec"
	"github.com/riskline/mlship/internal/docker"
	"github.com/riskline/mlship/internal/model"
)

// buildFlags holds the flag values for the build command.
// These are bound to cobra flags in NewBuildCommand.
type buildFlags struct {
	noCache bool // --no-cache: disable layer cache reuse
	pull    bool // --pull: always pull a newer base image
	quiet   bool // --quiet: suppress build progress output
}

// NewBuildCommand creates the "build" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewBuildCommand() *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build [directory]",
		Short: "Build a container image from an application directory",
		Long: `Build a container image for the application in the given directory
(default: current directory).

The directory must contain an mlship.json manifest. The generated
Dockerfile installs system packages in a single cleaned layer, installs
pip dependencies from the requirements file before copying the source
tree, and sets the manifest entrypoint as the container command.

Examples:
  mlship build
  mlship build ./services/risk-api
  mlship build --no-cache --pull`,

		// At most one positional argument: the application directory.
		Args: cobra.MaximumNArgs(1),

		// RunE is used instead of Run so we can return errors. Cobra will
		// pass them to the Execute error handler in root.go.
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runBuild(cmd.Context(), dir, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "Do not use the layer cache when building")
	cmd.Flags().BoolVar(&flags.pull, "pull", false, "Always attempt to pull a newer base image")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Suppress build progress output")

	return cmd
}

// runBuild is the main logic function for the build command.
func runBuild(ctx context.Context, dir string, flags *buildFlags) error {
	// Step 1: Load the manifest and resolve defaults.
	plan, err := buildspec.Load(dir)
	if err != nil {
		return model.WrapCLIError(model.ExitManifestNotFound,
			fmt.Sprintf("failed to load %s from %s", buildspec.ManifestFileName, dir), err)
	}
	VerboseLog("Loaded manifest: name=%s image=%s base=%s", plan.Name, plan.Image, plan.BaseImage)

	// Step 2: Validate before touching Docker; a bad manifest should
	// fail fast with every problem listed at once.
	if err := plan.Validate(); err != nil {
		return model.WrapCLIError(model.ExitManifestNotFound, "manifest validation failed", err)
	}

	// Step 3: Connect to Docker and verify the daemon is available.
	cli, err := docker.NewClient()
	if err != nil {
		return err // NewClient already returns CLIError with ExitDockerNotRunning
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	VerboseLog("Connected to Docker daemon")

	// Step 4: Build. Progress goes to stderr so stdout stays reserved
	// for the result, matching the --json contract.
	var progress io.Writer
	if !flags.quiet && !IsJSONOutput() {
		progress = os.Stderr
	}

	if err := docker.BuildImage(ctx, cli, plan, docker.BuildOptions{
		NoCache:  flags.noCache,
		Pull:     flags.pull,
		Progress: progress,
	}); err != nil {
		return err
	}

	// Step 5: Output results.
	printBuildResult(plan)
	return nil
}

// printBuildResult outputs the build result in text or JSON format.
func printBuildResult(plan *buildspec.Plan) {
	if IsJSONOutput() {
		result := struct {
			Name  string `json:"name"`
			Image string `json:"image"`
		}{
			Name:  plan.Name,
			Image: plan.Image,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Built image %q for deployment %q\n", plan.Image, plan.Name)
}
