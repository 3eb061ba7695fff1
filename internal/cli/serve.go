// Package cli — serve.go implements the "mlship serve" command.
//
// The serve command runs the prediction service in-process: it loads
// the model artifacts, assembles the HTTP server, and serves until
// SIGINT or SIGTERM. This is the entrypoint used inside the container
// image as well as for local development.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/riskline/mlship/internal/inference"
	"github.com/riskline/mlship/internal/logging"
	"github.com/riskline/mlship/internal/model"
	"github.com/riskline/mlship/internal/server"
)

// serveFlags holds the flag values for the serve command. Flags
// override the corresponding serving.yaml values.
type serveFlags struct {
	configPath string // --config: path to serving.yaml
	bind       string // --bind: listen address override
	modelDir   string // --model-dir: artifact directory override
	logLevel   string // --log-level: zerolog level override
}

// NewServeCommand creates the "serve" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewServeCommand() *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the prediction HTTP service",
		Long: `Run the prediction service: POST /predict classifies a case
description into a category and risk label using the model artifacts
in the model directory.

Configuration is read from serving.yaml (all values have defaults);
flags override file values.

Examples:
  mlship serve
  mlship serve --bind 127.0.0.1:8080 --model-dir ./models
  mlship serve --config /etc/mlship/serving.yaml`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "serving.yaml", "Path to the serving config file")
	cmd.Flags().StringVar(&flags.bind, "bind", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&flags.modelDir, "model-dir", "", "Model artifact directory (overrides config)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (overrides config)")

	return cmd
}

// runServe is the main logic function for the serve command.
func runServe(flags *serveFlags) error {
	// Step 1: Load config and apply flag overrides.
	cfg, err := server.LoadConfig(flags.configPath)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to load serving config", err)
	}
	if flags.bind != "" {
		cfg.Bind = flags.bind
	}
	if flags.modelDir != "" {
		cfg.ModelDir = flags.modelDir
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	log := logging.New(os.Stderr, "serve", cfg.LogLevel)

	// Step 2: Load the model artifacts. A missing or broken category
	// model is fatal: a prediction service that cannot predict must not
	// start, mirroring an entrypoint that fails on import.
	store, err := inference.Open(cfg.ModelDir)
	if err != nil {
		return model.WrapCLIError(model.ExitLaunchFailed, "failed to load model artifacts", err)
	}
	log.Info().Str("model_dir", store.Dir()).Msg("model artifacts loaded")

	// Step 3: Serve until interrupted.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, store, log)
	if err := srv.Run(ctx); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "server failed", err)
	}

	return nil
}
