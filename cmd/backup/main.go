package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/semmidev/mongo-s3-backup/internal/app"
	"github.com/semmidev/mongo-s3-backup/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and returns the process exit code.
func run(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var now bool

	cmd := &cobra.Command{
		Use:           "backup <config>",
		Short:         "Back up a MongoDB database to S3-compatible storage",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			application, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			defer application.Shutdown()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if now {
				return application.RunOnce(ctx)
			}
			return application.Run(ctx)
		},
	}

	cmd.Flags().BoolVarP(&now, "now", "n", false, "run a single backup immediately and exit")
	return cmd
}
