package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/ffmpeg-upgrade/internal/service/upgrader"
	"github.com/oshokin/ffmpeg-upgrade/internal/version"
)

var (
	// configPath to the settings YAML file.
	configPath string
	// logLevel overrides the log_level setting.
	logLevel string
	// dryRun only logs the planned actions.
	dryRun bool

	// rootCmd downloads a release, relinks the source tree and rebuilds it.
	rootCmd = &cobra.Command{
		Use:   "ffmpeg-upgrade [flags] <version> [extra-build-args...]",
		Short: "Switch the JNI build to an FFmpeg release and rebuild it",
		Long: `Downloads ffmpeg-<version>.tar.bz2 from the release folder (skipped when the
tarball is already in the working directory), unpacks it, points
ffmpeg/JNI/ffmpeg at the new source tree and runs ffmpeg/JNI/rebuild-ffmpeg.sh.

Everything after <version> is passed to the rebuild script after "all".
Flags must come before <version>.`,
		Example: `  ffmpeg-upgrade 7.2
  ffmpeg-upgrade --log-level debug 7.1 --enable-gpl`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("%w: requires a <version> argument", upgrader.ErrUsage)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Run logs its own errors; usage is only useful for argument errors.
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &upgrader.Options{
				ConfigPath: configPath,
				Version:    args[0],
				ExtraArgs:  args[1:],
				LogLevel:   logLevel,
				DryRun:     dryRun,
				Stdout:     cmd.OutOrStdout(),
				Stderr:     cmd.ErrOrStderr(),
			}

			return upgrader.Run(ctx, options)
		},
	}
)

// Execute runs the ffmpeg-upgrade CLI and exits with the status of the run.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(initConfigCmd)

	err := rootCmd.Execute()
	os.Exit(upgrader.ExitCode(err))
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to settings file (default ./ffmpeg-upgrade.yaml when present)")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level: debug, info, warn or error")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log the planned actions without changing anything")

	// Flags after <version> belong to the rebuild script.
	rootCmd.Flags().SetInterspersed(false)
}
