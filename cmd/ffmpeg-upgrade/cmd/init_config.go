package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/ffmpeg-upgrade/internal/config"
)

var (
	// overwrite allows init-config to replace an existing file.
	overwrite bool

	errSettingsExist = errors.New("settings file already exists, use --force to overwrite")

	// initConfigCmd writes the default settings so they can be edited.
	initConfigCmd = &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write the default settings file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigFilename
			if len(args) > 0 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !overwrite {
				return fmt.Errorf("%s: %w", path, errSettingsExist)
			}

			if err := config.Save(path, config.Default()); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Settings written to %s\n", path)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	initConfigCmd.Flags().BoolVarP(&overwrite, "force", "f", false, "overwrite an existing settings file")
}
