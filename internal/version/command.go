package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AttachCobraVersionCommand adds `ffmpeg-upgrade version` to root.
func AttachCobraVersionCommand(root *cobra.Command) {
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show which ffmpeg-upgrade binary is installed",
		Long: "Show the upgrader's own version, commit, build time and platform.\n" +
			"To install an FFmpeg release, run ffmpeg-upgrade <version> instead.",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), Full())
		},
	})
}
