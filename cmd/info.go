package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvr-ai/blobtrail/video"
)

var infoCmd = &cobra.Command{
	Use:   "info FILE...",
	Short: "Print resolution, frame rate, length and codec of video files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		out := cmd.OutOrStdout()
		for i, path := range args {
			if err := validateExtension(path, supportedVideoExtensions); err != nil {
				return err
			}
			info, err := video.Probe(path)
			if err != nil {
				return err
			}
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprint(out, info)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
