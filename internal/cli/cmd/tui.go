package cmd

import (
	"github.com/spf13/cobra"
)

func newTuiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tui <root> <api_id> <api_hash> <target> <credit>",
		Short:         "Upload with the interactive progress view",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, args, uploadMode{ForceTUI: true})
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}
