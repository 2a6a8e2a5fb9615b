package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tgcourse/internal/dirs"
	"tgcourse/internal/util"
	"tgcourse/internal/util/deps"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose ffmpeg and the stored session",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := settingsFrom(cmd)
			out := cmd.OutOrStdout()

			if cfg, err := dirs.ConfigDir(); err == nil {
				fmt.Fprintf(out, "Config:  %s\n", cfg)
			}
			session := "missing (run 'tgcourse login')"
			if util.FileExists(st.SessionPath()) {
				session = "present"
			}
			fmt.Fprintf(out, "Session: %s [%s]\n", st.SessionPath(), session)

			ff, err := deps.FindFFmpeg(st.FFmpeg)
			if err != nil {
				return &ExitError{Code: ExitMissingDep, Err: err}
			}
			fmt.Fprintf(out, "FFmpeg:  %s\n", ff)
			return nil
		},
	}
}
