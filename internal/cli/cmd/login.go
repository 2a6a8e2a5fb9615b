package cmd

import (
	"github.com/spf13/cobra"

	"tgcourse/internal/auth"
	"tgcourse/internal/cli"
	"tgcourse/internal/control"
	"tgcourse/internal/dirs"
	"tgcourse/internal/progress"
	"tgcourse/internal/telegram"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <api_id> <api_hash>",
		Short: "Create a session: reads the phone number, then the code, from stdin",
		Long: "login discards any existing session, asks for a phone number and the one-time code " +
			"on stdin (one line each) and stores a fresh session. Status is written to stdout as JSON lines.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE:          runLogin,
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func scriptCrash(msg string) string {
	return "Script Crash: " + msg
}

func welcome(res auth.Result) string {
	return "Welcome, " + res.DisplayName + "!"
}

func runLogin(cmd *cobra.Command, args []string) error {
	st := settingsFrom(cmd)
	rep := progress.NewWriter(cmd.OutOrStdout(), progress.FormatLogin)

	creds, err := cli.ParseLoginArgs(args)
	if err != nil {
		progress.Finish(rep, err, "", scriptCrash)
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	if err := dirs.Ensure(st.BaseDir); err != nil {
		progress.Finish(rep, err, "", scriptCrash)
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	client := telegram.New(telegram.Config{
		Credentials: creds,
		SessionPath: st.SessionPath(),
	})
	lines := control.NewReader(cmd.InOrStdin())
	res, err := auth.New(client, lines, rep, st.SessionPath()).Run(cmd.Context())
	progress.Finish(rep, err, welcome(res), scriptCrash)
	if err != nil {
		return &ExitError{Code: ExitAuthError, Err: err}
	}
	return nil
}
