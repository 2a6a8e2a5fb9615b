package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"tgcourse/internal/config"
	"tgcourse/internal/logging"
	"tgcourse/internal/progress"
)

const (
	ExitOK          = 0
	ExitCLIError    = 1
	ExitMissingDep  = 2
	ExitUploadError = 3
	ExitAuthError   = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

type ctxKey string

const settingsKey ctxKey = "settings"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tgcourse <root> <api_id> <api_hash> <target> <credit>",
		Short: "Publish a folder of course videos to a Telegram chat",
		Long: "tgcourse walks a course directory, posts a header and one section per folder, " +
			"uploads every video with a preview and caption, and finishes with a navigable index. " +
			"Progress is written to stdout as JSON lines, or shown as a TUI on a terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Argument count is checked by the run itself so the failure is
		// reported on the progress channel.
		Args: cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, args, uploadMode{})
		},
	}

	bindPersistentFlags(root.PersistentFlags())
	// Positional args may start with '-' (channel ids, credits); stop
	// flag parsing at the first one.
	root.Flags().SetInterspersed(false)
	root.SetFlagErrorFunc(failSetup)

	root.AddCommand(newUploadCmd())
	root.AddCommand(newLoginCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func bindPersistentFlags(fs *pflag.FlagSet) {
	fs.String("base-dir", "", "Directory holding the session file (default: per-user state dir)")
	fs.String("session-name", config.DefaultSessionName, "Session file name without extension")
	fs.String("ffmpeg", "", "Path to ffmpeg (default: look up in PATH)")
	fs.Duration("delay", config.DefaultDelay, "Pause after every upload attempt")
	fs.String("thumb-offset", config.DefaultThumbOffset, "Timestamp of the preview frame")
	fs.String("log-level", "info", "Log level: debug, info, warn, error")
	fs.BoolP("verbose", "v", false, "Debug logging, including subprocess commands")
	fs.Bool("no-ui", false, "Disable TUI; always write JSON lines")
}

// setup loads configuration and logging once per invocation.
func setup(cmd *cobra.Command) error {
	if err := config.Init(cmd.Root()); err != nil {
		return failSetup(cmd, err)
	}
	st, err := config.Load()
	if err != nil {
		return failSetup(cmd, err)
	}
	logging.Init(cmd.ErrOrStderr(), st.LogLevel, st.Verbose)
	cmd.SetContext(context.WithValue(cmd.Context(), settingsKey, st))
	return nil
}

// eventReporter returns the progress channel of commands driven by a
// supervising process, in that command's wire shape.
func eventReporter(cmd *cobra.Command) (progress.Reporter, func(string) string, bool) {
	switch {
	case cmd.Name() == "login":
		return progress.NewWriter(cmd.OutOrStdout(), progress.FormatLogin), scriptCrash, true
	case !cmd.HasParent(), cmd.Name() == "upload", cmd.Name() == "tui":
		return progress.NewWriter(cmd.OutOrStdout(), progress.FormatUpload), criticalError, true
	}
	return nil, nil, false
}

// failSetup reports a flag or configuration error as the terminal event.
func failSetup(cmd *cobra.Command, err error) error {
	err = progress.Fail("Config Error: "+err.Error(), err)
	if rep, fallback, ok := eventReporter(cmd); ok {
		progress.Finish(rep, err, "", fallback)
	}
	return &ExitError{Code: ExitCLIError, Err: err}
}

func settingsFrom(cmd *cobra.Command) config.Settings {
	if st, ok := cmd.Context().Value(settingsKey).(config.Settings); ok {
		return st
	}
	st, _ := config.Load()
	return st
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	return root.ExecuteContext(ctx)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
