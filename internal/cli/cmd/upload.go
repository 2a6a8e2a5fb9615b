package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"tgcourse/internal/cli"
	"tgcourse/internal/config"
	"tgcourse/internal/dirs"
	"tgcourse/internal/logging"
	"tgcourse/internal/pipeline"
	"tgcourse/internal/progress"
	"tgcourse/internal/telegram"
	"tgcourse/internal/thumb"
	"tgcourse/internal/ui"
	"tgcourse/internal/util"
	"tgcourse/internal/util/deps"
)

// UploadSuccess is the terminal message of a completed upload run.
const UploadSuccess = "✅ All Tasks Finished!"

type uploadMode struct {
	ForceTUI bool
}

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "upload <root> <api_id> <api_hash> <target> <credit>",
		Short:         "Upload a course directory (same as the root command)",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, args, uploadMode{})
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func criticalError(msg string) string {
	return "Critical Error: " + msg
}

func runUpload(cmd *cobra.Command, args []string, mode uploadMode) error {
	st := settingsFrom(cmd)
	rep := progress.NewWriter(cmd.OutOrStdout(), progress.FormatUpload)

	in, err := cli.ParseUploadArgs(args)
	if err != nil {
		progress.Finish(rep, err, UploadSuccess, criticalError)
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	if !util.FileExists(st.SessionPath()) {
		progress.Finish(rep, cli.ErrSessionMissing, UploadSuccess, criticalError)
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("%w: %s", cli.ErrSessionMissing, st.SessionPath())}
	}

	work := func(ctx context.Context, r progress.Reporter) error {
		return upload(ctx, st, in, r)
	}

	if mode.ForceTUI || (!st.NoUI && isTerminal()) {
		if closeLog := logToFile(st); closeLog != nil {
			defer closeLog()
		}
		err = ui.Run(cmd.Context(), ui.Options{
			Title:    "tgcourse • " + filepath.Base(filepath.Clean(in.Root)),
			Success:  UploadSuccess,
			Fallback: criticalError,
		}, work)
	} else {
		err = work(cmd.Context(), rep)
		progress.Finish(rep, err, UploadSuccess, criticalError)
	}
	if err != nil {
		return &ExitError{Code: ExitUploadError, Err: err}
	}
	return nil
}

// upload runs one course through the pipeline. The connection is closed
// before upload returns so the terminal event follows its release.
func upload(ctx context.Context, st config.Settings, in cli.UploadArgs, r progress.Reporter) error {
	plan, err := pipeline.BuildPlan(in.Root)
	if err != nil {
		return err
	}

	client, err := telegram.Dial(ctx, telegram.Config{
		Credentials: in.Credentials,
		SessionPath: st.SessionPath(),
	})
	if errors.Is(err, telegram.ErrUnauthorized) {
		return &progress.Failure{Message: cli.ErrSessionMissing.Message, Err: err}
	}
	if err != nil {
		return err
	}

	opts := []pipeline.Option{
		pipeline.WithSender(client),
		pipeline.WithReporter(r),
		pipeline.WithTarget(in.Target),
		pipeline.WithCredit(in.Credit),
		pipeline.WithDelay(st.Delay),
	}
	if ff, ferr := deps.FindFFmpeg(st.FFmpeg); ferr != nil {
		log.Warn().Err(ferr).Msg("previews disabled")
	} else {
		opts = append(opts, pipeline.WithThumbnailer(thumb.New(thumb.Options{
			FFmpegPath: ff,
			Offset:     st.ThumbOffset,
			Verbose:    st.Verbose,
		})))
	}

	_, runErr := pipeline.NewService(opts...).Run(ctx, plan)
	if cerr := client.Close(); cerr != nil {
		log.Debug().Err(cerr).Msg("close telegram session")
	}
	return runErr
}

// logToFile moves logging off the terminal while the TUI owns it.
func logToFile(st config.Settings) func() {
	if err := dirs.Ensure(st.BaseDir); err != nil {
		logging.Init(io.Discard, st.LogLevel, st.Verbose)
		return nil
	}
	f, err := os.OpenFile(filepath.Join(st.BaseDir, "tgcourse.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		logging.Init(io.Discard, st.LogLevel, st.Verbose)
		return nil
	}
	logging.Init(f, st.LogLevel, st.Verbose)
	return func() { _ = f.Close() }
}
