package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tgcourse/internal/cli"
	"tgcourse/internal/model"
	"tgcourse/internal/pipeline"
	"tgcourse/internal/util/format"
	"tgcourse/internal/util/media"
)

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "plan <root>",
		Short:         "Show what an upload would publish, without connecting",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := pipeline.BuildPlan(cli.Clean(args[0]))
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			printPlan(cmd.OutOrStdout(), plan)
			if plan.MediaCount() == 0 {
				return &ExitError{Code: ExitUploadError, Err: pipeline.ErrNoContent}
			}
			return nil
		},
	}
}

// printPlan outputs the units and files of a run without executing it.
func printPlan(w io.Writer, plan model.WorkPlan) {
	var total int64
	fmt.Fprintf(w, "Course:  %s\n", plan.Course)
	fmt.Fprintf(w, "Root:    %s\n", plan.Root)
	fmt.Fprintf(w, "Units:   %s\n", format.Count(len(plan.Units), "unit"))
	fmt.Fprintf(w, "Videos:  %s\n", format.Count(plan.MediaCount(), "video"))
	for _, u := range plan.Units {
		fmt.Fprintf(w, "\n📂 %s\n", u.Name)
		if len(u.MediaFiles) == 0 {
			fmt.Fprintln(w, "   (no videos)")
		}
		for _, f := range u.MediaFiles {
			size := "?"
			if fi, err := os.Stat(filepath.Join(u.SourcePath, f)); err == nil {
				total += fi.Size()
				size = format.HumanizeBytes(fi.Size())
			}
			fmt.Fprintf(w, "   ├─ %-40s %10s\n", media.Title(f), size)
		}
	}
	fmt.Fprintf(w, "\nTotal:   %s\n", format.HumanizeBytes(total))
}
