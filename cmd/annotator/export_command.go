package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"annotator/internal/config"
	"annotator/internal/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var linkVideos bool

	cmd := &cobra.Command{
		Use:   "export <output-dir>",
		Short: "Write an annotated copy of the dataset metadata and sample columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			_, ds, err := ctx.loadDataset()
			if err != nil {
				return err
			}
			store, err := ctx.openStore(ds)
			if err != nil {
				return err
			}
			progress, finish := newProgress(cmd, ctx.loggerValue(), "export")
			exporter := export.NewExporter(ds, store,
				export.WithLogger(ctx.loggerValue()),
				export.WithLinkedVideos(linkVideos),
				export.WithProgress(progress),
			)
			report, err := exporter.Run(cmd.Context(), out)
			finish()
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, report)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Exported %d sample(s) across %d partition(s) to %s\n", report.Samples, report.Partitions, report.OutputDir)
			fmt.Fprintf(w, "Labels: %d subtask, %d high-level task, %d QA\n", report.Subtasks, report.TasksHighLevel, report.QALabels)
			fmt.Fprintf(w, "Database: %s\n", report.Database)
			return nil
		},
	}

	cmd.Flags().BoolVar(&linkVideos, "link-videos", false, "Symlink the source videos directory into the output")
	return cmd
}
