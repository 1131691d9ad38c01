package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"annotator/internal/annotations"
	"annotator/internal/dataset"
)

type annotationView struct {
	Episode    int                     `json:"episode_index"`
	Path       string                  `json:"path"`
	Subtasks   []annotations.Subtask   `json:"subtasks"`
	HighLevels []annotations.HighLevel `json:"high_levels"`
	QALabels   []annotations.QALabel   `json:"qa_labels"`
}

func newAnnotationsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "annotations",
		Aliases: []string{"ann"},
		Short:   "Inspect and import stored annotations",
	}
	cmd.AddCommand(newAnnotationsShowCommand(ctx))
	cmd.AddCommand(newAnnotationsImportCommand(ctx))
	return cmd
}

func newAnnotationsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <episode>",
		Short: "Print an episode's subtasks, high-level tasks and QA labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			episode, err := parseEpisodeArg(args[0])
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
			ann := store.Get(episode)
			view := annotationView{
				Episode:    episode,
				Path:       store.Path(),
				Subtasks:   ann.Subtasks,
				HighLevels: ann.HighLevels,
				QALabels:   ann.QALabels,
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			if ann.Empty() {
				fmt.Fprintf(out, "No annotations for episode %d\n", episode)
				return nil
			}
			if len(view.Subtasks) > 0 {
				fmt.Fprintln(out, "Subtasks")
				fmt.Fprint(out, renderSubtasks(view.Subtasks))
			}
			if len(view.HighLevels) > 0 {
				fmt.Fprintln(out, "High-level tasks")
				fmt.Fprint(out, renderHighLevels(view.HighLevels))
			}
			if len(view.QALabels) > 0 {
				rows := make([][]string, 0, len(view.QALabels))
				for _, qa := range view.QALabels {
					rows = append(rows, []string{strconv.Itoa(qa.FrameIdx), qa.Type, qa.Question, qa.Answer})
				}
				fmt.Fprintln(out, "QA labels")
				fmt.Fprintln(out, renderTable(
					[]string{"Frame", "Type", "Question", "Answer"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
			}
			return nil
		},
	}
}

func newAnnotationsImportCommand(ctx *commandContext) *cobra.Command {
	var episodes []int

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import annotations from per-sample files",
	}

	run := func(kind string) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			_, ds, err := ctx.loadDataset()
			if err != nil {
				return err
			}
			store, err := ctx.openStore(ds)
			if err != nil {
				return err
			}
			targets := episodes
			if len(targets) == 0 {
				targets = episodeIndexes(ds)
			}
			var report annotations.ImportReport
			switch kind {
			case "subtasks":
				report, err = store.ImportSubtasks(args[0], targets, ds.FPS())
			default:
				report, err = store.ImportQA(args[0], targets)
			}
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, report)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d %s record(s) into %d episode(s); %d sample folder(s) missing\n",
				report.Records, kind, report.EpisodesUpdated, report.MissingSamples)
			return nil
		}
	}

	subtasks := &cobra.Command{
		Use:   "subtasks <root>",
		Short: "Import sample_NNNNNN/segments.json files as subtasks",
		Args:  cobra.ExactArgs(1),
		RunE:  run("subtasks"),
	}
	qa := &cobra.Command{
		Use:   "qa <root>",
		Short: "Import sample_NNNNNN/*.jsonl files as QA labels",
		Args:  cobra.ExactArgs(1),
		RunE:  run("qa"),
	}
	cmd.PersistentFlags().IntSliceVar(&episodes, "episodes", nil, "Episodes to import (defaults to every dataset episode)")
	cmd.AddCommand(subtasks, qa)
	return cmd
}

func episodeIndexes(ds *dataset.Dataset) []int {
	eps := ds.Episodes()
	out := make([]int, 0, len(eps))
	for _, ep := range eps {
		out = append(out, ep.Index)
	}
	return out
}
