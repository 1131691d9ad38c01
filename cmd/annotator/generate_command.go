package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"annotator/internal/annotations"
	"annotator/internal/generate"
)

type subtaskView struct {
	RunID    string                `json:"run_id"`
	Episode  int                   `json:"episode_index"`
	Mode     generate.Mode         `json:"mode"`
	Summary  string                `json:"summary"`
	Segments []annotations.Subtask `json:"subtasks"`
}

type qaView struct {
	RunID   string                  `json:"run_id"`
	Episode int                     `json:"episode_index"`
	Mode    generate.Mode           `json:"mode"`
	Dense   bool                    `json:"dense"`
	Pairs   []annotations.HighLevel `json:"high_levels"`
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate annotations for an episode with the vision model",
	}
	cmd.AddCommand(newGenerateSubtasksCommand(ctx))
	cmd.AddCommand(newGenerateQACommand(ctx))
	return cmd
}

func newGenerateSubtasksCommand(ctx *commandContext) *cobra.Command {
	var (
		videoKey      string
		stride        float64
		summaryFrames int
		segmentFrames int
		maxSteps      int
		maxSegments   int
		startTime     float64
		resume        bool
		language      string
		merge         bool
		mode          string
	)

	cmd := &cobra.Command{
		Use:   "subtasks <episode>",
		Short: "Label an episode with windowed subtask segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			episode, err := parseEpisodeArg(args[0])
			if err != nil {
				return err
			}
			parsedMode, err := generate.ParseMode(mode)
			if err != nil {
				return err
			}
			svc, err := ctx.generationService()
			if err != nil {
				return err
			}

			req := generate.SubtaskRequest{
				Episode:       episode,
				VideoKey:      videoKey,
				Stride:        stride,
				SegmentFrames: segmentFrames,
				MaxSteps:      maxSteps,
				MaxSegments:   maxSegments,
				Resume:        resume,
				Language:      language,
				Mode:          parsedMode,
			}
			flags := cmd.Flags()
			if flags.Changed("summary-frames") {
				req.SummaryFrames = &summaryFrames
			}
			if flags.Changed("start") {
				req.StartTime = &startTime
			}
			if flags.Changed("merge") {
				req.MergeAdjacent = &merge
			}
			progress, finish := newProgress(cmd, ctx.loggerValue(), "subtasks")
			req.Progress = progress

			result, err := svc.GenerateSubtasks(cmd.Context(), req)
			finish()
			if err != nil {
				return err
			}

			view := subtaskView{
				RunID:    result.RunID,
				Episode:  result.Episode,
				Mode:     result.Mode,
				Summary:  result.Summary,
				Segments: result.Segments,
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			if view.Summary != "" {
				fmt.Fprintf(out, "Summary: %s\n", view.Summary)
			}
			fmt.Fprint(out, renderSubtasks(view.Segments))
			fmt.Fprintf(out, "Stored %d subtask(s) for episode %d (%s)\n", len(view.Segments), view.Episode, view.Mode)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&videoKey, "video-key", "", "Video stream to label")
	flags.Float64Var(&stride, "stride", 0, "Seconds between windows (defaults to subtasks.stride_seconds)")
	flags.IntVar(&summaryFrames, "summary-frames", 0, "Frames sampled for the episode summary (0 disables it)")
	flags.IntVar(&segmentFrames, "segment-frames", 0, "Frames sampled per window clip")
	flags.IntVar(&maxSteps, "max-steps", 0, "Maximum number of windows")
	flags.IntVar(&maxSegments, "max-segments", 0, "Split the episode into this many windows")
	flags.Float64Var(&startTime, "start", 0, "Start labeling at this episode time in seconds")
	flags.BoolVar(&resume, "resume", false, "Continue after the last stored subtask")
	flags.StringVar(&language, "language", "", "Label language (auto matches the episode task)")
	flags.BoolVar(&merge, "merge", true, "Merge adjacent segments that share a label")
	flags.StringVar(&mode, "mode", string(generate.ModeReplace), "Store mode: replace or append")
	return cmd
}

func newGenerateQACommand(ctx *commandContext) *cobra.Command {
	var (
		videoKey     string
		stride       float64
		window       float64
		windowFrames int
		maxSteps     int
		maxSegments  int
		startTime    float64
		resume       bool
		language     string
		scenario     string
		response     string
		skill        string
		dense        bool
		mode         string
	)

	cmd := &cobra.Command{
		Use:     "vqa <episode>",
		Aliases: []string{"qa"},
		Short:   "Generate question/answer pairs for an episode",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			episode, err := parseEpisodeArg(args[0])
			if err != nil {
				return err
			}
			parsedMode, err := generate.ParseMode(mode)
			if err != nil {
				return err
			}
			svc, err := ctx.generationService()
			if err != nil {
				return err
			}

			req := generate.QARequest{
				Episode:      episode,
				VideoKey:     videoKey,
				Stride:       stride,
				Window:       window,
				WindowFrames: windowFrames,
				MaxSteps:     maxSteps,
				MaxSegments:  maxSegments,
				Resume:       resume,
				Language:     language,
				ScenarioType: scenario,
				ResponseType: response,
				Skill:        skill,
				Mode:         parsedMode,
			}
			flags := cmd.Flags()
			if flags.Changed("start") {
				req.StartTime = &startTime
			}
			if flags.Changed("dense") {
				req.Dense = &dense
			}
			progress, finish := newProgress(cmd, ctx.loggerValue(), "vqa")
			req.Progress = progress

			result, err := svc.GenerateQA(cmd.Context(), req)
			finish()
			if err != nil {
				return err
			}

			view := qaView{
				RunID:   result.RunID,
				Episode: result.Episode,
				Mode:    result.Mode,
				Dense:   result.Dense,
				Pairs:   result.Pairs,
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderHighLevels(view.Pairs))
			fmt.Fprintf(out, "Stored %d pair(s) for episode %d (%s)\n", len(view.Pairs), view.Episode, view.Mode)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&videoKey, "video-key", "", "Video stream to question")
	flags.Float64Var(&stride, "stride", 0, "Seconds between windows (defaults to vqa.stride_seconds)")
	flags.Float64Var(&window, "window", 0, "Seconds covered by each window")
	flags.IntVar(&windowFrames, "window-frames", 0, "Frames sampled per window clip")
	flags.IntVar(&maxSteps, "max-steps", 0, "Maximum number of windows")
	flags.IntVar(&maxSegments, "max-segments", 0, "Cap on dense windows")
	flags.Float64Var(&startTime, "start", 0, "Start at this episode time in seconds")
	flags.BoolVar(&resume, "resume", false, "Continue after the last stored pair")
	flags.StringVar(&language, "language", "", "Question language")
	flags.StringVar(&scenario, "scenario-type", "", "Scenario tag stored with each pair")
	flags.StringVar(&response, "response-type", "", "Response tag stored with each pair")
	flags.StringVar(&skill, "skill", "", "Skill tag stored with each pair")
	flags.BoolVar(&dense, "dense", false, "Emit one pair per window, with placeholders for failures")
	flags.StringVar(&mode, "mode", string(generate.ModeReplace), "Store mode: replace or append")
	return cmd
}

func renderSubtasks(segments []annotations.Subtask) string {
	if len(segments) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(segments))
	for i, seg := range segments {
		rows = append(rows, []string{strconv.Itoa(i), seconds(seg.Start), seconds(seg.End), seg.Label})
	}
	return renderTable(
		[]string{"#", "Start", "End", "Label"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
	) + "\n"
}

func renderHighLevels(pairs []annotations.HighLevel) string {
	if len(pairs) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(pairs))
	for i, pair := range pairs {
		rows = append(rows, []string{
			strconv.Itoa(i),
			seconds(pair.Start),
			seconds(pair.End),
			pair.UserPrompt,
			pair.RobotUtterance,
		})
	}
	return renderTable(
		[]string{"#", "Start", "End", "Question", "Answer"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft},
	) + "\n"
}
