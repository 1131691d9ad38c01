package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"annotator/internal/dataset"
	"annotator/internal/media/ffprobe"
)

type timingView struct {
	Episode  int                   `json:"episode_index"`
	VideoKey string                `json:"video_key"`
	Video    string                `json:"video_path"`
	Timing   dataset.EpisodeTiming `json:"timing"`
	Probe    *probeView            `json:"probe,omitempty"`
}

type probeView struct {
	Duration  float64 `json:"duration"`
	FrameRate float64 `json:"frame_rate"`
	Frames    int     `json:"frames"`
	SizeBytes int64   `json:"size_bytes"`
}

func newTimingCommand(ctx *commandContext) *cobra.Command {
	var videoKey string
	var probe bool

	cmd := &cobra.Command{
		Use:   "timing <episode>",
		Short: "Show where an episode lives inside its video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			episode, err := parseEpisodeArg(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			_, ds, err := ctx.loadDataset()
			if err != nil {
				return err
			}
			key, err := ds.ResolveVideoKey(firstNonBlank(videoKey, cfg.Dataset.VideoKey))
			if err != nil {
				return err
			}
			timing, err := ds.Timing(episode, key)
			if err != nil {
				return err
			}
			path, err := ds.VideoPath(episode, key)
			if err != nil {
				return err
			}
			view := timingView{Episode: episode, VideoKey: key, Video: path, Timing: timing}
			if probe {
				result, err := ffprobe.Inspect(cmd.Context(), cfg.Media.FFprobeBinary, path)
				if err != nil {
					return fmt.Errorf("probe %s: %w", path, err)
				}
				view.Probe = &probeView{
					Duration:  result.DurationSeconds(),
					FrameRate: result.FrameRate(),
					SizeBytes: result.SizeBytes(),
				}
				if stream, ok := result.Video(); ok {
					view.Probe.Frames = stream.FrameCount()
				}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Episode:     %d\n", view.Episode)
			fmt.Fprintf(out, "Video key:   %s\n", view.VideoKey)
			fmt.Fprintf(out, "Video:       %s\n", view.Video)
			fmt.Fprintf(out, "Frames:      %d @ %s fps\n", timing.Length, strconv.FormatFloat(timing.FPS, 'f', -1, 64))
			fmt.Fprintf(out, "Duration:    %ss\n", seconds(timing.Duration))
			fmt.Fprintf(out, "Video span:  %ss - %ss\n", seconds(timing.VideoStart), seconds(timing.VideoEnd))
			fmt.Fprintf(out, "Shared file: %s\n", yesNo(timing.Concatenated))
			if view.Probe != nil {
				fmt.Fprintf(out, "File length: %ss (%d frames, %s)\n",
					seconds(view.Probe.Duration), view.Probe.Frames, humanBytes(view.Probe.SizeBytes))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&videoKey, "video-key", "", "Video stream to resolve (defaults to dataset.video_key or the first stream)")
	cmd.Flags().BoolVar(&probe, "probe", false, "Inspect the video file with ffprobe")
	return cmd
}

func parseEpisodeArg(value string) (int, error) {
	episode, err := strconv.Atoi(value)
	if err != nil || episode < 0 {
		return 0, fmt.Errorf("invalid episode index %q", value)
	}
	return episode, nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
