package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"annotator/internal/dataset"
)

type episodeRow struct {
	Index      int      `json:"episode_index"`
	Length     int      `json:"length"`
	FPS        float64  `json:"fps"`
	Duration   float64  `json:"duration"`
	VideoStart float64  `json:"video_start_time"`
	VideoEnd   float64  `json:"video_end_time"`
	Tasks      []string `json:"tasks,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	var videoKey string

	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "List episodes and their timing",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ds, err := ctx.loadDataset()
			if err != nil {
				return err
			}
			rows := episodeRows(ds, videoKey)
			if ctx.jsonOutput() {
				return writeJSON(cmd, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No episodes")
				return nil
			}
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				span := fmt.Sprintf("%s-%s", seconds(row.VideoStart), seconds(row.VideoEnd))
				if row.Error != "" {
					span = row.Error
				}
				table = append(table, []string{
					strconv.Itoa(row.Index),
					strconv.Itoa(row.Length),
					strconv.FormatFloat(row.FPS, 'f', -1, 64),
					seconds(row.Duration),
					span,
					strings.Join(row.Tasks, "; "),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"Episode", "Frames", "FPS", "Duration", "Video span", "Tasks"},
				table,
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&videoKey, "video-key", "", "Video stream used to resolve the span")
	return cmd
}

func episodeRows(ds *dataset.Dataset, videoKey string) []episodeRow {
	episodes := ds.Episodes()
	rows := make([]episodeRow, 0, len(episodes))
	for _, ep := range episodes {
		row := episodeRow{Index: ep.Index, Length: ep.Length(), FPS: ds.FPS(), Tasks: ep.Tasks()}
		timing, err := ds.Timing(ep.Index, videoKey)
		if err != nil {
			row.Error = err.Error()
		} else {
			row.Duration = timing.Duration
			row.VideoStart = timing.VideoStart
			row.VideoEnd = timing.VideoEnd
		}
		rows = append(rows, row)
	}
	return rows
}
