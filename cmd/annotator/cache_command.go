package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the frame and clip cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts and disk usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.frameCache()
			if err != nil {
				return err
			}
			stats, err := cache.Stats()
			if err != nil {
				return fmt.Errorf("read cache: %w", err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, stats)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Directory: %s\n", stats.Dir)
			fmt.Fprintf(out, "Frames:    %d\n", stats.Frames)
			fmt.Fprintf(out, "Clips:     %d\n", stats.Clips)
			fmt.Fprintf(out, "Size:      %s\n", humanBytes(stats.Bytes))
			if stats.TotalBytes > 0 {
				fmt.Fprintf(out, "Free:      %s of %s\n", humanBytes(int64(stats.FreeBytes)), humanBytes(int64(stats.TotalBytes)))
			}
			return nil
		},
	})
	return cmd
}
