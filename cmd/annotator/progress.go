package main

import (
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"annotator/internal/logging"
)

// newProgress returns a window progress callback and a finish func. On an
// interactive stderr it draws a bar; otherwise it logs sampled percentages.
func newProgress(cmd *cobra.Command, logger *slog.Logger, stage string) (func(done, total int), func()) {
	if file, ok := cmd.ErrOrStderr().(*os.File); ok && isTerminal(file) {
		var bar *progressbar.ProgressBar
		update := func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(max(total, 1),
					progressbar.OptionSetWriter(file),
					progressbar.OptionSetDescription(stage),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(40),
					progressbar.OptionClearOnFinish(),
				)
			}
			if done > total {
				bar.ChangeMax(done)
			}
			_ = bar.Set(done)
		}
		finish := func() {
			if bar != nil {
				_ = bar.Finish()
			}
		}
		return update, finish
	}

	sampler := logging.NewProgressSampler(10)
	update := func(done, total int) {
		if sampler.ShouldLog(stage, done, total) {
			logger.Info("progress",
				logging.String(logging.FieldStage, stage),
				logging.Int("done", done),
				logging.Int("total", total),
			)
		}
	}
	return update, func() {}
}

func isTerminal(file *os.File) bool {
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
