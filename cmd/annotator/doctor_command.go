package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"annotator/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check binaries, directories, dataset and inference endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if ctx.datasetFlag != nil && *ctx.datasetFlag != "" {
				root, err := ctx.datasetRoot()
				if err != nil {
					return err
				}
				override := *cfg
				override.Dataset.Root = root
				cfg = &override
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{SkipInference: offline})

			failed := 0
			for _, r := range results {
				if !r.Passed && !r.Optional {
					failed++
				}
			}
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					status := "ok"
					if !r.Passed {
						status = "FAIL"
						if r.Optional {
							status = "warn"
						}
					}
					rows = append(rows, []string{r.Name, status, r.Detail})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Check", "Status", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
			}
			if failed > 0 {
				return errors.New(pluralize(failed, "check failed", "checks failed"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the inference endpoint probe")
	return cmd
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
