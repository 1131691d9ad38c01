package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var datasetFlag string
	var jsonFlag bool

	ctx := newCommandContext(&configFlag, &datasetFlag, &jsonFlag)

	rootCmd := &cobra.Command{
		Use:           "annotator",
		Short:         "Annotate robot demonstration datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&datasetFlag, "dataset", "d", "", "Dataset root (overrides dataset.root)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Write machine-readable JSON output")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newEpisodesCommand(ctx))
	rootCmd.AddCommand(newTimingCommand(ctx))
	rootCmd.AddCommand(newGenerateCommand(ctx))
	rootCmd.AddCommand(newAnnotationsCommand(ctx))
	rootCmd.AddCommand(newPromptsCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))

	return rootCmd
}
