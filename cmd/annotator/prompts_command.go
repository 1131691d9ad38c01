package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"annotator/internal/prompts"
)

var promptFiles = map[string]string{
	"subtasks": prompts.SubtaskExamplesFile,
	"vqa":      prompts.VQADemosFile,
}

func promptFile(kind string) (string, error) {
	name, ok := promptFiles[kind]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q (expected subtasks or vqa)", kind)
	}
	return name, nil
}

func newPromptsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Read and replace the example text sent with generation requests",
	}
	cmd.AddCommand(newPromptsShowCommand(ctx))
	cmd.AddCommand(newPromptsSetCommand(ctx))
	return cmd
}

func newPromptsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <subtasks|vqa>",
		Short: "Print an example file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := promptFile(args[0])
			if err != nil {
				return err
			}
			store, err := ctx.promptStore()
			if err != nil {
				return err
			}
			text, err := store.Read(name)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]string{"path": store.Path(name), "text": text})
			}
			_, err = io.WriteString(cmd.OutOrStdout(), text)
			return err
		},
	}
}

func newPromptsSetCommand(ctx *commandContext) *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "set <subtasks|vqa>",
		Short: "Replace an example file from --file or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := promptFile(args[0])
			if err != nil {
				return err
			}
			store, err := ctx.promptStore()
			if err != nil {
				return err
			}
			var data []byte
			if fromFile != "" {
				data, err = os.ReadFile(fromFile)
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read prompt text: %w", err)
			}
			if err := store.Write(name, string(data)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", store.Path(name))
			return nil
		},
	}
	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "Read the new text from this file instead of stdin")
	return cmd
}
