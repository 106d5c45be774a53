package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"alexandria_reader/library"
)

var splitCmd = &cobra.Command{
	Use:   "split <file.txt>",
	Short: "Split a text book into chapters and paragraphs, printed as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSplit,
}

var splitArgs struct {
	output string
}

func init() {
	splitCmd.Flags().StringVarP(&splitArgs.output, "output", "o", "", "write JSON to this file instead of stdout")
	RootCmd.AddCommand(splitCmd)
}

func runSplit(cmd *cobra.Command, args []string) (err error) {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	chapters, err := library.SplitText(f)
	if err != nil {
		return fmt.Errorf("splitting %s: %w", args[0], err)
	}
	env.log.Info("Split book", zap.String("file", args[0]), zap.Int("chapters", len(chapters)))

	data, err := json.MarshalIndent(chapters, "", "  ")
	if err != nil {
		return err
	}
	if splitArgs.output == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	return os.WriteFile(splitArgs.output, data, 0644)
}
