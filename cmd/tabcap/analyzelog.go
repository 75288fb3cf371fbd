package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/tabcap/analyze"
	"pkt.systems/tabcap/internal/appconfig"
)

func newAnalyzeCmd() *cobra.Command {
	var cfgPath string
	var output string
	var model string
	cmd := &cobra.Command{
		Use:   "analyze <log-file>",
		Short: "Reduce a filtered log to its login-critical requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if model != "" {
				cfg.Analyze.Model = model
			}
			apiKey := os.Getenv("ANTHROPIC_API_KEY")
			if apiKey == "" {
				return fmt.Errorf("ANTHROPIC_API_KEY is not set")
			}
			client, err := analyze.New(analyze.Config{
				BaseURL:   cfg.Analyze.BaseURL,
				APIKey:    apiKey,
				Model:     cfg.Analyze.Model,
				MaxTokens: cfg.Analyze.MaxTokens,
			}, logger)
			if err != nil {
				return err
			}
			input := args[0]
			if output == "" {
				output = filepath.Join(filepath.Dir(input), analyze.CriticalName(filepath.Base(input)))
			}
			kept, err := client.File(cmd.Context(), input, output)
			if err != nil {
				return err
			}
			logger.Info("log analyzed", "input", input, "output", output, "kept", kept)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d entries)\n", output, kept)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&model, "model", "", "model to use")
	return cmd
}
