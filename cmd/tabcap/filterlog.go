package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/tabcap/filter"
	"pkt.systems/tabcap/internal/appconfig"
)

func newFilterCmd() *cobra.Command {
	var cfgPath string
	var rulesPath string
	var output string
	var priority bool
	var secret string
	var keywords []string
	cmd := &cobra.Command{
		Use:   "filter <log-file>",
		Short: "Reduce an exported log to the relevant requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if rulesPath == "" {
				rulesPath = cfg.Filter.RulesPath
			}
			rules, err := filter.LoadRules(rulesPath)
			if err != nil {
				return err
			}
			mode := filter.ModeRules
			if priority {
				mode = filter.ModePriority
			}
			f, err := filter.New(rules, filter.Options{
				Mode:          mode,
				Secret:        secret,
				ExtraKeywords: keywords,
			})
			if err != nil {
				return err
			}
			input := args[0]
			if output == "" {
				output = filepath.Join(filepath.Dir(input), filter.FilteredName(filepath.Base(input)))
			}
			kept, err := f.File(input, output)
			if err != nil {
				return err
			}
			logger.Info("log filtered", "input", input, "output", output, "kept", kept)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d entries)\n", output, kept)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "path to YAML rule file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path")
	cmd.Flags().BoolVar(&priority, "priority", false, "use priority heuristics instead of URL rules")
	cmd.Flags().StringVar(&secret, "secret", "", "keep entries containing this value")
	cmd.Flags().StringSliceVar(&keywords, "keyword", nil, "additional URL keywords to keep")
	return cmd
}
