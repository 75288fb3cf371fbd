package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/tabcap/internal/appconfig"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the tabcap configuration file",
	}
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var path string
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := appconfig.WriteDefault(path, overwrite)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), written)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "target path for the config file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing config file")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the default config path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := appconfig.DefaultConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
