package main

import (
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"pkt.systems/tabcap/internal/appconfig"
)

func newTabsCmd() *cobra.Command {
	var cfgPath string
	var baseURL string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tabs",
		Short: "List browser tabs and their capture state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = controlBaseURL(cfg.HTTP.Addr)
			}
			var body struct {
				Tabs []struct {
					ID      string `json:"id"`
					Title   string `json:"title"`
					URL     string `json:"url"`
					State   string `json:"state"`
					Toggle  string `json:"toggle"`
					Entries int    `json:"entries"`
				} `json:"tabs"`
			}
			resp, err := resty.New().SetBaseURL(baseURL).R().
				SetContext(cmd.Context()).
				SetResult(&body).
				Get("/api/tabs")
			if err != nil {
				return fmt.Errorf("list tabs: %w", err)
			}
			if resp.IsError() {
				return fmt.Errorf("list tabs: status %d", resp.StatusCode())
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(body.Tabs)
			}
			for _, tab := range body.Tabs {
				line := fmt.Sprintf("%s\t%s\t%s\t%s", tab.ID, tab.State, tab.Title, tab.URL)
				if tab.Entries > 0 {
					line = fmt.Sprintf("%s\t(%d entries)", line, tab.Entries)
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "control API base URL")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print tabs as JSON")
	return cmd
}

func controlBaseURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://127.0.0.1" + addr
	}
	return "http://" + addr
}
