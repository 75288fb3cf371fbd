package main

import (
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pkt.systems/pslog"
	"pkt.systems/tabcap/chrome"
	"pkt.systems/tabcap/core"
	"pkt.systems/tabcap/download"
	"pkt.systems/tabcap/httpapi"
	"pkt.systems/tabcap/internal/appconfig"
	"pkt.systems/tabcap/schema"
)

func newRecordCmd() *cobra.Command {
	var cfgPath string
	var remoteURL string
	var addr string
	var outputDir string
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Connect to the browser and serve the capture toggle API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := pslog.Ctx(ctx)
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if remoteURL != "" {
				cfg.Browser.RemoteURL = remoteURL
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			store, err := download.NewStore(cfg.OutputDir, logger)
			if err != nil {
				return err
			}
			browser, err := chrome.NewBrowser(chrome.Config{RemoteURL: cfg.Browser.RemoteURL}, logger)
			if err != nil {
				return err
			}
			svc, err := core.NewService(schema.ManagerConfig{
				PromptForPath:  cfg.Capture.PromptForPath,
				CleanupTimeout: time.Duration(cfg.Capture.CleanupTimeoutSeconds) * time.Second,
			}, core.ServiceDeps{
				Debugger:  browser,
				Downloads: store,
				EventSink: newEventLogger(logger),
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			browser.Bind(svc)
			if err := browser.Connect(ctx); err != nil {
				return err
			}
			defer func() { _ = browser.Close() }()
			logger.Info("browser connected", "remote_url", cfg.Browser.RemoteURL)

			server, err := httpapi.New(httpapi.Config{Addr: cfg.HTTP.Addr}, httpapi.Deps{
				Service: svc,
				Pages:   browser,
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			logger.Info("control api listening", "addr", cfg.HTTP.Addr, "output_dir", cfg.OutputDir)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.Serve(gctx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&remoteURL, "remote-url", "", "browser remote debugging URL")
	cmd.Flags().StringVar(&addr, "addr", "", "control API listen address")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for exported logs")
	return cmd
}

// eventLogger reports capture lifecycle transitions in the server log.
type eventLogger struct {
	logger pslog.Logger
}

func newEventLogger(logger pslog.Logger) *eventLogger {
	return &eventLogger{logger: logger}
}

func (e *eventLogger) OnCaptureEvent(ev schema.CaptureEvent) {
	logger := e.logger.With("tab", ev.TabID, "state", ev.State)
	switch ev.Type {
	case schema.CaptureEventStarted:
		logger.Info("capture started")
	case schema.CaptureEventSaved:
		logger.Info("capture saved", "entries", ev.Entries, "file", ev.File, "download", ev.Download)
	case schema.CaptureEventDiscarded:
		logger.Info("capture discarded", "entries", ev.Entries)
	case schema.CaptureEventStopped:
		logger.Info("capture stopped", "entries", ev.Entries)
	default:
		logger.Debug("capture event", "type", ev.Type)
	}
}
