package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kdocs/docuflow/internal/config"
	"github.com/kdocs/docuflow/internal/home"
	"github.com/kdocs/docuflow/internal/server"
	"github.com/kdocs/docuflow/internal/server/endpoints"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the docuflow server",
	Long: `Start the docuflow HTTP server.

The server provides:
  - POST /binarize-and-ocr-multi     - Binarize, OCR and structure scanned pages
  - POST /translate                  - Translate structured JSON
  - POST /generate-doc               - Render the translated document
  - GET  /outputs/{session}/{file}   - Fetch a session artifact
  - GET  /health, /status            - Health and configuration status

Edits to the config file are picked up without a restart.

Examples:
  docuflow serve                    # Start on 127.0.0.1:8000
  docuflow serve --port 3000        # Start on custom port
  docuflow serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}

		cfgMgr, err := config.NewManager(cfgFile, h.Path())
		if err != nil {
			return err
		}
		cfg := cfgMgr.Get()

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLevel(cfg.Log.Level),
		}))

		if file := cfgMgr.File(); file != "" {
			logger.Info("using config file", "path", file)
			cfgMgr.OnError(func(err error) {
				logger.Error("config reload failed; keeping previous config", "error", err)
			})
			cfgMgr.WatchConfig()
		} else {
			logger.Info("no config file found; using defaults and environment")
		}

		srv, err := server.New(server.Config{
			Host:            serveHost,
			Port:            servePort,
			ConfigManager:   cfgMgr,
			Home:            h,
			SwaggerSpecPath: endpoints.GetSwaggerSpecPath(),
			Logger:          logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default: server.port)")

	rootCmd.AddCommand(serveCmd)
}
