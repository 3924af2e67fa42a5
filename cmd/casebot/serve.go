package main

import (
	"github.com/spf13/cobra"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/config"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/server"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/upload"
)

func newServeCmd() *cobra.Command {
	var (
		configPath     string
		addr           string
		memorySessions bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web chat server",
		Long:  "Serves the chat page, the JSON and WebSocket chat endpoints, uploads, transcripts and metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, addr, memorySessions)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to casebot config file")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&memorySessions, "memory-sessions", false, "keep sessions in memory instead of the database")
	return cmd
}

func runServe(cmd *cobra.Command, configPath, addr string, memorySessions bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := buildApp(ctx, cfg, appOpts{memorySessions: memorySessions})
	if err != nil {
		return err
	}
	uploads, err := createUploadStore(cfg.Uploads)
	if err != nil {
		return err
	}

	return server.Start(ctx, server.StartOpts{
		RouterOpts: routerOpts(cfg, a, uploads),
		Addr:       cfg.Server.Addr,
		Out:        cmd.OutOrStdout(),
	})
}

// routerOpts maps the config onto the HTTP server. The transcripts API is
// only mounted when enabled.
func routerOpts(cfg *config.Config, a *app, uploads upload.Store) server.RouterOpts {
	opts := server.RouterOpts{
		Service:      a.service,
		Uploads:      uploads,
		Gatherer:     a.registry,
		CookieName:   cfg.Server.CookieName,
		CookieSecure: cfg.Server.CookieSecure,
	}
	if cfg.Server.TranscriptsAPI {
		opts.Transcripts = a.files
		opts.APIToken = cfg.Server.APIToken
	}
	return opts
}
