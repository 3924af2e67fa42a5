package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/config"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/telegraph"
	discordadapter "github.com/RenoirGroup/renoir-case-study-chatbot/internal/telegraph/discord"
	slackadapter "github.com/RenoirGroup/renoir-case-study-chatbot/internal/telegraph/slack"
)

func newTelegraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "telegraph",
		Aliases: []string{"tg"},
		Short:   "Run the interview over a chat platform",
		Long:    "Telegraph bridges the interview to Slack or Discord and posts a scheduled digest of completed case studies.",
	}

	cmd.AddCommand(newTelegraphStartCmd())
	return cmd
}

func newTelegraphStartCmd() *cobra.Command {
	var (
		configPath     string
		memorySessions bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the Telegraph daemon",
		Long:  "Connects to the configured chat platform and answers interview messages until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTelegraphStart(cmd, configPath, memorySessions)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to casebot config file")
	cmd.Flags().BoolVar(&memorySessions, "memory-sessions", false, "keep sessions in memory instead of the database")
	return cmd
}

// adapterFactory builds the platform adapter. Allows test override.
var adapterFactory = createAdapter

func runTelegraphStart(cmd *cobra.Command, configPath string, memorySessions bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Telegraph.Platform == "" {
		return fmt.Errorf("telegraph: no platform configured in %s (add telegraph.platform)", configPath)
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := buildApp(ctx, cfg, appOpts{memorySessions: memorySessions})
	if err != nil {
		return err
	}

	adapter, err := adapterFactory(cfg)
	if err != nil {
		return err
	}

	var digest *telegraph.Digest
	if cfg.Telegraph.Digest.Enabled {
		digest, err = telegraph.NewDigest(telegraph.DigestOpts{
			Counter:   a.counter(),
			Adapter:   adapter,
			ChannelID: cfg.Telegraph.Channel,
			Cron:      cfg.Telegraph.Digest.Cron,
		})
		if err != nil {
			return err
		}
	}

	daemon, err := telegraph.NewDaemon(telegraph.DaemonOpts{
		Adapter: adapter,
		Turner:  a.service,
		Digest:  digest,
		Out:     cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	return daemon.Run(ctx)
}

// createAdapter builds a platform adapter from the config.
func createAdapter(cfg *config.Config) (telegraph.Adapter, error) {
	switch cfg.Telegraph.Platform {
	case "slack":
		a, err := slackadapter.New(slackadapter.AdapterOpts{
			AppToken:  cfg.Telegraph.Slack.AppToken,
			BotToken:  cfg.Telegraph.Slack.BotToken,
			ChannelID: cfg.Telegraph.Channel,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	case "discord":
		a, err := discordadapter.New(discordadapter.AdapterOpts{
			BotToken:  cfg.Telegraph.Discord.BotToken,
			ChannelID: cfg.Telegraph.Channel,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("telegraph: unsupported platform %q", cfg.Telegraph.Platform)
	}
}
