package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/config"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/db"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/sessionstore"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Session database management commands",
	}

	cmd.AddCommand(newDBMigrateCmd())
	cmd.AddCommand(newDBPruneCmd())
	cmd.AddCommand(newDBStatsCmd())
	return cmd
}

func newDBMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the session tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBMigrate(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to casebot config file")
	return cmd
}

func newDBPruneCmd() *cobra.Command {
	var (
		configPath string
		olderThan  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete sessions idle longer than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBPrune(cmd, configPath, olderThan)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to casebot config file")
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "prune sessions not updated within this duration")
	return cmd
}

func newDBStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count stored sessions by stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBStats(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to casebot config file")
	return cmd
}

func connectDB(configPath string) (*gorm.DB, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return nil, err
	}
	return gormDB, nil
}

func runDBMigrate(cmd *cobra.Command, configPath string) error {
	if _, err := connectDB(configPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables\n", len(db.AllModels()))
	return nil
}

func runDBPrune(cmd *cobra.Command, configPath string, olderThan time.Duration) error {
	if olderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}
	gormDB, err := connectDB(configPath)
	if err != nil {
		return err
	}
	store, err := sessionstore.NewGormStore(gormDB)
	if err != nil {
		return err
	}
	n, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d session(s)\n", n)
	return nil
}

func runDBStats(cmd *cobra.Command, configPath string) error {
	gormDB, err := connectDB(configPath)
	if err != nil {
		return err
	}
	store, err := sessionstore.NewGormStore(gormDB)
	if err != nil {
		return err
	}
	counts, err := store.CountByStage(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(counts) == 0 {
		fmt.Fprintln(out, "No sessions stored.")
		return nil
	}
	stages := make([]string, 0, len(counts))
	for s := range counts {
		stages = append(stages, s)
	}
	sort.Strings(stages)
	for _, s := range stages {
		fmt.Fprintf(out, "%-22s %d\n", s, counts[s])
	}
	return nil
}
