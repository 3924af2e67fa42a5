package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/config"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/transcript"
)

func newTranscriptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transcripts",
		Aliases: []string{"tx"},
		Short:   "Inspect completed case studies",
	}

	cmd.AddCommand(newTranscriptsListCmd())
	cmd.AddCommand(newTranscriptsShowCmd())
	return cmd
}

func newTranscriptsListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscriptsList(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to casebot config file")
	return cmd
}

func newTranscriptsShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print one transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscriptsShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to casebot config file")
	return cmd
}

func openTranscripts(configPath string) (*transcript.FileStore, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return transcript.NewFileStore(cfg.Transcripts.Dir)
}

func runTranscriptsList(cmd *cobra.Command, configPath string) error {
	store, err := openTranscripts(configPath)
	if err != nil {
		return err
	}
	entries, err := store.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No transcripts found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\n", e.Name, e.Size, e.ModTime.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runTranscriptsShow(cmd *cobra.Command, configPath, name string) error {
	store, err := openTranscripts(configPath)
	if err != nil {
		return err
	}
	rec, err := store.Read(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session:   %s\n", rec.SessionID)
	fmt.Fprintf(out, "Language:  %s\n", rec.Language)
	fmt.Fprintf(out, "Completed: %s\n\n", rec.CompletedAt.Format("2006-01-02 15:04:05"))
	for _, qa := range rec.Answers {
		fmt.Fprintf(out, "%s\n  %s\n\n", qa.Question, qa.Answer)
	}
	return nil
}
