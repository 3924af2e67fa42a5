package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/config"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/interview"
)

const chatPrompt = "you> "

func newChatCmd() *cobra.Command {
	var (
		configPath string
		useDB      bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run an interview in the terminal",
		Long:  "Starts a local interview session. Type /quit to leave; completed case studies are saved like web sessions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, configPath, useDB)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to casebot config file")
	cmd.Flags().BoolVar(&useDB, "db", false, "store the session in the database")
	return cmd
}

// lineReader yields one user line per call and io.EOF at the end of input.
type lineReader interface {
	ReadLine() (string, error)
}

type scannerReader struct{ s *bufio.Scanner }

func (r scannerReader) ReadLine() (string, error) {
	if r.s.Scan() {
		return r.s.Text(), nil
	}
	if err := r.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func runChat(cmd *cobra.Command, configPath string, useDB bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := buildApp(ctx, cfg, appOpts{memorySessions: !useDB})
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()
	var lines lineReader = scannerReader{bufio.NewScanner(in)}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		oldState, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("chat: raw terminal: %w", err)
		}
		defer term.Restore(int(f.Fd()), oldState)

		t := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{f, out}, chatPrompt)
		lines, out = t, t
	}

	return chatLoop(ctx, a.service, "cli:"+uuid.NewString(), lines, out)
}

// chatLoop fetches the greeting, then relays lines until EOF or /quit.
func chatLoop(ctx context.Context, svc *interview.Service, sessionID string, lines lineReader, out io.Writer) error {
	say := func(msg string) error {
		reply, err := svc.Handle(ctx, sessionID, msg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "bot> %s\n\n", reply.Render())
		return nil
	}

	if err := say(""); err != nil {
		return err
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := lines.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return nil
		}
		if err := say(line); err != nil {
			return err
		}
	}
}
