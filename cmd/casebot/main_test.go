package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/config"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/oracle"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/telegraph"
)

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "casebot dev") {
		t.Errorf("expected output to contain 'casebot dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.0.0", "abc123", "2026-01-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "casebot 1.0.0") {
		t.Errorf("expected output to contain 'casebot 1.0.0', got: %s", out)
	}
	if !strings.Contains(out, "built: 2026-01-01") {
		t.Errorf("expected output to contain 'built: 2026-01-01', got: %s", out)
	}
}

func TestRootCmdHelp(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("help command failed: %v", err)
	}

	out := buf.String()
	for _, sub := range []string{"serve", "chat", "telegraph", "transcripts", "db", "version"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help output to list %q, got: %s", sub, out)
		}
	}
}

func TestExecute_ReturnsOneOnError(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"transcripts", "show"})

	if code := execute(cmd); code != 1 {
		t.Errorf("execute = %d, want 1", code)
	}
}

func TestCreateOracleClient(t *testing.T) {
	client, err := createOracleClient(context.Background(), config.OracleConfig{
		Provider: "ollama",
		BaseURL:  "http://localhost:11434",
		Model:    "llama3.1",
	})
	if err != nil {
		t.Fatalf("ollama: %v", err)
	}
	if client == nil {
		t.Fatal("expected a client")
	}

	if _, err := createOracleClient(context.Background(), config.OracleConfig{Provider: "cohere"}); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestCreateAdapter(t *testing.T) {
	cfg := config.Default()

	cfg.Telegraph.Platform = "irc"
	if _, err := createAdapter(cfg); err == nil || !strings.Contains(err.Error(), "unsupported platform") {
		t.Errorf("irc: err = %v", err)
	}

	cfg.Telegraph.Platform = "slack"
	cfg.Telegraph.Slack.AppToken = ""
	cfg.Telegraph.Slack.BotToken = ""
	if _, err := createAdapter(cfg); err == nil {
		t.Error("slack without tokens: expected error")
	}

	cfg.Telegraph.Platform = "slack"
	cfg.Telegraph.Slack.AppToken = "xapp-1"
	cfg.Telegraph.Slack.BotToken = "xoxb-1"
	if _, err := createAdapter(cfg); err != nil {
		t.Errorf("slack: %v", err)
	}
}

func TestCreateUploadStore(t *testing.T) {
	store, err := createUploadStore(config.UploadsConfig{Backend: "disk", Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("disk: %v", err)
	}
	if store == nil {
		t.Fatal("expected a store")
	}
	if _, err := createUploadStore(config.UploadsConfig{Backend: "tape"}); err == nil {
		t.Error("expected error for unsupported backend")
	}
}

// testConfig writes a config file keeping every path inside a temp dir.
func testConfig(t *testing.T) (path, dir string) {
	t.Helper()
	dir = t.TempDir()
	body := "database:\n" +
		"  driver: sqlite\n" +
		"  path: " + filepath.Join(dir, "casebot.db") + "\n" +
		"transcripts:\n" +
		"  dir: " + filepath.Join(dir, "transcripts") + "\n" +
		"uploads:\n" +
		"  dir: " + filepath.Join(dir, "uploads") + "\n"
	path = filepath.Join(dir, "casebot.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, dir
}

// useMockOracle swaps the provider factory for one that accepts every answer.
func useMockOracle(t *testing.T) *oracle.MockClient {
	t.Helper()
	mock := oracle.NewMockClient(func(string) (string, error) { return "complete", nil })
	orig := newOracleClient
	newOracleClient = func(context.Context, config.OracleConfig) (oracle.Client, error) {
		return mock, nil
	}
	t.Cleanup(func() { newOracleClient = orig })
	return mock
}

func runCmd(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(in))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func interviewInput(answers int) string {
	lines := []string{"1", "yes"}
	for i := 0; i < answers; i++ {
		lines = append(lines, "We rebuilt the client's forecasting process end to end.")
	}
	return strings.Join(lines, "\n") + "\n"
}

func TestChat_CompletesInterview(t *testing.T) {
	cfgPath, dir := testConfig(t)
	useMockOracle(t)

	out, err := runCmd(t, interviewInput(7), "chat", "-c", cfgPath)
	if err != nil {
		t.Fatalf("chat: %v\n%s", err, out)
	}
	if !strings.Contains(out, "What language would you like to use?") {
		t.Errorf("missing greeting: %s", out)
	}
	if !strings.Contains(out, "1. English") {
		t.Errorf("missing language options: %s", out)
	}
	if !strings.Contains(out, "Saved as") {
		t.Errorf("missing completion summary: %s", out)
	}

	files, err := filepath.Glob(filepath.Join(dir, "transcripts", "*.json"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) != 1 {
		t.Errorf("transcripts = %v, want 1 file", files)
	}
}

func TestChat_QuitStopsEarly(t *testing.T) {
	cfgPath, dir := testConfig(t)
	useMockOracle(t)

	out, err := runCmd(t, "1\n/quit\nyes\n", "chat", "-c", cfgPath)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if strings.Contains(out, "client's name") {
		t.Errorf("chat continued after /quit: %s", out)
	}
	files, _ := filepath.Glob(filepath.Join(dir, "transcripts", "*.json"))
	if len(files) != 0 {
		t.Errorf("unexpected transcripts: %v", files)
	}
}

func TestTranscripts_ListAndShow(t *testing.T) {
	cfgPath, _ := testConfig(t)
	useMockOracle(t)

	out, err := runCmd(t, "", "transcripts", "list", "-c", cfgPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No transcripts found.") {
		t.Errorf("empty list output = %q", out)
	}

	if _, err := runCmd(t, interviewInput(7), "chat", "-c", cfgPath); err != nil {
		t.Fatalf("chat: %v", err)
	}

	out, err = runCmd(t, "", "transcripts", "list", "-c", cfgPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "NAME") {
		t.Fatalf("list output = %q", out)
	}
	name := strings.Fields(lines[1])[0]

	out, err = runCmd(t, "", "transcripts", "show", name, "-c", cfgPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Language:  English") {
		t.Errorf("show output missing language: %s", out)
	}
	if !strings.Contains(out, "forecasting process") {
		t.Errorf("show output missing answers: %s", out)
	}

	if _, err := runCmd(t, "", "transcripts", "show", "case_study_missing.json", "-c", cfgPath); err == nil {
		t.Error("expected error for missing transcript")
	}
}

func TestDB_MigrateStatsPrune(t *testing.T) {
	cfgPath, _ := testConfig(t)

	out, err := runCmd(t, "", "db", "migrate", "-c", cfgPath)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "Migrated") {
		t.Errorf("migrate output = %q", out)
	}

	out, err = runCmd(t, "", "db", "stats", "-c", cfgPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "No sessions stored.") {
		t.Errorf("stats output = %q", out)
	}

	useMockOracle(t)
	if _, err := runCmd(t, "1\n", "chat", "--db", "-c", cfgPath); err != nil {
		t.Fatalf("chat --db: %v", err)
	}

	out, err = runCmd(t, "", "db", "stats", "-c", cfgPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "ready") {
		t.Errorf("stats output = %q, want a ready session", out)
	}

	out, err = runCmd(t, "", "db", "prune", "--older-than", "1h", "-c", cfgPath)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if !strings.Contains(out, "Pruned 0 session(s)") {
		t.Errorf("prune output = %q", out)
	}

	if _, err := runCmd(t, "", "db", "prune", "--older-than", "0s", "-c", cfgPath); err == nil {
		t.Error("expected error for non-positive cutoff")
	}
}

func TestTelegraphStart_RequiresPlatform(t *testing.T) {
	cfgPath, _ := testConfig(t)

	_, err := runCmd(t, "", "telegraph", "start", "-c", cfgPath)
	if err == nil || !strings.Contains(err.Error(), "no platform configured") {
		t.Errorf("err = %v", err)
	}
}

func TestTelegraphStart_AnswersInbound(t *testing.T) {
	cfgPath, _ := testConfig(t)
	f, err := os.OpenFile(cfgPath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open config: %v", err)
	}
	if _, err := f.WriteString("telegraph:\n  platform: slack\n"); err != nil {
		t.Fatalf("append config: %v", err)
	}
	f.Close()
	useMockOracle(t)

	mock := telegraph.NewMockAdapter()
	orig := adapterFactory
	adapterFactory = func(*config.Config) (telegraph.Adapter, error) { return mock, nil }
	t.Cleanup(func() { adapterFactory = orig })

	mock.SimulateInbound(telegraph.InboundMessage{
		Platform:  "slack",
		ChannelID: "C1",
		ThreadID:  "1700000000.000100",
		UserID:    "U1",
		Text:      "hello",
	})
	go func() {
		deadline := time.Now().Add(5 * time.Second)
		for mock.SentCount() == 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		mock.Close()
	}()

	if _, err := runCmd(t, "", "telegraph", "start", "--memory-sessions", "-c", cfgPath); err != nil {
		t.Fatalf("telegraph start: %v", err)
	}
	sent, ok := mock.LastSent()
	if !ok {
		t.Fatal("expected a reply")
	}
	if !strings.Contains(sent.Text, "What language would you like to use?") {
		t.Errorf("reply = %q", sent.Text)
	}
	if sent.ThreadID != "1700000000.000100" {
		t.Errorf("ThreadID = %q", sent.ThreadID)
	}
}

func TestRouterOpts_TranscriptsAPIOptIn(t *testing.T) {
	cfgPath, _ := testConfig(t)
	useMockOracle(t)
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	a, err := buildApp(context.Background(), cfg, appOpts{memorySessions: true})
	if err != nil {
		t.Fatalf("build app: %v", err)
	}

	opts := routerOpts(cfg, a, nil)
	if opts.Transcripts != nil {
		t.Error("transcripts API mounted without transcripts_api")
	}

	cfg.Server.TranscriptsAPI = true
	cfg.Server.APIToken = "op-secret"
	opts = routerOpts(cfg, a, nil)
	if opts.Transcripts == nil || opts.APIToken != "op-secret" {
		t.Errorf("opts = %+v, want transcripts with token", opts)
	}
}
