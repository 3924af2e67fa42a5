// Package config provides YAML-based configuration loading for the case study bot.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when no --config flag is given.
const DefaultPath = "casebot.yaml"

// Config is the top-level configuration, loaded from casebot.yaml.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Oracle      OracleConfig      `yaml:"oracle"`
	Interview   InterviewConfig   `yaml:"interview"`
	Keywords    KeywordsConfig    `yaml:"keywords"`
	Transcripts TranscriptsConfig `yaml:"transcripts"`
	Uploads     UploadsConfig     `yaml:"uploads"`
	Telegraph   TelegraphConfig   `yaml:"telegraph"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	CookieName   string `yaml:"cookie_name"`
	CookieSecure bool   `yaml:"cookie_secure"`

	// TranscriptsAPI exposes /api/transcripts to holders of APIToken.
	TranscriptsAPI bool   `yaml:"transcripts_api"`
	APIToken       string `yaml:"-"`
}

// DatabaseConfig selects the session-state database.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "sqlite" or "mysql"
	Path     string `yaml:"path"`   // sqlite file
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Name     string `yaml:"name"`
	Password string `yaml:"-"`
}

// OracleConfig configures the language-model provider.
type OracleConfig struct {
	Provider         string `yaml:"provider"` // openai, anthropic, gemini, ollama
	Model            string `yaml:"model"`
	BaseURL          string `yaml:"base_url"`
	APIKey           string `yaml:"-"`
	TimeoutSec       int    `yaml:"timeout_sec"`
	MaxRetries       int    `yaml:"max_retries"`
	TranslationCache int    `yaml:"translation_cache"`
}

// InterviewConfig holds the conversation policies.
type InterviewConfig struct {
	Languages         []string `yaml:"languages"`
	LanguagePolicy    string   `yaml:"language_policy"` // strict or lenient
	IncludeContext    bool     `yaml:"include_context"`
	Rephrase          string   `yaml:"rephrase"` // oracle or template
	ContactQuestion   bool     `yaml:"contact_question"`
	MaxClarifications int      `yaml:"max_clarifications"`
	SessionCache      int      `yaml:"session_cache"`
}

// KeywordsConfig extends the built-in keyword sets.
type KeywordsConfig struct {
	Affirmative map[string][]string `yaml:"affirmative"`
	Flagged     []string            `yaml:"flagged"`
}

// TranscriptsConfig controls where completed case studies are written.
type TranscriptsConfig struct {
	Dir    string       `yaml:"dir"`
	GitHub GitHubConfig `yaml:"github"`
}

// GitHubConfig mirrors transcripts into a GitHub repository.
type GitHubConfig struct {
	Enabled bool   `yaml:"enabled"`
	Owner   string `yaml:"owner"`
	Repo    string `yaml:"repo"`
	Branch  string `yaml:"branch"`
	Path    string `yaml:"path"`
	Token   string `yaml:"-"`
}

// UploadsConfig selects the upload storage backend.
type UploadsConfig struct {
	Backend string      `yaml:"backend"` // disk or minio
	Dir     string      `yaml:"dir"`
	Minio   MinioConfig `yaml:"minio"`
}

// MinioConfig holds S3-compatible object storage settings.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// TelegraphConfig configures the chat-platform bridge.
type TelegraphConfig struct {
	Platform string        `yaml:"platform"` // slack or discord
	Channel  string        `yaml:"channel"`
	Slack    SlackConfig   `yaml:"slack"`
	Discord  DiscordConfig `yaml:"discord"`
	Digest   DigestConfig  `yaml:"digest"`
}

// SlackConfig holds Slack Socket Mode tokens (from the environment).
type SlackConfig struct {
	AppToken string `yaml:"-"`
	BotToken string `yaml:"-"`
}

// DiscordConfig holds the Discord bot token (from the environment).
type DiscordConfig struct {
	BotToken string `yaml:"-"`
}

// DigestConfig schedules the completed-case-study digest.
type DigestConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

// Default returns a Config with all defaults applied and secrets read from
// the environment.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg
}

// Load reads a YAML config file from path and returns a validated Config.
// A .env file in the working directory is loaded first so secrets are
// available. When path is DefaultPath and the file does not exist, defaults
// are used.
func Load(path string) (*Config, error) {
	LoadEnv()
	data, err := os.ReadFile(path)
	if err != nil {
		if path == DefaultPath && errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			if err := cfg.validate(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadEnv loads .env into the process environment. Existing variables win;
// a missing file is not an error.
func LoadEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultLanguages is the supported language list offered at the start of a
// conversation.
var DefaultLanguages = []string{
	"English",
	"Spanish",
	"Portuguese",
	"Chinese (Mandarin)",
	"Bahasa Indonesia",
	"Bahasa Malaysia",
	"French",
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Server.CookieName == "" {
		c.Server.CookieName = "casebot_session"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "casebot.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
	}
	if c.Oracle.Provider == "" {
		c.Oracle.Provider = "openai"
	}
	if c.Oracle.Model == "" {
		c.Oracle.Model = defaultModel(c.Oracle.Provider)
	}
	if c.Oracle.TimeoutSec == 0 {
		c.Oracle.TimeoutSec = 15
	}
	if c.Oracle.MaxRetries == 0 {
		c.Oracle.MaxRetries = 1
	}
	if c.Oracle.TranslationCache == 0 {
		c.Oracle.TranslationCache = 512
	}
	if len(c.Interview.Languages) == 0 {
		c.Interview.Languages = append([]string(nil), DefaultLanguages...)
	}
	if c.Interview.LanguagePolicy == "" {
		c.Interview.LanguagePolicy = "strict"
	}
	if c.Interview.Rephrase == "" {
		c.Interview.Rephrase = "oracle"
	}
	if c.Interview.MaxClarifications == 0 {
		c.Interview.MaxClarifications = 1
	}
	if c.Interview.SessionCache == 0 {
		c.Interview.SessionCache = 4096
	}
	if c.Transcripts.Dir == "" {
		c.Transcripts.Dir = "transcripts"
	}
	if c.Transcripts.GitHub.Branch == "" {
		c.Transcripts.GitHub.Branch = "main"
	}
	if c.Transcripts.GitHub.Path == "" {
		c.Transcripts.GitHub.Path = "case-studies"
	}
	if c.Uploads.Backend == "" {
		c.Uploads.Backend = "disk"
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "uploads"
	}
	if c.Uploads.Minio.Region == "" {
		c.Uploads.Minio.Region = "us-east-1"
	}
	if c.Uploads.Minio.Bucket == "" {
		c.Uploads.Minio.Bucket = "casebot-uploads"
	}
	if c.Telegraph.Digest.Cron == "" {
		c.Telegraph.Digest.Cron = "0 9 * * 1-5"
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-3-5-haiku-latest"
	case "gemini":
		return "gemini-2.0-flash"
	case "ollama":
		return "llama3.1"
	default:
		return "gpt-4o-mini"
	}
}

// applyEnv copies secrets from the environment. Secrets never live in YAML.
func (c *Config) applyEnv() {
	switch c.Oracle.Provider {
	case "openai":
		c.Oracle.APIKey = os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		c.Oracle.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "gemini":
		c.Oracle.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Oracle.Provider == "ollama" && c.Oracle.BaseURL == "" {
		c.Oracle.BaseURL = firstNonEmpty(os.Getenv("OLLAMA_HOST"), "http://localhost:11434")
	}
	c.Database.Password = os.Getenv("CASEBOT_DB_PASSWORD")
	c.Server.APIToken = os.Getenv("CASEBOT_API_TOKEN")
	c.Transcripts.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	c.Uploads.Minio.AccessKey = os.Getenv("MINIO_ACCESS_KEY")
	c.Uploads.Minio.SecretKey = os.Getenv("MINIO_SECRET_KEY")
	c.Telegraph.Slack.AppToken = os.Getenv("SLACK_APP_TOKEN")
	c.Telegraph.Slack.BotToken = os.Getenv("SLACK_BOT_TOKEN")
	c.Telegraph.Discord.BotToken = os.Getenv("DISCORD_BOT_TOKEN")
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Server.TranscriptsAPI && c.Server.APIToken == "" {
		errs = append(errs, "server.transcripts_api requires CASEBOT_API_TOKEN")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Database.Driver == "mysql" && c.Database.Name == "" {
		errs = append(errs, "database.name is required for mysql")
	}
	switch c.Oracle.Provider {
	case "openai", "anthropic", "gemini", "ollama":
	default:
		errs = append(errs, fmt.Sprintf("oracle.provider %q is not supported", c.Oracle.Provider))
	}
	if c.Oracle.TimeoutSec < 0 {
		errs = append(errs, "oracle.timeout_sec must not be negative")
	}
	if c.Oracle.MaxRetries < 0 {
		errs = append(errs, "oracle.max_retries must not be negative")
	}
	switch c.Interview.LanguagePolicy {
	case "strict", "lenient":
	default:
		errs = append(errs, fmt.Sprintf("interview.language_policy %q must be strict or lenient", c.Interview.LanguagePolicy))
	}
	switch c.Interview.Rephrase {
	case "oracle", "template":
	default:
		errs = append(errs, fmt.Sprintf("interview.rephrase %q must be oracle or template", c.Interview.Rephrase))
	}
	if c.Interview.MaxClarifications < 0 {
		errs = append(errs, "interview.max_clarifications must not be negative")
	}
	for i, lang := range c.Interview.Languages {
		if strings.TrimSpace(lang) == "" {
			errs = append(errs, fmt.Sprintf("interview.languages[%d] is empty", i))
		}
	}
	switch c.Uploads.Backend {
	case "disk":
	case "minio":
		if c.Uploads.Minio.Endpoint == "" {
			errs = append(errs, "uploads.minio.endpoint is required for the minio backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("uploads.backend %q must be disk or minio", c.Uploads.Backend))
	}
	if c.Transcripts.GitHub.Enabled {
		if c.Transcripts.GitHub.Owner == "" || c.Transcripts.GitHub.Repo == "" {
			errs = append(errs, "transcripts.github.owner and repo are required when enabled")
		}
	}
	switch c.Telegraph.Platform {
	case "", "slack", "discord":
	default:
		errs = append(errs, fmt.Sprintf("telegraph.platform %q must be slack or discord", c.Telegraph.Platform))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Timeout returns the per-call oracle timeout.
func (o OracleConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSec) * time.Second
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
