package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/config"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/db"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/interview"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/keyword"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/metrics"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/oracle"
	anthropicoracle "github.com/RenoirGroup/renoir-case-study-chatbot/internal/oracle/anthropic"
	geminioracle "github.com/RenoirGroup/renoir-case-study-chatbot/internal/oracle/gemini"
	ollamaoracle "github.com/RenoirGroup/renoir-case-study-chatbot/internal/oracle/ollama"
	openaioracle "github.com/RenoirGroup/renoir-case-study-chatbot/internal/oracle/openai"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/questions"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/sessionstore"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/telegraph"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/transcript"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/upload"
)

// app holds the wired components shared by the serving commands.
type app struct {
	cfg      *config.Config
	db       *gorm.DB // nil when sessions are kept in memory
	registry *prometheus.Registry
	service  *interview.Service
	files    *transcript.FileStore
	index    *transcript.IndexStore // nil without a database
}

type appOpts struct {
	memorySessions bool
}

// newOracleClient builds the provider client. Tests override it.
var newOracleClient = createOracleClient

// loadConfig reads .env and the config file.
func loadConfig(path string) (*config.Config, error) {
	config.LoadEnv()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func buildApp(ctx context.Context, cfg *config.Config, opts appOpts) (*app, error) {
	registry := prometheus.NewRegistry()
	rec := metrics.New(registry)

	client, err := newOracleClient(ctx, cfg.Oracle)
	if err != nil {
		return nil, err
	}
	adapter, err := oracle.NewAdapter(oracle.AdapterOpts{
		Client:     client,
		Timeout:    cfg.Oracle.Timeout(),
		MaxRetries: cfg.Oracle.MaxRetries,
		CacheSize:  cfg.Oracle.TranslationCache,
		Rephrase:   oracle.RephraseMode(cfg.Interview.Rephrase),
		Recorder:   rec,
	})
	if err != nil {
		return nil, err
	}

	files, err := transcript.NewFileStore(cfg.Transcripts.Dir)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, registry: registry, files: files}

	var mirrors []transcript.Mirror
	var store interview.Store
	if opts.memorySessions {
		mem, err := sessionstore.NewMemoryStore(cfg.Interview.SessionCache)
		if err != nil {
			return nil, err
		}
		store = mem
	} else {
		gormDB, err := db.Connect(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(gormDB); err != nil {
			return nil, err
		}
		a.db = gormDB
		if store, err = sessionstore.NewGormStore(gormDB); err != nil {
			return nil, err
		}
		if a.index, err = transcript.NewIndexStore(gormDB); err != nil {
			return nil, err
		}
		mirrors = append(mirrors, a.index)
	}

	if gh := cfg.Transcripts.GitHub; gh.Enabled {
		archive, err := transcript.NewGitHubArchive(transcript.GitHubArchiveOpts{
			Token:  gh.Token,
			Owner:  gh.Owner,
			Repo:   gh.Repo,
			Branch: gh.Branch,
			Path:   gh.Path,
		})
		if err != nil {
			return nil, err
		}
		mirrors = append(mirrors, archive)
	}

	persist, err := transcript.NewMulti(files, mirrors...)
	if err != nil {
		return nil, err
	}

	bank := questions.Default()
	if cfg.Interview.ContactQuestion {
		bank = questions.WithContact(bank)
	}
	machine, err := interview.NewMachine(interview.MachineOpts{
		Bank: bank,
		Gate: keyword.New(keyword.Opts{
			Affirmative: cfg.Keywords.Affirmative,
			Flagged:     cfg.Keywords.Flagged,
		}),
		Oracle:            adapter,
		Persister:         transcript.NewSessionPersister(persist),
		Languages:         cfg.Interview.Languages,
		LanguagePolicy:    interview.LanguagePolicy(cfg.Interview.LanguagePolicy),
		MaxClarifications: cfg.Interview.MaxClarifications,
		IncludeContext:    cfg.Interview.IncludeContext,
		Recorder:          rec,
	})
	if err != nil {
		return nil, err
	}

	a.service, err = interview.NewService(interview.ServiceOpts{Machine: machine, Store: store, Recorder: rec})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// counter returns the source for digest counts, preferring the database index.
func (a *app) counter() telegraph.Counter {
	if a.index != nil {
		return a.index
	}
	return a.files
}

// createOracleClient builds a provider client from the config.
func createOracleClient(ctx context.Context, cfg config.OracleConfig) (oracle.Client, error) {
	var (
		client oracle.Client
		err    error
	)
	switch cfg.Provider {
	case "openai":
		client, err = openaioracle.New(openaioracle.Opts{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model})
	case "anthropic":
		client, err = anthropicoracle.New(anthropicoracle.Opts{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model})
	case "gemini":
		client, err = geminioracle.New(ctx, geminioracle.Opts{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model})
	case "ollama":
		client, err = ollamaoracle.New(ollamaoracle.Opts{Host: cfg.BaseURL, Model: cfg.Model})
	default:
		return nil, fmt.Errorf("oracle: unsupported provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// createUploadStore builds the configured upload backend.
func createUploadStore(cfg config.UploadsConfig) (upload.Store, error) {
	switch cfg.Backend {
	case "minio":
		return upload.NewMinioStore(upload.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			Region:    cfg.Minio.Region,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
	case "disk", "":
		return upload.NewDiskStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("upload: unsupported backend %q", cfg.Backend)
	}
}
