package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/leobot/leo/config"
	"github.com/leobot/leo/engine"
	"github.com/leobot/leo/ingest"
	"github.com/leobot/leo/logging"
	"github.com/leobot/leo/memory"
	memgemini "github.com/leobot/leo/memory/gemini"
	"github.com/leobot/leo/model"
	modelanthropic "github.com/leobot/leo/model/anthropic"
	modelgemini "github.com/leobot/leo/model/gemini"
	modelopenai "github.com/leobot/leo/model/openai"
	"github.com/leobot/leo/prompt"
	"github.com/leobot/leo/retrieval"
	"github.com/leobot/leo/session"
	"github.com/leobot/leo/sportsdata"
	"github.com/leobot/leo/tool"
	"github.com/leobot/leo/tool/calendar"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "leo",
		Short:         "Leo, a football assistant with memory and tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newAuthCmd())

	return root
}

// app bundles the wired components shared by the serve and chat commands.
type app struct {
	cfg     *config.Config
	logger  logging.Logger
	engine  *engine.Engine
	indexer *ingest.Indexer
}

// buildApp loads configuration and wires the full engine: embedder, store,
// planner, composer, tools, model, sessions and the fixture indexer.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := buildLogger(cfg)

	embedder, err := buildEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := memory.NewStore(cfg.EmbeddingDim)

	planner := retrieval.NewPlanner(embedder, store, func(o *retrieval.Options) {
		o.K = cfg.RetrievalK
		o.MinScore = cfg.RetrievalMinScore
		o.Logger = logger
	})

	composer, err := prompt.NewComposer(func(o *prompt.Options) {
		o.TokenBudget = cfg.PromptTokenBudget
	})
	if err != nil {
		return nil, err
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("tools.registered", "tools", strings.Join(registry.Names(), ", "))

	m, err := buildModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("model.selected", "provider", m.Info().Provider, "model", m.Info().Name)

	eng := engine.New(m, planner, composer, registry, session.NewManager(), func(o *engine.Options) {
		o.MaxIterations = cfg.MaxIterations
		o.Logger = logger
	})

	fixtures := sportsdata.NewClient(cfg.APIFootballKey, func(o *sportsdata.Options) {
		o.Logger = logger
	})

	indexer := ingest.NewIndexer(fixtures, embedder, store, func(o *ingest.Options) {
		o.DaysPast = cfg.IngestDaysPast
		o.DaysFuture = cfg.IngestDaysFuture
		o.RefreshInterval = time.Duration(cfg.IngestRefreshMinutes) * time.Minute
		o.Logger = logger
	})

	return &app{cfg: cfg, logger: logger, engine: eng, indexer: indexer}, nil
}

func buildLogger(cfg *config.Config) logging.Logger {
	level := logging.LogLevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = logging.LogLevelDebug
	case "warn":
		level = logging.LogLevelWarn
	case "error":
		level = logging.LogLevelError
	}
	return logging.New(&logging.Config{Level: level, Format: cfg.LogFormat})
}

func buildEmbedder(ctx context.Context, cfg *config.Config) (memory.Embedder, error) {
	return memgemini.NewEmbedder(ctx, func(o *memgemini.Options) {
		o.Model = cfg.EmbeddingModel
		o.Dim = cfg.EmbeddingDim
		o.APIKey = cfg.GeminiAPIKey
	})
}

func buildModel(ctx context.Context, cfg *config.Config) (model.Model, error) {
	switch cfg.Provider {
	case "gemini":
		return modelgemini.NewModel(ctx, func(o *modelgemini.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.APIKey = cfg.GeminiAPIKey
		})
	case "openai":
		return modelopenai.NewModel(func(o *modelopenai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		}), nil
	case "anthropic":
		return modelanthropic.NewModel(func(o *modelanthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropic.Model(cfg.Model)
			}
			o.APIKey = cfg.AnthropicAPIKey
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", cfg.Provider)
	}
}

func buildAuthenticator(cfg *config.Config) *calendar.FileAuthenticator {
	return calendar.NewFileAuthenticator(&oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{calendar.Scope},
	}, cfg.GoogleTokenFile)
}

func buildRegistry(cfg *config.Config) (*tool.Registry, error) {
	return tool.NewRegistry(calendar.NewTool(buildAuthenticator(cfg)))
}
