package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bnema/clipmind/internal/adapters/agents/command"
	filestore "github.com/bnema/clipmind/internal/adapters/artifacts/file"
	chainclassifier "github.com/bnema/clipmind/internal/adapters/classifier/chain"
	"github.com/bnema/clipmind/internal/adapters/render/chat"
	sqliterepo "github.com/bnema/clipmind/internal/adapters/repo/sqlite"
	tomlrepo "github.com/bnema/clipmind/internal/adapters/repo/toml"
	"github.com/bnema/clipmind/internal/application"
	"github.com/bnema/clipmind/internal/config"
	"github.com/bnema/clipmind/internal/ports"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type app struct {
	config       config.Config
	router       *application.Router
	sessions     *application.SessionService
	logger       *log.Logger
	replyRender  func(application.Reply, chat.RenderOptions) (string, error)
	closeBackend func() error
	now          func() time.Time
}

func wireApp(logOutput io.Writer) (*app, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := log.NewWithOptions(logOutput, log.Options{Prefix: "clipmind"})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", config.LogLevelKey, err)
	}
	logger.SetLevel(level)

	repo, closeBackend, err := wireRepository(cfg)
	if err != nil {
		return nil, err
	}

	documents := filestore.NewStore(cfg.ReportsDir)
	agents, err := wireAgents(cfg, documents)
	if err != nil {
		return nil, errors.Join(err, closeBackend())
	}

	classifier, err := wireClassifier(cfg, logger)
	if err != nil {
		return nil, errors.Join(err, closeBackend())
	}

	clock := ports.SystemClock{}
	store := application.NewContextStore(repo, clock)
	router, err := application.NewRouter(store, classifier, agents, clock, application.RouterOptions{
		MaxGenerationRetries: cfg.MaxRetries,
		HistoryWindow:        cfg.HistoryWindow,
		Logger:               logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("wire router: %w", err), closeBackend())
	}

	logger.Debug("wired", "backend", cfg.Backend, "agents", len(agents), "reports", cfg.ReportsDir)

	return &app{
		config:       cfg,
		router:       router,
		sessions:     application.NewSessionService(repo, store, documents),
		logger:       logger,
		replyRender:  chat.RenderReply,
		closeBackend: closeBackend,
		now:          time.Now,
	}, nil
}

func wireRepository(cfg config.Config) (ports.SessionRepository, func() error, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		repo, err := sqliterepo.Open(context.Background(), cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("wire sqlite session repository: %w", err)
		}
		return repo, repo.Close, nil
	default:
		repo, err := tomlrepo.NewRepository(cfg.SessionsDir)
		if err != nil {
			return nil, nil, fmt.Errorf("wire toml session repository: %w", err)
		}
		return repo, func() error { return nil }, nil
	}
}

// wireAgents registers only the capabilities whose commands are configured; the router
// answers the others with an inference failure.
func wireAgents(cfg config.Config, store ports.ArtifactStore) ([]ports.Agent, error) {
	var agents []ports.Agent

	if cfg.Agents.Transcription != "" {
		cmd, err := command.ParseCommand(cfg.Agents.Transcription)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.TranscriptionCmdKey, err)
		}
		agents = append(agents, command.NewTranscriptionAgent(cmd, cfg.Agents.TranscriptionLanguage))
	}

	if cfg.Agents.Vision != "" {
		if cfg.Agents.Sampler == "" {
			return nil, fmt.Errorf("%s requires %s", config.VisionCmdKey, config.SamplerCmdKey)
		}
		visionCmd, err := command.ParseCommand(cfg.Agents.Vision)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.VisionCmdKey, err)
		}
		samplerCmd, err := command.ParseCommand(cfg.Agents.Sampler)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.SamplerCmdKey, err)
		}
		agents = append(agents, command.NewVisionAgent(visionCmd, command.NewFrameSampler(samplerCmd), cfg.VisionFrames))
	}

	if cfg.Agents.Planner != "" {
		if cfg.Agents.Renderer == "" {
			return nil, fmt.Errorf("%s requires %s", config.PlannerCmdKey, config.RendererCmdKey)
		}
		planner, err := command.ParseCommand(cfg.Agents.Planner)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.PlannerCmdKey, err)
		}
		renderer, err := command.ParseCommand(cfg.Agents.Renderer)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.RendererCmdKey, err)
		}
		agents = append(agents, command.NewGenerationAgent(planner, renderer, store))
	}

	return agents, nil
}

func wireClassifier(cfg config.Config, logger *log.Logger) (ports.IntentClassifier, error) {
	if cfg.Agents.Classifier == "" {
		return application.RuleClassifier{}, nil
	}

	cmd, err := command.ParseCommand(cfg.Agents.Classifier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ClassifierCmdKey, err)
	}

	classifier, err := chainclassifier.NewClassifier(command.NewModelClassifier(cmd), application.RuleClassifier{}, logger)
	if err != nil {
		return nil, fmt.Errorf("wire classifier chain: %w", err)
	}

	return classifier, nil
}

func (a *app) Close() error {
	if a == nil || a.closeBackend == nil {
		return nil
	}

	return a.closeBackend()
}

func workingDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}

	return dir, nil
}
