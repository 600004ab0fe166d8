// Package config resolves clipmind settings from ~/.clipmind/config.toml and CLIPMIND_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	configDir  = ".clipmind"
	configName = "config"
	configType = "toml"
	envPrefix  = "CLIPMIND"

	BackendKey            = "sessions.backend"
	SessionsDirKey        = "sessions.dir"
	SQLitePathKey         = "sessions.sqlite_path"
	ReportsDirKey         = "reports.dir"
	TranscriptionCmdKey   = "agents.transcription"
	TranscriptionLangKey  = "agents.transcription_language"
	VisionCmdKey          = "agents.vision"
	SamplerCmdKey         = "agents.sampler"
	PlannerCmdKey         = "agents.planner"
	RendererCmdKey        = "agents.renderer"
	ClassifierCmdKey      = "agents.classifier"
	VisionFramesKey       = "vision.frames"
	MaxRetriesKey         = "generation.max_retries"
	HistoryWindowKey      = "history.window"
	LogLevelKey           = "log.level"
	defaultVisionFrames   = 8
	defaultMaxRetries     = 3
	defaultHistoryWindow  = 8
	defaultLogLevel       = "warn"
	defaultReportsDirName = "reports"
)

type Backend string

const (
	BackendTOML   Backend = "toml"
	BackendSQLite Backend = "sqlite"
)

// AgentCommands holds the command lines of the external capability programs. Empty means not configured.
type AgentCommands struct {
	Transcription         string
	TranscriptionLanguage string
	Vision                string
	Sampler               string
	Planner               string
	Renderer              string
	Classifier            string
}

type Config struct {
	Backend       Backend
	SessionsDir   string
	SQLitePath    string
	ReportsDir    string
	Agents        AgentCommands
	VisionFrames  int
	MaxRetries    int
	HistoryWindow int
	LogLevel      string
}

// Load registers defaults on cfg, reads the optional config file and returns the typed view.
// Paths come back absolute.
func Load(cfg *viper.Viper) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("viper instance is required")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	baseDir := filepath.Join(homeDir, configDir)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(baseDir)
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault(BackendKey, string(BackendTOML))
	cfg.SetDefault(SessionsDirKey, filepath.Join(baseDir, "sessions"))
	cfg.SetDefault(SQLitePathKey, filepath.Join(baseDir, "sessions.db"))
	cfg.SetDefault(ReportsDirKey, filepath.Join(baseDir, defaultReportsDirName))
	cfg.SetDefault(TranscriptionCmdKey, "")
	cfg.SetDefault(TranscriptionLangKey, "")
	cfg.SetDefault(VisionCmdKey, "")
	cfg.SetDefault(SamplerCmdKey, "")
	cfg.SetDefault(PlannerCmdKey, "")
	cfg.SetDefault(RendererCmdKey, "")
	cfg.SetDefault(ClassifierCmdKey, "")
	cfg.SetDefault(VisionFramesKey, defaultVisionFrames)
	cfg.SetDefault(MaxRetriesKey, defaultMaxRetries)
	cfg.SetDefault(HistoryWindowKey, defaultHistoryWindow)
	cfg.SetDefault(LogLevelKey, defaultLogLevel)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	backend := Backend(strings.ToLower(strings.TrimSpace(cfg.GetString(BackendKey))))
	switch backend {
	case BackendTOML, BackendSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported sessions backend %q (want toml or sqlite)", backend)
	}

	sessionsDir, err := absPath(cfg, SessionsDirKey)
	if err != nil {
		return Config{}, err
	}
	sqlitePath, err := absPath(cfg, SQLitePathKey)
	if err != nil {
		return Config{}, err
	}
	reportsDir, err := absPath(cfg, ReportsDirKey)
	if err != nil {
		return Config{}, err
	}

	frames := cfg.GetInt(VisionFramesKey)
	if frames <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %d", VisionFramesKey, frames)
	}

	return Config{
		Backend:     backend,
		SessionsDir: sessionsDir,
		SQLitePath:  sqlitePath,
		ReportsDir:  reportsDir,
		Agents: AgentCommands{
			Transcription:         strings.TrimSpace(cfg.GetString(TranscriptionCmdKey)),
			TranscriptionLanguage: strings.TrimSpace(cfg.GetString(TranscriptionLangKey)),
			Vision:                strings.TrimSpace(cfg.GetString(VisionCmdKey)),
			Sampler:               strings.TrimSpace(cfg.GetString(SamplerCmdKey)),
			Planner:               strings.TrimSpace(cfg.GetString(PlannerCmdKey)),
			Renderer:              strings.TrimSpace(cfg.GetString(RendererCmdKey)),
			Classifier:            strings.TrimSpace(cfg.GetString(ClassifierCmdKey)),
		},
		VisionFrames:  frames,
		MaxRetries:    cfg.GetInt(MaxRetriesKey),
		HistoryWindow: cfg.GetInt(HistoryWindowKey),
		LogLevel:      strings.TrimSpace(cfg.GetString(LogLevelKey)),
	}, nil
}

func absPath(cfg *viper.Viper, key string) (string, error) {
	raw := strings.TrimSpace(cfg.GetString(key))
	if raw == "" {
		return "", fmt.Errorf("%s is empty", key)
	}

	path, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", key, err)
	}

	return filepath.Clean(path), nil
}
