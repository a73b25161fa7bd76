package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/goproj/pkg/logger"
	"github.com/fulmenhq/goproj/pkg/safeio"
	"github.com/spf13/viper"
)

// FileName is the optional per-project settings file (any viper-supported
// extension) looked up in the project root.
const FileName = ".goproj"

// EnvPrefix prefixes environment overrides, e.g. GOPROJ_FILES_LOCAL.
const EnvPrefix = "GOPROJ"

// ErrInvalidSettings is wrapped by every error caused by settings content.
var ErrInvalidSettings = errors.New("invalid project settings")

// Settings holds all configuration for a project
type Settings struct {
	Files      FilesConfig      `mapstructure:"files"`
	Layout     LayoutConfig     `mapstructure:"layout"`
	Validation ValidationConfig `mapstructure:"validation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// FilesConfig names the declaration and local mapping files in the project root
type FilesConfig struct {
	Declaration string `mapstructure:"declaration"`
	Local       string `mapstructure:"local"`
}

// LayoutConfig names the directories of the project layout
type LayoutConfig struct {
	Analyses     string `mapstructure:"analyses"`
	Outputs      string `mapstructure:"outputs"`
	Intermediate string `mapstructure:"intermediate"`
}

// ValidationConfig toggles optional validation steps
type ValidationConfig struct {
	VerifyIntegrity        bool `mapstructure:"verify_integrity"`
	RequireGitignoredLocal bool `mapstructure:"require_gitignored_local"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
	Color bool   `mapstructure:"color"`
}

var defaultSettings = Settings{
	Files: FilesConfig{
		Declaration: "inputs.yaml",
		Local:       "inputs.local.yaml",
	},
	Layout: LayoutConfig{
		Analyses:     "analyses",
		Outputs:      "outputs",
		Intermediate: "intermediate",
	},
	Validation: ValidationConfig{
		VerifyIntegrity:        false,
		RequireGitignoredLocal: true,
	},
	Logging: LoggingConfig{
		Level: "info",
	},
}

// Defaults returns a copy of the built-in settings.
func Defaults() Settings {
	return defaultSettings
}

// Load reads settings for the project at root: built-in defaults, then an
// optional .goproj.{yaml,yml,json,toml} in root, then GOPROJ_* environment
// variables. The file format follows its extension.
func Load(root string) (*Settings, error) {
	v := newViper()
	v.SetConfigName(FileName)
	v.AddConfigPath(root)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: error reading project settings: %w", ErrInvalidSettings, err)
		}
	} else {
		logger.Debug("loaded project settings", logger.String("path", v.ConfigFileUsed()))
	}
	return decode(v)
}

// FromEnv returns the built-in defaults with GOPROJ_* overrides applied and
// no settings file.
func FromEnv() (*Settings, error) {
	return decode(newViper())
}

// Locate returns the settings file in root, if there is one.
func Locate(root string) (string, bool) {
	for _, ext := range viper.SupportedExts {
		path := filepath.Join(root, FileName+"."+ext)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("files.declaration", defaultSettings.Files.Declaration)
	v.SetDefault("files.local", defaultSettings.Files.Local)
	v.SetDefault("layout.analyses", defaultSettings.Layout.Analyses)
	v.SetDefault("layout.outputs", defaultSettings.Layout.Outputs)
	v.SetDefault("layout.intermediate", defaultSettings.Layout.Intermediate)
	v.SetDefault("validation.verify_integrity", defaultSettings.Validation.VerifyIntegrity)
	v.SetDefault("validation.require_gitignored_local", defaultSettings.Validation.RequireGitignoredLocal)
	v.SetDefault("logging.level", defaultSettings.Logging.Level)
	v.SetDefault("logging.json", defaultSettings.Logging.JSON)
	v.SetDefault("logging.color", defaultSettings.Logging.Color)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Settings, error) {
	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("%w: error unmarshaling project settings: %w", ErrInvalidSettings, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Validate checks that names are usable as single path elements.
func (s *Settings) Validate() error {
	named := []struct{ key, value string }{
		{"files.declaration", s.Files.Declaration},
		{"files.local", s.Files.Local},
		{"layout.analyses", s.Layout.Analyses},
		{"layout.outputs", s.Layout.Outputs},
		{"layout.intermediate", s.Layout.Intermediate},
	}
	for _, n := range named {
		if _, err := safeio.CleanName(n.value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSettings, n.key, err)
		}
	}
	if s.Files.Declaration == s.Files.Local {
		return fmt.Errorf("%w: files.declaration and files.local are both %q", ErrInvalidSettings, s.Files.Local)
	}
	if s.Layout.Outputs == s.Layout.Intermediate {
		return fmt.Errorf("%w: layout.outputs and layout.intermediate are both %q", ErrInvalidSettings, s.Layout.Outputs)
	}
	if _, err := logger.ParseLevel(s.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalidSettings, err)
	}
	return nil
}

// LoggerConfig builds the logger configuration for these settings.
func (s *Settings) LoggerConfig() (logger.Config, error) {
	level, err := logger.ParseLevel(s.Logging.Level)
	if err != nil {
		return logger.Config{}, err
	}
	return logger.Config{
		Level:     level,
		JSON:      s.Logging.JSON,
		UseColor:  s.Logging.Color,
		Component: "goproj",
	}, nil
}

// InitLogger installs the default logger for these settings.
func (s *Settings) InitLogger() error {
	cfg, err := s.LoggerConfig()
	if err != nil {
		return err
	}
	return logger.Initialize(cfg)
}
