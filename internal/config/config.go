// Package config loads the iedform CLI settings from an optional YAML file
// and IEDFORM_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-iedform/pkg/document"
)

// EnvPrefix namespaces environment overrides, e.g. IEDFORM_OUTPUT_DIR.
const EnvPrefix = "IEDFORM"

type Config struct {
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Session   SessionConfig   `mapstructure:"session"`
	Output    OutputConfig    `mapstructure:"output"`
	Filenames FilenamesConfig `mapstructure:"filenames"`
	Log       LogConfig       `mapstructure:"log"`
}

// CatalogConfig points at a YAML catalog. Empty uses the embedded one.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// SessionConfig locates the persisted drafts. An empty ID is replaced by the
// caller, usually with the parent process id.
type SessionConfig struct {
	Dir string `mapstructure:"dir"`
	ID  string `mapstructure:"id"`
}

type OutputConfig struct {
	Dir      string `mapstructure:"dir"`
	Renderer string `mapstructure:"renderer"`
}

// FilenamesConfig holds pongo2 templates for artifact names.
type FilenamesConfig struct {
	Request  string `mapstructure:"request"`
	Approval string `mapstructure:"approval"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

var keys = []string{
	"catalog.path",
	"session.dir",
	"session.id",
	"output.dir",
	"output.renderer",
	"filenames.request",
	"filenames.approval",
	"log.level",
	"log.development",
}

// Load reads path when it is not empty, applies environment overrides and
// fills defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("catalog.path", "")
	v.SetDefault("session.dir", "")
	v.SetDefault("session.id", "")
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.renderer", document.RendererPDF)
	v.SetDefault("filenames.request", document.DefaultRequestFilename)
	v.SetDefault("filenames.approval", document.DefaultApprovalFilename)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees environment values of bound keys.
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Output.Renderer {
	case document.RendererPDF, document.RendererXLSX, document.RendererHTML:
	default:
		return fmt.Errorf("config: unknown output.renderer %q", c.Output.Renderer)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	if strings.TrimSpace(c.Filenames.Request) == "" || strings.TrimSpace(c.Filenames.Approval) == "" {
		return errors.New("config: filename templates must not be empty")
	}
	return nil
}

// Logger builds the zap logger described by the log section.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
