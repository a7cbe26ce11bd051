package tui

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Theme captures optional message prefixes.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// DefaultTheme marks errors so they stand out from regular messages.
var DefaultTheme = Theme{ErrorPrefix: "✗ ", InfoPrefix: "• "}

type settings struct {
	driver    PromptDriver
	fs        afero.Fs
	outputDir string
	logger    *zap.Logger
	theme     Theme
}

func defaultSettings() settings {
	return settings{
		fs:        afero.NewOsFs(),
		outputDir: ".",
		logger:    zap.NewNop(),
		theme:     DefaultTheme,
	}
}

// Option configures a Runner or an ApprovalRunner.
type Option func(*settings)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *settings) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithFs sets the filesystem artifacts are written to and attachments are
// read from.
func WithFs(fs afero.Fs) Option {
	return func(s *settings) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithOutputDir sets the directory artifacts are saved into.
func WithOutputDir(dir string) Option {
	return func(s *settings) {
		if dir != "" {
			s.outputDir = dir
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *settings) {
		s.theme = theme
	}
}

func applyOptions(options []Option) settings {
	s := defaultSettings()
	for _, opt := range options {
		if opt != nil {
			opt(&s)
		}
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver()
	}
	return s
}
