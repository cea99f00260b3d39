package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ejagojo/shipsafe/pkg/rules"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxFileSize is the largest file, in bytes, that gets scanned.
	DefaultMaxFileSize int64 = 1_000_000
	// DefaultConcurrency is the number of files scanned at once.
	DefaultConcurrency = 4
)

// DefaultSkipDirs are never descended into, at any depth.
var DefaultSkipDirs = []string{
	"node_modules",
	".git",
	"venv",
	"env",
	".venv",
	"__pycache__",
	".next",
	"dist",
	"build",
	".nuxt",
	"vendor",
	".bundle",
	"coverage",
}

// DefaultSkipExtensions covers media, archives, documents, lockfiles,
// minified bundles and native binaries.
var DefaultSkipExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".webp",
	".woff", ".woff2", ".ttf", ".eot",
	".mp3", ".mp4", ".wav", ".avi",
	".zip", ".tar", ".gz", ".rar",
	".pdf", ".doc", ".docx",
	".lock",
	".min.js", ".min.css",
	".exe", ".dll", ".so", ".dylib", ".bin",
}

// Config represents the scanner configuration file
type Config struct {
	Rules               []rules.RuleConfig `yaml:"rules,omitempty"`
	RulesFile           string             `yaml:"rules_file,omitempty"`
	DisableDefaultRules bool               `yaml:"disable_default_rules,omitempty"`
	SkipDirs            []string           `yaml:"skip_dirs,omitempty"`
	SkipExtensions      []string           `yaml:"skip_extensions,omitempty"`
	MaxFileSize         int64              `yaml:"max_file_size,omitempty"`
	Concurrency         int                `yaml:"concurrency,omitempty"`
	SniffContent        bool               `yaml:"sniff_content,omitempty"`
}

// Settings is the resolved, immutable configuration handed to the
// filter, line scanner and walker.
type Settings struct {
	Rules          []rules.Rule
	SkipDirs       map[string]struct{}
	SkipExtensions []string
	MaxFileSize    int64
	Concurrency    int
	SniffContent   bool
}

// DefaultConfigPath returns the default path to the configuration file
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".shipsafe.yaml"
	}
	return filepath.Join(home, ".shipsafe.yaml")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize: DefaultMaxFileSize,
		Concurrency: DefaultConcurrency,
	}
}

// LoadConfig loads the scanner configuration from the given path. A
// missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.MaxFileSize == 0 {
		config.MaxFileSize = DefaultMaxFileSize
	}
	if config.Concurrency == 0 {
		config.Concurrency = DefaultConcurrency
	}
	// rules_file is relative to the config file, not the working directory
	if config.RulesFile != "" && !filepath.IsAbs(config.RulesFile) {
		config.RulesFile = filepath.Join(filepath.Dir(path), config.RulesFile)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveConfig saves the scanner configuration to the given path
func SaveConfig(config *Config, path string) error {
	if err := config.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks values that cannot be fixed up with a default.
func (c *Config) Validate() error {
	if c.MaxFileSize < 0 {
		return fmt.Errorf("invalid config: max_file_size must not be negative")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("invalid config: concurrency must not be negative")
	}
	seen := make(map[string]bool, len(c.Rules))
	for _, r := range c.Rules {
		if seen[r.Name] {
			return fmt.Errorf("invalid config: duplicate rule name: %s", r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

// MergeConfig merges environment variables and flags into the config
func MergeConfig(config *Config, flags map[string]interface{}) *Config {
	merged := *config

	// Environment variables take precedence over the config file
	if v := os.Getenv("SHIPSAFE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			merged.Concurrency = n
		}
	}
	if v := os.Getenv("SHIPSAFE_MAX_FILE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			merged.MaxFileSize = n
		}
	}

	// Command line flags take precedence over everything
	for k, v := range flags {
		switch k {
		case "threads":
			if n, ok := v.(int); ok && n > 0 {
				merged.Concurrency = n
			}
		case "sniff":
			if b, ok := v.(bool); ok && b {
				merged.SniffContent = true
			}
		case "max-file-size":
			if n, ok := v.(int64); ok && n > 0 {
				merged.MaxFileSize = n
			}
		}
	}

	return &merged
}

// Build compiles the rule table and resolves the skip sets.
func (c *Config) Build() (*Settings, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var table []rules.Rule
	if !c.DisableDefaultRules {
		table = rules.DefaultRules()
	}

	custom := append([]rules.RuleConfig(nil), c.Rules...)
	if c.RulesFile != "" {
		fromFile, err := rules.LoadFile(c.RulesFile)
		if err != nil {
			return nil, err
		}
		custom = append(custom, fromFile...)
	}
	extra, err := rules.Compile(custom)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	table, err = rules.Merge(table, extra)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Settings{
		Rules:        table,
		SkipDirs:     make(map[string]struct{}, len(DefaultSkipDirs)+len(c.SkipDirs)),
		MaxFileSize:  c.MaxFileSize,
		Concurrency:  c.Concurrency,
		SniffContent: c.SniffContent,
	}
	for _, d := range append(append([]string(nil), DefaultSkipDirs...), c.SkipDirs...) {
		s.SkipDirs[d] = struct{}{}
	}
	for _, ext := range append(append([]string(nil), DefaultSkipExtensions...), c.SkipExtensions...) {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.SkipExtensions = append(s.SkipExtensions, ext)
	}
	if s.MaxFileSize <= 0 {
		s.MaxFileSize = DefaultMaxFileSize
	}
	if s.Concurrency <= 0 {
		s.Concurrency = DefaultConcurrency
	}

	return s, nil
}

// DefaultSettings builds the settings for an empty configuration.
func DefaultSettings() *Settings {
	s, err := DefaultConfig().Build()
	if err != nil {
		panic(err)
	}
	return s
}
