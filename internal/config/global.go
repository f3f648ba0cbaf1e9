package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/rougecorr/config.yml.
// Every field can be overridden from the environment with the ROUGECORR_ prefix,
// e.g. ROUGECORR_ROUGE_HOME.
type GlobalConfig struct {
	RougeHome string `yaml:"rouge_home,omitempty" split_words:"true"`
	Perl      string `yaml:"perl,omitempty" split_words:"true"`
	LedgerDir string `yaml:"ledger_dir,omitempty" split_words:"true"`
	LogLevel  string `yaml:"log_level,omitempty" split_words:"true"`
	LogFormat string `yaml:"log_format,omitempty" split_words:"true"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "rougecorr"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "ROUGECORR"
	// RougeScript is the scorer entry point expected under rouge_home.
	RougeScript = "ROUGE-1.5.5.pl"
)

var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/rougecorr/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file and applies
// environment overrides. A missing file is not an error.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	var cfg GlobalConfig
	if path := GlobalConfigPath(); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if cfg.Perl == "" {
		cfg.Perl = "perl"
	}
	cfg.RougeHome = ExpandPath(cfg.RougeHome)
	cfg.LedgerDir = ExpandPath(cfg.LedgerDir)

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

var (
	// ErrRougeHomeNotConfigured is returned when rouge_home is not set.
	ErrRougeHomeNotConfigured = errors.New("rouge_home not configured")
	// ErrRougeHomeInvalid is returned when rouge_home lacks the scorer script.
	ErrRougeHomeInvalid = errors.New("rouge_home does not contain " + RougeScript)
)

// ValidateRougeHome checks that the configured ROUGE installation exists
// and returns its path.
func (c *GlobalConfig) ValidateRougeHome() (string, error) {
	if c.RougeHome == "" {
		return "", ErrRougeHomeNotConfigured
	}
	if _, err := os.Stat(filepath.Join(c.RougeHome, RougeScript)); err != nil {
		return "", fmt.Errorf("%w: %s", ErrRougeHomeInvalid, c.RougeHome)
	}
	return c.RougeHome, nil
}

// HelpfulConfigMessage explains how to point rougecorr at a ROUGE installation.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No ROUGE installation configured.

Create %s:
  mkdir -p %s
  echo 'rouge_home: /path/to/ROUGE-1.5.5' > %s

or set %s_ROUGE_HOME.`,
		configPath,
		filepath.Dir(configPath),
		configPath,
		EnvPrefix)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
