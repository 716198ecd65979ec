package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig holds user-level settings stored outside any project,
// mainly API keys.
type GlobalConfig struct {
	S2APIKey   string `yaml:"s2_api_key,omitempty"`
	ChromePath string `yaml:"chrome_path,omitempty"`
	UserAgent  string `yaml:"user_agent,omitempty"`
	PDFViewer  string `yaml:"pdf_viewer,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "bibfill"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/bibfill/config.yml.
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

// LoadGlobal loads the global configuration file. A missing file yields
// an empty config, not an error. Environment variables take precedence
// over the file so .env setups keep working.
func LoadGlobal() (*GlobalConfig, error) {
	cfg := &GlobalConfig{}

	if path := GlobalConfigPath(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		}
	}

	if v := os.Getenv("S2_API_KEY"); v != "" {
		cfg.S2APIKey = v
	}
	if v := os.Getenv("BIBFILL_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	return cfg, nil
}
