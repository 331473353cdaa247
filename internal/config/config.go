// Package config loads shtym's runtime configuration from a JSON file in
// the XDG config directory, with SHTYM_* environment variables taking
// precedence. It also supplies the environment-derived default profile
// used when no profiles file defines one.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/kalambet/shtym/internal/profile"
)

type Config struct {
	LLM     LLMConfig
	History HistoryConfig
	Storage StorageConfig
	Server  ServerConfig
	Log     LogConfig
}

type LLMConfig struct {
	Model          string
	ServerURL      string
	TimeoutSeconds int
	DefaultProfile bool
}

type HistoryConfig struct {
	Enabled bool
}

type StorageConfig struct {
	DataDir string
}

type ServerConfig struct {
	Port int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		LLM: LLMConfig{
			Model:          "llama3.2:3b",
			ServerURL:      "http://localhost:11434",
			TimeoutSeconds: 120,
			DefaultProfile: true,
		},
		History: HistoryConfig{Enabled: true},
		Storage: StorageConfig{DataDir: defaultDataDir()},
		Server:  ServerConfig{Port: 4664},
		Log:     LogConfig{Level: "info"},
	}
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return defaults()
}

// Load reads configuration from the JSON file backend and applies SHTYM_*
// environment overrides. Blank or whitespace-only values, from either
// source, are treated as absent so the built-in default survives.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// DefaultProfile returns the environment-derived default llm profile, or
// ok=false when the operator disabled it via llm.default_profile. This is
// the last non-identity tier of the resolution chain.
func (c Config) DefaultProfile() (profile.Profile, bool) {
	if !c.LLM.DefaultProfile {
		return profile.Profile{}, false
	}

	model := strings.TrimSpace(c.LLM.Model)
	server := strings.TrimSpace(c.LLM.ServerURL)
	if model == "" {
		model = defaults().LLM.Model
	}
	if server == "" {
		server = defaults().LLM.ServerURL
	}

	return profile.Profile{
		Name:                 profile.DefaultName,
		Kind:                 profile.KindLLM,
		SchemaVersion:        1,
		SystemPromptTemplate: profile.DefaultSystemPromptTemplate,
		UserPromptTemplate:   profile.DefaultUserPromptTemplate,
		ModelName:            model,
		ServerURL:            server,
	}, true
}

// ProfilesPaths returns the profile sources in ascending precedence:
// the user config directory first, then the project-local .shtym
// directory, which shadows it.
func ProfilesPaths() []string {
	return []string{
		filepath.Join(configDir(), "profiles.toml"),
		filepath.Join(".shtym", "profiles.toml"),
	}
}

func configDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "shtym")
}

func configFilePath() string {
	return filepath.Join(configDir(), "config.json")
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "shtym-data"
		}
	}
	return filepath.Join(dir, "shtym")
}
