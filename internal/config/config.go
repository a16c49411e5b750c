package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Notion  Notion  `yaml:"notion"`
	AI      AI      `yaml:"ai"`
	Mail    Mail    `yaml:"mail"`
	Feeds   []Feed  `yaml:"feeds"`
	Fetch   Fetch   `yaml:"fetch"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

type Notion struct {
	BaseURL  string `yaml:"base_url"`
	Version  string `yaml:"version"`
	TokenEnv string `yaml:"token_env"`
}

type AI struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	APIKeyEnv       string `yaml:"api_key_env"`
	OpenAIModel     string `yaml:"openai_model"`
	OpenAIAPIKeyEnv string `yaml:"openai_api_key_env"`
	MaxTokens       int    `yaml:"max_tokens"`
}

type Mail struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	UserEnv string `yaml:"user_env"`
	PassEnv string `yaml:"pass_env"`
	From    string `yaml:"from"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Fetch struct {
	Enabled        bool `yaml:"enabled"`
	TimeoutSeconds int  `yaml:"timeout_seconds"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for veille.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "veille")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/veille/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'veille init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Notion: Notion{
			BaseURL:  "https://api.notion.com",
			Version:  "2022-06-28",
			TokenEnv: "NOTION_TOKEN",
		},
		AI: AI{
			Provider:        "gemini",
			Model:           "gemini-1.5-flash",
			APIKeyEnv:       "GEMINI_API_KEY",
			OpenAIModel:     "gpt-4o-mini",
			OpenAIAPIKeyEnv: "OPENAI_API_KEY",
			MaxTokens:       512,
		},
		Mail: Mail{
			Host:    "smtp.gmail.com",
			Port:    587,
			UserEnv: "SMTP_USER",
			PassEnv: "SMTP_PASS",
		},
		Fetch:   Fetch{Enabled: true, TimeoutSeconds: 15},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// NotionToken reads the Notion integration token from the environment.
// An empty value is not an error here; it surfaces when the first
// Notion call fails.
func (c *Config) NotionToken() string {
	return os.Getenv(c.Notion.TokenEnv)
}

// MailCredentials reads the SMTP user and password from the environment.
func (c *Config) MailCredentials() (user, pass string) {
	return os.Getenv(c.Mail.UserEnv), os.Getenv(c.Mail.PassEnv)
}

// MailFrom returns the sender address, falling back to the SMTP user.
func (c *Config) MailFrom() string {
	if c.Mail.From != "" {
		return c.Mail.From
	}
	return os.Getenv(c.Mail.UserEnv)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
