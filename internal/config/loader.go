package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a configuration from the given YAML file path.
// After parsing, it fills unset fields from defaults and the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches for a config in standard locations and loads the
// first one found. Search order: ./ticketsmith.yaml, ~/.ticketsmith/config.yaml.
// If no file exists, a config built purely from defaults and environment
// variables is returned.
func LoadDefault() (*Config, error) {
	candidates := []string{"ticketsmith.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".ticketsmith", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return Default(), nil
}

// Default returns a config built from defaults and environment variables only.
func Default() *Config {
	var cfg Config
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg
}

// applyEnv fills empty credential and identity fields from environment
// variables so secrets can stay out of config files.
func applyEnv(cfg *Config) {
	setIfEmpty(&cfg.Jira.BaseURL, "JIRA_SERVER")
	setIfEmpty(&cfg.Jira.Email, "JIRA_EMAIL")
	setIfEmpty(&cfg.Jira.APIToken, "JIRA_API_TOKEN")
	setIfEmpty(&cfg.GitHub.Token, "GITHUB_TOKEN")
	setIfEmpty(&cfg.GitHub.Owner, "GITHUB_REPO_OWNER")
	setIfEmpty(&cfg.GitHub.Repo, "GITHUB_REPO_NAME")
	setIfEmpty(&cfg.Generator.APIKey, "OPENAI_API_KEY")
	setIfEmpty(&cfg.Git.AuthorName, "GIT_USER_NAME")
	setIfEmpty(&cfg.Git.AuthorEmail, "GIT_USER_EMAIL")
	setIfEmpty(&cfg.Notify.Sender, "EMAIL_SENDER")
	setIfEmpty(&cfg.Notify.Password, "EMAIL_SENDER_PASSWORD")
	setIfEmpty(&cfg.Database.DSN, "DATABASE_URL")

	if len(cfg.Notify.Recipients) == 0 {
		if v := os.Getenv("EMAIL_RECIPIENTS"); v != "" {
			for _, r := range strings.Split(v, ",") {
				if r = strings.TrimSpace(r); r != "" {
					cfg.Notify.Recipients = append(cfg.Notify.Recipients, r)
				}
			}
		}
	}
	if cfg.Notify.SMTPPort == 0 {
		if v := os.Getenv("SMTP_PORT"); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				cfg.Notify.SMTPPort = port
			}
		}
	}
	setIfEmpty(&cfg.Notify.SMTPHost, "SMTP_SERVER")
}

func setIfEmpty(dst *string, env string) {
	if *dst == "" {
		*dst = os.Getenv(env)
	}
}

// applyDefaults fills unset fields with working defaults.
func applyDefaults(cfg *Config) {
	if cfg.Jira.Backend == "" {
		cfg.Jira.Backend = "api"
	}
	if cfg.GitHub.Backend == "" {
		cfg.GitHub.Backend = "api"
	}
	if cfg.Generator.Backend == "" {
		cfg.Generator.Backend = "api"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gpt-4"
	}
	if cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Generator.Command == "" {
		cfg.Generator.Command = "claude"
	}
	if cfg.Git.RepoPath == "" {
		cfg.Git.RepoPath = "."
	}
	if cfg.Git.BaseBranch == "" {
		cfg.Git.BaseBranch = "main"
	}
	if cfg.Validator.TimeoutSeconds == 0 {
		cfg.Validator.TimeoutSeconds = 300
	}
	if cfg.Notify.SMTPPort == 0 {
		cfg.Notify.SMTPPort = 587
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.RunsDir == "" {
		cfg.RunsDir = ".ticketsmith/runs"
	}
}
