package config

// Config is the top-level configuration structure parsed from YAML.
type Config struct {
	Jira      JiraConfig      `yaml:"jira"`
	GitHub    GitHubConfig    `yaml:"github"`
	Generator GeneratorConfig `yaml:"generator"`
	Git       GitConfig       `yaml:"git"`
	Validator ValidatorConfig `yaml:"validator"`
	Notify    NotifyConfig    `yaml:"notify"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	RunsDir   string          `yaml:"runs_dir"`
}

// JiraConfig selects and configures the ticket-fetch backend.
// Backend is one of: api (Jira REST), cli (jira command bridge), stub (JSON files).
type JiraConfig struct {
	Backend  string `yaml:"backend"`
	BaseURL  string `yaml:"base_url"`
	Email    string `yaml:"email"`
	APIToken string `yaml:"api_token"`
	StubDir  string `yaml:"stub_dir"`
}

// GitHubConfig selects and configures the source-hosting backend.
// Backend is one of: api (GitHub REST), cli (gh command bridge), stub (JSON files).
type GitHubConfig struct {
	Backend  string `yaml:"backend"`
	Token    string `yaml:"token"`
	Owner    string `yaml:"owner"`
	Repo     string `yaml:"repo"`
	CreatePR bool   `yaml:"create_pr"`
	StubDir  string `yaml:"stub_dir"`
}

// GeneratorConfig selects and configures the code-generation backend.
// Backend is one of: api (OpenAI-compatible), cli (one-shot command bridge),
// stub (canned output file).
type GeneratorConfig struct {
	Backend  string `yaml:"backend"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Command  string `yaml:"command"`
	StubFile string `yaml:"stub_file"`
}

// GitConfig configures the local working-copy repository.
type GitConfig struct {
	RepoPath    string `yaml:"repo_path"`
	BaseBranch  string `yaml:"base_branch"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// ValidatorConfig bounds the build/test validator.
type ValidatorConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// NotifyConfig configures the SMTP notifier. Leaving SMTPHost empty
// disables notifications entirely.
type NotifyConfig struct {
	SMTPHost   string   `yaml:"smtp_host"`
	SMTPPort   int      `yaml:"smtp_port"`
	Sender     string   `yaml:"sender"`
	Password   string   `yaml:"password"`
	Recipients []string `yaml:"recipients"`
}

// DatabaseConfig points at the Postgres run log. Empty DSN disables it.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}
