package config

import "fmt"

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// recognizedBackends is the set of valid backend names for collaborators.
var recognizedBackends = map[string]bool{
	"api":  true,
	"cli":  true,
	"stub": true,
}

// Validate checks a Config for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	if !recognizedBackends[cfg.Jira.Backend] {
		errs = append(errs, ValidationError{Field: "jira.backend", Message: fmt.Sprintf("unrecognized backend %q", cfg.Jira.Backend)})
	}
	if !recognizedBackends[cfg.GitHub.Backend] {
		errs = append(errs, ValidationError{Field: "github.backend", Message: fmt.Sprintf("unrecognized backend %q", cfg.GitHub.Backend)})
	}
	if !recognizedBackends[cfg.Generator.Backend] {
		errs = append(errs, ValidationError{Field: "generator.backend", Message: fmt.Sprintf("unrecognized backend %q", cfg.Generator.Backend)})
	}

	switch cfg.Jira.Backend {
	case "api":
		if cfg.Jira.BaseURL == "" {
			errs = append(errs, ValidationError{Field: "jira.base_url", Message: "is required for the api backend"})
		}
		if cfg.Jira.Email == "" {
			errs = append(errs, ValidationError{Field: "jira.email", Message: "is required for the api backend"})
		}
		if cfg.Jira.APIToken == "" {
			errs = append(errs, ValidationError{Field: "jira.api_token", Message: "is required for the api backend"})
		}
	case "stub":
		if cfg.Jira.StubDir == "" {
			errs = append(errs, ValidationError{Field: "jira.stub_dir", Message: "is required for the stub backend"})
		}
	}

	switch cfg.GitHub.Backend {
	case "api":
		if cfg.GitHub.Token == "" {
			errs = append(errs, ValidationError{Field: "github.token", Message: "is required for the api backend"})
		}
	case "stub":
		if cfg.GitHub.StubDir == "" {
			errs = append(errs, ValidationError{Field: "github.stub_dir", Message: "is required for the stub backend"})
		}
	}
	if cfg.GitHub.CreatePR && (cfg.GitHub.Owner == "" || cfg.GitHub.Repo == "") {
		errs = append(errs, ValidationError{Field: "github.create_pr", Message: "requires github.owner and github.repo"})
	}

	switch cfg.Generator.Backend {
	case "api":
		if cfg.Generator.APIKey == "" {
			errs = append(errs, ValidationError{Field: "generator.api_key", Message: "is required for the api backend"})
		}
	case "cli":
		if cfg.Generator.Command == "" {
			errs = append(errs, ValidationError{Field: "generator.command", Message: "is required for the cli backend"})
		}
	case "stub":
		if cfg.Generator.StubFile == "" {
			errs = append(errs, ValidationError{Field: "generator.stub_file", Message: "is required for the stub backend"})
		}
	}

	if cfg.Git.RepoPath == "" {
		errs = append(errs, ValidationError{Field: "git.repo_path", Message: "is required"})
	}
	if cfg.Validator.TimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{Field: "validator.timeout_seconds", Message: "must be positive"})
	}

	if cfg.Notify.SMTPHost != "" {
		if cfg.Notify.Sender == "" {
			errs = append(errs, ValidationError{Field: "notify.sender", Message: "is required when notify.smtp_host is set"})
		}
		if len(cfg.Notify.Recipients) == 0 {
			errs = append(errs, ValidationError{Field: "notify.recipients", Message: "at least one recipient is required when notify.smtp_host is set"})
		}
	}

	return errs
}
