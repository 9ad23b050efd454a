package gitops

import (
	"regexp"
	"strings"
)

var (
	invalidBranchChars = regexp.MustCompile(`[^a-z0-9_-]`)
	hyphenRuns         = regexp.MustCompile(`-{2,}`)
)

// SanitizeBranch converts a ticket key into a safe branch name: lower-cased,
// spaces and disallowed characters become hyphens, hyphen runs collapse, and
// leading/trailing hyphens are stripped. Every input yields a usable name;
// inputs that sanitize to nothing yield "ticket-branch".
func SanitizeBranch(key string) string {
	name := strings.ToLower(key)
	name = strings.ReplaceAll(name, " ", "-")
	name = invalidBranchChars.ReplaceAllString(name, "-")
	name = hyphenRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		return "ticket-branch"
	}
	return name
}
