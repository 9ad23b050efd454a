package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	varPattern      = regexp.MustCompile(`\{\{([a-zA-Z_][a-zA-Z0-9_]*)\}\}`)
	condOpenPattern = regexp.MustCompile(`\{\{#if\s+([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)
)

const condClose = "{{/if}}"

// Vars is a map of variable names to values for template rendering.
type Vars map[string]string

// Render expands a template string with the given variables.
// {{#if name}}...{{/if}} sections are kept only when the named variable is
// set and non-empty. Sections are resolved before {{name}} expansion, so
// variable values may safely contain template syntax. Any {{name}} reference
// left outside a dropped section must have a value or Render errors.
func Render(tmpl string, vars Vars) (string, error) {
	flat, err := resolveConditionals(tmpl, vars)
	if err != nil {
		return "", err
	}
	return expandVars(flat, vars)
}

// condFrame buffers the body of one open {{#if}} section.
type condFrame struct {
	name string
	body strings.Builder
}

// resolveConditionals walks the template once, left to right, keeping or
// dropping {{#if name}}...{{/if}} sections. A frame stack makes nested
// sections settle from the inside out.
func resolveConditionals(tmpl string, vars Vars) (string, error) {
	type tag struct {
		start, end int
		name       string // empty for a closing tag
	}

	var tags []tag
	for _, m := range condOpenPattern.FindAllStringSubmatchIndex(tmpl, -1) {
		tags = append(tags, tag{start: m[0], end: m[1], name: tmpl[m[2]:m[3]]})
	}
	for at := 0; ; {
		i := strings.Index(tmpl[at:], condClose)
		if i < 0 {
			break
		}
		at += i
		tags = append(tags, tag{start: at, end: at + len(condClose)})
		at += len(condClose)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].start < tags[j].start })

	var out strings.Builder
	var stack []*condFrame
	emit := func(s string) {
		if n := len(stack); n > 0 {
			stack[n-1].body.WriteString(s)
			return
		}
		out.WriteString(s)
	}

	pos := 0
	for _, t := range tags {
		emit(tmpl[pos:t.start])
		pos = t.end
		if t.name != "" {
			stack = append(stack, &condFrame{name: t.name})
			continue
		}
		if len(stack) == 0 {
			return "", fmt.Errorf("dangling %s without matching {{#if}}", condClose)
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if vars[top.name] != "" {
			emit(top.body.String())
		}
	}
	if len(stack) > 0 {
		return "", fmt.Errorf("unclosed conditional block for %q", stack[len(stack)-1].name)
	}
	out.WriteString(tmpl[pos:])
	return out.String(), nil
}

// expandVars substitutes {{name}} references in a single pass. Substituted
// values are never rescanned.
func expandVars(tmpl string, vars Vars) (string, error) {
	var out strings.Builder
	var missing []string
	pos := 0
	for _, m := range varPattern.FindAllStringSubmatchIndex(tmpl, -1) {
		out.WriteString(tmpl[pos:m[0]])
		pos = m[1]
		name := tmpl[m[2]:m[3]]
		if val, ok := vars[name]; ok {
			out.WriteString(val)
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing template variables: %s", strings.Join(missing, ", "))
	}
	out.WriteString(tmpl[pos:])
	return out.String(), nil
}

// GenerationOverridePath is the project-relative location of a custom
// generation prompt template.
const GenerationOverridePath = ".ticketsmith/prompt.md"

// LoadGeneration returns the generation prompt template, preferring a
// project-level override under workdir when one exists.
func LoadGeneration(workdir string) string {
	if workdir != "" {
		path := filepath.Join(workdir, filepath.FromSlash(GenerationOverridePath))
		if data, err := os.ReadFile(path); err == nil {
			return string(data)
		}
	}
	return GenerationTemplate
}
