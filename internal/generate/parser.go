package generate

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	fileMarker    = "FILE:"
	endFileMarker = "END_FILE"

	// DefaultPath names the single file produced when no structure at all
	// can be recognized in the generated text.
	DefaultPath = "implementation.py"
)

// fencedRe matches markdown code fences with an optional language tag and an
// optional path tag after a colon, e.g. ```python:src/app.py.
var fencedRe = regexp.MustCompile("(?s)```(\\w+)?:?([^\\n]+)?\\n(.*?)```")

var langExts = map[string]string{
	"python":     ".py",
	"javascript": ".js",
	"typescript": ".ts",
	"java":       ".java",
	"go":         ".go",
}

// Parse converts raw generated text into a FileSet. A marker scan is tried
// first, then fenced code blocks, then the whole text becomes one file at
// DefaultPath, so the result is never empty.
func Parse(raw string) *FileSet {
	files := parseMarkers(raw)
	if files.Len() == 0 {
		files = parseFencedBlocks(raw)
	}
	return files
}

// parseMarkers scans FILE:/END_FILE delimited sections. Lines outside an open
// section are dropped; a section still open at end of input is committed.
func parseMarkers(raw string) *FileSet {
	files := NewFileSet()
	var current string
	var content []string
	open := false

	commit := func() {
		if open {
			files.Set(current, strings.TrimSpace(strings.Join(content, "\n")))
		}
		open = false
		current = ""
		content = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		switch {
		case strings.HasPrefix(line, fileMarker):
			commit()
			name, ok := safeRelPath(strings.TrimPrefix(line, fileMarker))
			if !ok {
				// Unusable name. Lines up to the next marker are dropped.
				continue
			}
			current = name
			open = true
		case strings.TrimSpace(line) == endFileMarker:
			commit()
		case open:
			content = append(content, line)
		}
	}
	commit()

	return files
}

// parseFencedBlocks extracts markdown code fences. A block without a usable
// path tag is named from its language tag; colliding names overwrite earlier
// content (later wins).
func parseFencedBlocks(raw string) *FileSet {
	files := NewFileSet()

	for _, m := range fencedRe.FindAllStringSubmatch(raw, -1) {
		lang, tag, body := m[1], m[2], m[3]
		name, ok := safeRelPath(tag)
		if !ok {
			name = "generated_file" + extForLang(lang)
		}
		files.Set(name, strings.TrimSpace(body))
	}

	if files.Len() == 0 {
		files.Set(DefaultPath, raw)
	}
	return files
}

func extForLang(lang string) string {
	if ext, ok := langExts[strings.ToLower(lang)]; ok {
		return ext
	}
	return ".txt"
}

// safeRelPath normalizes a generated path and rejects anything empty,
// absolute, or escaping the repository root.
func safeRelPath(p string) (string, bool) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", false
	}
	p = filepath.ToSlash(p)
	if strings.HasPrefix(p, "/") {
		return "", false
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	return clean, true
}
