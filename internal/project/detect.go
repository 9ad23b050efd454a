package project

import (
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies the dominant toolchain of a repository.
type Kind string

const (
	Go      Kind = "go"
	Node    Kind = "node"
	Java    Kind = "java"
	Python  Kind = "python"
	Rust    Kind = "rust"
	Make    Kind = "make"
	Unknown Kind = ""
)

// markerTable maps toolchain marker files to a kind, in priority order.
// The first marker present decides the kind; generic markers like Makefile
// sit last so they only win when nothing more specific exists.
var markerTable = []struct {
	file string
	kind Kind
}{
	{"go.mod", Go},
	{"package.json", Node},
	{"pom.xml", Java},
	{"build.gradle", Java},
	{"build.gradle.kts", Java},
	{"pyproject.toml", Python},
	{"requirements.txt", Python},
	{"setup.py", Python},
	{"Cargo.toml", Rust},
	{"Makefile", Make},
}

var kindNames = map[Kind]string{
	Go:     "Go",
	Node:   "Node.js",
	Java:   "Java",
	Python: "Python",
	Rust:   "Rust",
	Make:   "Make-based",
}

// Result holds the detection outcome for a repository root.
type Result struct {
	Kind    Kind     `json:"kind"`
	Markers []string `json:"markers"`
}

// Detect inspects the top level of dir for toolchain marker files. The
// highest-priority marker present decides the kind; Markers lists every
// marker found, in table order. An empty dir yields Unknown.
func Detect(dir string) Result {
	result := Result{Kind: Unknown, Markers: []string{}}
	if dir == "" {
		return result
	}
	for _, m := range markerTable {
		if _, err := os.Stat(filepath.Join(dir, m.file)); err != nil {
			continue
		}
		if result.Kind == Unknown {
			result.Kind = m.kind
		}
		result.Markers = append(result.Markers, m.file)
	}
	return result
}

// Describe renders the result as a short phrase for prompt text, for
// example "Python (pyproject.toml, setup.py)". Unknown yields "".
func (r Result) Describe() string {
	if r.Kind == Unknown {
		return ""
	}
	name := kindNames[r.Kind]
	if len(r.Markers) == 0 {
		return name
	}
	return name + " (" + strings.Join(r.Markers, ", ") + ")"
}
