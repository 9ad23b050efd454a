package project

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDetectSingleMarker(t *testing.T) {
	tests := []struct {
		marker string
		want   Kind
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
	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			dir := t.TempDir()
			touch(t, dir, tt.marker)
			if got := Detect(dir).Kind; got != tt.want {
				t.Errorf("Detect with %s = %q, want %q", tt.marker, got, tt.want)
			}
		})
	}
}

func TestDetectPriorityOrder(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "requirements.txt")
	touch(t, dir, "Makefile")

	res := Detect(dir)
	if res.Kind != Python {
		t.Fatalf("Kind = %q, want %q", res.Kind, Python)
	}
	if len(res.Markers) != 2 || res.Markers[0] != "requirements.txt" || res.Markers[1] != "Makefile" {
		t.Fatalf("Markers = %v, want [requirements.txt Makefile]", res.Markers)
	}
}

func TestDetectEmptyDir(t *testing.T) {
	res := Detect(t.TempDir())
	if res.Kind != Unknown {
		t.Fatalf("Kind = %q, want unknown", res.Kind)
	}
	if res.Markers == nil {
		t.Fatal("Markers should never be nil")
	}
	if got := res.Describe(); got != "" {
		t.Fatalf("Describe() = %q, want empty", got)
	}
}

func TestDetectBlankDir(t *testing.T) {
	if got := Detect("").Kind; got != Unknown {
		t.Fatalf("Detect(\"\") = %q, want unknown", got)
	}
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "package.json")

	got := Detect(dir).Describe()
	want := "Node.js (package.json)"
	if got != want {
		t.Fatalf("Describe() = %q, want %q", got, want)
	}
}
