package validate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTimeout bounds each candidate invocation.
const DefaultTimeout = 5 * time.Minute

// maxOutputLen caps how much captured output an outcome message retains.
const maxOutputLen = 8000

// Outcome is the result of a validation stage or of a full Validate run.
type Outcome struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// buildCommands are attempted in order until one exits zero.
var buildCommands = [][]string{
	{"python", "-m", "pip", "install", "-r", "requirements.txt"},
	{"python", "-m", "pip", "install", "-e", "."},
	{"python", "setup.py", "build"},
	{"npm", "install"},
	{"npm", "run", "build"},
	{"mvn", "clean", "install"},
	{"gradle", "build"},
	{"make", "build"},
}

var testCommands = [][]string{
	{"python", "-m", "pytest"},
	{"python", "-m", "unittest", "discover"},
	{"npm", "test"},
	{"npm", "run", "test"},
	{"mvn", "test"},
	{"gradle", "test"},
	{"make", "test"},
}

// Conventional standalone scripts checked when no candidate command succeeds.
var (
	buildScripts = []string{"build.sh", "build.py", "build.bat"}
	testScripts  = []string{"test.sh", "test.py", "test.bat", "run_tests.sh"}
)

// Validator probes a project directory for a working build and test story
// without prior knowledge of its tooling.
type Validator struct {
	dir     string
	timeout time.Duration
	cmd     CommandRunner
}

// New creates a Validator for the project at dir. A non-positive timeout
// selects DefaultTimeout.
func New(dir string, timeout time.Duration, cmd CommandRunner) *Validator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Validator{dir: dir, timeout: timeout, cmd: cmd}
}

// Validate runs the build stage, then the test stage if the build passed.
// Subprocess faults never escape as errors; they are folded into the outcome.
func (v *Validator) Validate(ctx context.Context) Outcome {
	build := v.RunBuild(ctx)
	if !build.Passed {
		return Outcome{Passed: false, Message: "Build failed:\n" + build.Message}
	}
	tests := v.RunTests(ctx)
	if !tests.Passed {
		return Outcome{Passed: false, Message: "Tests failed:\n" + tests.Message}
	}
	return Outcome{Passed: true, Message: "Build and tests passed successfully"}
}

// RunBuild attempts each build candidate in order and returns the first
// success, an aggregated failure, or a vacuous success when the project has
// no recognizable build tooling at all.
func (v *Validator) RunBuild(ctx context.Context) Outcome {
	return v.runStage(ctx, buildCommands, buildScripts, "No build process found")
}

// RunTests mirrors RunBuild for the test candidate list.
func (v *Validator) RunTests(ctx context.Context) Outcome {
	return v.runStage(ctx, testCommands, testScripts, "No test process found")
}

func (v *Validator) runStage(ctx context.Context, commands [][]string, scripts []string, emptyMsg string) Outcome {
	var failures []string

	for _, argv := range commands {
		if _, err := v.cmd.LookPath(argv[0]); err != nil {
			continue
		}
		out, passed, skipped := v.attempt(ctx, argv)
		if skipped {
			continue
		}
		if passed {
			return Outcome{Passed: true, Message: out}
		}
		failures = append(failures, fmt.Sprintf("%s:\n%s", strings.Join(argv, " "), out))
	}

	// Only the first script that exists is invoked; its outcome stands.
	for _, script := range scripts {
		path := filepath.Join(v.dir, script)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		out, passed, skipped := v.attempt(ctx, scriptArgv(path))
		if !skipped {
			if passed {
				return Outcome{Passed: true, Message: out}
			}
			failures = append(failures, fmt.Sprintf("%s:\n%s", script, out))
		}
		break
	}

	if len(failures) == 0 {
		return Outcome{Passed: true, Message: emptyMsg}
	}
	return Outcome{Passed: false, Message: strings.Join(failures, "\n")}
}

// attempt runs one candidate with the stage timeout. A timeout, or an
// executable that vanished between probe and invocation, is a skip rather
// than a failure.
func (v *Validator) attempt(ctx context.Context, argv []string) (output string, passed, skipped bool) {
	runCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	stdout, stderr, exitCode, err := v.cmd.Run(runCtx, v.dir, argv)
	if err != nil || runCtx.Err() != nil {
		return "", false, true
	}
	if exitCode == 0 {
		return truncateOutput(stdout), true, false
	}
	return truncateOutput(combinedOutput(stdout, stderr)), false, false
}

func scriptArgv(path string) []string {
	switch {
	case strings.HasSuffix(path, ".sh"):
		return []string{"bash", path}
	case strings.HasSuffix(path, ".py"):
		return []string{"python", path}
	default:
		return []string{path}
	}
}

func combinedOutput(stdout, stderr string) string {
	combined := stdout
	if stderr != "" {
		if combined != "" {
			combined += "\n"
		}
		combined += stderr
	}
	return combined
}

func truncateOutput(s string) string {
	if len(s) <= maxOutputLen {
		return s
	}
	return "…(truncated)\n" + s[len(s)-maxOutputLen:]
}
