package e2e

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/ejagojo/shipsafe/internal/baseline"
	"github.com/ejagojo/shipsafe/internal/scanner"
)

const mainPackage = "github.com/ejagojo/shipsafe/cmd/shipsafe"

var (
	buildOnce sync.Once
	binPath   string
	buildErr  error
)

// TestHelper provides utilities for end-to-end tests
type TestHelper struct {
	t       *testing.T
	workDir string
	bin     string
}

// NewTestHelper creates a new test helper. The binary under test is
// taken from SHIPSAFE_BIN or built once per test run.
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()

	bin := os.Getenv("SHIPSAFE_BIN")
	if bin == "" {
		buildOnce.Do(build)
		if buildErr != nil {
			t.Fatalf("failed to build shipsafe: %v", buildErr)
		}
		bin = binPath
	}

	workDir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create work dir: %v", err)
	}

	return &TestHelper{
		t:       t,
		workDir: workDir,
		bin:     bin,
	}
}

func build() {
	dir, err := os.MkdirTemp("", "shipsafe-e2e-*")
	if err != nil {
		buildErr = err
		return
	}
	name := "shipsafe"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath = filepath.Join(dir, name)

	cmd := exec.Command("go", "build", "-o", binPath, mainPackage)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		buildErr = errors.New(strings.TrimSpace(stderr.String()))
	}
}

// WorkDir is the directory commands run in.
func (h *TestHelper) WorkDir() string {
	return h.workDir
}

// WriteFile creates name below the work directory.
func (h *TestHelper) WriteFile(name, content string) string {
	h.t.Helper()

	path := filepath.Join(h.workDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		h.t.Fatalf("failed to create directories: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		h.t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

// RunCommand runs the binary under test and returns its output
func (h *TestHelper) RunCommand(args ...string) (string, string, error) {
	cmd := exec.Command(h.bin, args...)
	cmd.Dir = h.workDir
	cmd.Env = append(os.Environ(), "HOME="+h.workDir, "NO_COLOR=1")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// CreateBaseline suppresses the given finding of the file at relPath.
func (h *TestHelper) CreateBaseline(relPath string, findings ...scanner.Finding) error {
	b := baseline.New()
	for _, f := range findings {
		if err := b.Add(relPath, f); err != nil {
			return err
		}
	}
	return b.Save(h.workDir)
}

// AssertOutput asserts that the command output matches the expected pattern
func (h *TestHelper) AssertOutput(stdout, stderr string, expectedPattern string) {
	h.t.Helper()
	if !strings.Contains(stdout+stderr, expectedPattern) {
		h.t.Errorf("output does not contain expected pattern %q\nstdout: %s\nstderr: %s", expectedPattern, stdout, stderr)
	}
}

// AssertExitCode asserts that the command exited with the expected code
func (h *TestHelper) AssertExitCode(err error, expectedCode int) {
	h.t.Helper()
	if err == nil {
		if expectedCode != 0 {
			h.t.Errorf("expected exit code %d, got 0", expectedCode)
		}
		return
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() != expectedCode {
			h.t.Errorf("expected exit code %d, got %d", expectedCode, exitErr.ExitCode())
		}
	} else {
		h.t.Errorf("unexpected error: %v", err)
	}
}
