package tools_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectRoot returns the absolute path to the project root directory.
func projectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root")
		}
		dir = parent
	}
}

// readMakefile reads the Makefile content from the project root.
func readMakefile(t *testing.T) string {
	t.Helper()
	root := projectRoot(t)
	data, err := os.ReadFile(filepath.Join(root, "Makefile"))
	require.NoError(t, err, "failed to read Makefile")
	return string(data)
}

// runMake executes a make target in the project root and returns combined output.
func runMake(t *testing.T, target string) (string, error) {
	t.Helper()
	root := projectRoot(t)
	cmd := exec.Command("make", target)
	cmd.Dir = root
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestMakefile_Exists(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	info, err := os.Stat(filepath.Join(root, "Makefile"))
	require.NoError(t, err, "Makefile does not exist at project root")
	assert.False(t, info.IsDir(), "Makefile must be a regular file, not a directory")
	assert.Greater(t, info.Size(), int64(0), "Makefile must not be empty")
}

func TestMakefile_ContainsTargets(t *testing.T) {
	t.Parallel()

	content := readMakefile(t)

	targets := []string{
		"all", "build", "build-debug", "test", "bench", "vet", "lint",
		"fmt", "tidy", "clean", "install", "run-version",
	}

	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			t.Parallel()
			assert.Contains(t, content, target+":",
				"Makefile must contain target %q", target)
		})
	}
}

func TestMakefile_BuildConventions(t *testing.T) {
	t.Parallel()

	content := readMakefile(t)

	conventions := []struct {
		name   string
		marker string
	}{
		{name: "static build", marker: "CGO_ENABLED=0"},
		{name: "reproducible paths", marker: "-trimpath"},
		{name: "module path", marker: "github.com/amondnet/spec-kit-sdk-sub001"},
		{name: "version injection", marker: "buildinfo.Version"},
		{name: "commit injection", marker: "buildinfo.Commit"},
		{name: "date injection", marker: "buildinfo.Date"},
		{name: "race detector in tests", marker: "-race"},
		{name: "phony declarations", marker: ".PHONY:"},
	}

	for _, tt := range conventions {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Contains(t, content, tt.marker,
				"Makefile must contain %q", tt.marker)
		})
	}
}

func TestMakeBuild_ProducesBinary(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping make build test in short mode")
	}

	root := projectRoot(t)

	// Clean first to ensure a fresh build.
	_, _ = runMake(t, "clean")
	t.Cleanup(func() {
		_, _ = runMake(t, "clean")
	})

	output, err := runMake(t, "build")
	require.NoError(t, err, "make build failed: %s", output)

	binPath := filepath.Join(root, "dist", "specsync")
	info, err := os.Stat(binPath)
	require.NoError(t, err, "binary not found at dist/specsync after make build")
	assert.Greater(t, info.Size(), int64(0), "binary must not be empty")
}

func TestMakeBuild_StampsVersion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping make build test in short mode")
	}

	root := projectRoot(t)

	_, _ = runMake(t, "clean")
	t.Cleanup(func() {
		_, _ = runMake(t, "clean")
	})

	output, err := runMake(t, "build")
	require.NoError(t, err, "make build failed: %s", output)

	// The stamped binary reports the ldflags-injected values instead of the
	// plain-build defaults.
	out, err := exec.Command(filepath.Join(root, "dist", "specsync"), "version").CombinedOutput()
	require.NoError(t, err, "specsync version failed: %s", string(out))

	got := strings.TrimSpace(string(out))
	assert.True(t, strings.HasPrefix(got, "specsync v"), "unexpected version line: %q", got)
	assert.NotContains(t, got, "built: unknown", "make build must stamp the build date")

	// Inside a git checkout the commit field carries HEAD's short hash.
	if commit, gitErr := exec.Command("git", "-C", root, "rev-parse", "--short", "HEAD").Output(); gitErr == nil {
		assert.Contains(t, got, strings.TrimSpace(string(commit)),
			"version output must carry the injected commit hash")
	}
}

func TestMakeBuildDebug_ProducesBinary(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping make build-debug test in short mode")
	}

	root := projectRoot(t)

	_, _ = runMake(t, "clean")
	t.Cleanup(func() {
		_, _ = runMake(t, "clean")
	})

	output, err := runMake(t, "build-debug")
	require.NoError(t, err, "make build-debug failed: %s", output)

	debugBinPath := filepath.Join(root, "dist", "specsync-debug")
	info, err := os.Stat(debugBinPath)
	require.NoError(t, err, "debug binary not found at dist/specsync-debug after make build-debug")
	assert.Greater(t, info.Size(), int64(0), "debug binary must not be empty")
}

func TestMakeClean_RemovesDist(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping make clean test in short mode")
	}

	root := projectRoot(t)

	// Build first so dist/ exists.
	output, err := runMake(t, "build")
	require.NoError(t, err, "make build failed: %s", output)

	distDir := filepath.Join(root, "dist")
	_, err = os.Stat(distDir)
	require.NoError(t, err, "dist/ should exist after make build")

	output, err = runMake(t, "clean")
	require.NoError(t, err, "make clean failed: %s", output)

	_, err = os.Stat(distDir)
	assert.True(t, os.IsNotExist(err),
		"dist/ directory should be removed after make clean")
}
