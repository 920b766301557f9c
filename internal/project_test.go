package internal_test

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectRoot returns the absolute path to the project root directory.
// It walks up from the current file's directory until it finds go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()

	// Start from the working directory (tests run from the package directory).
	dir, err := os.Getwd()
	require.NoError(t, err, "failed to get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (no go.mod found in any parent directory)")
		}
		dir = parent
	}
}

// readFileContent reads a file and returns its content as a string.
func readFileContent(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)
	return string(data)
}

// internalPackages lists every expected internal subpackage.
var internalPackages = []string{
	"buildinfo", "cli", "config", "engine", "ghcli", "git",
	"github", "jsonutil", "logging", "mapper", "spec", "tracker",
}

func TestInternalSubpackages_Exist(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)

	for _, pkg := range internalPackages {
		t.Run(pkg, func(t *testing.T) {
			t.Parallel()

			pkgDir := filepath.Join(root, "internal", pkg)

			// Verify directory exists.
			info, err := os.Stat(pkgDir)
			require.NoError(t, err, "internal/%s directory does not exist", pkg)
			assert.True(t, info.IsDir(), "internal/%s is not a directory", pkg)

			// Verify at least one Go file declares the package.
			entries, err := os.ReadDir(pkgDir)
			require.NoError(t, err)
			found := false
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") {
					continue
				}
				content := readFileContent(t, filepath.Join(pkgDir, entry.Name()))
				if strings.Contains(content, "package "+pkg) {
					found = true
					break
				}
			}
			assert.True(t, found, "internal/%s has no Go file declaring package %s", pkg, pkg)
		})
	}
}

func TestInternalSubpackages_Count(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	internalDir := filepath.Join(root, "internal")

	entries, err := os.ReadDir(internalDir)
	require.NoError(t, err, "failed to read internal/ directory")

	// Count only directories (exclude files like project_test.go).
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}

	assert.Len(t, dirs, len(internalPackages),
		"expected exactly %d internal subpackages, got: %v", len(internalPackages), dirs)
}

func TestInternalSubpackages_HaveDocComment(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)

	for _, pkg := range internalPackages {
		t.Run(pkg, func(t *testing.T) {
			t.Parallel()

			pkgDir := filepath.Join(root, "internal", pkg)
			entries, err := os.ReadDir(pkgDir)
			require.NoError(t, err)

			// Some Go file in the package carries the package doc comment.
			expectedComment := "// Package " + pkg
			found := false
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") || strings.HasSuffix(entry.Name(), "_test.go") {
					continue
				}
				content := readFileContent(t, filepath.Join(pkgDir, entry.Name()))
				if strings.Contains(content, expectedComment) {
					found = true
					break
				}
			}
			assert.True(t, found,
				"internal/%s should have a doc comment starting with %q", pkg, expectedComment)
		})
	}
}

func TestGoMod_Exists(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	goModPath := filepath.Join(root, "go.mod")

	_, err := os.Stat(goModPath)
	require.NoError(t, err, "go.mod does not exist at project root")
}

func TestGoMod_ModulePath(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	content := readFileContent(t, filepath.Join(root, "go.mod"))

	assert.Contains(t, content, "module github.com/amondnet/spec-kit-sdk-sub001",
		"go.mod must declare module path as github.com/amondnet/spec-kit-sdk-sub001")
}

func TestGoMod_GoDirective(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	content := readFileContent(t, filepath.Join(root, "go.mod"))

	// The go directive should specify 1.24 or higher.
	// It may be "go 1.24", "go 1.24.0", "go 1.24.2", etc.
	assert.Contains(t, content, "go 1.24",
		"go.mod must have a Go 1.24+ directive")
}

func TestGoMod_DirectDependencies(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	content := readFileContent(t, filepath.Join(root, "go.mod"))

	expectedDeps := []struct {
		name       string
		modulePath string
	}{
		{name: "cobra", modulePath: "github.com/spf13/cobra"},
		{name: "pflag", modulePath: "github.com/spf13/pflag"},
		{name: "lipgloss", modulePath: "github.com/charmbracelet/lipgloss"},
		{name: "bubbles", modulePath: "github.com/charmbracelet/bubbles"},
		{name: "huh", modulePath: "github.com/charmbracelet/huh"},
		{name: "log", modulePath: "github.com/charmbracelet/log"},
		{name: "toml", modulePath: "github.com/BurntSushi/toml"},
		{name: "yaml", modulePath: "gopkg.in/yaml.v3"},
		{name: "sync", modulePath: "golang.org/x/sync"},
		{name: "doublestar", modulePath: "github.com/bmatcuk/doublestar"},
		{name: "testify", modulePath: "github.com/stretchr/testify"},
		{name: "xxhash", modulePath: "github.com/cespare/xxhash"},
		{name: "uuid", modulePath: "github.com/google/uuid"},
		{name: "backoff", modulePath: "github.com/cenkalti/backoff"},
		{name: "termenv", modulePath: "github.com/muesli/termenv"},
	}

	for _, dep := range expectedDeps {
		t.Run(dep.name, func(t *testing.T) {
			t.Parallel()
			assert.Contains(t, content, dep.modulePath,
				"go.mod must declare direct dependency on %s (%s)", dep.name, dep.modulePath)
		})
	}
}

func TestGoMod_NoReplaceDirectives(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	content := readFileContent(t, filepath.Join(root, "go.mod"))

	assert.NotContains(t, content, "replace ",
		"go.mod must not contain replace directives")
}

func TestGoSum_Exists(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	goSumPath := filepath.Join(root, "go.sum")

	info, err := os.Stat(goSumPath)
	require.NoError(t, err, "go.sum does not exist at project root")
	assert.Greater(t, info.Size(), int64(0),
		"go.sum must not be empty (should contain dependency checksums)")
}

func TestGoSum_ContainsDependencyChecksums(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	content := readFileContent(t, filepath.Join(root, "go.sum"))

	// go.sum entries look like: module version h1:hash=
	// Verify some key direct dependencies have checksums.
	checksumDeps := []string{
		"github.com/spf13/cobra",
		"github.com/BurntSushi/toml",
		"github.com/stretchr/testify",
		"gopkg.in/yaml.v3",
	}

	for _, dep := range checksumDeps {
		assert.Contains(t, content, dep,
			"go.sum should contain checksums for %s", dep)
	}
}

func TestTestdata_MockTrackerCLIExists(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	mockPath := filepath.Join(root, "testdata", "mock-gh", "gh")

	info, err := os.Stat(mockPath)
	require.NoError(t, err, "testdata/mock-gh/gh does not exist")
	assert.False(t, info.IsDir(), "testdata/mock-gh/gh must be a file")
}

func TestSourceFiles_InitOnlyForCommandRegistration(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)

	// init() is reserved for cobra command registration in internal/cli;
	// every other package wires dependencies explicitly.
	for _, pkg := range internalPackages {
		if pkg == "cli" {
			continue
		}
		pkgDir := filepath.Join(root, "internal", pkg)
		entries, err := os.ReadDir(pkgDir)
		require.NoError(t, err)

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") || strings.HasSuffix(entry.Name(), "_test.go") {
				continue
			}
			content := readFileContent(t, filepath.Join(pkgDir, entry.Name()))
			assert.NotContains(t, content, "func init()",
				"internal/%s/%s must not contain init(); only cli registers commands that way", pkg, entry.Name())
		}
	}
}

func TestMainGo_Exists(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	mainPath := filepath.Join(root, "cmd", "specsync", "main.go")

	_, err := os.Stat(mainPath)
	require.NoError(t, err, "cmd/specsync/main.go does not exist")
}

func TestMainGo_PackageMain(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	content := readFileContent(t, filepath.Join(root, "cmd", "specsync", "main.go"))

	assert.Contains(t, content, "package main",
		"cmd/specsync/main.go must declare package main")
}

func TestMainGo_HasMainFunction(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	content := readFileContent(t, filepath.Join(root, "cmd", "specsync", "main.go"))

	assert.Contains(t, content, "func main()",
		"cmd/specsync/main.go must define a main function")
}

func TestProjectStructure_CmdSpecsyncDir(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	cmdDir := filepath.Join(root, "cmd", "specsync")

	info, err := os.Stat(cmdDir)
	require.NoError(t, err, "cmd/specsync/ directory does not exist")
	assert.True(t, info.IsDir(), "cmd/specsync/ is not a directory")
}

func TestProjectStructure_InternalDir(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	internalDir := filepath.Join(root, "internal")

	info, err := os.Stat(internalDir)
	require.NoError(t, err, "internal/ directory does not exist")
	assert.True(t, info.IsDir(), "internal/ is not a directory")
}

func TestGoMod_DependencyVersions(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)
	content := readFileContent(t, filepath.Join(root, "go.mod"))

	// Verify minimum version requirements.
	versionChecks := []struct {
		name       string
		dep        string
		minVersion string
	}{
		{name: "toml v1.5.0", dep: "github.com/BurntSushi/toml", minVersion: "v1.5.0"},
		{name: "cobra v1.10+", dep: "github.com/spf13/cobra", minVersion: "v1.10"},
		{name: "doublestar v4.10+", dep: "github.com/bmatcuk/doublestar/v4", minVersion: "v4.10"},
		{name: "sync v0.19+", dep: "golang.org/x/sync", minVersion: "v0.19"},
	}

	for _, vc := range versionChecks {
		t.Run(vc.name, func(t *testing.T) {
			t.Parallel()
			assert.Contains(t, content, vc.dep,
				"go.mod must contain dependency %s", vc.dep)
			// Extract the version line for this dependency.
			scanner := bufio.NewScanner(strings.NewReader(content))
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if strings.Contains(line, vc.dep) && !strings.HasPrefix(line, "//") {
					assert.Contains(t, line, vc.minVersion,
						"dependency %s must be at least version %s", vc.dep, vc.minVersion)
					break
				}
			}
		})
	}
}
