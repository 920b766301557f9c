package e2e_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	t.Parallel()

	tp := newTestProject(t)
	out := tp.runExpectSuccess("version")
	assert.Contains(t, out, "specsync v")
}

func TestVersionCommandJSON(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	t.Parallel()

	tp := newTestProject(t)
	out := tp.runExpectSuccess("version", "--json")
	assert.Contains(t, out, `"version"`)
}

func TestNoArgsPrintsBanner(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	t.Parallel()

	tp := newTestProject(t)
	out := tp.runExpectSuccess()
	assert.Equal(t, "specsync - keep spec documents and tracker issues in lockstep", strings.TrimSpace(out))
}

func TestHelpListsCommands(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	t.Parallel()

	tp := newTestProject(t)
	out := tp.runExpectSuccess("--help")
	assert.Contains(t, out, "Usage:")
	for _, sub := range []string{"sync", "status", "pull", "config", "version", "completion"} {
		assert.Contains(t, out, sub)
	}
}

func TestConfigShowsResolvedValues(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	t.Parallel()

	tp := newTestProject(t)
	tp.writeConfig(minimalConfig())

	out := tp.runExpectSuccess("config")
	assert.Contains(t, out, "Resolved Configuration")
	assert.Contains(t, out, "specsync.yaml")
	assert.Contains(t, out, "(source: file)")
	assert.Contains(t, out, `"acme"`)
	assert.Contains(t, out, `"demo"`)
}

func TestConfigValidateClean(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	t.Parallel()

	tp := newTestProject(t)
	tp.writeConfig(minimalConfig())
	require.NoError(t, os.MkdirAll(filepath.Join(tp.Dir, "specs"), 0o755))

	out := tp.runExpectSuccess("config", "--validate")
	assert.Contains(t, out, "Configuration Validation")
	assert.Contains(t, out, "No issues found.")
}

func TestConfigValidateReportsErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	t.Parallel()

	tp := newTestProject(t)
	tp.writeConfig(`platform: github
conflict_strategy: merge
specs_root: specs
github:
  owner: acme
  repo: demo
  auth: cli
`)

	out, code := tp.runExpectFailure("config", "--validate")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Errors:")
	assert.Contains(t, out, "conflict_strategy")
	assert.Contains(t, out, "unrecognized strategy")
}

func TestConfigMissingFileFallsBackToDefaults(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	t.Parallel()

	tp := newTestProject(t)

	out := tp.runExpectSuccess("config")
	assert.Contains(t, out, "Config file: none found")
	assert.Contains(t, out, "(source: default)")
	assert.Contains(t, out, `"github"`)
}

func TestEnvOverridesSpecsRoot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	t.Parallel()

	tp := newTestProject(t)
	tp.writeConfig(minimalConfig())

	// The spec lives outside the configured root; the env var points there.
	dir := filepath.Join(tp.Dir, "alt-specs", "001-demo-widget")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.md"), []byte(sampleSpecMarkdown("Demo Widget")), 0o644))

	cmd := tp.run("status")
	cmd.Env = append(cmd.Env, "SPECSYNC_SPECS_ROOT=alt-specs")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "specsync status failed:\n%s", string(out))
	assert.Contains(t, string(out), "001-demo-widget")
}

func TestDirFlagChangesWorkingDirectory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	t.Parallel()

	tp := newTestProject(t)
	proj := filepath.Join(tp.Dir, "proj")
	require.NoError(t, os.MkdirAll(proj, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(proj, "specsync.yaml"), []byte(minimalConfig()), 0o644))

	out := tp.runExpectSuccess("--dir", "proj", "config")
	assert.Contains(t, out, "(source: file)")
	assert.Contains(t, out, `"acme"`)
}

func TestCompletionBash(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	t.Parallel()

	tp := newTestProject(t)
	out := tp.runExpectSuccess("completion", "bash")
	assert.Contains(t, out, "specsync")
}
