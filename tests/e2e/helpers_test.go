package e2e_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Fixed spec_id values for seeded issues. Both are valid lowercase UUIDv4s
// so front-matter written from pulled bodies passes validation on rescan.
const (
	testSpecID    = "3f2a77b5-8c1e-4f0e-9d2a-5b6c7d8e9f01"
	testSubtaskID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
)

// testProject is an isolated working directory with a built specsync binary,
// a mock tracker CLI first on PATH, and the mock's own state directory.
type testProject struct {
	Dir        string
	BinaryPath string
	StateDir   string
	t          *testing.T
}

// newTestProject builds the specsync binary, installs the mock gh shim into
// a fresh temp directory, and returns a testProject ready for use. Must be
// called from a test function; uses t.Helper() to mark itself accordingly.
func newTestProject(t *testing.T) *testProject {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("E2E tests with a bash mock tracker CLI are not supported on Windows")
	}

	dir := t.TempDir()

	// Build the specsync binary into the temp dir.
	binary := filepath.Join(dir, "specsync")
	build := exec.Command("go", "build", "-o", binary, "./cmd/specsync")
	build.Dir = projectRoot()
	out, err := build.CombinedOutput()
	require.NoError(t, err, "building specsync: %s", string(out))

	// Install the mock tracker CLI and give it a state directory.
	mockDir := filepath.Join(dir, "mock-bin")
	copyMockGH(t, mockDir)
	stateDir := filepath.Join(dir, "gh-state")
	require.NoError(t, os.MkdirAll(stateDir, 0o755))

	return &testProject{Dir: dir, BinaryPath: binary, StateDir: stateDir, t: t}
}

// projectRoot returns the absolute path to the root of the repository. It
// uses runtime.Caller(0) to find this source file's location and navigates
// two directories up (tests/e2e/ -> tests/ -> repo root).
func projectRoot() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "..")
}

// copyMockGH copies the mock tracker CLI from testdata/mock-gh/ into destDir
// as an executable named gh.
func copyMockGH(t *testing.T, destDir string) {
	t.Helper()
	src := filepath.Join(projectRoot(), "testdata", "mock-gh", "gh")
	require.NoError(t, os.MkdirAll(destDir, 0o755))

	data, err := os.ReadFile(src)
	require.NoError(t, err, "reading mock gh shim")
	dst := filepath.Join(destDir, "gh")
	require.NoError(t, os.WriteFile(dst, data, 0o600))
	require.NoError(t, os.Chmod(dst, 0o755))
}

// writeConfig writes content to specsync.yaml in tp.Dir.
func (tp *testProject) writeConfig(content string) {
	tp.t.Helper()
	err := os.WriteFile(filepath.Join(tp.Dir, "specsync.yaml"), []byte(content), 0o644)
	require.NoError(tp.t, err)
}

// writeSpec writes a file into the spec directory specs/<dir>/<filename>,
// creating parents as needed.
func (tp *testProject) writeSpec(dir, filename, content string) {
	tp.t.Helper()
	path := tp.specPath(dir, filename)
	require.NoError(tp.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(tp.t, os.WriteFile(path, []byte(content), 0o644))
}

// specPath returns the on-disk path of specs/<dir>/<filename>.
func (tp *testProject) specPath(dir, filename string) string {
	return filepath.Join(tp.Dir, "specs", dir, filepath.FromSlash(filename))
}

// readSpec returns the content of specs/<dir>/<filename>.
func (tp *testProject) readSpec(dir, filename string) string {
	tp.t.Helper()
	data, err := os.ReadFile(tp.specPath(dir, filename))
	require.NoError(tp.t, err)
	return string(data)
}

// run creates an exec.Cmd for specsync with the mock tracker CLI prepended
// to PATH and its state directory exported.
func (tp *testProject) run(args ...string) *exec.Cmd {
	cmd := exec.Command(tp.BinaryPath, args...)
	cmd.Dir = tp.Dir
	mockPath := filepath.Join(tp.Dir, "mock-bin")
	cmd.Env = append(os.Environ(),
		"PATH="+mockPath+string(os.PathListSeparator)+os.Getenv("PATH"),
		"NO_COLOR=1", // disable ANSI color in output
		"GH_MOCK_STATE="+tp.StateDir,
	)
	return cmd
}

// runExpectSuccess runs specsync and asserts exit code 0.
// Returns combined stdout+stderr output.
func (tp *testProject) runExpectSuccess(args ...string) string {
	tp.t.Helper()
	cmd := tp.run(args...)
	out, err := cmd.CombinedOutput()
	require.NoError(tp.t, err, "specsync %v failed:\n%s", args, string(out))
	return string(out)
}

// runExpectFailure runs specsync and asserts a non-zero exit code.
// Returns combined output and the exit code.
func (tp *testProject) runExpectFailure(args ...string) (string, int) {
	tp.t.Helper()
	cmd := tp.run(args...)
	out, err := cmd.CombinedOutput()
	require.Error(tp.t, err, "specsync %v expected to fail but succeeded:\n%s", args, string(out))
	var exitErr *exec.ExitError
	require.True(tp.t, errors.As(err, &exitErr), "expected *exec.ExitError, got %T: %v", err, err)
	return string(out), exitErr.ExitCode()
}

// runStdout runs specsync, asserts exit code 0, and returns stdout alone so
// JSON output can be parsed without log lines mixed in.
func (tp *testProject) runStdout(args ...string) string {
	tp.t.Helper()
	cmd := tp.run(args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	require.NoError(tp.t, err, "specsync %v failed:\nstdout: %s\nstderr: %s", args, stdout.String(), stderr.String())
	return stdout.String()
}

// ---- mock tracker state ----------------------------------------------------

// statePath returns the path of one mock-state file.
func (tp *testProject) statePath(name string) string {
	return filepath.Join(tp.StateDir, name)
}

// seedIssue plants an issue directly into the mock tracker.
func (tp *testProject) seedIssue(n int, title, body string) {
	tp.t.Helper()
	prefix := "issue-" + strconv.Itoa(n)
	require.NoError(tp.t, os.WriteFile(tp.statePath(prefix+".title"), []byte(title), 0o644))
	require.NoError(tp.t, os.WriteFile(tp.statePath(prefix+".body"), []byte(body), 0o644))
	require.NoError(tp.t, os.WriteFile(tp.statePath(prefix+".state"), []byte("OPEN\n"), 0o644))
	stamp := time.Now().UTC().Format(time.RFC3339)
	require.NoError(tp.t, os.WriteFile(tp.statePath(prefix+".updated"), []byte(stamp+"\n"), 0o644))
}

// linkSubIssue records child as a sub-issue of parent in the mock tracker.
func (tp *testProject) linkSubIssue(parent, child int) {
	tp.t.Helper()
	f, err := os.OpenFile(tp.statePath("sub-"+strconv.Itoa(parent)), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(tp.t, err)
	defer f.Close() //nolint:errcheck
	_, err = fmt.Fprintf(f, "%d\n", child)
	require.NoError(tp.t, err)
}

// issueExists reports whether the mock tracker holds issue n.
func (tp *testProject) issueExists(n int) bool {
	_, err := os.Stat(tp.statePath("issue-" + strconv.Itoa(n) + ".title"))
	return err == nil
}

// issueTitle returns issue n's title as stored in the mock tracker.
func (tp *testProject) issueTitle(n int) string {
	tp.t.Helper()
	data, err := os.ReadFile(tp.statePath("issue-" + strconv.Itoa(n) + ".title"))
	require.NoError(tp.t, err)
	return string(data)
}

// issueBody returns issue n's body as stored in the mock tracker.
func (tp *testProject) issueBody(n int) string {
	tp.t.Helper()
	data, err := os.ReadFile(tp.statePath("issue-" + strconv.Itoa(n) + ".body"))
	require.NoError(tp.t, err)
	return string(data)
}

// touchRemote simulates a remote-side edit: issue n's updatedAt moves an
// hour into the future, and when body is non-empty it replaces the stored
// body.
func (tp *testProject) touchRemote(n int, body string) {
	tp.t.Helper()
	prefix := "issue-" + strconv.Itoa(n)
	stamp := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	require.NoError(tp.t, os.WriteFile(tp.statePath(prefix+".updated"), []byte(stamp+"\n"), 0o644))
	if body != "" {
		require.NoError(tp.t, os.WriteFile(tp.statePath(prefix+".body"), []byte(body), 0o644))
	}
}

// failAuth makes the mock tracker report an unauthenticated CLI.
func (tp *testProject) failAuth() {
	tp.t.Helper()
	require.NoError(tp.t, os.WriteFile(tp.statePath("auth-fail"), []byte(""), 0o644))
}

// failOnce makes the next mock tracker call fail with a transient error.
func (tp *testProject) failOnce() {
	tp.t.Helper()
	require.NoError(tp.t, os.WriteFile(tp.statePath("fail-once"), []byte(""), 0o644))
}

// disableSubIssues makes the mock tracker report sub-issue commands as
// unknown, simulating a CLI without the extension installed.
func (tp *testProject) disableSubIssues() {
	tp.t.Helper()
	require.NoError(tp.t, os.WriteFile(tp.statePath("no-subissues"), []byte(""), 0o644))
}

// trackerCalls returns every mock tracker invocation so far, one per line.
func (tp *testProject) trackerCalls() string {
	tp.t.Helper()
	data, err := os.ReadFile(tp.statePath("calls.log"))
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(tp.t, err)
	return string(data)
}

// ---- fixtures ---------------------------------------------------------------

// minimalConfig returns a specsync.yaml that pins the repository coordinate
// so the adapter never needs to detect it.
func minimalConfig() string {
	return `platform: github
specs_root: specs
github:
  owner: acme
  repo: demo
  auth: cli
`
}

// sampleSpecMarkdown returns spec.md markdown content without front-matter.
func sampleSpecMarkdown(feature string) string {
	return fmt.Sprintf(`# %s

## Summary
End-to-end fixture spec for %s.

## Acceptance Criteria
- [ ] %s works
`, feature, feature, feature)
}

// markerBody builds an issue body the way specsync generates them: the
// identity marker, a blank line, and the markdown.
func markerBody(specID, markdown string) string {
	return fmt.Sprintf("<!-- spec_id: %s -->\n\n%s", specID, markdown)
}
