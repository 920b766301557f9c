package ghcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultBinary is the tracker CLI invoked when none is configured. Any
// binary honoring the same subcommand contract can substitute for it.
const DefaultBinary = "gh"

// Runner executes one tracker-CLI invocation and reports its exit code and
// captured output. exitCode is -1 when the binary could not be started.
// Implementations must pass args as a structured list, never through a
// shell.
type Runner interface {
	Run(ctx context.Context, args ...string) (exitCode int, stdout, stderr string, err error)
}

// ExecRunner invokes the real binary via os/exec. The zero value runs
// DefaultBinary in the inherited working directory. Context cancellation
// kills the in-flight subprocess.
type ExecRunner struct {
	// Binary is the tracker CLI to invoke. Defaults to DefaultBinary.
	Binary string
	// Dir is the working directory for invocations. Empty inherits the
	// process working directory.
	Dir string
}

// Compile-time check that ExecRunner implements Runner.
var _ Runner = (*ExecRunner)(nil)

// Run executes the binary with the given arguments. A non-zero exit status
// is returned as an error carrying the trimmed stderr text.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (int, string, string, error) {
	bin := r.Binary
	if bin == "" {
		bin = DefaultBinary
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	runErr := cmd.Run()
	if runErr == nil {
		return 0, stdoutBuf.String(), stderrBuf.String(), nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		code := exitErr.ExitCode()
		stderr := strings.TrimSpace(stderrBuf.String())
		return code, stdoutBuf.String(), stderr, fmt.Errorf("%s exited %d: %s", bin, code, stderr)
	}

	// The binary itself could not be started.
	return -1, "", "", fmt.Errorf("starting %s: %w", bin, runErr)
}
