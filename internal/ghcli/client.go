// Package ghcli wraps the external tracker CLI (`gh` or any compatible
// binary) behind a typed client.
//
// Every call builds a flat argument list (no shell interpolation), writes
// multi-line bodies to fresh temp files that are removed on every exit path,
// enforces a per-call timeout, and retries once with a fresh subprocess when
// the failure looks transient. JSON output is parsed leniently through
// internal/jsonutil so wrapper scripts and extensions that add noise around
// the payload still work.
package ghcli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/logging"
)

var logger = logging.New("ghcli")

const (
	// defaultCallTimeout bounds one mutation or probe subprocess.
	defaultCallTimeout = 30 * time.Second

	// defaultPullTimeout bounds one fetch subprocess; issue bodies can be
	// large and list calls page server-side.
	defaultPullTimeout = 60 * time.Second

	// retryInterval is the pause before the single transient-failure retry.
	retryInterval = 500 * time.Millisecond

	// maxRetries is the number of retries after the first attempt.
	maxRetries = 1
)

// ErrNotFound marks "no such issue" responses so callers can distinguish a
// missing remote from a transport failure.
var ErrNotFound = errors.New("not found")

// ErrSubIssuesUnavailable marks a missing sub-issue linking extension. The
// adapter downgrades it to a warning; the created subtask issue still exists.
var ErrSubIssuesUnavailable = errors.New("sub-issue command unavailable")

// transientSignals are stderr/error substrings that indicate a failure worth
// one retry with a fresh subprocess.
var transientSignals = []string{
	"connection refused",
	"connection reset",
	"timed out",
	"timeout",
	"temporarily unavailable",
	"could not resolve host",
	"network is unreachable",
	"tls handshake",
	"unexpected eof",
	"http 502",
	"http 503",
	"http 504",
}

// Options configures a Client.
type Options struct {
	// Binary is the tracker CLI to invoke. Defaults to DefaultBinary.
	Binary string
	// Dir is the working directory for invocations.
	Dir string
	// CallTimeout bounds mutation and probe calls. Defaults to 30s.
	CallTimeout time.Duration
	// PullTimeout bounds fetch calls. Defaults to 60s.
	PullTimeout time.Duration
	// Runner overrides subprocess execution; Binary and Dir are ignored
	// when set. Tests script this.
	Runner Runner
}

// Client is a typed facade over the tracker CLI. It is safe for concurrent
// use; the repository coordinate is set once and read by every call.
type Client struct {
	runner      Runner
	callTimeout time.Duration
	pullTimeout time.Duration

	mu    sync.Mutex
	owner string
	repo  string
}

// NewClient creates a Client from options.
func NewClient(opts Options) *Client {
	runner := opts.Runner
	if runner == nil {
		runner = &ExecRunner{Binary: opts.Binary, Dir: opts.Dir}
	}
	callTimeout := opts.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	pullTimeout := opts.PullTimeout
	if pullTimeout <= 0 {
		pullTimeout = defaultPullTimeout
	}
	return &Client{
		runner:      runner,
		callTimeout: callTimeout,
		pullTimeout: pullTimeout,
	}
}

// SetRepo pins the repository coordinate appended to issue, label, and
// sub-issue calls. Empty values clear it.
func (c *Client) SetRepo(owner, repo string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owner, c.repo = owner, repo
}

// RepoCoordinate returns the pinned owner/repo pair; ok is false when none
// is set.
func (c *Client) RepoCoordinate() (owner, repo string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner, c.repo, c.owner != "" && c.repo != ""
}

// withRepo appends the configured --repo flag to an argument list.
func (c *Client) withRepo(args []string) []string {
	owner, repo, ok := c.RepoCoordinate()
	if !ok {
		return args
	}
	return append(args, "--repo", owner+"/"+repo)
}

// run executes one CLI call under the given timeout, retrying once with a
// fresh subprocess when the failure is transient. The parent context
// cancels both attempts.
func (c *Client) run(ctx context.Context, timeout time.Duration, args ...string) (string, error) {
	var stdout string

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), maxRetries), ctx)

	err := backoff.Retry(func() error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		logger.Debug("running tracker CLI", "args", strings.Join(args, " "))
		_, out, stderr, err := c.runner.Run(callCtx, args...)
		if err == nil {
			stdout = out
			return nil
		}
		if c.transient(ctx, callCtx, stderr, err) {
			logger.Debug("transient tracker CLI failure, retrying",
				"cmd", commandName(args), "err", err)
			return err
		}
		return backoff.Permanent(err)
	}, bo)

	return stdout, err
}

// transient reports whether a failed call should be retried: the parent
// context is still live and either the per-call deadline fired or the error
// text names a known transient condition.
func (c *Client) transient(parent, call context.Context, stderr string, err error) bool {
	if parent.Err() != nil {
		return false
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) {
		return true
	}
	text := strings.ToLower(stderr + " " + err.Error())
	for _, sig := range transientSignals {
		if strings.Contains(text, sig) {
			return true
		}
	}
	return false
}

// writeBodyFile writes body to a fresh temp file with owner-only permissions
// and returns its path. The caller removes it on every exit path.
func writeBodyFile(body string) (string, error) {
	f, err := os.CreateTemp("", "specsync-body-*.md")
	if err != nil {
		return "", fmt.Errorf("ghcli: creating body temp file: %w", err)
	}
	if err := f.Chmod(0600); err != nil {
		f.Close()           //nolint:errcheck
		os.Remove(f.Name()) //nolint:errcheck
		return "", fmt.Errorf("ghcli: setting body temp file permissions: %w", err)
	}
	if _, err := f.WriteString(body); err != nil {
		f.Close()           //nolint:errcheck
		os.Remove(f.Name()) //nolint:errcheck
		return "", fmt.Errorf("ghcli: writing body temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name()) //nolint:errcheck
		return "", fmt.Errorf("ghcli: closing body temp file: %w", err)
	}
	return f.Name(), nil
}

// lastNonEmptyLine returns the last non-empty line of CLI output, which is
// conventionally the URL of a created resource.
func lastNonEmptyLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// commandName condenses an argument list to its leading subcommand words for
// logging.
func commandName(args []string) string {
	if len(args) > 2 {
		args = args[:2]
	}
	return strings.Join(args, " ")
}

// isNotFound reports whether err's text carries a "no such issue" signal.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "could not resolve to an issue") ||
		strings.Contains(text, "no issues matched") ||
		strings.Contains(text, "http 404") ||
		strings.Contains(text, "not found")
}

// isUnknownCommand reports whether err's text indicates the invoked
// subcommand does not exist (a missing extension).
func isUnknownCommand(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "unknown command") ||
		strings.Contains(text, "no such extension")
}
