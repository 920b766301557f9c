// Package git wraps the git CLI operations specsync needs. The sync engine
// never touches the working tree; this package only resolves the repository
// coordinate from the origin remote when configuration omits it and the
// tracker CLI cannot detect it itself.
package git

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
)

// Client wraps git CLI invocations. All methods use os/exec to call the git
// binary; nothing goes through a shell.
type Client struct {
	// WorkDir is the working directory for git commands.
	// If empty, commands run in the current directory.
	WorkDir string

	// GitBin is the path to the git binary. Defaults to "git".
	GitBin string
}

// NewClient creates a Client for the given working directory. The client is
// read-only, so no prerequisite check happens here; a missing binary or
// repository surfaces on the first call.
func NewClient(workDir string) *Client {
	return &Client{
		WorkDir: workDir,
		GitBin:  "git",
	}
}

// IsRepository reports whether the working directory is inside a git
// repository.
func (g *Client) IsRepository(ctx context.Context) bool {
	_, err := g.run(ctx, "rev-parse", "--git-dir")
	return err == nil
}

// OriginURL returns the URL of the origin remote.
func (g *Client) OriginURL(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "remote", "get-url", "origin")
	if err != nil {
		return "", fmt.Errorf("git: origin url: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// DetectRepo resolves the owner/repo coordinate from the origin remote.
func (g *Client) DetectRepo(ctx context.Context) (owner, repo string, err error) {
	raw, err := g.OriginURL(ctx)
	if err != nil {
		return "", "", err
	}
	return ParseRemoteURL(raw)
}

// ParseRemoteURL extracts the owner/repo pair from a git remote URL. It
// accepts https, ssh, and git scheme URLs as well as the scp-like
// git@host:owner/repo form, with or without a .git suffix. For hosts that
// nest repositories under extra path segments, the last two segments win.
func ParseRemoteURL(raw string) (owner, repo string, err error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")
	if s == "" {
		return "", "", fmt.Errorf("git: empty remote URL")
	}

	// scp-like form: git@host:owner/repo
	if !strings.Contains(s, "://") {
		colon := strings.Index(s, ":")
		if colon < 0 {
			return "", "", fmt.Errorf("git: unrecognized remote URL %q", raw)
		}
		return splitOwnerRepo(raw, s[colon+1:])
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", "", fmt.Errorf("git: unrecognized remote URL %q: %w", raw, err)
	}
	return splitOwnerRepo(raw, u.Path)
}

// splitOwnerRepo takes the path part of a remote URL and returns its final
// two segments.
func splitOwnerRepo(raw, path string) (string, string, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("git: remote URL %q has no owner/repo path", raw)
	}
	owner := parts[len(parts)-2]
	repo := parts[len(parts)-1]
	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("git: remote URL %q has no owner/repo path", raw)
	}
	return owner, repo, nil
}

// --- Internal helpers ---

// run executes a git command and returns stdout. stderr is included in the
// error message when the command fails.
func (g *Client) run(ctx context.Context, args ...string) (string, error) {
	bin := g.GitBin
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = g.WorkDir

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr := strings.TrimSpace(stderrBuf.String())
			return "", fmt.Errorf("exit status %d: %s", exitErr.ExitCode(), stderr)
		}
		// The binary could not be started at all.
		return "", err
	}
	return stdoutBuf.String(), nil
}
