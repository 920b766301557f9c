package git

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepo initialises a temporary git repository with the given origin
// remote and returns a Client pointing at it.
func newTestRepo(t *testing.T, originURL string) *Client {
	t.Helper()
	dir := t.TempDir()

	mustRun(t, dir, "git", "init", "-b", "main")
	if originURL != "" {
		mustRun(t, dir, "git", "remote", "add", "origin", originURL)
	}
	return NewClient(dir)
}

func mustRun(t *testing.T, dir, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "command failed: %s %v\n%s", name, args, out)
}

func TestParseRemoteURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"https", "https://github.com/acme/specs", "acme", "specs", false},
		{"https with .git", "https://github.com/acme/specs.git", "acme", "specs", false},
		{"https trailing slash", "https://github.com/acme/specs/", "acme", "specs", false},
		{"scp-like ssh", "git@github.com:acme/specs.git", "acme", "specs", false},
		{"ssh scheme", "ssh://git@github.com/acme/specs.git", "acme", "specs", false},
		{"git scheme", "git://github.com/acme/specs.git", "acme", "specs", false},
		{"nested enterprise path", "https://git.corp.example/team/acme/specs.git", "acme", "specs", false},
		{"no path", "https://github.com", "", "", true},
		{"owner only", "https://github.com/acme", "", "", true},
		{"empty", "", "", "", true},
		{"garbage", "not a url at all", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			owner, repo, err := ParseRemoteURL(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}

func TestDetectRepo(t *testing.T) {
	c := newTestRepo(t, "git@github.com:acme/specs.git")

	owner, repo, err := c.DetectRepo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "specs", repo)
}

func TestDetectRepo_NoOrigin(t *testing.T) {
	c := newTestRepo(t, "")

	_, _, err := c.DetectRepo(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "origin")
}

func TestIsRepository(t *testing.T) {
	c := newTestRepo(t, "")
	assert.True(t, c.IsRepository(context.Background()))

	outside := NewClient(t.TempDir())
	assert.False(t, outside.IsRepository(context.Background()))
}

func TestOriginURL(t *testing.T) {
	c := newTestRepo(t, "https://github.com/acme/specs.git")

	url, err := c.OriginURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/specs.git", url)
}
