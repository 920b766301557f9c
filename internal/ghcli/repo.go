package ghcli

import (
	"context"
	"fmt"
	"strings"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/jsonutil"
)

// DetectRepo resolves the owner/name coordinate of the repository the CLI
// currently points at via `repo view`. The flat coordinate flags are not
// appended here; detection is only meaningful without them.
func (c *Client) DetectRepo(ctx context.Context) (owner, name string, err error) {
	out, err := c.run(ctx, c.callTimeout, "repo", "view", "--json", "name,owner")
	if err != nil {
		return "", "", fmt.Errorf("ghcli: repo view: %w", err)
	}

	var repo Repo
	if err := jsonutil.ExtractInto(out, &repo); err != nil {
		return "", "", fmt.Errorf("ghcli: repo view: %w", err)
	}
	if repo.Owner.Login == "" || repo.Name == "" {
		return "", "", fmt.Errorf("ghcli: repo view: incomplete coordinate in %q", strings.TrimSpace(out))
	}
	return repo.Owner.Login, repo.Name, nil
}

// AuthStatus probes credentials. Exit 0 means authenticated; any failure is
// returned as-is for the caller to classify.
func (c *Client) AuthStatus(ctx context.Context) error {
	if _, err := c.run(ctx, c.callTimeout, "auth", "status"); err != nil {
		return fmt.Errorf("ghcli: auth status: %w", err)
	}
	return nil
}
