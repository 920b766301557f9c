package ghcli

import (
	"context"
	"fmt"
	"strings"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/jsonutil"
)

// labelListLimit is the page cap on label listing; repositories with more
// labels than this simply re-create duplicates, which the tracker dedups.
const labelListLimit = 1000

// ListLabels returns every label in the repository, up to labelListLimit.
func (c *Client) ListLabels(ctx context.Context) ([]Label, error) {
	args := []string{"label", "list", "--limit", fmt.Sprintf("%d", labelListLimit), "--json", "name,color"}

	out, err := c.run(ctx, c.callTimeout, c.withRepo(args)...)
	if err != nil {
		return nil, fmt.Errorf("ghcli: label list: %w", err)
	}

	var labels []Label
	if err := jsonutil.ExtractInto(out, &labels); err != nil {
		return nil, fmt.Errorf("ghcli: label list: %w", err)
	}
	return labels, nil
}

// CreateLabel creates a repository label. An "already exists" response is
// success: concurrent provisioning races settle on the tracker side.
func (c *Client) CreateLabel(ctx context.Context, name, color, description string) error {
	args := []string{"label", "create", name, "--color", color}
	if description != "" {
		args = append(args, "--description", description)
	}

	if _, err := c.run(ctx, c.callTimeout, c.withRepo(args)...); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil
		}
		return fmt.Errorf("ghcli: label create %q: %w", name, err)
	}
	return nil
}
