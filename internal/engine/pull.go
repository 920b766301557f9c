package engine

import (
	"context"
	"fmt"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/tracker"
)

// PullIssue materializes a remote issue and its subtasks as a local spec
// directory. When a directory already tracks the issue its files are
// overwritten in place; pending local edits there abort the pull unless
// force is set. Otherwise a fresh "NNN-name" directory is created under the
// spec root.
func (e *Engine) PullIssue(ctx context.Context, number int, force bool) (*spec.Document, error) {
	existing, err := e.scanner.FindSpecByIssueNumber(number)
	if err != nil {
		return nil, err
	}

	remote, err := e.adapter.Pull(ctx, tracker.RemoteRef{Number: number}, tracker.PullOptions{Subtasks: true})
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if err := adoptLocal(remote, existing, force); err != nil {
			return nil, err
		}
	} else {
		name := remote.Name
		if name == "" {
			name = "issue"
		}
		if spec.IssueNumberFromDir(name) == 0 {
			name = fmt.Sprintf("%03d-%s", number, name)
		}
		path, err := e.scanner.CreateSpecDirectory(name)
		if err != nil {
			return nil, err
		}
		remote.Name = name
		remote.Path = path
		logger.Info("created spec directory", "dir", path)
	}

	if err := e.writeResolvedFiles(remote); err != nil {
		return nil, err
	}
	logger.Info("pulled issue", "issue", number, "spec", remote.Name, "files", len(remote.Files))
	return remote, nil
}

// adoptLocal points the pulled document at an existing directory. Remote
// files overlapping scanned ones reuse their paths and scan fingerprints; a
// scanned file with unpushed edits stops the pull unless forced.
func adoptLocal(remote, existing *spec.Document, force bool) error {
	for name, rf := range remote.Files {
		lf, ok := existing.Files[name]
		if !ok {
			continue
		}
		if !force && lf.HasChanges() {
			return fmt.Errorf("engine: %s has local changes not yet pushed; pass force to overwrite", lf.Path)
		}
		rf.Path = lf.Path
		rf.Content = lf.Content
		rf.Fingerprint = lf.Fingerprint
	}
	remote.Name = existing.Name
	remote.Path = existing.Path
	remote.IssueNumber = existing.IssueNumber
	return nil
}
