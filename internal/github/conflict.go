package github

import (
	"context"
	"fmt"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/tracker"
)

// ResolveConflict produces the canonical document for a detected conflict.
// Nothing is pushed or written here; the engine persists and re-pushes the
// result.
//
//   - manual surfaces the conflict as an error.
//   - ours declares the local document canonical.
//   - theirs overwrites local content from the remote, keeping local-only
//     files and local configuration (auto_sync, other tracker blocks).
//   - interactive reports INTERACTIVE_UNAVAILABLE; prompting is the
//     caller's job.
func (a *Adapter) ResolveConflict(ctx context.Context, local, remote *spec.Document, strategy tracker.ConflictStrategy) (*spec.Document, error) {
	switch strategy {
	case tracker.StrategyManual:
		return nil, tracker.ErrSyncConflict(local.Name, nil)
	case tracker.StrategyOurs:
		return local, nil
	case tracker.StrategyTheirs:
		return mergeTheirs(local, remote), nil
	case tracker.StrategyInteractive:
		return nil, tracker.ErrInteractiveUnavailable()
	default:
		return nil, fmt.Errorf("github: unknown conflict strategy %q", strategy)
	}
}

// mergeTheirs builds the theirs-resolved document: every file present
// remotely takes the remote content, files that exist only locally are kept
// as they are, and the document keeps its local name and path so writeback
// lands in the right directory.
func mergeTheirs(local, remote *spec.Document) *spec.Document {
	merged := &spec.Document{
		Name:        local.Name,
		Path:        local.Path,
		IssueNumber: local.IssueNumber,
		Files:       make(map[string]*spec.File, len(local.Files)),
	}
	for name, f := range local.Files {
		merged.Files[name] = f
	}
	for name, rf := range remote.Files {
		lf := local.Files[name]
		if lf == nil {
			merged.Files[name] = rf
			continue
		}
		merged.Files[name] = overlayRemote(lf, rf)
	}
	return merged
}

// overlayRemote replaces a local file's content and identity with the
// remote's while keeping the local path, scan fingerprint, and front-matter
// keys the remote knows nothing about.
func overlayRemote(local, remote *spec.File) *spec.File {
	fm := cloneFrontmatter(local.Frontmatter)
	if rfm := remote.Frontmatter; rfm != nil {
		if rfm.SpecID != "" {
			fm.SpecID = rfm.SpecID
		}
		fm.SyncHash = rfm.SyncHash
		fm.LastSync = rfm.LastSync
		fm.SyncStatus = rfm.SyncStatus
		fm.IssueType = rfm.IssueType
		if rfm.GitHub != nil {
			gh := fm.EnsureGitHub()
			gh.IssueNumber = rfm.GitHub.IssueNumber
			gh.UpdatedAt = rfm.GitHub.UpdatedAt
			if rfm.GitHub.ParentIssue != nil {
				parent := *rfm.GitHub.ParentIssue
				gh.ParentIssue = &parent
			}
		}
	}
	return &spec.File{
		Path:        local.Path,
		Filename:    local.Filename,
		Content:     local.Content,
		Fingerprint: local.Fingerprint,
		Frontmatter: fm,
		Markdown:    remote.Markdown,
	}
}

// cloneFrontmatter copies a front-matter deeply enough that mutating the
// clone never changes the scanned document.
func cloneFrontmatter(fm *spec.Frontmatter) *spec.Frontmatter {
	if fm == nil {
		return &spec.Frontmatter{}
	}
	out := *fm
	out.GitHub = cloneTrackerBlock(fm.GitHub)
	out.Jira = cloneTrackerBlock(fm.Jira)
	out.Asana = cloneTrackerBlock(fm.Asana)
	if fm.AutoSync != nil {
		v := *fm.AutoSync
		out.AutoSync = &v
	}
	return &out
}

func cloneTrackerBlock(b *spec.TrackerBlock) *spec.TrackerBlock {
	if b == nil {
		return nil
	}
	out := *b
	if b.ParentIssue != nil {
		v := *b.ParentIssue
		out.ParentIssue = &v
	}
	out.Labels = append([]string(nil), b.Labels...)
	out.Assignees = append([]string(nil), b.Assignees...)
	out.Extra = append([]spec.ExtraField(nil), b.Extra...)
	return &out
}
