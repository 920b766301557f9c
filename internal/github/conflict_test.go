package github

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/tracker"
)

func TestResolveConflict_ManualSurfacesError(t *testing.T) {
	t.Parallel()

	a := New(Options{})
	local := specDoc("001-add-auth", nil, specMarkdown)

	_, err := a.ResolveConflict(context.Background(), local, local, tracker.StrategyManual)
	require.Error(t, err)
	assert.True(t, tracker.IsCode(err, tracker.CodeSyncConflict))
}

func TestResolveConflict_OursKeepsLocal(t *testing.T) {
	t.Parallel()

	a := New(Options{})
	local := specDoc("001-add-auth", nil, specMarkdown)
	remote := specDoc("001-add-auth", nil, "# Different\n")

	resolved, err := a.ResolveConflict(context.Background(), local, remote, tracker.StrategyOurs)
	require.NoError(t, err)
	assert.Same(t, local, resolved)
}

func TestResolveConflict_InteractiveUnavailable(t *testing.T) {
	t.Parallel()

	a := New(Options{})
	local := specDoc("001-add-auth", nil, specMarkdown)

	_, err := a.ResolveConflict(context.Background(), local, local, tracker.StrategyInteractive)
	require.Error(t, err)
	assert.True(t, tracker.IsCode(err, tracker.CodeInteractiveUnavailable))
}

func TestResolveConflict_UnknownStrategy(t *testing.T) {
	t.Parallel()

	a := New(Options{})
	local := specDoc("001-add-auth", nil, specMarkdown)

	_, err := a.ResolveConflict(context.Background(), local, local, tracker.ConflictStrategy("wat"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown conflict strategy")
}

func TestResolveConflict_TheirsMergesRemote(t *testing.T) {
	t.Parallel()

	a := New(Options{})

	autoOff := false
	localFM := &spec.Frontmatter{
		SpecID:   testUUID,
		SyncHash: "000000000000",
		AutoSync: &autoOff,
		Jira:     &spec.TrackerBlock{IssueNumber: 991},
	}
	localFM.EnsureGitHub().IssueNumber = 7
	local := specDoc("001-add-auth", localFM, "# Add Auth\n\nLocal edits.\n")
	addFile(local, spec.FileResearch, nil, "# Research\n\nLocal only.\n")

	remoteMarkdown := "# Add Auth\n\nRemote truth.\n"
	remoteFM := &spec.Frontmatter{
		SpecID:     testUUID,
		SyncHash:   spec.SyncHash(remoteMarkdown),
		LastSync:   testNow,
		SyncStatus: spec.StatusSynced,
		IssueType:  spec.TypeParent,
	}
	remoteGH := remoteFM.EnsureGitHub()
	remoteGH.IssueNumber = 7
	remoteGH.UpdatedAt = testNow.Add(-time.Minute)
	remote := specDoc("001-add-auth", remoteFM, remoteMarkdown)
	addFile(remote, spec.FilePlan, &spec.Frontmatter{SpecID: otherUUID}, "# Plan\n\nRemote only.\n")

	resolved, err := a.ResolveConflict(context.Background(), local, remote, tracker.StrategyTheirs)
	require.NoError(t, err)

	assert.Equal(t, local.Name, resolved.Name)
	assert.Equal(t, local.Path, resolved.Path)
	require.Len(t, resolved.Files, 3)

	merged := resolved.Files[spec.FileSpec]
	require.NotNil(t, merged)
	assert.Equal(t, remoteMarkdown, merged.Markdown, "remote content wins under theirs")
	assert.Equal(t, local.Files[spec.FileSpec].Path, merged.Path)

	fm := merged.Frontmatter
	assert.Equal(t, testUUID, fm.SpecID)
	assert.Equal(t, spec.SyncHash(remoteMarkdown), fm.SyncHash)
	assert.Equal(t, testNow, fm.LastSync)
	assert.Equal(t, spec.StatusSynced, fm.SyncStatus)
	require.NotNil(t, fm.AutoSync)
	assert.False(t, *fm.AutoSync, "local operator configuration survives the merge")
	require.NotNil(t, fm.Jira)
	assert.Equal(t, 991, fm.Jira.IssueNumber, "other tracker blocks survive the merge")
	assert.Equal(t, testNow.Add(-time.Minute), fm.GitHub.UpdatedAt)

	assert.Same(t, local.Files[spec.FileResearch], resolved.Files[spec.FileResearch], "local-only files are kept")
	assert.Same(t, remote.Files[spec.FilePlan], resolved.Files[spec.FilePlan], "remote-only files are added")
}

func TestResolveConflict_TheirsNeverMutatesLocal(t *testing.T) {
	t.Parallel()

	a := New(Options{})

	localFM := &spec.Frontmatter{SpecID: testUUID, SyncHash: "000000000000"}
	localFM.EnsureGitHub().IssueNumber = 7
	local := specDoc("001-add-auth", localFM, "# Add Auth\n\nLocal.\n")

	remoteFM := &spec.Frontmatter{SpecID: testUUID, SyncHash: "111111111111", LastSync: testNow}
	remoteFM.EnsureGitHub().IssueNumber = 7
	remote := specDoc("001-add-auth", remoteFM, "# Add Auth\n\nRemote.\n")

	resolved, err := a.ResolveConflict(context.Background(), local, remote, tracker.StrategyTheirs)
	require.NoError(t, err)

	resolved.Files[spec.FileSpec].Frontmatter.GitHub.IssueNumber = 99
	resolved.Files[spec.FileSpec].Frontmatter.SyncHash = "222222222222"

	assert.Equal(t, 7, localFM.GitHub.IssueNumber, "the scanned document must stay untouched")
	assert.Equal(t, "000000000000", localFM.SyncHash)
}
