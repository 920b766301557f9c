// Package tracker defines the tracker-neutral types and the Adapter
// interface that the sync engine programs against.
//
// An Adapter connects the engine to one issue tracker (GitHub, Jira, Asana).
// The engine never talks to a tracker directly: it classifies specs, calls
// the adapter's push/pull/status operations, and writes identity front-matter
// back to disk. Adapters report what they can do through a Capabilities
// value so the engine branches on features at runtime instead of on concrete
// adapter types.
package tracker

import (
	"time"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
)

// IssueState is the open/closed state of a remote issue.
type IssueState string

const (
	StateOpen   IssueState = "OPEN"
	StateClosed IssueState = "CLOSED"
)

// Issue is the tracker-neutral projection of one remote issue. It is fetched
// on demand and never persisted by the core.
type Issue struct {
	// Number is the tracker-scoped issue id.
	Number int
	Title  string
	// Body carries the embedded spec_id marker when the issue was created
	// from a spec.
	Body      string
	State     IssueState
	Labels    []string
	Assignees []string
	Milestone int
	// ParentIssue is the parent's number for subtask issues, 0 otherwise.
	ParentIssue int
	// Subtasks lists linked child issues, populated only when the adapter
	// supports subtask listing.
	Subtasks  []RemoteRef
	UpdatedAt time.Time
	URL       string
}

// RefType distinguishes parent issues from subtasks.
type RefType string

const (
	RefParent  RefType = "parent"
	RefSubtask RefType = "subtask"
)

// FileRef records the remote identity of one spec file after a push: the
// issue number that now represents it and the spec_id that was confirmed or
// minted for it. Adapters never mutate documents; identity travels back to
// the engine through these refs and is written to front-matter there.
type FileRef struct {
	Number int
	SpecID string
	URL    string
}

// RemoteRef is an opaque reference to a remote parent issue, returned by
// Push and consumed by Pull and the subtask operations.
type RemoteRef struct {
	// Number is the parent issue number.
	Number int
	URL    string
	Type   RefType
	// SpecID is the document's identity as known remotely.
	SpecID string
	// Files maps document file keys ("spec.md", "plan.md", "contracts/x")
	// to the per-file remote identity. Includes spec.md itself.
	Files map[string]FileRef
}

// SyncState classifies a spec relative to its remote counterpart.
type SyncState string

const (
	// SyncStateLocal means the spec has no identity fields and no remote
	// match was found; it exists only on disk.
	SyncStateLocal SyncState = "local"

	// SyncStateDraft means identity exists but the remote is missing, or
	// local edits are pending push.
	SyncStateDraft SyncState = "draft"

	// SyncStateSynced means local hash equals sync_hash and the remote was
	// not updated after last_sync.
	SyncStateSynced SyncState = "synced"

	// SyncStateConflict means both sides changed since the last sync, or
	// the embedded UUIDs disagree.
	SyncStateConflict SyncState = "conflict"

	// SyncStateUnknown means the status probe itself failed.
	SyncStateUnknown SyncState = "unknown"
)

// SyncStatus is the computed classification of one spec. It is derived on
// demand and never stored.
type SyncStatus struct {
	State SyncState
	// HasChanges reports whether the current markdown body hash differs
	// from the stored sync_hash.
	HasChanges bool
	// RemoteNumber is the matched remote issue, 0 when none.
	RemoteNumber int
	// LastSync echoes the front-matter timestamp. Zero when never synced.
	LastSync time.Time
	// Conflicts is non-empty exactly when State is SyncStateConflict.
	Conflicts []string
}

// ConflictStrategy selects how a detected conflict is resolved.
type ConflictStrategy string

const (
	// StrategyManual surfaces the conflict and mutates nothing.
	StrategyManual ConflictStrategy = "manual"

	// StrategyOurs pushes the local version over the remote.
	StrategyOurs ConflictStrategy = "ours"

	// StrategyTheirs overwrites local files from the remote.
	StrategyTheirs ConflictStrategy = "theirs"

	// StrategyInteractive defers to the caller for a per-spec decision. The
	// core itself reports INTERACTIVE_UNAVAILABLE.
	StrategyInteractive ConflictStrategy = "interactive"
)

var validStrategies = map[ConflictStrategy]bool{
	StrategyManual:      true,
	StrategyOurs:        true,
	StrategyTheirs:      true,
	StrategyInteractive: true,
}

// IsValid reports whether s is a recognized conflict strategy.
func (s ConflictStrategy) IsValid() bool {
	return validStrategies[s]
}

// PushOptions tunes a single push or a batch.
type PushOptions struct {
	// Force abandons conflict checks: a UUID mismatch creates a fresh issue
	// instead of failing, and up-to-date specs are pushed anyway.
	Force bool
	// Concurrency bounds parallel creates in a batch. Values <= 0 fall back
	// to the adapter default.
	Concurrency int
}

// PullOptions tunes a pull.
type PullOptions struct {
	// Subtasks requests the parent's linked subtasks as well, when the
	// adapter supports them.
	Subtasks bool
}

// PushOutcome is the per-document result of a batch push, reported in input
// order. Exactly one of Ref and Err is set.
type PushOutcome struct {
	// Name is the document name the outcome belongs to.
	Name string
	Ref  *RemoteRef
	Err  error
}

// Capabilities describes what an adapter implementation can do. The engine
// consults it to decide whether to call batch paths, subtask creation, and
// conflict resolution.
type Capabilities struct {
	Batch              bool
	Subtasks           bool
	Labels             bool
	Assignees          bool
	Milestones         bool
	Comments           bool
	ConflictResolution bool
}

// DocumentSpecID returns the document identity: the spec.md front-matter's
// spec_id, or empty when absent.
func DocumentSpecID(doc *spec.Document) string {
	f := doc.SpecFile()
	if f == nil || f.Frontmatter == nil {
		return ""
	}
	return f.Frontmatter.SpecID
}

// DocumentIssueNumber returns the github issue number recorded in spec.md's
// front-matter, or 0 when absent.
func DocumentIssueNumber(doc *spec.Document) int {
	f := doc.SpecFile()
	if f == nil || f.Frontmatter == nil || f.Frontmatter.GitHub == nil {
		return 0
	}
	return f.Frontmatter.GitHub.IssueNumber
}
