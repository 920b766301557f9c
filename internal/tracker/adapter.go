package tracker

import (
	"context"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
)

// Adapter is the contract between the sync engine and one issue tracker.
// Implementations must be safe for sequential use by a single engine; the
// engine never calls an adapter concurrently for the same document.
type Adapter interface {
	// Name returns the platform identifier (e.g. "github"). The name must be
	// lowercase and contain only alphanumeric characters and hyphens.
	Name() string

	// Capabilities describes which optional features this adapter supports.
	Capabilities() Capabilities

	// Authenticate verifies credentials and returns a descriptive error when
	// they are missing or rejected.
	Authenticate(ctx context.Context) error

	// CheckAuth is the non-throwing probe: true when credentials work.
	CheckAuth(ctx context.Context) bool

	// Push creates or updates the remote parent issue for doc and all its
	// subtask-eligible files. The remote side is mutated before any local
	// state; the returned ref carries per-file identity for the engine's
	// front-matter writeback.
	Push(ctx context.Context, doc *spec.Document, opts PushOptions) (*RemoteRef, error)

	// PushBatch pushes several documents with the same semantics as Push.
	// Outcomes are reported in input order; a failed item never rolls back
	// completed ones. Adapters without native batching should delegate to
	// PushSequential.
	PushBatch(ctx context.Context, docs []*spec.Document, opts PushOptions) ([]PushOutcome, error)

	// Pull fetches the referenced issue (and its subtasks when requested and
	// supported) and projects it into a fresh Document. The document is not
	// written to disk; that is the caller's decision.
	Pull(ctx context.Context, ref RemoteRef, opts PullOptions) (*spec.Document, error)

	// GetStatus classifies doc against its remote counterpart.
	GetStatus(ctx context.Context, doc *spec.Document) (*SyncStatus, error)

	// ResolveConflict produces the canonical document per the strategy.
	// StrategyManual and StrategyInteractive return SyncErrors instead of
	// resolving.
	ResolveConflict(ctx context.Context, local, remote *spec.Document, strategy ConflictStrategy) (*spec.Document, error)
}

// SubtaskAdapter is implemented by adapters whose tracker supports
// parent/child issue linking.
type SubtaskAdapter interface {
	// CreateSubtask creates an issue linked under parent. kind selects the
	// label set and title prefix.
	CreateSubtask(ctx context.Context, parent RemoteRef, title, body string, kind spec.Kind) (*RemoteRef, error)

	// GetSubtasks lists the issues linked under parent.
	GetSubtasks(ctx context.Context, parent RemoteRef) ([]RemoteRef, error)
}

// CommentAdapter is implemented by adapters that can comment on and
// open/close issues.
type CommentAdapter interface {
	AddComment(ctx context.Context, ref RemoteRef, body string) error
	Close(ctx context.Context, ref RemoteRef) error
	Reopen(ctx context.Context, ref RemoteRef) error
}

// PushSequential is the default PushBatch implementation: one Push per
// document, in input order, collecting per-item outcomes. A document failure
// is recorded and the batch continues; only context cancellation aborts the
// loop early.
func PushSequential(ctx context.Context, a Adapter, docs []*spec.Document, opts PushOptions) ([]PushOutcome, error) {
	outcomes := make([]PushOutcome, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, PushOutcome{Name: doc.Name, Err: err})
			continue
		}
		ref, err := a.Push(ctx, doc, opts)
		outcomes = append(outcomes, PushOutcome{Name: doc.Name, Ref: ref, Err: err})
	}
	return outcomes, nil
}
