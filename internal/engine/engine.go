// Package engine drives synchronization between the local spec tree and a
// remote issue tracker. One Engine pairs a scanner with a tracker.Adapter:
// documents are classified with GetStatus, routed through skip, conflict
// resolution, or push, and the identity a push confirms is written back into
// front-matter. Remote mutation always precedes local mutation, so an
// interrupted run is reconciled on the next one via the embedded spec_id
// marker.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/logging"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/tracker"
)

var logger = logging.New("engine")

// PromptFunc supplies the per-document decision under the interactive
// conflict strategy. Returning an empty strategy leaves the conflict
// unresolved and skips the document.
type PromptFunc func(ctx context.Context, doc *spec.Document, status *tracker.SyncStatus) (tracker.ConflictStrategy, error)

// Options configures an Engine.
type Options struct {
	// Scanner reads and writes the local spec tree.
	Scanner *spec.Scanner
	// Adapter connects to the remote tracker.
	Adapter tracker.Adapter
	// Prompt resolves conflicts under the interactive strategy. When nil,
	// interactive resolution fails with INTERACTIVE_UNAVAILABLE.
	Prompt PromptFunc
}

// Engine coordinates scans, pushes, pulls, and status checks. It is not
// safe for concurrent use; run one engine per process.
type Engine struct {
	scanner *spec.Scanner
	adapter tracker.Adapter
	prompt  PromptFunc

	now func() time.Time
}

// New assembles an Engine from its collaborators.
func New(opts Options) *Engine {
	return &Engine{
		scanner: opts.Scanner,
		adapter: opts.Adapter,
		prompt:  opts.Prompt,
		now:     time.Now,
	}
}

// SyncOptions tunes a sync run.
type SyncOptions struct {
	// DryRun reports what would happen without touching the tracker or the
	// disk.
	DryRun bool
	// Force pushes past the synced-no-changes skip, auto_sync opt-outs, and
	// conflict checks; a UUID mismatch then abandons the recorded issue.
	Force bool
	// Concurrency bounds parallel creates in a batch. Values <= 0 use the
	// adapter default.
	Concurrency int
	// Filter is a doublestar glob matched against spec directory names.
	// Empty matches everything.
	Filter string
	// Strategy selects conflict handling. Empty defaults to manual.
	Strategy tracker.ConflictStrategy
}

// SyncSpec synchronizes a single document and reports the outcome.
func (e *Engine) SyncSpec(ctx context.Context, doc *spec.Document, opts SyncOptions) *Result {
	res := newResult()
	if !e.adapter.CheckAuth(ctx) {
		res.fail(doc.Name, tracker.ErrAuthRequired(e.adapter.Name()))
		res.summarize(opts.DryRun)
		return res
	}
	e.syncOne(ctx, doc, opts, res)
	res.summarize(opts.DryRun)
	return res
}

// syncOne classifies one document and routes it to the right action. The
// caller has already verified credentials.
func (e *Engine) syncOne(ctx context.Context, doc *spec.Document, opts SyncOptions, res *Result) {
	status, err := e.adapter.GetStatus(ctx, doc)
	if err != nil {
		res.fail(doc.Name, err)
		return
	}

	if opts.DryRun {
		e.dryRunOne(doc, status, res)
		return
	}

	if status.State == tracker.SyncStateSynced && !status.HasChanges && !opts.Force {
		logger.Debug("already synced", "spec", doc.Name)
		res.skipped(doc.Name)
		return
	}

	if status.State == tracker.SyncStateConflict && !opts.Force {
		e.resolveAndPush(ctx, doc, status, opts, res)
		return
	}

	e.pushAndRecord(ctx, doc, status, tracker.PushOptions{Force: opts.Force, Concurrency: opts.Concurrency}, res)
}

// dryRunOne reports what a real run would do. Nothing is pushed or written;
// unresolved conflicts still fail the run so scripted dry runs exit nonzero.
func (e *Engine) dryRunOne(doc *spec.Document, status *tracker.SyncStatus, res *Result) {
	switch {
	case status.State == tracker.SyncStateConflict:
		res.fail(doc.Name, tracker.ErrSyncConflict(doc.Name, status.Conflicts))
	case status.State == tracker.SyncStateUnknown:
		res.fail(doc.Name, errors.New("remote status could not be determined"))
	case status.State == tracker.SyncStateSynced && !status.HasChanges:
		logger.Info("no changes", "spec", doc.Name)
		res.skipped(doc.Name)
	case status.RemoteNumber > 0:
		logger.Info("would update", "spec", doc.Name, "issue", status.RemoteNumber)
		res.updated(doc.Name)
	default:
		logger.Info("would create", "spec", doc.Name)
		res.created(doc.Name)
	}
}

// resolveAndPush applies the conflict strategy. Resolution is followed by
// exactly one forced push; a second failure surfaces as-is.
func (e *Engine) resolveAndPush(ctx context.Context, doc *spec.Document, status *tracker.SyncStatus, opts SyncOptions, res *Result) {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = tracker.StrategyManual
	}

	if strategy == tracker.StrategyInteractive {
		choice, err := e.promptStrategy(ctx, doc, status)
		if err != nil {
			res.fail(doc.Name, err)
			return
		}
		if choice == "" {
			logger.Info("conflict left unresolved", "spec", doc.Name)
			res.skipped(doc.Name)
			return
		}
		strategy = choice
	}

	push := tracker.PushOptions{Force: true, Concurrency: opts.Concurrency}
	switch strategy {
	case tracker.StrategyManual:
		res.fail(doc.Name, tracker.ErrSyncConflict(doc.Name, status.Conflicts))
	case tracker.StrategyOurs:
		logger.Info("resolving conflict with local content", "spec", doc.Name)
		e.pushAndRecord(ctx, doc, status, push, res)
	case tracker.StrategyTheirs:
		logger.Info("resolving conflict with remote content", "spec", doc.Name)
		resolved, err := e.mergeRemote(ctx, doc, status)
		if err != nil {
			res.fail(doc.Name, err)
			return
		}
		if err := e.writeResolvedFiles(resolved); err != nil {
			res.fail(doc.Name, err)
			return
		}
		e.pushAndRecord(ctx, resolved, status, push, res)
	default:
		res.fail(doc.Name, errors.New("unsupported conflict strategy "+string(strategy)))
	}
}

// mergeRemote pulls the conflicting issue and merges it over the local
// document per the theirs strategy. Directory identity stays local so the
// merged files land where the originals live.
func (e *Engine) mergeRemote(ctx context.Context, doc *spec.Document, status *tracker.SyncStatus) (*spec.Document, error) {
	remote, err := e.adapter.Pull(ctx, tracker.RemoteRef{Number: status.RemoteNumber}, tracker.PullOptions{Subtasks: true})
	if err != nil {
		return nil, err
	}
	resolved, err := e.adapter.ResolveConflict(ctx, doc, remote, tracker.StrategyTheirs)
	if err != nil {
		return nil, err
	}
	resolved.Name = doc.Name
	resolved.Path = doc.Path
	return resolved, nil
}

// promptStrategy defers the decision to the configured prompt.
func (e *Engine) promptStrategy(ctx context.Context, doc *spec.Document, status *tracker.SyncStatus) (tracker.ConflictStrategy, error) {
	if e.prompt == nil {
		return "", tracker.ErrInteractiveUnavailable()
	}
	return e.prompt(ctx, doc, status)
}

// pushAndRecord performs the remote mutation, persists the confirmed
// identity, and buckets the outcome. Writeback failures downgrade to
// warnings: the remote is already correct and the next run rediscovers the
// issue through its embedded marker.
func (e *Engine) pushAndRecord(ctx context.Context, doc *spec.Document, status *tracker.SyncStatus, opts tracker.PushOptions, res *Result) {
	ref, err := e.adapter.Push(ctx, doc, opts)
	if err != nil {
		res.fail(doc.Name, err)
		return
	}
	res.warn(e.writeback(doc, ref)...)
	e.record(doc, status, ref, res)
}

// record buckets a successful push: an edit of the issue the status probe
// matched counts as updated, anything else created a fresh issue.
func (e *Engine) record(doc *spec.Document, status *tracker.SyncStatus, ref *tracker.RemoteRef, res *Result) {
	if status != nil && status.RemoteNumber != 0 && ref.Number == status.RemoteNumber {
		res.updated(doc.Name)
		return
	}
	res.created(doc.Name)
}
