package engine

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/tracker"
)

// SyncAll scans the spec tree and synchronizes every eligible document.
// Scan problems become per-spec errors. The run is non-atomic: individual
// failures leave the other documents synced and flip the aggregated Success
// to false.
func (e *Engine) SyncAll(ctx context.Context, opts SyncOptions) (*Result, error) {
	docs, problems, err := e.scanner.ScanAll()
	if err != nil {
		return nil, err
	}
	docs, err = filterDocs(docs, opts.Filter)
	if err != nil {
		return nil, err
	}

	res := newResult()
	for _, p := range problems {
		if !matchName(opts.Filter, p.Dir) {
			continue
		}
		res.fail(p.Dir, tracker.ErrValidationFailed(p.Dir, p.Err))
	}

	if !opts.Force {
		eligible := docs[:0]
		for _, doc := range docs {
			if doc.AutoSyncEnabled() {
				eligible = append(eligible, doc)
				continue
			}
			logger.Debug("auto_sync disabled", "spec", doc.Name)
			res.skipped(doc.Name)
		}
		docs = eligible
	}

	if len(docs) == 0 {
		res.summarize(opts.DryRun)
		return res, nil
	}

	if !e.adapter.CheckAuth(ctx) {
		authErr := tracker.ErrAuthRequired(e.adapter.Name())
		for _, doc := range docs {
			res.fail(doc.Name, authErr)
		}
		res.summarize(opts.DryRun)
		return res, nil
	}

	if e.adapter.Capabilities().Batch && len(docs) > 1 && !opts.DryRun {
		e.syncBatch(ctx, docs, opts, res)
	} else {
		for _, doc := range docs {
			if err := ctx.Err(); err != nil {
				res.fail(doc.Name, err)
				continue
			}
			e.syncOne(ctx, doc, opts, res)
		}
	}

	res.summarize(opts.DryRun)
	return res, nil
}

// syncBatch classifies every document up front, settles skips and conflicts
// individually, and pushes the remainder through the adapter's batch path
// with one writeback per successful outcome.
func (e *Engine) syncBatch(ctx context.Context, docs []*spec.Document, opts SyncOptions, res *Result) {
	var batch []*spec.Document
	statuses := make(map[string]*tracker.SyncStatus, len(docs))
	for _, doc := range docs {
		status, err := e.adapter.GetStatus(ctx, doc)
		if err != nil {
			res.fail(doc.Name, err)
			continue
		}
		switch {
		case status.State == tracker.SyncStateSynced && !status.HasChanges && !opts.Force:
			logger.Debug("already synced", "spec", doc.Name)
			res.skipped(doc.Name)
		case status.State == tracker.SyncStateConflict && !opts.Force:
			e.resolveAndPush(ctx, doc, status, opts, res)
		default:
			statuses[doc.Name] = status
			batch = append(batch, doc)
		}
	}
	if len(batch) == 0 {
		return
	}

	outcomes, err := e.adapter.PushBatch(ctx, batch, tracker.PushOptions{Force: opts.Force, Concurrency: opts.Concurrency})
	if err != nil {
		for _, doc := range batch {
			res.fail(doc.Name, err)
		}
		return
	}
	for i, outcome := range outcomes {
		doc := batch[i]
		if outcome.Err != nil {
			res.fail(doc.Name, outcome.Err)
			continue
		}
		res.warn(e.writeback(doc, outcome.Ref)...)
		e.record(doc, statuses[doc.Name], outcome.Ref, res)
	}
}

// SpecStatus pairs one scanned document with its computed remote state.
type SpecStatus struct {
	Doc    *spec.Document
	Status *tracker.SyncStatus
}

// StatusAll classifies every spec matching the filter without mutating
// anything. Adapter probe failures surface as the unknown state so one
// broken spec never hides the rest of the table.
func (e *Engine) StatusAll(ctx context.Context, filter string) ([]SpecStatus, []spec.Problem, error) {
	docs, problems, err := e.scanner.ScanAll()
	if err != nil {
		return nil, nil, err
	}
	docs, err = filterDocs(docs, filter)
	if err != nil {
		return nil, nil, err
	}
	kept := problems[:0]
	for _, p := range problems {
		if matchName(filter, p.Dir) {
			kept = append(kept, p)
		}
	}

	out := make([]SpecStatus, 0, len(docs))
	for _, doc := range docs {
		status, err := e.adapter.GetStatus(ctx, doc)
		if err != nil {
			logger.Warn("status probe failed", "spec", doc.Name, "error", err)
			status = &tracker.SyncStatus{State: tracker.SyncStateUnknown}
		}
		out = append(out, SpecStatus{Doc: doc, Status: status})
	}
	return out, kept, nil
}

// filterDocs keeps the documents whose directory name matches the glob. An
// empty pattern keeps everything; a malformed one is an error so a typo does
// not silently sync nothing.
func filterDocs(docs []*spec.Document, pattern string) ([]*spec.Document, error) {
	if pattern == "" {
		return docs, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("engine: invalid spec filter %q", pattern)
	}
	out := docs[:0]
	for _, doc := range docs {
		if matchName(pattern, doc.Name) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// matchName reports whether name matches the doublestar pattern. An empty
// pattern matches everything.
func matchName(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}
