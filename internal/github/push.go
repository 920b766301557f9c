package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/ghcli"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/mapper"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/tracker"
)

// Push creates or updates the parent issue for doc and one subtask issue per
// subtask-eligible file. The remote side is fully mutated before returning;
// front-matter writeback is the engine's job, fed by the returned ref.
func (a *Adapter) Push(ctx context.Context, doc *spec.Document, opts tracker.PushOptions) (*tracker.RemoteRef, error) {
	a.ensureRepo(ctx)

	if doc.SpecFile() == nil {
		return nil, tracker.ErrValidationFailed(doc.Name, errors.New("spec.md is missing"))
	}

	target, err := a.resolveTarget(ctx, doc, opts.Force)
	if err != nil {
		return nil, err
	}

	a.ensureLabels(ctx, a.labelUnion(doc))

	return a.pushResolved(ctx, doc, target, opts.Force)
}

// pushResolved performs the remote mutations for one document against an
// already-resolved target. Labels are assumed provisioned.
func (a *Adapter) pushResolved(ctx context.Context, doc *spec.Document, target *pushTarget, force bool) (*tracker.RemoteRef, error) {
	specFile := doc.SpecFile()
	now := a.now()

	specID := target.specID
	if specID == "" {
		specID = spec.MintSpecID()
	}
	title := mapper.GenerateTitle(doc.Name, spec.KindSpec)

	var number int
	var url string
	if target.number == 0 {
		body := mapper.GenerateBody(specFile, doc, specID, now)
		var err error
		number, url, err = a.client.CreateIssue(ctx, ghcli.CreateIssueOptions{
			Title:     title,
			Body:      body,
			Labels:    a.effectiveLabels(spec.KindSpec),
			Assignees: a.assignees,
			Milestone: a.milestone,
		})
		if err != nil {
			return nil, tracker.ErrRemoteUnavailable("creating issue", err)
		}
		logger.Info("created issue", "spec", doc.Name, "issue", number)
	} else {
		number, url = target.number, target.issue.URL

		edit := ghcli.EditIssueOptions{}
		if target.issue.Title != title {
			edit.Title = &title
		}
		if specFile.HasChanges() || target.injectMarker {
			body := mapper.GenerateBody(specFile, doc, specID, now)
			edit.Body = &body
		}
		edit.AddLabels = missingLabels(a.effectiveLabels(spec.KindSpec), target.issue.LabelNames())

		if edit.Title != nil || edit.Body != nil || len(edit.AddLabels) > 0 {
			if err := a.client.EditIssue(ctx, number, edit); err != nil {
				return nil, tracker.ErrRemoteUnavailable(fmt.Sprintf("updating issue #%d", number), err)
			}
			logger.Info("updated issue", "spec", doc.Name, "issue", number)
		} else {
			logger.Debug("issue already up to date", "spec", doc.Name, "issue", number)
		}
	}

	ref := &tracker.RemoteRef{
		Number: number,
		URL:    url,
		Type:   tracker.RefParent,
		SpecID: specID,
		Files: map[string]tracker.FileRef{
			spec.FileSpec: {Number: number, SpecID: specID, URL: url},
		},
	}

	if err := a.pushSubtasks(ctx, doc, ref, now, force); err != nil {
		return nil, err
	}
	return ref, nil
}

// pushSubtasks creates or updates one issue per subtask-eligible file, in the
// document's deterministic file order. Creation is serialized per parent so
// issue numbering follows file order. Files with auto_sync disabled are
// skipped unless forced.
func (a *Adapter) pushSubtasks(ctx context.Context, doc *spec.Document, parent *tracker.RemoteRef, now time.Time, force bool) error {
	for _, f := range doc.SubtaskFiles() {
		if !force && !f.Frontmatter.AutoSyncEnabled() {
			logger.Debug("skipping file with auto_sync disabled", "spec", doc.Name, "file", f.Filename)
			continue
		}
		kind, _ := f.Kind()

		fileID := ""
		number := 0
		if f.Frontmatter != nil {
			fileID = f.Frontmatter.SpecID
			if f.Frontmatter.GitHub != nil {
				number = f.Frontmatter.GitHub.IssueNumber
			}
		}
		if fileID == "" {
			fileID = spec.MintSpecID()
		}
		title := mapper.GenerateTitle(doc.Name, kind)

		if number == 0 {
			body := mapper.GenerateBody(f, doc, fileID, now)
			ref, err := a.CreateSubtask(ctx, *parent, title, body, kind)
			if err != nil {
				return err
			}
			parent.Files[f.Filename] = tracker.FileRef{Number: ref.Number, SpecID: fileID, URL: ref.URL}
			continue
		}

		if f.HasChanges() {
			body := mapper.GenerateBody(f, doc, fileID, now)
			edit := ghcli.EditIssueOptions{
				Title:     &title,
				Body:      &body,
				AddLabels: a.effectiveLabels(kind),
			}
			if err := a.client.EditIssue(ctx, number, edit); err != nil {
				return tracker.ErrRemoteUnavailable(fmt.Sprintf("updating subtask issue #%d", number), err)
			}
			logger.Info("updated subtask issue", "spec", doc.Name, "file", f.Filename, "issue", number)
		}
		parent.Files[f.Filename] = tracker.FileRef{Number: number, SpecID: fileID}
	}
	return nil
}

// CreateSubtask creates an issue for one spec file and links it under the
// parent. A missing sub-issue extension (or a failed link) downgrades to a
// warning: the issue exists either way and the linkage is cosmetic.
func (a *Adapter) CreateSubtask(ctx context.Context, parent tracker.RemoteRef, title, body string, kind spec.Kind) (*tracker.RemoteRef, error) {
	a.ensureRepo(ctx)

	labels := a.effectiveLabels(kind)
	a.ensureLabels(ctx, labels)

	number, url, err := a.client.CreateIssue(ctx, ghcli.CreateIssueOptions{
		Title:     title,
		Body:      body,
		Labels:    labels,
		Assignees: a.assignees,
		Milestone: a.milestone,
	})
	if err != nil {
		return nil, tracker.ErrRemoteUnavailable("creating subtask issue", err)
	}
	logger.Info("created subtask issue", "issue", number, "kind", kind, "parent", parent.Number)

	if err := a.client.AddSubIssue(ctx, parent.Number, number); err != nil {
		if errors.Is(err, ghcli.ErrSubIssuesUnavailable) {
			logger.Warn("sub-issue linking unavailable; issue created without a parent link",
				"issue", number, "parent", parent.Number)
		} else {
			logger.Warn("linking subtask failed; issue created without a parent link",
				"issue", number, "parent", parent.Number, "err", err)
		}
	}

	return &tracker.RemoteRef{
		Number: number,
		URL:    url,
		Type:   tracker.RefSubtask,
		SpecID: mapper.ExtractSpecID(body),
	}, nil
}

// GetSubtasks lists the issues linked under a parent.
func (a *Adapter) GetSubtasks(ctx context.Context, parent tracker.RemoteRef) ([]tracker.RemoteRef, error) {
	a.ensureRepo(ctx)

	issues, err := a.client.ListSubIssues(ctx, parent.Number)
	if err != nil {
		return nil, fmt.Errorf("github: listing subtasks of #%d: %w", parent.Number, err)
	}

	refs := make([]tracker.RemoteRef, 0, len(issues))
	for i := range issues {
		refs = append(refs, tracker.RemoteRef{
			Number: issues[i].Number,
			URL:    issues[i].URL,
			Type:   tracker.RefSubtask,
			SpecID: mapper.ExtractSpecID(issues[i].Body),
		})
	}
	return refs, nil
}

// batchItem pairs a document with its resolved target and input position.
type batchItem struct {
	idx    int
	doc    *spec.Document
	target *pushTarget
}

// PushBatch pushes several documents: identities are resolved up front, the
// union of labels is provisioned once, new issues are created under a
// concurrency bound, and existing ones get a single batched common-field
// edit followed by bounded per-item updates. Outcomes are reported in input
// order; a failed item never rolls back completed ones.
func (a *Adapter) PushBatch(ctx context.Context, docs []*spec.Document, opts tracker.PushOptions) ([]tracker.PushOutcome, error) {
	a.ensureRepo(ctx)

	outcomes := make([]tracker.PushOutcome, len(docs))
	var creates, updates []batchItem
	var labels [][]string

	for i, doc := range docs {
		outcomes[i].Name = doc.Name

		if doc.SpecFile() == nil {
			outcomes[i].Err = tracker.ErrValidationFailed(doc.Name, errors.New("spec.md is missing"))
			continue
		}
		target, err := a.resolveTarget(ctx, doc, opts.Force)
		if err != nil {
			outcomes[i].Err = err
			continue
		}

		labels = append(labels, a.labelUnion(doc))
		item := batchItem{idx: i, doc: doc, target: target}
		if target.number == 0 {
			creates = append(creates, item)
		} else {
			updates = append(updates, item)
		}
	}

	a.ensureLabels(ctx, dedupLabels(labels...))

	limit := opts.Concurrency
	if limit <= 0 {
		limit = a.concurrency
	}

	// Creates first. Each goroutine writes only its own outcome slot and
	// returns nil so one failure never cancels a sibling.
	a.runItems(ctx, creates, outcomes, limit, opts.Force)

	if len(updates) > 0 {
		numbers := make([]int, len(updates))
		for i, item := range updates {
			numbers[i] = item.target.number
		}
		err := a.client.EditIssues(ctx, numbers, ghcli.EditIssueOptions{
			AddLabels:    a.effectiveLabels(spec.KindSpec),
			AddAssignees: a.assignees,
			Milestone:    a.milestone,
		})
		if err != nil {
			logger.Warn("batched common-field update failed; continuing with per-item updates",
				"issues", len(numbers), "err", err)
		}
	}

	a.runItems(ctx, updates, outcomes, limit, opts.Force)

	return outcomes, nil
}

// runItems pushes the given items under a concurrency bound, settling every
// outcome before returning.
func (a *Adapter) runItems(ctx context.Context, items []batchItem, outcomes []tracker.PushOutcome, limit int, force bool) {
	if len(items) == 0 {
		return
	}
	g := &errgroup.Group{}
	g.SetLimit(limit)
	for _, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[item.idx].Err = err
				return nil
			}
			ref, err := a.pushResolved(ctx, item.doc, item.target, force)
			outcomes[item.idx].Ref = ref
			outcomes[item.idx].Err = err
			return nil
		})
	}
	g.Wait() //nolint:errcheck
}
