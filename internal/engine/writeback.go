package engine

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/tracker"
)

// writeback persists the identity a push confirmed into the front-matter of
// every file the ref covers: spec_id, a fresh sync_hash over the current
// markdown, last_sync, sync_status=synced, the issue type, and the tracker
// numbers. Failures come back as warning strings; the remote mutation
// already happened, so the run is not failed over them.
func (e *Engine) writeback(doc *spec.Document, ref *tracker.RemoteRef) []string {
	now := e.now().UTC()
	var warnings []string
	for _, name := range sortedFileKeys(doc.Files) {
		fileRef, ok := ref.Files[name]
		if !ok {
			continue
		}
		f := doc.Files[name]
		fm := f.Frontmatter
		if fm == nil {
			fm = &spec.Frontmatter{}
			f.Frontmatter = fm
		}

		if fileRef.SpecID != "" {
			fm.SpecID = fileRef.SpecID
		} else if fm.SpecID == "" {
			fm.SpecID = spec.MintSpecID()
		}
		fm.SyncHash = spec.SyncHash(f.Markdown)
		fm.LastSync = now
		fm.SyncStatus = spec.StatusSynced
		gh := fm.EnsureGitHub()
		if fileRef.Number > 0 {
			gh.IssueNumber = fileRef.Number
		}
		if name == spec.FileSpec {
			fm.IssueType = spec.TypeParent
		} else {
			fm.IssueType = spec.TypeSubtask
			parent := ref.Number
			gh.ParentIssue = &parent
		}

		if err := e.persistFile(doc, f); err != nil {
			logger.Warn("front-matter writeback failed", "spec", doc.Name, "file", name, "error", err)
			warnings = append(warnings, tracker.ErrWritebackFailed(f.Path, err).Error())
		}
	}
	return warnings
}

// persistFile renders a file to its canonical on-disk form and writes it
// atomically. Files that never came from disk are placed inside the
// document's directory first; files already in canonical form are left
// untouched.
func (e *Engine) persistFile(doc *spec.Document, f *spec.File) error {
	if f.Path == "" {
		f.Path = filepath.Join(doc.Path, filepath.FromSlash(f.Filename))
	}
	content, err := spec.RenderFile(f.Frontmatter, f.Markdown)
	if err != nil {
		return err
	}
	if f.Content != nil && bytes.Equal(content, f.Content) {
		return nil
	}
	return e.scanner.WriteSpecFile(f, content)
}

// writeResolvedFiles persists a merged document ahead of its force push.
// Unlike writeback this is fatal on failure: nothing has been pushed yet,
// so aborting is safe.
func (e *Engine) writeResolvedFiles(doc *spec.Document) error {
	for _, name := range sortedFileKeys(doc.Files) {
		if err := e.persistFile(doc, doc.Files[name]); err != nil {
			return fmt.Errorf("engine: writing resolved %s: %w", name, err)
		}
	}
	return nil
}

// sortedFileKeys returns a document's file keys in lexical order for
// deterministic writes.
func sortedFileKeys(files map[string]*spec.File) []string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
