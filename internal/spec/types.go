// Package spec models the local side of synchronization: spec documents as
// directories of Markdown files, the YAML front-matter schema that carries
// sync identity, the scanner that reads and writes the tree, and the content
// hashing that detects local edits.
package spec

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Recognized top-level filenames inside a spec directory. Any other top-level
// *.md file is carried in the document keyed by its filename but is not
// eligible for subtask creation.
const (
	FileSpec       = "spec.md"
	FilePlan       = "plan.md"
	FileResearch   = "research.md"
	FileDataModel  = "data-model.md"
	FileQuickstart = "quickstart.md"
	FileTasks      = "tasks.md"
)

// ContractsDir is the subdirectory scanned one level deep for contract files.
// Its entries are keyed as "contracts/<filename>" regardless of extension.
const ContractsDir = "contracts"

// SyncStatus is the synchronization state recorded in a spec file's
// front-matter.
type SyncStatus string

const (
	// StatusDraft marks a file that has local content not yet pushed.
	StatusDraft SyncStatus = "draft"

	// StatusSynced marks a file whose content matches the remote issue.
	StatusSynced SyncStatus = "synced"

	// StatusConflict marks a file whose local and remote sides diverged.
	StatusConflict SyncStatus = "conflict"
)

var validSyncStatuses = map[SyncStatus]bool{
	StatusDraft:    true,
	StatusSynced:   true,
	StatusConflict: true,
}

// IsValid reports whether s is a recognized sync status.
func (s SyncStatus) IsValid() bool {
	return validSyncStatuses[s]
}

// IssueType is the remote issue kind a spec file maps to.
type IssueType string

const (
	// TypeParent maps to a top-level tracker issue (spec.md).
	TypeParent IssueType = "parent"

	// TypeSubtask maps to an issue linked under a parent (all other files).
	TypeSubtask IssueType = "subtask"
)

var validIssueTypes = map[IssueType]bool{
	TypeParent:  true,
	TypeSubtask: true,
}

// IsValid reports whether t is a recognized issue type.
func (t IssueType) IsValid() bool {
	return validIssueTypes[t]
}

// Kind classifies a spec file for title generation and label resolution.
// The string value doubles as the label-configuration key and as the
// fallback label when no mapping is configured.
type Kind string

const (
	KindSpec       Kind = "spec"
	KindPlan       Kind = "plan"
	KindResearch   Kind = "research"
	KindDataModel  Kind = "datamodel"
	KindQuickstart Kind = "quickstart"
	KindTasks      Kind = "task"
	KindContracts  Kind = "contracts"
)

// kindByFilename maps recognized top-level filenames to their kind.
var kindByFilename = map[string]Kind{
	FileSpec:       KindSpec,
	FilePlan:       KindPlan,
	FileResearch:   KindResearch,
	FileDataModel:  KindDataModel,
	FileQuickstart: KindQuickstart,
	FileTasks:      KindTasks,
}

// KindForFilename returns the kind for a document file key. Contract files
// ("contracts/<name>") all map to KindContracts. The second return value is
// false for unrecognized top-level files, which are carried in the document
// but never pushed as subtasks.
func KindForFilename(filename string) (Kind, bool) {
	if strings.HasPrefix(filename, ContractsDir+"/") {
		return KindContracts, true
	}
	k, ok := kindByFilename[filename]
	return k, ok
}

// File is a single file inside a spec directory: raw bytes plus the parsed
// front-matter and the markdown body that follows it.
type File struct {
	// Path is the absolute or root-relative filesystem path.
	Path string
	// Filename is the document key: the basename, or "contracts/<basename>".
	Filename string
	// Content is the raw file content as read from disk.
	Content []byte
	// Frontmatter is the parsed YAML header. Never nil; zero when absent.
	Frontmatter *Frontmatter
	// Markdown is the body after the closing front-matter delimiter.
	Markdown string
	// Fingerprint is a fast hash of Content taken at scan time, used to
	// detect files modified by another process before writeback.
	Fingerprint uint64
}

// Kind returns the file's kind and whether it is subtask-eligible
// (spec.md itself reports true with KindSpec).
func (f *File) Kind() (Kind, bool) {
	return KindForFilename(f.Filename)
}

// HasChanges reports whether the markdown body hash differs from the stored
// sync_hash. A file never synced (empty sync_hash) always has changes.
func (f *File) HasChanges() bool {
	return f.Frontmatter == nil || f.Frontmatter.SyncHash != SyncHash(f.Markdown)
}

// Document is one feature directory under the spec root: a named set of
// spec files keyed by filename.
type Document struct {
	// Name is the directory basename, e.g. "001-add-auth".
	Name string
	// Path is the directory path.
	Path string
	// Files maps filename keys to parsed files. Contains at least one entry.
	Files map[string]*File
	// IssueNumber is the decimal value of a leading "NNN-" directory-name
	// prefix, or 0 when the name carries no prefix.
	IssueNumber int
}

// SpecFile returns the document's spec.md, or nil when absent.
func (d *Document) SpecFile() *File {
	return d.Files[FileSpec]
}

// subtaskOrder fixes the deterministic push order for recognized
// subtask-eligible files. Contract files follow, sorted by key.
var subtaskOrder = []string{FilePlan, FileResearch, FileDataModel, FileQuickstart, FileTasks}

// SubtaskFiles returns the subtask-eligible files in deterministic order:
// plan, research, data-model, quickstart, tasks, then contracts/* sorted by
// filename. spec.md and unrecognized extras are excluded.
func (d *Document) SubtaskFiles() []*File {
	var files []*File
	for _, name := range subtaskOrder {
		if f, ok := d.Files[name]; ok {
			files = append(files, f)
		}
	}
	var contracts []string
	for name := range d.Files {
		if strings.HasPrefix(name, ContractsDir+"/") {
			contracts = append(contracts, name)
		}
	}
	sort.Strings(contracts)
	for _, name := range contracts {
		files = append(files, d.Files[name])
	}
	return files
}

// AutoSyncEnabled reports whether the document participates in automatic
// syncs. The gate is spec.md's auto_sync flag; a document without spec.md
// or without the flag defaults to enabled.
func (d *Document) AutoSyncEnabled() bool {
	f := d.SpecFile()
	if f == nil || f.Frontmatter == nil {
		return true
	}
	return f.Frontmatter.AutoSyncEnabled()
}

// reDirIssueNumber matches a leading decimal issue-number prefix in a
// directory name. A bare numeric name with no trailing '-' does not count.
var reDirIssueNumber = regexp.MustCompile(`^(\d+)-`)

// IssueNumberFromDir extracts the numeric prefix from a directory name like
// "012-rate-limits". It returns 0 when the name has no such prefix.
func IssueNumberFromDir(name string) int {
	m := reDirIssueNumber.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// FeatureName derives a human-readable feature name from a spec directory
// name: the optional "NNN-" prefix is stripped, the remainder is split on
// '-', and each token is Title-Cased. "001-add-auth" becomes "Add Auth".
func FeatureName(name string) string {
	name = reDirIssueNumber.ReplaceAllString(name, "")
	tokens := strings.Split(name, "-")
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		r := []rune(tok)
		out = append(out, strings.ToUpper(string(r[0]))+strings.ToLower(string(r[1:])))
	}
	return strings.Join(out, " ")
}
