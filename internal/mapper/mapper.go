// Package mapper converts between spec files and their tracker-neutral issue
// representation: title generation with per-kind prefixes, body generation
// with the embedded identity marker and footer, and the reverse projection
// from an issue back to a spec document.
//
// The identity marker is an HTML comment (`<!-- spec_id: <uuid> -->`) so the
// spec keeps its identity even when front-matter is lost or the issue is
// edited by hand. The mapper inserts it; adapters search for it.
package mapper

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/spec"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/tracker"
)

// syncedLayout formats the footer timestamp: UTC, millisecond precision.
const syncedLayout = "2006-01-02T15:04:05.000Z"

// titlePrefixes maps each file kind to the issue-title prefix that encodes
// it. Prefix matching is how pulled subtasks are projected back onto file
// kinds, so no prefix may be a prefix of another.
var titlePrefixes = map[spec.Kind]string{
	spec.KindSpec:       "Feature Specification:",
	spec.KindPlan:       "Plan:",
	spec.KindResearch:   "Research:",
	spec.KindDataModel:  "Data Model:",
	spec.KindQuickstart: "Quickstart:",
	spec.KindTasks:      "Tasks:",
	spec.KindContracts:  "API Contracts:",
}

// titleKinds fixes the prefix-matching order.
var titleKinds = []spec.Kind{
	spec.KindSpec,
	spec.KindPlan,
	spec.KindResearch,
	spec.KindDataModel,
	spec.KindQuickstart,
	spec.KindTasks,
	spec.KindContracts,
}

// markerRe matches the embedded identity marker anywhere in an issue body.
// Only the first match is authoritative.
var markerRe = regexp.MustCompile(`<!--\s*spec_id:\s*([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})\s*-->`)

// markerLineRe matches whole lines that consist of nothing but a marker,
// for stripping on the pull path.
var markerLineRe = regexp.MustCompile(`(?m)^[ \t]*<!--\s*spec_id:\s*[0-9a-fA-F-]{36}\s*-->[ \t]*\n?`)

// footerAnchor is the separator line plus the first footer field; the last
// occurrence marks where the generated footer begins.
const footerAnchor = "\n---\n**Spec:** `"

var (
	whitespaceRuns = regexp.MustCompile(`\s+`)
	invalidChars   = regexp.MustCompile(`[^a-z0-9-]`)
)

// Marker renders the identity line embedded in issue bodies.
func Marker(specID string) string {
	return fmt.Sprintf("<!-- spec_id: %s -->", specID)
}

// ExtractSpecID returns the lowercase UUID from the first identity marker in
// body, or "" when no marker is present.
func ExtractSpecID(body string) string {
	m := markerRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// GenerateTitle builds the issue title for one file of a spec: the per-kind
// prefix followed by the Title-Cased feature name. Unknown kinds use the
// spec prefix.
func GenerateTitle(specName string, kind spec.Kind) string {
	prefix, ok := titlePrefixes[kind]
	if !ok {
		prefix = titlePrefixes[spec.KindSpec]
	}
	return prefix + " " + spec.FeatureName(specName)
}

// GenerateBody builds the issue body for one file: the identity marker (when
// specID is non-empty), a blank line, the front-matter-stripped markdown,
// and a footer naming the spec, its path, and the sync time.
func GenerateBody(file *spec.File, doc *spec.Document, specID string, now time.Time) string {
	var sb strings.Builder
	if specID != "" {
		sb.WriteString(Marker(specID))
		sb.WriteString("\n\n")
	}
	sb.WriteString(strings.TrimRight(file.Markdown, "\n"))
	sb.WriteString("\n\n---\n")
	fmt.Fprintf(&sb, "**Spec:** `%s`\n", doc.Name)
	fmt.Fprintf(&sb, "**Path:** `%s`\n", doc.Path)
	fmt.Fprintf(&sb, "**Synced:** %s", now.UTC().Format(syncedLayout))
	return sb.String()
}

// StripGenerated removes the identity marker lines and the generated footer
// from an issue body, recovering the original markdown. The result ends with
// exactly one newline when non-empty.
func StripGenerated(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	if idx := strings.LastIndex(body, footerAnchor); idx >= 0 {
		body = body[:idx]
	} else if strings.HasPrefix(body, footerAnchor[1:]) {
		body = ""
	}
	body = markerLineRe.ReplaceAllString(body, "")
	body = strings.TrimLeft(body, "\n")
	body = strings.TrimRight(body, " \t\n")
	if body == "" {
		return ""
	}
	return body + "\n"
}

// SpecNameFromTitle derives a directory-safe spec name from an issue title:
// the recognized prefix is removed, the rest is lowercased, whitespace runs
// become single hyphens, and anything outside [a-z0-9-] is dropped.
func SpecNameFromTitle(title string) string {
	rest, _, _ := trimTitlePrefix(title)
	name := strings.ToLower(rest)
	name = whitespaceRuns.ReplaceAllString(name, "-")
	return invalidChars.ReplaceAllString(name, "")
}

// KindFromTitle reports the file kind encoded by the title's prefix. The
// second return is false when no recognized prefix matches; pulled subtasks
// without one cannot be projected onto a file.
func KindFromTitle(title string) (spec.Kind, bool) {
	_, kind, ok := trimTitlePrefix(title)
	return kind, ok
}

// FilenameForKind maps a kind back to its document file key. Contract files
// have no fixed filename, so KindContracts (like unknown kinds) reports
// false and the caller chooses a key under contracts/.
func FilenameForKind(kind spec.Kind) (string, bool) {
	switch kind {
	case spec.KindSpec:
		return spec.FileSpec, true
	case spec.KindPlan:
		return spec.FilePlan, true
	case spec.KindResearch:
		return spec.FileResearch, true
	case spec.KindDataModel:
		return spec.FileDataModel, true
	case spec.KindQuickstart:
		return spec.FileQuickstart, true
	case spec.KindTasks:
		return spec.FileTasks, true
	default:
		return "", false
	}
}

// IssueToSpec projects a remote parent issue into a fresh in-memory spec
// document: a single spec.md whose markdown is the issue body minus marker
// and footer, with front-matter recording the remote identity as already
// synced. The document has no path; writing it to disk is the caller's
// decision.
func IssueToSpec(issue *tracker.Issue, now time.Time) *spec.Document {
	markdown := StripGenerated(issue.Body)

	fm := &spec.Frontmatter{
		SpecID:     ExtractSpecID(issue.Body),
		SyncHash:   spec.SyncHash(markdown),
		LastSync:   now.UTC(),
		SyncStatus: spec.StatusSynced,
		IssueType:  spec.TypeParent,
	}
	gh := fm.EnsureGitHub()
	gh.IssueNumber = issue.Number
	if !issue.UpdatedAt.IsZero() {
		gh.UpdatedAt = issue.UpdatedAt.UTC()
	}

	file := &spec.File{
		Filename:    spec.FileSpec,
		Frontmatter: fm,
		Markdown:    markdown,
	}
	return &spec.Document{
		Name:        SpecNameFromTitle(issue.Title),
		Files:       map[string]*spec.File{spec.FileSpec: file},
		IssueNumber: issue.Number,
	}
}

// SubtaskToFile projects a pulled subtask issue onto a spec file keyed by
// the kind its title encodes. The parent's number is recorded so writeback
// keeps the linkage. Returns nil when the title has no recognized prefix or
// encodes the parent kind.
func SubtaskToFile(issue *tracker.Issue, parentNumber int, now time.Time) *spec.File {
	kind, ok := KindFromTitle(issue.Title)
	if !ok || kind == spec.KindSpec {
		return nil
	}

	filename, ok := FilenameForKind(kind)
	if !ok {
		// Contract subtasks share one title per spec; key by slug, best
		// effort.
		filename = spec.ContractsDir + "/" + SpecNameFromTitle(issue.Title) + ".md"
	}

	markdown := StripGenerated(issue.Body)
	fm := &spec.Frontmatter{
		SpecID:     ExtractSpecID(issue.Body),
		SyncHash:   spec.SyncHash(markdown),
		LastSync:   now.UTC(),
		SyncStatus: spec.StatusSynced,
		IssueType:  spec.TypeSubtask,
	}
	gh := fm.EnsureGitHub()
	gh.IssueNumber = issue.Number
	if parentNumber > 0 {
		parent := parentNumber
		gh.ParentIssue = &parent
	}
	if !issue.UpdatedAt.IsZero() {
		gh.UpdatedAt = issue.UpdatedAt.UTC()
	}

	return &spec.File{
		Filename:    filename,
		Frontmatter: fm,
		Markdown:    markdown,
	}
}

// trimTitlePrefix removes the recognized kind prefix from a title, returning
// the remainder, the kind, and whether any prefix matched.
func trimTitlePrefix(title string) (string, spec.Kind, bool) {
	trimmed := strings.TrimSpace(title)
	for _, kind := range titleKinds {
		prefix := titlePrefixes[kind]
		if strings.HasPrefix(trimmed, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, prefix)), kind, true
		}
	}
	return trimmed, "", false
}
