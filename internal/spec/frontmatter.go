package spec

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// delimiter opens and closes a YAML front-matter block. It must be the
// entire first line of the file; content before it disables parsing and the
// whole file is treated as markdown.
const delimiter = "---"

// lastSyncLayout is the canonical on-disk timestamp format: UTC with
// millisecond precision.
const lastSyncLayout = "2006-01-02T15:04:05.000Z"

// utf8BOM is the byte-order mark sequence prepended by some editors to UTF-8
// files. It is stripped before parsing so delimiter detection is reliable.
const utf8BOM = "\xef\xbb\xbf"

// reSyncHash validates the stored change-detection hash.
var reSyncHash = regexp.MustCompile(`^[a-f0-9]{12}$`)

// Frontmatter is the typed YAML header of a spec file. Identity fields are
// optional at rest; the sync engine fills them on the first successful push
// and keeps them current afterwards.
type Frontmatter struct {
	// SpecID is the stable UUIDv4 identity of the file, lowercase.
	SpecID string
	// SyncHash is the first 12 hex chars of SHA-256 over the markdown body
	// as of the last successful sync.
	SyncHash string
	// LastSync is the time of the last successful sync. Zero when unset.
	LastSync time.Time
	// SyncStatus is draft, synced, or conflict. Empty when unset.
	SyncStatus SyncStatus
	// IssueType is parent or subtask. Empty when unset.
	IssueType IssueType
	// AutoSync gates participation in syncs. Nil means unset (defaults on).
	AutoSync *bool
	// GitHub, Jira, and Asana are the per-tracker sub-blocks. Unknown keys
	// inside them round-trip verbatim; only GitHub's typed fields are
	// interpreted by the reference adapter.
	GitHub *TrackerBlock
	Jira   *TrackerBlock
	Asana  *TrackerBlock
}

// TrackerBlock is a per-tracker front-matter sub-block. The typed fields
// cover the reference adapter; anything else is preserved in Extra in its
// original order for round-trip.
type TrackerBlock struct {
	IssueNumber int
	ParentIssue *int
	UpdatedAt   time.Time
	Labels      []string
	Assignees   []string
	Milestone   int
	Extra       []ExtraField
}

// ExtraField is one unknown tracker-block key kept verbatim.
type ExtraField struct {
	Key   string
	Value *yaml.Node
}

// IsZero reports whether no field of the block is set.
func (b *TrackerBlock) IsZero() bool {
	return b == nil ||
		(b.IssueNumber == 0 && b.ParentIssue == nil && b.UpdatedAt.IsZero() &&
			len(b.Labels) == 0 && len(b.Assignees) == 0 && b.Milestone == 0 &&
			len(b.Extra) == 0)
}

// IsZero reports whether the front-matter carries no data at all. A zero
// front-matter renders to the empty string so files without a header
// round-trip unchanged.
func (fm *Frontmatter) IsZero() bool {
	return fm == nil ||
		(fm.SpecID == "" && fm.SyncHash == "" && fm.LastSync.IsZero() &&
			fm.SyncStatus == "" && fm.IssueType == "" && fm.AutoSync == nil &&
			fm.GitHub.IsZero() && fm.Jira.IsZero() && fm.Asana.IsZero())
}

// AutoSyncEnabled reports the effective auto_sync value: true unless the key
// is present and false.
func (fm *Frontmatter) AutoSyncEnabled() bool {
	return fm == nil || fm.AutoSync == nil || *fm.AutoSync
}

// EnsureGitHub returns the github block, allocating it when absent.
func (fm *Frontmatter) EnsureGitHub() *TrackerBlock {
	if fm.GitHub == nil {
		fm.GitHub = &TrackerBlock{}
	}
	return fm.GitHub
}

// NormalizeSpecID validates s as a canonical 36-character UUIDv4 and returns
// it lowercased. Reads are case-insensitive; writes always use lowercase.
func NormalizeSpecID(s string) (string, error) {
	if len(s) != 36 {
		return "", fmt.Errorf("spec_id %q is not a 36-character UUID", s)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("spec_id %q is not a valid UUID: %w", s, err)
	}
	if u.Version() != 4 {
		return "", fmt.Errorf("spec_id %q is not version 4 (got version %d)", s, u.Version())
	}
	if u.Variant() != uuid.RFC4122 {
		return "", fmt.Errorf("spec_id %q does not use the RFC 4122 variant", s)
	}
	return strings.ToLower(s), nil
}

// MintSpecID returns a fresh lowercase UUIDv4 for a file that has never been
// synced.
func MintSpecID() string {
	return uuid.NewString()
}

// ParseFrontmatter splits raw file content into a validated Frontmatter and
// the markdown body.
//
// The block is recognized only when the first line is exactly "---"; the
// block ends at the next such line. Content before the opening delimiter, or
// a missing closing delimiter, makes the whole input markdown with a zero
// Frontmatter (lenient). YAML syntax errors and schema violations inside a
// recognized block are returned as errors; the caller surfaces them as a
// validation failure and skips the spec.
func ParseFrontmatter(content []byte) (*Frontmatter, string, error) {
	text := strings.TrimPrefix(string(content), utf8BOM)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	block, markdown, ok := splitFrontmatter(text)
	if !ok {
		return &Frontmatter{}, text, nil
	}

	fm, err := decodeFrontmatter(block)
	if err != nil {
		return nil, "", err
	}
	return fm, markdown, nil
}

// splitFrontmatter returns the YAML block without delimiters, the remaining
// body, and whether a complete block was found.
func splitFrontmatter(text string) (block, markdown string, ok bool) {
	if text != delimiter && !strings.HasPrefix(text, delimiter+"\n") {
		return "", "", false
	}
	rest := strings.TrimPrefix(text, delimiter)
	rest = strings.TrimPrefix(rest, "\n")

	// Closing delimiter: a line that is exactly "---".
	if rest == delimiter {
		return "", "", true
	}
	if strings.HasPrefix(rest, delimiter+"\n") {
		return "", strings.TrimPrefix(rest, delimiter+"\n"), true
	}
	idx := strings.Index(rest, "\n"+delimiter+"\n")
	if idx >= 0 {
		return rest[:idx+1], rest[idx+1+len(delimiter)+1:], true
	}
	if strings.HasSuffix(rest, "\n"+delimiter) {
		return rest[:len(rest)-len(delimiter)], "", true
	}
	return "", "", false
}

// decodeFrontmatter parses the YAML block and validates every recognized
// field. Unknown top-level keys are dropped; unknown tracker-block keys are
// preserved.
func decodeFrontmatter(block string) (*Frontmatter, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, fmt.Errorf("parsing front-matter YAML: %w", err)
	}

	fm := &Frontmatter{}
	if len(doc.Content) == 0 {
		return fm, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("front-matter must be a YAML mapping, got %s", nodeKindName(root.Kind))
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		value := root.Content[i+1]

		var err error
		switch key {
		case "spec_id":
			var raw string
			if err = value.Decode(&raw); err == nil {
				fm.SpecID, err = NormalizeSpecID(raw)
			}
		case "sync_hash":
			var raw string
			if err = value.Decode(&raw); err == nil && !reSyncHash.MatchString(raw) {
				err = fmt.Errorf("sync_hash %q must match [a-f0-9]{12}", raw)
			} else if err == nil {
				fm.SyncHash = raw
			}
		case "last_sync":
			fm.LastSync, err = decodeTime(value)
		case "sync_status":
			var raw string
			if err = value.Decode(&raw); err == nil {
				status := SyncStatus(raw)
				if !status.IsValid() {
					err = fmt.Errorf("sync_status %q must be draft, synced, or conflict", raw)
				} else {
					fm.SyncStatus = status
				}
			}
		case "issue_type":
			var raw string
			if err = value.Decode(&raw); err == nil {
				typ := IssueType(raw)
				if !typ.IsValid() {
					err = fmt.Errorf("issue_type %q must be parent or subtask", raw)
				} else {
					fm.IssueType = typ
				}
			}
		case "auto_sync":
			var b bool
			if err = value.Decode(&b); err == nil {
				fm.AutoSync = &b
			}
		case "github":
			fm.GitHub, err = decodeTrackerBlock(value)
		case "jira":
			fm.Jira, err = decodeTrackerBlock(value)
		case "asana":
			fm.Asana, err = decodeTrackerBlock(value)
		default:
			// Unknown top-level keys are stripped on write.
		}
		if err != nil {
			return nil, fmt.Errorf("front-matter field %q: %w", key, err)
		}
	}
	return fm, nil
}

// decodeTrackerBlock parses one per-tracker sub-block, keeping unknown keys
// in order.
func decodeTrackerBlock(node *yaml.Node) (*TrackerBlock, error) {
	if node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("tracker block must be a YAML mapping, got %s", nodeKindName(node.Kind))
	}

	b := &TrackerBlock{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]

		var err error
		switch key {
		case "issue_number":
			b.IssueNumber, err = decodePositiveInt(value, key)
		case "parent_issue":
			if value.Tag == "!!null" {
				b.ParentIssue = nil
				break
			}
			var n int
			if n, err = decodePositiveInt(value, key); err == nil {
				b.ParentIssue = &n
			}
		case "updated_at":
			b.UpdatedAt, err = decodeTime(value)
		case "labels":
			err = value.Decode(&b.Labels)
		case "assignees":
			err = value.Decode(&b.Assignees)
		case "milestone":
			err = value.Decode(&b.Milestone)
		default:
			b.Extra = append(b.Extra, ExtraField{Key: key, Value: value})
		}
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
	}
	return b, nil
}

func decodePositiveInt(node *yaml.Node, key string) (int, error) {
	var n int
	if err := node.Decode(&n); err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %d", key, n)
	}
	return n, nil
}

// decodeTime accepts RFC 3339 timestamps with or without fractional seconds
// and normalizes them to UTC.
func decodeTime(node *yaml.Node) (time.Time, error) {
	var raw string
	if err := node.Decode(&raw); err != nil {
		// yaml may have already typed the node as !!timestamp.
		var t time.Time
		if terr := node.Decode(&t); terr == nil {
			return t.UTC(), nil
		}
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is not RFC 3339: %w", raw, err)
	}
	return t.UTC(), nil
}

func nodeKindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}

// Render serializes the front-matter into its canonical on-disk block,
// delimiters included. Known keys appear in a fixed order; preserved unknown
// tracker keys follow the typed keys in their original order. A zero
// front-matter renders to the empty string.
func (fm *Frontmatter) Render() (string, error) {
	if fm.IsZero() {
		return "", nil
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	addScalar := func(key, value, tag string) {
		root.Content = append(root.Content,
			strNode(key),
			&yaml.Node{Kind: yaml.ScalarNode, Value: value, Tag: tag},
		)
	}

	if fm.SpecID != "" {
		addScalar("spec_id", fm.SpecID, "!!str")
	}
	if fm.SyncHash != "" {
		addScalar("sync_hash", fm.SyncHash, "!!str")
	}
	if !fm.LastSync.IsZero() {
		addScalar("last_sync", fm.LastSync.UTC().Format(lastSyncLayout), "!!str")
	}
	if fm.SyncStatus != "" {
		addScalar("sync_status", string(fm.SyncStatus), "!!str")
	}
	if fm.IssueType != "" {
		addScalar("issue_type", string(fm.IssueType), "!!str")
	}
	if fm.AutoSync != nil {
		addScalar("auto_sync", strconv.FormatBool(*fm.AutoSync), "!!bool")
	}
	for _, blk := range []struct {
		key   string
		block *TrackerBlock
	}{
		{"github", fm.GitHub},
		{"jira", fm.Jira},
		{"asana", fm.Asana},
	} {
		if blk.block.IsZero() {
			continue
		}
		root.Content = append(root.Content, strNode(blk.key), blk.block.renderNode())
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return "", fmt.Errorf("rendering front-matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("rendering front-matter: %w", err)
	}
	return delimiter + "\n" + buf.String() + delimiter + "\n", nil
}

// renderNode builds the YAML node for a tracker block: typed keys in fixed
// order, then preserved unknown keys.
func (b *TrackerBlock) renderNode() *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		node.Content = append(node.Content, strNode(key), value)
	}

	if b.IssueNumber > 0 {
		add("issue_number", intNode(b.IssueNumber))
	}
	if b.ParentIssue != nil {
		add("parent_issue", intNode(*b.ParentIssue))
	}
	if !b.UpdatedAt.IsZero() {
		add("updated_at", &yaml.Node{
			Kind: yaml.ScalarNode, Tag: "!!str",
			Value: b.UpdatedAt.UTC().Format(lastSyncLayout),
		})
	}
	if len(b.Labels) > 0 {
		add("labels", flowSeqNode(b.Labels))
	}
	if len(b.Assignees) > 0 {
		add("assignees", flowSeqNode(b.Assignees))
	}
	if b.Milestone > 0 {
		add("milestone", intNode(b.Milestone))
	}
	for _, extra := range b.Extra {
		add(extra.Key, extra.Value)
	}
	return node
}

// RenderFile concatenates the canonical front-matter block and the markdown
// body into the full on-disk content.
func RenderFile(fm *Frontmatter, markdown string) ([]byte, error) {
	block, err := fm.Render()
	if err != nil {
		return nil, err
	}
	return []byte(block + markdown), nil
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func intNode(n int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(n)}
}

// flowSeqNode renders a string list in flow style: [a, b].
func flowSeqNode(items []string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, item := range items {
		node.Content = append(node.Content, strNode(item))
	}
	return node
}
