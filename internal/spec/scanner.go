package spec

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/logging"
)

// maxSpecFileSize is the maximum number of bytes read from a single spec
// file. Files larger than this limit are rejected to prevent memory
// exhaustion.
const maxSpecFileSize = 1 << 20 // 1 MiB

var logger = logging.New("scanner")

// Problem records a spec directory that could not be scanned, typically a
// front-matter validation failure. The failing spec is skipped; scanning
// continues with the others.
type Problem struct {
	// Dir is the spec directory basename.
	Dir string
	// Err is the underlying failure.
	Err error
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %v", p.Dir, p.Err)
}

// Scanner produces a deterministic, typed view of the local spec tree.
type Scanner struct {
	root   string
	ignore []string
}

// NewScanner creates a Scanner rooted at root (conventionally "specs").
// ignore holds doublestar glob patterns matched against directory basenames;
// matching directories are skipped during ScanAll.
func NewScanner(root string, ignore ...string) *Scanner {
	return &Scanner{root: root, ignore: ignore}
}

// Root returns the configured spec root directory.
func (s *Scanner) Root() string {
	return s.root
}

// ScanAll walks the spec root and returns one Document per immediate
// subdirectory that contains at least one Markdown file, ordered by
// directory name. Directories whose name starts with '.' or matches an
// ignore pattern are skipped. Per-directory validation failures are
// collected as Problems without aborting the walk. A missing root yields an
// empty result.
func (s *Scanner) ScanAll() ([]*Document, []Problem, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("spec root does not exist", "root", s.root)
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("reading spec root %q: %w", s.root, err)
	}

	var docs []*Document
	var problems []Problem
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if s.ignored(entry.Name()) {
			logger.Debug("skipping ignored spec directory", "dir", entry.Name())
			continue
		}
		doc, err := s.ScanDirectory(filepath.Join(s.root, entry.Name()))
		if err != nil {
			problems = append(problems, Problem{Dir: entry.Name(), Err: err})
			continue
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, problems, nil
}

// ignored reports whether a directory basename matches any ignore pattern.
// Malformed patterns never match.
func (s *Scanner) ignored(name string) bool {
	for _, pattern := range s.ignore {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// ScanDirectory reads one spec directory into a Document. It returns
// (nil, nil) when the path does not exist or contains no Markdown file, and
// an error when any file inside fails front-matter validation.
func (s *Scanner) ScanDirectory(path string) (*Document, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading spec directory %q: %w", path, err)
	}

	doc := &Document{
		Name:        filepath.Base(path),
		Path:        path,
		Files:       make(map[string]*File),
		IssueNumber: IssueNumberFromDir(filepath.Base(path)),
	}

	hasMarkdown := false
	for _, entry := range entries {
		if entry.Type()&fs.ModeSymlink != 0 {
			continue
		}
		if entry.IsDir() {
			if entry.Name() == ContractsDir {
				if err := s.scanContracts(doc, filepath.Join(path, ContractsDir)); err != nil {
					return nil, err
				}
			}
			continue
		}
		if !entry.Type().IsRegular() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		file, err := s.readSpecFile(filepath.Join(path, entry.Name()), entry.Name())
		if err != nil {
			return nil, err
		}
		doc.Files[entry.Name()] = file
		hasMarkdown = true
	}

	if !hasMarkdown {
		return nil, nil
	}
	return doc, nil
}

// scanContracts reads the contracts/ subdirectory one level deep. Every
// regular file is included keyed "contracts/<name>" regardless of extension.
func (s *Scanner) scanContracts(doc *Document, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading contracts directory %q: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || entry.Type()&fs.ModeSymlink != 0 || !entry.Type().IsRegular() {
			continue
		}
		key := ContractsDir + "/" + entry.Name()
		file, err := s.readSpecFile(filepath.Join(dir, entry.Name()), key)
		if err != nil {
			return err
		}
		doc.Files[key] = file
	}
	return nil
}

// readSpecFile reads and parses one file, enforcing the size limit.
func (s *Scanner) readSpecFile(path, filename string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening spec file %q: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	content, err := io.ReadAll(io.LimitReader(f, maxSpecFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading spec file %q: %w", path, err)
	}
	if len(content) > maxSpecFileSize {
		return nil, fmt.Errorf("spec file %q exceeds maximum size of %d bytes", path, maxSpecFileSize)
	}

	fm, markdown, err := ParseFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("spec file %q: %w", path, err)
	}

	return &File{
		Path:        path,
		Filename:    filename,
		Content:     content,
		Frontmatter: fm,
		Markdown:    markdown,
		Fingerprint: Fingerprint(content),
	}, nil
}

// FindSpecByIssueNumber returns the first document whose directory-name
// prefix parses to n, or failing that, the first whose spec.md front-matter
// carries github.issue_number == n. The directory-name match always wins.
func (s *Scanner) FindSpecByIssueNumber(n int) (*Document, error) {
	docs, _, err := s.ScanAll()
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if doc.IssueNumber == n {
			return doc, nil
		}
	}
	for _, doc := range docs {
		f := doc.SpecFile()
		if f == nil || f.Frontmatter == nil || f.Frontmatter.GitHub == nil {
			continue
		}
		if f.Frontmatter.GitHub.IssueNumber == n {
			return doc, nil
		}
	}
	return nil, nil
}

// GetSpecFile reads one file from a spec directory. It returns (nil, nil)
// when the file does not exist.
func (s *Scanner) GetSpecFile(dir, filename string) (*File, error) {
	path := filepath.Join(dir, filepath.FromSlash(filename))
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("checking spec file %q: %w", path, err)
	}
	return s.readSpecFile(path, filename)
}

// WriteSpecFile atomically replaces the file's on-disk content: the new
// bytes are written to a sibling temp file which is then renamed over the
// original. Parent directories are created as needed. When the on-disk
// content changed since the file was scanned, a warning is logged before
// overwriting.
func (s *Scanner) WriteSpecFile(file *File, newContent []byte) error {
	if current, err := os.ReadFile(file.Path); err == nil {
		if Fingerprint(current) != file.Fingerprint {
			logger.Warn("spec file changed on disk since scan, overwriting",
				"path", file.Path)
		}
	}

	dir := filepath.Dir(file.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating spec directory %q: %w", dir, err)
	}

	tmp := file.Path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating temp spec file %q: %w", tmp, err)
	}

	w := bufio.NewWriter(f)
	if _, err := w.Write(newContent); err != nil {
		f.Close()      //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("writing temp spec file %q: %w", tmp, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()      //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("flushing temp spec file %q: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("closing temp spec file %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, file.Path); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("renaming temp spec file to %q: %w", file.Path, err)
	}

	file.Content = newContent
	file.Fingerprint = Fingerprint(newContent)
	return nil
}

// CreateSpecDirectory creates a directory under the spec root, parents
// included. It is idempotent and returns the full path.
func (s *Scanner) CreateSpecDirectory(relative string) (string, error) {
	path := filepath.Join(s.root, relative)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("creating spec directory %q: %w", path, err)
	}
	return path, nil
}
