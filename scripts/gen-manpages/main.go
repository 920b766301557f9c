// Command gen-manpages generates Unix man pages for specsync and all its
// subcommands using cobra's doc package. GoReleaser runs this program as a
// before hook so release archives ship a populated man/man1/ directory.
//
// Usage:
//
//	go run ./scripts/gen-manpages [output-dir]
//
// The default output directory is "man/man1".
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra/doc"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/buildinfo"
	"github.com/amondnet/spec-kit-sdk-sub001/internal/cli"
)

func main() {
	outDir := "man/man1"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}
	if err := run(outDir); err != nil {
		fmt.Fprintln(os.Stderr, "gen-manpages:", err)
		os.Exit(1)
	}
}

func run(outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir %q: %w", outDir, err)
	}

	header := &doc.GenManHeader{
		Title:   "SPECSYNC",
		Section: "1",
		Source:  "specsync " + buildinfo.Version,
		Manual:  "Specsync Manual",
	}
	if err := doc.GenManTree(cli.NewRootCmd(), header, outDir); err != nil {
		return fmt.Errorf("generating man pages: %w", err)
	}

	pages, err := filepath.Glob(filepath.Join(outDir, "*.1"))
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d man pages to %s/\n", len(pages), outDir)
	return nil
}
