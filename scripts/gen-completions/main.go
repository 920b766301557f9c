// Command gen-completions generates shell completion scripts for all supported
// shells (bash, zsh, fish, powershell) and writes them to an output directory.
// GoReleaser runs this program as a before hook so release archives ship a
// populated completions/ directory.
//
// Usage:
//
//	go run ./scripts/gen-completions [output-dir]
//
// The default output directory is "completions".
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/cli"
)

func main() {
	outDir := "completions"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}
	if err := run(outDir); err != nil {
		fmt.Fprintln(os.Stderr, "gen-completions:", err)
		os.Exit(1)
	}
}

func run(outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir %q: %w", outDir, err)
	}

	root := cli.NewRootCmd()

	shells := []struct {
		name     string
		filename string
		generate func(w io.Writer) error
	}{
		{"bash", "specsync.bash", func(w io.Writer) error { return root.GenBashCompletionV2(w, true) }},
		{"zsh", "_specsync", root.GenZshCompletion},
		{"fish", "specsync.fish", func(w io.Writer) error { return root.GenFishCompletion(w, true) }},
		{"powershell", "specsync.ps1", root.GenPowerShellCompletionWithDesc},
	}

	for _, sh := range shells {
		path := filepath.Join(outDir, sh.filename)
		if err := writeScript(path, sh.generate); err != nil {
			return fmt.Errorf("%s completion: %w", sh.name, err)
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

// writeScript creates path and streams one completion script into it.
func writeScript(path string, generate func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := generate(f); err != nil {
		f.Close() //nolint:errcheck // the generate error is the one worth reporting
		return err
	}
	return f.Close()
}
