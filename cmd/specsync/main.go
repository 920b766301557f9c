// Command specsync synchronizes Markdown spec documents with a remote
// issue tracker. See the internal/cli package for the command tree.
package main

import (
	"fmt"
	"os"

	"github.com/amondnet/spec-kit-sdk-sub001/internal/cli"
)

func main() {
	// Bare invocation prints a one-line banner; any arguments go through
	// the full command tree.
	if len(os.Args) <= 1 {
		fmt.Println("specsync - keep spec documents and tracker issues in lockstep")
		return
	}
	os.Exit(cli.Execute())
}
