// Command gridslicer slices layered sprite sheets into per-cell PNGs.
package main

import (
	"github.com/setanarut/gridslicer/internal/cli"
)

// Set by the release build via ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Execute(cli.NewRootCommand())
}
