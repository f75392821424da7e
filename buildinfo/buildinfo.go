// Package buildinfo records how the running binary was built. Importing it
// blank from a main package prints the summary to stderr at startup, so
// every processing log begins with the exact toolchain and commit that
// produced its outputs.
package buildinfo

import (
	"fmt"
	"os"
	"runtime/debug"
)

func init() {
	fmt.Fprintln(os.Stderr, Summary())
}

// Summary describes the module path, Go version, and VCS state stamped into
// the binary by the linker.
func Summary() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "This binary carries no build information."
	}

	commit, commitTime, modified := "unknown", "unknown", false
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value
		case "vcs.time":
			commitTime = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}

	mod := ""
	if modified {
		mod = " Files in the repo were modified after that commit."
	}

	return fmt.Sprintf("This %s binary was built with %s at commit %v at time %v.%s", bi.Path, bi.GoVersion, commit, commitTime, mod)
}
