package biasfield

import (
	"os"
	"path/filepath"

	"github.com/carbocation/pfx"
)

// Scratch is the working directory for one pipeline run. Everything the
// run exchanges with external estimators (NIfTI images, tool output) lives
// under it, and Close removes the whole tree unless the run was asked to
// keep it for inspection.
type Scratch struct {
	dir  string
	keep bool
}

// NewScratch creates a fresh scratch directory. parent may be empty, in
// which case the system temp directory is used.
func NewScratch(parent string, keep bool) (*Scratch, error) {
	dir, err := os.MkdirTemp(parent, "dwibiascorrect-*")
	if err != nil {
		return nil, pfx.Err(err)
	}

	return &Scratch{dir: dir, keep: keep}, nil
}

// Dir returns the scratch directory itself.
func (s *Scratch) Dir() string {
	return s.dir
}

// Path returns the location of a named file within the scratch directory.
func (s *Scratch) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Close removes the scratch directory and all of its contents. When the
// scratch was created with keep set, Close leaves the directory in place so
// intermediate images survive the run.
func (s *Scratch) Close() error {
	if s.keep {
		return nil
	}

	return os.RemoveAll(s.dir)
}
