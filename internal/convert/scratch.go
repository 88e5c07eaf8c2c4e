package convert

import (
	"log/slog"
	"os"

	"github.com/spf13/afero"
)

// scratch tracks intermediate files created during one conversion so they
// can be removed on every exit path
type scratch struct {
	fs     afero.Fs
	logger *slog.Logger
	paths  []string
}

func newScratch(fs afero.Fs, logger *slog.Logger) *scratch {
	return &scratch{fs: fs, logger: logger}
}

// track registers path for removal and returns it
func (s *scratch) track(path string) string {
	s.paths = append(s.paths, path)
	return path
}

// cleanup removes tracked files newest first. Files that were never created
// are skipped; other failures are logged and returned.
func (s *scratch) cleanup() []error {
	var errs []error
	for i := len(s.paths) - 1; i >= 0; i-- {
		path := s.paths[i]
		err := s.fs.Remove(path)
		if err == nil || os.IsNotExist(err) {
			continue
		}
		s.logger.Warn("failed to remove intermediate file", "path", path, "error", err)
		errs = append(errs, &CleanupError{Path: path, Err: err})
	}
	s.paths = nil
	return errs
}
