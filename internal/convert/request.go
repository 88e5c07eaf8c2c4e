package convert

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kiesman99/resample/pkg/raster"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Request describes one conversion. It is built once from user input and
// never mutated.
type Request struct {
	Input  string
	Width  int
	Format raster.Format
	Output string
}

// ParseRequest builds a Request from the positional arguments
// <geotiff> <width> <format> <output>
func ParseRequest(args []string) (Request, error) {
	if len(args) != 4 {
		return Request{}, usageErrorf("expected 4 arguments (geotiff, width, format, output), got %d", len(args))
	}

	width, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil {
		return Request{}, usageErrorf("width (%s) is not an integer", args[1])
	}
	if width <= 0 {
		return Request{}, usageErrorf("width (%d) must be positive", width)
	}

	format, err := raster.ParseFormat(args[2])
	if err != nil {
		return Request{}, &UsageError{Message: err.Error()}
	}

	return Request{
		Input:  args[0],
		Width:  width,
		Format: format,
		Output: args[3],
	}, nil
}

// Validate checks the request against the filesystem before any conversion
// work starts
func (r Request) Validate(fs afero.Fs) error {
	if r.Width <= 0 {
		return usageErrorf("width (%d) must be positive", r.Width)
	}

	info, err := fs.Stat(r.Input)
	if err != nil {
		if os.IsNotExist(err) {
			return &InputError{Path: r.Input}
		}
		return &InputError{Path: r.Input, Err: errors.Wrap(err, "stat")}
	}
	if info.IsDir() {
		return &InputError{Path: r.Input, Err: errors.New("is a directory")}
	}

	if filepath.Ext(r.Output) == "" {
		return usageErrorf("Output file (%s) does not have an extension!", r.Output)
	}
	if samePath(r.Input, r.Output) || samePath(r.Input, r.ArtifactPath()) {
		return usageErrorf("Output file (%s) would overwrite the input", r.Output)
	}
	return nil
}

func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// ArtifactPath returns the path of the file the conversion produces. KML
// requests produce a .kmz archive next to the requested output.
func (r Request) ArtifactPath() string {
	if r.Format == raster.FormatKML {
		return r.stem() + ".kmz"
	}
	return r.Output
}

// stem returns the output path without its extension
func (r Request) stem() string {
	return strings.TrimSuffix(r.Output, filepath.Ext(r.Output))
}

// baseName returns the output file name without directory or extension
func (r Request) baseName() string {
	return filepath.Base(r.stem())
}
