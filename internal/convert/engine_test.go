package convert

import (
	"fmt"
	"os"
	"testing"

	"github.com/kiesman99/resample/internal/logging"
	"github.com/kiesman99/resample/pkg/raster"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// fakeDataset is an in-memory raster handle
type fakeDataset struct {
	path          string
	bands         int
	width, height int
	gt            raster.GeoTransform
	closed        bool
}

func (d *fakeDataset) BandCount() int { return d.bands }

func (d *fakeDataset) Size() (int, int) { return d.width, d.height }

func (d *fakeDataset) GeoTransform() (raster.GeoTransform, error) { return d.gt, nil }

func (d *fakeDataset) Close() error {
	if d.closed {
		return fmt.Errorf("close called more than once")
	}
	d.closed = true
	return nil
}

type translateCall struct {
	Src, Dst string
	Opts     raster.TranslateOptions
}

type warpCall struct {
	Src, Dst string
	Opts     raster.WarpOptions
}

// fakeEngine writes placeholder files to an afero filesystem and records
// every call
type fakeEngine struct {
	fs       afero.Fs
	rasters  map[string]*fakeDataset
	warpedGT raster.GeoTransform

	translateErr error
	warpErr      error
	partial      bool // write the destination before failing

	translates []translateCall
	warps      []warpCall
	opened     []*fakeDataset
}

func newFakeEngine(fs afero.Fs) *fakeEngine {
	return &fakeEngine{
		fs:       fs,
		rasters:  make(map[string]*fakeDataset),
		warpedGT: raster.GeoTransform{10.0, 1.0, 0.0, 50.0, 0.0, -1.0},
	}
}

// addRaster creates a decodable input file
func (e *fakeEngine) addRaster(t *testing.T, path string, bands, width, height int) {
	t.Helper()
	if err := afero.WriteFile(e.fs, path, []byte("raster"), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	e.rasters[path] = &fakeDataset{
		path:   path,
		bands:  bands,
		width:  width,
		height: height,
		gt:     raster.GeoTransform{500000, 30, 0, 4200000, 0, -30},
	}
}

func (e *fakeEngine) Open(path string) (raster.Dataset, error) {
	if _, err := e.fs.Stat(path); err != nil {
		return nil, err
	}
	d, ok := e.rasters[path]
	if !ok {
		return nil, errors.Errorf("%s: not recognized as a supported file format", path)
	}
	ds := *d
	e.opened = append(e.opened, &ds)
	return &ds, nil
}

func scaledSize(d *fakeDataset, width int) (int, int) {
	if width <= 0 {
		return d.width, d.height
	}
	return width, d.height * width / d.width
}

func (e *fakeEngine) Translate(src raster.Dataset, dst string, opts raster.TranslateOptions) error {
	d := src.(*fakeDataset)
	e.translates = append(e.translates, translateCall{Src: d.path, Dst: dst, Opts: opts})

	if e.translateErr != nil {
		if e.partial {
			afero.WriteFile(e.fs, dst, []byte("partial"), 0o644)
		}
		return e.translateErr
	}

	w, h := scaledSize(d, opts.Width)
	content := fmt.Sprintf("%s %dx%d", opts.Driver, w, h)
	if err := afero.WriteFile(e.fs, dst, []byte(content), 0o644); err != nil {
		return err
	}
	if opts.Driver == raster.DriverPNG {
		// the PNG driver stores georeferencing in a sidecar
		if err := afero.WriteFile(e.fs, dst+".aux.xml", []byte("<PAMDataset/>"), 0o644); err != nil {
			return err
		}
	}
	e.rasters[dst] = &fakeDataset{path: dst, bands: d.bands, width: w, height: h, gt: d.gt}
	return nil
}

func (e *fakeEngine) Warp(src raster.Dataset, dst string, opts raster.WarpOptions) error {
	d := src.(*fakeDataset)
	e.warps = append(e.warps, warpCall{Src: d.path, Dst: dst, Opts: opts})

	if e.warpErr != nil {
		if e.partial {
			afero.WriteFile(e.fs, dst, []byte("partial"), 0o644)
		}
		return e.warpErr
	}

	w, h := scaledSize(d, opts.Width)
	if err := afero.WriteFile(e.fs, dst, []byte("warped"), 0o644); err != nil {
		return err
	}
	bands := d.bands
	if opts.DstAlpha {
		bands++
	}
	e.rasters[dst] = &fakeDataset{path: dst, bands: bands, width: w, height: h, gt: e.warpedGT}
	return nil
}

// removeFailFs fails to remove selected paths
type removeFailFs struct {
	afero.Fs
	fail map[string]bool
}

func (f *removeFailFs) Remove(name string) error {
	if f.fail[name] {
		return &os.PathError{Op: "remove", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Remove(name)
}

func newTestConverter(t *testing.T, opts ...Option) (*Converter, *fakeEngine, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, dir := range []string{"/data", "/out"} {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}
	engine := newFakeEngine(fs)

	base := []Option{
		WithFs(fs),
		WithLogger(logging.Discard()),
		WithIDFunc(func() string { return "test" }),
	}
	return New(engine, append(base, opts...)...), engine, fs
}

// dirNames lists the entries of dir
func dirNames(t *testing.T, fs afero.Fs, dir string) []string {
	t.Helper()
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names
}
