//go:build gdal

package gdalengine

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/kiesman99/resample/pkg/raster"
)

func newTestEngine(t *testing.T, quiet bool) (*Engine, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(Config{Quiet: quiet, Logger: logger}), &buf
}

// writeTestRaster creates a single band GeoTIFF in lon/lat
func writeTestRaster(t *testing.T) string {
	t.Helper()
	New(Config{})
	path := filepath.Join(t.TempDir(), "scene.tif")
	ds, err := godal.Create(godal.GTiff, path, 1, godal.Byte, 20, 20)
	if err != nil {
		t.Fatalf("create test raster: %v", err)
	}
	sr, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		t.Fatalf("spatial ref: %v", err)
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		t.Fatalf("set spatial ref: %v", err)
	}
	if err := ds.SetGeoTransform([6]float64{10, 5, 0, 50, 0, -2.5}); err != nil {
		t.Fatalf("set geotransform: %v", err)
	}
	if err := ds.Close(); err != nil {
		t.Fatalf("close test raster: %v", err)
	}
	return path
}

func TestHandleError(t *testing.T) {
	testCases := []struct {
		name     string
		quiet    bool
		category godal.ErrorCategory
		wantErr  bool
		wantWarn bool
	}{
		{name: "warning quiet", quiet: true, category: godal.CE_Warning},
		{name: "warning logged", quiet: false, category: godal.CE_Warning, wantWarn: true},
		{name: "debug", quiet: false, category: godal.CE_Debug},
		{name: "failure quiet", quiet: true, category: godal.CE_Failure, wantErr: true},
		{name: "failure", quiet: false, category: godal.CE_Failure, wantErr: true},
		{name: "fatal", quiet: true, category: godal.CE_Fatal, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, logs := newTestEngine(t, tc.quiet)
			err := e.handleError(tc.category, 6, "something happened")
			if (err != nil) != tc.wantErr {
				t.Fatalf("handleError() error = %v, wantErr %v", err, tc.wantErr)
			}
			warned := strings.Contains(logs.String(), "level=WARN")
			if warned != tc.wantWarn {
				t.Errorf("warn logged = %v, want %v (logs: %s)", warned, tc.wantWarn, logs.String())
			}
		})
	}
}

func TestOpen(t *testing.T) {
	e, _ := newTestEngine(t, true)
	ds, err := e.Open(writeTestRaster(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer ds.Close()

	if got := ds.BandCount(); got != 1 {
		t.Errorf("BandCount() = %d, want 1", got)
	}
	if w, h := ds.Size(); w != 20 || h != 20 {
		t.Errorf("Size() = %dx%d, want 20x20", w, h)
	}
	gt, err := ds.GeoTransform()
	if err != nil {
		t.Fatalf("GeoTransform() error = %v", err)
	}
	if gt != (raster.GeoTransform{10, 5, 0, 50, 0, -2.5}) {
		t.Errorf("GeoTransform() = %v", gt)
	}
}

func TestOpenMissing(t *testing.T) {
	e, _ := newTestEngine(t, true)
	if _, err := e.Open(filepath.Join(t.TempDir(), "missing.tif")); err == nil {
		t.Fatal("Open() of a missing file succeeded")
	}
}

// An unknown creation option makes GDAL emit a warning. godal fails such
// calls unless a handler accepts the warning.
func TestTranslateWarning(t *testing.T) {
	for _, quiet := range []bool{true, false} {
		e, logs := newTestEngine(t, quiet)
		src, err := e.Open(writeTestRaster(t))
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}

		dst := filepath.Join(t.TempDir(), "out.tif")
		err = e.Translate(src, dst, raster.TranslateOptions{
			Driver:          raster.DriverGTiff,
			Width:           10,
			Resampling:      raster.ResampleCubic,
			CreationOptions: []string{"INVALID_OPT=BAR"},
		})
		src.Close()
		if err != nil {
			t.Fatalf("quiet=%v: Translate() error = %v", quiet, err)
		}
		if _, err := os.Stat(dst); err != nil {
			t.Errorf("quiet=%v: output not written: %v", quiet, err)
		}

		warned := strings.Contains(logs.String(), "gdal warning")
		if warned == quiet {
			t.Errorf("quiet=%v: warning logged = %v (logs: %s)", quiet, warned, logs.String())
		}
	}
}

func TestTranslateResizes(t *testing.T) {
	e, _ := newTestEngine(t, true)
	src, err := e.Open(writeTestRaster(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	dst := filepath.Join(t.TempDir(), "out.png")
	err = e.Translate(src, dst, raster.TranslateOptions{
		Driver:     raster.DriverPNG,
		Width:      10,
		Resampling: raster.ResampleCubic,
		NoData:     raster.NoData{0},
	})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}

	out, err := e.Open(dst)
	if err != nil {
		t.Fatalf("Open(output) error = %v", err)
	}
	defer out.Close()
	if w, h := out.Size(); w != 10 || h != 10 {
		t.Errorf("output size = %dx%d, want 10x10", w, h)
	}
}

func TestTranslateFailure(t *testing.T) {
	e, _ := newTestEngine(t, true)
	src, err := e.Open(writeTestRaster(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	err = e.Translate(src, "/this/path/does/not/exist/out.tif", raster.TranslateOptions{
		Driver: raster.DriverGTiff,
	})
	if err == nil {
		t.Fatal("Translate() into a missing directory succeeded")
	}
}

func TestWarp(t *testing.T) {
	e, _ := newTestEngine(t, true)
	src, err := e.Open(writeTestRaster(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	dst := filepath.Join(t.TempDir(), "warped.tif")
	err = e.Warp(src, dst, raster.WarpOptions{
		Width:      10,
		Resampling: raster.ResampleCubic,
		SrcNoData:  raster.NoData{0},
		DstSRS:     raster.EPSG4326,
		DstAlpha:   true,
	})
	if err != nil {
		t.Fatalf("Warp() error = %v", err)
	}

	out, err := e.Open(dst)
	if err != nil {
		t.Fatalf("Open(output) error = %v", err)
	}
	defer out.Close()
	if got := out.BandCount(); got != 2 {
		t.Errorf("BandCount() = %d, want 2 (gray + alpha)", got)
	}
	if w, _ := out.Size(); w != 10 {
		t.Errorf("output width = %d, want 10", w)
	}
}

func TestWarpFailure(t *testing.T) {
	e, _ := newTestEngine(t, true)
	src, err := e.Open(writeTestRaster(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	err = e.Warp(src, "/this/path/does/not/exist/out.tif", raster.WarpOptions{
		DstSRS: raster.EPSG4326,
	})
	if err == nil {
		t.Fatal("Warp() into a missing directory succeeded")
	}
}

type foreignDataset struct{ raster.Dataset }

func TestTranslateForeignDataset(t *testing.T) {
	e, _ := newTestEngine(t, true)
	err := e.Translate(foreignDataset{}, filepath.Join(t.TempDir(), "out.tif"), raster.TranslateOptions{
		Driver: raster.DriverGTiff,
	})
	if err == nil {
		t.Fatal("Translate() accepted a dataset from another engine")
	}
}
