// Package gdalengine implements raster.Engine on top of GDAL.
package gdalengine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/kiesman99/resample/pkg/raster"
	"github.com/pkg/errors"
)

var registerOnce sync.Once

// Config configures the engine
type Config struct {
	// Quiet drops GDAL warnings instead of logging them. Failures are
	// always reported as errors.
	Quiet  bool
	Logger *slog.Logger
}

// Engine is a GDAL backed raster engine
type Engine struct {
	quiet  bool
	logger *slog.Logger
}

// New registers the GDAL drivers on first use and returns an engine
func New(cfg Config) *Engine {
	registerOnce.Do(godal.RegisterAll)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		quiet:  cfg.Quiet,
		logger: logger,
	}
}

// handleError receives every message GDAL emits during an engine call.
// Without it godal turns warnings into errors.
func (e *Engine) handleError(ec godal.ErrorCategory, code int, msg string) error {
	if ec > godal.CE_Warning {
		return fmt.Errorf("gdal error %d: %s", code, msg)
	}
	if ec == godal.CE_Warning && !e.quiet {
		e.logger.Warn("gdal warning", "code", code, "message", msg)
		return nil
	}
	e.logger.Debug("gdal message", "category", int(ec), "code", code, "message", msg)
	return nil
}

// dataset wraps an opened GDAL dataset
type dataset struct {
	ds *godal.Dataset
	eh godal.ErrorHandler
}

func (d *dataset) BandCount() int {
	return d.ds.Structure().NBands
}

func (d *dataset) Size() (int, int) {
	st := d.ds.Structure()
	return st.SizeX, st.SizeY
}

func (d *dataset) GeoTransform() (raster.GeoTransform, error) {
	gt, err := d.ds.GeoTransform()
	if err != nil {
		return raster.GeoTransform{}, errors.Wrap(err, "read geotransform")
	}
	return raster.GeoTransform(gt), nil
}

func (d *dataset) Close() error {
	return d.ds.Close(godal.ErrLogger(d.eh))
}

// Open opens a raster file read-only
func (e *Engine) Open(path string) (raster.Dataset, error) {
	ds, err := godal.Open(path, godal.RasterOnly(), godal.ErrLogger(e.handleError))
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &dataset{ds: ds, eh: e.handleError}, nil
}

// Translate resamples and re-encodes src into dst
func (e *Engine) Translate(src raster.Dataset, dst string, opts raster.TranslateOptions) error {
	ds, err := unwrap(src)
	if err != nil {
		return err
	}

	out, err := ds.Translate(dst, opts.Switches(),
		godal.DriverName(opts.Driver), godal.ErrLogger(e.handleError))
	if err != nil {
		return errors.Wrapf(err, "translate to %s", dst)
	}
	// Closing flushes the output file
	return errors.Wrapf(out.Close(godal.ErrLogger(e.handleError)), "close %s", dst)
}

// Warp reprojects src into a GeoTIFF at dst
func (e *Engine) Warp(src raster.Dataset, dst string, opts raster.WarpOptions) error {
	ds, err := unwrap(src)
	if err != nil {
		return err
	}

	out, err := ds.Warp(dst, opts.Switches(), godal.GTiff, godal.ErrLogger(e.handleError))
	if err != nil {
		return errors.Wrapf(err, "warp to %s", dst)
	}
	return errors.Wrapf(out.Close(godal.ErrLogger(e.handleError)), "close %s", dst)
}

func unwrap(src raster.Dataset) (*godal.Dataset, error) {
	d, ok := src.(*dataset)
	if !ok {
		return nil, errors.Errorf("dataset %T was not opened by the gdal engine", src)
	}
	return d.ds, nil
}
