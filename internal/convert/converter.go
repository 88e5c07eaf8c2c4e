// Package convert resamples a georeferenced raster and re-encodes it as
// GeoTIFF, JPEG, PNG or a KMZ ground overlay.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/kiesman99/resample/pkg/raster"
	"github.com/spf13/afero"
)

// Converter dispatches a Request to the conversion path for its format
type Converter struct {
	engine            raster.Engine
	fs                afero.Fs
	logger            *slog.Logger
	newID             func() string
	tempDir           string
	worldFile         bool
	jpegQuality       int
	keepIntermediates bool
}

// Option configures a Converter
type Option func(*Converter)

// WithFs sets the filesystem used for validation, archives and cleanup. It
// must be the filesystem the engine writes to.
func WithFs(fs afero.Fs) Option {
	return func(c *Converter) { c.fs = fs }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) { c.logger = logger }
}

// WithIDFunc sets the provider of unique names for intermediate files
func WithIDFunc(fn func() string) Option {
	return func(c *Converter) { c.newID = fn }
}

// WithTempDir sets the directory for intermediate files. Empty means the
// output file's directory.
func WithTempDir(dir string) Option {
	return func(c *Converter) { c.tempDir = dir }
}

// WithWorldFile asks the engine to write a world file next to the output
func WithWorldFile(enabled bool) Option {
	return func(c *Converter) { c.worldFile = enabled }
}

// WithJPEGQuality sets the JPEG quality (1-100). Zero keeps the engine default.
func WithJPEGQuality(quality int) Option {
	return func(c *Converter) { c.jpegQuality = quality }
}

// WithKeepIntermediates leaves KML intermediates on disk
func WithKeepIntermediates(keep bool) Option {
	return func(c *Converter) { c.keepIntermediates = keep }
}

// New creates a converter around a raster engine
func New(engine raster.Engine, opts ...Option) *Converter {
	c := &Converter{
		engine: engine,
		fs:     afero.NewOsFs(),
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result describes a finished conversion
type Result struct {
	Output string
	Format raster.Format
}

// strategy converts an opened raster according to req
type strategy func(ctx context.Context, src raster.Dataset, req Request) error

// strategyFor maps every format to its conversion path
func (c *Converter) strategyFor(format raster.Format) (strategy, error) {
	switch format {
	case raster.FormatGeoTIFF:
		return c.toGeoTIFF, nil
	case raster.FormatJPEG:
		return c.toJPEG, nil
	case raster.FormatPNG:
		return c.toPNG, nil
	case raster.FormatKML:
		return c.toKMZ, nil
	}
	return nil, usageErrorf("unsupported output format %v", format)
}

// Convert validates req, opens the input and writes the requested artifact
func (c *Converter) Convert(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(c.fs); err != nil {
		return nil, err
	}
	convert, err := c.strategyFor(req.Format)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	output := req.ArtifactPath()
	logger := c.logger.With("input", req.Input, "format", req.Format.String(), "output", output)

	// a failed run only cleans up an output it created
	existed, err := afero.Exists(c.fs, output)
	if err != nil {
		existed = true
	}

	src, err := c.engine.Open(req.Input)
	if err != nil {
		return nil, &InputError{Path: req.Input, Err: err}
	}
	defer c.closeDataset(src, req.Input)

	width, height := src.Size()
	logger.Debug("opened input", "bands", src.BandCount(), "width", width, "height", height, "target_width", req.Width)

	if err := convert(ctx, src, req); err != nil {
		if !existed {
			c.removePartial(output)
		}
		return nil, err
	}

	logger.Debug("conversion complete")
	return &Result{Output: output, Format: req.Format}, nil
}

// toGeoTIFF resamples to the target width and re-encodes as GeoTIFF
func (c *Converter) toGeoTIFF(ctx context.Context, src raster.Dataset, req Request) error {
	opts := raster.TranslateOptions{
		Driver:     raster.DriverGTiff,
		Width:      req.Width,
		Resampling: raster.ResampleCubic,
	}
	if c.worldFile {
		opts.CreationOptions = append(opts.CreationOptions, "TFW=YES")
	}
	return c.translate(src, req.Output, opts)
}

// toJPEG resamples to the target width and re-encodes as JPEG
func (c *Converter) toJPEG(ctx context.Context, src raster.Dataset, req Request) error {
	opts := raster.TranslateOptions{
		Driver:     raster.DriverJPEG,
		Width:      req.Width,
		Resampling: raster.ResampleCubic,
	}
	if c.jpegQuality > 0 {
		opts.CreationOptions = append(opts.CreationOptions, fmt.Sprintf("QUALITY=%d", c.jpegQuality))
	}
	if c.worldFile {
		opts.CreationOptions = append(opts.CreationOptions, "WORLDFILE=YES")
	}
	return c.translate(src, req.Output, opts)
}

// toPNG resamples to the target width and re-encodes as PNG with the
// band-count no-data value so uncovered pixels render transparent
func (c *Converter) toPNG(ctx context.Context, src raster.Dataset, req Request) error {
	noData, err := raster.NoDataForBands(src.BandCount())
	if err != nil {
		return err
	}

	opts := raster.TranslateOptions{
		Driver:     raster.DriverPNG,
		Width:      req.Width,
		Resampling: raster.ResampleCubic,
		NoData:     noData,
	}
	if c.worldFile {
		opts.CreationOptions = append(opts.CreationOptions, "WORLDFILE=YES")
	}
	return c.translate(src, req.Output, opts)
}

func (c *Converter) translate(src raster.Dataset, dst string, opts raster.TranslateOptions) error {
	if err := c.engine.Translate(src, dst, opts); err != nil {
		return &ConversionError{Op: fmt.Sprintf("encode %s", opts.Driver), Err: err}
	}
	return nil
}

func (c *Converter) closeDataset(ds raster.Dataset, name string) {
	if err := ds.Close(); err != nil {
		c.logger.Warn("failed to close raster", "path", name, "error", err)
	}
}

// removePartial deletes an output left behind by a failed conversion
func (c *Converter) removePartial(path string) {
	err := c.fs.Remove(path)
	if err == nil {
		c.logger.Debug("removed partial output", "path", path)
		return
	}
	if !os.IsNotExist(err) {
		c.logger.Warn("failed to remove partial output", "path", path, "error", err)
	}
}
