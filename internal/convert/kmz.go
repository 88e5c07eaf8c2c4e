package convert

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kiesman99/resample/internal/kml"
	"github.com/kiesman99/resample/pkg/raster"
	"github.com/pkg/errors"
)

// toKMZ reprojects src to geographic coordinates, exports it as PNG, writes a
// ground overlay describing its footprint and bundles both into a .kmz.
// Intermediates are removed on every exit path.
func (c *Converter) toKMZ(ctx context.Context, src raster.Dataset, req Request) error {
	noData, err := raster.NoDataForBands(src.BandCount())
	if err != nil {
		return err
	}

	dir := c.tempDir
	if dir == "" {
		dir = filepath.Dir(req.Output)
	}
	base := req.baseName()
	stem := filepath.Join(dir, fmt.Sprintf("%s_%s", base, c.newID()))

	work := newScratch(c.fs, c.logger)
	defer func() {
		if c.keepIntermediates {
			c.logger.Info("keeping intermediate files", "paths", work.paths)
			return
		}
		work.cleanup()
	}()

	// Reproject first; the PNG driver cannot be a warp target
	warped := work.track(stem + ".tif")
	err = c.engine.Warp(src, warped, raster.WarpOptions{
		Width:      req.Width,
		Resampling: raster.ResampleCubic,
		SrcNoData:  noData,
		DstSRS:     raster.EPSG4326,
		DstAlpha:   true,
	})
	if err != nil {
		return &ConversionError{Op: "reproject to " + raster.EPSG4326, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	reprojected, err := c.engine.Open(warped)
	if err != nil {
		return &ConversionError{Op: "open reprojected raster", Err: err}
	}
	defer c.closeDataset(reprojected, warped)

	image := work.track(stem + ".png")
	work.track(image + ".aux.xml")
	err = c.translate(reprojected, image, raster.TranslateOptions{
		Driver:     raster.DriverPNG,
		Resampling: raster.ResampleCubic,
	})
	if err != nil {
		return err
	}

	gt, err := reprojected.GeoTransform()
	if err != nil {
		return &ConversionError{Op: "read geotransform", Err: err}
	}
	width, height := reprojected.Size()

	overlay := &kml.Overlay{
		Name:           kml.OverlayName(req.Input),
		Href:           base + ".png",
		ViewBoundScale: kml.DefaultViewBoundScale,
		Quad:           gt.Footprint(width, height),
	}
	doc := work.track(stem + ".kml")
	if err := c.writeOverlay(doc, overlay); err != nil {
		return &ConversionError{Op: "write kml", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err = writeKMZ(c.fs, req.ArtifactPath(), []archiveEntry{
		{Name: base + ".kml", Path: doc},
		{Name: base + ".png", Path: image},
	})
	if err != nil {
		return &ConversionError{Op: "write kmz", Err: err}
	}
	return nil
}

func (c *Converter) writeOverlay(path string, overlay *kml.Overlay) (err error) {
	f, err := c.fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()
	return overlay.Encode(f)
}
