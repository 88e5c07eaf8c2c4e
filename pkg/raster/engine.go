// Package raster defines the contract between the converter and the raster
// engine that decodes, resamples, reprojects and encodes images, together
// with the small value types both sides share.
package raster

// Dataset is an opened raster
type Dataset interface {
	BandCount() int
	Size() (width, height int)
	GeoTransform() (GeoTransform, error)
	Close() error
}

// Engine performs the file format work. Translate and Warp write dst and
// return once the file is complete.
type Engine interface {
	Open(path string) (Dataset, error)
	Translate(src Dataset, dst string, opts TranslateOptions) error
	Warp(src Dataset, dst string, opts WarpOptions) error
}
