package convert

import (
	"fmt"

	"github.com/kiesman99/resample/pkg/raster"
)

// UsageError reports missing or malformed arguments. No conversion is
// attempted.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

func usageErrorf(format string, args ...interface{}) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// InputError reports an input that is missing or cannot be read as a raster
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("GeoTIFF file (%s) does not exist!", e.Path)
	}
	return fmt.Sprintf("cannot read raster %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// ConversionError wraps an engine failure during one conversion step
type ConversionError struct {
	Op  string
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// CleanupError reports an intermediate file that could not be removed. It is
// logged as a warning and never fails a conversion.
type CleanupError struct {
	Path string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("remove %s: %v", e.Path, e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}

// UnsupportedBandCountError is returned for PNG and KML output when the input
// has neither 1 nor 3 bands
type UnsupportedBandCountError = raster.UnsupportedBandCountError
