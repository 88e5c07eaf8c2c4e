package raster

import (
	"fmt"
	"strconv"
	"strings"
)

// Format is an output format the converter can produce
type Format int

// Output format constants
const (
	FormatGeoTIFF Format = iota
	FormatJPEG
	FormatPNG
	FormatKML
)

// Formats lists every supported output format in display order
var Formats = []Format{FormatGeoTIFF, FormatJPEG, FormatPNG, FormatKML}

// ParseFormat converts a case-insensitive format name into a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GEOTIFF":
		return FormatGeoTIFF, nil
	case "JPEG", "JPG":
		return FormatJPEG, nil
	case "PNG":
		return FormatPNG, nil
	case "KML":
		return FormatKML, nil
	}
	return 0, fmt.Errorf("unknown format %q (want one of GeoTIFF, JPEG, JPG, PNG, KML)", s)
}

func (f Format) String() string {
	switch f {
	case FormatGeoTIFF:
		return "GeoTIFF"
	case FormatJPEG:
		return "JPEG"
	case FormatPNG:
		return "PNG"
	case FormatKML:
		return "KML"
	}
	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// Driver returns the engine driver that encodes the format's image.
// KML overlays carry a PNG image.
func (f Format) Driver() Driver {
	switch f {
	case FormatGeoTIFF:
		return DriverGTiff
	case FormatJPEG:
		return DriverJPEG
	default:
		return DriverPNG
	}
}

// Extension returns the file extension of the artifact written for the format
func (f Format) Extension() string {
	switch f {
	case FormatGeoTIFF:
		return ".tif"
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	case FormatKML:
		return ".kmz"
	}
	return ""
}

// ContentType returns the media type of the artifact written for the format
func (f Format) ContentType() string {
	switch f {
	case FormatGeoTIFF:
		return "image/tiff"
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatKML:
		return "application/vnd.google-earth.kmz"
	}
	return "application/octet-stream"
}

// Driver names an engine output driver
type Driver string

// Driver constants
const (
	DriverGTiff Driver = "GTiff"
	DriverJPEG  Driver = "JPEG"
	DriverPNG   Driver = "PNG"
)

// Resampling is a resampling kernel
type Resampling int

// Resampling constants
const (
	ResampleNearest Resampling = iota
	ResampleCubic
)

func (r Resampling) String() string {
	if r == ResampleCubic {
		return "cubic"
	}
	return "nearest"
}

// EPSG4326 is the geographic (WGS84 lon/lat) spatial reference
const EPSG4326 = "EPSG:4326"

// NoData holds one no-data value per band
type NoData []float64

// UnsupportedBandCountError is returned when a raster has a band count with no
// no-data convention
type UnsupportedBandCountError struct {
	Bands int
}

func (e *UnsupportedBandCountError) Error() string {
	return fmt.Sprintf("unsupported band count %d: only 1 or 3 band rasters are handled", e.Bands)
}

// NoDataForBands returns the no-data convention for a band count:
// single-band rasters use 0 and three-band rasters use 0 0 0.
func NoDataForBands(bands int) (NoData, error) {
	switch bands {
	case 1:
		return NoData{0}, nil
	case 3:
		return NoData{0, 0, 0}, nil
	}
	return nil, &UnsupportedBandCountError{Bands: bands}
}

// String joins the values with spaces, the form engine switches expect
func (nd NoData) String() string {
	return nd.join(" ")
}

// Display joins the values with commas
func (nd NoData) Display() string {
	return nd.join(",")
}

func (nd NoData) join(sep string) string {
	parts := make([]string, len(nd))
	for i, v := range nd {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, sep)
}

// TranslateOptions configures a resample and re-encode step
type TranslateOptions struct {
	Driver          Driver
	Width           int // 0 keeps the source size
	Resampling      Resampling
	NoData          NoData // nil leaves no-data unset
	CreationOptions []string
}

// WarpOptions configures a reprojection step
type WarpOptions struct {
	Width      int // 0 lets the engine pick the size
	Resampling Resampling
	SrcNoData  NoData
	DstSRS     string
	DstAlpha   bool
}
