package raster

import (
	"fmt"
	"strings"
)

// GeoTransform holds the six affine coefficients mapping pixel/line
// coordinates to georeferenced coordinates:
// origin X, pixel width, row rotation, origin Y, column rotation, pixel height.
type GeoTransform [6]float64

// OriginX returns the X coordinate of the top-left corner
func (gt GeoTransform) OriginX() float64 { return gt[0] }

// PixelWidth returns the pixel size along X
func (gt GeoTransform) PixelWidth() float64 { return gt[1] }

// OriginY returns the Y coordinate of the top-left corner
func (gt GeoTransform) OriginY() float64 { return gt[3] }

// PixelHeight returns the pixel size along Y (negative for north-up images)
func (gt GeoTransform) PixelHeight() float64 { return gt[5] }

// Point is a georeferenced coordinate pair
type Point struct {
	X, Y float64
}

// Quad is a closed quadrilateral: bottom-left, bottom-right, top-right,
// top-left. The first point is not repeated.
type Quad [4]Point

// Footprint computes the corners of a width x height raster. Rotation terms
// are ignored, matching a north-up overlay.
func (gt GeoTransform) Footprint(width, height int) Quad {
	left := gt.OriginX()
	top := gt.OriginY()
	right := left + float64(width)*gt.PixelWidth()
	bottom := top + float64(height)*gt.PixelHeight()

	return Quad{
		{X: left, Y: bottom},
		{X: right, Y: bottom},
		{X: right, Y: top},
		{X: left, Y: top},
	}
}

// String formats the quad as space-separated "lon,lat" pairs with 4 decimals
func (q Quad) String() string {
	pairs := make([]string, len(q))
	for i, p := range q {
		pairs[i] = fmt.Sprintf("%.4f,%.4f", p.X, p.Y)
	}
	return strings.Join(pairs, " ")
}
