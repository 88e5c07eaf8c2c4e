// Package kml builds the ground-overlay document that places a reprojected
// image on a globe viewer.
package kml

import (
	"encoding/xml"
	"io"
	"path/filepath"
	"strings"

	"github.com/kiesman99/resample/pkg/raster"
	"github.com/pkg/errors"
	gokml "github.com/twpayne/go-kml"
)

// DefaultViewBoundScale is the icon view-bound scale written into overlays
const DefaultViewBoundScale = 0.75

// Overlay describes a single ground overlay
type Overlay struct {
	Name           string
	Href           string
	ViewBoundScale float64
	Quad           raster.Quad
}

// OverlayName derives the overlay name from the input raster path
func OverlayName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + " overlay"
}

// quadCoordinates returns a coordinates element holding lon,lat pairs with
// four decimals. kml.Coordinates writes the shortest exact representation.
func quadCoordinates(q raster.Quad) *gokml.SimpleElement {
	se := &gokml.SimpleElement{
		StartElement: xml.StartElement{Name: xml.Name{Local: "coordinates"}},
	}
	se.SetString(q.String())
	return se
}

// Element returns the overlay as a kml root element with the gx extension
// namespace
func (o *Overlay) Element() *gokml.CompoundElement {
	return gokml.GxKML(
		gokml.GroundOverlay(
			gokml.Name(o.Name),
			gokml.Icon(
				gokml.Href(o.Href),
				gokml.ViewBoundScale(o.ViewBoundScale),
			),
			gokml.GxLatLonQuad(quadCoordinates(o.Quad)),
		),
	)
}

// Encode writes the overlay as an indented UTF-8 KML document with an XML
// declaration
func (o *Overlay) Encode(w io.Writer) error {
	if err := o.Element().WriteIndent(w, "", "  "); err != nil {
		return errors.Wrap(err, "encode kml")
	}
	_, err := io.WriteString(w, "\n")
	return err
}
