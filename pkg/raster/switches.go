package raster

import "strconv"

// Switches returns the gdal_translate command-line switches for the options.
// The output driver is passed separately.
func (o TranslateOptions) Switches() []string {
	switches := []string{"-r", o.Resampling.String()}
	if o.Width > 0 {
		// a zero height keeps the aspect ratio
		switches = append(switches, "-outsize", strconv.Itoa(o.Width), "0")
	}
	if len(o.NoData) > 0 {
		switches = append(switches, "-a_nodata", o.NoData.String())
	}
	for _, co := range o.CreationOptions {
		switches = append(switches, "-co", co)
	}
	return switches
}

// Switches returns the gdalwarp command-line switches for the options
func (o WarpOptions) Switches() []string {
	switches := []string{"-r", o.Resampling.String()}
	if o.Width > 0 {
		switches = append(switches, "-ts", strconv.Itoa(o.Width), "0")
	}
	if len(o.SrcNoData) > 0 {
		switches = append(switches, "-srcnodata", o.SrcNoData.String())
	}
	if o.DstSRS != "" {
		switches = append(switches, "-t_srs", o.DstSRS)
	}
	if o.DstAlpha {
		switches = append(switches, "-dstalpha")
	}
	return switches
}
