package raster

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTranslateSwitches(t *testing.T) {
	testCases := []struct {
		name string
		opts TranslateOptions
		want []string
	}{
		{
			name: "resize only",
			opts: TranslateOptions{Driver: DriverGTiff, Width: 512, Resampling: ResampleCubic},
			want: []string{"-r", "cubic", "-outsize", "512", "0"},
		},
		{
			name: "png with rgb no-data",
			opts: TranslateOptions{Driver: DriverPNG, Width: 256, Resampling: ResampleCubic, NoData: NoData{0, 0, 0}},
			want: []string{"-r", "cubic", "-outsize", "256", "0", "-a_nodata", "0 0 0"},
		},
		{
			name: "keep size with creation options",
			opts: TranslateOptions{Driver: DriverJPEG, Resampling: ResampleCubic, CreationOptions: []string{"QUALITY=90", "WORLDFILE=YES"}},
			want: []string{"-r", "cubic", "-co", "QUALITY=90", "-co", "WORLDFILE=YES"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, tc.opts.Switches()); diff != "" {
				t.Errorf("Switches mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWarpSwitches(t *testing.T) {
	opts := WarpOptions{
		Width:      300,
		Resampling: ResampleCubic,
		SrcNoData:  NoData{0},
		DstSRS:     EPSG4326,
		DstAlpha:   true,
	}
	want := []string{"-r", "cubic", "-ts", "300", "0", "-srcnodata", "0", "-t_srs", "EPSG:4326", "-dstalpha"}
	if diff := cmp.Diff(want, opts.Switches()); diff != "" {
		t.Errorf("Switches mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"-r", "nearest"}, WarpOptions{}.Switches()); diff != "" {
		t.Errorf("Zero options mismatch (-want +got):\n%s", diff)
	}
}
