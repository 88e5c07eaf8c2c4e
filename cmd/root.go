package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kiesman99/resample/internal/convert"
	"github.com/kiesman99/resample/internal/gdalengine"
	"github.com/kiesman99/resample/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const usageLine = "resample_geotiff <geotiff> <width> <format> <output>"

var cfgFile string

// errHelpShown signals that help was printed instead of running a conversion
var errHelpShown = errors.New("help shown")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   usageLine,
	Short: "Resample a GeoTIFF and convert it to GeoTIFF, JPEG, PNG or KML",
	Long: `resample_geotiff resamples a georeferenced raster to a target width,
keeping its aspect ratio, and writes it as GeoTIFF, JPEG, PNG or a KML ground
overlay packaged as KMZ.

Formats (case-insensitive): GEOTIFF, JPEG (or JPG), PNG, KML.

For KML the raster is reprojected to EPSG:4326 and the archive is written next
to <output> with a .kmz extension.

Examples:
  # Downsample to 1024 pixels wide as JPEG
  resample_geotiff scene.tif 1024 jpeg scene.jpg

  # PNG with transparent no-data and a world file
  resample_geotiff --worldfile scene.tif 800 png scene.png

  # Google Earth overlay, writes scene.kmz
  resample_geotiff scene.tif 2048 kml scene.kml

  # Start HTTP server
  resample_geotiff serve --port 8080`,
	Args:          cobra.ArbitraryArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			if err := cmd.Help(); err != nil {
				return err
			}
			return errHelpShown
		}
		return runConvert(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err == nil {
		return
	}

	if !errors.Is(err, errHelpShown) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var usageErr *convert.UsageError
		if errors.As(err, &usageErr) {
			fmt.Fprintln(os.Stderr, "Usage:", usageLine)
		}
	}
	os.Exit(1)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.resample_geotiff.yaml)")
	rootCmd.PersistentFlags().Bool("quiet", true, "suppress raster engine warnings")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text|json)")

	// Conversion options
	rootCmd.Flags().String("temp-dir", "", "directory for KML intermediates (default: next to the output)")
	rootCmd.Flags().BoolP("worldfile", "w", false, "write world file")
	rootCmd.Flags().Int("jpeg-quality", 0, "JPEG quality 1-100 (default: engine default)")
	rootCmd.Flags().Bool("keep-temp", false, "keep KML intermediates")

	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("temp-dir", rootCmd.Flags().Lookup("temp-dir"))
	viper.BindPFlag("worldfile", rootCmd.Flags().Lookup("worldfile"))
	viper.BindPFlag("jpeg-quality", rootCmd.Flags().Lookup("jpeg-quality"))
	viper.BindPFlag("keep-temp", rootCmd.Flags().Lookup("keep-temp"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".resample_geotiff" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".resample_geotiff")
	}

	// RESAMPLE_LOG_LEVEL, RESAMPLE_TEMP_DIR, ...
	viper.SetEnvPrefix("resample")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the process logger from the log flags
func newLogger(cmd *cobra.Command) *slog.Logger {
	return logging.New(viper.GetString("log-level"), viper.GetString("log-format"), cmd.ErrOrStderr())
}

// converterOptions returns the conversion settings shared by the CLI and the server
func converterOptions() []convert.Option {
	return []convert.Option{
		convert.WithWorldFile(viper.GetBool("worldfile")),
		convert.WithJPEGQuality(viper.GetInt("jpeg-quality")),
		convert.WithKeepIntermediates(viper.GetBool("keep-temp")),
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	req, err := convert.ParseRequest(args)
	if err != nil {
		return err
	}

	quality := viper.GetInt("jpeg-quality")
	if quality < 0 || quality > 100 {
		return &convert.UsageError{Message: fmt.Sprintf("jpeg-quality (%d) must be between 1 and 100", quality)}
	}

	logger := newLogger(cmd)
	engine := gdalengine.New(gdalengine.Config{
		Quiet:  viper.GetBool("quiet"),
		Logger: logger,
	})

	opts := append(converterOptions(),
		convert.WithLogger(logger),
		convert.WithTempDir(viper.GetString("temp-dir")),
	)
	conv := convert.New(engine, opts...)

	res, err := conv.Convert(cmd.Context(), req)
	if err != nil {
		return err
	}

	logger.Debug("wrote output", "path", res.Output, "format", res.Format.String())
	return nil
}
