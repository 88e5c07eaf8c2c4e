package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/resample/internal/gdalengine"
	"github.com/kiesman99/resample/internal/server"
)

// Version is reported by the health endpoint
var Version = "dev"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for raster conversion API",
	Long: `Start an HTTP server that provides a REST API for raster conversion.

POST a raster to /api/v1/convert?width=<n>&format=<format>[&name=<name>] and
the converted file is returned in the response body.

Examples:
  # Start server on default port 8080
  resample_geotiff serve

  # Start server on custom port
  resample_geotiff serve --port 3000

  # Start server with custom bind address and upload limit
  resample_geotiff serve --bind 0.0.0.0 --port 8080 --max-upload 1073741824`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 5*time.Minute, "request timeout")
	serveCmd.Flags().Int64("max-upload", server.DefaultMaxUploadBytes, "maximum raster upload size in bytes")
	serveCmd.Flags().String("scratch-dir", "", "directory for per-request files (default: system temp dir)")

	// Bind flags to viper
	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("server.max-upload", serveCmd.Flags().Lookup("max-upload"))
	viper.BindPFlag("server.scratch-dir", serveCmd.Flags().Lookup("scratch-dir"))
}

func runServe(cmd *cobra.Command, args []string) error {
	bind := viper.GetString("server.bind")
	port := viper.GetInt("server.port")
	timeout := viper.GetDuration("server.timeout")

	addr := fmt.Sprintf("%s:%d", bind, port)
	logger := newLogger(cmd)

	engine := gdalengine.New(gdalengine.Config{
		Quiet:  viper.GetBool("quiet"),
		Logger: logger,
	})

	apiServer := server.NewServer(Version, engine, server.Config{
		Fs:             afero.NewOsFs(),
		ScratchRoot:    viper.GetString("server.scratch-dir"),
		MaxUploadBytes: viper.GetInt64("server.max-upload"),
		Logger:         logger,
		ConvertOptions: converterOptions(),
	})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.NewRouter(apiServer, timeout),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		fmt.Fprintf(cmd.ErrOrStderr(), "\nShutting down server...\n")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "Starting resample server on %s\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Health check: http://%s/api/v1/health\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Convert endpoint: http://%s/api/v1/convert\n", addr)

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %v", err)
	}

	return nil
}
