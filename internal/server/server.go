// Package server exposes the raster conversion over HTTP.
package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/kiesman99/resample/internal/convert"
	"github.com/kiesman99/resample/internal/logging"
	"github.com/kiesman99/resample/pkg/raster"
	"github.com/oapi-codegen/runtime"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// DefaultMaxUploadBytes limits the size of an uploaded raster
const DefaultMaxUploadBytes int64 = 512 << 20

// Config configures the conversion API
type Config struct {
	// Fs must be the filesystem the engine reads and writes
	Fs afero.Fs
	// ScratchRoot holds one directory per request
	ScratchRoot    string
	MaxUploadBytes int64
	Logger         *slog.Logger
	// ConvertOptions are applied to every conversion
	ConvertOptions []convert.Option
}

// Server serves the health and conversion endpoints
type Server struct {
	startTime   time.Time
	version     string
	engine      raster.Engine
	fs          afero.Fs
	scratchRoot string
	maxUpload   int64
	logger      *slog.Logger
	convertOpts []convert.Option
	newID       func() string
}

// NewServer creates a new server instance
func NewServer(version string, engine raster.Engine, cfg Config) *Server {
	s := &Server{
		startTime:   time.Now(),
		version:     version,
		engine:      engine,
		fs:          cfg.Fs,
		scratchRoot: cfg.ScratchRoot,
		maxUpload:   cfg.MaxUploadBytes,
		logger:      cfg.Logger,
		convertOpts: cfg.ConvertOptions,
		newID:       uuid.NewString,
	}
	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}
	if s.scratchRoot == "" {
		s.scratchRoot = os.TempDir()
	}
	if s.maxUpload <= 0 {
		s.maxUpload = DefaultMaxUploadBytes
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// NewRouter mounts the API under /api/v1 with the standard middleware stack
func NewRouter(s *Server, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(timeout))
	r.Use(s.requestLogger)

	// CORS middleware for API access
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.GetHealth)
		r.Post("/convert", s.Convert)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/v1/health", http.StatusMovedPermanently)
	})

	return r
}

// requestLogger stores a logger tagged with the request id in the request
// context
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), logger)))
	})
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())

	response := HealthResponse{
		Status:    Healthy,
		Timestamp: time.Now(),
		Uptime:    &uptime,
		Version:   &s.version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("failed to encode health response", "error", err)
	}
}

// Convert resamples the raster in the request body and responds with the
// converted artifact
func (s *Server) Convert(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	if requestID == "" {
		requestID = s.newID()
	}
	logger := logging.FromContext(r.Context())

	var width int
	if err := runtime.BindQueryParameter("form", true, true, "width", r.URL.Query(), &width); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, CodeValidation, err.Error(), &requestID)
		return
	}
	var formatParam string
	if err := runtime.BindQueryParameter("form", true, true, "format", r.URL.Query(), &formatParam); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, CodeValidation, err.Error(), &requestID)
		return
	}
	var name string
	if err := runtime.BindQueryParameter("form", true, false, "name", r.URL.Query(), &name); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, CodeValidation, err.Error(), &requestID)
		return
	}

	format, err := raster.ParseFormat(formatParam)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, CodeValidation, err.Error(), &requestID)
		return
	}
	name = artifactName(name)

	dir := filepath.Join(s.scratchRoot, "resample-"+s.newID())
	outDir := filepath.Join(dir, "out")
	if err := s.fs.MkdirAll(outDir, 0o755); err != nil {
		logger.Error("failed to create scratch directory", "path", dir, "error", err)
		s.writeErrorResponse(w, http.StatusInternalServerError, CodeConversion, "Internal server error", &requestID)
		return
	}
	defer func() {
		if err := s.fs.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove scratch directory", "path", dir, "error", err)
		}
	}()

	input := filepath.Join(dir, "input.tif")
	size, err := s.saveUpload(input, http.MaxBytesReader(w, r.Body, s.maxUpload))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeErrorResponse(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
				"Raster exceeds "+strconv.FormatInt(maxErr.Limit, 10)+" bytes", &requestID)
			return
		}
		logger.Error("failed to store upload", "error", err)
		s.writeErrorResponse(w, http.StatusBadRequest, CodeValidation, "Failed to read request body", &requestID)
		return
	}
	if size == 0 {
		s.writeErrorResponse(w, http.StatusBadRequest, CodeValidation, "Request body is empty", &requestID)
		return
	}

	req := convert.Request{
		Input:  input,
		Width:  width,
		Format: format,
		Output: filepath.Join(outDir, name+format.Extension()),
	}

	opts := make([]convert.Option, 0, len(s.convertOpts)+2)
	opts = append(opts, s.convertOpts...)
	opts = append(opts, convert.WithFs(s.fs), convert.WithLogger(logger))
	conv := convert.New(s.engine, opts...)

	res, err := conv.Convert(r.Context(), req)
	if err != nil {
		s.handleConversionError(w, logger, err, &requestID)
		return
	}

	data, err := afero.ReadFile(s.fs, res.Output)
	if err != nil {
		logger.Error("failed to read converted output", "path", res.Output, "error", err)
		s.writeErrorResponse(w, http.StatusInternalServerError, CodeConversion, "Internal server error", &requestID)
		return
	}

	w.Header().Set("Content-Type", res.Format.ContentType())
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(res.Output)}))
	w.Header().Set("X-Request-ID", requestID)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Error("failed to write response", "error", err)
	}
}

// saveUpload copies the request body to path and returns the number of bytes
// written
func (s *Server) saveUpload(path string, body io.Reader) (int64, error) {
	f, err := s.fs.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, "create upload file")
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return n, errors.Wrap(err, "write upload file")
	}
	return n, nil
}

// artifactName returns a safe base name for the converted file
func artifactName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return "output"
	}
	return name
}

// handleConversionError maps conversion failures to HTTP responses
func (s *Server) handleConversionError(w http.ResponseWriter, logger *slog.Logger, err error, requestID *string) {
	var usageErr *convert.UsageError
	if errors.As(err, &usageErr) {
		s.writeErrorResponse(w, http.StatusBadRequest, CodeValidation, usageErr.Error(), requestID)
		return
	}

	var inputErr *convert.InputError
	if errors.As(err, &inputErr) {
		s.writeErrorResponse(w, http.StatusUnprocessableEntity, CodeInput,
			"Request body is not a readable raster", requestID)
		return
	}

	var bandErr *convert.UnsupportedBandCountError
	if errors.As(err, &bandErr) {
		s.writeErrorResponse(w, http.StatusUnprocessableEntity, CodeInput, bandErr.Error(), requestID)
		return
	}

	logger.Error("conversion failed", "error", err)
	s.writeErrorResponse(w, http.StatusInternalServerError, CodeConversion, "Conversion failed", requestID)
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string, requestID *string) {
	response := ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestId: requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}
