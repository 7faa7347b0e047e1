package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzip"

	"skylog/internal/core"
	"skylog/internal/export"
	"skylog/internal/types"
)

// ExportStore provides the full record set for export renders.
type ExportStore interface {
	ListAll(ctx context.Context) ([]*types.WeatherQuery, error)
}

// Renderer renders a record set into one of the supported download formats.
// Implemented by *export.Exporter.
type Renderer interface {
	Export(format export.Format, queries []*types.WeatherQuery) (*export.Result, error)
}

// ExportHandler serves the four export download endpoints under
// /api/export/{format}.
type ExportHandler struct {
	store    ExportStore
	exporter Renderer
	logger   *slog.Logger
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(store ExportStore, exporter Renderer, logger *slog.Logger) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{
		store:    store,
		exporter: exporter,
		logger:   logger,
	}
}

// RegisterRoutes mounts export routes on the provided chi.Router.
func (h *ExportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/export", func(r chi.Router) {
		r.Get("/{format}", h.Export)
	})
}

// Export handles GET /api/export/{format}. The response is an attachment;
// bodies are gzip-compressed when the client advertises support and the
// format is not already compressed (PDF has its own internal compression).
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := export.Format(strings.ToLower(chi.URLParam(r, "format")))
	if !export.IsValidFormat(format) {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationFailed,
			fmt.Sprintf("unsupported export format %q, use json, csv, pdf, or xml", format), nil))
		return
	}

	queries, err := h.store.ListAll(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}

	result, err := h.exporter.Export(format, queries)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename=`+result.Filename)

	if format != export.FormatPDF && acceptsGzip(r) {
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(http.StatusOK)

		gz := gzip.NewWriter(w)
		if _, err := gz.Write(result.Data); err != nil {
			h.logger.ErrorContext(r.Context(), "export write failed", "format", format, "error", err)
			return
		}
		if err := gz.Close(); err != nil {
			h.logger.ErrorContext(r.Context(), "export gzip flush failed", "format", format, "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		h.logger.ErrorContext(r.Context(), "export write failed", "format", format, "error", err)
	}
}

// acceptsGzip reports whether the request advertises gzip support.
func acceptsGzip(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.SplitN(enc, ";", 2)[0]) == "gzip" {
			return true
		}
	}
	return false
}
