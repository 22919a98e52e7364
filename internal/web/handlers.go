package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/contactimport/internal/core"
	"github.com/JonMunkholm/contactimport/internal/logging"
)

// multipartMemory is how much of a multipart form is buffered in memory
// before spilling to temp files.
const multipartMemory = 8 << 20

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status  string             `json:"status"`
	XLSX    bool               `json:"xlsx"`
	Events  string             `json:"events"`
	Imports core.LimiterStatus `json:"imports"`
}

// healthChecker is implemented by event publishers that hold a connection.
type healthChecker interface {
	Healthy() bool
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		XLSX:    core.CurrentCapabilities().Spreadsheet,
		Events:  "disabled",
		Imports: s.importer.LimiterStatus(),
	}
	if s.events != nil {
		resp.Events = "ok"
		if hc, ok := s.events.(healthChecker); ok && !hc.Healthy() {
			// Imports still work without the broker.
			resp.Events = "unavailable"
			resp.Status = "degraded"
		}
	}
	writeJSON(w, resp)
}

func (s *Server) handleListModes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"modes":   core.Modes(),
		"default": s.defaultMode(),
		"columns": core.KnownColumns(),
	})
}

// handleImport runs an import from a multipart upload: form field "file"
// holds the document and "mode" selects create, update or both.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartMemory)

	data, fileName, err := readUpload(r, maxSize)
	if err != nil {
		respondError(w, r, err)
		return
	}

	mode := s.defaultMode()
	if raw := r.FormValue("mode"); raw != "" {
		if mode, err = core.ParseMode(raw); err != nil {
			respondError(w, r, err)
			return
		}
	}

	report, err := s.importer.Import(r.Context(), data, fileName, mode)
	if report != nil {
		// Rows may already be written even when the run was cut short, so the
		// report is kept either way.
		s.saveReport(r, report)
		w.Header().Set("Location", "/api/imports/"+report.ID)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	if s.events != nil {
		if err := s.events.PublishImportFinished(r.Context(), report); err != nil {
			logging.FromContext(r.Context()).Warn("failed to publish import event",
				"import_id", report.ID,
				"error", err,
			)
		}
	}

	writeJSONStatus(w, http.StatusCreated, report)
}

// saveReport stores report, logging failures. The import has already been
// applied, so a storage problem never fails the request.
func (s *Server) saveReport(r *http.Request, report *core.ImportReport) {
	if err := s.reports.Save(r.Context(), report); err != nil {
		logging.FromContext(r.Context()).Warn("failed to store import report",
			"import_id", report.ID,
			"error", err,
		)
	}
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	report, err := s.reports.Get(r.Context(), chi.URLParam(r, "importID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, report)
}

// defaultMode returns the configured default, falling back to core.DefaultMode.
func (s *Server) defaultMode() core.ImportMode {
	mode, err := core.ParseMode(s.cfg.Import.DefaultMode)
	if err != nil {
		return core.DefaultMode
	}
	return mode
}

// readUpload extracts the "file" part of a multipart request.
func readUpload(r *http.Request, maxSize int64) ([]byte, string, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxSize)
		}
		return nil, "", fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("%w: please upload a file", core.ErrNoFile)
	}
	defer file.Close()

	if header.Size > maxSize {
		return nil, "", fmt.Errorf("%w: %d bytes exceeds limit of %d", core.ErrFileTooLarge, header.Size, maxSize)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	return data, header.Filename, nil
}
