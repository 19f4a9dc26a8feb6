package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sheetscan/sheetscan/internal/domain"
	"github.com/sheetscan/sheetscan/internal/intake"
	"github.com/sheetscan/sheetscan/internal/records"
	"github.com/sheetscan/sheetscan/internal/scan"
)

// maxUploadBytes bounds one batch upload.
const maxUploadBytes = 256 << 20

// RecordDTO is the API shape of one record.
type RecordDTO struct {
	ID          string          `json:"id"`
	Variant     string          `json:"variant"`
	Fields      domain.FieldSet `json:"fields"`
	Confidence  float64         `json:"confidence"`
	SourceImage string          `json:"sourceImage"`
	GroupID     string          `json:"groupId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func toDTO(record domain.Record) RecordDTO {
	return RecordDTO{
		ID:          record.ID.String(),
		Variant:     string(record.Variant),
		Fields:      record.Fields,
		Confidence:  record.Confidence,
		SourceImage: record.SourceImage,
		GroupID:     record.GroupID,
		CreatedAt:   record.CreatedAt,
	}
}

// BatchReportDTO is the API shape of one batch run.
type BatchReportDTO struct {
	Total       int    `json:"total"`
	Failed      int    `json:"failed"`
	Disposition string `json:"disposition"`
	ElapsedMS   int64  `json:"elapsedMs"`
	Error       string `json:"error,omitempty"`
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	variant, err := domain.ParseVariant(r.URL.Query().Get("variant"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid variant", err)
		return
	}

	matched := s.store.FilterByVariant(variant)
	dtos := make([]RecordDTO, 0, len(matched))
	for _, record := range matched {
		dtos = append(dtos, toDTO(record))
	}
	s.writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid record id", err)
		return
	}

	// Deleting an absent id is a no-op, not an error.
	s.store.DeleteByID(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateFields(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid record id", err)
		return
	}

	record, err := s.store.Get(id)
	if errors.Is(err, records.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "record not found", err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	fields, err := domain.DecodeFieldSet(record.Variant, body)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid field payload", err)
		return
	}

	if err := s.store.UpdateFields(id, fields); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "record not found", err)
			return
		}
		s.writeError(w, http.StatusConflict, "field update rejected", err)
		return
	}

	updated, err := s.store.Get(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to reload record", err)
		return
	}
	s.writeJSON(w, http.StatusOK, toDTO(updated))
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	variant, err := domain.ParseVariant(r.URL.Query().Get("variant"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid variant", err)
		return
	}

	csv, err := records.ExportCSV(s.store.FilterByVariant(variant), variant)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "export failed", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+string(variant)+`-sheets.csv"`)
	w.Write([]byte(csv))
}

func (s *Server) runBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart upload", err)
		return
	}

	req, err := s.batchRequestFromForm(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid batch request", err)
		return
	}

	result, runErr := s.service.Process(r.Context(), *req)
	if result == nil {
		// Preparation failed: the batch never started.
		s.writeError(w, http.StatusUnprocessableEntity, "batch preparation failed", runErr)
		return
	}

	dto := BatchReportDTO{
		Total:       result.Report.Total,
		Failed:      result.Report.Failed,
		Disposition: string(result.Report.Disposition),
		ElapsedMS:   result.Elapsed.Milliseconds(),
	}
	if runErr != nil {
		dto.Error = runErr.Error()
	}
	s.writeJSON(w, http.StatusOK, dto)
}

func (s *Server) batchRequestFromForm(r *http.Request) (*scan.BatchRequest, error) {
	mode := domain.Mode(r.FormValue("mode"))
	if mode == "" {
		mode = domain.ModeAuto
	}

	req := &scan.BatchRequest{Mode: mode}

	switch mode {
	case domain.ModeAuto, domain.ModeForced:
		if mode == domain.ModeForced {
			variant, err := domain.ParseVariant(r.FormValue("variant"))
			if err != nil {
				return nil, err
			}
			req.Variant = variant
		}
		files, err := readFormFiles(r, "files")
		if err != nil {
			return nil, err
		}
		req.Files = files
	case domain.ModePaired:
		for i, variant := range domain.Variants {
			files, err := readFormFiles(r, string(variant))
			if err != nil {
				return nil, err
			}
			req.Buckets[i] = files
		}
	default:
		return nil, domain.ValidationError("unknown batch mode", nil)
	}

	return req, nil
}

func readFormFiles(r *http.Request, field string) ([]intake.InputFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	files := make([]intake.InputFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return nil, domain.IOError("failed to read files", err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, domain.IOError("failed to read files", err)
		}
		files = append(files, intake.InputFile{Name: header.Filename, Data: data})
	}
	return files, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	s.writeJSON(w, status, map[string]string{
		"error":  message,
		"detail": detail,
	})
}
