package http

import (
	"bytes"
	"net/http"

	"ledger/internal/csvio"
	"ledger/internal/services"
)

// handleImport accepts the raw CSV text as the request body, whatever its
// content type.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	result, err := s.services.Imports.Import(r.Context(), r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(result).Write(w)
}

// handleTemplate serves the import skeleton. No session is required.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.services.Imports.Template(r.Context(), &buf); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().
		Attachment(csvio.ContentTypeCSV, csvio.TemplateFilename).
		Body(buf.Bytes()).
		Write(w)
}

// handleExport streams the caller's transactions as CSV, or as a workbook
// with format=xlsx. The file is built in memory so failures still map to
// a JSON error.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := services.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.services.Imports.Export(r.Context(), &buf, format); err != nil {
		writeError(w, r, err)
		return
	}

	contentType, filename := csvio.ContentTypeCSV, csvio.ExportFilename
	if format == services.ExportXLSX {
		contentType, filename = csvio.ContentTypeXLSX, csvio.ExportXLSXFilename
	}
	NewResponse().
		Attachment(contentType, filename).
		Body(buf.Bytes()).
		Write(w)
}
