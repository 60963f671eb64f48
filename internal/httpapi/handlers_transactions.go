package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/uestliguci/LifestyleCalculator/internal/core"
	"github.com/uestliguci/LifestyleCalculator/internal/export"
	"github.com/uestliguci/LifestyleCalculator/internal/services"
)

const maxImportBytes = 10 << 20 // 10 MiB upload cap

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	txs, err := s.svc.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"transactions": txs})
}

// handleListTransactionsFor serves another user's collection only to
// that user; the path parameter exists for client symmetry, not for
// cross-user access.
func (s *Server) handleListTransactionsFor(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	if r.PathValue("userId") != userID {
		writeError(w, r, core.ErrUnauthorized)
		return
	}
	s.handleListTransactions(w, r)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeClientError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := UserID(r.Context())
	created, err := s.svc.Create(r.Context(), userID, t)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateAnalytics(userID)
	slog.InfoContext(r.Context(), "Transaction created", "transaction_id", created.ID, "user_id", userID)
	writeSuccess(w, http.StatusCreated, map[string]any{"transaction": created})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var patch services.TransactionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeClientError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := UserID(r.Context())
	updated, err := s.svc.Update(r.Context(), userID, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateAnalytics(userID)
	writeSuccess(w, http.StatusOK, map[string]any{"transaction": updated})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	id := r.PathValue("id")
	if err := s.svc.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateAnalytics(userID)
	slog.InfoContext(r.Context(), "Transaction deleted", "transaction_id", id, "user_id", userID)
	writeSuccess(w, http.StatusOK, map[string]any{"id": id})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	raw, doc, err := s.gateway.ExportJSON(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.SuggestedFilename(doc.ExportDate)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// handleImport accepts either a multipart file upload (field "file") or
// a raw JSON body holding the export document.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	var (
		filename string
		content  []byte
		err      error
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var file multipart.File
		var header *multipart.FileHeader
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			writeClientError(w, http.StatusBadRequest, "Invalid multipart request")
			return
		}
		file, header, err = r.FormFile("file")
		if err != nil {
			writeClientError(w, http.StatusBadRequest, "Missing file field")
			return
		}
		defer file.Close()
		filename = header.Filename
		content, err = io.ReadAll(io.LimitReader(file, maxImportBytes))
	} else {
		content, err = io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	}
	if err != nil {
		writeClientError(w, http.StatusBadRequest, "Could not read upload")
		return
	}

	if err := s.gateway.ImportFile(r.Context(), userID, filename, content); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateAnalytics(userID)
	slog.InfoContext(r.Context(), "Data imported", "user_id", userID)
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Data imported successfully"})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.Settings(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"settings": settings})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch core.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeClientError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	settings, err := s.svc.UpdateSettings(r.Context(), UserID(r.Context()), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"settings": settings})
}

func (s *Server) invalidateAnalytics(userID string) {
	s.analyticsCache.InvalidatePrefix(userID + ":")
}
