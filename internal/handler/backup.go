package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/cesta/internal/backup"
	"github.com/dukerupert/cesta/internal/model"
)

type BackupHandler struct {
	manager *backup.Manager
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, logger *slog.Logger) *BackupHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupHandler{manager: m, logger: logger}
}

// Status handles GET /api/backup/status
func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	report, err := h.manager.Report(r.Context())
	if err != nil {
		h.logger.Error("backup report", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load backup status")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// List handles GET /api/backups?limit=
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	backups, err := h.manager.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, backups)
}
