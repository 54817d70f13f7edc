package handler

import (
	"fmt"
	"net/http"

	"github.com/freshshift/shift-planner/backend/internal/domain"
)

// ExportBackup 直接返回备份文件本身，导入时原样提交即可
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	backup, err := h.service.ExportBackup(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("freshshift-backup-%s.json", backup.ExportedAt.Format("20060102-150405"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	h.writeJSON(w, r, http.StatusOK, backup)
}

func (h *Handler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBackupBytes)

	var backup domain.Backup
	if err := h.readJSON(r, &backup); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.service.ImportBackup(r.Context(), &backup); err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "备份已导入", nil)
}
