package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/freshshift/shift-planner/backend/internal/report"
	"github.com/freshshift/shift-planner/backend/internal/scheduler"
	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) monthStats(w http.ResponseWriter, r *http.Request) (*scheduler.MonthStats, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 {
		h.errorResponse(w, r, "年份无效")
		return nil, false
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		h.errorResponse(w, r, "月份无效")
		return nil, false
	}

	stats, err := h.service.MonthStats(r.Context(), year, time.Month(month), storeOf(r))
	if err != nil {
		h.serviceError(w, r, err)
		return nil, false
	}
	return stats, true
}

func (h *Handler) GetMonthStats(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.monthStats(w, r)
	if !ok {
		return
	}

	h.successResponse(w, r, "获取月度统计成功", stats)
}

func (h *Handler) ExportMonthStats(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.monthStats(w, r)
	if !ok {
		return
	}

	// 先完整生成文件，出错时还能返回 JSON
	var buf bytes.Buffer
	if err := report.WriteMonthStats(&buf, stats); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	filename := fmt.Sprintf("freshshift-%s-%04d-%02d.xlsx", stats.StoreID, stats.Year, int(stats.Month))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logInternalServerError(r, err)
	}
}
