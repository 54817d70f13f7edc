package handler

import (
	"net/http"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/freshshift/shift-planner/backend/internal/scheduler"
)

// ReportDeviation 员工上报当天的迟到或早退，date 为空时使用今天
func (h *Handler) ReportDeviation(w http.ResponseWriter, r *http.Request) {
	myInfo := myInfoOf(r)

	var req struct {
		Date    domain.Date `json:"date"`
		Kind    string      `json:"kind" validate:"required,oneof=late early"`
		Minutes int         `json:"minutes" validate:"gte=0"`
		Reason  string      `json:"reason" validate:"max=500"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	report, err := h.service.ReportDeviation(r.Context(), myInfo.ID, req.Date, scheduler.DeviationKind(req.Kind), req.Minutes, req.Reason)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	msg := "已通知管理员"
	if report.Shift == nil {
		msg = "没有找到当天的班次，已通知管理员"
	}
	h.successResponse(w, r, msg, report)
}
