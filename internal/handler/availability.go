package handler

import (
	"net/http"

	"github.com/freshshift/shift-planner/backend/internal/domain"
)

// GetMyAvailability 返回当前员工本周实际生效的空闲时间
func (h *Handler) GetMyAvailability(w http.ResponseWriter, r *http.Request) {
	myInfo := myInfoOf(r)

	availability, err := h.service.EffectiveAvailability(r.Context(), myInfo.ID, weekOf(r), storeOf(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取空闲时间成功", availability)
}

func (h *Handler) SubmitMyAvailability(w http.ResponseWriter, r *http.Request) {
	myInfo := myInfoOf(r)

	var req struct {
		Days  domain.WeekDays `json:"days" validate:"required"`
		Notes string          `json:"notes" validate:"max=500"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	availability, err := h.service.SubmitAvailability(r.Context(), myInfo.ID, weekOf(r), storeOf(r), req.Days, req.Notes)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "提交空闲时间成功", availability)
}

func (h *Handler) ListAvailabilities(w http.ResponseWriter, r *http.Request) {
	availabilities, err := h.service.ListAvailabilityForWeek(r.Context(), weekOf(r), storeOf(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取空闲时间提交成功", availabilities)
}

func (h *Handler) GetMissingSubmissions(w http.ResponseWriter, r *http.Request) {
	missing, err := h.service.MissingSubmissions(r.Context(), weekOf(r), storeOf(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取未提交的员工成功", publicEmployees(missing))
}
