package handler

import (
	"net/http"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/freshshift/shift-planner/backend/internal/scheduler"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	employeeID := r.URL.Query().Get("employeeId")
	if roleOf(r) == domain.RoleEmployee {
		employeeID = subjectOf(r)
	}

	absences, err := h.service.ListAbsences(r.Context(), employeeID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取缺勤记录成功", absences)
}

// CreateAbsence 员工提交缺勤申请，管理员直接录入已批准的缺勤
func (h *Handler) CreateAbsence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmployeeID string       `json:"employeeId"`
		StartDate  *domain.Date `json:"startDate" validate:"required"`
		EndDate    *domain.Date `json:"endDate" validate:"required"`
		Type       string       `json:"type" validate:"required,oneof=vacation sick other"`
		Note       string       `json:"note" validate:"max=500"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	in := scheduler.AbsenceInput{
		EmployeeID: req.EmployeeID,
		StartDate:  *req.StartDate,
		EndDate:    *req.EndDate,
		Type:       domain.AbsenceType(req.Type),
		Note:       req.Note,
	}

	if roleOf(r) == domain.RoleEmployee {
		in.EmployeeID = subjectOf(r)
		absence, err := h.service.RequestAbsence(r.Context(), in)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}

		msg := "缺勤申请已提交，等待管理员审批"
		if absence.Status == domain.AbsenceApproved {
			msg = "病假已登记"
		}
		h.successResponse(w, r, msg, absence)
		return
	}

	if in.EmployeeID == "" {
		h.errorResponse(w, r, "请选择员工")
		return
	}

	absence, err := h.service.EnterAbsence(r.Context(), in)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "缺勤已录入", absence)
}

func (h *Handler) UpdateAbsence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate *domain.Date `json:"startDate"`
		EndDate   *domain.Date `json:"endDate"`
		Type      *string      `json:"type" validate:"omitempty,oneof=vacation sick other"`
		Note      *string      `json:"note" validate:"omitempty,max=500"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	upd := scheduler.AbsenceUpdate{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Note:      req.Note,
	}
	if req.Type != nil {
		typ := domain.AbsenceType(*req.Type)
		upd.Type = &typ
	}

	absence, err := h.service.UpdateAbsence(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "缺勤记录已更新", absence)
}

func (h *Handler) DeleteAbsence(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAbsence(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "缺勤记录已删除", nil)
}

func (h *Handler) ResolveAbsence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decision string `json:"decision" validate:"required,oneof=approved declined"`
		Reason   string `json:"reason" validate:"max=500"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	absence, err := h.service.ResolveAbsence(r.Context(), chi.URLParam(r, "id"), domain.AbsenceStatus(req.Decision), req.Reason)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "缺勤申请已处理", absence)
}
