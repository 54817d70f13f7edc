package handler

import (
	"net/http"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	if roleOf(r) == domain.RoleAdmin {
		h.successResponse(w, r, "获取个人信息成功", h.adminAccount())
		return
	}

	myInfo, err := h.service.GetEmployee(r.Context(), subjectOf(r))
	if err != nil {
		switch {
		case domain.IsNotFound(err):
			h.errorResponse(w, r, "个人信息不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取个人信息成功", employeeAccount(myInfo))
}

func (h *Handler) GetMyWeek(w http.ResponseWriter, r *http.Request) {
	myInfo := myInfoOf(r)

	week, err := domain.ParseWeekKey(chi.URLParam(r, "week"))
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	shifts, err := h.service.EmployeeWeek(r.Context(), myInfo.ID, week)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取本周班次成功", shifts)
}

func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	myInfo := myInfoOf(r)

	var req struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), myInfo.ID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case domain.IsValidation(err):
			h.errorResponse(w, r, "旧密码错误")
		default:
			h.serviceError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新密码成功", nil)
}

func (h *Handler) GetStores(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "获取门店列表成功", domain.Stores())
}
