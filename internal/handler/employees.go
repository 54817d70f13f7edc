package handler

import (
	"net/http"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/freshshift/shift-planner/backend/internal/scheduler"
	"github.com/freshshift/shift-planner/backend/internal/utils"
	"github.com/shopspring/decimal"
)

func employeeOf(r *http.Request) *domain.Employee {
	return r.Context().Value(EmployeeCtx).(*domain.Employee)
}

func toStoreIDs(stores []string) []domain.StoreID {
	out := make([]domain.StoreID, 0, len(stores))
	for _, s := range stores {
		out = append(out, domain.StoreID(s))
	}
	return out
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	store := domain.StoreID(r.URL.Query().Get("store"))

	employees, err := h.service.ListEmployees(r.Context(), store)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取员工列表成功", publicEmployees(employees))
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string           `json:"name" validate:"required"`
		Type         string           `json:"type" validate:"required,oneof=regular casual"`
		HourlyRate   *decimal.Decimal `json:"hourlyRate"`
		PrimaryStore string           `json:"primaryStore" validate:"required"`
		Stores       []string         `json:"stores" validate:"required,min=1,dive,required"`
		Email        string           `json:"email" validate:"omitempty,email"`
		Username     string           `json:"username" validate:"omitempty,alphanum"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 生成随机密码
	password := utils.GenerateRandomPassword(h.config.NewEmployee.PasswordLength)

	employee, err := h.service.CreateEmployee(r.Context(), &domain.Employee{
		Name:         req.Name,
		Type:         domain.EmployeeType(req.Type),
		HourlyRate:   req.HourlyRate,
		PrimaryStore: domain.StoreID(req.PrimaryStore),
		Stores:       toStoreIDs(req.Stores),
		Email:        req.Email,
		Username:     req.Username,
	}, password)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	// 没有邮箱时只能由管理员把初始密码告知员工
	if employee.Email == "" {
		h.successResponse(w, r, "员工创建成功，请将初始密码告知员工", map[string]any{
			"employee": employee.Public(),
			"password": password,
		})
		return
	}

	h.successResponse(w, r, "员工创建成功，账号信息已通过邮件发送", map[string]any{
		"employee": employee.Public(),
	})
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "获取员工信息成功", employeeOf(r).Public())
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	employee := employeeOf(r)

	var req struct {
		Name            *string          `json:"name" validate:"omitempty,min=1"`
		Type            *string          `json:"type" validate:"omitempty,oneof=regular casual"`
		HourlyRate      *decimal.Decimal `json:"hourlyRate"`
		ClearHourlyRate bool             `json:"clearHourlyRate"`
		PrimaryStore    *string          `json:"primaryStore"`
		Stores          []string         `json:"stores" validate:"omitempty,min=1,dive,required"`
		Email           *string          `json:"email" validate:"omitempty,email"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	upd := scheduler.EmployeeUpdate{
		Name:            req.Name,
		HourlyRate:      req.HourlyRate,
		ClearHourlyRate: req.ClearHourlyRate,
		Email:           req.Email,
	}
	if req.Type != nil {
		typ := domain.EmployeeType(*req.Type)
		upd.Type = &typ
	}
	if req.PrimaryStore != nil {
		store := domain.StoreID(*req.PrimaryStore)
		upd.PrimaryStore = &store
	}
	if req.Stores != nil {
		upd.Stores = toStoreIDs(req.Stores)
	}

	updated, err := h.service.UpdateEmployee(r.Context(), employee.ID, upd)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "员工信息更新成功", updated.Public())
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	employee := employeeOf(r)

	if err := h.service.DeleteEmployee(r.Context(), employee.ID); err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "员工删除成功", nil)
}

func (h *Handler) SetDefaultAvailability(w http.ResponseWriter, r *http.Request) {
	employee := employeeOf(r)

	var req domain.WeekTemplate
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	updated, err := h.service.SetDefaultAvailability(r.Context(), employee.ID, storeOf(r), &req)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "默认空闲时间已保存", updated.Public())
}

func (h *Handler) ClearDefaultAvailability(w http.ResponseWriter, r *http.Request) {
	employee := employeeOf(r)

	updated, err := h.service.SetDefaultAvailability(r.Context(), employee.ID, storeOf(r), nil)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "默认空闲时间已清除", updated.Public())
}
