package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/freshshift/shift-planner/backend/internal/scheduler"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.GetSchedule(r.Context(), weekOf(r), storeOf(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	if schedule == nil {
		h.successResponse(w, r, "本周还没有排班", nil)
		return
	}

	// 员工只能看到已发布的排班表，等待确认的班次通过 /me/weeks 查看
	if roleOf(r) == domain.RoleEmployee && !schedule.Released {
		h.successResponse(w, r, "排班表尚未发布", nil)
		return
	}

	h.successResponse(w, r, "获取排班表成功", schedule)
}

func (h *Handler) AssignShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmployeeID  string            `json:"employeeId" validate:"required"`
		Weekday     *domain.Weekday   `json:"weekday" validate:"required"`
		Start       *domain.TimeOfDay `json:"start" validate:"required"`
		End         *domain.TimeOfDay `json:"end" validate:"required"`
		ActualStart *domain.TimeOfDay `json:"actualStart"`
		ActualEnd   *domain.TimeOfDay `json:"actualEnd"`
		Reason      string            `json:"reason" validate:"max=500"`
		Force       bool              `json:"force"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	schedule, shift, err := h.service.AssignShift(r.Context(), scheduler.AssignShiftInput{
		EmployeeID:  req.EmployeeID,
		WeekKey:     weekOf(r),
		StoreID:     storeOf(r),
		Weekday:     *req.Weekday,
		Start:       *req.Start,
		End:         *req.End,
		ActualStart: req.ActualStart,
		ActualEnd:   req.ActualEnd,
		Reason:      req.Reason,
		Force:       req.Force,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	msg := "排班成功"
	if shift.RequestStatus == domain.RequestPending {
		msg = "员工未提交这一天的空闲时间，已向员工发送排班请求"
	}

	h.successResponse(w, r, msg, map[string]any{
		"schedule": schedule,
		"shift":    shift,
	})
}

func (h *Handler) RemoveShift(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.RemoveShift(r.Context(), chi.URLParam(r, "employeeID"), weekOf(r), storeOf(r), weekdayOf(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "班次已删除", schedule)
}

func (h *Handler) RecordActuals(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActualStart *domain.TimeOfDay `json:"actualStart"`
		ActualEnd   *domain.TimeOfDay `json:"actualEnd"`
		Reason      string            `json:"reason" validate:"max=500"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	schedule, err := h.service.RecordActuals(r.Context(), chi.URLParam(r, "employeeID"), weekOf(r), storeOf(r), weekdayOf(r), req.ActualStart, req.ActualEnd, req.Reason)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "实际时间已保存", schedule)
}

func (h *Handler) ReleaseSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.Release(r.Context(), weekOf(r), storeOf(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "排班表已发布", schedule)
}

func (h *Handler) RespondToShiftRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := myInfoOf(r)

	var req struct {
		Decision string `json:"decision" validate:"required,oneof=accepted declined"`
		Reason   string `json:"reason" validate:"required_if=Decision declined,max=500"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if _, err := h.service.RespondToShiftRequest(r.Context(), myInfo.ID, weekOf(r), storeOf(r), weekdayOf(r), domain.RequestStatus(req.Decision), req.Reason); err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "已回复排班请求", nil)
}

func (h *Handler) AnalyzeWeekCopy(w http.ResponseWriter, r *http.Request) {
	source, err := domain.ParseWeekKey(chi.URLParam(r, "source"))
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	conflicts, err := h.service.AnalyzeCopy(r.Context(), source, weekOf(r), storeOf(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "冲突检查完成", conflicts)
}

func (h *Handler) ApplyWeekCopy(w http.ResponseWriter, r *http.Request) {
	source, err := domain.ParseWeekKey(chi.URLParam(r, "source"))
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	var req struct {
		SkipConflicting bool `json:"skipConflicting"`
	}
	// 请求体可以为空
	if err := h.readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(w, r, err)
		return
	}

	result, err := h.service.ApplyCopy(r.Context(), source, weekOf(r), storeOf(r), req.SkipConflicting)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "排班已复制", result)
}
