package handler

import (
	"net/http"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/go-chi/chi/v5"
)

// notificationFilter 管理员看到发给管理员的通知，员工只看到发给自己的通知
func notificationFilter(r *http.Request) domain.NotificationFilter {
	if roleOf(r) == domain.RoleAdmin {
		return domain.NotificationFilter{
			Target:  domain.TargetAdmin,
			StoreID: domain.StoreID(r.URL.Query().Get("store")),
		}
	}
	return domain.NotificationFilter{
		Target:     domain.TargetEmployee,
		EmployeeID: subjectOf(r),
	}
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	filter := notificationFilter(r)
	filter.UnreadOnly = r.URL.Query().Get("unread") == "true"

	notifications, err := h.service.ListNotifications(r.Context(), filter)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取通知成功", notifications)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.GetNotification(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	// 不能操作别人的通知
	filter := notificationFilter(r)
	filter.StoreID = ""
	if !filter.Match(n) {
		h.notFound(w, r, "通知不存在")
		return
	}

	n, err = h.service.MarkNotificationRead(r.Context(), n.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "通知已标记为已读", n)
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.MarkAllNotificationsRead(r.Context(), notificationFilter(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "全部通知已标记为已读", map[string]int{"count": count})
}
