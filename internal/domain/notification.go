package domain

import "time"

type NotificationTarget string

const (
	TargetAdmin    NotificationTarget = "admin"
	TargetEmployee NotificationTarget = "employee"
)

type NotificationType string

const (
	NotifyShiftRequest         NotificationType = "shift_request"
	NotifyShiftRequestResponse NotificationType = "shift_request_response"
	NotifyAbsenceRequest       NotificationType = "absence_request"
	NotifyAbsenceNotice        NotificationType = "absence_notice"
	NotifyAbsenceResolved      NotificationType = "absence_resolved"
	NotifyLate                 NotificationType = "late"
	NotifyEarly                NotificationType = "early"
)

type Notification struct {
	ID               string             `json:"id"`
	Target           NotificationTarget `json:"target"`
	TargetEmployeeID string             `json:"targetEmployeeId,omitempty"`
	StoreID          StoreID            `json:"storeId,omitempty"`
	Type             NotificationType   `json:"type"`
	EmployeeID       string             `json:"employeeId,omitempty"`
	EmployeeName     string             `json:"employeeName,omitempty"`
	WeekKey          *WeekKey           `json:"weekKey,omitempty"`
	Weekday          *Weekday           `json:"weekday,omitempty"`
	Date             *Date              `json:"date,omitempty"`
	AbsenceID        string             `json:"absenceId,omitempty"`
	Message          string             `json:"message"`
	Reason           string             `json:"reason,omitempty"`
	Read             bool               `json:"read"`
	CreatedAt        time.Time          `json:"createdAt"`
}

type NotificationFilter struct {
	Target     NotificationTarget
	EmployeeID string
	StoreID    StoreID
	UnreadOnly bool
}

func (f NotificationFilter) Match(n *Notification) bool {
	if f.Target != "" && n.Target != f.Target {
		return false
	}
	if f.EmployeeID != "" && n.TargetEmployeeID != f.EmployeeID {
		return false
	}
	// 没有门店范围的通知对所有门店可见
	if f.StoreID != "" && n.StoreID != "" && n.StoreID != f.StoreID {
		return false
	}
	if f.UnreadOnly && n.Read {
		return false
	}
	return true
}
