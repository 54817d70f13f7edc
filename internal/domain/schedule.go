package domain

import (
	"strings"
	"time"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

type Requester string

const (
	RequestedByAdmin    Requester = "admin"
	RequestedByEmployee Requester = "employee"
)

// Deviation 记录实际时间与计划时间的偏差，零值字段表示没有对应的偏差
type Deviation struct {
	LateMinutes  int    `json:"lateMinutes,omitempty"`
	EarlyMinutes int    `json:"earlyMinutes,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

func (d *Deviation) IsEmpty() bool {
	return d == nil || (d.LateMinutes == 0 && d.EarlyMinutes == 0 && d.Reason == "")
}

type Shift struct {
	EmployeeID string `json:"employeeId"`
	// EmployeeName 是排班时的姓名快照，员工改名或被删除后不会变化
	EmployeeName   string        `json:"employeeName"`
	Start          TimeOfDay     `json:"start"`
	End            TimeOfDay     `json:"end"`
	ActualStart    *TimeOfDay    `json:"actualStart,omitempty"`
	ActualEnd      *TimeOfDay    `json:"actualEnd,omitempty"`
	Deviation      *Deviation    `json:"deviation,omitempty"`
	RequestStatus  RequestStatus `json:"requestStatus,omitempty"`
	RequestedAt    *time.Time    `json:"requestedAt,omitempty"`
	RequestedBy    Requester     `json:"requestedBy,omitempty"`
	RespondedAt    *time.Time    `json:"respondedAt,omitempty"`
	ResponseReason string        `json:"responseReason,omitempty"`
}

// IsActive 被拒绝的班次仍保留用于审计，但不再算作有效班次
func (s *Shift) IsActive() bool {
	return s.RequestStatus != RequestDeclined
}

// IsConfirmed 没有 requestStatus 的班次视为已确认
func (s *Shift) IsConfirmed() bool {
	return s.RequestStatus == "" || s.RequestStatus == RequestAccepted
}

func (s *Shift) PlannedHours() float64 {
	return DurationHours(s.Start, s.End)
}

// ActualHours 缺失的实际时间用计划时间代替
func (s *Shift) ActualHours() float64 {
	start, end := s.Start, s.End
	if s.ActualStart != nil {
		start = *s.ActualStart
	}
	if s.ActualEnd != nil {
		end = *s.ActualEnd
	}
	return DurationHours(start, end)
}

type Schedule struct {
	WeekKey    WeekKey             `json:"weekKey"`
	StoreID    StoreID             `json:"storeId"`
	Released   bool                `json:"released"`
	ReleasedAt *time.Time          `json:"releasedAt,omitempty"`
	CopiedFrom *WeekKey            `json:"copiedFrom,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
	Shifts     map[Weekday][]Shift `json:"shifts"`
	Version    int64               `json:"-"`
}

func NewSchedule(week WeekKey, store StoreID, now time.Time) *Schedule {
	return &Schedule{
		WeekKey:   week,
		StoreID:   store,
		CreatedAt: now,
		Shifts:    make(map[Weekday][]Shift),
	}
}

func (s *Schedule) Key() string {
	return ScheduleKey(s.WeekKey, s.StoreID)
}

func ScheduleKey(week WeekKey, store StoreID) string {
	return strings.Join([]string{week.String(), string(store)}, "|")
}

// Shift 返回员工在某一天的班次（包括被拒绝的），没有则返回 nil
func (s *Schedule) Shift(employeeID string, day Weekday) *Shift {
	for i := range s.Shifts[day] {
		if s.Shifts[day][i].EmployeeID == employeeID {
			return &s.Shifts[day][i]
		}
	}
	return nil
}

// ActiveShift 与 Shift 相同，但忽略被拒绝的班次
func (s *Schedule) ActiveShift(employeeID string, day Weekday) *Shift {
	shift := s.Shift(employeeID, day)
	if shift == nil || !shift.IsActive() {
		return nil
	}
	return shift
}

// PutShift 替换员工在这一天已有的班次，保证每人每天最多一个班次
func (s *Schedule) PutShift(day Weekday, shift Shift) {
	if s.Shifts == nil {
		s.Shifts = make(map[Weekday][]Shift)
	}
	s.RemoveShift(shift.EmployeeID, day)
	s.Shifts[day] = append(s.Shifts[day], shift)
}

func (s *Schedule) RemoveShift(employeeID string, day Weekday) bool {
	shifts := s.Shifts[day]
	kept := shifts[:0]
	removed := false
	for _, shift := range shifts {
		if shift.EmployeeID == employeeID {
			removed = true
			continue
		}
		kept = append(kept, shift)
	}
	if !removed {
		return false
	}
	if len(kept) == 0 {
		delete(s.Shifts, day)
	} else {
		s.Shifts[day] = kept
	}
	return true
}

func (s *Schedule) ShiftCount() int {
	n := 0
	for _, shifts := range s.Shifts {
		n += len(shifts)
	}
	return n
}
