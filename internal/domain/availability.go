package domain

import (
	"strings"
	"time"
)

type DayAvailability struct {
	Available bool       `json:"available"`
	Start     *TimeOfDay `json:"start,omitempty"`
	End       *TimeOfDay `json:"end,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// Validate 检查单日的空闲时间：只有可用时才有起止时间，且开始必须早于结束
func (d DayAvailability) Validate(day Weekday) error {
	field := day.String()
	if !d.Available {
		if d.Start != nil || d.End != nil {
			return NewValidationError(field, "不可用的日期不能填写时间")
		}
		return nil
	}
	if d.Start == nil || d.End == nil {
		return NewValidationError(field, "可用的日期必须填写开始和结束时间")
	}
	if !d.Start.Valid() || !d.End.Valid() {
		return NewValidationError(field, "时间超出范围")
	}
	if *d.Start >= *d.End {
		return NewValidationError(field, "开始时间必须早于结束时间")
	}
	return nil
}

type WeekDays map[Weekday]DayAvailability

func (w WeekDays) Validate() error {
	for day, entry := range w {
		if !day.Valid() {
			return NewValidationError("days", "无效的星期 %d", int(day))
		}
		if err := entry.Validate(day); err != nil {
			return err
		}
	}
	return nil
}

// Clone 复制一份，避免共享底层 map
func (w WeekDays) Clone() WeekDays {
	if w == nil {
		return nil
	}
	out := make(WeekDays, len(w))
	for day, entry := range w {
		out[day] = entry
	}
	return out
}

// WeekTemplate 是员工在某个门店的默认空闲时间模板
type WeekTemplate struct {
	Days  WeekDays `json:"days"`
	Notes string   `json:"notes,omitempty"`
}

var (
	DefaultWindowStart = NewTimeOfDay(10, 0)
	DefaultWindowEnd   = NewTimeOfDay(18, 0)
)

// DefaultWeekTemplate 在既没有提交也没有模板时使用：每天 10:00 到 18:00 可用
func DefaultWeekTemplate() WeekTemplate {
	days := make(WeekDays, 7)
	for _, day := range Weekdays() {
		start, end := DefaultWindowStart, DefaultWindowEnd
		days[day] = DayAvailability{Available: true, Start: &start, End: &end}
	}
	return WeekTemplate{Days: days}
}

type Availability struct {
	EmployeeID  string    `json:"employeeId"`
	WeekKey     WeekKey   `json:"weekKey"`
	StoreID     StoreID   `json:"storeId"`
	Days        WeekDays  `json:"days"`
	Notes       string    `json:"notes,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Day 返回某一天的记录，第二个返回值表示这一天是否出现在提交中
func (a *Availability) Day(day Weekday) (DayAvailability, bool) {
	if a == nil || a.Days == nil {
		return DayAvailability{}, false
	}
	entry, ok := a.Days[day]
	return entry, ok
}

// AvailableOn 只有当这一天出现在提交中并且标记为可用时才返回 true
func (a *Availability) AvailableOn(day Weekday) bool {
	entry, ok := a.Day(day)
	return ok && entry.Available
}

func (a *Availability) Key() string {
	return AvailabilityKey(a.EmployeeID, a.WeekKey, a.StoreID)
}

func AvailabilityKey(employeeID string, week WeekKey, store StoreID) string {
	return strings.Join([]string{employeeID, week.String(), string(store)}, "|")
}

type AvailabilitySource string

const (
	AvailabilitySubmitted AvailabilitySource = "submitted"
	AvailabilityTemplate  AvailabilitySource = "template"
	AvailabilityFallback  AvailabilitySource = "fallback"
)
