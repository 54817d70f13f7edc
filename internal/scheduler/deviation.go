package scheduler

import (
	"context"
	"fmt"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/freshshift/shift-planner/backend/internal/metrics"
)

type DeviationKind string

const (
	DeviationLate  DeviationKind = "late"
	DeviationEarly DeviationKind = "early"
)

// ComputeDeviation 计算实际时间相对计划时间的偏差
// 只记录迟到和早退，提前到岗和延后下班不算偏差
func ComputeDeviation(plannedStart, plannedEnd domain.TimeOfDay, actualStart, actualEnd *domain.TimeOfDay) domain.Deviation {
	var d domain.Deviation
	if actualStart != nil && *actualStart != plannedStart {
		if diff := actualStart.Minutes() - plannedStart.Minutes(); diff > 0 {
			d.LateMinutes = diff
		}
	}
	if actualEnd != nil && *actualEnd != plannedEnd {
		if diff := plannedEnd.Minutes() - actualEnd.Minutes(); diff > 0 {
			d.EarlyMinutes = diff
		}
	}
	return d
}

func clampMinutes(minutes int) int {
	return max(0, min(minutes, domain.MinutesPerDay-1))
}

// ApplyLateReport 根据员工上报的迟到分钟数更新班次，实际开始时间不会晚于计划结束时间
func ApplyLateReport(shift *domain.Shift, minutes int, reason string) {
	minutes = clampMinutes(minutes)
	start := min(shift.Start.Minutes()+minutes, shift.End.Minutes())
	actual := domain.ClampTimeOfDay(start)
	shift.ActualStart = &actual

	if shift.Deviation == nil {
		shift.Deviation = &domain.Deviation{}
	}
	shift.Deviation.LateMinutes = actual.Minutes() - shift.Start.Minutes()
	if reason != "" {
		shift.Deviation.Reason = reason
	}
}

// ApplyEarlyReport 根据员工上报的早退分钟数更新班次，实际结束时间不会早于计划开始时间
func ApplyEarlyReport(shift *domain.Shift, minutes int, reason string) {
	minutes = clampMinutes(minutes)
	end := max(shift.End.Minutes()-minutes, shift.Start.Minutes())
	actual := domain.ClampTimeOfDay(end)
	shift.ActualEnd = &actual

	if shift.Deviation == nil {
		shift.Deviation = &domain.Deviation{}
	}
	shift.Deviation.EarlyMinutes = shift.End.Minutes() - actual.Minutes()
	if reason != "" {
		shift.Deviation.Reason = reason
	}
}

// applyActuals 记录管理员录入的实际时间并重新计算偏差
func applyActuals(shift *domain.Shift, actualStart, actualEnd *domain.TimeOfDay, reason string) {
	shift.ActualStart = actualStart
	shift.ActualEnd = actualEnd
	shift.Deviation = nil

	if actualStart == nil && actualEnd == nil {
		return
	}

	d := ComputeDeviation(shift.Start, shift.End, actualStart, actualEnd)
	d.Reason = reason
	shift.Deviation = &d
}

// DeviationReport 是员工对当天班次的迟到或早退上报结果
type DeviationReport struct {
	Schedule     *domain.Schedule     `json:"schedule,omitempty"`
	Shift        *domain.Shift        `json:"shift,omitempty"`
	Notification *domain.Notification `json:"notification"`
}

// ReportDeviation 在员工所属门店中（主门店优先）找到当天的班次并记录偏差
// 即使没有找到班次也会通知管理员
func (s *Service) ReportDeviation(ctx context.Context, employeeID string, date domain.Date, kind DeviationKind, minutes int, reason string) (*DeviationReport, error) {
	if kind != DeviationLate && kind != DeviationEarly {
		return nil, domain.NewValidationError("kind", "无效的上报类型 %q", kind)
	}
	if date.IsZero() {
		date = s.today()
	}

	employee, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	week := domain.WeekKeyOf(date)
	day := domain.WeekdayOf(date)
	report := &DeviationReport{}
	storeID := employee.PrimaryStore

	for _, store := range employee.OrderedStores() {
		schedule, err := s.store.GetSchedule(ctx, week, store)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			return nil, err
		}

		shift := schedule.ActiveShift(employeeID, day)
		if shift == nil {
			continue
		}

		switch kind {
		case DeviationLate:
			ApplyLateReport(shift, minutes, reason)
		case DeviationEarly:
			ApplyEarlyReport(shift, minutes, reason)
		}

		if err := s.saveSchedule(ctx, schedule); err != nil {
			return nil, err
		}

		report.Schedule = schedule
		report.Shift = shift
		storeID = store
		break
	}

	minutes = clampMinutes(minutes)
	var message string
	var typ domain.NotificationType
	switch kind {
	case DeviationLate:
		typ = domain.NotifyLate
		message = fmt.Sprintf("晚到 %d 分钟", minutes)
	case DeviationEarly:
		typ = domain.NotifyEarly
		message = fmt.Sprintf("提前 %d 分钟离开", minutes)
	}

	n, err := s.notify(ctx, &domain.Notification{
		Target:       domain.TargetAdmin,
		StoreID:      storeID,
		Type:         typ,
		EmployeeID:   employee.ID,
		EmployeeName: employee.Name,
		WeekKey:      &week,
		Weekday:      &day,
		Date:         &date,
		Message:      message,
		Reason:       reason,
	})
	if err != nil {
		return nil, err
	}
	report.Notification = n

	metrics.IncDeviationReported(string(kind))
	s.logger.Info("员工上报了考勤偏差", "employee", employeeID, "kind", kind, "minutes", minutes, "store", storeID)

	return report, nil
}
