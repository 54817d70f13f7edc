package scheduler

import (
	"context"
	"time"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/shopspring/decimal"
)

type EmployeeMonthStats struct {
	EmployeeID   string           `json:"employeeId"`
	EmployeeName string           `json:"employeeName"`
	PlannedHours float64          `json:"plannedHours"`
	ActualHours  float64          `json:"actualHours"`
	LateCount    int              `json:"lateCount"`
	EarlyCount   int              `json:"earlyCount"`
	HourlyRate   *decimal.Decimal `json:"hourlyRate,omitempty"`
	Earnings     *decimal.Decimal `json:"earnings,omitempty"`
}

type MonthStats struct {
	Year    int            `json:"year"`
	Month   time.Month     `json:"month"`
	StoreID domain.StoreID `json:"storeId"`
	// Employees 包含门店的全部员工，没有班次的员工各项为 0
	Employees map[string]*EmployeeMonthStats `json:"employees"`
}

// MonthStats 汇总门店某月每个员工的计划工时、实际工时和迟到早退次数
// 只统计已确认的班次，等待确认和被拒绝的班次不计入
func (s *Service) MonthStats(ctx context.Context, year int, month time.Month, store domain.StoreID) (*MonthStats, error) {
	if err := store.Validate(); err != nil {
		return nil, err
	}
	if month < time.January || month > time.December {
		return nil, domain.NewValidationError("month", "无效的月份 %d", int(month))
	}

	roster, err := s.ListEmployees(ctx, store)
	if err != nil {
		return nil, err
	}

	out := &MonthStats{
		Year:      year,
		Month:     month,
		StoreID:   store,
		Employees: make(map[string]*EmployeeMonthStats, len(roster)),
	}
	for _, e := range roster {
		out.Employees[e.ID] = &EmployeeMonthStats{
			EmployeeID:   e.ID,
			EmployeeName: e.Name,
			HourlyRate:   e.HourlyRate,
		}
	}

	schedules, err := s.ListSchedules(ctx, store)
	if err != nil {
		return nil, err
	}

	for _, schedule := range schedules {
		for _, day := range domain.Weekdays() {
			date := schedule.WeekKey.Date(day)
			if date.Year != year || date.Month != month {
				continue
			}

			for i := range schedule.Shifts[day] {
				shift := &schedule.Shifts[day][i]
				if !shift.IsConfirmed() {
					continue
				}

				stats, ok := out.Employees[shift.EmployeeID]
				if !ok {
					continue
				}

				stats.PlannedHours += shift.PlannedHours()
				stats.ActualHours += shift.ActualHours()
				if shift.Deviation != nil && shift.Deviation.LateMinutes > 0 {
					stats.LateCount++
				}
				if shift.Deviation != nil && shift.Deviation.EarlyMinutes > 0 {
					stats.EarlyCount++
				}
			}
		}
	}

	for _, stats := range out.Employees {
		if stats.HourlyRate == nil {
			continue
		}
		earnings := decimal.NewFromFloat(stats.ActualHours).Mul(*stats.HourlyRate).Round(2)
		stats.Earnings = &earnings
	}

	return out, nil
}
