package scheduler

import (
	"context"
	"sort"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/freshshift/shift-planner/backend/internal/metrics"
)

// EffectiveAvailability 是某员工某周实际生效的空闲时间，Source 表示数据来源
type EffectiveAvailability struct {
	EmployeeID string                    `json:"employeeId"`
	WeekKey    domain.WeekKey            `json:"weekKey"`
	StoreID    domain.StoreID            `json:"storeId"`
	Days       domain.WeekDays           `json:"days"`
	Notes      string                    `json:"notes,omitempty"`
	Source     domain.AvailabilitySource `json:"source"`
}

// SubmitAvailability 整体覆盖员工在某门店某周的空闲时间
func (s *Service) SubmitAvailability(ctx context.Context, employeeID string, week domain.WeekKey, store domain.StoreID, days domain.WeekDays, notes string) (*domain.Availability, error) {
	if err := store.Validate(); err != nil {
		return nil, err
	}
	if err := validateWeek(week); err != nil {
		return nil, err
	}
	if err := days.Validate(); err != nil {
		return nil, err
	}

	employee, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !employee.WorksAt(store) {
		return nil, domain.NewValidationError("storeId", "%s 不在门店 %s 工作", employee.Name, store.Name())
	}

	a := &domain.Availability{
		EmployeeID:  employeeID,
		WeekKey:     week,
		StoreID:     store,
		Days:        days.Clone(),
		Notes:       notes,
		SubmittedAt: s.now(),
	}
	if a.Days == nil {
		a.Days = domain.WeekDays{}
	}

	if err := s.store.SaveAvailability(ctx, a); err != nil {
		return nil, err
	}

	metrics.IncAvailabilitySubmitted(string(store))
	s.logger.Info("已提交空闲时间", "employee", employeeID, "week", week.String(), "store", store)

	return a, nil
}

// GetAvailability 返回员工提交的空闲时间，没有提交时返回 nil
func (s *Service) GetAvailability(ctx context.Context, employeeID string, week domain.WeekKey, store domain.StoreID) (*domain.Availability, error) {
	if err := store.Validate(); err != nil {
		return nil, err
	}

	a, err := s.store.GetAvailability(ctx, employeeID, week, store)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// EffectiveAvailability 依次使用：本周提交、员工在该门店的默认模板、10:00-18:00 的默认时间
func (s *Service) EffectiveAvailability(ctx context.Context, employeeID string, week domain.WeekKey, store domain.StoreID) (*EffectiveAvailability, error) {
	submitted, err := s.GetAvailability(ctx, employeeID, week, store)
	if err != nil {
		return nil, err
	}

	out := &EffectiveAvailability{
		EmployeeID: employeeID,
		WeekKey:    week,
		StoreID:    store,
	}

	if submitted != nil {
		out.Days = submitted.Days.Clone()
		out.Notes = submitted.Notes
		out.Source = domain.AvailabilitySubmitted
		return out, nil
	}

	employee, err := s.lookupEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if employee != nil {
		if tmpl, ok := employee.DefaultTemplate(store); ok {
			out.Days = tmpl.Days.Clone()
			out.Notes = tmpl.Notes
			out.Source = domain.AvailabilityTemplate
			return out, nil
		}
	}

	out.Days = domain.DefaultWeekTemplate().Days
	out.Source = domain.AvailabilityFallback
	return out, nil
}

// ListAvailabilityForWeek 返回某门店某周的所有提交，按员工 ID 排序
func (s *Service) ListAvailabilityForWeek(ctx context.Context, week domain.WeekKey, store domain.StoreID) ([]*domain.Availability, error) {
	if err := store.Validate(); err != nil {
		return nil, err
	}

	all, err := s.store.ListAvailabilities(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Availability, 0)
	for _, a := range all {
		if a.WeekKey == week && a.StoreID == store {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })

	return out, nil
}

// MissingSubmissions 返回门店中本周还没有提交空闲时间的员工
func (s *Service) MissingSubmissions(ctx context.Context, week domain.WeekKey, store domain.StoreID) ([]*domain.Employee, error) {
	submissions, err := s.ListAvailabilityForWeek(ctx, week, store)
	if err != nil {
		return nil, err
	}
	submitted := make(map[string]bool, len(submissions))
	for _, a := range submissions {
		submitted[a.EmployeeID] = true
	}

	roster, err := s.ListEmployees(ctx, store)
	if err != nil {
		return nil, err
	}

	missing := make([]*domain.Employee, 0)
	for _, e := range roster {
		if !submitted[e.ID] {
			missing = append(missing, e)
		}
	}
	return missing, nil
}

// SetDefaultAvailability 设置员工在某门店的默认空闲时间模板，tmpl 为 nil 时清除
func (s *Service) SetDefaultAvailability(ctx context.Context, employeeID string, store domain.StoreID, tmpl *domain.WeekTemplate) (*domain.Employee, error) {
	if err := store.Validate(); err != nil {
		return nil, err
	}

	employee, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !employee.WorksAt(store) {
		return nil, domain.NewValidationError("storeId", "%s 不在门店 %s 工作", employee.Name, store.Name())
	}

	if tmpl == nil {
		delete(employee.DefaultAvailability, store)
	} else {
		if err := tmpl.Days.Validate(); err != nil {
			return nil, err
		}
		if employee.DefaultAvailability == nil {
			employee.DefaultAvailability = make(map[domain.StoreID]domain.WeekTemplate)
		}
		employee.DefaultAvailability[store] = domain.WeekTemplate{Days: tmpl.Days.Clone(), Notes: tmpl.Notes}
	}
	if len(employee.DefaultAvailability) == 0 {
		employee.DefaultAvailability = nil
	}

	if err := s.store.SaveEmployee(ctx, employee); err != nil {
		return nil, err
	}

	return employee, nil
}
