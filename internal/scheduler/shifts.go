package scheduler

import (
	"context"
	"fmt"
	"sort"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/freshshift/shift-planner/backend/internal/metrics"
)

type AssignShiftInput struct {
	EmployeeID  string
	WeekKey     domain.WeekKey
	StoreID     domain.StoreID
	Weekday     domain.Weekday
	Start       domain.TimeOfDay
	End         domain.TimeOfDay
	ActualStart *domain.TimeOfDay
	ActualEnd   *domain.TimeOfDay
	Reason      string
	// Force 为 true 时允许给缺勤的员工排班
	Force bool
}

func (in AssignShiftInput) validate() error {
	if err := in.StoreID.Validate(); err != nil {
		return err
	}
	if err := validateWeek(in.WeekKey); err != nil {
		return err
	}
	if err := validateWeekday(in.Weekday); err != nil {
		return err
	}
	if !in.Start.Valid() || !in.End.Valid() {
		return domain.NewValidationError("start", "时间超出范围")
	}
	if in.Start >= in.End {
		return domain.NewValidationError("end", "开始时间必须早于结束时间")
	}
	if in.ActualStart != nil && !in.ActualStart.Valid() {
		return domain.NewValidationError("actualStart", "时间超出范围")
	}
	if in.ActualEnd != nil && !in.ActualEnd.Valid() {
		return domain.NewValidationError("actualEnd", "时间超出范围")
	}
	return nil
}

// AssignShift 替换员工在这一天的班次
// 员工在这一天没有提交可用时间时，班次作为排班请求等待员工确认
func (s *Service) AssignShift(ctx context.Context, in AssignShiftInput) (*domain.Schedule, *domain.Shift, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	employee, err := s.store.GetEmployee(ctx, in.EmployeeID)
	if err != nil {
		return nil, nil, err
	}
	if !employee.WorksAt(in.StoreID) {
		return nil, nil, domain.NewValidationError("employeeId", "%s 不在门店 %s 工作", employee.Name, in.StoreID.Name())
	}

	date := in.WeekKey.Date(in.Weekday)
	absence, err := s.IsAbsent(ctx, employee.ID, date)
	if err != nil {
		return nil, nil, err
	}
	if absence != nil && !in.Force {
		return nil, nil, domain.NewValidationError("employeeId", "%s 在 %s %s", employee.Name, date, absenceTypeLabel(absence.Type))
	}

	schedule, err := s.loadSchedule(ctx, in.WeekKey, in.StoreID)
	if err != nil {
		return nil, nil, err
	}

	availability, err := s.GetAvailability(ctx, employee.ID, in.WeekKey, in.StoreID)
	if err != nil {
		return nil, nil, err
	}

	shift := domain.Shift{
		EmployeeID:   employee.ID,
		EmployeeName: employee.Name,
		Start:        in.Start,
		End:          in.End,
	}

	pending := !availability.AvailableOn(in.Weekday)
	if pending {
		now := s.now()
		shift.RequestStatus = domain.RequestPending
		shift.RequestedAt = &now
		shift.RequestedBy = domain.RequestedByAdmin
	}

	applyActuals(&shift, in.ActualStart, in.ActualEnd, in.Reason)

	schedule.PutShift(in.Weekday, shift)
	if err := s.saveSchedule(ctx, schedule); err != nil {
		return nil, nil, err
	}

	if pending {
		week, day := in.WeekKey, in.Weekday
		if _, err := s.notify(ctx, &domain.Notification{
			Target:           domain.TargetEmployee,
			TargetEmployeeID: employee.ID,
			StoreID:          in.StoreID,
			Type:             domain.NotifyShiftRequest,
			EmployeeID:       employee.ID,
			EmployeeName:     employee.Name,
			WeekKey:          &week,
			Weekday:          &day,
			Date:             &date,
			Message:          fmt.Sprintf("排班请求: %s %s-%s", date, in.Start, in.End),
			Reason:           "请接受或拒绝",
		}); err != nil {
			return nil, nil, err
		}
	}

	metrics.IncShiftAssigned(string(in.StoreID), pending)
	s.logger.Info("已排班", "employee", employee.ID, "week", in.WeekKey.String(), "store", in.StoreID, "weekday", in.Weekday.String(), "pending", pending)

	return schedule, schedule.Shift(employee.ID, in.Weekday), nil
}

// RemoveShift 删除员工在这一天的班次，没有班次时什么也不做
func (s *Service) RemoveShift(ctx context.Context, employeeID string, week domain.WeekKey, store domain.StoreID, day domain.Weekday) (*domain.Schedule, error) {
	if err := store.Validate(); err != nil {
		return nil, err
	}
	if err := validateWeekday(day); err != nil {
		return nil, err
	}

	schedule, err := s.store.GetSchedule(ctx, week, store)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	if !schedule.RemoveShift(employeeID, day) {
		return schedule, nil
	}

	if err := s.saveSchedule(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// Release 发布排班表，已发布时不做任何修改
func (s *Service) Release(ctx context.Context, week domain.WeekKey, store domain.StoreID) (*domain.Schedule, error) {
	if err := store.Validate(); err != nil {
		return nil, err
	}

	schedule, err := s.store.GetSchedule(ctx, week, store)
	if err != nil {
		return nil, err
	}
	if schedule.Released {
		return schedule, nil
	}

	now := s.now()
	schedule.Released = true
	schedule.ReleasedAt = &now

	if err := s.saveSchedule(ctx, schedule); err != nil {
		return nil, err
	}

	metrics.IncScheduleReleased(string(store))
	s.logger.Info("已发布排班表", "week", week.String(), "store", store)

	return schedule, nil
}

// GetSchedule 返回排班表，不存在时返回 nil
func (s *Service) GetSchedule(ctx context.Context, week domain.WeekKey, store domain.StoreID) (*domain.Schedule, error) {
	if err := store.Validate(); err != nil {
		return nil, err
	}

	schedule, err := s.store.GetSchedule(ctx, week, store)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return schedule, nil
}

// ListSchedules 返回门店的所有排班表，按周排序
func (s *Service) ListSchedules(ctx context.Context, store domain.StoreID) ([]*domain.Schedule, error) {
	if err := store.Validate(); err != nil {
		return nil, err
	}

	all, err := s.store.ListSchedules(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Schedule, 0)
	for _, schedule := range all {
		if schedule.StoreID == store {
			out = append(out, schedule)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].WeekKey, out[j].WeekKey
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Week < b.Week
	})

	return out, nil
}

// EmployeeShift 是员工视角下的一个班次
type EmployeeShift struct {
	StoreID  domain.StoreID `json:"storeId"`
	Weekday  domain.Weekday `json:"weekday"`
	Date     domain.Date    `json:"date"`
	Released bool           `json:"released"`
	domain.Shift
}

// EmployeeWeek 返回员工在所有门店这一周未被拒绝的班次，按日期排序
func (s *Service) EmployeeWeek(ctx context.Context, employeeID string, week domain.WeekKey) ([]EmployeeShift, error) {
	employee, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	out := make([]EmployeeShift, 0)
	for _, store := range employee.OrderedStores() {
		schedule, err := s.GetSchedule(ctx, week, store)
		if err != nil {
			return nil, err
		}
		if schedule == nil {
			continue
		}

		for _, day := range domain.Weekdays() {
			shift := schedule.ActiveShift(employeeID, day)
			if shift == nil {
				continue
			}
			out = append(out, EmployeeShift{
				StoreID:  store,
				Weekday:  day,
				Date:     week.Date(day),
				Released: schedule.Released,
				Shift:    *shift,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weekday < out[j].Weekday })

	return out, nil
}

// RespondToShiftRequest 员工接受或拒绝一个等待确认的班次，被拒绝的班次保留用于审计
func (s *Service) RespondToShiftRequest(ctx context.Context, employeeID string, week domain.WeekKey, store domain.StoreID, day domain.Weekday, decision domain.RequestStatus, reason string) (*domain.Schedule, error) {
	if err := store.Validate(); err != nil {
		return nil, err
	}
	if err := validateWeekday(day); err != nil {
		return nil, err
	}
	if decision != domain.RequestAccepted && decision != domain.RequestDeclined {
		return nil, domain.NewValidationError("decision", "只能接受或拒绝")
	}

	schedule, err := s.store.GetSchedule(ctx, week, store)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, &domain.NotFoundError{Kind: "排班请求", ID: requestID(employeeID, week, store, day)}
		}
		return nil, err
	}

	shift := schedule.Shift(employeeID, day)
	if shift == nil || shift.RequestStatus != domain.RequestPending {
		return nil, &domain.NotFoundError{Kind: "排班请求", ID: requestID(employeeID, week, store, day)}
	}

	now := s.now()
	shift.RequestStatus = decision
	shift.RespondedAt = &now
	shift.ResponseReason = reason

	if err := s.saveSchedule(ctx, schedule); err != nil {
		return nil, err
	}

	message := "排班请求已接受"
	if decision == domain.RequestDeclined {
		message = "排班请求已拒绝"
	}
	date := week.Date(day)
	if _, err := s.notify(ctx, &domain.Notification{
		Target:       domain.TargetAdmin,
		StoreID:      store,
		Type:         domain.NotifyShiftRequestResponse,
		EmployeeID:   employeeID,
		EmployeeName: shift.EmployeeName,
		WeekKey:      &week,
		Weekday:      &day,
		Date:         &date,
		Message:      message,
		Reason:       reason,
	}); err != nil {
		return nil, err
	}

	metrics.IncShiftRequestResponded(string(decision))
	s.logger.Info("员工回复了排班请求", "employee", employeeID, "week", week.String(), "store", store, "decision", decision)

	return schedule, nil
}

func requestID(employeeID string, week domain.WeekKey, store domain.StoreID, day domain.Weekday) string {
	return fmt.Sprintf("%s/%s/%s/%s", employeeID, week, store, day)
}

// RecordActuals 管理员录入已有班次的实际时间，两者都为 nil 时清除偏差
func (s *Service) RecordActuals(ctx context.Context, employeeID string, week domain.WeekKey, store domain.StoreID, day domain.Weekday, actualStart, actualEnd *domain.TimeOfDay, reason string) (*domain.Schedule, error) {
	if err := store.Validate(); err != nil {
		return nil, err
	}
	if err := validateWeekday(day); err != nil {
		return nil, err
	}
	if actualStart != nil && !actualStart.Valid() {
		return nil, domain.NewValidationError("actualStart", "时间超出范围")
	}
	if actualEnd != nil && !actualEnd.Valid() {
		return nil, domain.NewValidationError("actualEnd", "时间超出范围")
	}

	schedule, err := s.store.GetSchedule(ctx, week, store)
	if err != nil {
		return nil, err
	}

	shift := schedule.ActiveShift(employeeID, day)
	if shift == nil {
		return nil, &domain.NotFoundError{Kind: "班次", ID: requestID(employeeID, week, store, day)}
	}

	applyActuals(shift, actualStart, actualEnd, reason)

	if err := s.saveSchedule(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}
