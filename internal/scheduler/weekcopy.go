package scheduler

import (
	"context"
	"fmt"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/freshshift/shift-planner/backend/internal/metrics"
)

type ConflictKind string

const (
	ConflictAbsence      ConflictKind = "absence"
	ConflictAvailability ConflictKind = "availability"
)

type Conflict struct {
	Kind         ConflictKind   `json:"kind"`
	EmployeeID   string         `json:"employeeId"`
	EmployeeName string         `json:"employeeName"`
	Weekday      domain.Weekday `json:"weekday"`
	Date         domain.Date    `json:"date"`
	Detail       string         `json:"detail"`
}

type CopyResult struct {
	Schedule *domain.Schedule `json:"schedule"`
	Copied   []domain.Shift   `json:"copied"`
	// Skipped 中每个被跳过的班次对应一条冲突
	Skipped []Conflict `json:"skipped"`
}

// copyContext 是一次复制所需的全部只读数据
type copyContext struct {
	source       *domain.Schedule
	target       domain.WeekKey
	store        domain.StoreID
	absences     []*domain.Absence
	availability map[string]*domain.Availability
	names        map[string]string
}

func (s *Service) loadCopyContext(ctx context.Context, source, target domain.WeekKey, store domain.StoreID) (*copyContext, error) {
	if err := store.Validate(); err != nil {
		return nil, err
	}
	if err := validateWeek(source); err != nil {
		return nil, err
	}
	if err := validateWeek(target); err != nil {
		return nil, err
	}
	if source == target {
		return nil, domain.NewValidationError("targetWeekKey", "源周和目标周不能相同")
	}

	schedule, err := s.store.GetSchedule(ctx, source, store)
	if err != nil {
		return nil, err
	}

	absences, err := s.ListAbsences(ctx, "")
	if err != nil {
		return nil, err
	}

	submissions, err := s.ListAvailabilityForWeek(ctx, target, store)
	if err != nil {
		return nil, err
	}
	availability := make(map[string]*domain.Availability, len(submissions))
	for _, a := range submissions {
		availability[a.EmployeeID] = a
	}

	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
	}

	return &copyContext{
		source:       schedule,
		target:       target,
		store:        store,
		absences:     absences,
		availability: availability,
		names:        names,
	}, nil
}

// shiftConflicts 检查一个源班次在目标周的冲突，最多返回两条：缺勤在前，空闲时间在后
func (c *copyContext) shiftConflicts(day domain.Weekday, shift *domain.Shift) []Conflict {
	date := c.target.Date(day)
	name := shift.EmployeeName
	if current, ok := c.names[shift.EmployeeID]; ok {
		name = current
	}

	var conflicts []Conflict
	if absence := firstAbsence(c.absences, shift.EmployeeID, date); absence != nil {
		detail := absenceTypeLabel(absence.Type)
		if absence.Note != "" {
			detail = fmt.Sprintf("%s: %s", detail, absence.Note)
		}
		conflicts = append(conflicts, Conflict{
			Kind:         ConflictAbsence,
			EmployeeID:   shift.EmployeeID,
			EmployeeName: name,
			Weekday:      day,
			Date:         date,
			Detail:       detail,
		})
	}

	if !c.availability[shift.EmployeeID].AvailableOn(day) {
		conflicts = append(conflicts, Conflict{
			Kind:         ConflictAvailability,
			EmployeeID:   shift.EmployeeID,
			EmployeeName: name,
			Weekday:      day,
			Date:         date,
			Detail:       "没有提交可用时间",
		})
	}

	return conflicts
}

// eachSourceShift 按星期顺序遍历源排班表中未被拒绝的班次
func (c *copyContext) eachSourceShift(fn func(day domain.Weekday, shift *domain.Shift)) {
	for _, day := range domain.Weekdays() {
		shifts := c.source.Shifts[day]
		for i := range shifts {
			if !shifts[i].IsActive() {
				continue
			}
			fn(day, &shifts[i])
		}
	}
}

// AnalyzeCopy 列出把源周排班复制到目标周时的所有冲突
func (s *Service) AnalyzeCopy(ctx context.Context, source, target domain.WeekKey, store domain.StoreID) ([]Conflict, error) {
	c, err := s.loadCopyContext(ctx, source, target, store)
	if err != nil {
		return nil, err
	}

	conflicts := make([]Conflict, 0)
	c.eachSourceShift(func(day domain.Weekday, shift *domain.Shift) {
		conflicts = append(conflicts, c.shiftConflicts(day, shift)...)
	})

	return conflicts, nil
}

// ApplyCopy 用源周的班次整体覆盖目标周的排班表
// skipConflicting 为 true 时跳过有冲突的班次
func (s *Service) ApplyCopy(ctx context.Context, source, target domain.WeekKey, store domain.StoreID, skipConflicting bool) (*CopyResult, error) {
	c, err := s.loadCopyContext(ctx, source, target, store)
	if err != nil {
		return nil, err
	}

	// 目标周的排班表被整体覆盖，这里只需要它的版本号
	existing, err := s.GetSchedule(ctx, target, store)
	if err != nil {
		return nil, err
	}

	schedule := domain.NewSchedule(target, store, s.now())
	schedule.CopiedFrom = &source
	if existing != nil {
		schedule.Version = existing.Version
	}

	result := &CopyResult{
		Schedule: schedule,
		Copied:   make([]domain.Shift, 0),
		Skipped:  make([]Conflict, 0),
	}

	c.eachSourceShift(func(day domain.Weekday, shift *domain.Shift) {
		if skipConflicting {
			if conflicts := c.shiftConflicts(day, shift); len(conflicts) > 0 {
				result.Skipped = append(result.Skipped, conflicts[0])
				return
			}
		}

		copied := domain.Shift{
			EmployeeID:   shift.EmployeeID,
			EmployeeName: shift.EmployeeName,
			Start:        shift.Start,
			End:          shift.End,
		}
		schedule.PutShift(day, copied)
		result.Copied = append(result.Copied, copied)
	})

	if err := s.saveSchedule(ctx, schedule); err != nil {
		return nil, err
	}

	metrics.AddWeekCopied(len(result.Copied), len(result.Skipped))
	s.logger.Info("已复制周排班", "source", source.String(), "target", target.String(), "store", store, "copied", len(result.Copied), "skipped", len(result.Skipped))

	return result, nil
}
