package scheduler

import (
	"context"
	"fmt"
	"sort"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/freshshift/shift-planner/backend/internal/metrics"
)

type AbsenceInput struct {
	EmployeeID string
	StartDate  domain.Date
	EndDate    domain.Date
	Type       domain.AbsenceType
	Note       string
}

func absenceTypeLabel(t domain.AbsenceType) string {
	switch t {
	case domain.AbsenceVacation:
		return "休假"
	case domain.AbsenceSick:
		return "病假"
	default:
		return "缺勤"
	}
}

func (s *Service) newAbsence(ctx context.Context, in AbsenceInput, by domain.Requester) (*domain.Absence, *domain.Employee, error) {
	if err := domain.ValidateAbsenceRange(in.StartDate, in.EndDate, in.Type); err != nil {
		return nil, nil, err
	}

	employee, err := s.store.GetEmployee(ctx, in.EmployeeID)
	if err != nil {
		return nil, nil, err
	}

	return &domain.Absence{
		ID:           s.newID(),
		EmployeeID:   employee.ID,
		EmployeeName: employee.Name,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Type:         in.Type,
		Note:         in.Note,
		RequestedBy:  by,
		RequestedAt:  s.now(),
	}, employee, nil
}

// RequestAbsence 由员工发起，病假直接批准，其他类型等待管理员审批
func (s *Service) RequestAbsence(ctx context.Context, in AbsenceInput) (*domain.Absence, error) {
	absence, employee, err := s.newAbsence(ctx, in, domain.RequestedByEmployee)
	if err != nil {
		return nil, err
	}

	typ := domain.NotifyAbsenceRequest
	absence.Status = domain.AbsencePending
	if absence.Type == domain.AbsenceSick {
		typ = domain.NotifyAbsenceNotice
		absence.Status = domain.AbsenceApproved
	}

	if err := s.store.SaveAbsence(ctx, absence); err != nil {
		return nil, err
	}
	metrics.IncAbsenceCreated(string(absence.Type), string(absence.Status))

	start := absence.StartDate
	if _, err := s.notify(ctx, &domain.Notification{
		Target:       domain.TargetAdmin,
		StoreID:      employee.PrimaryStore,
		Type:         typ,
		EmployeeID:   employee.ID,
		EmployeeName: employee.Name,
		Date:         &start,
		AbsenceID:    absence.ID,
		Message:      fmt.Sprintf("%s: %s 至 %s", absenceTypeLabel(absence.Type), absence.StartDate, absence.EndDate),
		Reason:       absence.Note,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("员工提交了缺勤申请", "employee", employee.ID, "absence", absence.ID, "status", absence.Status)
	return absence, nil
}

// EnterAbsence 由管理员录入，直接视为已批准
func (s *Service) EnterAbsence(ctx context.Context, in AbsenceInput) (*domain.Absence, error) {
	absence, _, err := s.newAbsence(ctx, in, domain.RequestedByAdmin)
	if err != nil {
		return nil, err
	}
	absence.Status = domain.AbsenceApproved

	if err := s.store.SaveAbsence(ctx, absence); err != nil {
		return nil, err
	}
	metrics.IncAbsenceCreated(string(absence.Type), string(absence.Status))

	return absence, nil
}

type AbsenceUpdate struct {
	StartDate *domain.Date
	EndDate   *domain.Date
	Type      *domain.AbsenceType
	Note      *string
}

// UpdateAbsence 修改日期、类型或备注，不改变审批状态
func (s *Service) UpdateAbsence(ctx context.Context, id string, upd AbsenceUpdate) (*domain.Absence, error) {
	absence, err := s.store.GetAbsence(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.StartDate != nil {
		absence.StartDate = *upd.StartDate
	}
	if upd.EndDate != nil {
		absence.EndDate = *upd.EndDate
	}
	if upd.Type != nil {
		absence.Type = *upd.Type
	}
	if upd.Note != nil {
		absence.Note = *upd.Note
	}

	if err := domain.ValidateAbsenceRange(absence.StartDate, absence.EndDate, absence.Type); err != nil {
		return nil, err
	}

	if err := s.store.SaveAbsence(ctx, absence); err != nil {
		return nil, err
	}
	return absence, nil
}

// ResolveAbsence 批准或拒绝缺勤申请并通知员工
func (s *Service) ResolveAbsence(ctx context.Context, id string, decision domain.AbsenceStatus, reason string) (*domain.Absence, error) {
	if decision != domain.AbsenceApproved && decision != domain.AbsenceDeclined {
		return nil, domain.NewValidationError("decision", "只能批准或拒绝")
	}

	absence, err := s.store.GetAbsence(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	absence.Status = decision
	absence.RespondedAt = &now
	absence.ResponseReason = reason

	if err := s.store.SaveAbsence(ctx, absence); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("%s申请已批准", absenceTypeLabel(absence.Type))
	if decision == domain.AbsenceDeclined {
		message = fmt.Sprintf("%s申请已被拒绝", absenceTypeLabel(absence.Type))
	}
	start := absence.StartDate
	if _, err := s.notify(ctx, &domain.Notification{
		Target:           domain.TargetEmployee,
		TargetEmployeeID: absence.EmployeeID,
		Type:             domain.NotifyAbsenceResolved,
		EmployeeID:       absence.EmployeeID,
		EmployeeName:     absence.EmployeeName,
		Date:             &start,
		AbsenceID:        absence.ID,
		Message:          message,
		Reason:           reason,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("已处理缺勤申请", "absence", absence.ID, "decision", decision)
	return absence, nil
}

func (s *Service) DeleteAbsence(ctx context.Context, id string) error {
	return s.store.DeleteAbsence(ctx, id)
}

func (s *Service) GetAbsence(ctx context.Context, id string) (*domain.Absence, error) {
	return s.store.GetAbsence(ctx, id)
}

// ListAbsences 按 (开始日期, ID) 排序，employeeID 为空时返回全部
func (s *Service) ListAbsences(ctx context.Context, employeeID string) ([]*domain.Absence, error) {
	all, err := s.store.ListAbsences(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Absence, 0, len(all))
	for _, a := range all {
		if employeeID == "" || a.EmployeeID == employeeID {
			out = append(out, a)
		}
	}
	sortAbsences(out)

	return out, nil
}

func sortAbsences(absences []*domain.Absence) {
	sort.SliceStable(absences, func(i, j int) bool {
		a, b := absences[i], absences[j]
		if a.StartDate != b.StartDate {
			return a.StartDate.Before(b.StartDate)
		}
		return a.ID < b.ID
	})
}

// IsAbsent 返回覆盖该日期的第一条未被拒绝的缺勤记录，没有则返回 nil
func (s *Service) IsAbsent(ctx context.Context, employeeID string, date domain.Date) (*domain.Absence, error) {
	absences, err := s.ListAbsences(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return firstAbsence(absences, employeeID, date), nil
}

// firstAbsence 要求 absences 已经排序
func firstAbsence(absences []*domain.Absence, employeeID string, date domain.Date) *domain.Absence {
	for _, a := range absences {
		if a.EmployeeID == employeeID && a.IsActive() && a.Covers(date) {
			return a
		}
	}
	return nil
}
