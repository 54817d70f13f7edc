package scheduler

import (
	"context"
	"sort"

	"github.com/freshshift/shift-planner/backend/internal/domain"
)

// ExportBackup 导出全部五个集合，每个集合按记录的 key 排序
func (s *Service) ExportBackup(ctx context.Context) (*domain.Backup, error) {
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	availabilities, err := s.store.ListAvailabilities(ctx)
	if err != nil {
		return nil, err
	}
	schedules, err := s.store.ListSchedules(ctx)
	if err != nil {
		return nil, err
	}
	absences, err := s.store.ListAbsences(ctx)
	if err != nil {
		return nil, err
	}
	notifications, err := s.store.ListNotifications(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })
	sort.Slice(availabilities, func(i, j int) bool { return availabilities[i].Key() < availabilities[j].Key() })
	sort.Slice(schedules, func(i, j int) bool { return schedules[i].Key() < schedules[j].Key() })
	sort.Slice(absences, func(i, j int) bool { return absences[i].ID < absences[j].ID })
	sort.Slice(notifications, func(i, j int) bool { return notifications[i].ID < notifications[j].ID })

	return &domain.Backup{
		SchemaVersion: domain.BackupSchemaVersion,
		ExportedAt:    s.now(),
		Data: domain.BackupData{
			Employees:      employees,
			Availabilities: availabilities,
			Schedules:      schedules,
			Absences:       absences,
			Notifications:  notifications,
		},
	}, nil
}

// ImportBackup 整体替换五个集合，之后重新检查初始员工，保证员工集合不为空
func (s *Service) ImportBackup(ctx context.Context, backup *domain.Backup) error {
	if backup == nil || backup.SchemaVersion != domain.BackupSchemaVersion {
		return domain.NewValidationError("schemaVersion", "不支持的备份版本")
	}

	data := backup.Data
	for _, e := range data.Employees {
		if e == nil || e.ID == "" {
			return domain.NewValidationError("employees", "员工缺少 ID")
		}
	}
	for _, a := range data.Absences {
		if a == nil || a.ID == "" {
			return domain.NewValidationError("absences", "缺勤记录缺少 ID")
		}
	}
	for _, n := range data.Notifications {
		if n == nil || n.ID == "" {
			return domain.NewValidationError("notifications", "通知缺少 ID")
		}
	}
	for _, a := range data.Availabilities {
		if a == nil {
			return domain.NewValidationError("availabilities", "空的空闲时间记录")
		}
	}
	for _, sc := range data.Schedules {
		if sc == nil {
			return domain.NewValidationError("schedules", "空的排班表")
		}
		if sc.Shifts == nil {
			sc.Shifts = make(map[domain.Weekday][]domain.Shift)
		}
	}

	if err := s.store.ReplaceAll(ctx, &data); err != nil {
		return err
	}

	seeded, err := s.SeedRoster(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("已导入备份",
		"employees", len(data.Employees),
		"availabilities", len(data.Availabilities),
		"schedules", len(data.Schedules),
		"absences", len(data.Absences),
		"notifications", len(data.Notifications),
		"seeded", seeded,
	)
	return nil
}
