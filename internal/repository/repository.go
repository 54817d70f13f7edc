package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/freshshift/shift-planner/backend/internal/domain"
)

// Repository 在 Backend 之上提供按集合划分的类型化读写
type Repository struct {
	backend Backend
}

func NewRepository(backend Backend) *Repository {
	return &Repository{
		backend: backend,
	}
}

func (r *Repository) Close() error {
	return r.backend.Close()
}

func getRecord[T any](ctx context.Context, b Backend, c Collection, key string, kind string) (*T, int64, error) {
	rec, err := b.Get(ctx, c, key)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, 0, &domain.NotFoundError{Kind: kind, ID: key}
		}
		return nil, 0, err
	}

	v := new(T)
	if err := json.Unmarshal(rec.Data, v); err != nil {
		return nil, 0, fmt.Errorf("无法解析 %s/%s: %w", c, key, err)
	}

	return v, rec.Version, nil
}

func listRecords[T any](ctx context.Context, b Backend, c Collection) ([]*T, error) {
	recs, err := b.List(ctx, c)
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(recs))
	for _, rec := range recs {
		v := new(T)
		if err := json.Unmarshal(rec.Data, v); err != nil {
			return nil, fmt.Errorf("无法解析 %s/%s: %w", c, rec.Key, err)
		}
		out = append(out, v)
	}

	return out, nil
}

func putRecord(ctx context.Context, b Backend, c Collection, key string, v any, expectedVersion int64) (int64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	return b.Put(ctx, c, key, data, expectedVersion)
}

func deleteRecord(ctx context.Context, b Backend, c Collection, key string, kind string) error {
	if err := b.Delete(ctx, c, key); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return &domain.NotFoundError{Kind: kind, ID: key}
		}
		return err
	}
	return nil
}

/**********************************************
 * 员工
 **********************************************/

func (r *Repository) ListEmployees(ctx context.Context) ([]*domain.Employee, error) {
	return listRecords[domain.Employee](ctx, r.backend, Employees)
}

func (r *Repository) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	e, _, err := getRecord[domain.Employee](ctx, r.backend, Employees, id, "员工")
	return e, err
}

func (r *Repository) SaveEmployee(ctx context.Context, e *domain.Employee) error {
	_, err := putRecord(ctx, r.backend, Employees, e.ID, e, AnyVersion)
	return err
}

func (r *Repository) DeleteEmployee(ctx context.Context, id string) error {
	return deleteRecord(ctx, r.backend, Employees, id, "员工")
}

/**********************************************
 * 空闲时间
 **********************************************/

func (r *Repository) ListAvailabilities(ctx context.Context) ([]*domain.Availability, error) {
	return listRecords[domain.Availability](ctx, r.backend, Availabilities)
}

func (r *Repository) GetAvailability(ctx context.Context, employeeID string, week domain.WeekKey, store domain.StoreID) (*domain.Availability, error) {
	a, _, err := getRecord[domain.Availability](ctx, r.backend, Availabilities, domain.AvailabilityKey(employeeID, week, store), "空闲时间")
	return a, err
}

// SaveAvailability 按 (员工, 周, 门店) 整体覆盖
func (r *Repository) SaveAvailability(ctx context.Context, a *domain.Availability) error {
	_, err := putRecord(ctx, r.backend, Availabilities, a.Key(), a, AnyVersion)
	return err
}

/**********************************************
 * 排班表
 **********************************************/

func (r *Repository) ListSchedules(ctx context.Context) ([]*domain.Schedule, error) {
	recs, err := r.backend.List(ctx, Schedules)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Schedule, 0, len(recs))
	for _, rec := range recs {
		s := &domain.Schedule{}
		if err := json.Unmarshal(rec.Data, s); err != nil {
			return nil, fmt.Errorf("无法解析 %s/%s: %w", Schedules, rec.Key, err)
		}
		s.Version = rec.Version
		out = append(out, s)
	}

	return out, nil
}

func (r *Repository) GetSchedule(ctx context.Context, week domain.WeekKey, store domain.StoreID) (*domain.Schedule, error) {
	s, version, err := getRecord[domain.Schedule](ctx, r.backend, Schedules, domain.ScheduleKey(week, store), "排班表")
	if err != nil {
		return nil, err
	}
	s.Version = version
	return s, nil
}

// SaveSchedule 以读取时的版本作为期望版本写入，新建的排班表版本为 0
// 写入成功后更新 s.Version，版本不一致时返回 *domain.ConflictError
func (r *Repository) SaveSchedule(ctx context.Context, s *domain.Schedule) error {
	version, err := putRecord(ctx, r.backend, Schedules, s.Key(), s, s.Version)
	if err != nil {
		return err
	}
	s.Version = version
	return nil
}

/**********************************************
 * 缺勤
 **********************************************/

func (r *Repository) ListAbsences(ctx context.Context) ([]*domain.Absence, error) {
	return listRecords[domain.Absence](ctx, r.backend, Absences)
}

func (r *Repository) GetAbsence(ctx context.Context, id string) (*domain.Absence, error) {
	a, _, err := getRecord[domain.Absence](ctx, r.backend, Absences, id, "缺勤记录")
	return a, err
}

func (r *Repository) SaveAbsence(ctx context.Context, a *domain.Absence) error {
	_, err := putRecord(ctx, r.backend, Absences, a.ID, a, AnyVersion)
	return err
}

func (r *Repository) DeleteAbsence(ctx context.Context, id string) error {
	return deleteRecord(ctx, r.backend, Absences, id, "缺勤记录")
}

/**********************************************
 * 通知
 **********************************************/

func (r *Repository) ListNotifications(ctx context.Context) ([]*domain.Notification, error) {
	return listRecords[domain.Notification](ctx, r.backend, Notifications)
}

func (r *Repository) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	n, _, err := getRecord[domain.Notification](ctx, r.backend, Notifications, id, "通知")
	return n, err
}

func (r *Repository) SaveNotification(ctx context.Context, n *domain.Notification) error {
	_, err := putRecord(ctx, r.backend, Notifications, n.ID, n, AnyVersion)
	return err
}

/**********************************************
 * 备份
 **********************************************/

// ReplaceAll 用备份中的数据整体替换五个集合
func (r *Repository) ReplaceAll(ctx context.Context, data *domain.BackupData) error {
	records := make(map[Collection][]Record, len(Collections))

	add := func(c Collection, key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		records[c] = append(records[c], Record{Key: key, Data: b})
		return nil
	}

	for _, c := range Collections {
		records[c] = []Record{}
	}
	for _, e := range data.Employees {
		if err := add(Employees, e.ID, e); err != nil {
			return err
		}
	}
	for _, a := range data.Availabilities {
		if err := add(Availabilities, a.Key(), a); err != nil {
			return err
		}
	}
	for _, s := range data.Schedules {
		if err := add(Schedules, s.Key(), s); err != nil {
			return err
		}
	}
	for _, a := range data.Absences {
		if err := add(Absences, a.ID, a); err != nil {
			return err
		}
	}
	for _, n := range data.Notifications {
		if err := add(Notifications, n.ID, n); err != nil {
			return err
		}
	}

	return r.backend.ReplaceAll(ctx, records)
}
