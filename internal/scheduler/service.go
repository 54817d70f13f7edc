package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/freshshift/shift-planner/backend/internal/metrics"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type EmployeeStore interface {
	ListEmployees(ctx context.Context) ([]*domain.Employee, error)
	GetEmployee(ctx context.Context, id string) (*domain.Employee, error)
	SaveEmployee(ctx context.Context, e *domain.Employee) error
	DeleteEmployee(ctx context.Context, id string) error
}

type AvailabilityStore interface {
	ListAvailabilities(ctx context.Context) ([]*domain.Availability, error)
	GetAvailability(ctx context.Context, employeeID string, week domain.WeekKey, store domain.StoreID) (*domain.Availability, error)
	SaveAvailability(ctx context.Context, a *domain.Availability) error
}

// ScheduleStore 的 SaveSchedule 需要检查 Schedule.Version，版本不一致时返回 *domain.ConflictError
type ScheduleStore interface {
	ListSchedules(ctx context.Context) ([]*domain.Schedule, error)
	GetSchedule(ctx context.Context, week domain.WeekKey, store domain.StoreID) (*domain.Schedule, error)
	SaveSchedule(ctx context.Context, s *domain.Schedule) error
}

type AbsenceStore interface {
	ListAbsences(ctx context.Context) ([]*domain.Absence, error)
	GetAbsence(ctx context.Context, id string) (*domain.Absence, error)
	SaveAbsence(ctx context.Context, a *domain.Absence) error
	DeleteAbsence(ctx context.Context, id string) error
}

type NotificationStore interface {
	ListNotifications(ctx context.Context) ([]*domain.Notification, error)
	GetNotification(ctx context.Context, id string) (*domain.Notification, error)
	SaveNotification(ctx context.Context, n *domain.Notification) error
}

// Store 汇总了引擎需要的所有集合，repository.Repository 实现了该接口
type Store interface {
	EmployeeStore
	AvailabilityStore
	ScheduleStore
	AbsenceStore
	NotificationStore
	ReplaceAll(ctx context.Context, data *domain.BackupData) error
}

// Publisher 把邮件交给外部的投递服务
type Publisher interface {
	Publish(ctx context.Context, msg *domain.MailMessage) error
}

type Service struct {
	store      Store
	publisher  Publisher
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
	adminEmail string
	// seedPassword 是初始员工的登录密码，为空时初始员工无法登录
	seedPassword string
	bcryptCost   int
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// WithAdminEmail 设置管理员通知邮件的收件地址，为空时不发送
func WithAdminEmail(addr string) Option {
	return func(s *Service) {
		s.adminEmail = addr
	}
}

func WithSeedPassword(password string) Option {
	return func(s *Service) {
		s.seedPassword = password
	}
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		logger:     slog.Default(),
		now:        time.Now,
		newID:      uuid.NewString,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() domain.Date {
	return domain.DateOf(s.now())
}

// loadSchedule 读取排班表，不存在时返回一个尚未保存的新排班表
func (s *Service) loadSchedule(ctx context.Context, week domain.WeekKey, store domain.StoreID) (*domain.Schedule, error) {
	schedule, err := s.store.GetSchedule(ctx, week, store)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.NewSchedule(week, store, s.now()), nil
		}
		return nil, err
	}
	return schedule, nil
}

func (s *Service) saveSchedule(ctx context.Context, schedule *domain.Schedule) error {
	if err := s.store.SaveSchedule(ctx, schedule); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			metrics.IncWriteConflict(conflict.Collection)
			s.logger.Warn("排班表已被其他请求修改", "week", schedule.WeekKey.String(), "store", schedule.StoreID)
		}
		return err
	}
	return nil
}

// lookupEmployee 返回员工，不存在时返回 nil
func (s *Service) lookupEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func validateWeek(week domain.WeekKey) error {
	if week.IsZero() {
		return domain.NewValidationError("weekKey", "请指定周")
	}
	return nil
}

func validateWeekday(day domain.Weekday) error {
	if !day.Valid() {
		return domain.NewValidationError("weekday", "无效的星期 %d", int(day))
	}
	return nil
}
