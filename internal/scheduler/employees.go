package scheduler

import (
	"context"
	"slices"
	"strings"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/freshshift/shift-planner/backend/internal/seed"
	"github.com/freshshift/shift-planner/backend/internal/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const maxUsernameAttempts = 20

// ListEmployees 返回在门店工作的员工，store 为空时返回全部
func (s *Service) ListEmployees(ctx context.Context, store domain.StoreID) ([]*domain.Employee, error) {
	if store != "" {
		if err := store.Validate(); err != nil {
			return nil, err
		}
	}

	all, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	if store == "" {
		return all, nil
	}

	out := make([]*domain.Employee, 0, len(all))
	for _, e := range all {
		if e.WorksAt(store) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Service) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

// FindEmployeeByUsername 用户名不区分大小写
func (s *Service) FindEmployeeByUsername(ctx context.Context, username string) (*domain.Employee, error) {
	all, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range all {
		if e.Username != "" && strings.EqualFold(e.Username, username) {
			return e, nil
		}
	}
	return nil, &domain.NotFoundError{Kind: "员工", ID: username}
}

func (s *Service) uniqueUsername(ctx context.Context, name string) (string, error) {
	all, err := s.store.ListEmployees(ctx)
	if err != nil {
		return "", err
	}
	taken := make(map[string]bool, len(all))
	for _, e := range all {
		taken[strings.ToLower(e.Username)] = true
	}

	for i := 0; i < maxUsernameAttempts; i++ {
		username := utils.GenerateUsernameFromName(name)
		if !taken[username] {
			return username, nil
		}
	}
	return "", domain.NewValidationError("username", "无法为 %s 生成唯一的用户名", name)
}

// CreateEmployee 创建员工并设置登录密码，员工有邮箱时把账号信息通过邮件发送给员工
func (s *Service) CreateEmployee(ctx context.Context, e *domain.Employee, password string) (*domain.Employee, error) {
	e.ID = s.newID()
	e.CreatedAt = s.now()
	if err := e.Validate(); err != nil {
		return nil, err
	}

	if e.Username == "" {
		username, err := s.uniqueUsername(ctx, e.Name)
		if err != nil {
			return nil, err
		}
		e.Username = username
	} else if _, err := s.FindEmployeeByUsername(ctx, e.Username); err == nil {
		return nil, domain.NewValidationError("username", "用户名 %s 已存在", e.Username)
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
		if err != nil {
			return nil, err
		}
		e.PasswordHash = string(hash)
	}

	if err := s.store.SaveEmployee(ctx, e); err != nil {
		return nil, err
	}

	if e.Email != "" && password != "" {
		s.publish(ctx, &domain.MailMessage{
			Type: domain.MailCreateEmployee,
			To:   e.Email,
			Data: domain.CreateEmployeeMailData{
				Name:     e.Name,
				Username: e.Username,
				Password: password,
			},
		})
	}

	s.logger.Info("已创建员工", "employee", e.ID, "username", e.Username)
	return e, nil
}

type EmployeeUpdate struct {
	Name            *string
	Type            *domain.EmployeeType
	HourlyRate      *decimal.Decimal
	ClearHourlyRate bool
	PrimaryStore    *domain.StoreID
	Stores          []domain.StoreID
	Email           *string
}

// UpdateEmployee 修改员工信息，已有班次和缺勤记录中的姓名快照不会改变
func (s *Service) UpdateEmployee(ctx context.Context, id string, upd EmployeeUpdate) (*domain.Employee, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		e.Name = *upd.Name
	}
	if upd.Type != nil {
		e.Type = *upd.Type
	}
	if upd.ClearHourlyRate {
		e.HourlyRate = nil
	} else if upd.HourlyRate != nil {
		rate := *upd.HourlyRate
		e.HourlyRate = &rate
	}
	if upd.PrimaryStore != nil {
		e.PrimaryStore = *upd.PrimaryStore
	}
	if upd.Stores != nil {
		e.Stores = slices.Clone(upd.Stores)
		// 不再工作的门店的默认模板一并删除
		for store := range e.DefaultAvailability {
			if !e.WorksAt(store) {
				delete(e.DefaultAvailability, store)
			}
		}
	}
	if upd.Email != nil {
		e.Email = *upd.Email
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.SaveEmployee(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteEmployee 只删除员工本身，历史班次和缺勤记录保留
func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.logger.Info("已删除员工", "employee", id)
	return nil
}

// Authenticate 校验员工的用户名和密码
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.Employee, error) {
	e, err := s.FindEmployeeByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if e.PasswordHash == "" {
		return nil, domain.NewValidationError("password", "密码错误")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(password)); err != nil {
		return nil, domain.NewValidationError("password", "密码错误")
	}
	return e, nil
}

// ChangePassword 员工修改自己的密码
func (s *Service) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return err
	}
	if e.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(oldPassword)); err != nil {
			return domain.NewValidationError("oldPassword", "原密码错误")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	e.PasswordHash = string(hash)

	return s.store.SaveEmployee(ctx, e)
}

// SeedRoster 在员工集合为空时写入初始员工，返回写入的数量
func (s *Service) SeedRoster(ctx context.Context) (int, error) {
	existing, err := s.store.ListEmployees(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	var hash string
	if s.seedPassword != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(s.seedPassword), s.bcryptCost)
		if err != nil {
			return 0, err
		}
		hash = string(b)
	}

	roster := seed.DefaultRoster(s.now())
	for _, e := range roster {
		e.PasswordHash = hash
		if err := s.store.SaveEmployee(ctx, e); err != nil {
			return 0, err
		}
	}

	s.logger.Info("已写入初始员工", "count", len(roster))
	return len(roster), nil
}
