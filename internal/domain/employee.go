package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type EmployeeType string

const (
	EmployeeRegular EmployeeType = "regular"
	EmployeeCasual  EmployeeType = "casual"
)

type Employee struct {
	ID                  string                   `json:"id"`
	Name                string                   `json:"name"`
	Type                EmployeeType             `json:"type"`
	HourlyRate          *decimal.Decimal         `json:"hourlyRate,omitempty"`
	PrimaryStore        StoreID                  `json:"primaryStore"`
	Stores              []StoreID                `json:"stores"`
	DefaultAvailability map[StoreID]WeekTemplate `json:"defaultAvailability,omitempty"`
	Email               string                   `json:"email,omitempty"`
	Username            string                   `json:"username,omitempty"`
	PasswordHash        string                   `json:"passwordHash,omitempty"`
	CreatedAt           time.Time                `json:"createdAt"`
}

func (e *Employee) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return NewValidationError("name", "姓名不能为空")
	}
	switch e.Type {
	case EmployeeRegular, EmployeeCasual:
	default:
		return NewValidationError("type", "无效的雇佣类型 %q", e.Type)
	}
	if e.HourlyRate != nil && !e.HourlyRate.IsPositive() {
		return NewValidationError("hourlyRate", "时薪必须大于 0")
	}
	if len(e.Stores) == 0 {
		return NewValidationError("stores", "至少需要一个门店")
	}
	for _, s := range e.Stores {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if !slices.Contains(e.Stores, e.PrimaryStore) {
		return NewValidationError("primaryStore", "主门店必须包含在门店列表中")
	}
	for store, tmpl := range e.DefaultAvailability {
		if err := store.Validate(); err != nil {
			return err
		}
		if err := tmpl.Days.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Employee) WorksAt(store StoreID) bool {
	return slices.Contains(e.Stores, store)
}

// OrderedStores 返回门店列表，主门店排在最前
func (e *Employee) OrderedStores() []StoreID {
	out := []StoreID{e.PrimaryStore}
	for _, s := range e.Stores {
		if s != e.PrimaryStore {
			out = append(out, s)
		}
	}
	return out
}

func (e *Employee) DefaultTemplate(store StoreID) (WeekTemplate, bool) {
	tmpl, ok := e.DefaultAvailability[store]
	return tmpl, ok
}

// Public 返回去掉密码哈希的副本，用于接口响应
func (e *Employee) Public() *Employee {
	out := *e
	out.PasswordHash = ""
	return &out
}
