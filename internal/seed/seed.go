package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultRoster 是员工集合为空时写入的初始员工
func DefaultRoster(now time.Time) []*domain.Employee {
	roster := []struct {
		id   string
		name string
		typ  domain.EmployeeType
	}{
		{"1", "Zhulia", domain.EmployeeRegular},
		{"2", "Maria", domain.EmployeeRegular},
		{"3", "Vito", domain.EmployeeCasual},
		{"4", "Marzena", domain.EmployeeRegular},
		{"5", "Soheil", domain.EmployeeCasual},
	}

	employees := make([]*domain.Employee, 0, len(roster))
	for _, r := range roster {
		employees = append(employees, &domain.Employee{
			ID:           r.id,
			Name:         r.name,
			Type:         r.typ,
			PrimaryStore: domain.StoreFreshFries,
			Stores:       []domain.StoreID{domain.StoreFreshFries},
			Username:     strings.ToLower(r.name),
			CreatedAt:    now,
		})
	}
	return employees
}

// rosterColumns 是员工 CSV 必须包含的列，每个星期一列，格式为 "10:00-18:00"，留空表示不可用
var rosterColumns = []string{"name", "type", "primaryStore", "stores", "hourlyRate", "email"}

// ReadRosterCSV 读取员工 CSV，星期列会作为员工在主门店的默认空闲时间
// 返回的员工没有 ID，由调用方分配
func ReadRosterCSV(r io.Reader, now time.Time) ([]*domain.Employee, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, header := range headers {
		index[strings.TrimSpace(header)] = i
	}
	for _, col := range rosterColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("没有找到列 %q", col)
		}
	}

	employees := make([]*domain.Employee, 0)
	line := 1
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("读取文件失败: %w", err)
		}
		line++

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		e := &domain.Employee{
			Name:         get("name"),
			Type:         domain.EmployeeType(get("type")),
			PrimaryStore: domain.StoreID(get("primaryStore")),
			Email:        get("email"),
			CreatedAt:    now,
		}
		for _, s := range strings.Split(get("stores"), ";") {
			if s = strings.TrimSpace(s); s != "" {
				e.Stores = append(e.Stores, domain.StoreID(s))
			}
		}
		if rate := get("hourlyRate"); rate != "" {
			d, err := decimal.NewFromString(rate)
			if err != nil {
				return nil, fmt.Errorf("第 %d 行时薪格式错误: %w", line, err)
			}
			e.HourlyRate = &d
		}

		days, err := readWeekDays(get)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", line, err)
		}
		if days != nil {
			e.DefaultAvailability = map[domain.StoreID]domain.WeekTemplate{
				e.PrimaryStore: {Days: days},
			}
		}

		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", line, err)
		}
		employees = append(employees, e)
	}

	return employees, nil
}

// readWeekDays 一天都不可用时返回 nil
func readWeekDays(get func(string) string) (domain.WeekDays, error) {
	days := make(domain.WeekDays, 7)
	for _, day := range domain.Weekdays() {
		cell := get(day.String())
		if cell == "" {
			days[day] = domain.DayAvailability{Available: false}
			continue
		}

		startText, endText, ok := strings.Cut(cell, "-")
		if !ok {
			return nil, &domain.FormatError{Kind: "时间段", Value: cell}
		}
		start, err := domain.ParseTimeOfDay(startText)
		if err != nil {
			return nil, err
		}
		end, err := domain.ParseTimeOfDay(endText)
		if err != nil {
			return nil, err
		}
		days[day] = domain.DayAvailability{Available: true, Start: &start, End: &end}
	}

	if err := days.Validate(); err != nil {
		return nil, err
	}
	for _, entry := range days {
		if entry.Available {
			return days, nil
		}
	}
	return nil, nil
}
