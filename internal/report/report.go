package report

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/freshshift/shift-planner/backend/internal/scheduler"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// excel 工作表名称最多 31 个字符
const maxSheetName = 31

var monthStatsColumns = []string{"员工 ID", "姓名", "计划工时", "实际工时", "迟到次数", "早退次数", "时薪", "工资"}

// Workbook 按行依次写入工作表
type Workbook struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
	headerStyle  int
}

func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Workbook{file: f, headerStyle: style}, nil
}

func (w *Workbook) AddSheet(name string) error {
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}

	// 新建的文件自带 Sheet1
	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("无法创建工作表 %s: %w", name, err)
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

func (w *Workbook) WriteHeader(columns []string) error {
	if err := w.WriteRow(toRow(columns)); err != nil {
		return err
	}

	start, err := excelize.CoordinatesToCellName(1, w.currentRow-1)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(columns), w.currentRow-1)
	if err != nil {
		return err
	}
	return w.file.SetCellStyle(w.currentSheet, start, end, w.headerStyle)
}

func (w *Workbook) WriteRow(row []any) error {
	if w.currentSheet == "" {
		return errors.New("没有可写入的工作表")
	}

	for i, v := range row {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, v); err != nil {
			return err
		}
	}

	w.currentRow++
	return nil
}

func (w *Workbook) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

func toRow(columns []string) []any {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	return row
}

// WriteMonthStats 把门店的月度统计写成一个 xlsx 文件，每个员工一行，最后一行是合计
func WriteMonthStats(wr io.Writer, stats *scheduler.MonthStats) error {
	wb, err := NewWorkbook()
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := wb.AddSheet(SheetName(stats)); err != nil {
		return err
	}
	if err := wb.WriteHeader(monthStatsColumns); err != nil {
		return err
	}

	employees := make([]*scheduler.EmployeeMonthStats, 0, len(stats.Employees))
	for _, e := range stats.Employees {
		employees = append(employees, e)
	}
	sort.Slice(employees, func(i, j int) bool {
		if employees[i].EmployeeName != employees[j].EmployeeName {
			return employees[i].EmployeeName < employees[j].EmployeeName
		}
		return employees[i].EmployeeID < employees[j].EmployeeID
	})

	var planned, actual float64
	var late, early int
	earnings := decimal.Zero
	for _, e := range employees {
		planned += e.PlannedHours
		actual += e.ActualHours
		late += e.LateCount
		early += e.EarlyCount
		if e.Earnings != nil {
			earnings = earnings.Add(*e.Earnings)
		}

		if err := wb.WriteRow([]any{
			e.EmployeeID,
			e.EmployeeName,
			e.PlannedHours,
			e.ActualHours,
			e.LateCount,
			e.EarlyCount,
			decimalCell(e.HourlyRate),
			decimalCell(e.Earnings),
		}); err != nil {
			return err
		}
	}

	if err := wb.WriteRow([]any{nil, "合计", planned, actual, late, early, nil, earnings.StringFixed(2)}); err != nil {
		return err
	}

	return wb.Save(wr)
}

// SheetName 形如 "Fresh Fries 2025-03"
func SheetName(stats *scheduler.MonthStats) string {
	return fmt.Sprintf("%s %04d-%02d", stats.StoreID.Name(), stats.Year, int(stats.Month))
}

// decimalCell 没有值时返回 nil，对应的单元格留空
func decimalCell(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.StringFixed(2)
}
