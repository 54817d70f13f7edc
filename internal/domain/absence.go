package domain

import "time"

type AbsenceType string

const (
	AbsenceVacation AbsenceType = "vacation"
	AbsenceSick     AbsenceType = "sick"
	AbsenceOther    AbsenceType = "other"
)

func (t AbsenceType) Valid() bool {
	switch t {
	case AbsenceVacation, AbsenceSick, AbsenceOther:
		return true
	}
	return false
}

type AbsenceStatus string

const (
	AbsencePending  AbsenceStatus = "pending"
	AbsenceApproved AbsenceStatus = "approved"
	AbsenceDeclined AbsenceStatus = "declined"
)

type Absence struct {
	ID             string        `json:"id"`
	EmployeeID     string        `json:"employeeId"`
	EmployeeName   string        `json:"employeeName"`
	StartDate      Date          `json:"startDate"`
	EndDate        Date          `json:"endDate"`
	Type           AbsenceType   `json:"type"`
	Note           string        `json:"note,omitempty"`
	Status         AbsenceStatus `json:"status"`
	RequestedBy    Requester     `json:"requestedBy"`
	RequestedAt    time.Time     `json:"requestedAt"`
	RespondedAt    *time.Time    `json:"respondedAt,omitempty"`
	ResponseReason string        `json:"responseReason,omitempty"`
}

func ValidateAbsenceRange(start, end Date, typ AbsenceType) error {
	if start.IsZero() || end.IsZero() {
		return NewValidationError("startDate", "请填写开始和结束日期")
	}
	if start.After(end) {
		return NewValidationError("endDate", "结束日期不能早于开始日期")
	}
	if !typ.Valid() {
		return NewValidationError("type", "无效的缺勤类型 %q", typ)
	}
	return nil
}

// Covers 判断日期是否落在 [StartDate, EndDate] 闭区间内
func (a *Absence) Covers(d Date) bool {
	return !d.Before(a.StartDate) && !d.After(a.EndDate)
}

func (a *Absence) IsActive() bool {
	return a.Status != AbsenceDeclined
}
