package handler

import (
	"net/http"

	"github.com/freshshift/shift-planner/backend/internal/domain"
)

type ContextKey string

var (
	RoleCtxKey  ContextKey = "role"
	SubCtxKey   ContextKey = "sub"
	MyInfoCtx   ContextKey = "myInfo"
	EmployeeCtx ContextKey = "employee"
	StoreCtx    ContextKey = "store"
	WeekCtx     ContextKey = "week"
	WeekdayCtx  ContextKey = "weekday"
)

func roleOf(r *http.Request) domain.Role {
	return r.Context().Value(RoleCtxKey).(domain.Role)
}

func subjectOf(r *http.Request) string {
	return r.Context().Value(SubCtxKey).(string)
}

func storeOf(r *http.Request) domain.StoreID {
	return r.Context().Value(StoreCtx).(domain.StoreID)
}

func weekOf(r *http.Request) domain.WeekKey {
	return r.Context().Value(WeekCtx).(domain.WeekKey)
}

func weekdayOf(r *http.Request) domain.Weekday {
	return r.Context().Value(WeekdayCtx).(domain.Weekday)
}

func myInfoOf(r *http.Request) *domain.Employee {
	return r.Context().Value(MyInfoCtx).(*domain.Employee)
}
