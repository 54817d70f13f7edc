package scheduler

import (
	"testing"
	"time"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignShiftConfirmedWhenAvailable(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t, "1", testWeek, domain.Monday)

	shift := env.assign(t, "1", testWeek, domain.Monday, "10:00", "18:00")
	assert.Empty(t, shift.RequestStatus)
	assert.True(t, shift.IsConfirmed())
	assert.Equal(t, "Zhulia", shift.EmployeeName)

	notifications, err := env.svc.ListNotifications(env.ctx, domain.NotificationFilter{})
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestAssignShiftWithoutAvailabilityCreatesRequest(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t, "1", testWeek, domain.Monday)

	shift := env.assign(t, "1", testWeek, domain.Tuesday, "10:00", "14:00")
	assert.Equal(t, domain.RequestPending, shift.RequestStatus)
	assert.Equal(t, domain.RequestedByAdmin, shift.RequestedBy)
	require.NotNil(t, shift.RequestedAt)
	assert.True(t, shift.RequestedAt.Equal(testNow))

	// 没有任何提交时同样需要员工确认
	other := env.assign(t, "2", testWeek, domain.Tuesday, "10:00", "14:00")
	assert.Equal(t, domain.RequestPending, other.RequestStatus)

	notifications, err := env.svc.ListNotifications(env.ctx, domain.NotificationFilter{
		Target:     domain.TargetEmployee,
		EmployeeID: "1",
	})
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotifyShiftRequest, notifications[0].Type)
	assert.Equal(t, domain.StoreFreshFries, notifications[0].StoreID)
	require.NotNil(t, notifications[0].Weekday)
	assert.Equal(t, domain.Tuesday, *notifications[0].Weekday)
}

func TestAssignShiftValidation(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.svc.AssignShift(env.ctx, AssignShiftInput{
		EmployeeID: "1", WeekKey: testWeek, StoreID: domain.StoreFreshFries,
		Weekday: domain.Monday, Start: tod("18:00"), End: tod("10:00"),
	})
	assert.True(t, domain.IsValidation(err))

	_, _, err = env.svc.AssignShift(env.ctx, AssignShiftInput{
		EmployeeID: "1", WeekKey: testWeek, StoreID: domain.StoreFreshFries,
		Weekday: domain.Monday, Start: tod("10:00"), End: tod("10:00"),
	})
	assert.True(t, domain.IsValidation(err))

	_, _, err = env.svc.AssignShift(env.ctx, AssignShiftInput{
		EmployeeID: "1", WeekKey: testWeek, StoreID: "burger_king",
		Weekday: domain.Monday, Start: tod("10:00"), End: tod("18:00"),
	})
	assert.True(t, domain.IsConfiguration(err))

	_, _, err = env.svc.AssignShift(env.ctx, AssignShiftInput{
		EmployeeID: "99", WeekKey: testWeek, StoreID: domain.StoreFreshFries,
		Weekday: domain.Monday, Start: tod("10:00"), End: tod("18:00"),
	})
	assert.True(t, domain.IsNotFound(err))

	// 员工不在 yes_fresh 工作
	_, _, err = env.svc.AssignShift(env.ctx, AssignShiftInput{
		EmployeeID: "1", WeekKey: testWeek, StoreID: domain.StoreYesFresh,
		Weekday: domain.Monday, Start: tod("10:00"), End: tod("18:00"),
	})
	assert.True(t, domain.IsValidation(err))

	schedule, err := env.svc.GetSchedule(env.ctx, testWeek, domain.StoreFreshFries)
	require.NoError(t, err)
	assert.Nil(t, schedule)
}

func TestAssignShiftWithActuals(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t, "1", testWeek, domain.Monday)

	_, shift, err := env.svc.AssignShift(env.ctx, AssignShiftInput{
		EmployeeID: "1", WeekKey: testWeek, StoreID: domain.StoreFreshFries,
		Weekday: domain.Monday, Start: tod("10:00"), End: tod("18:00"),
		ActualStart: todPtr("10:15"), ActualEnd: todPtr("17:30"), Reason: "Stau",
	})
	require.NoError(t, err)
	require.NotNil(t, shift.Deviation)
	assert.Equal(t, 15, shift.Deviation.LateMinutes)
	assert.Equal(t, 30, shift.Deviation.EarlyMinutes)
	assert.Equal(t, "Stau", shift.Deviation.Reason)
	assert.InDelta(t, 7.25, shift.ActualHours(), 1e-9)
}

func TestAssignShiftRejectsAbsentEmployee(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t, "1", testWeek, domain.Monday, domain.Tuesday)

	_, err := env.svc.EnterAbsence(env.ctx, AbsenceInput{
		EmployeeID: "1",
		StartDate:  testWeek.Date(domain.Tuesday),
		EndDate:    testWeek.Date(domain.Thursday),
		Type:       domain.AbsenceVacation,
	})
	require.NoError(t, err)

	_, _, err = env.svc.AssignShift(env.ctx, AssignShiftInput{
		EmployeeID: "1", WeekKey: testWeek, StoreID: domain.StoreFreshFries,
		Weekday: domain.Tuesday, Start: tod("10:00"), End: tod("18:00"),
	})
	assert.True(t, domain.IsValidation(err))

	_, shift, err := env.svc.AssignShift(env.ctx, AssignShiftInput{
		EmployeeID: "1", WeekKey: testWeek, StoreID: domain.StoreFreshFries,
		Weekday: domain.Tuesday, Start: tod("10:00"), End: tod("18:00"), Force: true,
	})
	require.NoError(t, err)
	assert.NotNil(t, shift)

	// 缺勤范围之外不受影响
	env.assign(t, "1", testWeek, domain.Monday, "10:00", "18:00")
}

func TestAtMostOneShiftPerEmployeePerDay(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t, "1", testWeek, domain.Monday)

	env.assign(t, "1", testWeek, domain.Monday, "10:00", "14:00")
	env.assign(t, "1", testWeek, domain.Monday, "12:00", "18:00")
	env.assign(t, "2", testWeek, domain.Monday, "10:00", "18:00")
	env.assign(t, "1", testWeek, domain.Monday, "09:00", "13:00")

	schedule, err := env.svc.GetSchedule(env.ctx, testWeek, domain.StoreFreshFries)
	require.NoError(t, err)

	count := 0
	for _, shift := range schedule.Shifts[domain.Monday] {
		if shift.EmployeeID == "1" {
			count++
			assert.Equal(t, tod("09:00"), shift.Start)
		}
	}
	assert.Equal(t, 1, count)
	assert.Len(t, schedule.Shifts[domain.Monday], 2)

	_, err = env.svc.RemoveShift(env.ctx, "1", testWeek, domain.StoreFreshFries, domain.Monday)
	require.NoError(t, err)
	schedule, err = env.svc.GetSchedule(env.ctx, testWeek, domain.StoreFreshFries)
	require.NoError(t, err)
	assert.Nil(t, schedule.Shift("1", domain.Monday))
	assert.NotNil(t, schedule.Shift("2", domain.Monday))
}

func TestRemoveShiftIsNoopWhenMissing(t *testing.T) {
	env := newTestEnv(t)

	schedule, err := env.svc.RemoveShift(env.ctx, "1", testWeek, domain.StoreFreshFries, domain.Monday)
	require.NoError(t, err)
	assert.Nil(t, schedule)

	env.assign(t, "2", testWeek, domain.Monday, "10:00", "18:00")
	schedule, err = env.svc.RemoveShift(env.ctx, "1", testWeek, domain.StoreFreshFries, domain.Monday)
	require.NoError(t, err)
	assert.Equal(t, 1, schedule.ShiftCount())
}

func TestReleaseIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Release(env.ctx, testWeek, domain.StoreFreshFries)
	assert.True(t, domain.IsNotFound(err))

	env.assign(t, "1", testWeek, domain.Monday, "10:00", "18:00")

	first, err := env.svc.Release(env.ctx, testWeek, domain.StoreFreshFries)
	require.NoError(t, err)
	require.True(t, first.Released)
	require.NotNil(t, first.ReleasedAt)
	releasedAt := *first.ReleasedAt

	env.advance(2 * time.Hour)
	second, err := env.svc.Release(env.ctx, testWeek, domain.StoreFreshFries)
	require.NoError(t, err)
	assert.True(t, second.Released)
	assert.True(t, releasedAt.Equal(*second.ReleasedAt))

	// 发布后继续排班不会取消发布
	env.assign(t, "2", testWeek, domain.Tuesday, "10:00", "18:00")
	schedule, err := env.svc.GetSchedule(env.ctx, testWeek, domain.StoreFreshFries)
	require.NoError(t, err)
	assert.True(t, schedule.Released)
}

func TestRespondToShiftRequest(t *testing.T) {
	env := newTestEnv(t)
	env.assign(t, "3", testWeek, domain.Friday, "16:00", "22:00")

	env.advance(time.Hour)
	schedule, err := env.svc.RespondToShiftRequest(env.ctx, "3", testWeek, domain.StoreFreshFries, domain.Friday, domain.RequestDeclined, "Uni")
	require.NoError(t, err)

	shift := schedule.Shift("3", domain.Friday)
	require.NotNil(t, shift)
	assert.Equal(t, domain.RequestDeclined, shift.RequestStatus)
	assert.Equal(t, "Uni", shift.ResponseReason)
	require.NotNil(t, shift.RespondedAt)
	assert.True(t, shift.RespondedAt.Equal(testNow.Add(time.Hour)))
	assert.Nil(t, schedule.ActiveShift("3", domain.Friday))

	notifications, err := env.svc.ListNotifications(env.ctx, domain.NotificationFilter{Target: domain.TargetAdmin})
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotifyShiftRequestResponse, notifications[0].Type)
	assert.Equal(t, "Uni", notifications[0].Reason)

	// 已回复的请求不能再次回复
	_, err = env.svc.RespondToShiftRequest(env.ctx, "3", testWeek, domain.StoreFreshFries, domain.Friday, domain.RequestAccepted, "")
	assert.True(t, domain.IsNotFound(err))

	// 重新排班会重置状态
	shiftAgain := env.assign(t, "3", testWeek, domain.Friday, "16:00", "20:00")
	assert.Equal(t, domain.RequestPending, shiftAgain.RequestStatus)
	_, err = env.svc.RespondToShiftRequest(env.ctx, "3", testWeek, domain.StoreFreshFries, domain.Friday, domain.RequestAccepted, "")
	require.NoError(t, err)
}

func TestRespondToShiftRequestErrors(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t, "1", testWeek, domain.Monday)
	env.assign(t, "1", testWeek, domain.Monday, "10:00", "18:00")

	_, err := env.svc.RespondToShiftRequest(env.ctx, "1", testWeek, domain.StoreFreshFries, domain.Monday, domain.RequestAccepted, "")
	assert.True(t, domain.IsNotFound(err))

	_, err = env.svc.RespondToShiftRequest(env.ctx, "1", testWeek.AddWeeks(1), domain.StoreFreshFries, domain.Monday, domain.RequestAccepted, "")
	assert.True(t, domain.IsNotFound(err))

	_, err = env.svc.RespondToShiftRequest(env.ctx, "1", testWeek, domain.StoreFreshFries, domain.Monday, domain.RequestPending, "")
	assert.True(t, domain.IsValidation(err))
}

func TestStaleScheduleWriteConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.assign(t, "1", testWeek, domain.Monday, "10:00", "18:00")

	stale, err := env.repo.GetSchedule(env.ctx, testWeek, domain.StoreFreshFries)
	require.NoError(t, err)

	env.assign(t, "2", testWeek, domain.Monday, "10:00", "18:00")

	stale.Released = true
	err = env.repo.SaveSchedule(env.ctx, stale)
	assert.True(t, domain.IsConflict(err))

	schedule, err := env.svc.GetSchedule(env.ctx, testWeek, domain.StoreFreshFries)
	require.NoError(t, err)
	assert.False(t, schedule.Released)
	assert.Equal(t, 2, schedule.ShiftCount())
}

func TestEmployeeWeekAndRecordActuals(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.UpdateEmployee(env.ctx, "1", EmployeeUpdate{
		Stores: []domain.StoreID{domain.StoreFreshFries, domain.StoreYesFresh},
	})
	require.NoError(t, err)

	env.submit(t, "1", testWeek, domain.Wednesday)
	env.assign(t, "1", testWeek, domain.Wednesday, "10:00", "18:00")
	_, _, err = env.svc.AssignShift(env.ctx, AssignShiftInput{
		EmployeeID: "1", WeekKey: testWeek, StoreID: domain.StoreYesFresh,
		Weekday: domain.Monday, Start: tod("08:00"), End: tod("12:00"),
	})
	require.NoError(t, err)
	_, err = env.svc.RespondToShiftRequest(env.ctx, "1", testWeek, domain.StoreYesFresh, domain.Monday, domain.RequestDeclined, "krank")
	require.NoError(t, err)

	shifts, err := env.svc.EmployeeWeek(env.ctx, "1", testWeek)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, domain.StoreFreshFries, shifts[0].StoreID)
	assert.Equal(t, domain.NewDate(2025, time.March, 5), shifts[0].Date)

	schedule, err := env.svc.RecordActuals(env.ctx, "1", testWeek, domain.StoreFreshFries, domain.Wednesday, nil, todPtr("16:00"), "")
	require.NoError(t, err)
	shift := schedule.Shift("1", domain.Wednesday)
	require.NotNil(t, shift.Deviation)
	assert.Equal(t, 120, shift.Deviation.EarlyMinutes)
	assert.Zero(t, shift.Deviation.LateMinutes)

	_, err = env.svc.RecordActuals(env.ctx, "1", testWeek, domain.StoreYesFresh, domain.Monday, todPtr("09:00"), nil, "")
	assert.True(t, domain.IsNotFound(err))
}
