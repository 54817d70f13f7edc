package scheduler

import (
	"testing"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAvailability(t *testing.T) {
	env := newTestEnv(t)

	a, err := env.svc.SubmitAvailability(env.ctx, "1", testWeek, domain.StoreFreshFries, availableDays(domain.Monday), "nur vormittags")
	require.NoError(t, err)
	assert.Equal(t, testNow, a.SubmittedAt)
	assert.True(t, a.AvailableOn(domain.Monday))
	assert.False(t, a.AvailableOn(domain.Tuesday))

	// 重新提交会整体覆盖
	_, err = env.svc.SubmitAvailability(env.ctx, "1", testWeek, domain.StoreFreshFries, availableDays(domain.Friday), "")
	require.NoError(t, err)
	stored, err := env.svc.GetAvailability(env.ctx, "1", testWeek, domain.StoreFreshFries)
	require.NoError(t, err)
	assert.False(t, stored.AvailableOn(domain.Monday))
	assert.True(t, stored.AvailableOn(domain.Friday))
	assert.Empty(t, stored.Notes)

	_, err = env.svc.SubmitAvailability(env.ctx, "1", testWeek, domain.StoreYesFresh, availableDays(domain.Monday), "")
	assert.True(t, domain.IsValidation(err))

	_, err = env.svc.SubmitAvailability(env.ctx, "1", testWeek, "nowhere", availableDays(domain.Monday), "")
	assert.True(t, domain.IsConfiguration(err))

	bad := domain.WeekDays{domain.Monday: {Available: true, Start: todPtr("18:00"), End: todPtr("10:00")}}
	_, err = env.svc.SubmitAvailability(env.ctx, "1", testWeek, domain.StoreFreshFries, bad, "")
	assert.True(t, domain.IsValidation(err))

	_, err = env.svc.SubmitAvailability(env.ctx, "1", domain.WeekKey{}, domain.StoreFreshFries, availableDays(), "")
	assert.True(t, domain.IsValidation(err))
}

func TestEffectiveAvailabilitySources(t *testing.T) {
	env := newTestEnv(t)

	eff, err := env.svc.EffectiveAvailability(env.ctx, "2", testWeek, domain.StoreFreshFries)
	require.NoError(t, err)
	assert.Equal(t, domain.AvailabilityFallback, eff.Source)
	require.Len(t, eff.Days, 7)
	assert.Equal(t, tod("10:00"), *eff.Days[domain.Sunday].Start)
	assert.Equal(t, tod("18:00"), *eff.Days[domain.Sunday].End)

	tmpl := &domain.WeekTemplate{Days: availableDays(domain.Saturday), Notes: "Wochenende"}
	_, err = env.svc.SetDefaultAvailability(env.ctx, "2", domain.StoreFreshFries, tmpl)
	require.NoError(t, err)

	eff, err = env.svc.EffectiveAvailability(env.ctx, "2", testWeek, domain.StoreFreshFries)
	require.NoError(t, err)
	assert.Equal(t, domain.AvailabilityTemplate, eff.Source)
	assert.Equal(t, "Wochenende", eff.Notes)
	assert.True(t, eff.Days[domain.Saturday].Available)
	assert.False(t, eff.Days[domain.Monday].Available)

	env.submit(t, "2", testWeek, domain.Monday)
	eff, err = env.svc.EffectiveAvailability(env.ctx, "2", testWeek, domain.StoreFreshFries)
	require.NoError(t, err)
	assert.Equal(t, domain.AvailabilitySubmitted, eff.Source)
	assert.True(t, eff.Days[domain.Monday].Available)

	// 模板不影响是否需要员工确认
	_, shift, err := env.svc.AssignShift(env.ctx, AssignShiftInput{
		EmployeeID: "2",
		WeekKey:    testWeek.AddWeeks(1),
		StoreID:    domain.StoreFreshFries,
		Weekday:    domain.Saturday,
		Start:      tod("10:00"),
		End:        tod("14:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, shift.RequestStatus)

	_, err = env.svc.SetDefaultAvailability(env.ctx, "2", domain.StoreFreshFries, nil)
	require.NoError(t, err)
	eff, err = env.svc.EffectiveAvailability(env.ctx, "2", testWeek.AddWeeks(2), domain.StoreFreshFries)
	require.NoError(t, err)
	assert.Equal(t, domain.AvailabilityFallback, eff.Source)
}

func TestListAvailabilityAndMissingSubmissions(t *testing.T) {
	env := newTestEnv(t)

	env.submit(t, "4", testWeek, domain.Monday)
	env.submit(t, "2", testWeek, domain.Tuesday)
	env.submit(t, "1", testWeek.AddWeeks(1), domain.Monday)

	list, err := env.svc.ListAvailabilityForWeek(env.ctx, testWeek, domain.StoreFreshFries)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2", list[0].EmployeeID)
	assert.Equal(t, "4", list[1].EmployeeID)

	missing, err := env.svc.MissingSubmissions(env.ctx, testWeek, domain.StoreFreshFries)
	require.NoError(t, err)
	ids := make([]string, 0, len(missing))
	for _, e := range missing {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, []string{"1", "3", "5"}, ids)

	missing, err = env.svc.MissingSubmissions(env.ctx, testWeek, domain.StoreYesFresh)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestSetDefaultAvailabilityValidation(t *testing.T) {
	env := newTestEnv(t)

	tmpl := &domain.WeekTemplate{Days: availableDays(domain.Monday)}
	_, err := env.svc.SetDefaultAvailability(env.ctx, "1", domain.StoreYesFresh, tmpl)
	assert.True(t, domain.IsValidation(err))

	_, err = env.svc.SetDefaultAvailability(env.ctx, "42", domain.StoreFreshFries, tmpl)
	assert.True(t, domain.IsNotFound(err))

	bad := &domain.WeekTemplate{Days: domain.WeekDays{domain.Monday: {Available: true}}}
	_, err = env.svc.SetDefaultAvailability(env.ctx, "1", domain.StoreFreshFries, bad)
	assert.True(t, domain.IsValidation(err))
}
