package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/freshshift/shift-planner/backend/internal/notify"
	"github.com/freshshift/shift-planner/backend/internal/repository"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var (
	// 2025-03-05 是周三，属于 2025-W10
	testNow  = time.Date(2025, 3, 5, 9, 30, 0, 0, time.UTC)
	testWeek = domain.WeekKey{Year: 2025, Week: 10}
)

type testEnv struct {
	ctx       context.Context
	svc       *Service
	repo      *repository.Repository
	publisher *notify.MemoryPublisher
	clock     *time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := repository.NewRepository(repository.NewMemoryBackend())
	publisher := &notify.MemoryPublisher{}
	now := testNow
	seq := 0

	svc := New(repo,
		WithPublisher(publisher),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%03d", seq)
		}),
		WithAdminEmail("admin@freshshift.test"),
		WithSeedPassword("freshshift"),
		WithBcryptCost(bcrypt.MinCost),
	)

	env := &testEnv{
		ctx:       context.Background(),
		svc:       svc,
		repo:      repo,
		publisher: publisher,
		clock:     &now,
	}

	n, err := svc.SeedRoster(env.ctx)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	return env
}

func (e *testEnv) advance(d time.Duration) {
	*e.clock = e.clock.Add(d)
}

func tod(s string) domain.TimeOfDay {
	return domain.MustParseTimeOfDay(s)
}

func todPtr(s string) *domain.TimeOfDay {
	t := domain.MustParseTimeOfDay(s)
	return &t
}

func availableDays(days ...domain.Weekday) domain.WeekDays {
	out := make(domain.WeekDays, 7)
	for _, day := range domain.Weekdays() {
		out[day] = domain.DayAvailability{Available: false}
	}
	for _, day := range days {
		out[day] = domain.DayAvailability{Available: true, Start: todPtr("09:00"), End: todPtr("20:00")}
	}
	return out
}

func (e *testEnv) submit(t *testing.T, employeeID string, week domain.WeekKey, days ...domain.Weekday) {
	t.Helper()
	_, err := e.svc.SubmitAvailability(e.ctx, employeeID, week, domain.StoreFreshFries, availableDays(days...), "")
	require.NoError(t, err)
}

func (e *testEnv) assign(t *testing.T, employeeID string, week domain.WeekKey, day domain.Weekday, start, end string) *domain.Shift {
	t.Helper()
	_, shift, err := e.svc.AssignShift(e.ctx, AssignShiftInput{
		EmployeeID: employeeID,
		WeekKey:    week,
		StoreID:    domain.StoreFreshFries,
		Weekday:    day,
		Start:      tod(start),
		End:        tod(end),
	})
	require.NoError(t, err)
	return shift
}
