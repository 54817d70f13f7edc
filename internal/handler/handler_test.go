package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/freshshift/shift-planner/backend/internal/config"
	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/freshshift/shift-planner/backend/internal/notify"
	"github.com/freshshift/shift-planner/backend/internal/repository"
	"github.com/freshshift/shift-planner/backend/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// 2025-03-05 是周三，属于 2025-W10
var testNow = time.Date(2025, 3, 5, 9, 30, 0, 0, time.UTC)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.InitialAdmin.Username = "admin"
	cfg.InitialAdmin.Password = "admin-secret"
	cfg.InitialAdmin.FullName = "管理员"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 3600
	cfg.NewEmployee.PasswordLength = 12
	cfg.Login.RatePerMinute = 600
	cfg.Login.Burst = 100
	cfg.CORS.AllowedOrigins = []string{"http://localhost:5173"}
	return cfg
}

type testServer struct {
	t         *testing.T
	server    *httptest.Server
	service   *scheduler.Service
	publisher *notify.MemoryPublisher
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	publisher := &notify.MemoryPublisher{}
	svc := scheduler.New(repository.NewRepository(repository.NewMemoryBackend()),
		scheduler.WithPublisher(publisher),
		scheduler.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		scheduler.WithClock(func() time.Time { return testNow }),
		scheduler.WithSeedPassword("freshshift"),
		scheduler.WithBcryptCost(bcrypt.MinCost),
	)
	_, err := svc.SeedRoster(t.Context())
	require.NoError(t, err)

	h, err := NewHandler(cfg, svc)
	require.NoError(t, err)
	h.RegisterRoutes()

	server := httptest.NewServer(h.Mux)
	t.Cleanup(server.Close)

	return &testServer{t: t, server: server, service: svc, publisher: publisher}
}

// client 返回一个带 cookie 的客户端，用户名为空时不登录
func (s *testServer) client(username, password string) *http.Client {
	s.t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(s.t, err)
	c := &http.Client{Jar: jar}

	if username != "" {
		resp := s.do(c, http.MethodPost, "/auth/login", map[string]string{"username": username, "password": password})
		require.True(s.t, resp.Success, resp.Message)
	}
	return c
}

type testResponse struct {
	Status  int
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) raw(c *http.Client, method, path string, body any) *http.Response {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	require.NoError(s.t, err)
	s.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *testServer) do(c *http.Client, method, path string, body any) *testResponse {
	s.t.Helper()

	resp := s.raw(c, method, path, body)
	out := &testResponse{Status: resp.StatusCode}
	require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	return out
}

func decode[T any](t *testing.T, resp *testResponse) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, testConfig())

	anonymous := s.client("", "")
	resp := s.do(anonymous, http.MethodGet, "/me", nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "用户未登录", resp.Message)

	resp = s.do(anonymous, http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "wrong"})
	assert.False(t, resp.Success)
	assert.Equal(t, "用户名不存在或密码错误", resp.Message)

	resp = s.do(anonymous, http.MethodPost, "/auth/login", map[string]string{"username": "nobody", "password": "wrong"})
	assert.False(t, resp.Success)

	resp = s.do(anonymous, http.MethodPost, "/auth/login", map[string]string{"username": "admin"})
	assert.False(t, resp.Success)

	admin := s.client("admin", "admin-secret")
	resp = s.do(admin, http.MethodGet, "/me", nil)
	require.True(t, resp.Success)
	account := decode[domain.Account](t, resp)
	assert.Equal(t, domain.RoleAdmin, account.Role)
	assert.Nil(t, account.Employee)

	maria := s.client("maria", "freshshift")
	resp = s.do(maria, http.MethodGet, "/me", nil)
	require.True(t, resp.Success)
	account = decode[domain.Account](t, resp)
	assert.Equal(t, domain.RoleEmployee, account.Role)
	require.NotNil(t, account.Employee)
	assert.Equal(t, "2", account.Employee.ID)
	assert.Empty(t, account.Employee.PasswordHash)

	resp = s.do(maria, http.MethodGet, "/employees", nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "权限不足", resp.Message)

	resp = s.do(maria, http.MethodPost, "/auth/logout", nil)
	assert.True(t, resp.Success)
	resp = s.do(maria, http.MethodGet, "/me", nil)
	assert.False(t, resp.Success)
}

func TestLoginRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Login.RatePerMinute = 1
	cfg.Login.Burst = 2
	s := newTestServer(t, cfg)

	c := s.client("", "")
	body := map[string]string{"username": "admin", "password": "wrong"}
	assert.Equal(t, http.StatusOK, s.do(c, http.MethodPost, "/auth/login", body).Status)
	assert.Equal(t, http.StatusOK, s.do(c, http.MethodPost, "/auth/login", body).Status)

	resp := s.do(c, http.MethodPost, "/auth/login", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.Status)
	assert.False(t, resp.Success)
}

func TestEmployeesAPI(t *testing.T) {
	s := newTestServer(t, testConfig())
	admin := s.client("admin", "admin-secret")

	resp := s.do(admin, http.MethodGet, "/employees?store=fresh_fries", nil)
	require.True(t, resp.Success)
	employees := decode[[]domain.Employee](t, resp)
	require.Len(t, employees, 5)
	for _, e := range employees {
		assert.Empty(t, e.PasswordHash)
	}

	resp = s.do(admin, http.MethodPost, "/employees", map[string]any{
		"name":         "Lena",
		"type":         "casual",
		"hourlyRate":   "13.50",
		"primaryStore": "yes_fresh",
		"stores":       []string{"yes_fresh"},
	})
	require.True(t, resp.Success, resp.Message)
	created := decode[struct {
		Employee domain.Employee `json:"employee"`
		Password string          `json:"password"`
	}](t, resp)
	assert.Len(t, created.Password, 12)
	assert.Regexp(t, `^lena\d{1,3}$`, created.Employee.Username)

	// 新员工可以用返回的初始密码登录
	lena := s.client(created.Employee.Username, created.Password)
	resp = s.do(lena, http.MethodGet, "/me", nil)
	require.True(t, resp.Success)

	resp = s.do(admin, http.MethodPost, "/employees", map[string]any{
		"name":         "Lena",
		"type":         "boss",
		"primaryStore": "yes_fresh",
		"stores":       []string{"yes_fresh"},
	})
	assert.False(t, resp.Success)

	resp = s.do(admin, http.MethodPatch, "/employees/"+created.Employee.ID, map[string]any{"name": "Lena K."})
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, "Lena K.", decode[domain.Employee](t, resp).Name)

	resp = s.do(admin, http.MethodPut, "/employees/"+created.Employee.ID+"/default-availability/fresh_fries", map[string]any{
		"days": map[string]any{"monday": map[string]any{"available": true, "start": "10:00", "end": "14:00"}},
	})
	assert.False(t, resp.Success)

	resp = s.do(admin, http.MethodDelete, "/employees/"+created.Employee.ID, nil)
	require.True(t, resp.Success)

	resp = s.do(admin, http.MethodGet, "/employees/"+created.Employee.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestSchedulingFlow(t *testing.T) {
	s := newTestServer(t, testConfig())
	admin := s.client("admin", "admin-secret")
	maria := s.client("maria", "freshshift")
	vito := s.client("vito", "freshshift")

	base := "/stores/fresh_fries/weeks/2025-W10"

	resp := s.do(maria, http.MethodPost, base+"/availability", map[string]any{
		"days": map[string]any{
			"monday":  map[string]any{"available": true, "start": "09:00", "end": "18:00"},
			"tuesday": map[string]any{"available": false},
		},
	})
	require.True(t, resp.Success, resp.Message)

	resp = s.do(maria, http.MethodGet, base+"/availability", nil)
	require.True(t, resp.Success)
	assert.Equal(t, domain.AvailabilitySubmitted, decode[scheduler.EffectiveAvailability](t, resp).Source)

	resp = s.do(admin, http.MethodGet, base+"/missing", nil)
	require.True(t, resp.Success)
	assert.Len(t, decode[[]domain.Employee](t, resp), 4)

	resp = s.do(admin, http.MethodPut, base+"/schedule/shifts", map[string]any{
		"employeeId": "2", "weekday": "monday", "start": "10:00", "end": "18:00",
	})
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, "排班成功", resp.Message)

	resp = s.do(admin, http.MethodPut, base+"/schedule/shifts", map[string]any{
		"employeeId": "3", "weekday": "tuesday", "start": "10:00", "end": "14:00",
	})
	require.True(t, resp.Success, resp.Message)
	assert.NotEqual(t, "排班成功", resp.Message)

	resp = s.do(admin, http.MethodPut, base+"/schedule/shifts", map[string]any{
		"employeeId": "3", "weekday": "tuesday", "start": "14:00", "end": "10:00",
	})
	assert.False(t, resp.Success)

	resp = s.do(admin, http.MethodPut, base+"/schedule/shifts", map[string]any{
		"employeeId": "3", "weekday": "someday", "start": "10:00", "end": "14:00",
	})
	assert.False(t, resp.Success)

	// 员工看不到未发布的排班表
	resp = s.do(maria, http.MethodGet, base+"/schedule", nil)
	require.True(t, resp.Success)
	assert.Equal(t, "null", string(resp.Data))

	resp = s.do(maria, http.MethodGet, "/me/weeks/2025-W10", nil)
	require.True(t, resp.Success)
	assert.Len(t, decode[[]scheduler.EmployeeShift](t, resp), 1)

	// 拒绝排班请求时必须填写原因
	resp = s.do(vito, http.MethodPost, base+"/schedule/requests/tuesday", map[string]any{"decision": "declined"})
	assert.False(t, resp.Success)

	resp = s.do(vito, http.MethodPost, base+"/schedule/requests/tuesday", map[string]any{"decision": "declined", "reason": "Uni"})
	require.True(t, resp.Success, resp.Message)

	resp = s.do(vito, http.MethodPost, base+"/schedule/requests/tuesday", map[string]any{"decision": "accepted"})
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = s.do(admin, http.MethodPost, base+"/schedule/shifts/monday/2/actuals", map[string]any{"actualStart": "10:20"})
	require.True(t, resp.Success, resp.Message)
	schedule := decode[domain.Schedule](t, resp)
	require.NotNil(t, schedule.Shift("2", domain.Monday).Deviation)
	assert.Equal(t, 20, schedule.Shift("2", domain.Monday).Deviation.LateMinutes)

	resp = s.do(admin, http.MethodPost, base+"/schedule/release", nil)
	require.True(t, resp.Success)

	resp = s.do(maria, http.MethodGet, base+"/schedule", nil)
	require.True(t, resp.Success)
	assert.True(t, decode[domain.Schedule](t, resp).Released)

	resp = s.do(admin, http.MethodGet, "/notifications", nil)
	require.True(t, resp.Success)
	notifications := decode[[]domain.Notification](t, resp)
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotifyShiftRequestResponse, notifications[0].Type)

	resp = s.do(maria, http.MethodPost, "/notifications/"+notifications[0].ID+"/read", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = s.do(admin, http.MethodPost, "/notifications/read-all", nil)
	require.True(t, resp.Success)
	assert.JSONEq(t, `{"count":1}`, string(resp.Data))

	resp = s.do(admin, http.MethodDelete, base+"/schedule/shifts/monday/2", nil)
	require.True(t, resp.Success)
}

func TestWeekCopyAndStatsAPI(t *testing.T) {
	s := newTestServer(t, testConfig())
	admin := s.client("admin", "admin-secret")
	zhulia := s.client("zhulia", "freshshift")

	resp := s.do(zhulia, http.MethodPost, "/stores/fresh_fries/weeks/2025-W10/availability", map[string]any{
		"days": map[string]any{"friday": map[string]any{"available": true, "start": "10:00", "end": "18:00"}},
	})
	require.True(t, resp.Success, resp.Message)

	resp = s.do(admin, http.MethodPut, "/stores/fresh_fries/weeks/2025-W10/schedule/shifts", map[string]any{
		"employeeId": "1", "weekday": "friday", "start": "10:00", "end": "18:00",
	})
	require.True(t, resp.Success, resp.Message)

	resp = s.do(admin, http.MethodGet, "/stores/fresh_fries/weeks/2025-W11/copy-from/2025-W10", nil)
	require.True(t, resp.Success, resp.Message)
	conflicts := decode[[]scheduler.Conflict](t, resp)
	require.Len(t, conflicts, 1)
	assert.Equal(t, scheduler.ConflictAvailability, conflicts[0].Kind)

	resp = s.do(admin, http.MethodPost, "/stores/fresh_fries/weeks/2025-W11/copy-from/2025-W10", map[string]any{"skipConflicting": true})
	require.True(t, resp.Success, resp.Message)
	result := decode[scheduler.CopyResult](t, resp)
	assert.Empty(t, result.Copied)
	assert.Len(t, result.Skipped, 1)

	resp = s.do(admin, http.MethodPost, "/stores/fresh_fries/weeks/2025-W11/copy-from/2025-W10", nil)
	require.True(t, resp.Success, resp.Message)
	assert.Len(t, decode[scheduler.CopyResult](t, resp).Copied, 1)

	resp = s.do(admin, http.MethodGet, "/stores/fresh_fries/weeks/2025-W12/copy-from/2025-W20", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = s.do(admin, http.MethodGet, "/stores/nowhere/weeks/2025-W11/schedule", nil)
	assert.False(t, resp.Success)

	resp = s.do(admin, http.MethodGet, "/stores/fresh_fries/weeks/2025-X11/schedule", nil)
	assert.False(t, resp.Success)

	resp = s.do(admin, http.MethodGet, "/stores/fresh_fries/stats/2025/13", nil)
	assert.False(t, resp.Success)

	resp = s.do(admin, http.MethodGet, "/stores/fresh_fries/stats/2025/3", nil)
	require.True(t, resp.Success, resp.Message)
	stats := decode[scheduler.MonthStats](t, resp)
	assert.Len(t, stats.Employees, 5)
	// W10 的原班次加上复制到 W11 的班次
	assert.InDelta(t, 16.0, stats.Employees["1"].PlannedHours, 1e-9)

	raw := s.raw(admin, http.MethodGet, "/stores/fresh_fries/stats/2025/3/export", nil)
	assert.Equal(t, http.StatusOK, raw.StatusCode)
	assert.Equal(t, xlsxContentType, raw.Header.Get("Content-Type"))
	assert.Contains(t, raw.Header.Get("Content-Disposition"), "freshshift-fresh_fries-2025-03.xlsx")
}

func TestAbsencesAndDeviationsAPI(t *testing.T) {
	s := newTestServer(t, testConfig())
	admin := s.client("admin", "admin-secret")
	maria := s.client("maria", "freshshift")

	resp := s.do(maria, http.MethodPost, "/absences", map[string]any{
		"startDate": "2025-03-10", "endDate": "2025-03-12", "type": "vacation",
	})
	require.True(t, resp.Success, resp.Message)
	absence := decode[domain.Absence](t, resp)
	assert.Equal(t, "2", absence.EmployeeID)
	assert.Equal(t, domain.AbsencePending, absence.Status)

	resp = s.do(maria, http.MethodPost, "/absences/"+absence.ID+"/resolve", map[string]any{"decision": "approved"})
	assert.Equal(t, "权限不足", resp.Message)

	resp = s.do(admin, http.MethodPost, "/absences/"+absence.ID+"/resolve", map[string]any{"decision": "approved"})
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, domain.AbsenceApproved, decode[domain.Absence](t, resp).Status)

	resp = s.do(admin, http.MethodPost, "/absences", map[string]any{
		"startDate": "2025-03-10", "endDate": "2025-03-10", "type": "other",
	})
	assert.False(t, resp.Success)

	resp = s.do(admin, http.MethodPost, "/absences", map[string]any{
		"employeeId": "1", "startDate": "2025-03-10", "endDate": "2025-03-09", "type": "other",
	})
	assert.False(t, resp.Success)

	resp = s.do(maria, http.MethodGet, "/absences", nil)
	require.True(t, resp.Success)
	assert.Len(t, decode[[]domain.Absence](t, resp), 1)

	resp = s.do(admin, http.MethodDelete, "/absences/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = s.do(maria, http.MethodPost, "/deviations", map[string]any{"kind": "late", "minutes": 15, "reason": "Bus"})
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, "没有找到当天的班次，已通知管理员", resp.Message)

	resp = s.do(maria, http.MethodPost, "/deviations", map[string]any{"kind": "sideways", "minutes": 15})
	assert.False(t, resp.Success)

	resp = s.do(maria, http.MethodGet, "/notifications?unread=true", nil)
	require.True(t, resp.Success)
	notifications := decode[[]domain.Notification](t, resp)
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotifyAbsenceResolved, notifications[0].Type)

	resp = s.do(maria, http.MethodPost, "/notifications/"+notifications[0].ID+"/read", nil)
	require.True(t, resp.Success)
	assert.True(t, decode[domain.Notification](t, resp).Read)
}

func TestBackupAPI(t *testing.T) {
	s := newTestServer(t, testConfig())
	admin := s.client("admin", "admin-secret")

	raw := s.raw(admin, http.MethodGet, "/backup", nil)
	require.Equal(t, http.StatusOK, raw.StatusCode)
	var backup domain.Backup
	require.NoError(t, json.NewDecoder(raw.Body).Decode(&backup))
	assert.Equal(t, domain.BackupSchemaVersion, backup.SchemaVersion)
	assert.Len(t, backup.Data.Employees, 5)

	backup.Data.Employees = backup.Data.Employees[:2]
	resp := s.do(admin, http.MethodPost, "/backup", backup)
	require.True(t, resp.Success, resp.Message)

	resp = s.do(admin, http.MethodGet, "/employees", nil)
	require.True(t, resp.Success)
	assert.Len(t, decode[[]domain.Employee](t, resp), 2)

	backup.SchemaVersion = 7
	resp = s.do(admin, http.MethodPost, "/backup", backup)
	assert.False(t, resp.Success)
}

func TestMetricsAndStores(t *testing.T) {
	s := newTestServer(t, testConfig())

	raw := s.raw(s.client("", ""), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, raw.StatusCode)

	resp := s.do(s.client("vito", "freshshift"), http.MethodGet, "/stores", nil)
	require.True(t, resp.Success)
	assert.Len(t, decode[[]domain.Store](t, resp), 2)
}
