package handler

import (
	"net/http"

	"github.com/freshshift/shift-planner/backend/internal/config"
	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/freshshift/shift-planner/backend/internal/metrics"
	"github.com/freshshift/shift-planner/backend/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

type Handler struct {
	validate     *validator.Validate
	config       *config.Config
	service      *scheduler.Service
	translator   ut.Translator
	adminHash    []byte
	loginLimiter *rate.Limiter

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, svc *scheduler.Service) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	// 初始管理员的密码只保存在配置中，启动时计算一次哈希
	adminHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	perSecond := rate.Limit(float64(cfg.Login.RatePerMinute) / 60)

	return &Handler{
		validate:     validate,
		config:       cfg,
		service:      svc,
		translator:   trans,
		adminHash:    adminHash,
		loginLimiter: rate.NewLimiter(perSecond, cfg.Login.Burst),

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	admin := h.RequiredRole([]domain.Role{domain.RoleAdmin})
	employee := h.RequiredRole([]domain.Role{domain.RoleEmployee})

	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	metrics.Register()
	h.Mux.Handle("/metrics", promhttp.Handler())

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.With(h.limitLogin).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Get("/stores", h.GetStores)

		r.Route("/me", func(r chi.Router) {
			r.Get("/", h.GetMe)
			r.Group(func(r chi.Router) {
				r.Use(employee)
				r.Use(h.me)
				r.Get("/weeks/{week}", h.GetMyWeek)
				r.Patch("/password", h.UpdateMyPassword)
			})
		})

		r.Route("/employees", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.employeeInfo)
				r.Get("/", h.GetEmployee)
				r.Patch("/", h.UpdateEmployee)
				r.Delete("/", h.DeleteEmployee)
				r.Route("/default-availability/{store}", func(r chi.Router) {
					r.Use(h.store)
					r.Put("/", h.SetDefaultAvailability)
					r.Delete("/", h.ClearDefaultAvailability)
				})
			})
		})

		r.Route("/stores/{store}", func(r chi.Router) {
			r.Use(h.store)

			r.Route("/weeks/{week}", func(r chi.Router) {
				r.Use(h.week)

				r.With(employee, h.me).Get("/availability", h.GetMyAvailability)
				r.With(employee, h.me).Post("/availability", h.SubmitMyAvailability)
				r.With(admin).Get("/availabilities", h.ListAvailabilities)
				r.With(admin).Get("/missing", h.GetMissingSubmissions)

				r.Route("/schedule", func(r chi.Router) {
					r.Get("/", h.GetSchedule)
					r.Group(func(r chi.Router) {
						r.Use(admin)
						r.Put("/shifts", h.AssignShift)
						r.Route("/shifts/{day}/{employeeID}", func(r chi.Router) {
							r.Use(h.weekday)
							r.Delete("/", h.RemoveShift)
							r.Post("/actuals", h.RecordActuals)
						})
						r.Post("/release", h.ReleaseSchedule)
					})
					r.With(employee, h.me, h.weekday).Post("/requests/{day}", h.RespondToShiftRequest)
				})

				r.Route("/copy-from/{source}", func(r chi.Router) {
					r.Use(admin)
					r.Get("/", h.AnalyzeWeekCopy)
					r.Post("/", h.ApplyWeekCopy)
				})
			})

			r.Route("/stats/{year}/{month}", func(r chi.Router) {
				r.Use(admin)
				r.Get("/", h.GetMonthStats)
				r.Get("/export", h.ExportMonthStats)
			})
		})

		r.Route("/absences", func(r chi.Router) {
			r.Get("/", h.ListAbsences)
			r.Post("/", h.CreateAbsence)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(admin)
				r.Patch("/", h.UpdateAbsence)
				r.Delete("/", h.DeleteAbsence)
				r.Post("/resolve", h.ResolveAbsence)
			})
		})

		r.With(employee, h.me).Post("/deviations", h.ReportDeviation)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Post("/read-all", h.MarkAllNotificationsRead)
			r.Post("/{id}/read", h.MarkNotificationRead)
		})

		r.Route("/backup", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", h.ExportBackup)
			r.Post("/", h.ImportBackup)
		})
	})
}
