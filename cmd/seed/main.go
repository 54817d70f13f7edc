package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/freshshift/shift-planner/backend/internal/config"
	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/freshshift/shift-planner/backend/internal/notify"
	"github.com/freshshift/shift-planner/backend/internal/repository"
	"github.com/freshshift/shift-planner/backend/internal/scheduler"
	"github.com/freshshift/shift-planner/backend/internal/seed"
	"github.com/freshshift/shift-planner/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	var op int
	var n int
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入初始员工, 2: 插入随机员工, 3: 导入员工 CSV, 4: 插入随机空闲时间, 5: 插入随机排班)")
	flag.IntVar(&n, "n", 5, "要插入的随机员工数量")
	flag.StringVar(&file, "file", "", "员工 CSV 文件路径")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	// 创建存储
	backend, err := repository.Open(ctx, cfg)
	if err != nil {
		logger.Error("无法创建存储", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	repo := repository.NewRepository(backend)
	defer repo.Close()

	// 种子数据不发送邮件
	svc := scheduler.New(repo,
		scheduler.WithPublisher(notify.NewLogPublisher(logger)),
		scheduler.WithLogger(logger),
		scheduler.WithSeedPassword(cfg.Seed.Employee.Password),
	)

	// 执行操作
	switch op {
	case 0:
		logger.Error("未指定操作")
	case 1:
		cnt, err := svc.SeedRoster(ctx)
		if err != nil {
			logger.Error("无法插入初始员工", slog.String("error", err.Error()))
			return
		}
		logger.Info("插入初始员工成功", slog.Int("count", cnt))
	case 2:
		if n <= 0 {
			logger.Error("请输入合法的员工数量")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			if _, err := svc.CreateEmployee(ctx, randomEmployee(), cfg.Seed.Employee.Password); err != nil {
				logger.Error("无法插入员工", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}
		logger.Info("插入随机员工成功", slog.Int("count", cnt))
	case 3:
		if file == "" {
			logger.Error("请通过 -file 指定员工 CSV 文件")
			return
		}

		f, err := os.Open(file)
		if err != nil {
			logger.Error("无法打开员工 CSV 文件", slog.String("error", err.Error()))
			return
		}
		defer f.Close()

		employees, err := seed.ReadRosterCSV(f, time.Now())
		if err != nil {
			logger.Error("无法解析员工 CSV 文件", slog.String("error", err.Error()))
			return
		}

		cnt := 0
		for _, e := range employees {
			if _, err := svc.CreateEmployee(ctx, e, cfg.Seed.Employee.Password); err != nil {
				logger.Error("无法插入员工", slog.String("name", e.Name), slog.String("error", err.Error()))
				continue
			}
			cnt++
		}
		logger.Info("导入员工成功", slog.Int("count", cnt), slog.Int("total", len(employees)))
	case 4:
		employees, err := svc.ListEmployees(ctx, "")
		if err != nil {
			logger.Error("无法获取员工列表", slog.String("error", err.Error()))
			return
		}

		cnt := 0
		for _, week := range seedWeeks(cfg.Seed.Weeks) {
			for _, e := range employees {
				for _, store := range e.OrderedStores() {
					if _, err := svc.SubmitAvailability(ctx, e.ID, week, store, utils.GenerateRandomWeekDays(), ""); err != nil {
						logger.Error("无法插入空闲时间", slog.String("employee", e.ID), slog.String("error", err.Error()))
						continue
					}
					cnt++
				}
			}
		}
		logger.Info("插入空闲时间成功", slog.Int("count", cnt))
	case 5:
		cnt := 0
		for _, week := range seedWeeks(cfg.Seed.Weeks) {
			for _, store := range domain.Stores() {
				c, err := seedSchedule(ctx, svc, week, store.ID)
				if err != nil {
					logger.Error("无法插入排班", slog.String("week", week.String()), slog.String("error", err.Error()))
					continue
				}
				cnt += c
			}
		}
		logger.Info("插入排班成功", slog.Int("count", cnt))
	default:
		logger.Error("不支持的操作", slog.Int("op", op))
	}
}

// seedWeeks 返回从本周开始的 n 周
func seedWeeks(n int) []domain.WeekKey {
	current := domain.WeekKeyOf(domain.DateOf(time.Now()))
	weeks := make([]domain.WeekKey, 0, n)
	for i := 0; i < n; i++ {
		weeks = append(weeks, current.AddWeeks(i))
	}
	return weeks
}

func randomEmployee() *domain.Employee {
	stores := domain.Stores()
	primary := stores[rand.Intn(len(stores))].ID

	employee := &domain.Employee{
		Name:         utils.GenerateRandomChineseName(),
		Type:         domain.EmployeeCasual,
		PrimaryStore: primary,
		Stores:       []domain.StoreID{primary},
	}
	if rand.Intn(2) == 0 {
		employee.Type = domain.EmployeeRegular
	}
	// 一半的员工同时在两个门店工作
	if rand.Intn(2) == 0 {
		for _, s := range stores {
			if s.ID != primary {
				employee.Stores = append(employee.Stores, s.ID)
			}
		}
	}
	return employee
}

// seedSchedule 按员工提交的空闲时间随机排班，每人每周最多三个班次
func seedSchedule(ctx context.Context, svc *scheduler.Service, week domain.WeekKey, store domain.StoreID) (int, error) {
	submissions, err := svc.ListAvailabilityForWeek(ctx, week, store)
	if err != nil {
		return 0, err
	}

	cnt := 0
	for _, a := range submissions {
		assigned := 0
		for _, day := range domain.Weekdays() {
			entry, ok := a.Day(day)
			if !ok || !entry.Available || entry.Start == nil || entry.End == nil || assigned >= 3 {
				continue
			}
			if rand.Intn(2) == 0 {
				continue
			}

			if _, _, err := svc.AssignShift(ctx, scheduler.AssignShiftInput{
				EmployeeID: a.EmployeeID,
				WeekKey:    week,
				StoreID:    store,
				Weekday:    day,
				Start:      *entry.Start,
				End:        *entry.End,
			}); err != nil {
				// 缺勤等冲突直接跳过
				if domain.IsValidation(err) {
					continue
				}
				return cnt, err
			}
			assigned++
			cnt++
		}
	}
	return cnt, nil
}
