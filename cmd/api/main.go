package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freshshift/shift-planner/backend/internal/config"
	"github.com/freshshift/shift-planner/backend/internal/handler"
	"github.com/freshshift/shift-planner/backend/internal/notify"
	"github.com/freshshift/shift-planner/backend/internal/repository"
	"github.com/freshshift/shift-planner/backend/internal/scheduler"
	amqp "github.com/rabbitmq/amqp091-go"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	/**********************************************
	 * 创建存储
	 **********************************************/
	backend, err := repository.Open(context.Background(), cfg)
	if err != nil {
		logger.Error("无法创建存储", "backend", cfg.Store.Backend, "error", err)
		return
	}
	repo := repository.NewRepository(backend)
	defer repo.Close()

	if cfg.Store.Backend == "memory" {
		logger.Warn("使用内存存储，重启后数据会丢失")
	}

	/**********************************************
	 * 连接 rabbitmq
	 **********************************************/
	var publisher scheduler.Publisher
	if cfg.RabbitMQ.DSN == "" {
		logger.Warn("没有配置 RABBITMQ_DSN，邮件只会写入日志")
		publisher = notify.NewLogPublisher(logger)
	} else {
		conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
		if err != nil {
			logger.Error("无法连接到 rabbitmq", "error", err)
			return
		}
		defer conn.Close()

		// 建立通道
		ch, err := conn.Channel()
		if err != nil {
			logger.Error("无法建立通道", "error", err)
			return
		}
		defer ch.Close()

		// 声明队列
		if err := notify.DeclareQueue(ch, cfg.RabbitMQ.Queue); err != nil {
			logger.Error("无法声明队列", "error", err)
			return
		}

		publisher = notify.NewAMQPPublisher(ch, cfg.RabbitMQ.Queue, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)
	}

	/**********************************************
	 * 创建 service 并写入初始员工
	 **********************************************/
	svc := scheduler.New(repo,
		scheduler.WithPublisher(publisher),
		scheduler.WithLogger(logger),
		scheduler.WithAdminEmail(cfg.Email.AdminAddress),
		scheduler.WithSeedPassword(cfg.Seed.Employee.Password),
	)

	seedCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	if n, err := svc.SeedRoster(seedCtx); err != nil {
		logger.Error("无法写入初始员工", "error", err)
		return
	} else if n > 0 {
		logger.Info("已写入初始员工", "count", n)
	}

	/**********************************************
	 * 创建 handler
	 **********************************************/
	handler, err := handler.NewHandler(cfg, svc)
	if err != nil {
		logger.Error("无法创建 handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动服务器...", "port", cfg.Server.Port, "backend", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("无法启动服务器", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", slog.String("error", err.Error()))
	}
	logger.Info("服务器已成功关闭")
}
