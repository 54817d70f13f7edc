package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/freshshift/shift-planner/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// Open 按 STORE_BACKEND 创建存储后端
// 使用 sql 后端时调用方需要导入对应的数据库驱动
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.Store.Backend {
	case "sql":
		dbpool, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("无法创建数据库连接池: %w", err)
		}

		dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

		pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Database.ConnectTimeout)*time.Second)
		defer cancel()

		// sql.Open 只是创建连接池对象，需要显式 ping 一下才会真正连接
		if err := dbpool.PingContext(pingCtx); err != nil {
			_ = dbpool.Close()
			return nil, fmt.Errorf("无法连接到数据库: %w", err)
		}

		b, err := NewSQLBackend(cfg, dbpool)
		if err != nil {
			_ = dbpool.Close()
			return nil, err
		}
		return b, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
		defer cancel()

		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("无法连接到 redis: %w", err)
		}
		return NewRedisBackend(rdb, cfg.Redis.KeyPrefix, time.Duration(cfg.Redis.OperationTimeout)*time.Second), nil
	case "memory":
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("未知的存储后端 %q", cfg.Store.Backend)
	}
}
