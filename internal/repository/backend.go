package repository

import (
	"context"
	"errors"
)

type Collection string

const (
	Employees      Collection = "employees"
	Availabilities Collection = "availabilities"
	Schedules      Collection = "schedules"
	Absences       Collection = "absences"
	Notifications  Collection = "notifications"
)

// Collections 是备份导入导出涉及的全部集合
var Collections = []Collection{Employees, Availabilities, Schedules, Absences, Notifications}

// AnyVersion 表示写入时不检查版本
const AnyVersion int64 = -1

var ErrRecordNotFound = errors.New("record not found")

type Record struct {
	Key     string
	Data    []byte
	Version int64
}

// Backend 是按集合划分的键值存储
//
// Put 的 expectedVersion：AnyVersion 表示无条件覆盖，0 表示记录必须不存在，
// 其他值表示记录当前的版本必须等于该值，不满足时返回 *domain.ConflictError。
// 写入成功后返回新的版本号。
type Backend interface {
	List(ctx context.Context, c Collection) ([]Record, error)
	Get(ctx context.Context, c Collection, key string) (Record, error)
	Put(ctx context.Context, c Collection, key string, data []byte, expectedVersion int64) (int64, error)
	Delete(ctx context.Context, c Collection, key string) error
	// ReplaceAll 整体替换给出的集合，未出现在 map 中的集合保持不变
	ReplaceAll(ctx context.Context, data map[Collection][]Record) error
	Close() error
}
