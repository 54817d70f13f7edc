package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisBackend 每个集合对应一个 hash，field 为记录的 key
type RedisBackend struct {
	rdb       *redis.Client
	keyPrefix string
	timeout   time.Duration
}

// redisEntry 是 hash 中每个 field 保存的内容
type redisEntry struct {
	Version int64           `json:"v"`
	Data    json.RawMessage `json:"d"`
}

func NewRedisBackend(rdb *redis.Client, keyPrefix string, timeout time.Duration) *RedisBackend {
	return &RedisBackend{
		rdb:       rdb,
		keyPrefix: keyPrefix,
		timeout:   timeout,
	}
}

func (b *RedisBackend) hashKey(c Collection) string {
	return b.keyPrefix + string(c)
}

func (b *RedisBackend) List(ctx context.Context, c Collection) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	values, err := b.rdb.HGetAll(ctx, b.hashKey(c)).Result()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(values))
	for key, raw := range values {
		var entry redisEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, err
		}
		records = append(records, Record{Key: key, Data: entry.Data, Version: entry.Version})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })

	return records, nil
}

func (b *RedisBackend) Get(ctx context.Context, c Collection, key string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	raw, err := b.rdb.HGet(ctx, b.hashKey(c), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}

	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Record{}, err
	}

	return Record{Key: key, Data: entry.Data, Version: entry.Version}, nil
}

// Put 通过 WATCH/MULTI 实现版本检查，事务执行期间 hash 被修改时 redis 会放弃写入
func (b *RedisBackend) Put(ctx context.Context, c Collection, key string, data []byte, expectedVersion int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	hashKey := b.hashKey(c)
	var next int64

	err := b.rdb.Watch(ctx, func(tx *redis.Tx) error {
		var current int64
		raw, err := tx.HGet(ctx, hashKey, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var entry redisEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return err
			}
			current = entry.Version
		}

		if expectedVersion != AnyVersion && current != expectedVersion {
			return &domain.ConflictError{Collection: string(c), Key: key}
		}

		next = current + 1
		encoded, err := json.Marshal(redisEntry{Version: next, Data: data})
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, hashKey, key, encoded)
			return nil
		})
		return err
	}, hashKey)

	if errors.Is(err, redis.TxFailedErr) {
		return 0, &domain.ConflictError{Collection: string(c), Key: key}
	}
	if err != nil {
		return 0, err
	}

	return next, nil
}

func (b *RedisBackend) Delete(ctx context.Context, c Collection, key string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	n, err := b.rdb.HDel(ctx, b.hashKey(c), key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (b *RedisBackend) ReplaceAll(ctx context.Context, data map[Collection][]Record) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for c, records := range data {
			hashKey := b.hashKey(c)
			pipe.Del(ctx, hashKey)

			if len(records) == 0 {
				continue
			}

			values := make(map[string]any, len(records))
			for _, r := range records {
				encoded, err := json.Marshal(redisEntry{Version: 1, Data: r.Data})
				if err != nil {
					return err
				}
				values[r.Key] = encoded
			}
			pipe.HSet(ctx, hashKey, values)
		}
		return nil
	})

	return err
}

func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}
