package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/freshshift/shift-planner/backend/internal/config"
	"github.com/freshshift/shift-planner/backend/internal/domain"
)

const recordsSchema = `
	CREATE TABLE IF NOT EXISTS records (
		collection TEXT NOT NULL,
		key TEXT NOT NULL,
		data TEXT NOT NULL,
		version BIGINT NOT NULL DEFAULT 1,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection, key)
	)
`

// SQLBackend 把所有集合存放在同一张 records 表中
// 同一套 SQL 同时用于 PostgreSQL（pgx）和 SQLite（sqlite3）
type SQLBackend struct {
	dbpool             *sql.DB
	driver             string
	queryTimeout       time.Duration
	transactionTimeout time.Duration
}

func NewSQLBackend(cfg *config.Config, dbpool *sql.DB) (*SQLBackend, error) {
	b := &SQLBackend{
		dbpool:             dbpool,
		driver:             cfg.Database.Driver,
		queryTimeout:       time.Duration(cfg.Database.QueryTimeout) * time.Second,
		transactionTimeout: time.Duration(cfg.Database.TransactionTimeout) * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.queryTimeout)
	defer cancel()

	if _, err := dbpool.ExecContext(ctx, recordsSchema); err != nil {
		return nil, fmt.Errorf("无法创建 records 表: %w", err)
	}

	return b, nil
}

// rebind 把 ? 占位符转换为 PostgreSQL 的 $n 形式
func (b *SQLBackend) rebind(query string) string {
	if b.driver != "pgx" {
		return query
	}

	var sb strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(ch)
	}
	return sb.String()
}

func (b *SQLBackend) List(ctx context.Context, c Collection) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, b.queryTimeout)
	defer cancel()

	query := b.rebind(`SELECT key, data, version FROM records WHERE collection = ? ORDER BY key`)

	rows, err := b.dbpool.QueryContext(ctx, query, string(c))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		var data string
		if err := rows.Scan(&r.Key, &data, &r.Version); err != nil {
			return nil, err
		}
		r.Data = []byte(data)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (b *SQLBackend) Get(ctx context.Context, c Collection, key string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, b.queryTimeout)
	defer cancel()

	query := b.rebind(`SELECT data, version FROM records WHERE collection = ? AND key = ?`)

	r := Record{Key: key}
	var data string
	if err := b.dbpool.QueryRowContext(ctx, query, string(c), key).Scan(&data, &r.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}
	r.Data = []byte(data)

	return r, nil
}

func (b *SQLBackend) Put(ctx context.Context, c Collection, key string, data []byte, expectedVersion int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, b.queryTimeout)
	defer cancel()

	var query string
	var args []any

	switch {
	case expectedVersion == AnyVersion:
		query = `
			INSERT INTO records (collection, key, data, version)
			VALUES (?, ?, ?, 1)
			ON CONFLICT (collection, key) DO UPDATE SET
				data = excluded.data,
				version = records.version + 1,
				updated_at = CURRENT_TIMESTAMP
			RETURNING version
		`
		args = []any{string(c), key, string(data)}
	case expectedVersion == 0:
		query = `
			INSERT INTO records (collection, key, data, version)
			VALUES (?, ?, ?, 1)
			ON CONFLICT (collection, key) DO NOTHING
			RETURNING version
		`
		args = []any{string(c), key, string(data)}
	default:
		query = `
			UPDATE records
			SET
				data = ?,
				version = version + 1,
				updated_at = CURRENT_TIMESTAMP
			WHERE collection = ? AND key = ? AND version = ?
			RETURNING version
		`
		args = []any{string(data), string(c), key, expectedVersion}
	}

	var version int64
	if err := b.dbpool.QueryRowContext(ctx, b.rebind(query), args...).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 没有行被写入，说明版本已经变化
			return 0, &domain.ConflictError{Collection: string(c), Key: key}
		}
		return 0, err
	}

	return version, nil
}

func (b *SQLBackend) Delete(ctx context.Context, c Collection, key string) error {
	ctx, cancel := context.WithTimeout(ctx, b.queryTimeout)
	defer cancel()

	query := b.rebind(`DELETE FROM records WHERE collection = ? AND key = ?`)

	res, err := b.dbpool.ExecContext(ctx, query, string(c), key)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (b *SQLBackend) ReplaceAll(ctx context.Context, data map[Collection][]Record) error {
	ctx, cancel := context.WithTimeout(ctx, b.transactionTimeout)
	defer cancel()

	tx, err := b.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 先把原先的记录删除再插入
	for c, records := range data {
		if _, err := tx.ExecContext(ctx, b.rebind(`DELETE FROM records WHERE collection = ?`), string(c)); err != nil {
			return err
		}

		for _, r := range records {
			query := b.rebind(`INSERT INTO records (collection, key, data, version) VALUES (?, ?, ?, 1)`)
			if _, err := tx.ExecContext(ctx, query, string(c), r.Key, string(r.Data)); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (b *SQLBackend) Close() error {
	return b.dbpool.Close()
}
