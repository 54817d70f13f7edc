package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/freshshift/shift-planner/backend/internal/domain"
)

// MemoryBackend 把所有记录保存在内存中，用于测试和本地开发
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[Collection]map[string]Record
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[Collection]map[string]Record),
	}
}

func (m *MemoryBackend) List(ctx context.Context, c Collection) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]Record, 0, len(m.data[c]))
	for _, r := range m.data[c] {
		records = append(records, copyRecord(r))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records, nil
}

func (m *MemoryBackend) Get(ctx context.Context, c Collection, key string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.data[c][key]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return copyRecord(r), nil
}

func (m *MemoryBackend) Put(ctx context.Context, c Collection, key string, data []byte, expectedVersion int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data[c] == nil {
		m.data[c] = make(map[string]Record)
	}

	current, exists := m.data[c][key]
	if expectedVersion != AnyVersion {
		var currentVersion int64
		if exists {
			currentVersion = current.Version
		}
		if currentVersion != expectedVersion {
			return 0, &domain.ConflictError{Collection: string(c), Key: key}
		}
	}

	next := current.Version + 1
	m.data[c][key] = Record{Key: key, Data: append([]byte(nil), data...), Version: next}
	return next, nil
}

func (m *MemoryBackend) Delete(ctx context.Context, c Collection, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[c][key]; !ok {
		return ErrRecordNotFound
	}
	delete(m.data[c], key)
	return nil
}

func (m *MemoryBackend) ReplaceAll(ctx context.Context, data map[Collection][]Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for c, records := range data {
		fresh := make(map[string]Record, len(records))
		for _, r := range records {
			fresh[r.Key] = Record{Key: r.Key, Data: append([]byte(nil), r.Data...), Version: 1}
		}
		m.data[c] = fresh
	}
	return nil
}

func (m *MemoryBackend) Close() error {
	return nil
}

func copyRecord(r Record) Record {
	return Record{Key: r.Key, Data: append([]byte(nil), r.Data...), Version: r.Version}
}
