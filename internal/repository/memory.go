package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mercadoapps/filemonitor/constants"
	"github.com/mercadoapps/filemonitor/internal/entity"
)

// MemoryRepository is an in-memory FileRecordRepository used by tests and
// dry runs.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*entity.FileRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[uuid.UUID]*entity.FileRecord)}
}

func (m *MemoryRepository) Create(_ context.Context, rec *entity.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *MemoryRepository) Update(_ context.Context, rec *entity.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.ID]; !ok {
		return ErrRecordNotFound
	}
	rec.UpdatedAt = time.Now().UTC()
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*entity.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MemoryRepository) FindByPathAndModTime(_ context.Context, path string, modTime time.Time) (*entity.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.FilePath == path && rec.LastModified.UnixNano() == modTime.UnixNano() {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) FindByStatus(_ context.Context, status constants.ProcessingStatus) ([]entity.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []entity.FileRecord
	for _, rec := range m.records {
		if rec.Status == status {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (m *MemoryRepository) FindByProcessedAtRange(_ context.Context, from, to time.Time) ([]entity.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []entity.FileRecord
	for _, rec := range m.records {
		if rec.ProcessedAt == nil {
			continue
		}
		if rec.ProcessedAt.Before(from) || rec.ProcessedAt.After(to) {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (m *MemoryRepository) CountByStatus(_ context.Context, status constants.ProcessingStatus) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, rec := range m.records {
		if rec.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.records)), nil
}

func (m *MemoryRepository) List(_ context.Context, offset, limit int) ([]entity.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]entity.FileRecord, 0, len(m.records))
	for _, rec := range m.records {
		all = append(all, *rec)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryRepository) Close() error { return nil }
