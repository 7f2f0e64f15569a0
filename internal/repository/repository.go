package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mercadoapps/filemonitor/constants"
	"github.com/mercadoapps/filemonitor/internal/entity"
)

// ErrRecordNotFound is returned by lookups that require a row.
var ErrRecordNotFound = errors.New("file record not found")

// FileRecordRepository is the behavior the pipeline and the HTTP surface
// depend on. FindByPathAndModTime returns (nil, nil) when no record matches:
// that pair is the idempotency identity, matched exactly.
type FileRecordRepository interface {
	Create(ctx context.Context, rec *entity.FileRecord) error
	Update(ctx context.Context, rec *entity.FileRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.FileRecord, error)
	FindByPathAndModTime(ctx context.Context, path string, modTime time.Time) (*entity.FileRecord, error)
	FindByStatus(ctx context.Context, status constants.ProcessingStatus) ([]entity.FileRecord, error)
	FindByProcessedAtRange(ctx context.Context, from, to time.Time) ([]entity.FileRecord, error)
	CountByStatus(ctx context.Context, status constants.ProcessingStatus) (int64, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, offset, limit int) ([]entity.FileRecord, error)
	Close() error
}

const outputPathSeparator = "; "
