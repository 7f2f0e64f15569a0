package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercadoapps/filemonitor/constants"
	"github.com/mercadoapps/filemonitor/internal/common"
	"github.com/mercadoapps/filemonitor/internal/entity"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS file_records (
	id               UUID PRIMARY KEY,
	file_name        TEXT NOT NULL,
	file_path        TEXT NOT NULL,
	file_size        BIGINT NOT NULL DEFAULT 0,
	last_modified_ns BIGINT NOT NULL DEFAULT 0,
	processed_at     TIMESTAMPTZ,
	status           TEXT NOT NULL,
	output_paths     TEXT NOT NULL DEFAULT '',
	records_count    INTEGER,
	error_message    TEXT,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_file_records_identity ON file_records (file_path, last_modified_ns);
CREATE INDEX IF NOT EXISTS idx_file_records_status ON file_records (status);
`

// PostgresRepository stores file records in Postgres through a pgx pool.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres creates the pool, applies the schema and returns the
// repository.
func OpenPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*PostgresRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to postgres record store")

	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "filemonitor"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	logger.Info("postgres record store ready")
	return &PostgresRepository{pool: pool, logger: logger}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, rec *entity.FileRecord) error {
	now := time.Now().UTC()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO file_records
			(id, file_name, file_path, file_size, last_modified_ns, processed_at, status, output_paths, records_count, error_message, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, rec.ID, rec.FileName, rec.FilePath, rec.FileSize, rec.LastModified.UnixNano(), rec.ProcessedAt,
		string(rec.Status), strings.Join(rec.OutputPaths, outputPathSeparator), rec.RecordsCount, rec.ErrorMessage,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		r.logger.Error("insert file record failed", "file", rec.FileName, "error", err)
		return fmt.Errorf("insert file record: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, rec *entity.FileRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		UPDATE file_records
		SET processed_at=$1, status=$2, output_paths=$3, records_count=$4, error_message=$5, updated_at=$6
		WHERE id=$7
	`, rec.ProcessedAt, string(rec.Status), strings.Join(rec.OutputPaths, outputPathSeparator),
		rec.RecordsCount, rec.ErrorMessage, rec.UpdatedAt, rec.ID)
	if err != nil {
		r.logger.Error("update file record failed", "id", rec.ID, "error", err)
		return fmt.Errorf("update file record: %w", err)
	}
	return nil
}

const pgSelectColumns = `id, file_name, file_path, file_size, last_modified_ns, processed_at, status, output_paths, records_count, error_message, created_at, updated_at`

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.FileRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+pgSelectColumns+` FROM file_records WHERE id=$1`, id)
	rec, err := scanPgRecord(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("select file record: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) FindByPathAndModTime(ctx context.Context, path string, modTime time.Time) (*entity.FileRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+pgSelectColumns+` FROM file_records WHERE file_path=$1 AND last_modified_ns=$2 LIMIT 1`,
		path, modTime.UnixNano())
	rec, err := scanPgRecord(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("select by identity: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) FindByStatus(ctx context.Context, status constants.ProcessingStatus) ([]entity.FileRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+pgSelectColumns+` FROM file_records WHERE status=$1 ORDER BY updated_at DESC`, string(status))
	if err != nil {
		return nil, fmt.Errorf("select by status: %w", err)
	}
	defer rows.Close()
	return collectPgRecords(rows)
}

func (r *PostgresRepository) FindByProcessedAtRange(ctx context.Context, from, to time.Time) ([]entity.FileRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+pgSelectColumns+` FROM file_records WHERE processed_at BETWEEN $1 AND $2 ORDER BY processed_at DESC`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("select by processed range: %w", err)
	}
	defer rows.Close()
	return collectPgRecords(rows)
}

func (r *PostgresRepository) CountByStatus(ctx context.Context, status constants.ProcessingStatus) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM file_records WHERE status=$1`, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count by status: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM file_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]entity.FileRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+pgSelectColumns+` FROM file_records ORDER BY created_at DESC OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()
	return collectPgRecords(rows)
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

type pgScanner interface {
	Scan(dest ...any) error
}

func scanPgRecord(row pgScanner) (*entity.FileRecord, error) {
	var (
		rec         entity.FileRecord
		status      string
		modifiedNs  int64
		outputPaths string
	)
	if err := row.Scan(&rec.ID, &rec.FileName, &rec.FilePath, &rec.FileSize, &modifiedNs, &rec.ProcessedAt,
		&status, &outputPaths, &rec.RecordsCount, &rec.ErrorMessage, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Status = constants.ProcessingStatus(status)
	rec.LastModified = time.Unix(0, modifiedNs).UTC()
	if outputPaths != "" {
		rec.OutputPaths = strings.Split(outputPaths, outputPathSeparator)
	}
	return &rec, nil
}

func collectPgRecords(rows pgx.Rows) ([]entity.FileRecord, error) {
	var out []entity.FileRecord
	for rows.Next() {
		rec, err := scanPgRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}
