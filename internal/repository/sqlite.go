package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mercadoapps/filemonitor/constants"
	"github.com/mercadoapps/filemonitor/internal/entity"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// sqliteTimeLayout pads fractional seconds to nine digits. Timestamps are
// stored as TEXT and range-compared lexicographically, which is only correct
// when every value has the same width.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository stores file records in an embedded SQLite database.
type SQLiteRepository struct {
	db     *sql.DB
	sq     sq.StatementBuilderType
	logger *slog.Logger
}

// OpenSQLite opens the database at dbPath, applies pragmas and migrations,
// and returns the repository.
func OpenSQLite(dbPath string, logger *slog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening sqlite record store", "path", dbPath)

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("make db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	if err := applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteRepository{
		db:     db,
		sq:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger: logger,
	}, nil
}

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
        name TEXT PRIMARY KEY,
        applied_at TEXT NOT NULL
    )`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, name := range files {
		var n int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE name = ?`, name).Scan(&n)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(b)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_migrations(name, applied_at) VALUES (?, ?)`,
			name, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

var sqliteColumns = []string{
	"id", "file_name", "file_path", "file_size", "last_modified_ns", "processed_at",
	"status", "output_paths", "records_count", "error_message", "created_at", "updated_at",
}

func (r *SQLiteRepository) Create(ctx context.Context, rec *entity.FileRecord) error {
	now := time.Now().UTC()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now

	q := r.sq.Insert("file_records").Columns(sqliteColumns...).Values(
		rec.ID.String(), rec.FileName, rec.FilePath, rec.FileSize, rec.LastModified.UnixNano(),
		nullableTime(rec.ProcessedAt), string(rec.Status), strings.Join(rec.OutputPaths, outputPathSeparator),
		nullableInt(rec.RecordsCount), nullableString(rec.ErrorMessage),
		rec.CreatedAt.Format(sqliteTimeLayout), rec.UpdatedAt.Format(sqliteTimeLayout),
	)
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		r.logger.Error("insert file record failed", "file", rec.FileName, "error", err)
		return fmt.Errorf("insert file record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, rec *entity.FileRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	q := r.sq.Update("file_records").
		Set("processed_at", nullableTime(rec.ProcessedAt)).
		Set("status", string(rec.Status)).
		Set("output_paths", strings.Join(rec.OutputPaths, outputPathSeparator)).
		Set("records_count", nullableInt(rec.RecordsCount)).
		Set("error_message", nullableString(rec.ErrorMessage)).
		Set("updated_at", rec.UpdatedAt.Format(sqliteTimeLayout)).
		Where(sq.Eq{"id": rec.ID.String()})
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		r.logger.Error("update file record failed", "id", rec.ID, "error", err)
		return fmt.Errorf("update file record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.FileRecord, error) {
	rec, err := r.queryOne(ctx, sq.Eq{"id": id.String()})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

func (r *SQLiteRepository) FindByPathAndModTime(ctx context.Context, path string, modTime time.Time) (*entity.FileRecord, error) {
	return r.queryOne(ctx, sq.Eq{"file_path": path, "last_modified_ns": modTime.UnixNano()})
}

func (r *SQLiteRepository) FindByStatus(ctx context.Context, status constants.ProcessingStatus) ([]entity.FileRecord, error) {
	return r.queryMany(ctx, r.selectRecords().Where(sq.Eq{"status": string(status)}).OrderBy("updated_at DESC"))
}

func (r *SQLiteRepository) FindByProcessedAtRange(ctx context.Context, from, to time.Time) ([]entity.FileRecord, error) {
	return r.queryMany(ctx, r.selectRecords().
		Where(sq.GtOrEq{"processed_at": from.UTC().Format(sqliteTimeLayout)}).
		Where(sq.LtOrEq{"processed_at": to.UTC().Format(sqliteTimeLayout)}).
		OrderBy("processed_at DESC"))
}

func (r *SQLiteRepository) CountByStatus(ctx context.Context, status constants.ProcessingStatus) (int64, error) {
	return r.count(ctx, sq.Eq{"status": string(status)})
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, nil)
}

func (r *SQLiteRepository) List(ctx context.Context, offset, limit int) ([]entity.FileRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.queryMany(ctx, r.selectRecords().OrderBy("created_at DESC").
		Offset(uint64(offset)).Limit(uint64(limit)))
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) selectRecords() sq.SelectBuilder {
	return r.sq.Select(sqliteColumns...).From("file_records")
}

func (r *SQLiteRepository) count(ctx context.Context, where any) (int64, error) {
	q := r.sq.Select("COUNT(*)").From("file_records")
	if where != nil {
		q = q.Where(where)
	}
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) queryOne(ctx context.Context, where any) (*entity.FileRecord, error) {
	sqlStr, args, err := r.selectRecords().Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	rec, err := scanSQLiteRecord(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("select file record: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) queryMany(ctx context.Context, q sq.SelectBuilder) ([]entity.FileRecord, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query file records: %w", err)
	}
	defer rows.Close()

	var out []entity.FileRecord
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanSQLiteRecord(scan func(...any) error) (*entity.FileRecord, error) {
	var (
		rec          entity.FileRecord
		id           string
		modifiedNs   int64
		processedAt  sql.NullString
		status       string
		outputPaths  string
		recordsCount sql.NullInt64
		errorMessage sql.NullString
		createdAt    string
		updatedAt    string
	)
	if err := scan(&id, &rec.FileName, &rec.FilePath, &rec.FileSize, &modifiedNs, &processedAt,
		&status, &outputPaths, &recordsCount, &errorMessage, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse record id: %w", err)
	}
	rec.ID = parsed
	rec.LastModified = time.Unix(0, modifiedNs).UTC()
	rec.Status = constants.ProcessingStatus(status)
	if processedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, processedAt.String); err == nil {
			rec.ProcessedAt = &t
		}
	}
	if outputPaths != "" {
		rec.OutputPaths = strings.Split(outputPaths, outputPathSeparator)
	}
	if recordsCount.Valid {
		n := int(recordsCount.Int64)
		rec.RecordsCount = &n
	}
	if errorMessage.Valid {
		msg := errorMessage.String
		rec.ErrorMessage = &msg
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &rec, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(sqliteTimeLayout)
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
