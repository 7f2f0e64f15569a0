package repository

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mercadoapps/filemonitor/internal/common"
)

// Open picks the record store implementation from the DB URL: postgres
// schemes go through pgx, anything else is treated as a SQLite path.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (FileRecordRepository, error) {
	if strings.HasPrefix(cfg.URL, "postgres://") || strings.HasPrefix(cfg.URL, "postgresql://") {
		return OpenPostgres(ctx, cfg, logger)
	}
	return OpenSQLite(cfg.URL, logger)
}
