package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercadoapps/filemonitor/constants"
)

// FileRecord tracks one input file's processing lifecycle. Identity for
// idempotency purposes is the (FilePath, LastModified) pair.
type FileRecord struct {
	ID           uuid.UUID                  `json:"id"`
	FileName     string                     `json:"file_name"`
	FilePath     string                     `json:"file_path"`
	FileSize     int64                      `json:"file_size"`
	LastModified time.Time                  `json:"last_modified"`
	ProcessedAt  *time.Time                 `json:"processed_at,omitempty"`
	Status       constants.ProcessingStatus `json:"status"`
	OutputPaths  []string                   `json:"output_paths,omitempty"`
	RecordsCount *int                       `json:"records_count,omitempty"`
	ErrorMessage *string                    `json:"error_message,omitempty"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}
