// Package export renders processing history as XLSX workbooks.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mercadoapps/filemonitor/internal/entity"
	"github.com/mercadoapps/filemonitor/internal/repository"
)

// Service is a small façade over the record store that produces XLSX bytes.
type Service struct {
	records repository.FileRecordRepository
	logger  *slog.Logger
}

func NewService(records repository.FileRecordRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, logger: logger}
}

const historyListLimit = 10000

// HistoryXLSX returns a workbook of processing records. With both bounds nil
// the full history is exported; with only from set the window runs to now.
func (s *Service) HistoryXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	var (
		recs []Row
		err  error
	)
	if from == nil && to == nil {
		all, listErr := s.records.List(ctx, 0, historyListLimit)
		err = listErr
		recs = toRows(all)
	} else {
		lo := time.Time{}
		hi := time.Now().UTC()
		if from != nil {
			lo = from.UTC()
		}
		if to != nil {
			hi = to.UTC()
		}
		ranged, rangeErr := s.records.FindByProcessedAtRange(ctx, lo, hi)
		err = rangeErr
		recs = toRows(ranged)
	}
	if err != nil {
		return nil, fmt.Errorf("query processing history: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "History"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"File Name",
		"File Path",
		"Size (bytes)",
		"Last Modified",
		"Processed At",
		"Status",
		"Records",
		"Output Paths",
		"Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	rowNum := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, rowNum)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.FileName)
		write(2, r.FilePath)
		write(3, r.FileSize)
		write(4, r.LastModified)
		write(5, r.ProcessedAt)
		write(6, r.Status)
		write(7, r.Records)
		write(8, r.OutputPaths)
		write(9, r.Error)
		rowNum++
	}

	_ = f.SetColWidth(sheet, "A", "A", 24)
	_ = f.SetColWidth(sheet, "B", "B", 48)
	_ = f.SetColWidth(sheet, "C", "E", 20)
	_ = f.SetColWidth(sheet, "F", "G", 12)
	_ = f.SetColWidth(sheet, "H", "H", 64)
	_ = f.SetColWidth(sheet, "I", "I", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("history exported", "rows", len(recs), "took", time.Since(start))
	return buf.Bytes(), nil
}

// Row is one flattened history line.
type Row struct {
	FileName     string
	FilePath     string
	FileSize     int64
	LastModified string
	ProcessedAt  string
	Status       string
	Records      any
	OutputPaths  string
	Error        string
}

func toRows(recs []entity.FileRecord) []Row {
	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		row := Row{
			FileName:    rec.FileName,
			FilePath:    rec.FilePath,
			FileSize:    rec.FileSize,
			Status:      string(rec.Status),
			OutputPaths: strings.Join(rec.OutputPaths, "; "),
		}
		if !rec.LastModified.IsZero() {
			row.LastModified = rec.LastModified.UTC().Format(time.RFC3339)
		}
		if rec.ProcessedAt != nil {
			row.ProcessedAt = rec.ProcessedAt.UTC().Format(time.RFC3339)
		}
		if rec.RecordsCount != nil {
			row.Records = *rec.RecordsCount
		}
		if rec.ErrorMessage != nil {
			row.Error = *rec.ErrorMessage
		}
		rows = append(rows, row)
	}
	return rows
}
