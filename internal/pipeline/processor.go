// Package pipeline drives one input file through decode, mapping, artifact
// generation and remote delivery, tracking the lifecycle in the record store.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mercadoapps/filemonitor/constants"
	"github.com/mercadoapps/filemonitor/internal/delivery"
	"github.com/mercadoapps/filemonitor/internal/entity"
	"github.com/mercadoapps/filemonitor/internal/mapper"
	"github.com/mercadoapps/filemonitor/internal/output"
	"github.com/mercadoapps/filemonitor/internal/parser"
	"github.com/mercadoapps/filemonitor/internal/repository"
)

// Processor is the ingestion orchestrator.
type Processor struct {
	logger           *slog.Logger
	decoder          *parser.Decoder
	mapper           *mapper.Mapper
	writer           *output.Writer
	records          repository.FileRecordRepository
	sender           delivery.Sender
	outputDir        string
	productOutputDir string
}

func NewProcessor(
	logger *slog.Logger,
	records repository.FileRecordRepository,
	sender delivery.Sender,
	outputDir, productOutputDir string,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:           logger,
		decoder:          parser.NewDecoder(logger),
		mapper:           mapper.NewMapper(logger),
		writer:           output.NewWriter(logger),
		records:          records,
		sender:           sender,
		outputDir:        outputDir,
		productOutputDir: productOutputDir,
	}
}

// ProcessFile runs the full pipeline for one file. The record moves
// PENDING -> PROCESSING -> COMPLETED | ERROR; a delivery failure overwrites
// an already-COMPLETED record to ERROR while the written artifacts stay on
// disk. The terminal state is persisted on every exit path.
func (p *Processor) ProcessFile(ctx context.Context, path string) error {
	p.logger.Info("processing file", "path", path)

	rec := p.newFileRecord(path)
	if err := p.records.Create(ctx, rec); err != nil {
		p.logger.Error("create file record failed", "path", path, "error", err)
		return err
	}
	rec.Status = constants.StatusProcessing
	if err := p.records.Update(ctx, rec); err != nil {
		p.logger.Error("mark processing failed", "path", path, "error", err)
		return err
	}

	// Terminal write happens even when a step below panics or the context
	// is already cancelled.
	defer func() {
		if err := p.records.Update(context.WithoutCancel(ctx), rec); err != nil {
			p.logger.Error("persist terminal state failed", "path", path, "error", err)
		}
	}()

	fail := func(err error) error {
		now := time.Now().UTC()
		msg := err.Error()
		rec.Status = constants.StatusError
		rec.ProcessedAt = &now
		rec.ErrorMessage = &msg
		p.logger.Error("file processing failed", "path", path, "error", err)
		return err
	}

	records, err := p.decoder.ParseFile(path)
	if err != nil {
		return fail(err)
	}

	products, err := p.mapper.ToProducts(records)
	if err != nil {
		return fail(err)
	}

	sourceName := filepath.Base(path)
	recordsPath, err := p.writer.WriteRecords(p.outputDir, sourceName, records)
	if err != nil {
		return fail(err)
	}
	productsPath, err := p.writer.WriteProducts(p.productOutputDir, sourceName, products)
	if err != nil {
		return fail(err)
	}

	now := time.Now().UTC()
	count := len(records)
	rec.Status = constants.StatusCompleted
	rec.ProcessedAt = &now
	rec.OutputPaths = []string{recordsPath, productsPath}
	rec.RecordsCount = &count
	rec.ErrorMessage = nil
	if err := p.records.Update(ctx, rec); err != nil {
		p.logger.Error("persist completed state failed", "path", path, "error", err)
	}

	p.logger.Info("file processed",
		"path", path,
		"records", count,
		"records_artifact", recordsPath,
		"products_artifact", productsPath,
	)

	if len(products) > 0 {
		if err := p.sender.SendProducts(ctx, products); err != nil {
			// Artifacts stay on disk; only the persisted status is
			// downgraded.
			p.logger.Error("remote delivery failed", "path", path, "error", err)
			deliveredAt := time.Now().UTC()
			msg := err.Error()
			rec.Status = constants.StatusError
			rec.ProcessedAt = &deliveredAt
			rec.ErrorMessage = &msg
		}
	}
	return nil
}

// ShouldProcess reports whether the (path, lastModified) identity has not
// been handled yet. A metadata read failure rejects the file.
func (p *Processor) ShouldProcess(ctx context.Context, path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		p.logger.Error("cannot stat file for idempotency check", "path", path, "error", err)
		return false
	}
	existing, err := p.records.FindByPathAndModTime(ctx, path, info.ModTime())
	if err != nil {
		p.logger.Error("idempotency lookup failed", "path", path, "error", err)
		return false
	}
	return existing == nil
}

// PreviewResult carries the outcome of a dry parse+map run.
type PreviewResult struct {
	TotalRecords  int              `json:"total_records"`
	TotalProducts int              `json:"total_produtos"`
	Products      []entity.Product `json:"produtos"`
}

const previewLimit = 10

// Preview decodes and maps a file without writing artifacts or delivering,
// returning at most the first 10 products plus totals.
func (p *Processor) Preview(_ context.Context, path string) (*PreviewResult, error) {
	records, err := p.decoder.ParseFile(path)
	if err != nil {
		return nil, err
	}
	products, err := p.mapper.ToProducts(records)
	if err != nil {
		return nil, err
	}
	shown := products
	if len(shown) > previewLimit {
		shown = shown[:previewLimit]
	}
	return &PreviewResult{
		TotalRecords:  len(records),
		TotalProducts: len(products),
		Products:      shown,
	}, nil
}

// GenerateResult reports the product artifact produced by a standalone
// generation run.
type GenerateResult struct {
	OutputPath    string `json:"output_path"`
	TotalProducts int    `json:"total_produtos"`
}

// GenerateProducts decodes and maps a file and writes only the products
// artifact. No processing record is kept and nothing is delivered.
func (p *Processor) GenerateProducts(_ context.Context, path string) (*GenerateResult, error) {
	records, err := p.decoder.ParseFile(path)
	if err != nil {
		return nil, err
	}
	products, err := p.mapper.ToProducts(records)
	if err != nil {
		return nil, err
	}
	outputPath, err := p.writer.WriteProducts(p.productOutputDir, filepath.Base(path), products)
	if err != nil {
		return nil, err
	}
	return &GenerateResult{
		OutputPath:    outputPath,
		TotalProducts: len(products),
	}, nil
}

// newFileRecord captures best-effort filesystem metadata; absence is logged
// and tolerated.
func (p *Processor) newFileRecord(path string) *entity.FileRecord {
	rec := &entity.FileRecord{
		FileName: filepath.Base(path),
		FilePath: path,
		Status:   constants.StatusPending,
	}
	info, err := os.Stat(path)
	if err != nil {
		p.logger.Warn("cannot read file metadata", "path", path, "error", err)
		return rec
	}
	rec.FileSize = info.Size()
	rec.LastModified = info.ModTime()
	return rec
}
