package output

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mercadoapps/filemonitor/internal/entity"
)

// RecordsMetadata describes where a records document came from.
type RecordsMetadata struct {
	SourceFile  string    `json:"source_file"`
	ProcessedAt time.Time `json:"processed_at"`
	RecordCount int       `json:"record_count"`
	Version     string    `json:"version"`
	Format      string    `json:"format"`
}

// RecordsDocument is the raw-records artifact written per processed file.
type RecordsDocument struct {
	Metadata RecordsMetadata     `json:"metadata"`
	Records  []entity.ItemRecord `json:"records"`
}

// ProductsDocument is the mapped-products artifact.
type ProductsDocument struct {
	Produtos []entity.Product `json:"produtos"`
}

const timestampLayout = "20060102_150405"

// Writer produces the JSON artifacts for one processed file.
type Writer struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger, now: time.Now}
}

// WriteRecords writes the records document into dir, named after the source
// file plus a timestamp. Returns the path of the written artifact.
func (w *Writer) WriteRecords(dir, sourceName string, records []entity.ItemRecord) (string, error) {
	w.logger.Info("writing records artifact", "source", sourceName, "records", len(records))

	doc := RecordsDocument{
		Metadata: RecordsMetadata{
			SourceFile:  sourceName,
			ProcessedAt: w.now(),
			RecordCount: len(records),
			Version:     "1.0",
			Format:      "positional_to_json",
		},
		Records: records,
	}
	name := fmt.Sprintf("%s_%s.json", baseName(sourceName), w.now().Format(timestampLayout))
	return w.writeJSON(dir, name, doc)
}

// WriteProducts writes the products document into dir with a distinct
// "produtos_" prefix. The document is schema-checked after writing; a
// mismatch is logged, never fatal.
func (w *Writer) WriteProducts(dir, sourceName string, products []entity.Product) (string, error) {
	w.logger.Info("writing products artifact", "source", sourceName, "products", len(products))

	doc := ProductsDocument{Produtos: products}
	name := fmt.Sprintf("produtos_%s_%s.json", baseName(sourceName), w.now().Format(timestampLayout))
	path, err := w.writeJSON(dir, name, doc)
	if err != nil {
		return "", err
	}

	if data, readErr := os.ReadFile(path); readErr == nil {
		if vErr := ValidateProductsDocument(data); vErr != nil {
			w.logger.Warn("products artifact failed schema validation", "path", path, "error", vErr)
		}
	}
	return path, nil
}

func (w *Writer) writeJSON(dir, name string, doc any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("make output dir: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal artifact: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	w.logger.Info("artifact written", "path", path)
	return path, nil
}

func baseName(sourceName string) string {
	return strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
}
