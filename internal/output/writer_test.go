package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mercadoapps/filemonitor/internal/entity"
)

func sampleProduct() entity.Product {
	return entity.Product{
		ID:          12,
		Name:        "ARROZ BRANCO 5KG",
		Description: "ARROZ BRANCO 5KG",
		Price:       decimal.RequireFromString("15.50"),
		PromoPrice:  decimal.Zero,
		Barcode:     "78912",
		Active:      true,
		Unit:        "X",
		Category:    entity.Category{ID: 42, Name: "GRAOS"},
	}
}

func fixedWriter() *Writer {
	w := NewWriter(nil)
	w.now = func() time.Time {
		return time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC)
	}
	return w
}

func TestWriteRecords(t *testing.T) {
	dir := t.TempDir()
	w := fixedWriter()

	records := []entity.ItemRecord{
		{Code: "000123", Name: "ARROZ", Category: "10", Amount: decimal.RequireFromString("1.5"), ExpiryDays: 30, ProductType: "P"},
	}
	path, err := w.WriteRecords(dir, "txitens.txt", records)
	if err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}
	if filepath.Base(path) != "txitens_20260901_123000.json" {
		t.Errorf("artifact name = %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc RecordsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal artifact: %v", err)
	}
	if doc.Metadata.RecordCount != 1 || doc.Metadata.SourceFile != "txitens.txt" {
		t.Errorf("metadata = %+v", doc.Metadata)
	}
	if doc.Metadata.Version != "1.0" || doc.Metadata.Format != "positional_to_json" {
		t.Errorf("metadata = %+v", doc.Metadata)
	}
	if len(doc.Records) != 1 || doc.Records[0].Code != "000123" {
		t.Errorf("records = %+v", doc.Records)
	}
}

func TestWriteProducts(t *testing.T) {
	dir := t.TempDir()
	w := fixedWriter()

	path, err := w.WriteProducts(dir, "txitens.txt", []entity.Product{sampleProduct()})
	if err != nil {
		t.Fatalf("WriteProducts: %v", err)
	}
	if got := filepath.Base(path); !strings.HasPrefix(got, "produtos_txitens_") {
		t.Errorf("artifact name = %s, want produtos_ prefix", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateProductsDocument(data); err != nil {
		t.Errorf("written artifact fails schema: %v", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := doc["produtos"]; !ok {
		t.Error("artifact missing produtos key")
	}
}

func TestValidateProductsDocument(t *testing.T) {
	t.Run("empty list valid", func(t *testing.T) {
		if err := ValidateProductsDocument([]byte(`{"produtos": []}`)); err != nil {
			t.Errorf("empty list: %v", err)
		}
	})

	t.Run("missing produtos key", func(t *testing.T) {
		if err := ValidateProductsDocument([]byte(`{}`)); err == nil {
			t.Error("want schema error for missing produtos")
		}
	})

	t.Run("product without required fields", func(t *testing.T) {
		if err := ValidateProductsDocument([]byte(`{"produtos": [{"id": 1}]}`)); err == nil {
			t.Error("want schema error for missing nome/preco/categoria")
		}
	})

	t.Run("not json", func(t *testing.T) {
		if err := ValidateProductsDocument([]byte(`{`)); err == nil {
			t.Error("want decode error")
		}
	})
}
