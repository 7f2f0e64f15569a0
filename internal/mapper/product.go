package mapper

import (
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mercadoapps/filemonitor/internal/entity"
)

const (
	maxNameLen        = 50
	maxDescriptionLen = 100
	barcodePrefix     = "789"
	defaultUnit       = "X"
)

// ErrEmptyName reports a record whose name field is blank after trimming.
var ErrEmptyName = errors.New("product name must not be empty")

// InvalidCodeError reports a code field that cannot become a product id.
type InvalidCodeError struct {
	Raw string
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid product code: %q", e.Raw)
}

// Mapper converts decoded item records into downstream products.
type Mapper struct {
	logger *slog.Logger
}

func NewMapper(logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{logger: logger}
}

// ToProducts maps every record. The first failure aborts the batch: mapping
// runs inside the same transactional unit as decoding.
func (m *Mapper) ToProducts(records []entity.ItemRecord) ([]entity.Product, error) {
	m.logger.Info("mapping records to products", "records", len(records))

	products := make([]entity.Product, 0, len(records))
	for _, rec := range records {
		p, err := m.ToProduct(rec)
		if err != nil {
			m.logger.Error("product mapping failed", "code", rec.Code, "error", err)
			return nil, fmt.Errorf("mapping product with code %q: %w", rec.Code, err)
		}
		products = append(products, p)
	}

	m.logger.Info("mapping finished", "products", len(products))
	return products, nil
}

// ToProduct maps one record.
func (m *Mapper) ToProduct(rec entity.ItemRecord) (entity.Product, error) {
	id, err := codeToID(rec.Code)
	if err != nil {
		return entity.Product{}, err
	}
	name, err := m.cleanName(rec.Name)
	if err != nil {
		return entity.Product{}, err
	}

	return entity.Product{
		ID:          id,
		Name:        name,
		Description: description(rec.Name),
		Price:       rec.Amount,
		PromoPrice:  decimal.Zero,
		Barcode:     barcode(rec.Code),
		Stock:       0,
		Imported:    false,
		Active:      true,
		Unit:        defaultUnit,
		Category:    ToCategory(rec.Category),
		Image:       "",
	}, nil
}

// codeToID strips leading zeros and parses the remainder as a non-negative
// integer. An all-zero code maps to 0.
func codeToID(code string) (int64, error) {
	clean := strings.TrimSpace(code)
	if clean == "" {
		return 0, &InvalidCodeError{Raw: code}
	}
	clean = strings.TrimLeft(clean, "0")
	if clean == "" {
		clean = "0"
	}
	id, err := strconv.ParseInt(clean, 10, 64)
	if err != nil || id < 0 {
		return 0, &InvalidCodeError{Raw: code}
	}
	return id, nil
}

func (m *Mapper) cleanName(name string) (string, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return "", ErrEmptyName
	}
	if len(clean) > maxNameLen {
		m.logger.Warn("product name truncated", "from", len(clean), "to", maxNameLen)
		clean = clean[:maxNameLen]
	}
	return clean, nil
}

// description is the trimmed name only; the category is deliberately not
// concatenated.
func description(name string) string {
	desc := strings.TrimSpace(name)
	if desc == "" {
		desc = "Produto"
	}
	if len(desc) > maxDescriptionLen {
		desc = desc[:maxDescriptionLen]
	}
	return desc
}

// barcode prepends a fixed prefix to at most the first 10 characters of the
// zero-stripped code. An empty code yields an empty barcode.
func barcode(code string) string {
	clean := strings.TrimSpace(code)
	if clean == "" {
		return ""
	}
	clean = strings.TrimLeft(clean, "0")
	if len(clean) > 10 {
		clean = clean[:10]
	}
	return barcodePrefix + clean
}

// ToCategory maps a category name onto a Category. A blank name falls back
// to the fixed default.
func ToCategory(name string) entity.Category {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return entity.Category{ID: 1, Name: "Geral"}
	}
	return entity.Category{ID: CategoryID(clean), Name: clean}
}

// CategoryID derives a stable id from the category name: FNV-1a 32-bit of
// the trimmed name, modulo 1000, plus one. The hash must stay fixed across
// runs because the id acts as the category key with no backing table.
func CategoryID(name string) int64 {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return 1
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(clean))
	return int64(h.Sum32())%1000 + 1
}
