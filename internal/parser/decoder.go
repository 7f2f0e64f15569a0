package parser

import (
	"bufio"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mercadoapps/filemonitor/constants"
	"github.com/mercadoapps/filemonitor/internal/entity"
)

// Decoder turns positional item files into ItemRecords.
type Decoder struct {
	logger *slog.Logger
}

func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{logger: logger}
}

// ParseFile decodes every line of the file at path. Blank lines are skipped;
// any decode failure aborts the whole file with a LineError.
func (d *Decoder) ParseFile(path string) ([]entity.ItemRecord, error) {
	d.logger.Info("parsing positional file", "path", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []entity.ItemRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	lineNumber := 0
	for sc.Scan() {
		lineNumber++
		rec, err := d.ParseLine(sc.Text(), lineNumber)
		if err != nil {
			d.logger.Error("line decode failed", "path", path, "line", lineNumber, "error", err)
			return nil, &LineError{Line: lineNumber, Err: err}
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	d.logger.Info("parse finished", "path", path, "records", len(records))
	return records, nil
}

// ParseLine decodes one line. Blank or whitespace-only lines yield
// (nil, nil): no record, no error.
func (d *Decoder) ParseLine(line string, lineNumber int) (*entity.ItemRecord, error) {
	if strings.TrimSpace(line) == "" {
		d.logger.Debug("skipping blank line", "line", lineNumber)
		return nil, nil
	}

	if len(line) < constants.MinLineLength {
		return nil, &TooShortError{Required: constants.MinLineLength, Actual: len(line)}
	}

	amount, err := parseAmount(extractField(line, constants.AmountStart, constants.AmountStart+constants.AmountLen))
	if err != nil {
		return nil, err
	}
	expiryDays, err := parseExpiryDays(extractField(line, constants.ExpiryDaysStart, constants.ExpiryDaysStart+constants.ExpiryDaysLen))
	if err != nil {
		return nil, err
	}

	return &entity.ItemRecord{
		Code:        strings.TrimSpace(extractField(line, constants.CodeStart, constants.CodeStart+constants.CodeLen)),
		Name:        strings.TrimSpace(extractField(line, constants.NameStart, constants.NameStart+constants.NameLen)),
		Category:    strings.TrimSpace(extractField(line, constants.CategoryStart, constants.CategoryStart+constants.CategoryLen)),
		Amount:      amount,
		ExpiryDays:  expiryDays,
		ProductType: strings.TrimSpace(extractField(line, constants.ProductTypeStart, constants.ProductTypeStart+constants.ProductTypeLen)),
		Notes:       strings.TrimSpace(extractField(line, constants.NotesStart, constants.NotesStart+constants.NotesLen)),
	}, nil
}

// parseAmount applies the implicit-decimal rule: whitespace stripped, empty
// means zero, and when the cleaned digits carry no decimal point and more
// than two characters the last two are fractional.
func parseAmount(raw string) (decimal.Decimal, error) {
	clean := strings.Join(strings.Fields(raw), "")
	if clean == "" {
		return decimal.Zero, nil
	}

	if !strings.Contains(clean, ".") && len(clean) > 2 {
		clean = clean[:len(clean)-2] + "." + clean[len(clean)-2:]
	}

	v, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, &InvalidAmountError{Raw: raw}
	}
	return v, nil
}

// parseExpiryDays is lenient about empty values; the advisory validator is
// the strict path.
func parseExpiryDays(raw string) (int, error) {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(clean)
	if err != nil {
		return 0, &InvalidExpiryError{Raw: raw}
	}
	return n, nil
}
