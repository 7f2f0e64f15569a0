package parser

import (
	"fmt"

	"github.com/mercadoapps/filemonitor/constants"
)

// Field names one slice of a positional line.
type Field struct {
	Name   string
	Start  int
	Length int
	// Clipped fields may extend past the minimum line width; they are cut
	// to whatever the line actually carries.
	Clipped bool
}

func (f Field) End() int { return f.Start + f.Length }

// Layout is the fixed field table for the item line shape. Defined once;
// every field is sliced as [Start, Start+Length) over the raw line.
var Layout = []Field{
	{Name: "categoria", Start: constants.CategoryStart, Length: constants.CategoryLen},
	{Name: "tipo_produto", Start: constants.ProductTypeStart, Length: constants.ProductTypeLen},
	{Name: "codigo", Start: constants.CodeStart, Length: constants.CodeLen},
	{Name: "valor", Start: constants.AmountStart, Length: constants.AmountLen},
	{Name: "dias_validade", Start: constants.ExpiryDaysStart, Length: constants.ExpiryDaysLen},
	{Name: "nome", Start: constants.NameStart, Length: constants.NameLen},
	{Name: "observacoes", Start: constants.NotesStart, Length: constants.NotesLen, Clipped: true},
}

// ValidateLayout checks that no mandatory field reaches past the minimum
// line width the decoder enforces. Called once at startup.
func ValidateLayout() error {
	for _, f := range Layout {
		if f.Clipped {
			continue
		}
		if f.End() > constants.MinLineLength {
			return fmt.Errorf("field %s ends at %d, past minimum line length %d", f.Name, f.End(), constants.MinLineLength)
		}
	}
	return nil
}

// extractField slices [start, end) out of line, clipped to the line's actual
// length. A start past the end of the line yields an empty string.
func extractField(line string, start, end int) string {
	if start >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return line[start:end]
}
