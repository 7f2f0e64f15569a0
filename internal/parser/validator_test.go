package parser

import (
	"strings"
	"testing"

	"github.com/mercadoapps/filemonitor/constants"
)

func strictLine(category, productType, code, amount, expiryDays, name string) string {
	buf := []byte(strings.Repeat(" ", constants.StrictLineLength))
	copy(buf[constants.CategoryStart:], category)
	copy(buf[constants.ProductTypeStart:], productType)
	copy(buf[constants.CodeStart:], code)
	copy(buf[constants.AmountStart:], amount)
	copy(buf[constants.ExpiryDaysStart:], expiryDays)
	copy(buf[constants.NameStart:], name)
	return string(buf)
}

func TestValidateLine(t *testing.T) {
	v := NewValidator(nil)

	t.Run("valid line", func(t *testing.T) {
		line := strictLine("10", "P", "000123", "000150", "030", "ARROZ BRANCO")
		result := v.ValidateLine(line, 1)
		if !result.Valid {
			t.Fatalf("line reported invalid: %v", result.Errors)
		}
	})

	t.Run("empty line", func(t *testing.T) {
		result := v.ValidateLine("   ", 1)
		if result.Valid || len(result.Errors) != 1 {
			t.Fatalf("result = %+v, want single empty-line error", result)
		}
	})

	t.Run("below strict width", func(t *testing.T) {
		result := v.ValidateLine(strings.Repeat("x", constants.StrictLineLength-1), 1)
		if result.Valid {
			t.Fatal("short line reported valid")
		}
		if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "at least") {
			t.Fatalf("errors = %v", result.Errors)
		}
	})

	t.Run("blank code and name", func(t *testing.T) {
		line := strictLine("10", "P", "      ", "000150", "030", "")
		result := v.ValidateLine(line, 1)
		if result.Valid {
			t.Fatal("line reported valid")
		}
		wantSubstrings := []string{"code must not be empty", "name must not be empty"}
		for _, want := range wantSubstrings {
			found := false
			for _, e := range result.Errors {
				if strings.Contains(e, want) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("errors %v missing %q", result.Errors, want)
			}
		}
	})

	t.Run("non numeric amount", func(t *testing.T) {
		line := strictLine("10", "P", "000123", "15,50 ", "030", "ARROZ")
		result := v.ValidateLine(line, 1)
		if result.Valid {
			t.Fatal("line reported valid")
		}
	})

	t.Run("empty expiry days rejected", func(t *testing.T) {
		line := strictLine("10", "P", "000123", "000150", "   ", "ARROZ")
		result := v.ValidateLine(line, 1)
		if result.Valid {
			t.Fatal("line with blank day count reported valid")
		}
	})
}
