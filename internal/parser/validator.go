package parser

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mercadoapps/filemonitor/constants"
)

// ValidationResult collects the diagnostic findings for one line.
type ValidationResult struct {
	LineNumber int
	Line       string
	Valid      bool
	Errors     []string
}

func (r *ValidationResult) addError(msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, msg)
}

// Validator re-checks field widths and content classes for diagnostic
// reporting. It is advisory: decoding never depends on it and its findings
// are logged, not returned as failures.
type Validator struct {
	logger *slog.Logger
}

func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger}
}

// ValidateLine enforces exact nominal widths and content-class rules.
// Unlike the decoder it requires the full width up to the notes field and
// rejects an empty day count.
func (v *Validator) ValidateLine(line string, lineNumber int) ValidationResult {
	result := ValidationResult{LineNumber: lineNumber, Line: line, Valid: true}

	if strings.TrimSpace(line) == "" {
		result.addError("empty line")
		return result
	}
	if len(line) < constants.StrictLineLength {
		result.addError(fmt.Sprintf("line must be at least %d characters, got %d", constants.StrictLineLength, len(line)))
		return result
	}

	v.checkCode(extractField(line, constants.CodeStart, constants.CodeStart+constants.CodeLen), &result)
	v.checkName(extractField(line, constants.NameStart, constants.NameStart+constants.NameLen), &result)
	v.checkCategory(extractField(line, constants.CategoryStart, constants.CategoryStart+constants.CategoryLen), &result)
	v.checkAmount(extractField(line, constants.AmountStart, constants.AmountStart+constants.AmountLen), &result)
	v.checkProductType(extractField(line, constants.ProductTypeStart, constants.ProductTypeStart+constants.ProductTypeLen), &result)
	v.checkExpiryDays(extractField(line, constants.ExpiryDaysStart, constants.ExpiryDaysStart+constants.ExpiryDaysLen), &result)
	// notes are optional, not validated

	return result
}

func (v *Validator) checkCode(code string, result *ValidationResult) {
	if strings.TrimSpace(code) == "" {
		result.addError("code must not be empty")
	}
	if len(code) != constants.CodeLen {
		result.addError(fmt.Sprintf("code must be exactly %d characters", constants.CodeLen))
	}
}

func (v *Validator) checkName(name string, result *ValidationResult) {
	if strings.TrimSpace(name) == "" {
		result.addError("name must not be empty")
	}
	if len(name) != constants.NameLen {
		result.addError(fmt.Sprintf("name must be exactly %d characters (with padding)", constants.NameLen))
	}
}

func (v *Validator) checkCategory(category string, result *ValidationResult) {
	if strings.TrimSpace(category) == "" {
		result.addError("category must not be empty")
	}
	if len(category) != constants.CategoryLen {
		result.addError(fmt.Sprintf("category must be exactly %d characters", constants.CategoryLen))
	}
}

func (v *Validator) checkAmount(amount string, result *ValidationResult) {
	clean := strings.TrimSpace(amount)
	if clean == "" {
		result.addError("amount must not be empty")
	}
	if len(amount) != constants.AmountLen {
		result.addError(fmt.Sprintf("amount must be exactly %d characters", constants.AmountLen))
	}
	if clean != "" && !isAllDigits(clean) {
		result.addError("amount must contain only digits")
	}
}

func (v *Validator) checkProductType(productType string, result *ValidationResult) {
	if strings.TrimSpace(productType) == "" {
		result.addError("product type must not be empty")
	}
	if len(productType) != constants.ProductTypeLen {
		result.addError(fmt.Sprintf("product type must be exactly %d characters", constants.ProductTypeLen))
	}
}

func (v *Validator) checkExpiryDays(days string, result *ValidationResult) {
	clean := strings.TrimSpace(days)
	if clean == "" {
		result.addError("expiry day count must not be empty")
		return
	}
	if _, err := strconv.Atoi(clean); err == nil {
		return
	}
	if _, err := strconv.ParseFloat(clean, 64); err == nil {
		return
	}
	if _, err := strconv.ParseInt(clean, 10, 64); err == nil {
		return
	}
	result.addError("expiry day count is not numeric")
}

// LogResult writes the findings to the log, one entry per error.
func (v *Validator) LogResult(result ValidationResult) {
	if result.Valid {
		v.logger.Debug("line valid", "line", result.LineNumber)
		return
	}
	v.logger.Warn("line invalid", "line", result.LineNumber, "errors", len(result.Errors))
	for _, e := range result.Errors {
		v.logger.Warn("validation error", "line", result.LineNumber, "error", e)
	}
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
