package entity

import (
	"github.com/shopspring/decimal"
)

// ItemRecord is one decoded line of a positional item file. JSON names match
// the downstream system's wire format.
type ItemRecord struct {
	Code        string          `json:"codigo"`
	Name        string          `json:"nome"`
	Category    string          `json:"categoria"`
	Amount      decimal.Decimal `json:"valor"`
	ExpiryDays  int             `json:"dias_validade"`
	ProductType string          `json:"tipo_Produto"`
	Notes       string          `json:"observacoes"`
}
