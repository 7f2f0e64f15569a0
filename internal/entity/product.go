package entity

import (
	"github.com/shopspring/decimal"
)

// Product is the downstream product representation derived from one
// ItemRecord.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"nome"`
	Description string          `json:"descricao"`
	Price       decimal.Decimal `json:"preco"`
	PromoPrice  decimal.Decimal `json:"preco_promocao"`
	Barcode     string          `json:"codigo_barras"`
	Stock       int             `json:"estoque"`
	Imported    bool            `json:"importado"`
	Active      bool            `json:"ativo"`
	Unit        string          `json:"unidade_medida"`
	Category    Category        `json:"categoria"`
	Image       string          `json:"imagem"`
}

// Category identifies a product category. Ids are derived, there is no
// backing category table.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
}
