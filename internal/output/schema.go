package output

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// productsSchema pins the wire shape the downstream system accepts. Checked
// against each products artifact as a diagnostic; the orchestrator does not
// gate on it.
const productsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["produtos"],
  "properties": {
    "produtos": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "nome", "preco", "categoria"],
        "properties": {
          "id": {"type": "integer", "minimum": 0},
          "nome": {"type": "string", "minLength": 1, "maxLength": 50},
          "descricao": {"type": "string", "maxLength": 100},
          "preco": {"type": ["number", "string"]},
          "preco_promocao": {"type": ["number", "string"]},
          "codigo_barras": {"type": "string"},
          "estoque": {"type": "integer"},
          "importado": {"type": "boolean"},
          "ativo": {"type": "boolean"},
          "unidade_medida": {"type": "string"},
          "imagem": {"type": "string"},
          "categoria": {
            "type": "object",
            "required": ["id", "nome"],
            "properties": {
              "id": {"type": "integer", "minimum": 1},
              "nome": {"type": "string", "minLength": 1}
            }
          }
        }
      }
    }
  }
}`

var compiledProductsSchema = jsonschema.MustCompileString("produtos.json", productsSchema)

// ValidateProductsDocument checks raw artifact bytes against the products
// schema.
func ValidateProductsDocument(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode products document: %w", err)
	}
	if err := compiledProductsSchema.Validate(doc); err != nil {
		return fmt.Errorf("products document schema: %w", err)
	}
	return nil
}
