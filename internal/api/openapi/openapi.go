// Пакет openapi — встроенный OpenAPI документ Storage Service.
package openapi

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var document []byte

// Load разбирает и валидирует встроенный документ.
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("разбор OpenAPI документа: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("валидация OpenAPI документа: %w", err)
	}
	return doc, nil
}
