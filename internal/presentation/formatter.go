package presentation

import (
	"encoding/json"
	"io"

	"github.com/veriforge/veriforge/internal/engine"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatCatalog formats the catalog as JSON
func (f *Formatter) FormatCatalog(c CatalogDTO) error {
	return f.encode(c)
}

// FormatResult formats a generation result as JSON
func (f *Formatter) FormatResult(res *engine.GenerationResult) error {
	return f.encode(res)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
