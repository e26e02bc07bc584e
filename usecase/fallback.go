package usecase

import (
	"strings"

	"github.com/satriahrh/shg-assistant/adapters/catalog"
)

// FallbackResponder answers from the local catalog when live generation
// is unavailable or disabled.
type FallbackResponder struct {
	catalog *catalog.Catalog
}

func NewFallbackResponder(c *catalog.Catalog) *FallbackResponder {
	if c == nil {
		c = catalog.Default()
	}
	return &FallbackResponder{catalog: c}
}

// Fallback is total and pure: the same message always yields the same answer.
func (f *FallbackResponder) Fallback(message string) string {
	return f.catalog.Lookup(strings.ToLower(message))
}
