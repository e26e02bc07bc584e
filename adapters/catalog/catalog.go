// Package catalog holds the ordered keyword table behind fallback answers.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

// Entry binds a lowercase keyword to a fixed response.
type Entry struct {
	Keyword  string `yaml:"keyword"`
	Response string `yaml:"response"`
}

type file struct {
	Entries []Entry `yaml:"entries"`
	Default string  `yaml:"default"`
}

// Catalog is immutable once loaded.
type Catalog struct {
	entries []Entry
	def     string
}

var (
	ErrEmptyKeyword     = errors.New("catalog entry has an empty keyword")
	ErrUppercaseKeyword = errors.New("catalog keyword must be lowercase")
	ErrEmptyResponse    = errors.New("catalog entry has an empty response")
	ErrMissingDefault   = errors.New("catalog has no default response")
)

// Load parses a YAML catalog. Entry order in the document is lookup order.
func Load(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	for i, e := range f.Entries {
		switch {
		case e.Keyword == "":
			return nil, fmt.Errorf("entry %d: %w", i, ErrEmptyKeyword)
		case e.Keyword != strings.ToLower(e.Keyword):
			return nil, fmt.Errorf("entry %d (%q): %w", i, e.Keyword, ErrUppercaseKeyword)
		case strings.TrimSpace(e.Response) == "":
			return nil, fmt.Errorf("entry %d (%q): %w", i, e.Keyword, ErrEmptyResponse)
		}
	}
	if strings.TrimSpace(f.Default) == "" {
		return nil, ErrMissingDefault
	}

	return &Catalog{entries: f.Entries, def: f.Default}, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(embedded)
		if err != nil {
			panic(fmt.Errorf("loading embedded catalog: %w", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Lookup returns the response of the first entry whose keyword occurs in
// message, or the default response. message must already be lowercased.
func (c *Catalog) Lookup(message string) string {
	for _, e := range c.entries {
		if strings.Contains(message, e.Keyword) {
			return e.Response
		}
	}
	return c.def
}

// Response returns the response bound to keyword.
func (c *Catalog) Response(keyword string) (string, bool) {
	for _, e := range c.entries {
		if e.Keyword == keyword {
			return e.Response, true
		}
	}
	return "", false
}

func (c *Catalog) DefaultResponse() string {
	return c.def
}

// Entries returns a copy of the table in lookup order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}
