// Package language maps language codes to display names.
package language

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Auto is the pseudo-code asking the translator to detect the source language.
const Auto = "auto"

// Language is a catalog entry.
type Language struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

// Catalog is an immutable code to display-name table. Safe for concurrent use.
type Catalog struct {
	names  map[string]string
	sorted []Language
}

// fileFormat is the on-disk override format.
type fileFormat struct {
	Replace   bool              `yaml:"replace"`
	Languages map[string]string `yaml:"languages"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(defaultLanguages)
}

// New builds a catalog from a code to name map. Codes are normalized.
func New(names map[string]string) *Catalog {
	c := &Catalog{names: make(map[string]string, len(names))}
	for code, name := range names {
		code = Normalize(code)
		if code == "" || name == "" {
			continue
		}
		c.names[code] = name
	}

	c.sorted = make([]Language, 0, len(c.names))
	for code, name := range c.names {
		c.sorted = append(c.sorted, Language{Code: code, Name: name})
	}
	slices.SortFunc(c.sorted, func(a, b Language) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Code, b.Code))
	})
	return c
}

// Load reads a YAML override file and merges it over the built-in table.
// With `replace: true` the file's entries are the whole catalog. An empty
// path returns the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read language catalog %q: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML override content.
func Parse(data []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse language catalog: %w", err)
	}
	if f.Replace && len(f.Languages) == 0 {
		return nil, fmt.Errorf("language catalog: replace requested with no languages")
	}

	merged := make(map[string]string, len(defaultLanguages)+len(f.Languages))
	if !f.Replace {
		for code, name := range defaultLanguages {
			merged[code] = name
		}
	}
	for code, name := range f.Languages {
		merged[Normalize(code)] = name
	}
	return New(merged), nil
}

// Name returns the display name for code. Unknown Chinese variants resolve
// to a labelled Chinese name; any other unknown code yields "Unknown (<code>)".
func (c *Catalog) Name(code string) string {
	code = Normalize(code)
	if name, ok := c.names[code]; ok {
		return name
	}
	switch code {
	case "zh-cn", "zh-tw":
		return "Chinese (" + code + ")"
	}
	return "Unknown (" + code + ")"
}

// Has reports whether code is in the catalog.
func (c *Catalog) Has(code string) bool {
	_, ok := c.names[Normalize(code)]
	return ok
}

// Sorted returns the entries ordered by display name. The slice is a copy.
func (c *Catalog) Sorted() []Language {
	return slices.Clone(c.sorted)
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.names)
}

// Normalize trims and lower-cases a language code.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Base reduces a code to its primary subtag: "en-US" and "pt_BR" become
// "en" and "pt".
func Base(code string) string {
	code = Normalize(code)
	if i := strings.IndexAny(code, "-_"); i > 0 {
		return code[:i]
	}
	return code
}
