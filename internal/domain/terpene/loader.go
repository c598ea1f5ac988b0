package terpene

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// defaultDataset is the terpene reference data shipped with the binary.
//
//go:embed terpenes.json
var defaultDataset []byte

type dataset struct {
	Terpenes []Terpene `json:"terpenes"`
}

// LoadCatalog builds a Catalog from the dataset at path, or from the embedded
// dataset when path is empty.
func LoadCatalog(_ context.Context, path string) (*Catalog, error) {
	const op = "terpene.load_catalog"

	raw := defaultDataset
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrLoadCatalog, err)
		}
		raw = b
	}
	return Parse(raw)
}

// Parse decodes a JSON dataset of the form {"terpenes": [...]}.
func Parse(raw []byte) (*Catalog, error) {
	const op = "terpene.parse"

	var ds dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrLoadCatalog, err)
	}
	return NewCatalog(ds.Terpenes)
}

// Default returns the catalog built from the embedded dataset. It panics if the
// embedded data is invalid, which would be a build defect.
func Default() *Catalog {
	c, err := Parse(defaultDataset)
	if err != nil {
		panic(err)
	}
	return c
}
