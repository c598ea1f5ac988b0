// Package terpene holds the static terpene dataset and the flavor index derived from it.
//
// A Catalog is built once at startup and never mutated afterwards, so a single
// instance can be shared by every request and worker without locking.
package terpene

import (
	"fmt"
	"sort"
	"strings"
)

// Terpene is one entry of the reference dataset.
type Terpene struct {
	Name            string   `json:"name"`
	PossibleFlavors []string `json:"possibleFlavors"`
	Effects         string   `json:"effects"`
	FunFact         string   `json:"funFact"`
	NotableStrains  string   `json:"notableStrains"`
}

// HasFlavor reports whether flavor is one of the terpene's possible flavors.
func (t Terpene) HasFlavor(flavor string) bool {
	for _, f := range t.PossibleFlavors {
		if f == flavor {
			return true
		}
	}
	return false
}

// Catalog is the read-only lookup table used by scoring and training.
type Catalog struct {
	terpenes []Terpene           // dataset order
	byName   map[string]int      // name -> index into terpenes
	index    map[string][]string // flavor -> terpene names, dataset order
	names    []string            // sorted
	flavors  []string            // sorted, distinct
}

// NewCatalog validates the dataset and derives the flavor index.
func NewCatalog(terpenes []Terpene) (*Catalog, error) {
	const op = "terpene.new_catalog"
	if len(terpenes) == 0 {
		return nil, fmt.Errorf("%s: %w: empty dataset", op, ErrInvalidCatalog)
	}

	c := &Catalog{
		terpenes: make([]Terpene, 0, len(terpenes)),
		byName:   make(map[string]int, len(terpenes)),
		index:    make(map[string][]string),
	}
	for _, t := range terpenes {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("%s: %w: terpene with empty name", op, ErrInvalidCatalog)
		}
		if _, dup := c.byName[name]; dup {
			return nil, fmt.Errorf("%s: %w: duplicate terpene %q", op, ErrInvalidCatalog, name)
		}
		if len(t.PossibleFlavors) == 0 {
			return nil, fmt.Errorf("%s: %w: terpene %q has no flavors", op, ErrInvalidCatalog, name)
		}

		entry := t
		entry.Name = name
		entry.PossibleFlavors = make([]string, 0, len(t.PossibleFlavors))
		seen := make(map[string]struct{}, len(t.PossibleFlavors))
		for _, f := range t.PossibleFlavors {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			entry.PossibleFlavors = append(entry.PossibleFlavors, f)
			c.index[f] = append(c.index[f], name)
		}

		c.byName[name] = len(c.terpenes)
		c.terpenes = append(c.terpenes, entry)
		c.names = append(c.names, name)
	}

	sort.Strings(c.names)
	c.flavors = make([]string, 0, len(c.index))
	for f := range c.index {
		c.flavors = append(c.flavors, f)
	}
	sort.Strings(c.flavors)

	return c, nil
}

// Lookup returns the terpene with the given name.
func (c *Catalog) Lookup(name string) (Terpene, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Terpene{}, false
	}
	return clone(c.terpenes[i]), true
}

// Position returns the dataset position of a terpene, or -1 when unknown.
func (c *Catalog) Position(name string) int {
	i, ok := c.byName[name]
	if !ok {
		return -1
	}
	return i
}

// Terpenes returns the dataset in its original order.
func (c *Catalog) Terpenes() []Terpene {
	out := make([]Terpene, len(c.terpenes))
	for i, t := range c.terpenes {
		out[i] = clone(t)
	}
	return out
}

// Len returns the number of terpenes in the dataset.
func (c *Catalog) Len() int { return len(c.terpenes) }

// Names returns the terpene names sorted alphabetically.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Flavors returns every distinct flavor in the dataset, sorted.
func (c *Catalog) Flavors() []string {
	return append([]string(nil), c.flavors...)
}

// TerpenesForFlavor returns the terpenes listing flavor, in dataset order.
func (c *Catalog) TerpenesForFlavor(flavor string) []string {
	return append([]string(nil), c.index[flavor]...)
}

// ExpectedFlavors returns the union of possible flavors for the known
// terpenes in selected, in selection order. Unknown names are skipped.
func (c *Catalog) ExpectedFlavors(selected []string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, name := range selected {
		i, ok := c.byName[name]
		if !ok {
			continue
		}
		for _, f := range c.terpenes[i].PossibleFlavors {
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

func clone(t Terpene) Terpene {
	t.PossibleFlavors = append([]string(nil), t.PossibleFlavors...)
	return t
}
