package tastingsim

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/terptaster/internal/domain/scoring"
	"github.com/okian/terptaster/internal/domain/terpene"
)

const (
	maxSelected     = 4
	maxFlavors      = 3
	accuratePercent = 60 // share of flavors drawn from the selected terpenes
)

var strains = []string{"Blue Dream", "OG Kush", "Sour Diesel", "Girl Scout Cookies", "Jack Herer", ""} //nolint:gochecknoglobals // constant lookup

// Generator produces tastings from the catalog and tracks the best score each
// taster should end up with.
type Generator struct {
	catalog *terpene.Catalog
	scorer  *scoring.Scorer
	rng     *rand.Rand
	names   []string
	flavors []string
}

// NewGenerator returns a generator over catalog. The same seed yields the
// same tastings apart from submission ids.
func NewGenerator(catalog *terpene.Catalog, seed uint64) *Generator {
	return &Generator{
		catalog: catalog,
		scorer:  scoring.New(catalog),
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), //nolint:gosec // simulation data
		names:   catalog.Names(),
		flavors: catalog.Flavors(),
	}
}

// Generate creates n tastings spread over tasters and returns them with the
// expected best percentage per taster.
func (g *Generator) Generate(n, tasters int) ([]Tasting, map[string]int) {
	if tasters < 1 {
		tasters = 1
	}
	out := make([]Tasting, n)
	best := make(map[string]int, tasters)
	now := time.Now().UTC()
	for i := range out {
		t := g.one(fmt.Sprintf("taster-%04d", g.rng.IntN(tasters)), now)
		out[i] = t

		card := g.scorer.ScoreTerpenes(scoring.Input{
			SelectedTerpenes: t.SelectedTerpenes,
			InhaleFlavors:    t.InhaleFlavors,
			ExhaleFlavors:    t.ExhaleFlavors,
		})
		if prev, ok := best[t.TasterID]; !ok || card.Percentage > prev {
			best[t.TasterID] = card.Percentage
		}
	}
	return out, best
}

func (g *Generator) one(tasterID string, now time.Time) Tasting {
	selected := g.pick(g.names, 1+g.rng.IntN(maxSelected))

	var pool []string
	for _, name := range selected {
		if t, ok := g.catalog.Lookup(name); ok {
			pool = append(pool, t.PossibleFlavors...)
		}
	}
	tasted := func() []string {
		k := g.rng.IntN(maxFlavors + 1)
		out := make([]string, 0, k)
		for range k {
			src := g.flavors
			if len(pool) > 0 && g.rng.IntN(100) < accuratePercent {
				src = pool
			}
			out = append(out, src[g.rng.IntN(len(src))])
		}
		return out
	}

	return Tasting{
		SubmissionID:     uuid.NewString(),
		TasterID:         tasterID,
		Strain:           strains[g.rng.IntN(len(strains))],
		SelectedTerpenes: selected,
		InhaleFlavors:    tasted(),
		ExhaleFlavors:    tasted(),
		TS:               now.Add(-time.Duration(g.rng.IntN(3600)) * time.Second).Format(time.RFC3339),
	}
}

// pick returns k distinct values from src in random order.
func (g *Generator) pick(src []string, k int) []string {
	k = min(k, len(src))
	out := make([]string, 0, k)
	for _, i := range g.rng.Perm(len(src))[:k] {
		out = append(out, src[i])
	}
	return out
}
