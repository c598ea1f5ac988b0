// Package training implements the terpene flavor guessing game.
//
// A Game owns the profile deck and a random source. A Session tracks one
// player's progress through rounds and is not safe for concurrent use; the
// session store serializes access.
package training

import (
	"math/rand"
	"sync"

	"github.com/okian/terptaster/internal/domain/terpene"
)

const (
	// OptionCount is the number of choices offered in multiple-choice rounds.
	OptionCount = 4
	// MaxHints is the number of hints available per round.
	MaxHints = 3
	// MaxStrikes ends the game.
	MaxStrikes = 3
)

// Difficulty selects how a round is played.
type Difficulty string

// Supported difficulties.
const (
	JustLearning   Difficulty = "just_learning"
	MultipleChoice Difficulty = "multiple_choice"
	Expert         Difficulty = "expert"
)

// Valid reports whether d is a supported difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case JustLearning, MultipleChoice, Expert:
		return true
	}
	return false
}

// Profile pairs a terpene with one of its possible flavors.
type Profile struct {
	Terpene        string `json:"terpene"`
	Flavor         string `json:"flavor"`
	Effects        string `json:"effects"`
	FunFact        string `json:"funFact"`
	NotableStrains string `json:"notableStrains"`
}

// Game deals profiles from a catalog.
type Game struct {
	profiles []Profile

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGame expands every (terpene, flavor) pair of the catalog into a profile.
// rng must not be shared with other goroutines; Game guards it internally.
func NewGame(catalog *terpene.Catalog, rng *rand.Rand) *Game {
	g := &Game{rng: rng}
	for _, t := range catalog.Terpenes() {
		for _, f := range t.PossibleFlavors {
			g.profiles = append(g.profiles, Profile{
				Terpene:        t.Name,
				Flavor:         f,
				Effects:        t.Effects,
				FunFact:        t.FunFact,
				NotableStrains: t.NotableStrains,
			})
		}
	}
	return g
}

// Profiles returns the full deck in dataset order.
func (g *Game) Profiles() []Profile {
	return append([]Profile(nil), g.profiles...)
}

// RandomProfile draws a profile uniformly.
func (g *Game) RandomProfile() Profile {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.profiles[g.rng.Intn(len(g.profiles))]
}

// Options returns correct plus up to OptionCount-1 other profiles, shuffled.
// Players only see flavor labels, so no two options share a flavor.
func (g *Game) Options(correct Profile) []Profile {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := []Profile{correct}
	used := map[string]struct{}{correct.Flavor: {}}
	// Draw from a shuffled permutation so the loop always terminates.
	for _, i := range g.rng.Perm(len(g.profiles)) {
		if len(out) >= OptionCount {
			break
		}
		p := g.profiles[i]
		if _, dup := used[p.Flavor]; dup {
			continue
		}
		used[p.Flavor] = struct{}{}
		out = append(out, p)
	}
	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
