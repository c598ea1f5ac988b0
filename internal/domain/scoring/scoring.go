// Package scoring grades how well perceived flavors corroborate claimed terpenes.
//
// Two formulas are provided and they are intentionally not unified:
//
//   - ScoreTerpenes divides by the number of selected terpenes. A terpene counts
//     when at least one tasted flavor is among its possible flavors.
//   - ScorePalate divides by the number of distinct tasted flavors. A flavor
//     counts when any terpene associated with it is selected.
//
// Both are pure functions of their input and the read-only catalog.
package scoring

import (
	"sort"
	"strings"

	"github.com/okian/terptaster/internal/domain/terpene"
)

// Grade thresholds, inclusive, applied to the rounded percentage.
const (
	thresholdA = 90
	thresholdB = 80
	thresholdC = 70
	thresholdD = 60

	maxPercentage = 100
)

// Grade is a letter grade derived from a percentage.
type Grade string

// Letter grades.
const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Input is the selection and tasted flavors being scored.
type Input struct {
	SelectedTerpenes []string
	InhaleFlavors    []string
	ExhaleFlavors    []string
}

// ScoreCard is the result of the per-terpene formula.
type ScoreCard struct {
	Percentage           int      `json:"percentage"`
	Grade                Grade    `json:"grade"`
	CorrectMatches       int      `json:"correctMatches"`
	TotalPossibleMatches int      `json:"totalPossibleMatches"`
	MatchedTerpenes      []string `json:"matchedTerpenes"`
}

// PalateCard is the result of the per-flavor formula.
type PalateCard struct {
	Percentage            int      `json:"percentage"`
	Grade                 Grade    `json:"grade"`
	CorrectCount          int      `json:"correctCount"`
	TotalFlavors          int      `json:"totalFlavors"`
	TotalPossibleTerpenes int      `json:"totalPossibleTerpenes"`
	MatchedFlavors        []string `json:"matchedFlavors"`
	UnmatchedFlavors      []string `json:"unmatchedFlavors"`
}

// Scorer evaluates inputs against a catalog.
type Scorer struct {
	catalog *terpene.Catalog
}

// New returns a Scorer bound to catalog.
func New(catalog *terpene.Catalog) *Scorer {
	return &Scorer{catalog: catalog}
}

// Catalog returns the catalog the scorer reads from.
func (s *Scorer) Catalog() *terpene.Catalog { return s.catalog }

// ScoreTerpenes applies the per-terpene formula.
//
// A selected name missing from the catalog still counts toward
// TotalPossibleMatches and can never match.
func (s *Scorer) ScoreTerpenes(in Input) ScoreCard {
	tasted := union(in.InhaleFlavors, in.ExhaleFlavors)
	selected := distinct(in.SelectedTerpenes)

	card := ScoreCard{
		TotalPossibleMatches: len(selected),
		MatchedTerpenes:      []string{},
	}

	for _, name := range selected {
		t, ok := s.catalog.Lookup(name)
		if !ok {
			continue
		}
		for _, f := range tasted {
			if t.HasFlavor(f) {
				card.MatchedTerpenes = append(card.MatchedTerpenes, name)
				break
			}
		}
	}

	// Dataset order keeps the output stable for any input order.
	sort.Slice(card.MatchedTerpenes, func(i, j int) bool {
		return s.catalog.Position(card.MatchedTerpenes[i]) < s.catalog.Position(card.MatchedTerpenes[j])
	})
	card.CorrectMatches = len(card.MatchedTerpenes)
	card.Percentage = Percentage(card.CorrectMatches, card.TotalPossibleMatches)
	card.Grade = GradeFor(card.Percentage)
	return card
}

// ScorePalate applies the per-flavor formula.
func (s *Scorer) ScorePalate(in Input) PalateCard {
	tasted := union(in.InhaleFlavors, in.ExhaleFlavors)
	selected := toSet(distinct(in.SelectedTerpenes))

	card := PalateCard{
		TotalFlavors:          len(tasted),
		TotalPossibleTerpenes: len(selected),
		MatchedFlavors:        []string{},
		UnmatchedFlavors:      []string{},
	}

	for _, flavor := range tasted {
		hit := false
		for _, name := range s.catalog.TerpenesForFlavor(flavor) {
			if _, ok := selected[name]; ok {
				hit = true
				break
			}
		}
		if hit {
			card.MatchedFlavors = append(card.MatchedFlavors, flavor)
		} else {
			card.UnmatchedFlavors = append(card.UnmatchedFlavors, flavor)
		}
	}
	card.CorrectCount = len(card.MatchedFlavors)
	card.Percentage = Percentage(card.CorrectCount, card.TotalFlavors)
	card.Grade = GradeFor(card.Percentage)
	return card
}

// Percentage returns round(correct/total*100) with halves rounded up, or 0
// when total is not positive. The result is clamped to [0, 100].
func Percentage(correct, total int) int {
	if total <= 0 || correct <= 0 {
		return 0
	}
	if correct >= total {
		return maxPercentage
	}
	// (200c + t) / 2t == floor(100c/t + 1/2) for non-negative integers.
	return (2*maxPercentage*correct + total) / (2 * total)
}

// GradeFor maps a rounded percentage to a letter grade.
func GradeFor(percentage int) Grade {
	switch {
	case percentage >= thresholdA:
		return GradeA
	case percentage >= thresholdB:
		return GradeB
	case percentage >= thresholdC:
		return GradeC
	case percentage >= thresholdD:
		return GradeD
	default:
		return GradeF
	}
}

// FeedbackFor returns the short encouragement shown next to a score.
func FeedbackFor(percentage int) string {
	switch GradeFor(percentage) {
	case GradeA:
		return "Outstanding palate!"
	case GradeB:
		return "Great tasting skills!"
	case GradeC:
		return "Good effort!"
	case GradeD:
		return "Keep practicing!"
	default:
		return "Time to train your palate!"
	}
}

// union merges flavor lists, dropping blanks and duplicates while keeping
// first-seen order.
func union(lists ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, l := range lists {
		for _, v := range l {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func distinct(values []string) []string { return union(values) }

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
