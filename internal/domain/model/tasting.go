// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/terptaster/internal/domain/scoring"
)

// Tasting is a taster's submitted tasting, scored asynchronously for the
// palate leaderboard. Fields mirror the OpenAPI schema for /tastings.
type Tasting struct {
	SubmissionID     string    // unique id for idempotency
	TasterID         string    // who tasted
	Strain           string    // optional strain label, display only
	SelectedTerpenes []string  // terpenes the taster claims are present
	InhaleFlavors    []string  // flavors perceived on inhale
	ExhaleFlavors    []string  // flavors perceived on exhale
	TS               time.Time // tasting timestamp
}

// ScoringInput returns the part of the tasting the scorer reads.
func (t Tasting) ScoringInput() scoring.Input {
	return scoring.Input{
		SelectedTerpenes: t.SelectedTerpenes,
		InhaleFlavors:    t.InhaleFlavors,
		ExhaleFlavors:    t.ExhaleFlavors,
	}
}

// TasterScore captures a taster's best score used for ranking.
type TasterScore struct {
	TasterID   string
	Percentage int
}
