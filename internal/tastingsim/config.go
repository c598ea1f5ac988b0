// Package tastingsim drives a running TerpTaster service with generated
// tastings and checks the resulting leaderboard against locally computed
// scores.
package tastingsim

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumTastings int           // Number of tastings to generate
	NumTasters  int           // Number of distinct tasters sharing them
	TopN        int           // Number of leaderboard entries to fetch
	Workers     int           // Number of concurrent HTTP workers
	Timeout     time.Duration // HTTP request timeout
	SettleWait  time.Duration // Upper bound on waiting for the pipeline to drain
	Seed        uint64        // Seed for reproducible tastings; zero picks one
	OutputFile  string        // Optional JSON dump of generated tastings
	Verbose     bool          // Enable debug logging
}

// Tasting is the POST /tastings payload.
type Tasting struct {
	SubmissionID     string   `json:"submissionId"`
	TasterID         string   `json:"tasterId"`
	Strain           string   `json:"strain,omitempty"`
	SelectedTerpenes []string `json:"selectedTerpenes"`
	InhaleFlavors    []string `json:"inhaleFlavors"`
	ExhaleFlavors    []string `json:"exhaleFlavors"`
	TS               string   `json:"ts"`
}

// Entry is a leaderboard entry as served by the API.
type Entry struct {
	Rank         int    `json:"rank"`
	TasterID     string `json:"tasterId"`
	Percentage   int    `json:"percentage"`
	Grade        string `json:"grade"`
	SubmissionID string `json:"submissionId,omitempty"`
	Strain       string `json:"strain,omitempty"`
}

// AckResponse is the body of POST /tastings.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	TastingsGenerated  int
	TastingsSubmitted  int
	TastingsAccepted   int
	TastingsDuplicate  int
	TastingsFailed     int
	Retries            int
	RankingsRetrieved  int
	RankMismatches     int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
