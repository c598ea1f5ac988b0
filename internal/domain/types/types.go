// Package types contains common types used across the application
package types

// Entry represents a palate leaderboard entry
type Entry struct {
	Rank         int    `json:"rank"`
	TasterID     string `json:"tasterId"`
	Percentage   int    `json:"percentage"`
	Grade        string `json:"grade"`
	SubmissionID string `json:"submissionId,omitempty"`
	Strain       string `json:"strain,omitempty"`
}
