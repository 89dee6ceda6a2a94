// ABOUTME: Reliability report produced once per batch evaluation
// ABOUTME: Holds summary statistics, reliability/stability scores and pass/fail status
package models

// Status is the pass/fail classification of an evaluation
type Status string

const (
	StatusPass  Status = "PASS"
	StatusFail  Status = "FAIL"
	StatusError Status = "ERROR"
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusPass, StatusFail, StatusError:
		return true
	default:
		return false
	}
}

// ReliabilityReport summarises the pairwise similarity scores of one batch
type ReliabilityReport struct {
	Average          float64 `json:"average"`
	Min              float64 `json:"min"`
	Max              float64 `json:"max"`
	StdDev           float64 `json:"std_dev"`
	ReliabilityScore float64 `json:"reliability_score"`
	StabilityScore   float64 `json:"stability_score"`
	Status           Status  `json:"status"`
	Threshold        float64 `json:"threshold"`
	Comparisons      int     `json:"comparisons"`
	Outliers         []int   `json:"outliers"`
}

// Passed reports whether the reliability gate was met
func (r ReliabilityReport) Passed() bool {
	return r.Status == StatusPass
}
