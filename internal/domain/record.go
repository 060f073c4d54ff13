package domain

import "time"

// AnalysisRecord is the persisted outcome of a completed job.
// Records are append-only during normal operation.
type AnalysisRecord struct {
	AnalysisID string    `json:"analysisId"`
	ImageID    string    `json:"imageId"`
	UserID     string    `json:"userId,omitempty"`
	Detection  Detection `json:"detection"`

	// ProcessingTime is the observed analysis latency in seconds.
	ProcessingTime float64 `json:"processingTime"`

	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
}

// RecentScan is the summary shape served to clients listing history.
type RecentScan struct {
	ID         string   `json:"id"`
	ImageURL   string   `json:"imageUrl"`
	Disease    string   `json:"disease"`
	Location   string   `json:"location"`
	Date       string   `json:"date"`
	Confidence int      `json:"confidence"`
	Severity   Severity `json:"severity"`
}

// OTPCode is one pending verification code, keyed by the email address
// or phone number it was sent to.
type OTPCode struct {
	UserID    string    `json:"userId"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}
