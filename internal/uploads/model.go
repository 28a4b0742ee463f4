package uploads

import (
	"encoding/json"
	"time"
)

// Status is the review lifecycle state of an upload.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusProcessing, StatusCompleted, StatusFailed}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Upload is a user-submitted sustainability report awaiting or past review.
type Upload struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"userId"`
	CompanyName        string          `json:"companyName"`
	ReportYear         int             `json:"reportYear"`
	FileName           string          `json:"fileName"`
	FilePath           string          `json:"filePath"`
	Status             Status          `json:"status"`
	ErrorMessage       *string         `json:"errorMessage"`
	AnalysisResults    json.RawMessage `json:"analysisResults,omitempty"`
	ProcessingProgress int             `json:"processingProgress"`
	Version            int64           `json:"version"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	AnalyzedAt         *time.Time      `json:"analyzedAt,omitempty"`
}

// Filter narrows admin listings. Search matches file name, company name or
// uploader id, case-insensitively.
type Filter struct {
	Search string
	UserID string
	Status Status
}

// Stats is the per-status breakdown shown on the admin dashboard.
type Stats struct {
	Total     int            `json:"total"`
	ByStatus  map[Status]int `json:"byStatus"`
	Companies int            `json:"companies"`
}
