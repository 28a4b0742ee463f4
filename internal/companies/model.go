package companies

import (
	"strings"
	"time"
)

// Net action directions.
const (
	DirectionPositive = "positive"
	DirectionNegative = "negative"
	DirectionNeutral  = "neutral"
)

// Risk bands derived from the overall score.
const (
	RiskLow      = "LOW"
	RiskModerate = "MODERATE"
	RiskHigh     = "HIGH"
)

// KeyFinding is one highlighted observation from a report.
type KeyFinding struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Company is an analyzed company with its greenwashing scores.
type Company struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Industry           string       `json:"industry"`
	Headquarters       string       `json:"headquarters"`
	ReportYear         int          `json:"reportYear"`
	ReportType         string       `json:"reportType"`
	PagesAnalyzed      int          `json:"pagesAnalyzed"`
	OverallScore       int          `json:"overallScore"`
	FocusScore         int          `json:"focusScore"`
	EnvironmentScore   int          `json:"environmentScore"`
	ClaimsScore        int          `json:"claimsScore"`
	ActionsScore       int          `json:"actionsScore"`
	NetActionDirection string       `json:"netActionDirection"`
	KeyFindings        []KeyFinding `json:"keyFindings"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// RiskLevel classifies an overall score: LOW at 70 and above, MODERATE at 40
// and above, HIGH otherwise.
func RiskLevel(overall int) string {
	switch {
	case overall >= 70:
		return RiskLow
	case overall >= 40:
		return RiskModerate
	default:
		return RiskHigh
	}
}

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	Search   string
	Industry string
}

// Matches reports whether c passes the filter.
func (f Filter) Matches(c Company) bool {
	if f.Industry != "" && !strings.EqualFold(c.Industry, f.Industry) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), q) ||
		strings.Contains(strings.ToLower(c.Industry), q) ||
		strings.Contains(strings.ToLower(c.Headquarters), q)
}
