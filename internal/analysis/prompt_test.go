package analysis

import (
	"strings"
	"testing"

	"greenintellect-backend/internal/companies"
)

func TestCompanyPromptIncludesScoresAndRisk(t *testing.T) {
	p := CompanyPrompt(companies.Company{
		Name: "Acme", Industry: "Mining", ReportYear: 2023,
		OverallScore: 38, FocusScore: 41, EnvironmentScore: 22, ClaimsScore: 30, ActionsScore: 55,
		NetActionDirection: "negative",
	})
	for _, want := range []string{
		"greenwashing analysis for Acme, a company in the Mining industry",
		"- Report Year: 2023",
		"- Overall Greenwashing Score: 38/100",
		"- Environment Score: 22/100",
		"Classify this as HIGH greenwashing risk",
		"Based on the negative net action direction",
		"unique sustainability challenges in Mining?",
	} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestReportPromptMarksExcerpt(t *testing.T) {
	p := ReportPrompt("Acme", 2024, "We reduced emissions.", true)
	if !strings.Contains(p, "2024 sustainability report published by Acme") || !strings.Contains(p, "(excerpt)") {
		t.Fatalf("unexpected prompt:\n%s", p)
	}
	if strings.Contains(ReportPrompt("Acme", 2024, "x", false), "(excerpt)") {
		t.Fatalf("full text must not be marked as excerpt")
	}
}
