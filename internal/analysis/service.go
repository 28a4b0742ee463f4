package analysis

import (
	"context"
	"strings"
	"time"

	"greenintellect-backend/internal/companies"
	"greenintellect-backend/internal/llm"
	"greenintellect-backend/internal/shared/telemetry"
)

// Service forwards prompts to the LLM provider.
type Service struct {
	LLM       llm.Client
	Companies *companies.Service
	limiter   *intervalLimiter
}

// NewService constructs a Service. minInterval bounds how often one user may
// request an analysis of the same company.
func NewService(client llm.Client, companySvc *companies.Service, minInterval time.Duration, now func() time.Time) *Service {
	if client == nil {
		client = llm.PlaceholderClient{}
	}
	return &Service{
		LLM:       client,
		Companies: companySvc,
		limiter:   newIntervalLimiter(minInterval, now),
	}
}

// Generate returns the provider's analysis for a free-form prompt.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrPromptRequired
	}
	return s.LLM.Complete(ctx, prompt)
}

// CompanyAnalysis is the result of analyzing a stored company.
type CompanyAnalysis struct {
	Analysis  string            `json:"analysis"`
	Company   companies.Company `json:"company"`
	RiskLevel string            `json:"riskLevel"`
}

// AnalyzeCompany builds the scored-company prompt and runs it.
func (s *Service) AnalyzeCompany(ctx context.Context, userID, companyID string) (CompanyAnalysis, error) {
	company, err := s.Companies.Get(ctx, companyID)
	if err != nil {
		return CompanyAnalysis{}, err
	}
	if ok, wait := s.limiter.Allow(userID, companyID); !ok {
		return CompanyAnalysis{}, &TooSoonError{RetryAfter: wait}
	}

	text, err := s.Generate(ctx, CompanyPrompt(company))
	if err != nil {
		telemetry.Warn("analysis.company.failed", map[string]any{
			"company_id": companyID,
			"user_id":    userID,
			"kind":       string(llm.KindOf(err)),
		})
		return CompanyAnalysis{}, err
	}
	return CompanyAnalysis{
		Analysis:  text,
		Company:   company,
		RiskLevel: companies.RiskLevel(company.OverallScore),
	}, nil
}
