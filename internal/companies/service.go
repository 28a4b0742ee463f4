package companies

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Input is the writable part of a Company.
type Input struct {
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
}

// Service coordinates company reads and admin edits.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// List returns companies matching the filter, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Company, error) {
	return s.Repo.List(ctx, f)
}

// Get returns one company.
func (s *Service) Get(ctx context.Context, id string) (Company, error) {
	if strings.TrimSpace(id) == "" {
		return Company{}, ErrNotFound
	}
	return s.Repo.Get(ctx, id)
}

// Create validates and stores a new company.
func (s *Service) Create(ctx context.Context, in Input) (Company, error) {
	if err := validate(&in); err != nil {
		return Company{}, err
	}
	now := s.now()
	c := fromInput(in)
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.Repo.Create(ctx, c); err != nil {
		return Company{}, err
	}
	return c, nil
}

// Update validates and replaces a company's fields.
func (s *Service) Update(ctx context.Context, id string, in Input) (Company, error) {
	if err := validate(&in); err != nil {
		return Company{}, err
	}
	existing, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Company{}, err
	}
	c := fromInput(in)
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, c); err != nil {
		return Company{}, err
	}
	return c, nil
}

// Delete removes a company.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}

// Count returns the number of companies.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.Repo.Count(ctx)
}

func fromInput(in Input) Company {
	return Company{
		Name:               in.Name,
		Industry:           in.Industry,
		Headquarters:       in.Headquarters,
		ReportYear:         in.ReportYear,
		ReportType:         in.ReportType,
		PagesAnalyzed:      in.PagesAnalyzed,
		OverallScore:       in.OverallScore,
		FocusScore:         in.FocusScore,
		EnvironmentScore:   in.EnvironmentScore,
		ClaimsScore:        in.ClaimsScore,
		ActionsScore:       in.ActionsScore,
		NetActionDirection: in.NetActionDirection,
		KeyFindings:        in.KeyFindings,
	}
}

func validate(in *Input) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Industry = strings.TrimSpace(in.Industry)
	in.Headquarters = strings.TrimSpace(in.Headquarters)
	in.ReportType = strings.TrimSpace(in.ReportType)
	in.NetActionDirection = strings.ToLower(strings.TrimSpace(in.NetActionDirection))

	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.ReportYear < 1900 || in.ReportYear > 2100 {
		return fmt.Errorf("%w: reportYear out of range", ErrInvalidInput)
	}
	if in.PagesAnalyzed < 0 {
		return fmt.Errorf("%w: pagesAnalyzed must not be negative", ErrInvalidInput)
	}
	scores := map[string]int{
		"overallScore":     in.OverallScore,
		"focusScore":       in.FocusScore,
		"environmentScore": in.EnvironmentScore,
		"claimsScore":      in.ClaimsScore,
		"actionsScore":     in.ActionsScore,
	}
	for field, v := range scores {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: %s must be between 0 and 100", ErrInvalidInput, field)
		}
	}
	switch in.NetActionDirection {
	case "":
		in.NetActionDirection = DirectionNeutral
	case DirectionPositive, DirectionNegative, DirectionNeutral:
	default:
		return fmt.Errorf("%w: netActionDirection must be positive, negative or neutral", ErrInvalidInput)
	}
	return nil
}
