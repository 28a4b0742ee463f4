package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"greenintellect-backend/internal/analysis"
	"greenintellect-backend/internal/extract"
	"greenintellect-backend/internal/llm"
	"greenintellect-backend/internal/queue"
	"greenintellect-backend/internal/shared/metrics"
	"greenintellect-backend/internal/shared/telemetry"
	"greenintellect-backend/internal/uploads"
)

const maxFailureDetail = 300

// Results is stored on a completed upload.
type Results struct {
	AnalysisText string    `json:"analysisText"`
	Model        string    `json:"model"`
	ExcerptChars int       `json:"excerptChars"`
	Pages        int       `json:"pages"`
	Truncated    bool      `json:"truncated"`
	GeneratedAt  time.Time `json:"generatedAt"`
}

// Processor analyzes approved uploads.
type Processor struct {
	Uploads  *uploads.Service
	LLM      llm.Client
	Model    string
	MaxChars int
	Now      func() time.Time
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

// Process runs one upload through extraction and the LLM. Uploads that are
// not approved are skipped without error so redelivered messages are harmless.
func (p *Processor) Process(ctx context.Context, uploadID string) error {
	fields := map[string]any{
		"upload_id":  uploadID,
		"request_id": queue.RequestIDFromContext(ctx),
	}
	u, err := p.Uploads.Get(ctx, uploadID)
	if errors.Is(err, uploads.ErrNotFound) {
		telemetry.Warn("pipeline.skipped", withField(fields, "reason", "not_found"))
		return nil
	}
	if err != nil {
		return err
	}
	if u.Status != uploads.StatusApproved {
		telemetry.Info("pipeline.skipped", withField(fields, "reason", "status_"+string(u.Status)))
		return nil
	}

	processing, err := p.Uploads.TransitionFrom(ctx, u, uploads.MarkProcessing())
	if errors.Is(err, uploads.ErrConflict) {
		telemetry.Info("pipeline.skipped", withField(fields, "reason", "claimed_elsewhere"))
		return nil
	}
	if err != nil {
		return err
	}
	telemetry.Info("pipeline.started", fields)

	results, runErr := p.run(ctx, processing)
	if runErr != nil {
		metrics.IncUploadAnalysisFailed()
		_, err := p.Uploads.TransitionFrom(ctx, processing, uploads.MarkFailed(failureDetail(runErr)))
		telemetry.Error("pipeline.failed", withField(fields, "error", runErr.Error()))
		return err
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return err
	}
	if _, err := p.Uploads.TransitionFrom(ctx, processing, uploads.MarkCompleted(payload)); err != nil {
		return err
	}
	metrics.IncUploadAnalysisCompleted()
	telemetry.Info("pipeline.completed", withField(fields, "excerpt_chars", results.ExcerptChars))
	return nil
}

func (p *Processor) run(ctx context.Context, u uploads.Upload) (Results, error) {
	text, err := extract.FromStore(ctx, p.Uploads.Store, u.FilePath, p.MaxChars)
	if err != nil {
		return Results{}, err
	}
	prompt := analysis.ReportPrompt(u.CompanyName, u.ReportYear, text.Text, text.Truncated)
	out, err := p.LLM.Complete(ctx, prompt)
	if err != nil {
		return Results{}, err
	}
	return Results{
		AnalysisText: out,
		Model:        p.Model,
		ExcerptChars: text.Chars,
		Pages:        text.Pages,
		Truncated:    text.Truncated,
		GeneratedAt:  p.now(),
	}, nil
}

// failureDetail is what users see on a failed upload. Provider messages are
// already user-facing; anything else is replaced by a generic category.
func failureDetail(err error) string {
	var lerr *llm.Error
	switch {
	case errors.As(err, &lerr) && lerr.Message != "":
		return truncate(lerr.Message)
	case errors.Is(err, extract.ErrNoText):
		return "The PDF has no extractable text. Scanned reports are not supported."
	case errors.Is(err, context.DeadlineExceeded):
		return "Analysis timed out."
	case strings.Contains(err.Error(), "parse pdf"):
		return "The PDF could not be read."
	default:
		return "Analysis failed."
	}
}

func truncate(s string) string {
	if len(s) <= maxFailureDetail {
		return s
	}
	return s[:maxFailureDetail]
}

func withField(fields map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[key] = value
	return out
}

var _ queue.Processor = (*Processor)(nil)
