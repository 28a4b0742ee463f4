package main

// Run the report analysis prompt against a local PDF:
//   go run ./cmd/prompttest -pdf report.pdf -company "Acme" -year 2024 [-dry-run]

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"greenintellect-backend/internal/analysis"
	"greenintellect-backend/internal/extract"
	"greenintellect-backend/internal/llm/groq"
	"greenintellect-backend/internal/pipeline"
	"greenintellect-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	pdfPath := flag.String("pdf", "", "Path to a sustainability report PDF")
	company := flag.String("company", "", "Company name")
	year := flag.Int("year", time.Now().Year(), "Report year")
	maxChars := flag.Int("max-chars", extract.DefaultMaxChars, "Excerpt size sent to the model")
	outPath := flag.String("out", "", "Path to write JSON output (optional)")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	dryRun := flag.Bool("dry-run", false, "Print the prompt without calling the model")
	flag.Parse()

	if strings.TrimSpace(*pdfPath) == "" || strings.TrimSpace(*company) == "" {
		exitErr("-pdf and -company are required")
	}

	data, err := os.ReadFile(*pdfPath)
	if err != nil {
		exitErr(fmt.Sprintf("read pdf: %v", err))
	}

	ctx := context.Background()
	res, err := extract.PDF(ctx, data, *maxChars)
	if err != nil {
		exitErr(fmt.Sprintf("extract pdf text: %v", err))
	}
	prompt := analysis.ReportPrompt(*company, *year, res.Text, res.Truncated)

	if *dryRun {
		fmt.Println(prompt)
		return
	}

	client, err := groq.NewClient(groq.Config{
		APIKey:      cfg.LLMAPIKey,
		Model:       *model,
		BaseURL:     cfg.LLMBaseURL,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
		MaxRetries:  cfg.LLMMaxRetries,
		Timeout:     cfg.LLMTimeout,
	})
	if err != nil {
		exitErr(err.Error())
	}

	text, err := client.Complete(ctx, prompt)
	if err != nil {
		exitErr(fmt.Sprintf("llm complete: %v", err))
	}

	out, err := json.MarshalIndent(pipeline.Results{
		AnalysisText: text,
		Model:        client.Model(),
		ExcerptChars: res.Chars,
		Pages:        res.Pages,
		Truncated:    res.Truncated,
		GeneratedAt:  time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, out, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.Write(append(out, '\n')); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
