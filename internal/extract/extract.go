package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"greenintellect-backend/internal/shared/storage/object"
)

// DefaultMaxChars bounds the text handed to the LLM.
const DefaultMaxChars = 12000

// ErrNoText is returned when a PDF has no extractable text layer.
var ErrNoText = errors.New("no extractable text in pdf")

// Result is the text extracted from a report.
type Result struct {
	Text      string
	Pages     int
	Chars     int
	Truncated bool
}

// FromStore reads a stored PDF and extracts its text.
func FromStore(ctx context.Context, store object.ObjectStore, key string, maxChars int) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	body, err := store.Open(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("extract text key=%s: %w", key, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return Result{}, fmt.Errorf("extract text key=%s: read: %w", key, err)
	}
	res, err := PDF(ctx, raw, maxChars)
	if err != nil {
		return Result{}, fmt.Errorf("extract text key=%s: %w", key, err)
	}
	return res, nil
}

// PDF extracts plain text from an in-memory PDF, keeping at most maxChars
// runes.
func PDF(ctx context.Context, data []byte, maxChars int) (res Result, err error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(data) == 0 {
		return Result{}, errors.New("empty pdf data")
	}
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("parse pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return Result{}, fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return Result{}, err
	}

	text := normalizeWhitespace(buf.String())
	if text == "" {
		return Result{}, ErrNoText
	}
	text, truncated := Truncate(text, maxChars)
	return Result{
		Text:      text,
		Pages:     reader.NumPage(),
		Chars:     utf8.RuneCountInString(text),
		Truncated: truncated,
	}, nil
}

// Truncate keeps at most maxChars runes, preferring to cut at a word boundary.
func Truncate(text string, maxChars int) (string, bool) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return text, false
	}
	runes := []rune(text)
	cut := string(runes[:maxChars])
	if i := strings.LastIndexAny(cut, " \n"); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut), true
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
