package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"greenintellect-backend/internal/shared/storage/object"
	"greenintellect-backend/internal/shared/storage/object/local"
)

// buildPDF writes a one-page PDF with a single text run and a valid xref table.
func buildPDF(text string) []byte {
	stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestPDFExtractsText(t *testing.T) {
	res, err := PDF(context.Background(), buildPDF("Net zero by 2040"), 0)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(res.Text, "Net zero by 2040") {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if res.Pages != 1 || res.Truncated {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPDFRejectsGarbage(t *testing.T) {
	if _, err := PDF(context.Background(), []byte("%PDF-1.4 not really"), 0); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := PDF(context.Background(), nil, 0); err == nil {
		t.Fatalf("expected error for empty data")
	}
}

func TestFromStoreMissingKey(t *testing.T) {
	store := local.New(t.TempDir())
	_, err := FromStore(context.Background(), store, "user/missing.pdf", 0)
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTruncatePrefersWordBoundary(t *testing.T) {
	text := strings.Repeat("emissions ", 10)
	got, truncated := Truncate(text, 25)
	if !truncated {
		t.Fatalf("expected truncation")
	}
	if got != "emissions emissions" {
		t.Fatalf("unexpected cut %q", got)
	}
	if same, truncated := Truncate("short", 25); truncated || same != "short" {
		t.Fatalf("short text must pass through")
	}
}

func TestNormalizeWhitespaceCollapsesRuns(t *testing.T) {
	got := normalizeWhitespace("  Scope   1\r\n\n\n\nScope\t2  ")
	if got != "Scope 1\n\nScope 2" {
		t.Fatalf("unexpected %q", got)
	}
}
