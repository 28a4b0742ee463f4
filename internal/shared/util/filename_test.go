package util

import (
	"testing"
	"time"
)

func TestReportFileName(t *testing.T) {
	now := time.UnixMilli(1735689600123)
	tests := []struct {
		name    string
		company string
		year    int
		want    string
		wantErr bool
	}{
		{name: "spaces collapse", company: "Acme   Green Corp", year: 2024, want: "Acme_Green_Corp_2024_1735689600123.pdf"},
		{name: "trimmed", company: "  Solo ", year: 2023, want: "Solo_2023_1735689600123.pdf"},
		{name: "slashes replaced", company: "A/B", year: 2022, want: "A_B_2022_1735689600123.pdf"},
		{name: "traversal rejected", company: "..", year: 2022, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReportFileName(tt.company, tt.year, now)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHashKey(t *testing.T) {
	a := HashKey("user-1", "company-1")
	if a != HashKey("user-1", "company-1") {
		t.Fatalf("expected stable hash")
	}
	if a == HashKey("user-1company-1") {
		t.Fatalf("expected separator to distinguish parts")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(a))
	}
}
