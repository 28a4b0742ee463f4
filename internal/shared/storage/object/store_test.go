package object

import "testing"

func TestUploadKeyAndValidKey(t *testing.T) {
	if got := UploadKey("user-1", "Acme_2024_1.pdf"); got != "user-1/Acme_2024_1.pdf" {
		t.Fatalf("unexpected key %q", got)
	}
	tests := []struct {
		key  string
		want bool
	}{
		{"user-1/a.pdf", true},
		{"../etc/passwd", false},
		{"/abs/a.pdf", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidKey(tt.key); got != tt.want {
			t.Fatalf("ValidKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
