package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseEnvLine(t *testing.T) {
	cases := []struct {
		line    string
		key     string
		val     string
		wantSet bool
	}{
		{"PORT=9000", "PORT", "9000", true},
		{"export ENV=production", "ENV", "production", true},
		{`GROQ_API_KEY="gsk abc"`, "GROQ_API_KEY", "gsk abc", true},
		{"LLM_MODEL='llama'", "LLM_MODEL", "llama", true},
		{"MAX_UPLOAD_MB=20 # megabytes", "MAX_UPLOAD_MB", "20", true},
		{"VITE_GROQ_API_KEY=k", "GROQ_API_KEY", "k", true},
		{"# comment", "", "", false},
		{"", "", "", false},
		{"NOEQUALS", "", "", false},
		{"=value", "", "", false},
	}
	for _, tc := range cases {
		key, val, ok := parseEnvLine(tc.line)
		if ok != tc.wantSet || key != tc.key || val != tc.val {
			t.Errorf("parseEnvLine(%q) = %q, %q, %v", tc.line, key, val, ok)
		}
	}
}

func TestLoadEnvFilesKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("GI_TEST_EXISTING=file\nGI_TEST_NEW=file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("GI_TEST_EXISTING", "process")
	t.Setenv("GI_TEST_NEW", "")
	_ = os.Unsetenv("GI_TEST_NEW")

	loadEnvFiles(path, filepath.Join(t.TempDir(), "missing.env"))

	if got := os.Getenv("GI_TEST_EXISTING"); got != "process" {
		t.Fatalf("expected process value kept, got %q", got)
	}
	if got := os.Getenv("GI_TEST_NEW"); got != "file" {
		t.Fatalf("expected file value, got %q", got)
	}
}
