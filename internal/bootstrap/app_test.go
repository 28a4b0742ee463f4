package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"greenintellect-backend/internal/shared/auth"
	"greenintellect-backend/internal/shared/config"
	"greenintellect-backend/internal/uploads"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:             "dev",
		JWTSecret:       "test-secret",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		ReconcileDelay:  10 * time.Millisecond,
		MaxUploadBytes:  10 << 20,
		LLMTimeout:      5 * time.Second,
	}
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	keys, err := auth.NewKeys("test-secret", "dev")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	tok, err := keys.Sign(auth.Claims{Role: role, RegisteredClaims: jwt.RegisteredClaims{Subject: sub}})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestBuildWiresMemoryFallbacks(t *testing.T) {
	app, err := Build(context.Background(), testConfig(t), Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer app.Close()

	if app.DB != nil {
		t.Fatal("expected no database without DATABASE_URL")
	}
	if app.LocalQueue == nil || app.Uploads.Queue == nil {
		t.Fatal("expected local queue wired into uploads")
	}

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("companies: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/uploads", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("uploads without token: expected 401, got %d", rec.Code)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "production"
	if _, err := Build(context.Background(), cfg, Options{}); err == nil {
		t.Fatal("expected error without DATABASE_URL in production")
	}
}

func TestUploadApprovalRunsPipeline(t *testing.T) {
	app, err := Build(context.Background(), testConfig(t), Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer app.Close()

	pdf, err := os.ReadFile("../pipeline/testdata/report.pdf")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("companyName", "Green Energy Co")
	_ = mw.WriteField("reportYear", "2024")
	fw, _ := mw.CreateFormFile("file", "report.pdf")
	_, _ = fw.Write(pdf)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token(t, "user-1", auth.RoleUser))
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created uploads.Upload
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != uploads.StatusPending {
		t.Fatalf("expected pending, got %s", created.Status)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/uploads/"+created.ID+"/approve", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "user-1", auth.RoleUser))
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin approve: expected 403, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/uploads/"+created.ID+"/approve", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "admin-1", auth.RoleAdmin))
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Without an API key the pipeline extracts text and then fails at the LLM.
	deadline := time.Now().Add(3 * time.Second)
	for {
		u, err := app.Uploads.Get(context.Background(), created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if u.Status == uploads.StatusFailed {
			if u.ErrorMessage == nil || *u.ErrorMessage == "" {
				t.Fatal("expected error message on failed upload")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected failed status, got %s", u.Status)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
