package review

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"greenintellect-backend/internal/shared/storage/object/local"
	"greenintellect-backend/internal/uploads"
)

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Notice Notice `json:"notice"`
		} `json:"details"`
	} `json:"error"`
}

func newAdminRouter(t *testing.T) (*gin.Engine, *uploads.Service, *Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := &uploads.Service{Repo: uploads.NewMemoryRepo(), Store: local.New(t.TempDir())}
	reg := NewRegistry(svc, time.Hour)
	t.Cleanup(reg.CloseAll)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "admin-1")
		c.Set("requestId", "req-1")
		c.Next()
	})
	NewHandler(reg, svc).RegisterRoutes(r.Group("/api/v1/admin"))
	return r, svc, reg
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestAdminApproveAndReject(t *testing.T) {
	r, svc, _ := newAdminRouter(t)
	first := seed(t, svc, "Acme")
	second := seed(t, svc, "Borealis")

	resp := do(r, http.MethodPost, "/api/v1/admin/uploads/"+first.ID+"/approve", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d body=%s", resp.Code, resp.Body.String())
	}
	var action actionResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &action)
	if action.Upload == nil || action.Upload.Status != uploads.StatusApproved {
		t.Fatalf("unexpected approve response %s", resp.Body.String())
	}
	if action.Notice.Title != "Status Updated Successfully" {
		t.Fatalf("unexpected notice %+v", action.Notice)
	}

	resp = do(r, http.MethodPost, "/api/v1/admin/uploads/"+second.ID+"/reject", `{"reason":""}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("empty reason: expected 400, got %d", resp.Code)
	}
	var env errorEnvelope
	_ = json.Unmarshal(resp.Body.Bytes(), &env)
	if env.Error.Code != "validation_error" || env.Error.Details.Notice.Variant != VariantDestructive {
		t.Fatalf("unexpected error body %s", resp.Body.String())
	}

	resp = do(r, http.MethodPost, "/api/v1/admin/uploads/"+second.ID+"/reject", `{"reason":"Wrong company"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d", resp.Code)
	}

	resp = do(r, http.MethodPost, "/api/v1/admin/uploads/"+second.ID+"/approve", "")
	action = actionResponse{}
	_ = json.Unmarshal(resp.Body.Bytes(), &action)
	if resp.Code != http.StatusOK || action.Upload == nil ||
		action.Upload.Status != uploads.StatusApproved || action.Upload.ErrorMessage != nil {
		t.Fatalf("approve rejected upload: %d %s", resp.Code, resp.Body.String())
	}

	resp = do(r, http.MethodPost, "/api/v1/admin/uploads/"+first.ID+"/approve", "")
	if resp.Code != http.StatusConflict {
		t.Fatalf("approve approved upload: expected 409, got %d", resp.Code)
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &env)
	if env.Error.Code != "invalid_transition" {
		t.Fatalf("unexpected code %q", env.Error.Code)
	}
}

func TestAdminMalformedIDIsNotFound(t *testing.T) {
	r, _, _ := newAdminRouter(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/admin/uploads/not-a-uuid"},
		{http.MethodGet, "/api/v1/admin/uploads/not-a-uuid/download"},
		{http.MethodPost, "/api/v1/admin/uploads/not-a-uuid/approve"},
		{http.MethodDelete, "/api/v1/admin/uploads/not-a-uuid"},
	} {
		resp := do(r, tc.method, tc.path, "")
		var env errorEnvelope
		_ = json.Unmarshal(resp.Body.Bytes(), &env)
		if resp.Code != http.StatusNotFound || env.Error.Code != "not_found" {
			t.Fatalf("%s %s: expected 404 not_found, got %d %s", tc.method, tc.path, resp.Code, resp.Body.String())
		}
	}
}

func TestAdminListStatsAndDelete(t *testing.T) {
	r, svc, _ := newAdminRouter(t)
	u := seed(t, svc, "Acme")
	seed(t, svc, "Borealis")

	resp := do(r, http.MethodGet, "/api/v1/admin/uploads?search=acme", "")
	var page Page
	_ = json.Unmarshal(resp.Body.Bytes(), &page)
	if resp.Code != http.StatusOK || page.Total != 1 || page.PageSize != PageSize {
		t.Fatalf("unexpected list %d %s", resp.Code, resp.Body.String())
	}

	resp = do(r, http.MethodGet, "/api/v1/admin/stats", "")
	var stats uploads.Stats
	_ = json.Unmarshal(resp.Body.Bytes(), &stats)
	if stats.Total != 2 || stats.ByStatus[uploads.StatusPending] != 2 {
		t.Fatalf("unexpected stats %s", resp.Body.String())
	}

	resp = do(r, http.MethodDelete, "/api/v1/admin/uploads/"+u.ID, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.Code)
	}
	resp = do(r, http.MethodGet, "/api/v1/admin/uploads/"+u.ID+"/download", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("download deleted: expected 404, got %d", resp.Code)
	}
	var env errorEnvelope
	_ = json.Unmarshal(resp.Body.Bytes(), &env)
	if env.Error.Details.Notice.Title != "Download Failed" {
		t.Fatalf("unexpected notice %s", resp.Body.String())
	}
}

func TestAdminDownloadStreamsPDF(t *testing.T) {
	r, svc, _ := newAdminRouter(t)
	u := seed(t, svc, "Acme")

	resp := do(r, http.MethodGet, "/api/v1/admin/uploads/"+u.ID+"/download", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.String() != samplePDF {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
	if resp.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content type %q", resp.Header().Get("Content-Type"))
	}
}

func TestAdminStatusRouteAndSessionClose(t *testing.T) {
	r, svc, reg := newAdminRouter(t)
	u := seed(t, svc, "Acme")

	resp := do(r, http.MethodPost, "/api/v1/admin/uploads/"+u.ID+"/status", `{"status":"processing"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", resp.Code, resp.Body.String())
	}
	stored, _ := svc.Get(context.Background(), u.ID)
	if stored.Status != uploads.StatusProcessing {
		t.Fatalf("expected processing, got %s", stored.Status)
	}

	resp = do(r, http.MethodPost, "/api/v1/admin/uploads/"+u.ID+"/status", `{"status":"pending"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported status, got %d", resp.Code)
	}

	first := reg.Session("admin-1")
	resp = do(r, http.MethodDelete, "/api/v1/admin/session", "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if !first.isClosed() {
		t.Fatalf("expected session closed")
	}
}

type presigningStore struct {
	*local.Store
}

func (p presigningStore) PresignGet(ctx context.Context, storageKey, fileName string, ttl time.Duration) (string, error) {
	return "https://signed.example/" + storageKey + "?ttl=" + ttl.String(), nil
}

func TestAdminDownloadURL(t *testing.T) {
	r, svc, _ := newAdminRouter(t)
	u := seed(t, svc, "Acme")

	resp := do(r, http.MethodGet, "/api/v1/admin/uploads/"+u.ID+"/download-url", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body downloadURLResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if body.URL != "/api/v1/admin/uploads/"+u.ID+"/download" || body.ExpiresAt != nil {
		t.Fatalf("expected streaming fallback, got %+v", body)
	}

	svc.Store = presigningStore{Store: local.New(t.TempDir())}
	resp = do(r, http.MethodGet, "/api/v1/admin/uploads/"+u.ID+"/download-url", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body = downloadURLResponse{}
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if body.URL != "https://signed.example/"+u.FilePath+"?ttl=15m0s" || body.ExpiresAt == nil {
		t.Fatalf("expected presigned url, got %+v", body)
	}
}
