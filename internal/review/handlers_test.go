package review

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brandpulse/brandpulse/internal/mention"
)

func newTestRouter(t *testing.T) (*echo.Echo, *mention.Store) {
	t.Helper()

	svc, store := newTestService(t)
	e := echo.New()
	NewHandlers(svc).RegisterRoutes(e.Group("/api/v1"))
	return e, store
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListEndpoint(t *testing.T) {
	e, store := newTestRouter(t)

	for i := 0; i < 3; i++ {
		insertMention(t, store, mention.PlatformXHS, time.Now().Add(-time.Duration(i)*time.Minute))
	}
	insertMention(t, store, mention.PlatformWeibo, time.Now())

	rec := doRequest(e, http.MethodGet, "/api/v1/mentions?platform=xhs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", resp.TotalCount)
	}
	if len(resp.Items) != 3 {
		t.Errorf("items = %d, want 3", len(resp.Items))
	}

	rec = doRequest(e, http.MethodGet, "/api/v1/mentions?platform=facebook", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown platform status = %d, want 400", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	e, store := newTestRouter(t)

	insertMention(t, store, mention.PlatformXHS, time.Now())

	rec := doRequest(e, http.MethodGet, "/api/v1/mentions/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var stats mention.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.Total != 1 || stats.Unprocessed != 1 {
		t.Errorf("stats = %+v", stats)
	}

	rec = doRequest(e, http.MethodGet, "/api/v1/mentions/stats?range=90d", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown range status = %d, want 400", rec.Code)
	}
}

func TestMarkProcessedEndpoint(t *testing.T) {
	e, store := newTestRouter(t)

	id := insertMention(t, store, mention.PlatformXHS, time.Now())

	rec := doRequest(e, http.MethodPost, "/api/v1/mentions/1/processed", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}

	stored, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status != mention.StatusProcessed {
		t.Errorf("Status = %q, want processed", stored.Status)
	}

	rec = doRequest(e, http.MethodPost, "/api/v1/mentions/9999/processed", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}

	rec = doRequest(e, http.MethodPost, "/api/v1/mentions/abc/processed", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
}

func TestSetNotesEndpoint(t *testing.T) {
	e, store := newTestRouter(t)

	id := insertMention(t, store, mention.PlatformDouyin, time.Now())

	rec := doRequest(e, http.MethodPut, "/api/v1/mentions/1/notes", `{"notes":"escalated to PR team"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	stored, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Notes != "escalated to PR team" {
		t.Errorf("Notes = %q", stored.Notes)
	}
}

func TestCrawlEndpointsWithoutProvider(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := doRequest(e, http.MethodPost, "/api/v1/crawl/trigger", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("trigger status = %d, want 503", rec.Code)
	}

	rec = doRequest(e, http.MethodGet, "/api/v1/crawl/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d, want 200", rec.Code)
	}

	var status crawlStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if status.Running || status.LastResult != nil {
		t.Errorf("status = %+v", status)
	}
}
