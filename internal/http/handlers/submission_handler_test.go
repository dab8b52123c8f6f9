package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-form-collector/internal/domain"
	"github.com/tbourn/go-form-collector/internal/repo"
	"github.com/tbourn/go-form-collector/internal/services"
)

// ---------- helpers ----------

func newRouter(svc IntakeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(svc)
	r.GET("/", h.Form)
	r.POST("/submit", h.Submit)
	r.GET("/data", h.Data)
	return r
}

func postJSON(r http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func getData(t *testing.T, r http.Handler) []domain.Submission {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/data", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /data -> %d: %s", w.Code, w.Body.String())
	}
	var out []domain.Submission
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode /data: %v", err)
	}
	return out
}

type stubIntake struct {
	submitErr error
	listErr   error
	statsErr  error
	items     []domain.Submission
	calls     int
}

func (s *stubIntake) Submit(_ context.Context, name, email string) (*domain.Submission, error) {
	s.calls++
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return domain.NewSubmission(name, email, time.Now()), nil
}

func (s *stubIntake) List(context.Context) ([]domain.Submission, error) {
	return s.items, s.listErr
}

func (s *stubIntake) Stats(context.Context) (int64, *time.Time, error) {
	return int64(len(s.items)), nil, s.statsErr
}

// ---------- tests ----------

func TestSubmit_JSON_StrictNormalizes(t *testing.T) {
	r := newRouter(services.NewIntakeService(repo.NewMemoryStore(), true))

	w := postJSON(r, `{"name": "Ada", "email": "ADA@Example.COM "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp SubmitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Message != "Submission received" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	items := getData(t, r)
	if len(items) != 1 || items[0].Name != "Ada" || items[0].Email != "ada@example.com" {
		t.Fatalf("unexpected stored items: %+v", items)
	}
}

func TestSubmit_JSON_LaxStoresVerbatim(t *testing.T) {
	r := newRouter(services.NewIntakeService(repo.NewMemoryStore(), false))

	if w := postJSON(r, `{"name": "Ada", "email": "ADA@Example.COM "}`); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if w := postJSON(r, `{"name": "", "email": "a@b.com"}`); w.Code != http.StatusOK {
		t.Fatalf("lax mode must accept empty name, got %d", w.Code)
	}

	items := getData(t, r)
	if len(items) != 2 || items[0].Email != "ADA@Example.COM " || items[1].Name != "" {
		t.Fatalf("unexpected stored items: %+v", items)
	}
}

func TestSubmit_FormEncoded(t *testing.T) {
	r := newRouter(services.NewIntakeService(repo.NewMemoryStore(), true))

	form := url.Values{"name": {"<Bob>"}, "email": {"bob@example.com"}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	items := getData(t, r)
	if len(items) != 1 || items[0].Name != "&lt;Bob&gt;" {
		t.Fatalf("expected escaped name, got %+v", items)
	}
}

func TestSubmit_StrictRejections(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		wantField string
	}{
		{"empty name", `{"name": "", "email": "a@b.com"}`, "name"},
		{"missing at sign", `{"name": "Ada", "email": "ada.example.com"}`, "email"},
		{"missing email", `{"name": "Ada"}`, "email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(services.NewIntakeService(repo.NewMemoryStore(), true))

			w := postJSON(r, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			var resp ValidationErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("json: %v", err)
			}
			if resp.Code != ErrCodeValidationFailed || len(resp.Errors) != 1 || resp.Errors[0].Field != tc.wantField {
				t.Fatalf("unexpected body: %+v", resp)
			}
			if items := getData(t, r); len(items) != 0 {
				t.Fatalf("rejected submission was stored: %+v", items)
			}
		})
	}
}

func TestSubmit_MalformedBody(t *testing.T) {
	svc := &stubIntake{}
	r := newRouter(svc)

	for _, body := range []string{`{"name": `, `{"name": 42, "email": "a@b.com"}`} {
		w := postJSON(r, body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status=%d", body, w.Code)
		}
		var er ErrorResponse
		_ = json.Unmarshal(w.Body.Bytes(), &er)
		if er.Code != ErrCodeBadRequest {
			t.Fatalf("body %q: code=%q", body, er.Code)
		}
	}
	if svc.calls != 0 {
		t.Fatalf("service must not be called on malformed input")
	}
}

func TestSubmit_StorageFailure_Generic500(t *testing.T) {
	svc := &stubIntake{submitErr: &services.StorageError{Op: "append", Err: errors.New("write conflict on node-3")}}
	r := newRouter(svc)

	w := postJSON(r, `{"name": "Ada", "email": "ada@example.com"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if strings.Contains(w.Body.String(), "node-3") {
		t.Fatalf("cause leaked: %s", w.Body.String())
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeStorageFailed {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestData_EmptyIsJSONArray(t *testing.T) {
	r := newRouter(services.NewIntakeService(repo.NewMemoryStore(), true))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/data", nil))
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty JSON array, got %d %q", w.Code, w.Body.String())
	}
}

func TestData_ETag_NotModified(t *testing.T) {
	r := newRouter(services.NewIntakeService(repo.NewMemoryStore(), true))
	postJSON(r, `{"name": "Ada", "email": "ada@example.com"}`)

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/data", nil))
	etag := w1.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"submissions:1:`) {
		t.Fatalf("unexpected ETag %q", etag)
	}

	w2 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w2, req)
	if w2.Code != http.StatusNotModified || w2.Body.Len() != 0 {
		t.Fatalf("expected 304 with empty body, got %d %q", w2.Code, w2.Body.String())
	}

	// A new submission changes the tag.
	postJSON(r, `{"name": "Bob", "email": "bob@example.com"}`)
	w3 := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w3, req)
	if w3.Code != http.StatusOK || w3.Header().Get("ETag") == etag {
		t.Fatalf("expected fresh 200 after new submission, got %d etag=%q", w3.Code, w3.Header().Get("ETag"))
	}
}

func TestData_StatsFailureStillLists(t *testing.T) {
	svc := &stubIntake{
		statsErr: errors.New("stats down"),
		items:    []domain.Submission{*domain.NewSubmission("a", "a@x.io", time.Now())},
	}
	r := newRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/data", nil))
	if w.Code != http.StatusOK || w.Header().Get("ETag") != "" {
		t.Fatalf("expected 200 without ETag, got %d etag=%q", w.Code, w.Header().Get("ETag"))
	}
}

func TestData_ListFailure_Generic500(t *testing.T) {
	svc := &stubIntake{listErr: &services.StorageError{Op: "list", Err: errors.New("cursor killed")}}
	r := newRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/data", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Header().Get("ETag") != "" {
		t.Fatalf("ETag must not accompany an error response")
	}
	if strings.Contains(w.Body.String(), "cursor") {
		t.Fatalf("cause leaked: %s", w.Body.String())
	}
}
