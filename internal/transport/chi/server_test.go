package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	healthuc "github.com/kailas-cloud/studysearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/studysearch/internal/usecase/search"
)

type fakeQueryHandler struct {
	reply searchuc.Reply
	got   []string
	panic bool
}

func (f *fakeQueryHandler) HandleQuery(_ context.Context, text string) searchuc.Reply {
	if f.panic {
		panic("boom")
	}
	f.got = append(f.got, text)
	return f.reply
}

type fakeHealth struct {
	report healthuc.Report
}

func (f fakeHealth) Check(context.Context) healthuc.Report { return f.report }

func newTestRouter(q *fakeQueryHandler, h fakeHealth, keys ...string) http.Handler {
	return NewRouter(NewServer(q, h, nil), keys, nil)
}

func TestSearch_ReturnsOutcomeAndChunks(t *testing.T) {
	q := &fakeQueryHandler{reply: searchuc.Reply{
		Outcome: searchuc.OutcomeResults,
		Chunks:  []string{"first", "second"},
	}}
	router := newTestRouter(q, fakeHealth{})

	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"query":"رياضيات معادلات"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Outcome != "results" {
		t.Errorf("outcome: got %q", resp.Outcome)
	}
	if len(resp.Chunks) != 2 || resp.Chunks[0] != "first" || resp.Chunks[1] != "second" {
		t.Errorf("chunks: got %v", resp.Chunks)
	}
	if len(q.got) != 1 || q.got[0] != "رياضيات معادلات" {
		t.Errorf("handler got %v", q.got)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestSearch_RejectedIsNotAnError(t *testing.T) {
	q := &fakeQueryHandler{reply: searchuc.Reply{Outcome: searchuc.OutcomeRejected, Chunks: []string{"out of scope"}}}
	router := newTestRouter(q, fakeHealth{})

	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"query":"أغنية"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"outcome":"rejected"`) {
		t.Errorf("unexpected body %s", rr.Body.String())
	}
}

func TestSearch_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"query":`},
		{"empty query", `{"query":"   "}`},
		{"missing query", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQueryHandler{}
			router := newTestRouter(q, fakeHealth{})

			req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if errResp.Code != ErrorCodeBadRequest {
				t.Errorf("code: got %s", errResp.Code)
			}
			if len(q.got) != 0 {
				t.Errorf("pipeline must not run, got %v", q.got)
			}
		})
	}
}

func TestSearch_BodyTooLarge(t *testing.T) {
	router := newTestRouter(&fakeQueryHandler{}, fakeHealth{})

	body := `{"query":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestSearch_RequiresAuthWhenConfigured(t *testing.T) {
	q := &fakeQueryHandler{reply: searchuc.Reply{Outcome: searchuc.OutcomeNoResults}}
	router := newTestRouter(q, fakeHealth{}, "secret")

	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"query":"فيزياء"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status without token: got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"query":"فيزياء"}`))
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status with token: got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"chunks":[]`) {
		t.Errorf("expected empty chunk list, got %s", rr.Body.String())
	}
}

func TestSearch_PanicReturnsJSON(t *testing.T) {
	router := newTestRouter(&fakeQueryHandler{panic: true}, fakeHealth{})

	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"query":"علوم"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != ErrorCodeInternal {
		t.Errorf("code: got %s", errResp.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		report     healthuc.Report
		wantStatus int
	}{
		{
			name:       "healthy",
			report:     healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}},
			wantStatus: http.StatusOK,
		},
		{
			name: "degraded",
			report: healthuc.Report{
				Status: healthuc.Degraded,
				Checks: map[string]healthuc.CheckResult{"assistant": healthuc.CheckError},
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeQueryHandler{}, fakeHealth{report: tt.report}, "secret")

			req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != string(tt.report.Status) {
				t.Errorf("status field: got %q", resp.Status)
			}
			for k, v := range tt.report.Checks {
				if resp.Checks[k] != string(v) {
					t.Errorf("check %s: got %q, want %q", k, resp.Checks[k], v)
				}
			}
		})
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(&fakeQueryHandler{}, fakeHealth{})

	req := httptest.NewRequest(http.MethodGet, "/v1/nope", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d", rr.Code)
	}
}
