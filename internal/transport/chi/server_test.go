package chi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/skillrank/internal/domain/search/result"
	"github.com/kailas-cloud/skillrank/internal/domain/search/stage"
	healthuc "github.com/kailas-cloud/skillrank/internal/usecase/health"
)

type searchCall struct {
	text, scope string
	limit       int
}

type stubSearcher struct {
	stages  []stage.Stage
	calls   []searchCall
	yielded int
}

func (s *stubSearcher) Search(ctx context.Context, text, scope string, limit int) iter.Seq[stage.Result] {
	s.calls = append(s.calls, searchCall{text: text, scope: scope, limit: limit})
	return func(yield func(stage.Result) bool) {
		for _, st := range s.stages {
			if ctx.Err() != nil {
				return
			}
			s.yielded++
			res := stage.Result{
				Stage:    st,
				SearchID: "sid-1",
				Results:  []result.ScoredCandidate{{ID: "c1", Tier: result.TierPerfect, TierLabel: "perfect"}},
				Count:    1,
			}
			if !yield(res) {
				return
			}
		}
	}
}

type stubFeedback struct {
	learned  int
	err      error
	original string
	accepted string
}

func (f *stubFeedback) RecordFeedback(_ context.Context, original, accepted string) (int, error) {
	f.original, f.accepted = original, accepted
	return f.learned, f.err
}

type stubHealth struct{ report healthuc.Report }

func (h stubHealth) Check(context.Context) healthuc.Report { return h.report }

func newTestHandler(search Searcher, feedback FeedbackRecorder, health HealthChecker) http.Handler {
	return Handler(NewServer(search, feedback, health, zap.NewNop()))
}

type sseEvent struct {
	event string
	data  string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var (
		events []sseEvent
		cur    sseEvent
	)
	sc := bufio.NewScanner(strings.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if cur.event != "" {
				events = append(events, cur)
			}
			cur = sseEvent{}
		case strings.HasPrefix(line, "event: "):
			cur.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		}
	}
	return events
}

func TestSearch_StreamsStagesAsEvents(t *testing.T) {
	searcher := &stubSearcher{stages: []stage.Stage{stage.Instant, stage.Enhanced, stage.Complete}}
	h := newTestHandler(searcher, nil, stubHealth{})

	req := httptest.NewRequest(http.MethodGet, "/search?q=senior+python+developer&scope=acme&limit=5", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	events := parseSSE(t, rr.Body.String())
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %s", len(events), rr.Body.String())
	}
	for i, want := range []string{"instant", "enhanced", "complete"} {
		if events[i].event != want {
			t.Errorf("event[%d] = %q, want %q", i, events[i].event, want)
		}
		var res stage.Result
		if err := json.Unmarshal([]byte(events[i].data), &res); err != nil {
			t.Fatalf("event[%d] data: %v", i, err)
		}
		if string(res.Stage) != want || res.Count != 1 || res.Results[0].ID != "c1" {
			t.Errorf("event[%d] payload = %+v", i, res)
		}
	}

	if len(searcher.calls) != 1 {
		t.Fatalf("expected 1 search call, got %d", len(searcher.calls))
	}
	got := searcher.calls[0]
	if got.text != "senior python developer" || got.scope != "acme" || got.limit != 5 {
		t.Errorf("search call = %+v", got)
	}
}

func TestSearch_OptionalParams(t *testing.T) {
	searcher := &stubSearcher{stages: []stage.Stage{stage.Instant, stage.Complete}}
	h := newTestHandler(searcher, nil, stubHealth{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/search?q=go&scope=+acme+", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := searcher.calls[0]; got.scope != "acme" || got.limit != 0 {
		t.Errorf("search call = %+v, want trimmed scope and default limit", got)
	}
}

func TestSearch_ParamErrors(t *testing.T) {
	tests := []struct {
		name string
		url  string
		code ErrorCode
	}{
		{"missing q", "/search?scope=acme", ErrorCodeBadRequest},
		{"missing scope", "/search?q=python", ErrorCodeBadRequest},
		{"empty scope", "/search?q=python&scope=", ErrorCodeValidationFailed},
		{"blank scope", "/search?q=python&scope=+%09", ErrorCodeValidationFailed},
		{"non-numeric limit", "/search?q=go&scope=acme&limit=ten", ErrorCodeBadRequest},
		{"negative limit", "/search?q=go&scope=acme&limit=-1", ErrorCodeValidationFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			searcher := &stubSearcher{}
			rr := httptest.NewRecorder()
			newTestHandler(searcher, nil, stubHealth{}).
				ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.url, http.NoBody))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tc.code {
				t.Errorf("code = %q, want %q", body.Code, tc.code)
			}
			if len(searcher.calls) != 0 {
				t.Error("search must not run on invalid params")
			}
		})
	}
}

type failingWriter struct {
	header http.Header
	writes int
}

func (w *failingWriter) Header() http.Header { return w.header }
func (w *failingWriter) WriteHeader(int)     {}
func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	return 0, errors.New("client went away")
}
func (w *failingWriter) Flush() {}

func TestSearch_StopsOnWriteError(t *testing.T) {
	searcher := &stubSearcher{stages: []stage.Stage{stage.Instant, stage.Enhanced, stage.Complete}}
	s := NewServer(searcher, nil, stubHealth{}, zap.NewNop())

	w := &failingWriter{header: http.Header{}}
	s.Search(w, httptest.NewRequest(http.MethodGet, "/search?q=go&scope=acme", http.NoBody),
		SearchParams{Q: "go", Scope: "acme"})

	if searcher.yielded != 1 {
		t.Errorf("yielded %d stages, want 1 before the stream stops", searcher.yielded)
	}
}

func TestSearch_ClientGoneBeforeFirstStage(t *testing.T) {
	searcher := &stubSearcher{stages: []stage.Stage{stage.Instant, stage.Complete}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/search?q=go&scope=acme", http.NoBody).WithContext(ctx)
	newTestHandler(searcher, nil, stubHealth{}).ServeHTTP(rr, req)

	if searcher.yielded != 0 {
		t.Errorf("yielded %d stages after cancellation", searcher.yielded)
	}
	if len(parseSSE(t, rr.Body.String())) != 0 {
		t.Errorf("unexpected events: %s", rr.Body.String())
	}
}

func TestRecordFeedback(t *testing.T) {
	fb := &stubFeedback{learned: 2}
	h := newTestHandler(&stubSearcher{}, fb, stubHealth{})

	body := `{"original":"pyhton kubernets","accepted":"python kubernetes"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/corrections/feedback", strings.NewReader(body)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp FeedbackResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Learned != 2 {
		t.Errorf("learned = %d, want 2", resp.Learned)
	}
	if fb.original != "pyhton kubernets" || fb.accepted != "python kubernetes" {
		t.Errorf("recorded %q -> %q", fb.original, fb.accepted)
	}
}

func TestRecordFeedback_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fbErr  error
		status int
	}{
		{"malformed body", `{`, nil, http.StatusBadRequest},
		{"missing accepted", `{"original":"pyhton"}`, nil, http.StatusBadRequest},
		{"store failure", `{"original":"pyhton","accepted":"python"}`, errors.New("valkey down"),
			http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(&stubSearcher{}, &stubFeedback{err: tc.fbErr}, stubHealth{})
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/corrections/feedback", strings.NewReader(tc.body)))
			if rr.Code != tc.status {
				t.Errorf("status = %d, want %d", rr.Code, tc.status)
			}
		})
	}
}

func TestRecordFeedback_NoRecorder(t *testing.T) {
	h := newTestHandler(&stubSearcher{}, nil, stubHealth{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/corrections/feedback",
		strings.NewReader(`{"original":"pyhton","accepted":"python"}`)))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusServiceUnavailable},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			report := healthuc.Report{
				Status: tc.status,
				Checks: map[string]healthuc.CheckResult{healthuc.ComponentValkey: healthuc.CheckOK},
			}
			rr := httptest.NewRecorder()
			newTestHandler(&stubSearcher{}, nil, stubHealth{report: report}).
				ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
			var body HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != string(tc.status) || body.Checks["valkey"] != "ok" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(&stubSearcher{}, nil, stubHealth{}).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := JSONRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(fmt.Sprintf("boom %d", 1))
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != ErrorCodeInternalError {
		t.Errorf("code = %q", body.Code)
	}
}

func TestLevelForStatus(t *testing.T) {
	tests := map[int]zapcore.Level{
		200: zapcore.InfoLevel,
		404: zapcore.WarnLevel,
		503: zapcore.ErrorLevel,
	}
	for status, want := range tests {
		if got := levelForStatus(status); got != want {
			t.Errorf("levelForStatus(%d) = %v, want %v", status, got, want)
		}
	}
}

func TestWideEventMiddleware_LogsRequest(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := Handler(NewServer(&stubSearcher{}, nil, stubHealth{report: healthuc.Report{Status: healthuc.Healthy}},
		zap.New(core)))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("got %d http_request entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/health" || fields["request_id"] == "" {
		t.Errorf("fields = %v", fields)
	}
}
