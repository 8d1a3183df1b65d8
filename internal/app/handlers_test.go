package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"callbook-service/internal/booking"
	"callbook-service/internal/intent"
)

type fakeExtractor struct {
	intent intent.MeetingIntent
	err    error

	calls      int
	transcript string
	now        time.Time
}

func (f *fakeExtractor) Extract(ctx context.Context, transcript string, now time.Time) (intent.MeetingIntent, error) {
	f.calls++
	f.transcript = transcript
	f.now = now
	return f.intent, f.err
}

type fakeBooker struct {
	mu       sync.Mutex
	requests []booking.Request
	release  chan struct{}
}

func (f *fakeBooker) Run(ctx context.Context, req booking.Request) booking.Result {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return booking.Result{State: booking.StateScheduled, Scheduled: &booking.Scheduled{EventRef: "evt"}}
}

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

var today = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func newTestApp(ex Extractor, bk Booker) (*App, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	a := &App{
		Extractor: ex,
		Booker:    bk,
		Tasks:     NewDispatcher(log.New(io.Discard, "", 0)),
		Now:       func() time.Time { return today },
	}
	r := gin.New()
	a.RegisterRoutes(r)
	return a, r
}

func postCallLogs(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/call-logs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	return res
}

type responseBody struct {
	Status  string                `json:"status"`
	Message string                `json:"message"`
	Details *intent.MeetingIntent `json:"details"`
	Detail  string                `json:"detail"`
}

func decode(t *testing.T, res *httptest.ResponseRecorder) responseBody {
	t.Helper()
	var out responseBody
	if err := json.Unmarshal(res.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", res.Body.String(), err)
	}
	return out
}

const confirmedBody = `{"callId":"call-42","timestamp":"2024-01-01T09:00:00Z","logs":{"transcript":[
	{"role":"user","transcript":"I'd like to book tomorrow at 2pm"},
	{"role":"user"},
	{"role":"user","transcript":"my email is a@b.com, name Alice"}
]}}`

func TestCallLogs_ConfirmedStartsBackgroundBooking(t *testing.T) {
	ex := &fakeExtractor{intent: intent.MeetingIntent{
		Scheduled: boolp(true),
		Time:      strp("2024-01-02T14:00:00"),
		Name:      strp("Alice"),
		Email:     strp("a@b.com"),
	}}
	bk := &fakeBooker{release: make(chan struct{})}
	a, r := newTestApp(ex, bk)

	done := make(chan TaskReport, 1)
	a.Tasks.OnDone = func(rep TaskReport) { done <- rep }

	res := postCallLogs(r, confirmedBody)

	// The response is written while the booking is still blocked.
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	out := decode(t, res)
	if out.Status != StatusBookingStarted || out.Details == nil || !out.Details.Confirmed() {
		t.Fatalf("unexpected response: %s", res.Body.String())
	}
	if ex.transcript != "user: I'd like to book tomorrow at 2pm\nuser: my email is a@b.com, name Alice" {
		t.Fatalf("unexpected transcript: %q", ex.transcript)
	}
	if !ex.now.Equal(today) {
		t.Fatalf("extractor got now=%s", ex.now)
	}

	close(bk.release)
	select {
	case rep := <-done:
		if rep.CallID != "call-42" || rep.Result.State != booking.StateScheduled {
			t.Fatalf("unexpected report: %+v", rep)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("booking task did not finish")
	}
	a.Tasks.Wait()

	if len(bk.requests) != 1 {
		t.Fatalf("expected one booking, got %d", len(bk.requests))
	}
	want := booking.Request{CallID: "call-42", Time: "2024-01-02T14:00:00", Name: "Alice", Email: "a@b.com"}
	if bk.requests[0] != want {
		t.Fatalf("request=%+v want %+v", bk.requests[0], want)
	}
}

func TestCallLogs_NoMeetingDetected(t *testing.T) {
	ex := &fakeExtractor{intent: intent.MeetingIntent{Scheduled: boolp(false)}}
	bk := &fakeBooker{}
	a, r := newTestApp(ex, bk)

	res := postCallLogs(r, `{"callId":"c","timestamp":"t","logs":{"transcript":[{"role":"user","transcript":"what are your prices?"}]}}`)
	a.Tasks.Wait()

	out := decode(t, res)
	if res.Code != http.StatusOK || out.Status != StatusNoMeeting {
		t.Fatalf("unexpected response %d: %s", res.Code, res.Body.String())
	}
	if out.Details == nil || out.Details.Scheduled == nil || *out.Details.Scheduled {
		t.Fatalf("expected intent details in response: %s", res.Body.String())
	}
	if len(bk.requests) != 0 {
		t.Fatalf("booking must not start")
	}
}

func TestCallLogs_PartialIntentIsDowngraded(t *testing.T) {
	ex := &fakeExtractor{intent: intent.MeetingIntent{
		Scheduled: boolp(true),
		Time:      strp("2024-01-02T14:00:00"),
		Email:     strp("a@b.com"),
	}}
	bk := &fakeBooker{}
	a, r := newTestApp(ex, bk)

	res := postCallLogs(r, confirmedBody)
	a.Tasks.Wait()

	out := decode(t, res)
	if out.Status != StatusNoMeeting {
		t.Fatalf("expected no_meeting_detected, got %s", out.Status)
	}
	if out.Details == nil || out.Details.Scheduled == nil || !*out.Details.Scheduled {
		t.Fatalf("model output should be returned unchanged: %s", res.Body.String())
	}
	if len(bk.requests) != 0 {
		t.Fatalf("booking must not start for a partial intent")
	}
}

func TestCallLogs_NoTranscriptSkipsExtraction(t *testing.T) {
	ex := &fakeExtractor{}
	_, r := newTestApp(ex, &fakeBooker{})

	bodies := []string{
		`{"callId":"c","timestamp":"t","logs":{}}`,
		`{"callId":"c","timestamp":"t","logs":{"transcript":[]}}`,
		`{"callId":"c","timestamp":"t","logs":{"transcript":[{"role":"user"},{"role":"agent","transcript":""}]}}`,
	}
	for _, body := range bodies {
		res := postCallLogs(r, body)
		out := decode(t, res)
		if res.Code != http.StatusOK || out.Status != StatusError || out.Message != "No transcript to analyze." {
			t.Fatalf("unexpected response for %s: %d %s", body, res.Code, res.Body.String())
		}
	}
	if ex.calls != 0 {
		t.Fatalf("extractor must not be invoked, got %d calls", ex.calls)
	}
}

func TestCallLogs_ExtractionFailureIsGeneric500(t *testing.T) {
	ex := &fakeExtractor{err: &intent.ExtractionError{Kind: intent.KindDecode, Err: errors.New("secret upstream detail")}}
	_, r := newTestApp(ex, &fakeBooker{})

	res := postCallLogs(r, confirmedBody)

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if strings.Contains(res.Body.String(), "secret") {
		t.Fatalf("internal detail leaked: %s", res.Body.String())
	}
	if decode(t, res).Detail != "Failed to analyze call logs." {
		t.Fatalf("unexpected body: %s", res.Body.String())
	}
}

func TestCallLogs_InvalidPayload(t *testing.T) {
	ex := &fakeExtractor{}
	_, r := newTestApp(ex, &fakeBooker{})

	for _, body := range []string{`not json`, `{"timestamp":"t","logs":{}}`, `{"callId":"c","timestamp":"t"}`} {
		res := postCallLogs(r, body)
		if res.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for %s, got %d", body, res.Code)
		}
	}
	if ex.calls != 0 {
		t.Fatalf("extractor must not be invoked")
	}
}

func TestRoot(t *testing.T) {
	_, r := newTestApp(&fakeExtractor{}, &fakeBooker{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	if res.Code != http.StatusOK || !bytes.Contains(res.Body.Bytes(), []byte("is running")) {
		t.Fatalf("unexpected root response %d: %s", res.Code, res.Body.String())
	}
}
