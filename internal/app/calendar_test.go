package app

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

func newOAuthRouter(tokenURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	a := &App{
		Tasks: NewDispatcher(log.New(io.Discard, "", 0)),
		OAuth: &oauth2.Config{
			ClientID:     "client-1",
			ClientSecret: "secret",
			RedirectURL:  "http://localhost:8004/oauth2callback",
			Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.example.com/o/oauth2/auth",
				TokenURL: tokenURL,
			},
		},
	}
	r := gin.New()
	a.RegisterRoutes(r)
	return r
}

func TestGoogleAuthHandler(t *testing.T) {
	r := newOAuthRouter("https://accounts.example.com/token")

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/auth", nil)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body struct {
		AuthURL string `json:"auth_url"`
		State   string `json:"state"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	u, err := url.Parse(body.AuthURL)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	q := u.Query()
	if q.Get("client_id") != "client-1" || q.Get("access_type") != "offline" || q.Get("state") != body.State {
		t.Fatalf("unexpected auth url: %s", body.AuthURL)
	}
}

func issueState(t *testing.T, r http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/calendar/auth", nil)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	var body struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil || body.State == "" {
		t.Fatalf("auth: %d %s", res.Code, res.Body.String())
	}
	return body.State
}

func callback(r http.Handler, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/oauth2callback"+query, nil)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	return res
}

func TestGoogleOAuth2Callback(t *testing.T) {
	exchanges := 0
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges++
		_ = r.ParseForm()
		if r.Form.Get("code") != "abc" {
			t.Errorf("unexpected code: %s", r.Form.Get("code"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","refresh_token":"rt-1","expires_in":3600}`))
	}))
	defer tokenSrv.Close()
	r := newOAuthRouter(tokenSrv.URL)

	state := issueState(t, r)
	res := callback(r, "?code=abc&state="+url.QueryEscape(state))
	if res.Code != http.StatusOK || !strings.Contains(res.Body.String(), `"refresh_token":"rt-1"`) {
		t.Fatalf("unexpected response %d: %s", res.Code, res.Body.String())
	}

	// A state is accepted once.
	if res := callback(r, "?code=abc&state="+url.QueryEscape(state)); res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on replayed state, got %d", res.Code)
	}
	if res := callback(r, "?code=abc&state=forged"); res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on unknown state, got %d", res.Code)
	}
	if res := callback(r, "?code=abc"); res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without state, got %d", res.Code)
	}
	if res := callback(r, ""); res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without code, got %d", res.Code)
	}
	if exchanges != 1 {
		t.Fatalf("expected a single token exchange, got %d", exchanges)
	}
}

func TestOAuthStates_Expire(t *testing.T) {
	var s oauthStates
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	fresh := s.issue(now)
	if !s.consume(fresh, now.Add(oauthStateTTL)) {
		t.Fatalf("state should be valid until its ttl")
	}
	stale := s.issue(now)
	if s.consume(stale, now.Add(oauthStateTTL+time.Second)) {
		t.Fatalf("expired state must be rejected")
	}
}

func TestOAuthRoutesAbsentWithoutConfig(t *testing.T) {
	_, r := newTestApp(&fakeExtractor{}, &fakeBooker{})
	req := httptest.NewRequest(http.MethodGet, "/api/calendar/auth", nil)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}
