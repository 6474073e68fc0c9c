package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubRunner struct {
	summarized int
	err        error

	sentSubject string
}

func (s *stubRunner) Preview(_ context.Context) (int, error) {
	return s.summarized, s.err
}

func (s *stubRunner) SendDigest(_ context.Context, subject string) error {
	if s.err != nil {
		return s.err
	}
	s.sentSubject = subject
	return nil
}

type stubFlow struct {
	exchangeErr error
	gotCode     string
}

func (s *stubFlow) AuthURL(state string) string {
	return "https://accounts.example.com/consent?state=" + state
}

func (s *stubFlow) Exchange(_ context.Context, code string) error {
	s.gotCode = code
	return s.exchangeErr
}

func doRequest(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestIndexListsRoutes(t *testing.T) {
	s := New(":0", &stubRunner{}, &stubFlow{}, "now subject")

	rec := doRequest(t, s, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Routes []string `json:"routes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(body.Routes) != 3 {
		t.Errorf("Expected 3 routes, got %v", body.Routes)
	}
}

func TestIndexUnknownPath(t *testing.T) {
	s := New(":0", &stubRunner{}, &stubFlow{}, "now subject")
	if rec := doRequest(t, s, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", rec.Code)
	}
}

func TestAuthRedirects(t *testing.T) {
	s := New(":0", &stubRunner{}, &stubFlow{}, "now subject")

	rec := doRequest(t, s, "/auth/google")
	if rec.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://accounts.example.com/consent?state=state-token" {
		t.Errorf("Unexpected redirect location %q", loc)
	}
}

func TestCallbackExchangesCode(t *testing.T) {
	flow := &stubFlow{}
	s := New(":0", &stubRunner{}, flow, "now subject")

	rec := doRequest(t, s, "/oauth2/callback?code=abc123&state=state-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if flow.gotCode != "abc123" {
		t.Errorf("Expected code abc123 to be exchanged, got %q", flow.gotCode)
	}
}

func TestCallbackMissingCode(t *testing.T) {
	s := New(":0", &stubRunner{}, &stubFlow{}, "now subject")
	if rec := doRequest(t, s, "/oauth2/callback"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing code, got %d", rec.Code)
	}
}

func TestCallbackExchangeError(t *testing.T) {
	s := New(":0", &stubRunner{}, &stubFlow{exchangeErr: errors.New("boom")}, "now subject")
	if rec := doRequest(t, s, "/oauth2/callback?code=abc"); rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 for exchange failure, got %d", rec.Code)
	}
}

func TestTestDigest(t *testing.T) {
	s := New(":0", &stubRunner{summarized: 12}, &stubFlow{}, "now subject")

	rec := doRequest(t, s, "/test-digest")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		OK         bool `json:"ok"`
		Summarized int  `json:"summarized"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !body.OK || body.Summarized != 12 {
		t.Errorf("Unexpected response: %+v", body)
	}
}

func TestTestDigestError(t *testing.T) {
	s := New(":0", &stubRunner{err: errors.New("pipeline broke")}, &stubFlow{}, "now subject")
	if rec := doRequest(t, s, "/test-digest"); rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 for pipeline failure, got %d", rec.Code)
	}
}

func TestSendNow(t *testing.T) {
	runner := &stubRunner{}
	s := New(":0", runner, &stubFlow{}, "now subject")

	rec := doRequest(t, s, "/send-now")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if runner.sentSubject != "now subject" {
		t.Errorf("Expected the on-demand subject, got %q", runner.sentSubject)
	}

	var body struct {
		OK   bool `json:"ok"`
		Sent bool `json:"sent"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !body.OK || !body.Sent {
		t.Errorf("Unexpected response: %+v", body)
	}
}

func TestSendNowError(t *testing.T) {
	s := New(":0", &stubRunner{err: errors.New("send broke")}, &stubFlow{}, "now subject")
	if rec := doRequest(t, s, "/send-now"); rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 for send failure, got %d", rec.Code)
	}
}
