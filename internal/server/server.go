package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"
)

// DigestRunner is the part of the pipeline the HTTP surface triggers.
type DigestRunner interface {
	Preview(ctx context.Context) (int, error)
	SendDigest(ctx context.Context, subject string) error
}

// AuthFlow is the part of the OAuth flow the HTTP surface drives.
type AuthFlow interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) error
}

// Server exposes the auth flow and the digest trigger routes.
type Server struct {
	server     *http.Server
	runner     DigestRunner
	flow       AuthFlow
	nowSubject string
}

func New(addr string, runner DigestRunner, flow AuthFlow, nowSubject string) *Server {
	s := &Server{runner: runner, flow: flow, nowSubject: nowSubject}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/auth/google", s.handleAuth)
	mux.HandleFunc("/oauth2/callback", s.handleCallback)
	mux.HandleFunc("/test-digest", s.handleTestDigest)
	mux.HandleFunc("/send-now", s.handleSendNow)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins serving HTTP in the background. Call Shutdown to stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("server: failed to listen on %s: %w", s.server.Addr, err)
	}
	go func() {
		log.Printf("HTTP server listening on %s", s.server.Addr)
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Server: failed to write response: %v", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]any{
		"routes": []string{"/auth/google", "/test-digest", "/send-now"},
	})
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.flow.AuthURL("state-token"), http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing 'code' parameter", http.StatusBadRequest)
		return
	}
	if err := s.flow.Exchange(r.Context(), code); err != nil {
		log.Printf("OAuth callback failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"ok":      true,
		"message": "Gmail linked successfully! You can now call /test-digest.",
	})
}

func (s *Server) handleTestDigest(w http.ResponseWriter, r *http.Request) {
	n, err := s.runner.Preview(r.Context())
	if err != nil {
		log.Printf("Test digest failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "summarized": n})
}

func (s *Server) handleSendNow(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.SendDigest(r.Context(), s.nowSubject); err != nil {
		log.Printf("Send-now failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "sent": true})
}
