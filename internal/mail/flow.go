package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailv1 "google.golang.org/api/gmail/v1"
)

// Flow handles the OAuth consent flow and token persistence for the Gmail
// account.
type Flow struct {
	config *oauth2.Config
	store  *tokenStore
}

// NewFlow reads the Google client-secret file and prepares an OAuth config
// with read-only and send scopes.
func NewFlow(credentialsFile, tokenFile, redirectURL string) (*Flow, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("mail: failed to read client secret file: %w", err)
	}
	config, err := google.ConfigFromJSON(b, gmailv1.GmailReadonlyScope, gmailv1.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("mail: failed to parse client secret file: %w", err)
	}
	config.RedirectURL = redirectURL
	return &Flow{config: config, store: &tokenStore{path: tokenFile}}, nil
}

// AuthURL returns the provider consent page URL to redirect the user to.
func (f *Flow) AuthURL(state string) string {
	return f.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for credentials and persists them.
func (f *Flow) Exchange(ctx context.Context, code string) error {
	tok, err := f.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("mail: token exchange failed: %w", err)
	}
	return f.store.save(tok)
}

// tokenSource returns an auto-refreshing token source that writes refreshed
// credentials back to the token file.
func (f *Flow) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := f.store.load()
	if err != nil {
		return nil, fmt.Errorf("mail: no stored credentials, visit /auth/google first: %w", err)
	}
	return &persistingTokenSource{
		source: f.config.TokenSource(ctx, tok),
		store:  f.store,
		last:   tok.AccessToken,
	}, nil
}

// tokenStore reads and writes the OAuth token file. The mutex keeps a
// scheduled run and an on-demand run from racing on a refresh rewrite.
type tokenStore struct {
	mu   sync.Mutex
	path string
}

func (s *tokenStore) load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func (s *tokenStore) save(tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("mail: failed to write token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("mail: failed to encode token: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("mail: failed to close token file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// persistingTokenSource wraps an oauth2.TokenSource and saves the token file
// whenever the underlying source hands back a refreshed access token.
type persistingTokenSource struct {
	source oauth2.TokenSource
	store  *tokenStore
	mu     sync.Mutex
	last   string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.source.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	changed := tok.AccessToken != p.last
	if changed {
		p.last = tok.AccessToken
	}
	p.mu.Unlock()

	if changed {
		if err := p.store.save(tok); err != nil {
			log.Printf("Mail: failed to persist refreshed token: %v", err)
		}
	}
	return tok, nil
}
