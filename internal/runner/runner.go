package runner

import (
	"context"
	"fmt"
	"log"
	"sync"

	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/hkomatsu/inbox-digest/internal/digest"
	"github.com/hkomatsu/inbox-digest/internal/extract"
	"github.com/hkomatsu/inbox-digest/internal/summarizer"
)

// MailSource is the slice of the mail client the pipeline reads from and
// sends through.
type MailSource interface {
	FetchRecent(ctx context.Context, limit int64) ([]*gmailv1.Message, error)
	Send(ctx context.Context, subject, htmlBody string) error
}

// Runner orchestrates the fetch -> extract -> summarize -> rank -> compose
// pipeline. The mutex serializes runs, so a scheduled digest and an
// on-demand one cannot overlap on the shared mail session and token file.
type Runner struct {
	mu         sync.Mutex
	maxResults int
	mail       MailSource
	summarizer summarizer.Summarizer
}

func New(maxResults int, mail MailSource, s summarizer.Summarizer) *Runner {
	return &Runner{maxResults: maxResults, mail: mail, summarizer: s}
}

// BuildDigest runs the pipeline up to composition and returns the rendered
// document along with the number of summarized messages.
func (r *Runner) BuildDigest(ctx context.Context) (string, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buildLocked(ctx)
}

func (r *Runner) buildLocked(ctx context.Context) (string, int, error) {
	log.Printf("Starting digest pipeline (max_results=%d)", r.maxResults)

	msgs, err := r.mail.FetchRecent(ctx, int64(r.maxResults))
	if err != nil {
		return "", 0, fmt.Errorf("runner: fetch failed: %w", err)
	}
	log.Printf("Fetched %d messages", len(msgs))

	items := make([]extract.Item, 0, len(msgs))
	for _, msg := range msgs {
		items = append(items, extract.FromMessage(msg))
	}

	summaries, err := r.summarizer.SummarizeBatch(ctx, items)
	if err != nil {
		return "", 0, fmt.Errorf("runner: summarize failed: %w", err)
	}
	log.Printf("Summarized %d messages", len(summaries))

	summarizer.Rank(summaries)

	return digest.Compose(summaries), len(summaries), nil
}

// Preview runs the pipeline without sending and reports how many messages
// were summarized.
func (r *Runner) Preview(ctx context.Context) (int, error) {
	_, n, err := r.BuildDigest(ctx)
	return n, err
}

// SendDigest builds the digest and mails it to the account owner.
func (r *Runner) SendDigest(ctx context.Context, subject string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	html, n, err := r.buildLocked(ctx)
	if err != nil {
		return err
	}
	if err := r.mail.Send(ctx, subject, html); err != nil {
		return fmt.Errorf("runner: send failed: %w", err)
	}
	log.Printf("Digest with %d summaries sent", n)
	return nil
}
