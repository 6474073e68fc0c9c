package extract

import (
	"encoding/base64"
	"strings"
	"testing"

	gmailv1 "google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func plainMessage(body string) *gmailv1.Message {
	return &gmailv1.Message{
		Payload: &gmailv1.MessagePart{
			MimeType: "text/plain",
			Body:     &gmailv1.MessagePartBody{Data: b64(body)},
		},
	}
}

func TestTextPlain(t *testing.T) {
	got := Text(plainMessage("Hello there, quick question about the invoice."))
	if got != "Hello there, quick question about the invoice." {
		t.Errorf("Unexpected extracted text: %q", got)
	}
}

func TestTextPrefersPlainOverHTML(t *testing.T) {
	msg := &gmailv1.Message{
		Payload: &gmailv1.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmailv1.MessagePart{
				{
					MimeType: "text/html",
					Body:     &gmailv1.MessagePartBody{Data: b64("<p>html version</p>")},
				},
				{
					MimeType: "text/plain",
					Body:     &gmailv1.MessagePartBody{Data: b64("plain version")},
				},
			},
		},
	}
	got := Text(msg)
	if got != "plain version" {
		t.Errorf("Expected plain part to win, got %q", got)
	}
}

func TestTextHTMLConversion(t *testing.T) {
	html := `<html><head><style>body { color: red; }</style></head>` +
		`<body><script>alert("x")</script><p>First paragraph</p>Line one<br/>Line two &amp; more</body></html>`
	msg := &gmailv1.Message{
		Payload: &gmailv1.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmailv1.MessagePart{
				{
					MimeType: "text/html",
					Body:     &gmailv1.MessagePartBody{Data: b64(html)},
				},
			},
		},
	}
	got := Text(msg)
	for _, banned := range []string{"<", ">", "alert", "color: red"} {
		if strings.Contains(got, banned) {
			t.Errorf("Expected %q to be stripped, got %q", banned, got)
		}
	}
	for _, want := range []string{"First paragraph", "Line one\nLine two & more"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q, got %q", want, got)
		}
	}
}

func TestTextSnippetFallback(t *testing.T) {
	msg := &gmailv1.Message{
		Snippet: "snippet text",
		Payload: &gmailv1.MessagePart{MimeType: "multipart/mixed"},
	}
	if got := Text(msg); got != "snippet text" {
		t.Errorf("Expected snippet fallback, got %q", got)
	}
}

func TestTextUndecodableBody(t *testing.T) {
	msg := &gmailv1.Message{
		Payload: &gmailv1.MessagePart{
			MimeType: "text/plain",
			Body:     &gmailv1.MessagePartBody{Data: "!!! not base64 !!!"},
		},
	}
	if got := Text(msg); got != "" {
		t.Errorf("Expected empty text for undecodable body, got %q", got)
	}
}

func TestTextNeverExceedsCap(t *testing.T) {
	got := Text(plainMessage(strings.Repeat("a", 5000)))
	if len([]rune(got)) > 4000 {
		t.Errorf("Expected text capped at 4000 chars, got %d", len([]rune(got)))
	}
}

func TestCleanDropsQuotedReplyAfterOffset(t *testing.T) {
	body := strings.Repeat("x", 210) + " she wrote: something secret"
	got := Text(plainMessage(body))
	if strings.Contains(got, "secret") {
		t.Errorf("Expected quoted reply to be dropped, got %q", got)
	}
	if !strings.Contains(got, strings.Repeat("x", 210)) {
		t.Errorf("Expected intro to be kept, got %q", got)
	}
}

func TestCleanKeepsEarlyMarker(t *testing.T) {
	body := "Earlier you wrote: thanks for the update"
	got := Text(plainMessage(body))
	if got != body {
		t.Errorf("Expected early marker to be retained, got %q", got)
	}
}

func TestCleanCollapsesWhitespace(t *testing.T) {
	got := Text(plainMessage("a  \t b   \ncd"))
	if got != "a b\ncd" {
		t.Errorf("Unexpected whitespace handling: %q", got)
	}
}

func TestFromMessage(t *testing.T) {
	msg := &gmailv1.Message{
		ThreadId: "thread123",
		Payload: &gmailv1.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmailv1.MessagePartHeader{
				{Name: "Subject", Value: "Budget review"},
				{Name: "From", Value: "Alice <alice@example.com>"},
			},
			Body: &gmailv1.MessagePartBody{Data: b64("please approve the budget")},
		},
	}

	item := FromMessage(msg)
	if item.Subject != "Budget review" {
		t.Errorf("Expected subject 'Budget review', got %q", item.Subject)
	}
	if item.Sender != "Alice <alice@example.com>" {
		t.Errorf("Unexpected sender %q", item.Sender)
	}
	if item.URL != "https://mail.google.com/mail/u/0/#inbox/thread123" {
		t.Errorf("Unexpected URL %q", item.URL)
	}
	if item.Body != "please approve the budget" {
		t.Errorf("Unexpected body %q", item.Body)
	}
}

func TestFromMessageDefaults(t *testing.T) {
	item := FromMessage(&gmailv1.Message{Snippet: "hi"})
	if item.Subject != "(No Subject)" {
		t.Errorf("Expected default subject, got %q", item.Subject)
	}
	if item.URL != "" {
		t.Errorf("Expected empty URL without a thread id, got %q", item.URL)
	}
	if item.Body != "hi" {
		t.Errorf("Expected snippet body, got %q", item.Body)
	}
}
