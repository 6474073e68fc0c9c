package extract

import (
	"encoding/base64"
	"html"
	"regexp"
	"strings"

	gmailv1 "google.golang.org/api/gmail/v1"
)

// Item is one mail message reduced to the fields the summarizer needs.
type Item struct {
	Subject string
	Sender  string
	Body    string
	URL     string
}

// maxBodyLen caps extracted text so a single huge message cannot blow up
// the prompt size downstream.
const maxBodyLen = 4000

var (
	scriptRegex = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRegex  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	brRegex     = regexp.MustCompile(`(?is)<br\s*/?>`)
	pCloseRegex = regexp.MustCompile(`(?is)</p>`)
	tagRegex    = regexp.MustCompile(`(?s)<[^>]*>`)
	preNLRegex  = regexp.MustCompile(`\s+\n`)
	hspaceRegex = regexp.MustCompile(`[ \t]+`)
)

// Markers that usually introduce a quoted reply chain or signature. Checked
// in order; the first one found after replyMarkerOffset truncates the text.
var replyMarkers = []string{"-----Original Message-----", "On ", "wrote:", "From:"}

// replyMarkerOffset keeps short intros intact: a marker within the first 200
// bytes is assumed to be part of the actual message, not a quoted reply.
const replyMarkerOffset = 200

// FromMessage builds an Item from a full-format Gmail message. Extraction is
// best effort and never fails: missing or undecodable bodies degrade to the
// provider snippet or to an empty string.
func FromMessage(msg *gmailv1.Message) Item {
	item := Item{Subject: "(No Subject)"}
	if msg == nil {
		return item
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "Subject":
				item.Subject = h.Value
			case "From":
				item.Sender = h.Value
			}
		}
	}
	if msg.ThreadId != "" {
		item.URL = "https://mail.google.com/mail/u/0/#inbox/" + msg.ThreadId
	}
	item.Body = Text(msg)
	return item
}

// Text returns best-effort plain text from a Gmail message resource.
func Text(msg *gmailv1.Message) string {
	if msg == nil {
		return ""
	}
	payload := msg.Payload
	if payload == nil {
		return clean(msg.Snippet)
	}

	// Simple text/plain body.
	if payload.MimeType == "text/plain" {
		return clean(decodePart(payload))
	}

	// Multipart: prefer the first text/plain part, then the first text/html.
	if len(payload.Parts) > 0 {
		var plain, htmlText string
		for _, p := range payload.Parts {
			switch p.MimeType {
			case "text/plain":
				if plain == "" {
					plain = decodePart(p)
				}
			case "text/html":
				if htmlText == "" {
					htmlText = decodePart(p)
				}
			}
		}
		if plain != "" {
			return clean(plain)
		}
		if htmlText != "" {
			return clean(htmlToText(htmlText))
		}
	}

	// Fall back to the short snippet Gmail computes server-side.
	return clean(msg.Snippet)
}

// decodePart decodes a part's base64url body data. Decode failures yield an
// empty string rather than an error.
func decodePart(part *gmailv1.MessagePart) string {
	if part == nil || part.Body == nil || part.Body.Data == "" {
		return ""
	}
	data := strings.TrimRight(part.Body.Data, "=")
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return ""
	}
	return string(b)
}

// htmlToText is a tiny HTML-to-text conversion: drop script/style blocks,
// turn line breaks and paragraph closers into newlines, strip remaining tags,
// and unescape entities.
func htmlToText(s string) string {
	s = scriptRegex.ReplaceAllString(s, "")
	s = styleRegex.ReplaceAllString(s, "")
	s = brRegex.ReplaceAllString(s, "\n")
	s = pCloseRegex.ReplaceAllString(s, "\n\n")
	s = tagRegex.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}

// clean trims quoted replies and signatures, collapses whitespace, and caps
// the result at maxBodyLen characters.
func clean(s string) string {
	for _, marker := range replyMarkers {
		if i := strings.Index(s, marker); i > replyMarkerOffset {
			s = s[:i]
			break
		}
	}
	s = preNLRegex.ReplaceAllString(s, "\n")
	s = hspaceRegex.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxBodyLen {
		s = string(r[:maxBodyLen])
	}
	return s
}
