package digest

import (
	"fmt"
	"html"
	"strings"

	"github.com/hkomatsu/inbox-digest/internal/summarizer"
)

// How many ranked summaries each section holds. Summaries past both sections
// are left out of the document entirely.
const (
	topCount  = 5
	restCount = 10
)

// Compose renders ranked summaries into a complete HTML document: the top
// five as "Must Know", the next ten as "Other Highlights". All model-derived
// text is escaped before being embedded.
func Compose(summaries []summarizer.Summary) string {
	top := summaries
	if len(top) > topCount {
		top = top[:topCount]
	}
	var rest []summarizer.Summary
	if len(summaries) > topCount {
		rest = summaries[topCount:]
		if len(rest) > restCount {
			rest = rest[:restCount]
		}
	}

	var sb strings.Builder

	sb.WriteString(`<!DOCTYPE html><html><head><style>
body { font-family: Arial, Helvetica, sans-serif; max-width: 700px; margin: 0 auto; padding: 20px; line-height: 1.45; color: #333; }
h2 { color: #1a1a2e; border-bottom: 2px solid #e94560; padding-bottom: 10px; }
h3 { color: #16213e; }
li { margin-bottom: 12px; }
li div { color: #555; }
.footer { color: #888; }
</style></head><body>`)

	sb.WriteString("<h2>Must Know</h2><ol>")
	for _, s := range top {
		writeEntry(&sb, s)
	}
	sb.WriteString("</ol>")

	sb.WriteString("<h3>Other Highlights</h3><ul>")
	for _, s := range rest {
		writeEntry(&sb, s)
	}
	sb.WriteString("</ul>")

	sb.WriteString(`<hr/><small class="footer">Inbox Digest &middot; generated locally</small></body></html>`)

	return sb.String()
}

func writeEntry(sb *strings.Builder, s summarizer.Summary) {
	href := s.URL
	if href == "" {
		href = "#"
	}
	sb.WriteString(fmt.Sprintf(`<li><a href="%s" target="_blank"><b>%s</b></a>`,
		html.EscapeString(href), html.EscapeString(s.Title)))
	sb.WriteString(fmt.Sprintf("<div>%s</div>", html.EscapeString(s.WhyItMatters)))
	if s.Action != "" {
		sb.WriteString(fmt.Sprintf("<div><i>Action:</i> %s</div>", html.EscapeString(s.Action)))
	}
	sb.WriteString("</li>")
}
