package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hkomatsu/inbox-digest/internal/extract"
)

// maxBatch caps the number of model calls per digest run. Items beyond the
// cap are dropped from the output.
const maxBatch = 30

// maxPromptBody caps the message body embedded in a prompt.
const maxPromptBody = 1200

const systemPrompt = "You produce concise, executive email digests. Respond with VALID JSON only."

const userPromptFormat = `Summarize this email as JSON with keys:
{
  "title": "<=80 chars subject-style",
  "why_it_matters": "1-2 short sentences",
  "action": "clear next step or ''",
  "owner": "me|them|''",
  "due_date": "YYYY-MM-DD or ''"
}
Subject: %s
From: %s
Body:
%s
Only return JSON, nothing else.
`

// chatClient is the slice of the OpenAI client the summarizer uses.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAISummarizer summarizes messages one at a time through the OpenAI chat
// completion API.
type OpenAISummarizer struct {
	client      chatClient
	model       string
	temperature float32
}

func NewOpenAISummarizer(apiKey, model string, temperature float64) *OpenAISummarizer {
	return &OpenAISummarizer{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: float32(temperature),
	}
}

// SummarizeBatch summarizes at most the first maxBatch items, one synchronous
// model call per item. A provider error aborts the whole batch; unparseable
// model output does not.
func (s *OpenAISummarizer) SummarizeBatch(ctx context.Context, items []extract.Item) ([]Summary, error) {
	if len(items) > maxBatch {
		items = items[:maxBatch]
	}

	out := make([]Summary, 0, len(items))
	for _, item := range items {
		body := item.Body
		if r := []rune(body); len(r) > maxPromptBody {
			body = string(r[:maxPromptBody])
		}
		prompt := fmt.Sprintf(userPromptFormat, item.Subject, item.Sender, body)

		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.model,
			Temperature: s.temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("summarizer: chat completion failed: %w", err)
		}

		var content string
		if len(resp.Choices) > 0 {
			content = resp.Choices[0].Message.Content
		}

		summary, ok := parseSummary(content)
		if !ok {
			log.Printf("Summarizer: unparseable model output for %q, using fallback", item.Subject)
			summary = fallbackSummary(item)
		}
		summary.URL = item.URL
		summary.Score = scoreImportance(item.Body, item.Sender)
		out = append(out, summary)
	}

	return out, nil
}

var trailingJSONRegex = regexp.MustCompile(`(?s)\{.*\}$`)

// parseSummary parses the model's textual output. It tries the whole string
// first, then a trailing {...} object. The bool reports whether either parse
// succeeded; callers fall back to a default summary when it did not.
func parseSummary(content string) (Summary, bool) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var summary Summary
	if err := json.Unmarshal([]byte(content), &summary); err == nil {
		return summary, true
	}

	if m := trailingJSONRegex.FindString(content); m != "" {
		summary = Summary{}
		if err := json.Unmarshal([]byte(m), &summary); err == nil {
			return summary, true
		}
	}

	return Summary{}, false
}

func fallbackSummary(item extract.Item) Summary {
	title := item.Subject
	if title == "" {
		title = "(no subject)"
	}
	return Summary{Title: title}
}
