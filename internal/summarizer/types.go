package summarizer

import (
	"context"
	"sort"

	"github.com/hkomatsu/inbox-digest/internal/extract"
)

// Owner values the model may assign to a summary's next step. An empty owner
// means the model could not tell.
const (
	OwnerMe   = "me"
	OwnerThem = "them"
)

// Summary is one summarized, scored message. The JSON tags match the schema
// the model is instructed to return.
type Summary struct {
	Title        string `json:"title"`
	WhyItMatters string `json:"why_it_matters"`
	Action       string `json:"action"`
	Owner        string `json:"owner"`
	DueDate      string `json:"due_date"`
	URL          string `json:"url"`
	Score        int    `json:"score"`
}

// Summarizer turns extracted mail items into scored summaries.
type Summarizer interface {
	SummarizeBatch(ctx context.Context, items []extract.Item) ([]Summary, error)
}

// Rank sorts summaries by score, highest first. The sort is stable, so ties
// keep their prior relative order.
func Rank(summaries []Summary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Score > summaries[j].Score
	})
}
