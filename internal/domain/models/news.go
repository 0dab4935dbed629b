package models

import "time"

// Sentiment labels match the ones shown to users.
const (
	SentimentPositive = "긍정"
	SentimentNeutral  = "중립"
	SentimentNegative = "부정"
)

// NewsItem is one analyzed article.
type NewsItem struct {
	Keyword      string    `json:"keyword"`
	Title        string    `json:"title"`
	Link         string    `json:"link"`
	Description  string    `json:"description"`
	Sentiment    string    `json:"sentiment"`
	Score        float64   `json:"score"`
	PubDate      string    `json:"pub_date"`
	AnalyzedText string    `json:"analyzed_text"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
}

// NewsArticle is a raw search hit before analysis.
type NewsArticle struct {
	Title       string
	Link        string
	Description string
	PubDate     string
}

// NewsSnapshot is the result of one monitoring run.
type NewsSnapshot struct {
	Items     []NewsItem        `json:"items"`
	Errors    map[string]string `json:"errors,omitempty"`
	StartedAt time.Time         `json:"started_at"`
	Duration  int64             `json:"duration_ms"`
}
