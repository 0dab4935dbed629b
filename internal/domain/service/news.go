package service

import (
	"context"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
)

// NewsSearcher finds recent articles for a keyword.
type NewsSearcher interface {
	Search(ctx context.Context, keyword string, display int) ([]models.NewsArticle, error)
}

// ArticleFetcher downloads the body text of an article.
type ArticleFetcher interface {
	Fetch(ctx context.Context, link string) (string, error)
}

// SentimentScorer rates text in [0,1]; ok is false when the text carries no signal.
type SentimentScorer interface {
	Score(text string) (score float64, ok bool)
}
