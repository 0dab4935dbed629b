package news

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
)

// maxAnalyzedRunes bounds the text handed to the scorer.
const maxAnalyzedRunes = 2000

// CleanText strips markup and entities and collapses whitespace.
func CleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// ExtractRelated keeps the ". " separated sentences that mention any keyword, joined by a space.
func ExtractRelated(text string, keywords []string) string {
	var kept []string
	for _, sentence := range strings.Split(text, ". ") {
		for _, kw := range keywords {
			if kw != "" && strings.Contains(sentence, kw) {
				kept = append(kept, sentence)
				break
			}
		}
	}
	return strings.Join(kept, " ")
}

// Preprocess normalizes text before scoring: whitespace collapsed, length capped.
func Preprocess(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= maxAnalyzedRunes {
		return text
	}
	r := []rune(text)
	return string(r[:maxAnalyzedRunes])
}

// Label maps a score to its sentiment label. A missing score is neutral at 0.5.
func Label(score float64, ok bool) (string, float64) {
	if !ok {
		return models.SentimentNeutral, 0.5
	}
	switch {
	case score >= 0.6:
		return models.SentimentPositive, score
	case score >= 0.4:
		return models.SentimentNeutral, score
	default:
		return models.SentimentNegative, score
	}
}
