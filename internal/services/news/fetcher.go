package news

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

var ErrNoArticleBody = errors.New("no article body found")

// articleSelectors are tried in order; the first that yields enough text wins.
var articleSelectors = []string{
	"#dic_area",
	"#articleBodyContents",
	"#newsct_article",
	"[itemprop='articleBody']",
	".article-body",
	"article",
	"main",
}

const minBodyRunes = 40

// CollyFetcher downloads an article page and extracts its body text.
type CollyFetcher struct {
	userAgent string
	timeout   time.Duration
}

func NewCollyFetcher(userAgent string, timeout time.Duration) *CollyFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CollyFetcher{userAgent: userAgent, timeout: timeout}
}

// Fetch visits link once and returns the cleaned body of the first matching selector.
func (f *CollyFetcher) Fetch(ctx context.Context, link string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := colly.NewCollector(colly.AllowURLRevisit())
	if f.userAgent != "" {
		c.UserAgent = f.userAgent
	}
	c.SetRequestTimeout(f.timeout)
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	found := make(map[string]string, len(articleSelectors))
	for _, sel := range articleSelectors {
		sel := sel
		c.OnHTML(sel, func(e *colly.HTMLElement) {
			if _, ok := found[sel]; !ok {
				found[sel] = CleanText(e.Text)
			}
		})
	}

	var visitErr error
	c.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("fetch %s: status %d: %w", link, r.StatusCode, err)
	})

	if err := c.Visit(link); err != nil {
		return "", fmt.Errorf("fetch %s: %w", link, err)
	}
	if visitErr != nil {
		return "", visitErr
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	for _, sel := range articleSelectors {
		if body := found[sel]; len([]rune(body)) >= minBodyRunes {
			return strings.TrimSpace(body), nil
		}
	}
	return "", ErrNoArticleBody
}
