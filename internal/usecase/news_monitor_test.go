package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	"github.com/kimyeonkyu7453/SPP/internal/repository"
	"github.com/kimyeonkyu7453/SPP/internal/services/news"
	"github.com/kimyeonkyu7453/SPP/pkg/cache"
)

type fakeSearch struct {
	articles map[string][]models.NewsArticle
	fail     map[string]error
}

func (f *fakeSearch) Search(_ context.Context, kw string, display int) ([]models.NewsArticle, error) {
	if err := f.fail[kw]; err != nil {
		return nil, err
	}
	a := f.articles[kw]
	if len(a) > display {
		a = a[:display]
	}
	return a, nil
}

type fakeFetcher map[string]string

func (f fakeFetcher) Fetch(_ context.Context, link string) (string, error) {
	body, ok := f[link]
	if !ok {
		return "", errors.New("not found")
	}
	return body, nil
}

type capturePublisher struct {
	items []models.NewsItem
}

func (c *capturePublisher) PublishForecast(context.Context, *models.ForecastEvent) error { return nil }
func (c *capturePublisher) PublishNews(_ context.Context, items []models.NewsItem) error {
	c.items = append(c.items, items...)
	return nil
}
func (c *capturePublisher) Close() error { return nil }

func TestNewsMonitor(t *testing.T) {
	search := &fakeSearch{
		articles: map[string][]models.NewsArticle{
			"삼성전자": {
				{Title: "좋은 소식", Link: "a1", Description: "삼성전자 실적 개선"},
				{Title: "무관", Link: "a2", Description: "날씨 맑음"},
				{Title: "본문 없음", Link: "missing", Description: "삼성전자 하락"},
			},
			"현대차": {
				{Title: "중립", Link: "b1", Description: "현대차 발표"},
			},
		},
		fail: map[string]error{"네이버": errors.New("quota exceeded")},
	}
	fetcher := fakeFetcher{
		"a1": "<p>삼성전자 주가가 급등했다. 반도체 업황 회복</p>",
		"a2": "<p>오늘 날씨</p>",
		"b1": "현대차 신차 공개. 업계 관심",
	}
	c := cache.NewMemoryCache()
	defer c.Close()
	store := repository.NewCacheNewsStore(c, time.Hour)
	pub := &capturePublisher{}

	m := NewNewsMonitor(search, fetcher, news.NewLexicon(nil, nil), store, pub, &nopMetrics{},
		NewsConfig{Keywords: []string{"삼성전자", "현대차", "네이버"}, Display: 5, FetchArticles: true}, nil)

	snap, err := m.Monitor(context.Background())
	if err != nil {
		t.Fatalf("monitor: %v", err)
	}
	if len(snap.Items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(snap.Items), snap.Items)
	}
	if snap.Errors["네이버"] == "" {
		t.Fatalf("failed keyword should be reported: %+v", snap.Errors)
	}

	byKeyword := map[string]models.NewsItem{}
	for _, it := range snap.Items {
		byKeyword[it.Keyword] = it
	}
	samsung := byKeyword["삼성전자"]
	if samsung.Sentiment != models.SentimentPositive || samsung.Score != 1 {
		t.Fatalf("unexpected samsung item %+v", samsung)
	}
	if strings.Contains(samsung.AnalyzedText, "<p>") {
		t.Fatalf("markup left in analyzed text: %q", samsung.AnalyzedText)
	}
	hyundai := byKeyword["현대차"]
	if hyundai.Sentiment != models.SentimentNeutral || hyundai.Score != 0.5 {
		t.Fatalf("no lexicon hit should be neutral 0.5, got %+v", hyundai)
	}
	if len(pub.items) != 2 {
		t.Fatalf("expected 2 published items, got %d", len(pub.items))
	}

	got, err := m.Latest(context.Background(), "현대차", "")
	if err != nil || len(got) != 1 {
		t.Fatalf("filtered latest = %+v, %v", got, err)
	}
	got, _ = m.Latest(context.Background(), "", models.SentimentNegative)
	if len(got) != 0 {
		t.Fatalf("expected no negative items, got %+v", got)
	}
}

func TestNewsMonitorLatestBeforeFirstRun(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	m := NewNewsMonitor(&fakeSearch{}, nil, news.NewLexicon(nil, nil), repository.NewCacheNewsStore(c, time.Hour), nil, &nopMetrics{}, NewsConfig{}, nil)
	got, err := m.Latest(context.Background(), "", "")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty list, got %+v, %v", got, err)
	}
}

func TestNewsMonitorWithoutArticleFetch(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	search := &fakeSearch{articles: map[string][]models.NewsArticle{
		"셀트리온": {{Title: "t", Link: "x", Description: "셀트리온 적자 우려"}},
	}}
	m := NewNewsMonitor(search, nil, news.NewLexicon(nil, nil), repository.NewCacheNewsStore(c, time.Hour), nil, &nopMetrics{},
		NewsConfig{Keywords: []string{"셀트리온"}}, nil)
	snap, err := m.Monitor(context.Background())
	if err != nil {
		t.Fatalf("monitor: %v", err)
	}
	if len(snap.Items) != 1 || snap.Items[0].Sentiment != models.SentimentNegative {
		t.Fatalf("unexpected items %+v", snap.Items)
	}
}

func TestNewsSchedulerRejectsBadSchedule(t *testing.T) {
	if _, err := NewNewsScheduler(nil, "not a cron", time.Second, nil); err == nil {
		t.Fatalf("expected invalid schedule error")
	}
}
