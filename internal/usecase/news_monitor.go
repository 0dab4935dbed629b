package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	domrepo "github.com/kimyeonkyu7453/SPP/internal/domain/repository"
	"github.com/kimyeonkyu7453/SPP/internal/domain/service"
	"github.com/kimyeonkyu7453/SPP/internal/services/news"
	"github.com/kimyeonkyu7453/SPP/pkg/logger"
)

var ErrMonitorRunning = errors.New("news monitoring already running")

// NewsConfig is the watchlist and search settings.
type NewsConfig struct {
	Keywords      []string
	Display       int
	FetchArticles bool
}

// NewsMonitor searches news per keyword, keeps stock related sentences and labels their sentiment.
type NewsMonitor struct {
	search  service.NewsSearcher
	fetcher service.ArticleFetcher
	scorer  service.SentimentScorer
	store   domrepo.NewsStore
	events  domrepo.EventPublisher
	metrics domrepo.Metrics
	cfg     NewsConfig
	l       *logger.Logger
	now     func() time.Time
	running atomic.Bool
}

// NewNewsMonitor wires the monitor. fetcher and events may be nil.
func NewNewsMonitor(
	search service.NewsSearcher,
	fetcher service.ArticleFetcher,
	scorer service.SentimentScorer,
	store domrepo.NewsStore,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	cfg NewsConfig,
	l *logger.Logger,
) *NewsMonitor {
	if l == nil {
		l = logger.NewNop()
	}
	if cfg.Display <= 0 {
		cfg.Display = 5
	}
	return &NewsMonitor{
		search:  search,
		fetcher: fetcher,
		scorer:  scorer,
		store:   store,
		events:  events,
		metrics: metrics,
		cfg:     cfg,
		l:       l,
		now:     time.Now,
	}
}

// Monitor runs one pass over the watchlist, one goroutine per keyword, and replaces the
// stored snapshot with the result. Keyword failures are reported in the snapshot.
func (m *NewsMonitor) Monitor(ctx context.Context) (*models.NewsSnapshot, error) {
	if !m.running.CompareAndSwap(false, true) {
		return nil, ErrMonitorRunning
	}
	defer m.running.Store(false)

	start := m.now()
	type keywordResult struct {
		keyword string
		items   []models.NewsItem
		err     error
	}
	results := make([]keywordResult, len(m.cfg.Keywords))

	var wg sync.WaitGroup
	for i, kw := range m.cfg.Keywords {
		wg.Add(1)
		go func(i int, kw string) {
			defer wg.Done()
			items, err := m.analyzeKeyword(ctx, kw)
			results[i] = keywordResult{keyword: kw, items: items, err: err}
		}(i, kw)
	}
	wg.Wait()

	snap := &models.NewsSnapshot{Items: []models.NewsItem{}, StartedAt: start.UTC()}
	for _, r := range results {
		if r.err != nil {
			if snap.Errors == nil {
				snap.Errors = make(map[string]string)
			}
			snap.Errors[r.keyword] = r.err.Error()
			m.metrics.RecordError("news_search")
			continue
		}
		snap.Items = append(snap.Items, r.items...)
	}
	snap.Duration = m.now().Sub(start).Milliseconds()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.store.Replace(ctx, snap); err != nil {
		return nil, fmt.Errorf("store news snapshot: %w", err)
	}
	if m.events != nil {
		if err := m.events.PublishNews(ctx, snap.Items); err != nil {
			m.metrics.RecordError("news_publish")
			m.l.Error("publish news failed", logger.Error(err))
		}
	}
	m.metrics.RecordLatency("news_monitor", m.now().Sub(start).Seconds())
	m.l.Info("news monitoring finished",
		logger.Int("keywords", len(m.cfg.Keywords)),
		logger.Int("items", len(snap.Items)),
		logger.Int("failed_keywords", len(snap.Errors)),
		logger.Int64("duration_ms", snap.Duration),
	)
	return snap, nil
}

func (m *NewsMonitor) analyzeKeyword(ctx context.Context, keyword string) ([]models.NewsItem, error) {
	articles, err := m.search.Search(ctx, keyword, m.cfg.Display)
	if err != nil {
		return nil, err
	}
	items := make([]models.NewsItem, 0, len(articles))
	for _, a := range articles {
		text := a.Description
		if m.fetcher != nil && m.cfg.FetchArticles {
			body, err := m.fetcher.Fetch(ctx, a.Link)
			if err != nil {
				m.l.Debug("article skipped", logger.String("link", a.Link), logger.Error(err))
				continue
			}
			text = a.Description + " " + news.CleanText(body)
		}
		related := news.ExtractRelated(text, m.cfg.Keywords)
		if related == "" {
			continue
		}
		analyzed := news.Preprocess(related)
		label, score := news.Label(m.scorer.Score(analyzed))
		items = append(items, models.NewsItem{
			Keyword:      keyword,
			Title:        a.Title,
			Link:         a.Link,
			Description:  a.Description,
			Sentiment:    label,
			Score:        math.Round(score*100) / 100,
			PubDate:      a.PubDate,
			AnalyzedText: analyzed,
			AnalyzedAt:   m.now().UTC(),
		})
		m.metrics.RecordNewsItem(keyword, label)
	}
	return items, nil
}

// Latest returns the stored items, optionally filtered by keyword and sentiment.
// Before the first run it returns an empty list.
func (m *NewsMonitor) Latest(ctx context.Context, keyword, sentiment string) ([]models.NewsItem, error) {
	snap, err := m.store.Latest(ctx)
	if errors.Is(err, domrepo.ErrNotFound) {
		return []models.NewsItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]models.NewsItem, 0, len(snap.Items))
	for _, it := range snap.Items {
		if keyword != "" && !strings.EqualFold(it.Keyword, keyword) {
			continue
		}
		if sentiment != "" && it.Sentiment != sentiment {
			continue
		}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
	return out, nil
}
