package repository

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	domrepo "github.com/kimyeonkyu7453/SPP/internal/domain/repository"
	"github.com/kimyeonkyu7453/SPP/internal/services/forecast"
	"github.com/kimyeonkyu7453/SPP/pkg/cache"
)

func exerciseCheckpoints(t *testing.T, s forecast.CheckpointStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Load(ctx, "run/1"); !errors.Is(err, forecast.ErrCheckpointNotFound) {
		t.Fatalf("empty slot: expected ErrCheckpointNotFound, got %v", err)
	}
	if err := s.Save(ctx, "run/1", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, "run/1", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Load(ctx, "run/1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(got, []byte(`{"a":2}`)) {
		t.Fatalf("load = %s, want latest save", got)
	}
	if err := s.Delete(ctx, "run/1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "run/1"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if _, err := s.Load(ctx, "run/1"); !errors.Is(err, forecast.ErrCheckpointNotFound) {
		t.Fatalf("after delete: expected ErrCheckpointNotFound, got %v", err)
	}
}

func TestFileCheckpoints(t *testing.T) {
	s, err := NewFileCheckpoints(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	exerciseCheckpoints(t, s)
}

func TestCacheCheckpoints(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	exerciseCheckpoints(t, NewCacheCheckpoints(mc, time.Hour))
}

func TestCacheNewsStore(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	s := NewCacheNewsStore(mc, time.Hour)
	ctx := context.Background()

	if _, err := s.Latest(ctx); !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	snap := &models.NewsSnapshot{Items: []models.NewsItem{{Keyword: "삼성전자", Title: "t", Sentiment: models.SentimentPositive, Score: 0.7}}}
	if err := s.Replace(ctx, snap); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := s.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Sentiment != models.SentimentPositive {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}
