package repository

import (
	"context"
	"testing"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	"github.com/kimyeonkyu7453/SPP/pkg/kafka"
)

type sentMessage struct {
	topic string
	key   string
	value interface{}
}

type fakePublisher struct {
	sent []sentMessage
}

func (f *fakePublisher) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.sent = append(f.sent, sentMessage{topic, string(key), value})
	return nil
}

func (f *fakePublisher) PublishBatch(_ context.Context, topic string, msgs []kafka.Message) error {
	for _, m := range msgs {
		f.sent = append(f.sent, sentMessage{topic, string(m.Key), m.Value})
	}
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func TestKafkaEventsKeysBySymbolAndKeyword(t *testing.T) {
	fp := &fakePublisher{}
	ev := NewKafkaEvents(fp, KafkaTopics{ForecastEvents: "done", News: "news"}, nil)
	ctx := context.Background()

	if err := ev.PublishForecast(ctx, &models.ForecastEvent{Symbol: "005930.KS"}); err != nil {
		t.Fatalf("publish forecast: %v", err)
	}
	if err := ev.PublishNews(ctx, nil); err != nil {
		t.Fatalf("empty news should be a no-op: %v", err)
	}
	if err := ev.PublishNews(ctx, []models.NewsItem{{Keyword: "네이버"}, {Keyword: "현대차"}}); err != nil {
		t.Fatalf("publish news: %v", err)
	}
	if len(fp.sent) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(fp.sent))
	}
	if fp.sent[0].topic != "done" || fp.sent[0].key != "005930.KS" {
		t.Fatalf("unexpected forecast message %+v", fp.sent[0])
	}
	if fp.sent[2].topic != "news" || fp.sent[2].key != "현대차" {
		t.Fatalf("unexpected news message %+v", fp.sent[2])
	}
}

func TestKafkaJobQueue(t *testing.T) {
	fp := &fakePublisher{}
	q := NewKafkaJobQueue(fp, "jobs")
	if err := q.Enqueue(context.Background(), &models.ForecastJob{Token: "t", Symbol: "AAPL"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(fp.sent) != 1 || fp.sent[0].topic != "jobs" || fp.sent[0].key != "AAPL" {
		t.Fatalf("unexpected %+v", fp.sent)
	}
}
