package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	domrepo "github.com/kimyeonkyu7453/SPP/internal/domain/repository"
)

// MemoryForecastStore keeps the most recent runs per symbol in process.
type MemoryForecastStore struct {
	mu      sync.RWMutex
	maxRuns int
	runs    map[string][][]models.ForecastRecord
}

var _ domrepo.ForecastStore = (*MemoryForecastStore)(nil)

func NewMemoryForecastStore(maxRuns int) *MemoryForecastStore {
	if maxRuns <= 0 {
		maxRuns = 10
	}
	return &MemoryForecastStore{maxRuns: maxRuns, runs: make(map[string][][]models.ForecastRecord)}
}

func (m *MemoryForecastStore) Init(context.Context) error { return nil }

func (m *MemoryForecastStore) Save(_ context.Context, res *models.ForecastResult) error {
	recs := res.Records()
	if len(recs) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	runs := append(m.runs[res.Symbol], recs)
	if len(runs) > m.maxRuns {
		runs = runs[len(runs)-m.maxRuns:]
	}
	m.runs[res.Symbol] = runs
	return nil
}

// History matches CHForecastStore ordering: newest run first, steps ascending.
func (m *MemoryForecastStore) History(_ context.Context, symbol string, limit int) ([]models.ForecastRecord, error) {
	m.mu.RLock()
	runs := m.runs[symbol]
	m.mu.RUnlock()

	ordered := make([][]models.ForecastRecord, len(runs))
	copy(ordered, runs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i][0].CreatedAt.After(ordered[j][0].CreatedAt)
	})

	out := make([]models.ForecastRecord, 0, limit)
	for _, run := range ordered {
		for _, r := range run {
			if len(out) == limit {
				return out, nil
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryForecastStore) Health(context.Context) error { return nil }

func (m *MemoryForecastStore) Close() error { return nil }
