package forecast

import (
	"context"
	"sync"
)

// CheckpointStore keeps serialized weight snapshots in named slots. Save overwrites.
type CheckpointStore interface {
	Save(ctx context.Context, slot string, data []byte) error
	Load(ctx context.Context, slot string) ([]byte, error)
	Delete(ctx context.Context, slot string) error
}

// MemoryCheckpoints is a process-local CheckpointStore.
type MemoryCheckpoints struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

var _ CheckpointStore = (*MemoryCheckpoints)(nil)

func NewMemoryCheckpoints() *MemoryCheckpoints {
	return &MemoryCheckpoints{slots: make(map[string][]byte)}
}

func (m *MemoryCheckpoints) Save(_ context.Context, slot string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	m.mu.Lock()
	m.slots[slot] = buf
	m.mu.Unlock()
	return nil
}

func (m *MemoryCheckpoints) Load(_ context.Context, slot string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.slots[slot]
	if !ok {
		return nil, ErrCheckpointNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryCheckpoints) Delete(_ context.Context, slot string) error {
	m.mu.Lock()
	delete(m.slots, slot)
	m.mu.Unlock()
	return nil
}
