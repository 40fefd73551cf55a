package transient

import (
	"context"
	"time"

	"phone-verification/internal/flow"
	"phone-verification/internal/platform/expiring"
)

// MemoryStore is an in-process Store for single-replica deployments. Abandoned flows are swept
// out by later writes.
type MemoryStore struct {
	state    *expiring.Map[*flow.Transient]
	finished *expiring.Map[struct{}]
	nowF     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{nowF: func() time.Time { return time.Now().UTC() }}
	now := func() time.Time { return s.nowF() }
	s.state = expiring.New[*flow.Transient](now)
	s.finished = expiring.New[struct{}](now)
	return s
}

func (s *MemoryStore) Put(ctx context.Context, flowID string, t *flow.Transient, ttl time.Duration) error {
	s.state.Set(flowID, t, s.nowF().Add(ttl))
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, flowID string) (*flow.Transient, bool, error) {
	t, ok := s.state.Get(flowID)
	return t, ok, nil
}

func (s *MemoryStore) Delete(ctx context.Context, flowID string) error {
	s.state.Delete(flowID)
	return nil
}

func (s *MemoryStore) MarkFinished(ctx context.Context, flowID string, ttl time.Duration) (bool, error) {
	return s.finished.SetIfAbsent(flowID, struct{}{}, s.nowF().Add(ttl)), nil
}

func (s *MemoryStore) Finished(ctx context.Context, flowID string) (bool, error) {
	_, ok := s.finished.Get(flowID)
	return ok, nil
}

// Len returns the number of retained state and finished entries.
func (s *MemoryStore) Len() int {
	return s.state.Len() + s.finished.Len()
}
