package store

import (
	"context"
	"sync"
)

// MemoryStore holds the slot in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data []byte

	// FailWrites makes SaveAll return ErrWriteFailed, for exercising
	// callers' failure paths.
	FailWrites bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) LoadAll(ctx context.Context) ([]*Comment, error) {
	data, _ := s.Raw(ctx)
	return decodeSlot("memory", DefaultKey, data), nil
}

func (s *MemoryStore) SaveAll(ctx context.Context, comments []*Comment) error {
	data, err := Encode(comments)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites {
		return ErrWriteFailed
	}
	s.data = data
	return nil
}

func (s *MemoryStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}

func (s *MemoryStore) Raw(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, nil
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

// Put replaces the slot bytes verbatim.
func (s *MemoryStore) Put(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
}

var _ Store = (*MemoryStore)(nil)
