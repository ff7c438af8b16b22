package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
)

// MemStore is an in-memory Store used in tests and single-node deployments
// without durability requirements.
type MemStore struct {
	mu          sync.RWMutex
	hospitals   map[string][]byte
	emergencies map[string][]byte
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		hospitals:   make(map[string][]byte),
		emergencies: make(map[string][]byte),
	}
}

func (s *MemStore) LoadHospitals(ctx context.Context) ([]*model.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Hospital
	for _, raw := range s.hospitals {
		var h model.Hospital
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, err
		}
		out = append(out, &h)
	}
	return out, nil
}

func (s *MemStore) SaveHospital(ctx context.Context, h *model.Hospital) error {
	raw, err := json.Marshal(h)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.hospitals[h.ID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemStore) SaveEmergency(ctx context.Context, e *model.EmergencyRequest) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.emergencies[e.ID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemStore) GetEmergency(ctx context.Context, id string) (*model.EmergencyRequest, error) {
	s.mu.RLock()
	raw, ok := s.emergencies[id]
	s.mu.RUnlock()
	if !ok {
		return nil, &model.NotFoundError{Kind: "emergency", ID: id}
	}
	var e model.EmergencyRequest
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *MemStore) ListEmergencies(ctx context.Context, holderID string) ([]*model.EmergencyRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.EmergencyRequest
	for _, raw := range s.emergencies {
		var e model.EmergencyRequest
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		if holderID == "" || e.HolderID == holderID {
			out = append(out, &e)
		}
	}
	return out, nil
}

func (s *MemStore) Close() error { return nil }
