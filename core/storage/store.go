package storage

import (
	"context"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
)

// Store persists hospitals and emergency requests. The ledger writes through
// to it while holding the per-holder lock, so implementations only need to be
// safe for concurrent use across different holders.
type Store interface {
	LoadHospitals(ctx context.Context) ([]*model.Hospital, error)
	SaveHospital(ctx context.Context, h *model.Hospital) error
	SaveEmergency(ctx context.Context, e *model.EmergencyRequest) error
	GetEmergency(ctx context.Context, id string) (*model.EmergencyRequest, error)
	ListEmergencies(ctx context.Context, holderID string) ([]*model.EmergencyRequest, error)
	Close() error
}
