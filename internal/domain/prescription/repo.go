package prescription

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the storage contract for prescriptions. All methods are
// doctor-scoped.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	SoftDelete(ctx context.Context, doctorID, id uuid.UUID) error
	List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Prescription, int, error)
	Active(ctx context.Context, doctorID uuid.UUID) ([]*Prescription, error)
	Expired(ctx context.Context, doctorID uuid.UUID) ([]*Prescription, error)
	QuickSearch(ctx context.Context, doctorID uuid.UUID, term string, limit int) ([]*Summary, error)
	Stats(ctx context.Context, doctorID uuid.UUID) (map[string]interface{}, error)
	Recent(ctx context.Context, doctorID uuid.UUID, limit int) ([]*Prescription, error)
}
