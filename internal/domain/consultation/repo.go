package consultation

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the storage contract for consultations. All methods are
// doctor-scoped.
type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Consultation, error)
	Update(ctx context.Context, c *Consultation) error
	SoftDelete(ctx context.Context, doctorID, id uuid.UUID) error
	List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Consultation, int, error)
	Today(ctx context.Context, doctorID uuid.UUID) ([]*Consultation, error)
	Upcoming(ctx context.Context, doctorID uuid.UUID, limit int) ([]*Consultation, error)
	QuickSearch(ctx context.Context, doctorID uuid.UUID, term string, limit int) ([]*Summary, error)
	Stats(ctx context.Context, doctorID uuid.UUID) (map[string]interface{}, error)
	Recent(ctx context.Context, doctorID uuid.UUID, limit int) ([]*Consultation, error)
}
