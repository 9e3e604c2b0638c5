package anamnesis

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the storage contract for anamneses. All methods are
// doctor-scoped.
type Repository interface {
	Create(ctx context.Context, a *Anamnesis) error
	GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Anamnesis, error)
	Update(ctx context.Context, a *Anamnesis) error
	SoftDelete(ctx context.Context, doctorID, id uuid.UUID) error
	List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Anamnesis, int, error)
	LatestForPatient(ctx context.Context, doctorID, patientID uuid.UUID) (*Anamnesis, error)
	QuickSearch(ctx context.Context, doctorID uuid.UUID, term string, limit int) ([]*Summary, error)
	Stats(ctx context.Context, doctorID uuid.UUID) (map[string]interface{}, error)
}
