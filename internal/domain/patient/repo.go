package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the storage contract for patients. Every method is scoped to
// the owning doctor; a row under another doctor is indistinguishable from a
// missing row.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	SoftDelete(ctx context.Context, doctorID, id uuid.UUID) error
	List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Patient, int, error)
	QuickSearch(ctx context.Context, doctorID uuid.UUID, term string, limit int) ([]*Summary, error)
	Stats(ctx context.Context, doctorID uuid.UUID) (map[string]interface{}, error)
	Exists(ctx context.Context, doctorID, id uuid.UUID) (bool, error)
	SetLastConsultationDate(ctx context.Context, doctorID, patientID uuid.UUID, when time.Time) error
}
