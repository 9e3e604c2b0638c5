package exam

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the storage contract for exams. All methods are doctor-scoped.
type Repository interface {
	Create(ctx context.Context, e *Exam) error
	GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Exam, error)
	Update(ctx context.Context, e *Exam) error
	SoftDelete(ctx context.Context, doctorID, id uuid.UUID) error
	List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Exam, int, error)
	Pending(ctx context.Context, doctorID uuid.UUID) ([]*Exam, error)
	QuickSearch(ctx context.Context, doctorID uuid.UUID, term string, limit int) ([]*Summary, error)
	Stats(ctx context.Context, doctorID uuid.UUID) (map[string]interface{}, error)
	Recent(ctx context.Context, doctorID uuid.UUID, limit int) ([]*Exam, error)
}
