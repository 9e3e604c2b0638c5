package note

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the storage contract for notes. All methods are doctor-scoped.
type Repository interface {
	Create(ctx context.Context, n *Note) error
	GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Note, error)
	Update(ctx context.Context, n *Note) error
	SoftDelete(ctx context.Context, doctorID, id uuid.UUID) error
	List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Note, int, error)
	IncrementViewCount(ctx context.Context, doctorID, id uuid.UUID) error
	QuickSearch(ctx context.Context, doctorID uuid.UUID, term string, limit int) ([]*Summary, error)
	Stats(ctx context.Context, doctorID uuid.UUID) (map[string]interface{}, error)
}
