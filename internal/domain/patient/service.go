package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/prontuario/prontuario/internal/platform/db"
	"github.com/prontuario/prontuario/internal/platform/httpx"
)

// QuickSearchMinLen is the minimum query length before quick and global
// search touch storage.
const QuickSearchMinLen = 2

type Service struct {
	repo   Repository
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewService(repo Repository, pool *pgxpool.Pool, logger zerolog.Logger) *Service {
	return &Service{repo: repo, pool: pool, logger: logger}
}

// withTx wraps fn in a transaction when a pool is configured; service tests
// run against mock repositories without one.
func (s *Service) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.pool, fn)
}

func (s *Service) audit(action string, doctorID, id uuid.UUID) {
	s.logger.Info().
		Str("resource", "patient").
		Str("resource_id", id.String()).
		Str("doctor_id", doctorID.String()).
		Str("action", action).
		Msg("audit")
}

func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, in *Input) (*Patient, error) {
	if errs := in.Validate(true); !errs.Empty() {
		return nil, httpx.NewValidationError(errs)
	}
	in.Normalize()

	p := &Patient{DoctorID: doctorID}
	in.Apply(p)

	if err := s.withTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, p)
	}); err != nil {
		s.logger.Error().Err(err).Str("doctor_id", doctorID.String()).Msg("patient create failed")
		return nil, httpx.ErrInternal
	}

	s.audit("create", doctorID, p.ID)
	return p, nil
}

func (s *Service) Get(ctx context.Context, doctorID, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, doctorID, id)
}

func (s *Service) Update(ctx context.Context, doctorID, id uuid.UUID, in *Input) (*Patient, error) {
	if errs := in.Validate(false); !errs.Empty() {
		return nil, httpx.NewValidationError(errs)
	}
	in.Normalize()

	p, err := s.repo.GetByID(ctx, doctorID, id)
	if err != nil {
		return nil, err
	}
	in.Apply(p)

	if err := s.withTx(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, p)
	}); err != nil {
		if err == httpx.ErrNotFound {
			return nil, err
		}
		s.logger.Error().Err(err).Str("patient_id", id.String()).Msg("patient update failed")
		return nil, httpx.ErrInternal
	}

	s.audit("update", doctorID, id)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	err := s.withTx(ctx, func(ctx context.Context) error {
		return s.repo.SoftDelete(ctx, doctorID, id)
	})
	if err != nil {
		if err == httpx.ErrNotFound {
			return err
		}
		s.logger.Error().Err(err).Str("patient_id", id.String()).Msg("patient delete failed")
		return httpx.ErrInternal
	}
	s.audit("delete", doctorID, id)
	return nil
}

// ToggleFavorite flips the favorite flag and returns the updated patient.
func (s *Service) ToggleFavorite(ctx context.Context, doctorID, id uuid.UUID) (*Patient, error) {
	var p *Patient
	err := s.withTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.GetByID(ctx, doctorID, id)
		if err != nil {
			return err
		}
		p.Favorite = !p.Favorite
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		if err == httpx.ErrNotFound {
			return nil, err
		}
		s.logger.Error().Err(err).Str("patient_id", id.String()).Msg("favorite toggle failed")
		return nil, httpx.ErrInternal
	}
	s.audit("update", doctorID, id)
	return p, nil
}

func (s *Service) List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Patient, int, map[string]interface{}, error) {
	items, total, err := s.repo.List(ctx, doctorID, params, limit, offset)
	if err != nil {
		return nil, 0, nil, err
	}
	stats, err := s.repo.Stats(ctx, doctorID)
	if err != nil {
		return nil, 0, nil, err
	}
	return items, total, stats, nil
}

// QuickSearch returns lightweight projections. Queries shorter than two
// characters return empty without touching storage.
func (s *Service) QuickSearch(ctx context.Context, doctorID uuid.UUID, q string, limit int) ([]*Summary, error) {
	if len(q) < QuickSearchMinLen {
		return []*Summary{}, nil
	}
	return s.repo.QuickSearch(ctx, doctorID, q, limit)
}

// EmptyStats is the zeroed statistics block used when a listing fails open.
func EmptyStats() map[string]interface{} {
	return map[string]interface{}{
		"total":          0,
		"favorites":      0,
		"new_this_month": 0,
		"by_blood_type":  map[string]int{},
	}
}
