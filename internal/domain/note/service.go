package note

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/prontuario/prontuario/internal/platform/db"
	"github.com/prontuario/prontuario/internal/platform/httpx"
)

const QuickSearchMinLen = 2

// PatientGuard confirms patient ownership before a write references one.
type PatientGuard interface {
	Exists(ctx context.Context, doctorID, id uuid.UUID) (bool, error)
}

type Service struct {
	repo     Repository
	patients PatientGuard
	pool     *pgxpool.Pool
	logger   zerolog.Logger
}

func NewService(repo Repository, patients PatientGuard, pool *pgxpool.Pool, logger zerolog.Logger) *Service {
	return &Service{repo: repo, patients: patients, pool: pool, logger: logger}
}

func (s *Service) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.pool, fn)
}

func (s *Service) audit(action string, doctorID, id uuid.UUID) {
	s.logger.Info().
		Str("resource", "note").
		Str("resource_id", id.String()).
		Str("doctor_id", doctorID.String()).
		Str("action", action).
		Msg("audit")
}

func (s *Service) guardPatient(ctx context.Context, doctorID, patientID uuid.UUID) error {
	ok, err := s.patients.Exists(ctx, doctorID, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return httpx.ErrNotFound
	}
	return nil
}

// stamp records who touched the note and when. Callers cannot set these.
func stamp(n *Note, actorID uuid.UUID) {
	now := time.Now()
	n.LastModifiedAt = &now
	n.LastModifiedBy = &actorID
}

func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, in *Input) (*Note, error) {
	if errs := in.Validate(true); !errs.Empty() {
		return nil, httpx.NewValidationError(errs)
	}

	n := &Note{DoctorID: doctorID, NoteType: TypeGeneral}
	in.Apply(n)
	stamp(n, doctorID)

	err := s.withTx(ctx, func(ctx context.Context) error {
		if err := s.guardPatient(ctx, doctorID, n.PatientID); err != nil {
			return err
		}
		return s.repo.Create(ctx, n)
	})
	if err != nil {
		if err == httpx.ErrNotFound || httpx.IsValidation(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("doctor_id", doctorID.String()).Msg("note create failed")
		return nil, httpx.ErrInternal
	}

	s.audit("create", doctorID, n.ID)
	return n, nil
}

// Get returns the note and bumps its view counter. Counting is best-effort:
// a failed increment never fails the read.
func (s *Service) Get(ctx context.Context, doctorID, id uuid.UUID) (*Note, error) {
	n, err := s.repo.GetByID(ctx, doctorID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementViewCount(ctx, doctorID, id); err != nil {
		s.logger.Warn().Err(err).Str("note_id", id.String()).Msg("view count increment failed")
	} else {
		n.ViewCount++
	}
	return n, nil
}

func (s *Service) Update(ctx context.Context, doctorID, id uuid.UUID, in *Input) (*Note, error) {
	if errs := in.Validate(false); !errs.Empty() {
		return nil, httpx.NewValidationError(errs)
	}

	n, err := s.repo.GetByID(ctx, doctorID, id)
	if err != nil {
		return nil, err
	}
	in.Apply(n)
	stamp(n, doctorID)

	err = s.withTx(ctx, func(ctx context.Context) error {
		if in.PatientID != nil {
			if err := s.guardPatient(ctx, doctorID, n.PatientID); err != nil {
				return err
			}
		}
		return s.repo.Update(ctx, n)
	})
	if err != nil {
		if err == httpx.ErrNotFound || httpx.IsValidation(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("note_id", id.String()).Msg("note update failed")
		return nil, httpx.ErrInternal
	}

	s.audit("update", doctorID, id)
	return n, nil
}

func (s *Service) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	err := s.withTx(ctx, func(ctx context.Context) error {
		return s.repo.SoftDelete(ctx, doctorID, id)
	})
	if err != nil {
		if err == httpx.ErrNotFound {
			return err
		}
		s.logger.Error().Err(err).Str("note_id", id.String()).Msg("note delete failed")
		return httpx.ErrInternal
	}
	s.audit("delete", doctorID, id)
	return nil
}

// ToggleImportant flips the importance flag and returns the updated note.
func (s *Service) ToggleImportant(ctx context.Context, doctorID, id uuid.UUID) (*Note, error) {
	var n *Note
	err := s.withTx(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.repo.GetByID(ctx, doctorID, id)
		if err != nil {
			return err
		}
		n.IsImportant = !n.IsImportant
		stamp(n, doctorID)
		return s.repo.Update(ctx, n)
	})
	if err != nil {
		if err == httpx.ErrNotFound {
			return nil, err
		}
		s.logger.Error().Err(err).Str("note_id", id.String()).Msg("important toggle failed")
		return nil, httpx.ErrInternal
	}

	s.audit("update", doctorID, id)
	return n, nil
}

func (s *Service) List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Note, int, map[string]interface{}, error) {
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

func (s *Service) QuickSearch(ctx context.Context, doctorID uuid.UUID, q string, limit int) ([]*Summary, error) {
	if len(q) < QuickSearchMinLen {
		return []*Summary{}, nil
	}
	return s.repo.QuickSearch(ctx, doctorID, q, limit)
}

// EmptyStats is the zeroed statistics block used when a listing fails open.
func EmptyStats() map[string]interface{} {
	return map[string]interface{}{
		"total":      0,
		"important":  0,
		"this_month": 0,
		"by_type":    map[string]int{},
	}
}
