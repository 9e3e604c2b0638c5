package exam

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/prontuario/prontuario/internal/platform/db"
	"github.com/prontuario/prontuario/internal/platform/httpx"
)

const QuickSearchMinLen = 2

// OwnershipGuard answers whether the doctor owns a referenced row. The exam
// write pipeline checks both the patient and the optional consultation link.
type OwnershipGuard interface {
	Exists(ctx context.Context, doctorID, id uuid.UUID) (bool, error)
}

type Service struct {
	repo          Repository
	patients      OwnershipGuard
	consultations OwnershipGuard
	pool          *pgxpool.Pool
	logger        zerolog.Logger
}

func NewService(repo Repository, patients, consultations OwnershipGuard, pool *pgxpool.Pool, logger zerolog.Logger) *Service {
	return &Service{repo: repo, patients: patients, consultations: consultations, pool: pool, logger: logger}
}

func (s *Service) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.pool, fn)
}

func (s *Service) audit(action string, doctorID, id uuid.UUID) {
	s.logger.Info().
		Str("resource", "exam").
		Str("resource_id", id.String()).
		Str("doctor_id", doctorID.String()).
		Str("action", action).
		Msg("audit")
}

// guardRefs verifies both referenced rows belong to the doctor. An unowned
// reference fails exactly like a missing one.
func (s *Service) guardRefs(ctx context.Context, doctorID uuid.UUID, e *Exam) error {
	ok, err := s.patients.Exists(ctx, doctorID, e.PatientID)
	if err != nil {
		return err
	}
	if !ok {
		return httpx.ErrNotFound
	}
	if e.ConsultationID != nil {
		ok, err := s.consultations.Exists(ctx, doctorID, *e.ConsultationID)
		if err != nil {
			return err
		}
		if !ok {
			return httpx.ErrNotFound
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, in *Input) (*Exam, error) {
	if errs := in.Validate(true); !errs.Empty() {
		return nil, httpx.NewValidationError(errs)
	}

	e := &Exam{DoctorID: doctorID, Status: StatusPending}
	in.Apply(e)

	err := s.withTx(ctx, func(ctx context.Context) error {
		if err := s.guardRefs(ctx, doctorID, e); err != nil {
			return err
		}
		return s.repo.Create(ctx, e)
	})
	if err != nil {
		if err == httpx.ErrNotFound || httpx.IsValidation(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("doctor_id", doctorID.String()).Msg("exam create failed")
		return nil, httpx.ErrInternal
	}

	s.audit("create", doctorID, e.ID)
	return e, nil
}

func (s *Service) Get(ctx context.Context, doctorID, id uuid.UUID) (*Exam, error) {
	return s.repo.GetByID(ctx, doctorID, id)
}

func (s *Service) Update(ctx context.Context, doctorID, id uuid.UUID, in *Input) (*Exam, error) {
	if errs := in.Validate(false); !errs.Empty() {
		return nil, httpx.NewValidationError(errs)
	}

	e, err := s.repo.GetByID(ctx, doctorID, id)
	if err != nil {
		return nil, err
	}
	in.Apply(e)

	err = s.withTx(ctx, func(ctx context.Context) error {
		if in.PatientID != nil || in.ConsultationID != nil {
			if err := s.guardRefs(ctx, doctorID, e); err != nil {
				return err
			}
		}
		return s.repo.Update(ctx, e)
	})
	if err != nil {
		if err == httpx.ErrNotFound || httpx.IsValidation(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("exam_id", id.String()).Msg("exam update failed")
		return nil, httpx.ErrInternal
	}

	s.audit("update", doctorID, id)
	return e, nil
}

// UpdateStatus changes only the status field.
func (s *Service) UpdateStatus(ctx context.Context, doctorID, id uuid.UUID, status string) (*Exam, error) {
	if !validStatuses[status] {
		return nil, httpx.NewValidationError(httpx.FieldErrors{
			"status": {"Status inválido"},
		})
	}

	var e *Exam
	err := s.withTx(ctx, func(ctx context.Context) error {
		var err error
		e, err = s.repo.GetByID(ctx, doctorID, id)
		if err != nil {
			return err
		}
		e.Status = status
		return s.repo.Update(ctx, e)
	})
	if err != nil {
		if err == httpx.ErrNotFound {
			return nil, err
		}
		s.logger.Error().Err(err).Str("exam_id", id.String()).Msg("status update failed")
		return nil, httpx.ErrInternal
	}

	s.audit("update", doctorID, id)
	return e, nil
}

func (s *Service) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	err := s.withTx(ctx, func(ctx context.Context) error {
		return s.repo.SoftDelete(ctx, doctorID, id)
	})
	if err != nil {
		if err == httpx.ErrNotFound {
			return err
		}
		s.logger.Error().Err(err).Str("exam_id", id.String()).Msg("exam delete failed")
		return httpx.ErrInternal
	}
	s.audit("delete", doctorID, id)
	return nil
}

func (s *Service) List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Exam, int, map[string]interface{}, error) {
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

func (s *Service) Pending(ctx context.Context, doctorID uuid.UUID) ([]*Exam, error) {
	return s.repo.Pending(ctx, doctorID)
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
		"pending":    0,
		"completed":  0,
		"this_month": 0,
		"by_type":    map[string]int{},
	}
}
