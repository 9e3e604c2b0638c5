package anamnesis

import (
	"context"

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
		Str("resource", "anamnesis").
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

func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, in *Input) (*Anamnesis, error) {
	if errs := in.Validate(true); !errs.Empty() {
		return nil, httpx.NewValidationError(errs)
	}

	a := &Anamnesis{DoctorID: doctorID}
	in.Apply(a)

	err := s.withTx(ctx, func(ctx context.Context) error {
		if err := s.guardPatient(ctx, doctorID, a.PatientID); err != nil {
			return err
		}
		return s.repo.Create(ctx, a)
	})
	if err != nil {
		if err == httpx.ErrNotFound || httpx.IsValidation(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("doctor_id", doctorID.String()).Msg("anamnesis create failed")
		return nil, httpx.ErrInternal
	}

	s.audit("create", doctorID, a.ID)
	return a, nil
}

func (s *Service) Get(ctx context.Context, doctorID, id uuid.UUID) (*Anamnesis, error) {
	return s.repo.GetByID(ctx, doctorID, id)
}

func (s *Service) Update(ctx context.Context, doctorID, id uuid.UUID, in *Input) (*Anamnesis, error) {
	if errs := in.Validate(false); !errs.Empty() {
		return nil, httpx.NewValidationError(errs)
	}

	a, err := s.repo.GetByID(ctx, doctorID, id)
	if err != nil {
		return nil, err
	}
	in.Apply(a)

	err = s.withTx(ctx, func(ctx context.Context) error {
		if in.PatientID != nil {
			if err := s.guardPatient(ctx, doctorID, a.PatientID); err != nil {
				return err
			}
		}
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		if err == httpx.ErrNotFound || httpx.IsValidation(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("anamnesis_id", id.String()).Msg("anamnesis update failed")
		return nil, httpx.ErrInternal
	}

	s.audit("update", doctorID, id)
	return a, nil
}

func (s *Service) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	err := s.withTx(ctx, func(ctx context.Context) error {
		return s.repo.SoftDelete(ctx, doctorID, id)
	})
	if err != nil {
		if err == httpx.ErrNotFound {
			return err
		}
		s.logger.Error().Err(err).Str("anamnesis_id", id.String()).Msg("anamnesis delete failed")
		return httpx.ErrInternal
	}
	s.audit("delete", doctorID, id)
	return nil
}

func (s *Service) List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Anamnesis, int, map[string]interface{}, error) {
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

// TemplateFor pre-fills a new anamnesis form from the patient's most recent
// record. A patient with no prior anamnesis gets an empty template, not an
// error; an unowned patient gets not-found.
func (s *Service) TemplateFor(ctx context.Context, doctorID, patientID uuid.UUID) (*Template, error) {
	ok, err := s.patients.Exists(ctx, doctorID, patientID)
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", patientID.String()).Msg("template lookup failed")
		return nil, httpx.ErrInternal
	}
	if !ok {
		return nil, httpx.ErrNotFound
	}

	a, err := s.repo.LatestForPatient(ctx, doctorID, patientID)
	if err == httpx.ErrNotFound {
		return &Template{}, nil
	}
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", patientID.String()).Msg("template lookup failed")
		return nil, httpx.ErrInternal
	}

	return &Template{
		MedicalHistory:     a.MedicalHistory,
		SurgicalHistory:    a.SurgicalHistory,
		SocialHistory:      a.SocialHistory,
		CurrentMedications: a.CurrentMedications,
		Allergies:          a.Allergies,
	}, nil
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
		"total":         0,
		"this_month":    0,
		"with_patients": 0,
	}
}
