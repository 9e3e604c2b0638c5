package consultation

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

// PatientGuard is the slice of the patient repository the consultation
// service needs: ownership checks for the foreign key, and the denormalized
// last-consultation-date write-back.
type PatientGuard interface {
	Exists(ctx context.Context, doctorID, id uuid.UUID) (bool, error)
	SetLastConsultationDate(ctx context.Context, doctorID, patientID uuid.UUID) error
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
		Str("resource", "consultation").
		Str("resource_id", id.String()).
		Str("doctor_id", doctorID.String()).
		Str("action", action).
		Msg("audit")
}

// guardPatient rejects patients the doctor does not own with the same
// not-found error a missing record produces, so an unowned reference is
// indistinguishable from one that does not exist.
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

func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, in *Input) (*Consultation, error) {
	if errs := in.Validate(true); !errs.Empty() {
		return nil, httpx.NewValidationError(errs)
	}

	c := &Consultation{DoctorID: doctorID, Status: StatusScheduled}
	in.Apply(c)

	errs := httpx.FieldErrors{}
	ValidateRoomLink(c, errs)
	if !errs.Empty() {
		return nil, httpx.NewValidationError(errs)
	}

	err := s.withTx(ctx, func(ctx context.Context) error {
		if err := s.guardPatient(ctx, doctorID, c.PatientID); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}
		return s.patients.SetLastConsultationDate(ctx, doctorID, c.PatientID)
	})
	if err != nil {
		if err == httpx.ErrNotFound || httpx.IsValidation(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("doctor_id", doctorID.String()).Msg("consultation create failed")
		return nil, httpx.ErrInternal
	}

	s.audit("create", doctorID, c.ID)
	return c, nil
}

func (s *Service) Get(ctx context.Context, doctorID, id uuid.UUID) (*Consultation, error) {
	return s.repo.GetByID(ctx, doctorID, id)
}

func (s *Service) Update(ctx context.Context, doctorID, id uuid.UUID, in *Input) (*Consultation, error) {
	if errs := in.Validate(false); !errs.Empty() {
		return nil, httpx.NewValidationError(errs)
	}

	c, err := s.repo.GetByID(ctx, doctorID, id)
	if err != nil {
		return nil, err
	}
	in.Apply(c)

	errs := httpx.FieldErrors{}
	ValidateRoomLink(c, errs)
	if !errs.Empty() {
		return nil, httpx.NewValidationError(errs)
	}

	err = s.withTx(ctx, func(ctx context.Context) error {
		if in.PatientID != nil {
			if err := s.guardPatient(ctx, doctorID, c.PatientID); err != nil {
				return err
			}
		}
		return s.repo.Update(ctx, c)
	})
	if err != nil {
		if err == httpx.ErrNotFound || httpx.IsValidation(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("consultation_id", id.String()).Msg("consultation update failed")
		return nil, httpx.ErrInternal
	}

	s.audit("update", doctorID, id)
	return c, nil
}

// UpdateStatus changes only the status field.
func (s *Service) UpdateStatus(ctx context.Context, doctorID, id uuid.UUID, status string) (*Consultation, error) {
	if !validStatuses[status] {
		return nil, httpx.NewValidationError(httpx.FieldErrors{
			"status": {"Status inválido"},
		})
	}

	var c *Consultation
	err := s.withTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.repo.GetByID(ctx, doctorID, id)
		if err != nil {
			return err
		}
		c.Status = status
		return s.repo.Update(ctx, c)
	})
	if err != nil {
		if err == httpx.ErrNotFound {
			return nil, err
		}
		s.logger.Error().Err(err).Str("consultation_id", id.String()).Msg("status update failed")
		return nil, httpx.ErrInternal
	}

	s.audit("update", doctorID, id)
	return c, nil
}

func (s *Service) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	err := s.withTx(ctx, func(ctx context.Context) error {
		return s.repo.SoftDelete(ctx, doctorID, id)
	})
	if err != nil {
		if err == httpx.ErrNotFound {
			return err
		}
		s.logger.Error().Err(err).Str("consultation_id", id.String()).Msg("consultation delete failed")
		return httpx.ErrInternal
	}
	s.audit("delete", doctorID, id)
	return nil
}

func (s *Service) List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Consultation, int, map[string]interface{}, error) {
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

func (s *Service) Today(ctx context.Context, doctorID uuid.UUID) ([]*Consultation, error) {
	return s.repo.Today(ctx, doctorID)
}

func (s *Service) Upcoming(ctx context.Context, doctorID uuid.UUID, limit int) ([]*Consultation, error) {
	return s.repo.Upcoming(ctx, doctorID, limit)
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
		"total":           0,
		"today":           0,
		"this_week":       0,
		"this_month":      0,
		"by_status":       map[string]int{},
		"by_type":         map[string]int{},
		"avg_duration":    0.0,
		"completion_rate": 0.0,
	}
}
