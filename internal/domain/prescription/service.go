package prescription

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/prontuario/prontuario/internal/platform/db"
	"github.com/prontuario/prontuario/internal/platform/httpx"
)

const QuickSearchMinLen = 2

// OwnershipGuard answers whether the doctor owns a referenced row.
type OwnershipGuard interface {
	Exists(ctx context.Context, doctorID, id uuid.UUID) (bool, error)
}

// PDFGenerator turns a prescription into a downloadable document URL. The
// current implementation is a stub that returns a deterministic URL without
// rendering anything; a real renderer slots in behind the same contract.
type PDFGenerator interface {
	Generate(ctx context.Context, p *Prescription) (string, error)
}

// StubPDFGenerator returns a deterministic URL without producing a file.
type StubPDFGenerator struct{}

func (StubPDFGenerator) Generate(_ context.Context, p *Prescription) (string, error) {
	return fmt.Sprintf("/storage/prescriptions/%s.pdf", p.ID), nil
}

type Service struct {
	repo          Repository
	patients      OwnershipGuard
	consultations OwnershipGuard
	pdf           PDFGenerator
	pool          *pgxpool.Pool
	logger        zerolog.Logger
}

func NewService(repo Repository, patients, consultations OwnershipGuard, pdf PDFGenerator, pool *pgxpool.Pool, logger zerolog.Logger) *Service {
	return &Service{repo: repo, patients: patients, consultations: consultations, pdf: pdf, pool: pool, logger: logger}
}

func (s *Service) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.pool, fn)
}

func (s *Service) audit(action string, doctorID, id uuid.UUID) {
	s.logger.Info().
		Str("resource", "prescription").
		Str("resource_id", id.String()).
		Str("doctor_id", doctorID.String()).
		Str("action", action).
		Msg("audit")
}

// guardRefs verifies both referenced rows belong to the doctor. An unowned
// reference fails exactly like a missing one.
func (s *Service) guardRefs(ctx context.Context, doctorID uuid.UUID, p *Prescription) error {
	ok, err := s.patients.Exists(ctx, doctorID, p.PatientID)
	if err != nil {
		return err
	}
	if !ok {
		return httpx.ErrNotFound
	}
	if p.ConsultationID != nil {
		ok, err := s.consultations.Exists(ctx, doctorID, *p.ConsultationID)
		if err != nil {
			return err
		}
		if !ok {
			return httpx.ErrNotFound
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, in *Input) (*Prescription, error) {
	if errs := in.Validate(true); !errs.Empty() {
		return nil, httpx.NewValidationError(errs)
	}
	in.Normalize()

	p := &Prescription{DoctorID: doctorID, Status: StatusActive}
	in.Apply(p)

	errs := httpx.FieldErrors{}
	ValidateDates(p, errs)
	if !errs.Empty() {
		return nil, httpx.NewValidationError(errs)
	}

	err := s.withTx(ctx, func(ctx context.Context) error {
		if err := s.guardRefs(ctx, doctorID, p); err != nil {
			return err
		}
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		if err == httpx.ErrNotFound || httpx.IsValidation(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("doctor_id", doctorID.String()).Msg("prescription create failed")
		return nil, httpx.ErrInternal
	}

	s.audit("create", doctorID, p.ID)
	return p, nil
}

func (s *Service) Get(ctx context.Context, doctorID, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, doctorID, id)
}

func (s *Service) Update(ctx context.Context, doctorID, id uuid.UUID, in *Input) (*Prescription, error) {
	if errs := in.Validate(false); !errs.Empty() {
		return nil, httpx.NewValidationError(errs)
	}
	in.Normalize()

	p, err := s.repo.GetByID(ctx, doctorID, id)
	if err != nil {
		return nil, err
	}
	in.Apply(p)

	errs := httpx.FieldErrors{}
	ValidateDates(p, errs)
	if !errs.Empty() {
		return nil, httpx.NewValidationError(errs)
	}

	err = s.withTx(ctx, func(ctx context.Context) error {
		if in.PatientID != nil || in.ConsultationID != nil {
			if err := s.guardRefs(ctx, doctorID, p); err != nil {
				return err
			}
		}
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		if err == httpx.ErrNotFound || httpx.IsValidation(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("prescription_id", id.String()).Msg("prescription update failed")
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
		s.logger.Error().Err(err).Str("prescription_id", id.String()).Msg("prescription delete failed")
		return httpx.ErrInternal
	}
	s.audit("delete", doctorID, id)
	return nil
}

func (s *Service) List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Prescription, int, map[string]interface{}, error) {
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

func (s *Service) Active(ctx context.Context, doctorID uuid.UUID) ([]*Prescription, error) {
	return s.repo.Active(ctx, doctorID)
}

func (s *Service) Expired(ctx context.Context, doctorID uuid.UUID) ([]*Prescription, error) {
	return s.repo.Expired(ctx, doctorID)
}

// GeneratePDF produces the document URL and stores it on the prescription.
func (s *Service) GeneratePDF(ctx context.Context, doctorID, id uuid.UUID) (*Prescription, error) {
	var p *Prescription
	err := s.withTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.GetByID(ctx, doctorID, id)
		if err != nil {
			return err
		}
		url, err := s.pdf.Generate(ctx, p)
		if err != nil {
			return err
		}
		p.PdfURL = &url
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		if err == httpx.ErrNotFound {
			return nil, err
		}
		s.logger.Error().Err(err).Str("prescription_id", id.String()).Msg("pdf generation failed")
		return nil, httpx.ErrInternal
	}

	s.audit("update", doctorID, id)
	return p, nil
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
		"active":          0,
		"expired":         0,
		"this_month":      0,
		"by_type":         map[string]int{},
		"completion_rate": 0.0,
	}
}
