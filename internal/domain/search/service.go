package search

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prontuario/prontuario/internal/domain/consultation"
	"github.com/prontuario/prontuario/internal/domain/exam"
	"github.com/prontuario/prontuario/internal/domain/note"
	"github.com/prontuario/prontuario/internal/domain/patient"
	"github.com/prontuario/prontuario/internal/domain/prescription"
)

// MinQueryLen is the shortest query the fan-out will run. Anything shorter
// returns all-empty buckets without touching storage.
const MinQueryLen = 2

// PerResourceLimit caps each bucket of the fan-out.
const PerResourceLimit = 5

// Per-resource search contracts, satisfied by each domain service.
type (
	PatientSearcher interface {
		QuickSearch(ctx context.Context, doctorID uuid.UUID, q string, limit int) ([]*patient.Summary, error)
	}
	ConsultationSearcher interface {
		QuickSearch(ctx context.Context, doctorID uuid.UUID, q string, limit int) ([]*consultation.Summary, error)
	}
	NoteSearcher interface {
		QuickSearch(ctx context.Context, doctorID uuid.UUID, q string, limit int) ([]*note.Summary, error)
	}
	ExamSearcher interface {
		QuickSearch(ctx context.Context, doctorID uuid.UUID, q string, limit int) ([]*exam.Summary, error)
	}
	PrescriptionSearcher interface {
		QuickSearch(ctx context.Context, doctorID uuid.UUID, q string, limit int) ([]*prescription.Summary, error)
	}
)

// Results holds one bucket per searched resource. There is no cross-type
// ranking or merging; anamneses are not part of the fan-out.
type Results struct {
	Patients      []*patient.Summary      `json:"patients"`
	Consultations []*consultation.Summary `json:"consultations"`
	Notes         []*note.Summary         `json:"notes"`
	Exams         []*exam.Summary         `json:"exams"`
	Prescriptions []*prescription.Summary `json:"prescriptions"`
}

type Service struct {
	patients      PatientSearcher
	consultations ConsultationSearcher
	notes         NoteSearcher
	exams         ExamSearcher
	prescriptions PrescriptionSearcher
	logger        zerolog.Logger
}

func NewService(
	patients PatientSearcher,
	consultations ConsultationSearcher,
	notes NoteSearcher,
	exams ExamSearcher,
	prescriptions PrescriptionSearcher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		patients:      patients,
		consultations: consultations,
		notes:         notes,
		exams:         exams,
		prescriptions: prescriptions,
		logger:        logger,
	}
}

func emptyResults() *Results {
	return &Results{
		Patients:      []*patient.Summary{},
		Consultations: []*consultation.Summary{},
		Notes:         []*note.Summary{},
		Exams:         []*exam.Summary{},
		Prescriptions: []*prescription.Summary{},
	}
}

// SearchAll runs the substring search against each resource concurrently. A
// failed lookup degrades that bucket to empty instead of failing the whole
// request.
func (s *Service) SearchAll(ctx context.Context, doctorID uuid.UUID, q string) *Results {
	res := emptyResults()
	if len(q) < MinQueryLen {
		return res
	}

	var wg sync.WaitGroup
	run := func(resource string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				s.logger.Error().Err(err).
					Str("resource", resource).
					Str("doctor_id", doctorID.String()).
					Msg("global search bucket failed")
			}
		}()
	}

	run("patient", func() error {
		items, err := s.patients.QuickSearch(ctx, doctorID, q, PerResourceLimit)
		if err != nil {
			return err
		}
		if items != nil {
			res.Patients = items
		}
		return nil
	})
	run("consultation", func() error {
		items, err := s.consultations.QuickSearch(ctx, doctorID, q, PerResourceLimit)
		if err != nil {
			return err
		}
		if items != nil {
			res.Consultations = items
		}
		return nil
	})
	run("note", func() error {
		items, err := s.notes.QuickSearch(ctx, doctorID, q, PerResourceLimit)
		if err != nil {
			return err
		}
		if items != nil {
			res.Notes = items
		}
		return nil
	})
	run("exam", func() error {
		items, err := s.exams.QuickSearch(ctx, doctorID, q, PerResourceLimit)
		if err != nil {
			return err
		}
		if items != nil {
			res.Exams = items
		}
		return nil
	})
	run("prescription", func() error {
		items, err := s.prescriptions.QuickSearch(ctx, doctorID, q, PerResourceLimit)
		if err != nil {
			return err
		}
		if items != nil {
			res.Prescriptions = items
		}
		return nil
	})

	wg.Wait()
	return res
}
