package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prontuario/prontuario/internal/domain/consultation"
	"github.com/prontuario/prontuario/internal/domain/exam"
	"github.com/prontuario/prontuario/internal/domain/note"
	"github.com/prontuario/prontuario/internal/domain/patient"
	"github.com/prontuario/prontuario/internal/domain/prescription"
)

type stubSearchers struct {
	calls       atomic.Int32
	patientErr  error
	numPatients int
}

func (s *stubSearchers) track() {
	s.calls.Add(1)
}

type patientStub struct{ s *stubSearchers }

func (p patientStub) QuickSearch(_ context.Context, _ uuid.UUID, q string, limit int) ([]*patient.Summary, error) {
	p.s.track()
	if p.s.patientErr != nil {
		return nil, p.s.patientErr
	}
	n := p.s.numPatients
	if n > limit {
		n = limit
	}
	items := make([]*patient.Summary, n)
	for i := range items {
		items[i] = &patient.Summary{ID: uuid.New()}
	}
	return items, nil
}

type consultationStub struct{ s *stubSearchers }

func (c consultationStub) QuickSearch(_ context.Context, _ uuid.UUID, q string, limit int) ([]*consultation.Summary, error) {
	c.s.track()
	return []*consultation.Summary{{ID: uuid.New()}}, nil
}

type noteStub struct{ s *stubSearchers }

func (n noteStub) QuickSearch(_ context.Context, _ uuid.UUID, q string, limit int) ([]*note.Summary, error) {
	n.s.track()
	return nil, nil
}

type examStub struct{ s *stubSearchers }

func (e examStub) QuickSearch(_ context.Context, _ uuid.UUID, q string, limit int) ([]*exam.Summary, error) {
	e.s.track()
	return []*exam.Summary{{ID: uuid.New()}}, nil
}

type prescriptionStub struct{ s *stubSearchers }

func (p prescriptionStub) QuickSearch(_ context.Context, _ uuid.UUID, q string, limit int) ([]*prescription.Summary, error) {
	p.s.track()
	return []*prescription.Summary{{ID: uuid.New()}}, nil
}

func newTestService(stubs *stubSearchers) *Service {
	return NewService(
		patientStub{stubs},
		consultationStub{stubs},
		noteStub{stubs},
		examStub{stubs},
		prescriptionStub{stubs},
		zerolog.Nop(),
	)
}

func TestSearchAll_ShortQuerySkipsStorage(t *testing.T) {
	stubs := &stubSearchers{}
	svc := newTestService(stubs)

	res := svc.SearchAll(context.Background(), uuid.New(), "a")
	if stubs.calls.Load() != 0 {
		t.Errorf("expected no searcher calls for short query, got %d", stubs.calls.Load())
	}
	if len(res.Patients) != 0 || len(res.Consultations) != 0 || len(res.Notes) != 0 ||
		len(res.Exams) != 0 || len(res.Prescriptions) != 0 {
		t.Error("expected all-empty buckets")
	}
	if res.Patients == nil || res.Notes == nil {
		t.Error("expected empty slices, not nil, so the JSON encodes as []")
	}
}

func TestSearchAll_FansOutToAllResources(t *testing.T) {
	stubs := &stubSearchers{numPatients: 2}
	svc := newTestService(stubs)

	res := svc.SearchAll(context.Background(), uuid.New(), "maria")
	if stubs.calls.Load() != 5 {
		t.Errorf("expected 5 searcher calls, got %d", stubs.calls.Load())
	}
	if len(res.Patients) != 2 {
		t.Errorf("expected 2 patients, got %d", len(res.Patients))
	}
	if len(res.Consultations) != 1 || len(res.Exams) != 1 || len(res.Prescriptions) != 1 {
		t.Error("expected one result per stubbed bucket")
	}
	if res.Notes == nil || len(res.Notes) != 0 {
		t.Error("expected nil searcher result normalized to empty slice")
	}
}

func TestSearchAll_CapsPerResource(t *testing.T) {
	stubs := &stubSearchers{numPatients: 50}
	svc := newTestService(stubs)

	res := svc.SearchAll(context.Background(), uuid.New(), "silva")
	if len(res.Patients) != PerResourceLimit {
		t.Errorf("expected bucket capped at %d, got %d", PerResourceLimit, len(res.Patients))
	}
}

func TestSearchAll_FailedBucketDegradesToEmpty(t *testing.T) {
	stubs := &stubSearchers{patientErr: errors.New("connection refused")}
	svc := newTestService(stubs)

	res := svc.SearchAll(context.Background(), uuid.New(), "maria")
	if len(res.Patients) != 0 {
		t.Error("expected failed bucket empty")
	}
	if len(res.Consultations) != 1 {
		t.Error("expected other buckets unaffected")
	}
}
