package consultation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prontuario/prontuario/internal/platform/httpx"
)

// =========== Mock Repository ===========

type mockRepo struct {
	store   map[uuid.UUID]*Consultation
	listErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*Consultation)}
}

func (m *mockRepo) Create(_ context.Context, c *Consultation) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	m.store[c.ID] = c
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, doctorID, id uuid.UUID) (*Consultation, error) {
	c, ok := m.store[id]
	if !ok || c.DoctorID != doctorID || c.DeletedAt != nil {
		return nil, httpx.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, c *Consultation) error {
	existing, ok := m.store[c.ID]
	if !ok || existing.DoctorID != c.DoctorID || existing.DeletedAt != nil {
		return httpx.ErrNotFound
	}
	m.store[c.ID] = c
	return nil
}

func (m *mockRepo) SoftDelete(_ context.Context, doctorID, id uuid.UUID) error {
	c, ok := m.store[id]
	if !ok || c.DoctorID != doctorID || c.DeletedAt != nil {
		return httpx.ErrNotFound
	}
	now := time.Now()
	c.DeletedAt = &now
	return nil
}

func (m *mockRepo) List(_ context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Consultation, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var items []*Consultation
	for _, c := range m.store {
		if c.DoctorID != doctorID || c.DeletedAt != nil {
			continue
		}
		if st := params["status"]; st != "" && c.Status != st {
			continue
		}
		items = append(items, c)
	}
	return items, len(items), nil
}

func (m *mockRepo) Today(_ context.Context, doctorID uuid.UUID) ([]*Consultation, error) {
	return nil, nil
}

func (m *mockRepo) Upcoming(_ context.Context, doctorID uuid.UUID, limit int) ([]*Consultation, error) {
	return nil, nil
}

func (m *mockRepo) QuickSearch(_ context.Context, doctorID uuid.UUID, term string, limit int) ([]*Summary, error) {
	return []*Summary{{ID: uuid.New()}}, nil
}

func (m *mockRepo) Stats(_ context.Context, doctorID uuid.UUID) (map[string]interface{}, error) {
	return EmptyStats(), nil
}

func (m *mockRepo) Recent(_ context.Context, doctorID uuid.UUID, limit int) ([]*Consultation, error) {
	return nil, nil
}

// =========== Mock Patient Guard ===========

type mockGuard struct {
	owned       map[uuid.UUID]bool
	lastStamped *uuid.UUID
}

func (m *mockGuard) Exists(_ context.Context, _ uuid.UUID, id uuid.UUID) (bool, error) {
	return m.owned[id], nil
}

func (m *mockGuard) SetLastConsultationDate(_ context.Context, _ uuid.UUID, patientID uuid.UUID) error {
	m.lastStamped = &patientID
	return nil
}

func newTestService() (*Service, *mockRepo, *mockGuard) {
	repo := newMockRepo()
	guard := &mockGuard{owned: make(map[uuid.UUID]bool)}
	return NewService(repo, guard, nil, zerolog.Nop()), repo, guard
}

func strPtr(s string) *string { return &s }

func futureDate() string {
	return time.Now().AddDate(0, 0, 7).Format(dateLayout)
}

func TestCreate_RequiresPatientAndDateAndType(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), uuid.New(), &Input{})
	if !httpx.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	ve := err.(*httpx.ValidationError)
	for _, field := range []string{"patient_id", "consultation_date", "consultation_type"} {
		if len(ve.Fields[field]) == 0 {
			t.Errorf("expected error for %s", field)
		}
	}
}

func TestCreate_RejectsPastDate(t *testing.T) {
	svc, _, guard := newTestService()
	patientID := uuid.New()
	guard.owned[patientID] = true

	past := time.Now().AddDate(0, 0, -1).Format(dateLayout)
	_, err := svc.Create(context.Background(), uuid.New(), &Input{
		PatientID:        &patientID,
		ConsultationDate: &past,
		ConsultationType: strPtr(TypeInPerson),
	})
	if !httpx.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreate_AcceptsTodayLocalDate(t *testing.T) {
	svc, _, guard := newTestService()
	patientID := uuid.New()
	guard.owned[patientID] = true

	// Today by the local calendar is never "in the past", even late in the
	// evening when the UTC day has already rolled over.
	today := time.Now().Format(dateLayout)
	_, err := svc.Create(context.Background(), uuid.New(), &Input{
		PatientID:        &patientID,
		ConsultationDate: &today,
		ConsultationType: strPtr(TypeInPerson),
	})
	if err != nil {
		t.Fatalf("create with today's date should succeed, got %v", err)
	}
}

func TestUpdate_AllowsPastDate(t *testing.T) {
	svc, repo, guard := newTestService()
	doctorID := uuid.New()
	patientID := uuid.New()
	guard.owned[patientID] = true

	d := futureDate()
	c, err := svc.Create(context.Background(), doctorID, &Input{
		PatientID:        &patientID,
		ConsultationDate: &d,
		ConsultationType: strPtr(TypeInPerson),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	past := time.Now().AddDate(0, 0, -3).Format(dateLayout)
	updated, err := svc.Update(context.Background(), doctorID, c.ID, &Input{
		ConsultationDate: &past,
	})
	if err != nil {
		t.Fatalf("update with past date should succeed, got %v", err)
	}
	if updated.ConsultationDate.Format(dateLayout) != past {
		t.Errorf("expected date %s, got %s", past, updated.ConsultationDate.Format(dateLayout))
	}
	_ = repo
}

func TestCreate_DefaultsStatusScheduled(t *testing.T) {
	svc, _, guard := newTestService()
	patientID := uuid.New()
	guard.owned[patientID] = true

	d := futureDate()
	c, err := svc.Create(context.Background(), uuid.New(), &Input{
		PatientID:        &patientID,
		ConsultationDate: &d,
		ConsultationType: strPtr(TypeInPerson),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != StatusScheduled {
		t.Errorf("expected status %q, got %q", StatusScheduled, c.Status)
	}
}

func TestCreate_RejectsForeignPatient(t *testing.T) {
	svc, _, _ := newTestService()
	patientID := uuid.New() // not owned

	d := futureDate()
	_, err := svc.Create(context.Background(), uuid.New(), &Input{
		PatientID:        &patientID,
		ConsultationDate: &d,
		ConsultationType: strPtr(TypeInPerson),
	})
	if !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("expected not found for unowned patient, got %v", err)
	}
}

func TestCreate_StampsLastConsultationDate(t *testing.T) {
	svc, _, guard := newTestService()
	patientID := uuid.New()
	guard.owned[patientID] = true

	d := futureDate()
	_, err := svc.Create(context.Background(), uuid.New(), &Input{
		PatientID:        &patientID,
		ConsultationDate: &d,
		ConsultationType: strPtr(TypeInPerson),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if guard.lastStamped == nil || *guard.lastStamped != patientID {
		t.Error("expected last consultation date write-back for the patient")
	}
}

func TestCreate_OnlineRequiresRoomLink(t *testing.T) {
	svc, _, guard := newTestService()
	patientID := uuid.New()
	guard.owned[patientID] = true

	d := futureDate()
	_, err := svc.Create(context.Background(), uuid.New(), &Input{
		PatientID:        &patientID,
		ConsultationDate: &d,
		ConsultationType: strPtr(TypeOnline),
	})
	if !httpx.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	ve := err.(*httpx.ValidationError)
	if len(ve.Fields["room_link"]) == 0 {
		t.Error("expected room_link error")
	}

	_, err = svc.Create(context.Background(), uuid.New(), &Input{
		PatientID:        &patientID,
		ConsultationDate: &d,
		ConsultationType: strPtr(TypeOnline),
		RoomLink:         strPtr("https://meet.example.com/sala-1"),
	})
	if err != nil {
		t.Fatalf("online with room link should succeed, got %v", err)
	}
}

func TestUpdate_SwitchToOnlineRequiresRoomLink(t *testing.T) {
	svc, _, guard := newTestService()
	doctorID := uuid.New()
	patientID := uuid.New()
	guard.owned[patientID] = true

	d := futureDate()
	c, err := svc.Create(context.Background(), doctorID, &Input{
		PatientID:        &patientID,
		ConsultationDate: &d,
		ConsultationType: strPtr(TypeInPerson),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Switching to online without a link fails against the merged state.
	_, err = svc.Update(context.Background(), doctorID, c.ID, &Input{
		ConsultationType: strPtr(TypeOnline),
	})
	if !httpx.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCombinedDate_MergesTime(t *testing.T) {
	in := &Input{
		ConsultationDate: strPtr("2026-09-15"),
		ConsultationTime: strPtr("14:30"),
	}
	d, ok := in.CombinedDate()
	if !ok {
		t.Fatal("expected combined date")
	}
	if d.Hour() != 14 || d.Minute() != 30 {
		t.Errorf("expected 14:30, got %02d:%02d", d.Hour(), d.Minute())
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, _, guard := newTestService()
	doctorID := uuid.New()
	patientID := uuid.New()
	guard.owned[patientID] = true

	d := futureDate()
	c, err := svc.Create(context.Background(), doctorID, &Input{
		PatientID:        &patientID,
		ConsultationDate: &d,
		ConsultationType: strPtr(TypeInPerson),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), doctorID, c.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("status update: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Errorf("expected %q, got %q", StatusCompleted, updated.Status)
	}

	if _, err := svc.UpdateStatus(context.Background(), doctorID, c.ID, "finished"); !httpx.IsValidation(err) {
		t.Errorf("expected validation error for unknown status, got %v", err)
	}
}

func TestTenantIsolation(t *testing.T) {
	svc, _, guard := newTestService()
	owner := uuid.New()
	intruder := uuid.New()
	patientID := uuid.New()
	guard.owned[patientID] = true

	d := futureDate()
	c, err := svc.Create(context.Background(), owner, &Input{
		PatientID:        &patientID,
		ConsultationDate: &d,
		ConsultationType: strPtr(TypeInPerson),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(context.Background(), intruder, c.ID); err != httpx.ErrNotFound {
		t.Errorf("expected not found for foreign doctor, got %v", err)
	}
	if err := svc.Delete(context.Background(), intruder, c.ID); err != httpx.ErrNotFound {
		t.Errorf("expected not found on foreign delete, got %v", err)
	}
}

func TestQuickSearch_MinLength(t *testing.T) {
	svc, _, _ := newTestService()

	items, err := svc.QuickSearch(context.Background(), uuid.New(), "a", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty result below minimum length, got %d", len(items))
	}
}

func TestBuildStats_ZeroDenominator(t *testing.T) {
	stats := BuildStats(0, 0, 0, 0, nil, map[string]int{}, map[string]int{})
	if stats["completion_rate"] != 0.0 {
		t.Errorf("expected completion_rate 0, got %v", stats["completion_rate"])
	}
	if stats["avg_duration"] != 0.0 {
		t.Errorf("expected avg_duration 0, got %v", stats["avg_duration"])
	}
}

func TestBuildStats_CompletionRate(t *testing.T) {
	avg := 33.333
	stats := BuildStats(3, 0, 0, 0, &avg, map[string]int{StatusCompleted: 2}, map[string]int{})
	if stats["completion_rate"] != 66.67 {
		t.Errorf("expected completion_rate 66.67, got %v", stats["completion_rate"])
	}
	if stats["avg_duration"] != 33.33 {
		t.Errorf("expected avg_duration 33.33, got %v", stats["avg_duration"])
	}
}
