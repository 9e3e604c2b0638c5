package prescription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prontuario/prontuario/internal/platform/httpx"
)

// =========== Mock Repository ===========

type mockRepo struct {
	store map[uuid.UUID]*Prescription
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*Prescription)}
}

func (m *mockRepo) Create(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.store[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, doctorID, id uuid.UUID) (*Prescription, error) {
	p, ok := m.store[id]
	if !ok || p.DoctorID != doctorID || p.DeletedAt != nil {
		return nil, httpx.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, p *Prescription) error {
	existing, ok := m.store[p.ID]
	if !ok || existing.DoctorID != p.DoctorID || existing.DeletedAt != nil {
		return httpx.ErrNotFound
	}
	m.store[p.ID] = p
	return nil
}

func (m *mockRepo) SoftDelete(_ context.Context, doctorID, id uuid.UUID) error {
	p, ok := m.store[id]
	if !ok || p.DoctorID != doctorID || p.DeletedAt != nil {
		return httpx.ErrNotFound
	}
	now := time.Now()
	p.DeletedAt = &now
	return nil
}

func (m *mockRepo) List(_ context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Prescription, int, error) {
	var items []*Prescription
	for _, p := range m.store {
		if p.DoctorID == doctorID && p.DeletedAt == nil {
			items = append(items, p)
		}
	}
	return items, len(items), nil
}

func (m *mockRepo) Active(_ context.Context, doctorID uuid.UUID) ([]*Prescription, error) {
	var items []*Prescription
	for _, p := range m.store {
		if p.DoctorID == doctorID && p.DeletedAt == nil && p.IsActive() {
			items = append(items, p)
		}
	}
	return items, nil
}

func (m *mockRepo) Expired(_ context.Context, doctorID uuid.UUID) ([]*Prescription, error) {
	now := time.Now()
	var items []*Prescription
	for _, p := range m.store {
		if p.DoctorID == doctorID && p.DeletedAt == nil &&
			p.ExpirationDate != nil && p.ExpirationDate.Before(now) {
			items = append(items, p)
		}
	}
	return items, nil
}

func (m *mockRepo) QuickSearch(_ context.Context, doctorID uuid.UUID, term string, limit int) ([]*Summary, error) {
	return nil, nil
}

func (m *mockRepo) Stats(_ context.Context, doctorID uuid.UUID) (map[string]interface{}, error) {
	return EmptyStats(), nil
}

func (m *mockRepo) Recent(_ context.Context, doctorID uuid.UUID, limit int) ([]*Prescription, error) {
	return nil, nil
}

type mockGuard struct {
	owned map[uuid.UUID]bool
}

func (m *mockGuard) Exists(_ context.Context, _ uuid.UUID, id uuid.UUID) (bool, error) {
	return m.owned[id], nil
}

func newTestService() (*Service, *mockRepo, *mockGuard) {
	repo := newMockRepo()
	patients := &mockGuard{owned: make(map[uuid.UUID]bool)}
	consultations := &mockGuard{owned: make(map[uuid.UUID]bool)}
	svc := NewService(repo, patients, consultations, StubPDFGenerator{}, nil, zerolog.Nop())
	return svc, repo, patients
}

func strPtr(s string) *string { return &s }

func validInput(patientID uuid.UUID) *Input {
	return &Input{
		PatientID:        &patientID,
		Title:            strPtr("Receita de amoxicilina"),
		PrescriptionType: strPtr(TypeMedication),
		DataEmissao:      strPtr("2026-08-01"),
	}
}

func TestCreate_RequiredFields(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), uuid.New(), &Input{})
	if !httpx.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	ve := err.(*httpx.ValidationError)
	for _, field := range []string{"patient_id", "title", "prescription_type", "data_emissao"} {
		if len(ve.Fields[field]) == 0 {
			t.Errorf("expected error for %s", field)
		}
	}
}

func TestCreate_RejectsForeignPatient(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.Create(context.Background(), uuid.New(), validInput(uuid.New()))
	if !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("expected not found for unowned patient, got %v", err)
	}
	if len(repo.store) != 0 {
		t.Error("expected no prescription persisted")
	}
}

func TestCreate_ExpirationMustFollowIssuance(t *testing.T) {
	svc, _, patients := newTestService()
	patientID := uuid.New()
	patients.owned[patientID] = true

	in := validInput(patientID)
	in.ExpirationDate = strPtr("2026-08-01") // equal, not after
	_, err := svc.Create(context.Background(), uuid.New(), in)
	if !httpx.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	ve := err.(*httpx.ValidationError)
	if len(ve.Fields["expiration_date"]) == 0 {
		t.Error("expected expiration_date error")
	}

	in.ExpirationDate = strPtr("2026-09-01")
	if _, err := svc.Create(context.Background(), uuid.New(), in); err != nil {
		t.Fatalf("later expiration should succeed, got %v", err)
	}
}

func TestUpdate_CannotInvertDates(t *testing.T) {
	svc, _, patients := newTestService()
	doctorID := uuid.New()
	patientID := uuid.New()
	patients.owned[patientID] = true

	in := validInput(patientID)
	in.ExpirationDate = strPtr("2026-09-01")
	p, err := svc.Create(context.Background(), doctorID, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Moving issuance past the stored expiration must fail too.
	_, err = svc.Update(context.Background(), doctorID, p.ID, &Input{
		DataEmissao: strPtr("2026-10-01"),
	})
	if !httpx.IsValidation(err) {
		t.Fatalf("expected validation error on merged state, got %v", err)
	}
}

func TestAliasCollapse_Medicamentos(t *testing.T) {
	svc, repo, patients := newTestService()
	patientID := uuid.New()
	patients.owned[patientID] = true

	meds := json.RawMessage(`[{"name":"Amoxicilina 500mg","dosage":"8/8h"}]`)
	in := validInput(patientID)
	in.Medicamentos = meds

	p, err := svc.Create(context.Background(), uuid.New(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stored := repo.store[p.ID]
	if !bytes.Equal(stored.Medications, meds) {
		t.Errorf("expected alias collapsed onto medications, got %s", stored.Medications)
	}
	if !bytes.Equal(stored.Medicamentos, meds) {
		t.Error("expected alias field retained")
	}
}

func TestAliasCollapse_CanonicalWins(t *testing.T) {
	svc, repo, patients := newTestService()
	patientID := uuid.New()
	patients.owned[patientID] = true

	canonical := json.RawMessage(`["canonical"]`)
	in := validInput(patientID)
	in.Medications = canonical
	in.Medicamentos = json.RawMessage(`["legado"]`)

	p, err := svc.Create(context.Background(), uuid.New(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !bytes.Equal(repo.store[p.ID].Medications, canonical) {
		t.Errorf("expected canonical value kept, got %s", repo.store[p.ID].Medications)
	}
}

func TestCreate_DefaultsStatusActive(t *testing.T) {
	svc, _, patients := newTestService()
	patientID := uuid.New()
	patients.owned[patientID] = true

	p, err := svc.Create(context.Background(), uuid.New(), validInput(patientID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != StatusActive {
		t.Errorf("expected active default, got %q", p.Status)
	}
}

func TestLegacyStatusAccepted(t *testing.T) {
	svc, _, patients := newTestService()
	doctorID := uuid.New()
	patientID := uuid.New()
	patients.owned[patientID] = true

	in := validInput(patientID)
	in.Status = strPtr(StatusActiveOld)
	p, err := svc.Create(context.Background(), doctorID, in)
	if err != nil {
		t.Fatalf("legacy status should validate, got %v", err)
	}
	if !p.IsActive() {
		t.Error("expected legacy spelling treated as active")
	}

	active, err := svc.Active(context.Background(), doctorID)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("expected legacy-status row in active filter, got %d", len(active))
	}
}

func TestGeneratePDF_StampsDeterministicURL(t *testing.T) {
	svc, repo, patients := newTestService()
	doctorID := uuid.New()
	patientID := uuid.New()
	patients.owned[patientID] = true

	p, err := svc.Create(context.Background(), doctorID, validInput(patientID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	withPDF, err := svc.GeneratePDF(context.Background(), doctorID, p.ID)
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	want := "/storage/prescriptions/" + p.ID.String() + ".pdf"
	if withPDF.PdfURL == nil || *withPDF.PdfURL != want {
		t.Errorf("expected %s, got %v", want, withPDF.PdfURL)
	}
	if repo.store[p.ID].PdfURL == nil {
		t.Error("expected pdf url persisted")
	}
}

func TestBuildStats_ZeroDenominator(t *testing.T) {
	stats := BuildStats(0, 0, 0, 0, map[string]int{}, 0)
	if stats["completion_rate"] != 0.0 {
		t.Errorf("expected completion_rate 0 over empty set, got %v", stats["completion_rate"])
	}
}

func TestTenantIsolation(t *testing.T) {
	svc, _, patients := newTestService()
	owner := uuid.New()
	patientID := uuid.New()
	patients.owned[patientID] = true

	p, err := svc.Create(context.Background(), owner, validInput(patientID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(context.Background(), uuid.New(), p.ID); err != httpx.ErrNotFound {
		t.Errorf("expected not found for foreign doctor, got %v", err)
	}
	if _, err := svc.GeneratePDF(context.Background(), uuid.New(), p.ID); err != httpx.ErrNotFound {
		t.Errorf("expected not found on foreign pdf request, got %v", err)
	}
}
