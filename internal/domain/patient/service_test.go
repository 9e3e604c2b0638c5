package patient

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prontuario/prontuario/internal/platform/httpx"
)

// =========== Mock Repository ===========

type mockRepo struct {
	store     map[uuid.UUID]*Patient
	searched  bool
	listErr   error
	statsErr  error
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.store[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, doctorID, id uuid.UUID) (*Patient, error) {
	p, ok := m.store[id]
	if !ok || p.DoctorID != doctorID || p.DeletedAt != nil {
		return nil, httpx.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
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

func (m *mockRepo) List(_ context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var items []*Patient
	for _, p := range m.store {
		if p.DoctorID != doctorID || p.DeletedAt != nil {
			continue
		}
		if params["favorites"] == "true" && !p.Favorite {
			continue
		}
		if term := params["search"]; term != "" &&
			!strings.Contains(strings.ToLower(p.PatientName), strings.ToLower(term)) {
			continue
		}
		items = append(items, p)
	}
	return items, len(items), nil
}

func (m *mockRepo) QuickSearch(_ context.Context, doctorID uuid.UUID, term string, limit int) ([]*Summary, error) {
	m.searched = true
	var items []*Summary
	for _, p := range m.store {
		if p.DoctorID != doctorID || p.DeletedAt != nil {
			continue
		}
		if strings.Contains(strings.ToLower(p.PatientName), strings.ToLower(term)) {
			items = append(items, &Summary{ID: p.ID, PatientName: p.PatientName})
		}
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (m *mockRepo) Stats(_ context.Context, doctorID uuid.UUID) (map[string]interface{}, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	total := 0
	for _, p := range m.store {
		if p.DoctorID == doctorID && p.DeletedAt == nil {
			total++
		}
	}
	return map[string]interface{}{"total": total}, nil
}

func (m *mockRepo) Exists(_ context.Context, doctorID, id uuid.UUID) (bool, error) {
	p, ok := m.store[id]
	return ok && p.DoctorID == doctorID && p.DeletedAt == nil, nil
}

func (m *mockRepo) SetLastConsultationDate(_ context.Context, doctorID, patientID uuid.UUID, when time.Time) error {
	p, ok := m.store[patientID]
	if !ok || p.DoctorID != doctorID {
		return httpx.ErrNotFound
	}
	p.LastConsultationDate = &when
	return nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, nil, zerolog.Nop()), repo
}

func strPtr(s string) *string { return &s }

// =========== Tests ===========

func TestCreate_RequiredName(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), uuid.New(), &Input{})
	ve, ok := httpx.AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, found := ve.Fields["patient_name"]; !found {
		t.Errorf("expected patient_name violation, got %v", ve.Fields)
	}
}

func TestCreate_DefaultsFavoriteFalse(t *testing.T) {
	svc, _ := newTestService()
	p, err := svc.Create(context.Background(), uuid.New(), &Input{
		PatientName:    strPtr("Maria Silva"),
		DataNascimento: strPtr("1985-03-10"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Favorite {
		t.Error("expected favorite to default to false")
	}
	if p.DataNascimento == nil || p.DataNascimento.Format("2006-01-02") != "1985-03-10" {
		t.Errorf("expected birth date 1985-03-10, got %v", p.DataNascimento)
	}
}

func TestCreate_AliasCollapse(t *testing.T) {
	svc, _ := newTestService()
	p, err := svc.Create(context.Background(), uuid.New(), &Input{
		PatientName: strPtr("Maria Silva"),
		Celular:     strPtr("+55 11 99999-0000"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.PatientPhone == nil || *p.PatientPhone != "+55 11 99999-0000" {
		t.Errorf("expected celular collapsed into patient_phone, got %v", p.PatientPhone)
	}
	if p.Celular == nil || *p.Celular != "+55 11 99999-0000" {
		t.Error("expected alias value to be retained")
	}
}

func TestCreate_CanonicalNotOverwrittenByAlias(t *testing.T) {
	svc, _ := newTestService()
	p, err := svc.Create(context.Background(), uuid.New(), &Input{
		PatientName:  strPtr("Maria Silva"),
		PatientPhone: strPtr("111"),
		Celular:      strPtr("222"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *p.PatientPhone != "111" {
		t.Errorf("canonical value must win when both are supplied, got %s", *p.PatientPhone)
	}
}

func TestCreate_InvalidBirthDate(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), uuid.New(), &Input{
		PatientName:    strPtr("Maria"),
		DataNascimento: strPtr("10/03/1985"),
	})
	if !httpx.IsValidation(err) {
		t.Errorf("expected validation error for malformed date, got %v", err)
	}
}

func TestUpdate_PartialLeavesOtherFields(t *testing.T) {
	svc, _ := newTestService()
	doctorID := uuid.New()
	p, _ := svc.Create(context.Background(), doctorID, &Input{
		PatientName: strPtr("Maria Silva"),
		BloodType:   strPtr("O+"),
	})

	updated, err := svc.Update(context.Background(), doctorID, p.ID, &Input{
		PatientPhone: strPtr("123"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.PatientName != "Maria Silva" {
		t.Errorf("name must be untouched, got %s", updated.PatientName)
	}
	if updated.BloodType == nil || *updated.BloodType != "O+" {
		t.Errorf("blood type must be untouched, got %v", updated.BloodType)
	}
	if updated.PatientPhone == nil || *updated.PatientPhone != "123" {
		t.Errorf("phone must be updated, got %v", updated.PatientPhone)
	}
}

func TestTenantIsolation(t *testing.T) {
	svc, _ := newTestService()
	owner := uuid.New()
	intruder := uuid.New()
	p, _ := svc.Create(context.Background(), owner, &Input{PatientName: strPtr("Maria")})

	if _, err := svc.Get(context.Background(), intruder, p.ID); err != httpx.ErrNotFound {
		t.Errorf("expected not-found for foreign doctor, got %v", err)
	}
	if _, err := svc.Update(context.Background(), intruder, p.ID, &Input{PatientName: strPtr("X")}); err != httpx.ErrNotFound {
		t.Errorf("expected not-found on foreign update, got %v", err)
	}
	if err := svc.Delete(context.Background(), intruder, p.ID); err != httpx.ErrNotFound {
		t.Errorf("expected not-found on foreign delete, got %v", err)
	}
}

func TestSoftDelete_HidesButKeepsRow(t *testing.T) {
	svc, repo := newTestService()
	doctorID := uuid.New()
	p, _ := svc.Create(context.Background(), doctorID, &Input{PatientName: strPtr("Maria")})

	if err := svc.Delete(context.Background(), doctorID, p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Get(context.Background(), doctorID, p.ID); err != httpx.ErrNotFound {
		t.Errorf("expected deleted patient to be hidden, got %v", err)
	}
	row, ok := repo.store[p.ID]
	if !ok {
		t.Fatal("row must still exist in storage")
	}
	if row.DeletedAt == nil {
		t.Error("expected delete metadata to be set")
	}
}

func TestToggleFavorite(t *testing.T) {
	svc, _ := newTestService()
	doctorID := uuid.New()
	p, _ := svc.Create(context.Background(), doctorID, &Input{PatientName: strPtr("Maria")})

	toggled, err := svc.ToggleFavorite(context.Background(), doctorID, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !toggled.Favorite {
		t.Error("expected favorite true after toggle")
	}

	toggled, _ = svc.ToggleFavorite(context.Background(), doctorID, p.ID)
	if toggled.Favorite {
		t.Error("expected favorite false after second toggle")
	}
}

func TestList_FavoritesFilterAbsentIncludesAll(t *testing.T) {
	svc, _ := newTestService()
	doctorID := uuid.New()
	p, _ := svc.Create(context.Background(), doctorID, &Input{PatientName: strPtr("Maria Silva")})
	svc.ToggleFavorite(context.Background(), doctorID, p.ID)

	items, _, _, err := svc.List(context.Background(), doctorID, map[string]string{"favorites": "true"}, 15, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected Maria in favorites listing, got %d items", len(items))
	}

	// filter absent is not the same as filter false
	items, _, _, _ = svc.List(context.Background(), doctorID, nil, 15, 0)
	if len(items) != 1 {
		t.Errorf("expected Maria in unfiltered listing, got %d items", len(items))
	}
}

func TestQuickSearch_Threshold(t *testing.T) {
	svc, repo := newTestService()
	doctorID := uuid.New()
	svc.Create(context.Background(), doctorID, &Input{PatientName: strPtr("Maria Silva")})

	items, err := svc.QuickSearch(context.Background(), doctorID, "a", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty result for 1-char query, got %d", len(items))
	}
	if repo.searched {
		t.Error("1-char query must not touch storage")
	}

	items, _ = svc.QuickSearch(context.Background(), doctorID, "ma", 10)
	if !repo.searched {
		t.Error("2-char query must query storage")
	}
	if len(items) != 1 {
		t.Errorf("expected one match, got %d", len(items))
	}
}
