package patient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/prontuario/prontuario/internal/platform/auth"
)

func newTestHandler() (*Handler, *mockRepo, *echo.Echo) {
	repo := newMockRepo()
	svc := NewService(repo, nil, zerolog.Nop())
	return NewHandler(svc, zerolog.Nop()), repo, echo.New()
}

func request(e *echo.Echo, method, target, body string, doctorID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(auth.WithActor(req.Context(), doctorID))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Create(t *testing.T) {
	h, _, e := newTestHandler()
	doctorID := uuid.New()
	c, rec := request(e, http.MethodPost, "/api/v1/patients",
		`{"patient_name":"Maria Silva","data_nascimento":"1985-03-10"}`, doctorID)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["success"] != true {
		t.Error("expected success envelope")
	}
	p, ok := resp["patient"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected patient key in response: %v", resp)
	}
	if p["favorite"] != false {
		t.Errorf("expected favorite default false, got %v", p["favorite"])
	}
}

func TestHandler_Create_MissingName(t *testing.T) {
	h, _, e := newTestHandler()
	c, rec := request(e, http.MethodPost, "/api/v1/patients", `{"celular":"123"}`, uuid.New())

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var resp struct {
		Success bool                `json:"success"`
		Errors  map[string][]string `json:"errors"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Success {
		t.Error("expected success false")
	}
	if len(resp.Errors["patient_name"]) == 0 {
		t.Errorf("expected patient_name error, got %v", resp.Errors)
	}
}

func TestHandler_Get_ForeignOwnerIs404(t *testing.T) {
	h, repo, e := newTestHandler()
	owner := uuid.New()
	p := &Patient{DoctorID: owner, PatientName: "Maria"}
	repo.Create(nil, p)

	c, rec := request(e, http.MethodGet, "/", "", uuid.New())
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())
	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for foreign owner, got %d", rec.Code)
	}
}

func TestHandler_Get_BadID(t *testing.T) {
	h, _, e := newTestHandler()
	c, rec := request(e, http.MethodGet, "/", "", uuid.New())
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for malformed id, got %d", rec.Code)
	}
}

func TestHandler_List_FailsOpen(t *testing.T) {
	h, repo, e := newTestHandler()
	repo.listErr = echo.NewHTTPError(http.StatusInternalServerError, "db down")

	c, rec := request(e, http.MethodGet, "/api/v1/patients", "", uuid.New())
	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("listing must fail open with 200, got %d", rec.Code)
	}

	var resp struct {
		Data  []interface{}          `json:"data"`
		Stats map[string]interface{} `json:"stats"`
		Error string                 `json:"error"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Data) != 0 {
		t.Errorf("expected empty data, got %v", resp.Data)
	}
	if resp.Stats["total"] != float64(0) {
		t.Errorf("expected zeroed stats, got %v", resp.Stats)
	}
	if resp.Error == "" {
		t.Error("expected generic error message")
	}
}

func TestHandler_List_Meta(t *testing.T) {
	h, _, e := newTestHandler()
	doctorID := uuid.New()
	h.svc.Create(auth.WithActor(httptest.NewRequest("GET", "/", nil).Context(), doctorID), doctorID, &Input{PatientName: strPtr("Maria")})

	c, rec := request(e, http.MethodGet, "/api/v1/patients?page=1&per_page=10", "", doctorID)
	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Meta struct {
			Total   int `json:"total"`
			Page    int `json:"page"`
			PerPage int `json:"per_page"`
		} `json:"meta"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Meta.Total != 1 || resp.Meta.Page != 1 || resp.Meta.PerPage != 10 {
		t.Errorf("unexpected meta: %+v", resp.Meta)
	}
}

func TestHandler_QuickSearch_ShortQuery(t *testing.T) {
	h, repo, e := newTestHandler()
	c, rec := request(e, http.MethodGet, "/api/v1/patients/search/quick?q=a", "", uuid.New())
	if err := h.QuickSearch(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
	if repo.searched {
		t.Error("short query must not touch storage")
	}
}

func TestHandler_ToggleFavorite(t *testing.T) {
	h, repo, e := newTestHandler()
	doctorID := uuid.New()
	p := &Patient{DoctorID: doctorID, PatientName: "Maria"}
	repo.Create(nil, p)

	c, rec := request(e, http.MethodPatch, "/", "", doctorID)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())
	if err := h.ToggleFavorite(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	patient := resp["patient"].(map[string]interface{})
	if patient["favorite"] != true {
		t.Errorf("expected favorite true, got %v", patient["favorite"])
	}
}

func TestHandler_Delete(t *testing.T) {
	h, repo, e := newTestHandler()
	doctorID := uuid.New()
	p := &Patient{DoctorID: doctorID, PatientName: "Maria"}
	repo.Create(nil, p)

	c, rec := request(e, http.MethodDelete, "/", "", doctorID)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())
	if err := h.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if repo.store[p.ID].DeletedAt == nil {
		t.Error("expected soft delete metadata")
	}
}
