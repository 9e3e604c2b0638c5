package anamnesis

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Anamnesis maps to the anamneses table. The clinical history blocks are
// free-form JSON and round-trip byte-identical.
type Anamnesis struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	DoctorID           uuid.UUID       `db:"doctor_id" json:"doctor_id"`
	PatientID          uuid.UUID       `db:"patient_id" json:"patient_id"`
	AnamnesisDate      time.Time       `db:"anamnesis_date" json:"anamnesis_date"`
	ChiefComplaint     *string         `db:"chief_complaint" json:"chief_complaint,omitempty"`
	IllnessHistory     *string         `db:"illness_history" json:"illness_history,omitempty"`
	MedicalHistory     json.RawMessage `db:"medical_history" json:"medical_history,omitempty"`
	SurgicalHistory    json.RawMessage `db:"surgical_history" json:"surgical_history,omitempty"`
	SocialHistory      json.RawMessage `db:"social_history" json:"social_history,omitempty"`
	CurrentMedications json.RawMessage `db:"current_medications" json:"current_medications,omitempty"`
	Allergies          json.RawMessage `db:"allergies" json:"allergies,omitempty"`
	SystemsReview      json.RawMessage `db:"systems_review" json:"systems_review,omitempty"`
	PhysicalExam       json.RawMessage `db:"physical_exam" json:"physical_exam,omitempty"`
	Diagnosis          *string         `db:"diagnosis" json:"diagnosis,omitempty"`
	TreatmentPlan      *string         `db:"treatment_plan" json:"treatment_plan,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt          *time.Time      `db:"deleted_at" json:"-"`
}

// Template is the pre-fill payload for a new anamnesis, lifted from the
// patient's most recent record. Dated and point-in-time fields are left out.
type Template struct {
	MedicalHistory     json.RawMessage `json:"medical_history,omitempty"`
	SurgicalHistory    json.RawMessage `json:"surgical_history,omitempty"`
	SocialHistory      json.RawMessage `json:"social_history,omitempty"`
	CurrentMedications json.RawMessage `json:"current_medications,omitempty"`
	Allergies          json.RawMessage `json:"allergies,omitempty"`
}

// Summary is the lightweight projection returned by quick search.
type Summary struct {
	ID             uuid.UUID `json:"id"`
	PatientID      uuid.UUID `json:"patient_id"`
	AnamnesisDate  time.Time `json:"anamnesis_date"`
	ChiefComplaint *string   `json:"chief_complaint,omitempty"`
}
