package anamnesis

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/prontuario/prontuario/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// Input is the decoded create/update body.
type Input struct {
	PatientID          *uuid.UUID      `json:"patient_id"`
	AnamnesisDate      *string         `json:"anamnesis_date"`
	ChiefComplaint     *string         `json:"chief_complaint"`
	IllnessHistory     *string         `json:"illness_history"`
	MedicalHistory     json.RawMessage `json:"medical_history"`
	SurgicalHistory    json.RawMessage `json:"surgical_history"`
	SocialHistory      json.RawMessage `json:"social_history"`
	CurrentMedications json.RawMessage `json:"current_medications"`
	Allergies          json.RawMessage `json:"allergies"`
	SystemsReview      json.RawMessage `json:"systems_review"`
	PhysicalExam       json.RawMessage `json:"physical_exam"`
	Diagnosis          *string         `json:"diagnosis"`
	TreatmentPlan      *string         `json:"treatment_plan"`
}

// Validate checks field shapes. The anamnesis date may not be in the future.
func (in *Input) Validate(create bool) httpx.FieldErrors {
	errs := httpx.FieldErrors{}

	if create {
		if in.PatientID == nil {
			errs.Add("patient_id", "O paciente é obrigatório")
		}
		if in.AnamnesisDate == nil || *in.AnamnesisDate == "" {
			errs.Add("anamnesis_date", "A data da anamnese é obrigatória")
		}
	}

	if in.AnamnesisDate != nil && *in.AnamnesisDate != "" {
		d, err := time.Parse(dateLayout, *in.AnamnesisDate)
		if err != nil {
			errs.Add("anamnesis_date", "Data da anamnese inválida")
		} else if d.After(time.Now()) {
			errs.Add("anamnesis_date", "A data da anamnese não pode estar no futuro")
		}
	}
	if in.ChiefComplaint != nil && len(*in.ChiefComplaint) > 1000 {
		errs.Add("chief_complaint", "A queixa principal deve ter no máximo 1000 caracteres")
	}
	if in.IllnessHistory != nil && len(*in.IllnessHistory) > 3000 {
		errs.Add("illness_history", "A história da doença deve ter no máximo 3000 caracteres")
	}

	return errs
}

// Apply copies the supplied fields onto a. Absent fields are left untouched.
func (in *Input) Apply(a *Anamnesis) {
	if in.PatientID != nil {
		a.PatientID = *in.PatientID
	}
	if in.AnamnesisDate != nil && *in.AnamnesisDate != "" {
		if d, err := time.Parse(dateLayout, *in.AnamnesisDate); err == nil {
			a.AnamnesisDate = d
		}
	}
	if in.ChiefComplaint != nil {
		a.ChiefComplaint = in.ChiefComplaint
	}
	if in.IllnessHistory != nil {
		a.IllnessHistory = in.IllnessHistory
	}
	if in.MedicalHistory != nil {
		a.MedicalHistory = in.MedicalHistory
	}
	if in.SurgicalHistory != nil {
		a.SurgicalHistory = in.SurgicalHistory
	}
	if in.SocialHistory != nil {
		a.SocialHistory = in.SocialHistory
	}
	if in.CurrentMedications != nil {
		a.CurrentMedications = in.CurrentMedications
	}
	if in.Allergies != nil {
		a.Allergies = in.Allergies
	}
	if in.SystemsReview != nil {
		a.SystemsReview = in.SystemsReview
	}
	if in.PhysicalExam != nil {
		a.PhysicalExam = in.PhysicalExam
	}
	if in.Diagnosis != nil {
		a.Diagnosis = in.Diagnosis
	}
	if in.TreatmentPlan != nil {
		a.TreatmentPlan = in.TreatmentPlan
	}
}
