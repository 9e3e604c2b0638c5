package patient

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/prontuario/prontuario/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// Input is the decoded create/update body. Pointer fields distinguish
// "absent" from "set to empty", which is what gives updates their
// validate-only-what-was-sent semantics.
type Input struct {
	PatientName      *string         `json:"patient_name"`
	NomeCompleto     *string         `json:"nome_completo"`
	PatientPhone     *string         `json:"patient_phone"`
	Celular          *string         `json:"celular"`
	PatientEmail     *string         `json:"patient_email"`
	Email            *string         `json:"email"`
	DataNascimento   *string         `json:"data_nascimento"`
	BloodType        *string         `json:"blood_type"`
	TipoSanguineo    *string         `json:"tipo_sanguineo"`
	HeightCm         *float64        `json:"height_cm"`
	WeightKg         *float64        `json:"weight_kg"`
	Smoker           *bool           `json:"smoker"`
	Favorite         *bool           `json:"favorite"`
	Allergies        json.RawMessage `json:"allergies"`
	ChronicDiseases  json.RawMessage `json:"chronic_diseases"`
	Medications      json.RawMessage `json:"medications"`
	SurgicalHistory  json.RawMessage `json:"surgical_history"`
	FamilyHistory    json.RawMessage `json:"family_history"`
	EmergencyContact json.RawMessage `json:"emergency_contact"`
	Insurance        json.RawMessage `json:"insurance"`
}

// Validate checks the input against the patient field contract. In create
// mode required fields must be present and non-empty; in update mode every
// field is optional and only supplied fields are checked.
func (in *Input) Validate(create bool) httpx.FieldErrors {
	errs := httpx.FieldErrors{}

	if create && (in.PatientName == nil || strings.TrimSpace(*in.PatientName) == "") {
		errs.Add("patient_name", "O nome do paciente é obrigatório")
	}
	if in.PatientName != nil && len(*in.PatientName) > 255 {
		errs.Add("patient_name", "O nome deve ter no máximo 255 caracteres")
	}
	if in.DataNascimento != nil && *in.DataNascimento != "" {
		if _, err := time.Parse(dateLayout, *in.DataNascimento); err != nil {
			errs.Add("data_nascimento", "Data de nascimento inválida")
		}
	}
	if in.PatientEmail != nil && *in.PatientEmail != "" && !strings.Contains(*in.PatientEmail, "@") {
		errs.Add("patient_email", "E-mail inválido")
	}
	if in.HeightCm != nil && (*in.HeightCm <= 0 || *in.HeightCm > 300) {
		errs.Add("height_cm", "Altura inválida")
	}
	if in.WeightKg != nil && (*in.WeightKg <= 0 || *in.WeightKg > 700) {
		errs.Add("weight_kg", "Peso inválido")
	}

	return errs
}

// Normalize collapses legacy alias fields onto their canonical counterpart.
// Runs after validation and before persistence; the alias value itself is
// still persisted.
func (in *Input) Normalize() {
	if in.PatientName == nil && in.NomeCompleto != nil {
		v := *in.NomeCompleto
		in.PatientName = &v
	}
	if in.PatientPhone == nil && in.Celular != nil {
		v := *in.Celular
		in.PatientPhone = &v
	}
	if in.PatientEmail == nil && in.Email != nil {
		v := *in.Email
		in.PatientEmail = &v
	}
	if in.BloodType == nil && in.TipoSanguineo != nil {
		v := *in.TipoSanguineo
		in.BloodType = &v
	}
}

// Apply copies the supplied fields onto p. Absent fields are left untouched.
func (in *Input) Apply(p *Patient) {
	if in.PatientName != nil {
		p.PatientName = *in.PatientName
	}
	if in.NomeCompleto != nil {
		p.NomeCompleto = in.NomeCompleto
	}
	if in.PatientPhone != nil {
		p.PatientPhone = in.PatientPhone
	}
	if in.Celular != nil {
		p.Celular = in.Celular
	}
	if in.PatientEmail != nil {
		p.PatientEmail = in.PatientEmail
	}
	if in.Email != nil {
		p.Email = in.Email
	}
	if in.DataNascimento != nil && *in.DataNascimento != "" {
		if d, err := time.Parse(dateLayout, *in.DataNascimento); err == nil {
			p.DataNascimento = &d
		}
	}
	if in.BloodType != nil {
		p.BloodType = in.BloodType
	}
	if in.TipoSanguineo != nil {
		p.TipoSanguineo = in.TipoSanguineo
	}
	if in.HeightCm != nil {
		p.HeightCm = in.HeightCm
	}
	if in.WeightKg != nil {
		p.WeightKg = in.WeightKg
	}
	if in.Smoker != nil {
		p.Smoker = *in.Smoker
	}
	if in.Favorite != nil {
		p.Favorite = *in.Favorite
	}
	if in.Allergies != nil {
		p.Allergies = in.Allergies
	}
	if in.ChronicDiseases != nil {
		p.ChronicDiseases = in.ChronicDiseases
	}
	if in.Medications != nil {
		p.Medications = in.Medications
	}
	if in.SurgicalHistory != nil {
		p.SurgicalHistory = in.SurgicalHistory
	}
	if in.FamilyHistory != nil {
		p.FamilyHistory = in.FamilyHistory
	}
	if in.EmergencyContact != nil {
		p.EmergencyContact = in.EmergencyContact
	}
	if in.Insurance != nil {
		p.Insurance = in.Insurance
	}
}
