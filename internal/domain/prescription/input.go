package prescription

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/prontuario/prontuario/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// Input is the decoded create/update body. Medicamentos is the legacy alias
// for medications; Normalize copies it onto the canonical field when only
// the alias was supplied.
type Input struct {
	PatientID           *uuid.UUID      `json:"patient_id"`
	ConsultationID      *uuid.UUID      `json:"consultation_id"`
	Title               *string         `json:"title"`
	PrescriptionType    *string         `json:"prescription_type"`
	DataEmissao         *string         `json:"data_emissao"`
	ExpirationDate      *string         `json:"expiration_date"`
	Medications         json.RawMessage `json:"medications"`
	Medicamentos        json.RawMessage `json:"medicamentos"`
	GeneralInstructions *string         `json:"general_instructions"`
	Status              *string         `json:"status"`
}

func (in *Input) Validate(create bool) httpx.FieldErrors {
	errs := httpx.FieldErrors{}

	if create {
		if in.PatientID == nil {
			errs.Add("patient_id", "O paciente é obrigatório")
		}
		if in.Title == nil || *in.Title == "" {
			errs.Add("title", "O título é obrigatório")
		}
		if in.PrescriptionType == nil || *in.PrescriptionType == "" {
			errs.Add("prescription_type", "O tipo de receita é obrigatório")
		}
		if in.DataEmissao == nil || *in.DataEmissao == "" {
			errs.Add("data_emissao", "A data de emissão é obrigatória")
		}
	}

	if in.Title != nil && len(*in.Title) > 255 {
		errs.Add("title", "O título deve ter no máximo 255 caracteres")
	}
	if in.PrescriptionType != nil && *in.PrescriptionType != "" && !validTypes[*in.PrescriptionType] {
		errs.Add("prescription_type", "Tipo de receita inválido")
	}
	if in.Status != nil && !validStatuses[*in.Status] {
		errs.Add("status", "Status inválido")
	}

	var issued, expires *time.Time
	if in.DataEmissao != nil && *in.DataEmissao != "" {
		d, err := time.Parse(dateLayout, *in.DataEmissao)
		if err != nil {
			errs.Add("data_emissao", "Data de emissão inválida")
		} else {
			issued = &d
		}
	}
	if in.ExpirationDate != nil && *in.ExpirationDate != "" {
		d, err := time.Parse(dateLayout, *in.ExpirationDate)
		if err != nil {
			errs.Add("expiration_date", "Data de validade inválida")
		} else {
			expires = &d
		}
	}
	if issued != nil && expires != nil && !expires.After(*issued) {
		errs.Add("expiration_date", "A data de validade deve ser posterior à data de emissão")
	}

	return errs
}

// ValidateDates enforces expiration-after-issuance against the merged state,
// so an update that moves either date cannot invert the pair.
func ValidateDates(p *Prescription, errs httpx.FieldErrors) {
	if p.ExpirationDate != nil && !p.ExpirationDate.After(p.DataEmissao) {
		errs.Add("expiration_date", "A data de validade deve ser posterior à data de emissão")
	}
}

// Normalize collapses the medicamentos alias onto medications. Runs after
// validation, before persistence; a caller-supplied canonical value wins.
func (in *Input) Normalize() {
	if in.Medications == nil && in.Medicamentos != nil {
		in.Medications = in.Medicamentos
	}
}

// Apply copies the supplied fields onto p. Absent fields are left untouched.
func (in *Input) Apply(p *Prescription) {
	if in.PatientID != nil {
		p.PatientID = *in.PatientID
	}
	if in.ConsultationID != nil {
		p.ConsultationID = in.ConsultationID
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.PrescriptionType != nil {
		p.PrescriptionType = *in.PrescriptionType
	}
	if in.DataEmissao != nil && *in.DataEmissao != "" {
		if d, err := time.Parse(dateLayout, *in.DataEmissao); err == nil {
			p.DataEmissao = d
		}
	}
	if in.ExpirationDate != nil && *in.ExpirationDate != "" {
		if d, err := time.Parse(dateLayout, *in.ExpirationDate); err == nil {
			p.ExpirationDate = &d
		}
	}
	if in.Medications != nil {
		p.Medications = in.Medications
	}
	if in.Medicamentos != nil {
		p.Medicamentos = in.Medicamentos
	}
	if in.GeneralInstructions != nil {
		p.GeneralInstructions = in.GeneralInstructions
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
}
