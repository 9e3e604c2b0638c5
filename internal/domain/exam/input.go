package exam

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/prontuario/prontuario/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// Input is the decoded create/update body.
type Input struct {
	PatientID      *uuid.UUID      `json:"patient_id"`
	ConsultationID *uuid.UUID      `json:"consultation_id"`
	ExamName       *string         `json:"exam_name"`
	ExamType       *string         `json:"exam_type"`
	Category       *string         `json:"category"`
	ExamDate       *string         `json:"exam_date"`
	Status         *string         `json:"status"`
	RequestDetails json.RawMessage `json:"request_details"`
	Results        json.RawMessage `json:"results"`
}

func (in *Input) Validate(create bool) httpx.FieldErrors {
	errs := httpx.FieldErrors{}

	if create {
		if in.PatientID == nil {
			errs.Add("patient_id", "O paciente é obrigatório")
		}
		if in.ExamName == nil || *in.ExamName == "" {
			errs.Add("exam_name", "O nome do exame é obrigatório")
		}
		if in.ExamType == nil || *in.ExamType == "" {
			errs.Add("exam_type", "O tipo de exame é obrigatório")
		}
	}

	if in.ExamName != nil && len(*in.ExamName) > 255 {
		errs.Add("exam_name", "O nome do exame deve ter no máximo 255 caracteres")
	}
	if in.ExamType != nil && *in.ExamType != "" && !validTypes[*in.ExamType] {
		errs.Add("exam_type", "Tipo de exame inválido")
	}
	if in.Status != nil && !validStatuses[*in.Status] {
		errs.Add("status", "Status inválido")
	}
	if in.ExamDate != nil && *in.ExamDate != "" {
		if _, err := time.Parse(dateLayout, *in.ExamDate); err != nil {
			errs.Add("exam_date", "Data do exame inválida")
		}
	}

	return errs
}

// Apply copies the supplied fields onto e. Absent fields are left untouched.
func (in *Input) Apply(e *Exam) {
	if in.PatientID != nil {
		e.PatientID = *in.PatientID
	}
	if in.ConsultationID != nil {
		e.ConsultationID = in.ConsultationID
	}
	if in.ExamName != nil {
		e.ExamName = *in.ExamName
	}
	if in.ExamType != nil {
		e.ExamType = *in.ExamType
	}
	if in.Category != nil {
		e.Category = in.Category
	}
	if in.ExamDate != nil && *in.ExamDate != "" {
		if d, err := time.Parse(dateLayout, *in.ExamDate); err == nil {
			e.ExamDate = &d
		}
	}
	if in.Status != nil {
		e.Status = *in.Status
	}
	if in.RequestDetails != nil {
		e.RequestDetails = in.RequestDetails
	}
	if in.Results != nil {
		e.Results = in.Results
	}
}
