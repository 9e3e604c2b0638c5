package note

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/prontuario/prontuario/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// Input is the decoded create/update body. View count and last-modified
// metadata are not accepted from the caller.
type Input struct {
	PatientID        *uuid.UUID      `json:"patient_id"`
	Title            *string         `json:"title"`
	Content          *string         `json:"content"`
	ConsultationDate *string         `json:"consultation_date"`
	NoteType         *string         `json:"note_type"`
	IsImportant      *bool           `json:"is_important"`
	Attachments      json.RawMessage `json:"attachments"`
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
	}

	if in.Title != nil && len(*in.Title) > 255 {
		errs.Add("title", "O título deve ter no máximo 255 caracteres")
	}
	if in.NoteType != nil && *in.NoteType != "" && !validTypes[*in.NoteType] {
		errs.Add("note_type", "Tipo de anotação inválido")
	}
	if in.ConsultationDate != nil && *in.ConsultationDate != "" {
		if _, err := time.Parse(dateLayout, *in.ConsultationDate); err != nil {
			errs.Add("consultation_date", "Data da consulta inválida")
		}
	}

	return errs
}

// Apply copies the supplied fields onto n. Absent fields are left untouched.
func (in *Input) Apply(n *Note) {
	if in.PatientID != nil {
		n.PatientID = *in.PatientID
	}
	if in.Title != nil {
		n.Title = *in.Title
	}
	if in.Content != nil {
		n.Content = in.Content
	}
	if in.ConsultationDate != nil && *in.ConsultationDate != "" {
		if d, err := time.Parse(dateLayout, *in.ConsultationDate); err == nil {
			n.ConsultationDate = &d
		}
	}
	if in.NoteType != nil {
		n.NoteType = *in.NoteType
	}
	if in.IsImportant != nil {
		n.IsImportant = *in.IsImportant
	}
	if in.Attachments != nil {
		n.Attachments = in.Attachments
	}
}
