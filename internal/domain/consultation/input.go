package consultation

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prontuario/prontuario/internal/platform/httpx"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Input is the decoded create/update body. The consultation's timestamp
// arrives as a separate date and optional time-of-day and is combined at
// write time.
type Input struct {
	PatientID        *uuid.UUID      `json:"patient_id"`
	ConsultationDate *string         `json:"consultation_date"`
	ConsultationTime *string         `json:"consultation_time"`
	DurationMinutes  *int            `json:"duration_minutes"`
	ConsultationType *string         `json:"consultation_type"`
	RoomLink         *string         `json:"room_link"`
	Status           *string         `json:"status"`
	Reason           *string         `json:"reason"`
	Notes            *string         `json:"notes"`
	Diagnosis        *string         `json:"diagnosis"`
	Procedures       json.RawMessage `json:"procedures"`
	Referrals        json.RawMessage `json:"referrals"`
	ExamsRequested   json.RawMessage `json:"exams_requested"`
	FollowUp         json.RawMessage `json:"follow_up"`
}

// Validate checks field shapes. The date-not-in-the-past rule applies only
// on create; updates may move a consultation into the past.
func (in *Input) Validate(create bool) httpx.FieldErrors {
	errs := httpx.FieldErrors{}

	if create {
		if in.PatientID == nil {
			errs.Add("patient_id", "O paciente é obrigatório")
		}
		if in.ConsultationDate == nil || *in.ConsultationDate == "" {
			errs.Add("consultation_date", "A data da consulta é obrigatória")
		}
		if in.ConsultationType == nil || *in.ConsultationType == "" {
			errs.Add("consultation_type", "O tipo de consulta é obrigatório")
		}
	}

	var parsedDate *time.Time
	if in.ConsultationDate != nil && *in.ConsultationDate != "" {
		d, err := time.Parse(dateLayout, *in.ConsultationDate)
		if err != nil {
			errs.Add("consultation_date", "Data da consulta inválida")
		} else {
			parsedDate = &d
		}
	}
	if create && parsedDate != nil {
		// parsedDate is midnight UTC of the written date; build today the
		// same way from the local calendar day so the comparison is between
		// calendar dates, not instants.
		now := time.Now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if parsedDate.Before(today) {
			errs.Add("consultation_date", "A data da consulta não pode estar no passado")
		}
	}
	if in.ConsultationTime != nil && *in.ConsultationTime != "" {
		if _, err := time.Parse(timeLayout, *in.ConsultationTime); err != nil {
			errs.Add("consultation_time", "Horário inválido")
		}
	}
	if in.ConsultationType != nil && *in.ConsultationType != "" && !validTypes[*in.ConsultationType] {
		errs.Add("consultation_type", "Tipo de consulta inválido")
	}
	if in.Status != nil && !validStatuses[*in.Status] {
		errs.Add("status", "Status inválido")
	}
	if in.DurationMinutes != nil && *in.DurationMinutes <= 0 {
		errs.Add("duration_minutes", "Duração inválida")
	}
	if in.Reason != nil && len(*in.Reason) > 1000 {
		errs.Add("reason", "O motivo deve ter no máximo 1000 caracteres")
	}

	return errs
}

// ValidateRoomLink enforces the required-iff-online rule against the merged
// state, so an update that switches the type to online without providing a
// room link also fails.
func ValidateRoomLink(c *Consultation, errs httpx.FieldErrors) {
	if c.ConsultationType == TypeOnline && (c.RoomLink == nil || strings.TrimSpace(*c.RoomLink) == "") {
		errs.Add("room_link", "O link da sala é obrigatório para consultas online")
	}
}

// CombinedDate merges the date and time-of-day fields into one timestamp.
// Returns false when the date field is absent.
func (in *Input) CombinedDate() (time.Time, bool) {
	if in.ConsultationDate == nil || *in.ConsultationDate == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(dateLayout, *in.ConsultationDate)
	if err != nil {
		return time.Time{}, false
	}
	if in.ConsultationTime != nil && *in.ConsultationTime != "" {
		if tm, err := time.Parse(timeLayout, *in.ConsultationTime); err == nil {
			d = d.Add(time.Duration(tm.Hour())*time.Hour + time.Duration(tm.Minute())*time.Minute)
		}
	}
	return d, true
}

// Apply copies the supplied fields onto c. Absent fields are left untouched.
func (in *Input) Apply(c *Consultation) {
	if in.PatientID != nil {
		c.PatientID = *in.PatientID
	}
	if d, ok := in.CombinedDate(); ok {
		c.ConsultationDate = d
	}
	if in.DurationMinutes != nil {
		c.DurationMinutes = in.DurationMinutes
	}
	if in.ConsultationType != nil {
		c.ConsultationType = *in.ConsultationType
	}
	if in.RoomLink != nil {
		c.RoomLink = in.RoomLink
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	if in.Reason != nil {
		c.Reason = in.Reason
	}
	if in.Notes != nil {
		c.Notes = in.Notes
	}
	if in.Diagnosis != nil {
		c.Diagnosis = in.Diagnosis
	}
	if in.Procedures != nil {
		c.Procedures = in.Procedures
	}
	if in.Referrals != nil {
		c.Referrals = in.Referrals
	}
	if in.ExamsRequested != nil {
		c.ExamsRequested = in.ExamsRequested
	}
	if in.FollowUp != nil {
		c.FollowUp = in.FollowUp
	}
}
