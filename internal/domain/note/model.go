package note

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Note types. New notes default to general.
const (
	TypeConsultation = "consultation"
	TypeObservation  = "observation"
	TypeReminder     = "reminder"
	TypeTreatment    = "treatment"
	TypeFollowUp     = "follow_up"
	TypeGeneral      = "general"
)

var validTypes = map[string]bool{
	TypeConsultation: true,
	TypeObservation:  true,
	TypeReminder:     true,
	TypeTreatment:    true,
	TypeFollowUp:     true,
	TypeGeneral:      true,
}

// Note maps to the notes table. The view counter and last-modified metadata
// are stamped server-side, never by the caller.
type Note struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	DoctorID         uuid.UUID       `db:"doctor_id" json:"doctor_id"`
	PatientID        uuid.UUID       `db:"patient_id" json:"patient_id"`
	Title            string          `db:"title" json:"title"`
	Content          *string         `db:"content" json:"content,omitempty"`
	ConsultationDate *time.Time      `db:"consultation_date" json:"consultation_date,omitempty"`
	NoteType         string          `db:"note_type" json:"note_type"`
	IsImportant      bool            `db:"is_important" json:"is_important"`
	Attachments      json.RawMessage `db:"attachments" json:"attachments,omitempty"`
	ViewCount        int             `db:"view_count" json:"view_count"`
	LastModifiedAt   *time.Time      `db:"last_modified_at" json:"last_modified_at,omitempty"`
	LastModifiedBy   *uuid.UUID      `db:"last_modified_by" json:"last_modified_by,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt        *time.Time      `db:"deleted_at" json:"-"`
}

// Summary is the lightweight projection returned by quick and global search.
type Summary struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	Title       string    `json:"title"`
	NoteType    string    `json:"note_type"`
	IsImportant bool      `json:"is_important"`
	CreatedAt   time.Time `json:"created_at"`
}
