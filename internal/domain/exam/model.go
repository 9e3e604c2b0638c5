package exam

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Exam types.
const (
	TypeLab        = "lab"
	TypeImaging    = "imaging"
	TypeFunctional = "functional"
	TypeEndoscopic = "endoscopic"
	TypeBiopsy     = "biopsy"
	TypeOther      = "other"
)

// Exam statuses. New exams default to pending.
const (
	StatusPending    = "pending"
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

var validTypes = map[string]bool{
	TypeLab:        true,
	TypeImaging:    true,
	TypeFunctional: true,
	TypeEndoscopic: true,
	TypeBiopsy:     true,
	TypeOther:      true,
}

var validStatuses = map[string]bool{
	StatusPending:    true,
	StatusScheduled:  true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
}

// Exam maps to the exams table. The consultation link is optional.
type Exam struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	DoctorID       uuid.UUID       `db:"doctor_id" json:"doctor_id"`
	PatientID      uuid.UUID       `db:"patient_id" json:"patient_id"`
	ConsultationID *uuid.UUID      `db:"consultation_id" json:"consultation_id,omitempty"`
	ExamName       string          `db:"exam_name" json:"exam_name"`
	ExamType       string          `db:"exam_type" json:"exam_type"`
	Category       *string         `db:"category" json:"category,omitempty"`
	ExamDate       *time.Time      `db:"exam_date" json:"exam_date,omitempty"`
	Status         string          `db:"status" json:"status"`
	RequestDetails json.RawMessage `db:"request_details" json:"request_details,omitempty"`
	Results        json.RawMessage `db:"results" json:"results,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time      `db:"deleted_at" json:"-"`
}

// Summary is the lightweight projection returned by quick and global search.
type Summary struct {
	ID        uuid.UUID  `json:"id"`
	PatientID uuid.UUID  `json:"patient_id"`
	ExamName  string     `json:"exam_name"`
	ExamType  string     `json:"exam_type"`
	Status    string     `json:"status"`
	ExamDate  *time.Time `json:"exam_date,omitempty"`
}
