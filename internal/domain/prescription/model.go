package prescription

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// Prescription types.
const (
	TypeMedication = "medication"
	TypeExam       = "exam"
	TypeProcedure  = "procedure"
	TypeRest       = "rest"
	TypeDiet       = "diet"
	TypeOther      = "other"
)

// Prescription statuses. "Ativa" is a legacy value still present in older
// rows and remains accepted alongside "active".
const (
	StatusActive    = "active"
	StatusActiveOld = "Ativa"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

var validTypes = map[string]bool{
	TypeMedication: true,
	TypeExam:       true,
	TypeProcedure:  true,
	TypeRest:       true,
	TypeDiet:       true,
	TypeOther:      true,
}

var validStatuses = map[string]bool{
	StatusActive:    true,
	StatusActiveOld: true,
	StatusCompleted: true,
	StatusCancelled: true,
	StatusExpired:   true,
}

// activeStatuses covers both spellings when filtering for active rows.
var activeStatuses = []string{StatusActive, StatusActiveOld}

// Prescription maps to the prescriptions table. Medications carries the
// legacy medicamentos alias alongside the canonical column.
type Prescription struct {
	ID                  uuid.UUID       `db:"id" json:"id"`
	DoctorID            uuid.UUID       `db:"doctor_id" json:"doctor_id"`
	PatientID           uuid.UUID       `db:"patient_id" json:"patient_id"`
	ConsultationID      *uuid.UUID      `db:"consultation_id" json:"consultation_id,omitempty"`
	Title               string          `db:"title" json:"title"`
	PrescriptionType    string          `db:"prescription_type" json:"prescription_type"`
	DataEmissao         time.Time       `db:"data_emissao" json:"data_emissao"`
	ExpirationDate      *time.Time      `db:"expiration_date" json:"expiration_date,omitempty"`
	Medications         json.RawMessage `db:"medications" json:"medications,omitempty"`
	Medicamentos        json.RawMessage `db:"medicamentos" json:"medicamentos,omitempty"`
	GeneralInstructions *string         `db:"general_instructions" json:"general_instructions,omitempty"`
	Status              string          `db:"status" json:"status"`
	PdfURL              *string         `db:"pdf_url" json:"pdf_url,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt           *time.Time      `db:"deleted_at" json:"-"`
}

// IsActive treats both the canonical and legacy status spellings as active.
func (p *Prescription) IsActive() bool {
	return p.Status == StatusActive || p.Status == StatusActiveOld
}

// Summary is the lightweight projection returned by quick and global search.
type Summary struct {
	ID               uuid.UUID `json:"id"`
	PatientID        uuid.UUID `json:"patient_id"`
	Title            string    `json:"title"`
	PrescriptionType string    `json:"prescription_type"`
	Status           string    `json:"status"`
	DataEmissao      time.Time `json:"data_emissao"`
}

// BuildStats assembles the aggregate block for the prescription list
// endpoint. completion_rate over zero rows is 0, not NaN.
func BuildStats(total, active, expired, thisMonth int, byType map[string]int, completed int) map[string]interface{} {
	rate := 0.0
	if total > 0 {
		rate = math.Round(float64(completed)/float64(total)*100*100) / 100
	}
	return map[string]interface{}{
		"total":           total,
		"active":          active,
		"expired":         expired,
		"this_month":      thisMonth,
		"by_type":         byType,
		"completion_rate": rate,
	}
}
