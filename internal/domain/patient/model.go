package patient

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. Alias columns (nome_completo, celular,
// email, tipo_sanguineo) carry the same value as their canonical field for
// clients that still read the legacy names; both are persisted.
type Patient struct {
	ID                   uuid.UUID       `db:"id" json:"id"`
	DoctorID             uuid.UUID       `db:"doctor_id" json:"doctor_id"`
	PatientName          string          `db:"patient_name" json:"patient_name"`
	NomeCompleto         *string         `db:"nome_completo" json:"nome_completo,omitempty"`
	PatientPhone         *string         `db:"patient_phone" json:"patient_phone,omitempty"`
	Celular              *string         `db:"celular" json:"celular,omitempty"`
	PatientEmail         *string         `db:"patient_email" json:"patient_email,omitempty"`
	Email                *string         `db:"email" json:"email,omitempty"`
	DataNascimento       *time.Time      `db:"data_nascimento" json:"data_nascimento,omitempty"`
	BloodType            *string         `db:"blood_type" json:"blood_type,omitempty"`
	TipoSanguineo        *string         `db:"tipo_sanguineo" json:"tipo_sanguineo,omitempty"`
	HeightCm             *float64        `db:"height_cm" json:"height_cm,omitempty"`
	WeightKg             *float64        `db:"weight_kg" json:"weight_kg,omitempty"`
	Smoker               bool            `db:"smoker" json:"smoker"`
	Favorite             bool            `db:"favorite" json:"favorite"`
	Allergies            json.RawMessage `db:"allergies" json:"allergies,omitempty"`
	ChronicDiseases      json.RawMessage `db:"chronic_diseases" json:"chronic_diseases,omitempty"`
	Medications          json.RawMessage `db:"medications" json:"medications,omitempty"`
	SurgicalHistory      json.RawMessage `db:"surgical_history" json:"surgical_history,omitempty"`
	FamilyHistory        json.RawMessage `db:"family_history" json:"family_history,omitempty"`
	EmergencyContact     json.RawMessage `db:"emergency_contact" json:"emergency_contact,omitempty"`
	Insurance            json.RawMessage `db:"insurance" json:"insurance,omitempty"`
	LastConsultationDate *time.Time      `db:"last_consultation_date" json:"last_consultation_date,omitempty"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt            *time.Time      `db:"deleted_at" json:"-"`
}

// Summary is the lightweight projection returned by quick and global search.
type Summary struct {
	ID             uuid.UUID  `json:"id"`
	PatientName    string     `json:"patient_name"`
	PatientPhone   *string    `json:"patient_phone,omitempty"`
	DataNascimento *time.Time `json:"data_nascimento,omitempty"`
}
