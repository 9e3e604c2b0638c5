package consultation

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// Consultation types.
const (
	TypeInPerson  = "in_person"
	TypeOnline    = "online"
	TypeHome      = "home"
	TypeEmergency = "emergency"
)

// Consultation statuses.
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusNoShow     = "no_show"
)

var validTypes = map[string]bool{
	TypeInPerson: true, TypeOnline: true, TypeHome: true, TypeEmergency: true,
}

var validStatuses = map[string]bool{
	StatusScheduled: true, StatusInProgress: true, StatusCompleted: true,
	StatusCancelled: true, StatusNoShow: true,
}

// Consultation maps to the consultations table.
type Consultation struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	DoctorID         uuid.UUID       `db:"doctor_id" json:"doctor_id"`
	PatientID        uuid.UUID       `db:"patient_id" json:"patient_id"`
	ConsultationDate time.Time       `db:"consultation_date" json:"consultation_date"`
	DurationMinutes  *int            `db:"duration_minutes" json:"duration_minutes,omitempty"`
	ConsultationType string          `db:"consultation_type" json:"consultation_type"`
	RoomLink         *string         `db:"room_link" json:"room_link,omitempty"`
	Status           string          `db:"status" json:"status"`
	Reason           *string         `db:"reason" json:"reason,omitempty"`
	Notes            *string         `db:"notes" json:"notes,omitempty"`
	Diagnosis        *string         `db:"diagnosis" json:"diagnosis,omitempty"`
	Procedures       json.RawMessage `db:"procedures" json:"procedures,omitempty"`
	Referrals        json.RawMessage `db:"referrals" json:"referrals,omitempty"`
	ExamsRequested   json.RawMessage `db:"exams_requested" json:"exams_requested,omitempty"`
	FollowUp         json.RawMessage `db:"follow_up" json:"follow_up,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt        *time.Time      `db:"deleted_at" json:"-"`
}

// Summary is the lightweight projection returned by quick and global search.
type Summary struct {
	ID               uuid.UUID `json:"id"`
	PatientID        uuid.UUID `json:"patient_id"`
	ConsultationDate time.Time `json:"consultation_date"`
	Status           string    `json:"status"`
	Reason           *string   `json:"reason,omitempty"`
}

// BuildStats assembles the aggregate block for the consultation list endpoint.
// Ratios with a zero denominator report 0, not NaN.
func BuildStats(total, today, thisWeek, thisMonth int, avgDuration *float64, byStatus, byType map[string]int) map[string]interface{} {
	avg := 0.0
	if avgDuration != nil {
		avg = math.Round(*avgDuration*100) / 100
	}
	rate := 0.0
	if total > 0 {
		rate = math.Round(float64(byStatus[StatusCompleted])/float64(total)*100*100) / 100
	}
	return map[string]interface{}{
		"total":           total,
		"today":           today,
		"this_week":       thisWeek,
		"this_month":      thisMonth,
		"by_status":       byStatus,
		"by_type":         byType,
		"avg_duration":    avg,
		"completion_rate": rate,
	}
}
