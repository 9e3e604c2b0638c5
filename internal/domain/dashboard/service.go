package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prontuario/prontuario/internal/domain/consultation"
	"github.com/prontuario/prontuario/internal/domain/exam"
	"github.com/prontuario/prontuario/internal/domain/prescription"
)

// DefaultActivityLimit bounds the recent-activity feed when the caller does
// not ask for a specific size.
const DefaultActivityLimit = 10

// StatsSource computes one resource's aggregate block.
type StatsSource interface {
	Stats(ctx context.Context, doctorID uuid.UUID) (map[string]interface{}, error)
}

// Recent feeds, one per resource that appears in the activity stream.
type (
	ConsultationFeed interface {
		Recent(ctx context.Context, doctorID uuid.UUID, limit int) ([]*consultation.Consultation, error)
	}
	ExamFeed interface {
		Recent(ctx context.Context, doctorID uuid.UUID, limit int) ([]*exam.Exam, error)
	}
	PrescriptionFeed interface {
		Recent(ctx context.Context, doctorID uuid.UUID, limit int) ([]*prescription.Prescription, error)
	}
)

// Activity is one entry of the merged recent-activity feed.
type Activity struct {
	Type      string    `json:"type"`
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

type Service struct {
	sources       map[string]StatsSource
	consultations ConsultationFeed
	exams         ExamFeed
	prescriptions PrescriptionFeed
	logger        zerolog.Logger
}

func NewService(
	sources map[string]StatsSource,
	consultations ConsultationFeed,
	exams ExamFeed,
	prescriptions PrescriptionFeed,
	logger zerolog.Logger,
) *Service {
	return &Service{
		sources:       sources,
		consultations: consultations,
		exams:         exams,
		prescriptions: prescriptions,
		logger:        logger,
	}
}

// Stats aggregates every resource's statistics block under its resource
// name. A failed source degrades to an empty block, keeping the dashboard
// renderable.
func (s *Service) Stats(ctx context.Context, doctorID uuid.UUID) map[string]interface{} {
	out := make(map[string]interface{}, len(s.sources))
	for name, src := range s.sources {
		stats, err := src.Stats(ctx, doctorID)
		if err != nil {
			s.logger.Error().Err(err).
				Str("resource", name).
				Str("doctor_id", doctorID.String()).
				Msg("dashboard stats source failed")
			stats = map[string]interface{}{}
		}
		out[name] = stats
	}
	return out
}

// RecentActivity merges the newest consultations, exams and prescriptions
// into one time-sorted feed, truncated at limit.
func (s *Service) RecentActivity(ctx context.Context, doctorID uuid.UUID, limit int) ([]*Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	var feed []*Activity

	consultations, err := s.consultations.Recent(ctx, doctorID, limit)
	if err != nil {
		return nil, err
	}
	for _, c := range consultations {
		title := "Consulta"
		if c.Reason != nil && *c.Reason != "" {
			title = *c.Reason
		}
		feed = append(feed, &Activity{
			Type:      "consultation",
			ID:        c.ID,
			PatientID: c.PatientID,
			Title:     title,
			Timestamp: c.CreatedAt,
		})
	}

	exams, err := s.exams.Recent(ctx, doctorID, limit)
	if err != nil {
		return nil, err
	}
	for _, e := range exams {
		feed = append(feed, &Activity{
			Type:      "exam",
			ID:        e.ID,
			PatientID: e.PatientID,
			Title:     e.ExamName,
			Timestamp: e.CreatedAt,
		})
	}

	prescriptions, err := s.prescriptions.Recent(ctx, doctorID, limit)
	if err != nil {
		return nil, err
	}
	for _, p := range prescriptions {
		feed = append(feed, &Activity{
			Type:      "prescription",
			ID:        p.ID,
			PatientID: p.PatientID,
			Title:     p.Title,
			Timestamp: p.CreatedAt,
		})
	}

	sort.Slice(feed, func(i, j int) bool {
		return feed[i].Timestamp.After(feed[j].Timestamp)
	})
	if len(feed) > limit {
		feed = feed[:limit]
	}
	if feed == nil {
		feed = []*Activity{}
	}
	return feed, nil
}
