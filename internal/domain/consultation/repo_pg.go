package consultation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prontuario/prontuario/internal/platform/db"
	"github.com/prontuario/prontuario/internal/platform/httpx"
	"github.com/prontuario/prontuario/internal/platform/listing"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns the pgx-backed consultation repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `consultations.id, consultations.doctor_id, consultations.patient_id,
	consultations.consultation_date, consultations.duration_minutes,
	consultations.consultation_type, consultations.room_link, consultations.status,
	consultations.reason, consultations.notes, consultations.diagnosis,
	consultations.procedures, consultations.referrals, consultations.exams_requested,
	consultations.follow_up, consultations.created_at, consultations.updated_at,
	consultations.deleted_at`

func scan(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(&c.ID, &c.DoctorID, &c.PatientID,
		&c.ConsultationDate, &c.DurationMinutes,
		&c.ConsultationType, &c.RoomLink, &c.Status,
		&c.Reason, &c.Notes, &c.Diagnosis,
		&c.Procedures, &c.Referrals, &c.ExamsRequested,
		&c.FollowUp, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consultations (id, doctor_id, patient_id, consultation_date,
			duration_minutes, consultation_type, room_link, status, reason, notes,
			diagnosis, procedures, referrals, exams_requested, follow_up)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		c.ID, c.DoctorID, c.PatientID, c.ConsultationDate,
		c.DurationMinutes, c.ConsultationType, c.RoomLink, c.Status, c.Reason, c.Notes,
		c.Diagnosis, c.Procedures, c.Referrals, c.ExamsRequested, c.FollowUp)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Consultation, error) {
	return scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM consultations WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		id, doctorID))
}

func (r *repoPG) Update(ctx context.Context, c *Consultation) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE consultations SET patient_id=$3, consultation_date=$4,
			duration_minutes=$5, consultation_type=$6, room_link=$7, status=$8,
			reason=$9, notes=$10, diagnosis=$11, procedures=$12, referrals=$13,
			exams_requested=$14, follow_up=$15, updated_at=NOW()
		WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		c.ID, c.DoctorID, c.PatientID, c.ConsultationDate,
		c.DurationMinutes, c.ConsultationType, c.RoomLink, c.Status,
		c.Reason, c.Notes, c.Diagnosis, c.Procedures, c.Referrals,
		c.ExamsRequested, c.FollowUp)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repoPG) SoftDelete(ctx context.Context, doctorID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE consultations SET deleted_at = NOW() WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

var listConfig = listing.Config{
	Table:   "consultations",
	Columns: cols,
	Filters: map[string]listing.Filter{
		"status":            {Kind: listing.FilterEquals, Column: "status"},
		"consultation_type": {Kind: listing.FilterEquals, Column: "consultation_type"},
		"patient_id":        {Kind: listing.FilterEquals, Column: "patient_id"},
		"date_from":         {Kind: listing.FilterDateFrom, Column: "consultation_date"},
		"date_to":           {Kind: listing.FilterDateTo, Column: "consultation_date"},
	},
	SearchCols:  []string{"reason", "diagnosis", "notes"},
	PatientJoin: true,
	SortAllow: map[string]string{
		"consultation_date": "consultations.consultation_date",
		"status":            "consultations.status",
		"created_at":        "consultations.created_at",
	},
	DefaultSort: "consultations.consultation_date DESC",
}

func (r *repoPG) List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Consultation, int, error) {
	q := listConfig.Build(doctorID, params)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Consultation
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *repoPG) collect(rows pgx.Rows) ([]*Consultation, error) {
	defer rows.Close()
	var items []*Consultation
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *repoPG) Today(ctx context.Context, doctorID uuid.UUID) ([]*Consultation, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM consultations
		WHERE doctor_id = $1 AND deleted_at IS NULL
		  AND consultation_date::date = CURRENT_DATE
		ORDER BY consultation_date ASC`, doctorID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *repoPG) Upcoming(ctx context.Context, doctorID uuid.UUID, limit int) ([]*Consultation, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM consultations
		WHERE doctor_id = $1 AND deleted_at IS NULL
		  AND consultation_date > NOW() AND status = $2
		ORDER BY consultation_date ASC
		LIMIT $3`, doctorID, StatusScheduled, limit)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *repoPG) QuickSearch(ctx context.Context, doctorID uuid.UUID, term string, limit int) ([]*Summary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT c.id, c.patient_id, c.consultation_date, c.status, c.reason
		FROM consultations c
		LEFT JOIN patients p ON p.id = c.patient_id
		WHERE c.doctor_id = $1 AND c.deleted_at IS NULL
		  AND (c.reason ILIKE $2 OR c.diagnosis ILIKE $2 OR p.patient_name ILIKE $2 OR p.nome_completo ILIKE $2)
		ORDER BY c.consultation_date DESC
		LIMIT $3`, doctorID, "%"+listing.EscapeLike(term)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.PatientID, &s.ConsultationDate, &s.Status, &s.Reason); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context, doctorID uuid.UUID) (map[string]interface{}, error) {
	var total, today, thisWeek, thisMonth int
	var avgDuration *float64
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE consultation_date::date = CURRENT_DATE),
		       COUNT(*) FILTER (WHERE consultation_date >= date_trunc('week', NOW())),
		       COUNT(*) FILTER (WHERE consultation_date >= date_trunc('month', NOW())),
		       AVG(duration_minutes)
		FROM consultations WHERE doctor_id = $1 AND deleted_at IS NULL`, doctorID).
		Scan(&total, &today, &thisWeek, &thisMonth, &avgDuration)
	if err != nil {
		return nil, err
	}

	byStatus := map[string]int{}
	byType := map[string]int{}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT status, consultation_type, COUNT(*)
		FROM consultations
		WHERE doctor_id = $1 AND deleted_at IS NULL
		GROUP BY status, consultation_type`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var ctype *string
		var n int
		if err := rows.Scan(&status, &ctype, &n); err != nil {
			return nil, err
		}
		byStatus[status] += n
		if ctype != nil {
			byType[*ctype] += n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return BuildStats(total, today, thisWeek, thisMonth, avgDuration, byStatus, byType), nil
}

func (r *repoPG) Recent(ctx context.Context, doctorID uuid.UUID, limit int) ([]*Consultation, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM consultations
		WHERE doctor_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2`, doctorID, limit)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}
