package exam

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

// NewRepoPG returns the pgx-backed exam repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `exams.id, exams.doctor_id, exams.patient_id, exams.consultation_id,
	exams.exam_name, exams.exam_type, exams.category, exams.exam_date, exams.status,
	exams.request_details, exams.results, exams.created_at, exams.updated_at,
	exams.deleted_at`

func scan(row pgx.Row) (*Exam, error) {
	var e Exam
	err := row.Scan(&e.ID, &e.DoctorID, &e.PatientID, &e.ConsultationID,
		&e.ExamName, &e.ExamType, &e.Category, &e.ExamDate, &e.Status,
		&e.RequestDetails, &e.Results, &e.CreatedAt, &e.UpdatedAt,
		&e.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *Exam) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO exams (id, doctor_id, patient_id, consultation_id, exam_name,
			exam_type, category, exam_date, status, request_details, results)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, e.DoctorID, e.PatientID, e.ConsultationID, e.ExamName,
		e.ExamType, e.Category, e.ExamDate, e.Status, e.RequestDetails, e.Results)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Exam, error) {
	return scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM exams WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		id, doctorID))
}

func (r *repoPG) Update(ctx context.Context, e *Exam) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE exams SET patient_id=$3, consultation_id=$4, exam_name=$5,
			exam_type=$6, category=$7, exam_date=$8, status=$9,
			request_details=$10, results=$11, updated_at=NOW()
		WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		e.ID, e.DoctorID, e.PatientID, e.ConsultationID, e.ExamName,
		e.ExamType, e.Category, e.ExamDate, e.Status,
		e.RequestDetails, e.Results)
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
		`UPDATE exams SET deleted_at = NOW() WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
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
	Table:   "exams",
	Columns: cols,
	Filters: map[string]listing.Filter{
		"status":     {Kind: listing.FilterEquals, Column: "status"},
		"exam_type":  {Kind: listing.FilterEquals, Column: "exam_type"},
		"category":   {Kind: listing.FilterEquals, Column: "category"},
		"patient_id": {Kind: listing.FilterEquals, Column: "patient_id"},
		"date_from":  {Kind: listing.FilterDateFrom, Column: "exam_date"},
		"date_to":    {Kind: listing.FilterDateTo, Column: "exam_date"},
	},
	SearchCols:  []string{"exam_name", "category"},
	PatientJoin: true,
	SortAllow: map[string]string{
		"exam_date":  "exams.exam_date",
		"exam_name":  "exams.exam_name",
		"status":     "exams.status",
		"created_at": "exams.created_at",
	},
	DefaultSort: "exams.created_at DESC",
}

func (r *repoPG) List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Exam, int, error) {
	q := listConfig.Build(doctorID, params)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return r.collect(rows, &total)
}

func (r *repoPG) collect(rows pgx.Rows, total *int) ([]*Exam, int, error) {
	defer rows.Close()
	var items []*Exam
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	n := 0
	if total != nil {
		n = *total
	}
	return items, n, rows.Err()
}

func (r *repoPG) Pending(ctx context.Context, doctorID uuid.UUID) ([]*Exam, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM exams
		WHERE doctor_id = $1 AND deleted_at IS NULL AND status = $2
		ORDER BY created_at DESC`, doctorID, StatusPending)
	if err != nil {
		return nil, err
	}
	items, _, err := r.collect(rows, nil)
	return items, err
}

func (r *repoPG) QuickSearch(ctx context.Context, doctorID uuid.UUID, term string, limit int) ([]*Summary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT e.id, e.patient_id, e.exam_name, e.exam_type, e.status, e.exam_date
		FROM exams e
		LEFT JOIN patients p ON p.id = e.patient_id
		WHERE e.doctor_id = $1 AND e.deleted_at IS NULL
		  AND (e.exam_name ILIKE $2 OR e.category ILIKE $2 OR p.patient_name ILIKE $2 OR p.nome_completo ILIKE $2)
		ORDER BY e.created_at DESC
		LIMIT $3`, doctorID, "%"+listing.EscapeLike(term)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.PatientID, &s.ExamName, &s.ExamType, &s.Status, &s.ExamDate); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context, doctorID uuid.UUID) (map[string]interface{}, error) {
	var total, pending, completed, thisMonth int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE created_at >= date_trunc('month', NOW()))
		FROM exams WHERE doctor_id = $1 AND deleted_at IS NULL`, doctorID).
		Scan(&total, &pending, &completed, &thisMonth)
	if err != nil {
		return nil, err
	}

	byType := map[string]int{}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT exam_type, COUNT(*) FROM exams
		WHERE doctor_id = $1 AND deleted_at IS NULL
		GROUP BY exam_type`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		byType[t] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"total":      total,
		"pending":    pending,
		"completed":  completed,
		"this_month": thisMonth,
		"by_type":    byType,
	}, nil
}

func (r *repoPG) Recent(ctx context.Context, doctorID uuid.UUID, limit int) ([]*Exam, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM exams
		WHERE doctor_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2`, doctorID, limit)
	if err != nil {
		return nil, err
	}
	items, _, err := r.collect(rows, nil)
	return items, err
}
