package note

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

// NewRepoPG returns the pgx-backed note repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `notes.id, notes.doctor_id, notes.patient_id, notes.title, notes.content,
	notes.consultation_date, notes.note_type, notes.is_important, notes.attachments,
	notes.view_count, notes.last_modified_at, notes.last_modified_by,
	notes.created_at, notes.updated_at, notes.deleted_at`

func scan(row pgx.Row) (*Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.DoctorID, &n.PatientID, &n.Title, &n.Content,
		&n.ConsultationDate, &n.NoteType, &n.IsImportant, &n.Attachments,
		&n.ViewCount, &n.LastModifiedAt, &n.LastModifiedBy,
		&n.CreatedAt, &n.UpdatedAt, &n.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	return &n, err
}

func (r *repoPG) Create(ctx context.Context, n *Note) error {
	n.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO notes (id, doctor_id, patient_id, title, content,
			consultation_date, note_type, is_important, attachments, view_count,
			last_modified_at, last_modified_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		n.ID, n.DoctorID, n.PatientID, n.Title, n.Content,
		n.ConsultationDate, n.NoteType, n.IsImportant, n.Attachments, n.ViewCount,
		n.LastModifiedAt, n.LastModifiedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Note, error) {
	return scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM notes WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		id, doctorID))
}

func (r *repoPG) Update(ctx context.Context, n *Note) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE notes SET patient_id=$3, title=$4, content=$5, consultation_date=$6,
			note_type=$7, is_important=$8, attachments=$9,
			last_modified_at=$10, last_modified_by=$11, updated_at=NOW()
		WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		n.ID, n.DoctorID, n.PatientID, n.Title, n.Content, n.ConsultationDate,
		n.NoteType, n.IsImportant, n.Attachments,
		n.LastModifiedAt, n.LastModifiedBy)
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
		`UPDATE notes SET deleted_at = NOW() WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repoPG) IncrementViewCount(ctx context.Context, doctorID, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE notes SET view_count = view_count + 1 WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		id, doctorID)
	return err
}

var listConfig = listing.Config{
	Table:   "notes",
	Columns: cols,
	Filters: map[string]listing.Filter{
		"note_type":    {Kind: listing.FilterEquals, Column: "note_type"},
		"patient_id":   {Kind: listing.FilterEquals, Column: "patient_id"},
		"is_important": {Kind: listing.FilterTrueString, Column: "is_important"},
		"date_from":    {Kind: listing.FilterDateFrom, Column: "created_at"},
		"date_to":      {Kind: listing.FilterDateTo, Column: "created_at"},
	},
	SearchCols:  []string{"title", "content"},
	PatientJoin: true,
	SortAllow: map[string]string{
		"title":      "notes.title",
		"note_type":  "notes.note_type",
		"view_count": "notes.view_count",
		"created_at": "notes.created_at",
	},
	DefaultSort: "notes.created_at DESC",
}

func (r *repoPG) List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Note, int, error) {
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

	var items []*Note
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

func (r *repoPG) QuickSearch(ctx context.Context, doctorID uuid.UUID, term string, limit int) ([]*Summary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT n.id, n.patient_id, n.title, n.note_type, n.is_important, n.created_at
		FROM notes n
		LEFT JOIN patients p ON p.id = n.patient_id
		WHERE n.doctor_id = $1 AND n.deleted_at IS NULL
		  AND (n.title ILIKE $2 OR n.content ILIKE $2 OR p.patient_name ILIKE $2 OR p.nome_completo ILIKE $2)
		ORDER BY n.created_at DESC
		LIMIT $3`, doctorID, "%"+listing.EscapeLike(term)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.PatientID, &s.Title, &s.NoteType, &s.IsImportant, &s.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context, doctorID uuid.UUID) (map[string]interface{}, error) {
	var total, important, thisMonth int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_important),
		       COUNT(*) FILTER (WHERE created_at >= date_trunc('month', NOW()))
		FROM notes WHERE doctor_id = $1 AND deleted_at IS NULL`, doctorID).
		Scan(&total, &important, &thisMonth)
	if err != nil {
		return nil, err
	}

	byType := map[string]int{}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT note_type, COUNT(*) FROM notes
		WHERE doctor_id = $1 AND deleted_at IS NULL
		GROUP BY note_type`, doctorID)
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
		"important":  important,
		"this_month": thisMonth,
		"by_type":    byType,
	}, nil
}
