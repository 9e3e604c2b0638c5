package prescription

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

// NewRepoPG returns the pgx-backed prescription repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `prescriptions.id, prescriptions.doctor_id, prescriptions.patient_id,
	prescriptions.consultation_id, prescriptions.title, prescriptions.prescription_type,
	prescriptions.data_emissao, prescriptions.expiration_date, prescriptions.medications,
	prescriptions.medicamentos, prescriptions.general_instructions, prescriptions.status,
	prescriptions.pdf_url, prescriptions.created_at, prescriptions.updated_at,
	prescriptions.deleted_at`

func scan(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.DoctorID, &p.PatientID,
		&p.ConsultationID, &p.Title, &p.PrescriptionType,
		&p.DataEmissao, &p.ExpirationDate, &p.Medications,
		&p.Medicamentos, &p.GeneralInstructions, &p.Status,
		&p.PdfURL, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescriptions (id, doctor_id, patient_id, consultation_id,
			title, prescription_type, data_emissao, expiration_date, medications,
			medicamentos, general_instructions, status, pdf_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.DoctorID, p.PatientID, p.ConsultationID,
		p.Title, p.PrescriptionType, p.DataEmissao, p.ExpirationDate, p.Medications,
		p.Medicamentos, p.GeneralInstructions, p.Status, p.PdfURL)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Prescription, error) {
	return scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM prescriptions WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		id, doctorID))
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescriptions SET patient_id=$3, consultation_id=$4, title=$5,
			prescription_type=$6, data_emissao=$7, expiration_date=$8,
			medications=$9, medicamentos=$10, general_instructions=$11,
			status=$12, pdf_url=$13, updated_at=NOW()
		WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		p.ID, p.DoctorID, p.PatientID, p.ConsultationID, p.Title,
		p.PrescriptionType, p.DataEmissao, p.ExpirationDate,
		p.Medications, p.Medicamentos, p.GeneralInstructions,
		p.Status, p.PdfURL)
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
		`UPDATE prescriptions SET deleted_at = NOW() WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
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
	Table:   "prescriptions",
	Columns: cols,
	Filters: map[string]listing.Filter{
		"status":            {Kind: listing.FilterEquals, Column: "status"},
		"prescription_type": {Kind: listing.FilterEquals, Column: "prescription_type"},
		"patient_id":        {Kind: listing.FilterEquals, Column: "patient_id"},
		"date_from":         {Kind: listing.FilterDateFrom, Column: "data_emissao"},
		"date_to":           {Kind: listing.FilterDateTo, Column: "data_emissao"},
		"active": {Kind: listing.FilterTrueString,
			Predicate: "prescriptions.status IN ('active','Ativa')"},
		"expired": {Kind: listing.FilterTrueString,
			Predicate: "prescriptions.expiration_date IS NOT NULL AND prescriptions.expiration_date < NOW()"},
	},
	SearchCols:  []string{"title", "general_instructions"},
	PatientJoin: true,
	SortAllow: map[string]string{
		"data_emissao":    "prescriptions.data_emissao",
		"expiration_date": "prescriptions.expiration_date",
		"title":           "prescriptions.title",
		"created_at":      "prescriptions.created_at",
	},
	DefaultSort: "prescriptions.data_emissao DESC",
}

func (r *repoPG) List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Prescription, int, error) {
	q := listConfig.Build(doctorID, params)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.collect(rows)
	return items, total, err
}

func (r *repoPG) collect(rows pgx.Rows) ([]*Prescription, error) {
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repoPG) Active(ctx context.Context, doctorID uuid.UUID) ([]*Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM prescriptions
		WHERE doctor_id = $1 AND deleted_at IS NULL AND status = ANY($2)
		ORDER BY data_emissao DESC`, doctorID, activeStatuses)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *repoPG) Expired(ctx context.Context, doctorID uuid.UUID) ([]*Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM prescriptions
		WHERE doctor_id = $1 AND deleted_at IS NULL
		  AND expiration_date IS NOT NULL AND expiration_date < NOW()
		ORDER BY expiration_date DESC`, doctorID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *repoPG) QuickSearch(ctx context.Context, doctorID uuid.UUID, term string, limit int) ([]*Summary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT pr.id, pr.patient_id, pr.title, pr.prescription_type, pr.status, pr.data_emissao
		FROM prescriptions pr
		LEFT JOIN patients p ON p.id = pr.patient_id
		WHERE pr.doctor_id = $1 AND pr.deleted_at IS NULL
		  AND (pr.title ILIKE $2 OR pr.general_instructions ILIKE $2 OR p.patient_name ILIKE $2 OR p.nome_completo ILIKE $2)
		ORDER BY pr.data_emissao DESC
		LIMIT $3`, doctorID, "%"+listing.EscapeLike(term)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.PatientID, &s.Title, &s.PrescriptionType, &s.Status, &s.DataEmissao); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context, doctorID uuid.UUID) (map[string]interface{}, error) {
	var total, active, expired, thisMonth, completed int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status IN ('active','Ativa')),
		       COUNT(*) FILTER (WHERE expiration_date IS NOT NULL AND expiration_date < NOW()),
		       COUNT(*) FILTER (WHERE created_at >= date_trunc('month', NOW())),
		       COUNT(*) FILTER (WHERE status = 'completed')
		FROM prescriptions WHERE doctor_id = $1 AND deleted_at IS NULL`, doctorID).
		Scan(&total, &active, &expired, &thisMonth, &completed)
	if err != nil {
		return nil, err
	}

	byType := map[string]int{}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT prescription_type, COUNT(*) FROM prescriptions
		WHERE doctor_id = $1 AND deleted_at IS NULL AND prescription_type IS NOT NULL
		GROUP BY prescription_type`, doctorID)
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

	return BuildStats(total, active, expired, thisMonth, byType, completed), nil
}

func (r *repoPG) Recent(ctx context.Context, doctorID uuid.UUID, limit int) ([]*Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM prescriptions
		WHERE doctor_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2`, doctorID, limit)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}
