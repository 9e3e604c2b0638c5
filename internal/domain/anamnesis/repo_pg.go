package anamnesis

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

// NewRepoPG returns the pgx-backed anamnesis repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `anamneses.id, anamneses.doctor_id, anamneses.patient_id,
	anamneses.anamnesis_date, anamneses.chief_complaint, anamneses.illness_history,
	anamneses.medical_history, anamneses.surgical_history, anamneses.social_history,
	anamneses.current_medications, anamneses.allergies, anamneses.systems_review,
	anamneses.physical_exam, anamneses.diagnosis, anamneses.treatment_plan,
	anamneses.created_at, anamneses.updated_at, anamneses.deleted_at`

func scan(row pgx.Row) (*Anamnesis, error) {
	var a Anamnesis
	err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID,
		&a.AnamnesisDate, &a.ChiefComplaint, &a.IllnessHistory,
		&a.MedicalHistory, &a.SurgicalHistory, &a.SocialHistory,
		&a.CurrentMedications, &a.Allergies, &a.SystemsReview,
		&a.PhysicalExam, &a.Diagnosis, &a.TreatmentPlan,
		&a.CreatedAt, &a.UpdatedAt, &a.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Anamnesis) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO anamneses (id, doctor_id, patient_id, anamnesis_date,
			chief_complaint, illness_history, medical_history, surgical_history,
			social_history, current_medications, allergies, systems_review,
			physical_exam, diagnosis, treatment_plan)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		a.ID, a.DoctorID, a.PatientID, a.AnamnesisDate,
		a.ChiefComplaint, a.IllnessHistory, a.MedicalHistory, a.SurgicalHistory,
		a.SocialHistory, a.CurrentMedications, a.Allergies, a.SystemsReview,
		a.PhysicalExam, a.Diagnosis, a.TreatmentPlan)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Anamnesis, error) {
	return scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM anamneses WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		id, doctorID))
}

func (r *repoPG) Update(ctx context.Context, a *Anamnesis) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE anamneses SET patient_id=$3, anamnesis_date=$4, chief_complaint=$5,
			illness_history=$6, medical_history=$7, surgical_history=$8,
			social_history=$9, current_medications=$10, allergies=$11,
			systems_review=$12, physical_exam=$13, diagnosis=$14,
			treatment_plan=$15, updated_at=NOW()
		WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		a.ID, a.DoctorID, a.PatientID, a.AnamnesisDate, a.ChiefComplaint,
		a.IllnessHistory, a.MedicalHistory, a.SurgicalHistory,
		a.SocialHistory, a.CurrentMedications, a.Allergies,
		a.SystemsReview, a.PhysicalExam, a.Diagnosis, a.TreatmentPlan)
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
		`UPDATE anamneses SET deleted_at = NOW() WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
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
	Table:   "anamneses",
	Columns: cols,
	Filters: map[string]listing.Filter{
		"patient_id": {Kind: listing.FilterEquals, Column: "patient_id"},
		"date_from":  {Kind: listing.FilterDateFrom, Column: "anamnesis_date"},
		"date_to":    {Kind: listing.FilterDateTo, Column: "anamnesis_date"},
	},
	SearchCols:  []string{"chief_complaint", "diagnosis", "treatment_plan"},
	PatientJoin: true,
	SortAllow: map[string]string{
		"anamnesis_date": "anamneses.anamnesis_date",
		"created_at":     "anamneses.created_at",
	},
	DefaultSort: "anamneses.anamnesis_date DESC",
}

func (r *repoPG) List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Anamnesis, int, error) {
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

	var items []*Anamnesis
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) LatestForPatient(ctx context.Context, doctorID, patientID uuid.UUID) (*Anamnesis, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `
		SELECT `+cols+` FROM anamneses
		WHERE doctor_id = $1 AND patient_id = $2 AND deleted_at IS NULL
		ORDER BY anamnesis_date DESC, created_at DESC
		LIMIT 1`, doctorID, patientID))
}

func (r *repoPG) QuickSearch(ctx context.Context, doctorID uuid.UUID, term string, limit int) ([]*Summary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.id, a.patient_id, a.anamnesis_date, a.chief_complaint
		FROM anamneses a
		LEFT JOIN patients p ON p.id = a.patient_id
		WHERE a.doctor_id = $1 AND a.deleted_at IS NULL
		  AND (a.chief_complaint ILIKE $2 OR a.diagnosis ILIKE $2 OR p.patient_name ILIKE $2 OR p.nome_completo ILIKE $2)
		ORDER BY a.anamnesis_date DESC
		LIMIT $3`, doctorID, "%"+listing.EscapeLike(term)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.PatientID, &s.AnamnesisDate, &s.ChiefComplaint); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context, doctorID uuid.UUID) (map[string]interface{}, error) {
	var total, thisMonth, patients int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE anamnesis_date >= date_trunc('month', NOW())),
		       COUNT(DISTINCT patient_id)
		FROM anamneses WHERE doctor_id = $1 AND deleted_at IS NULL`, doctorID).
		Scan(&total, &thisMonth, &patients)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"total":         total,
		"this_month":    thisMonth,
		"with_patients": patients,
	}, nil
}
