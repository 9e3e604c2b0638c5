package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prontuario/prontuario/internal/platform/db"
	"github.com/prontuario/prontuario/internal/platform/httpx"
	"github.com/prontuario/prontuario/internal/platform/listing"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns the pgx-backed patient repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `patients.id, patients.doctor_id, patients.patient_name, patients.nome_completo,
	patients.patient_phone, patients.celular, patients.patient_email, patients.email,
	patients.data_nascimento, patients.blood_type, patients.tipo_sanguineo,
	patients.height_cm, patients.weight_kg, patients.smoker, patients.favorite,
	patients.allergies, patients.chronic_diseases, patients.medications,
	patients.surgical_history, patients.family_history, patients.emergency_contact,
	patients.insurance, patients.last_consultation_date,
	patients.created_at, patients.updated_at, patients.deleted_at`

func scan(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.DoctorID, &p.PatientName, &p.NomeCompleto,
		&p.PatientPhone, &p.Celular, &p.PatientEmail, &p.Email,
		&p.DataNascimento, &p.BloodType, &p.TipoSanguineo,
		&p.HeightCm, &p.WeightKg, &p.Smoker, &p.Favorite,
		&p.Allergies, &p.ChronicDiseases, &p.Medications,
		&p.SurgicalHistory, &p.FamilyHistory, &p.EmergencyContact,
		&p.Insurance, &p.LastConsultationDate,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, doctor_id, patient_name, nome_completo,
			patient_phone, celular, patient_email, email, data_nascimento,
			blood_type, tipo_sanguineo, height_cm, weight_kg, smoker, favorite,
			allergies, chronic_diseases, medications, surgical_history,
			family_history, emergency_contact, insurance)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		p.ID, p.DoctorID, p.PatientName, p.NomeCompleto,
		p.PatientPhone, p.Celular, p.PatientEmail, p.Email, p.DataNascimento,
		p.BloodType, p.TipoSanguineo, p.HeightCm, p.WeightKg, p.Smoker, p.Favorite,
		p.Allergies, p.ChronicDiseases, p.Medications, p.SurgicalHistory,
		p.FamilyHistory, p.EmergencyContact, p.Insurance)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Patient, error) {
	return scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM patients WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		id, doctorID))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET patient_name=$3, nome_completo=$4, patient_phone=$5,
			celular=$6, patient_email=$7, email=$8, data_nascimento=$9,
			blood_type=$10, tipo_sanguineo=$11, height_cm=$12, weight_kg=$13,
			smoker=$14, favorite=$15, allergies=$16, chronic_diseases=$17,
			medications=$18, surgical_history=$19, family_history=$20,
			emergency_contact=$21, insurance=$22, updated_at=NOW()
		WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		p.ID, p.DoctorID, p.PatientName, p.NomeCompleto, p.PatientPhone,
		p.Celular, p.PatientEmail, p.Email, p.DataNascimento,
		p.BloodType, p.TipoSanguineo, p.HeightCm, p.WeightKg,
		p.Smoker, p.Favorite, p.Allergies, p.ChronicDiseases,
		p.Medications, p.SurgicalHistory, p.FamilyHistory,
		p.EmergencyContact, p.Insurance)
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
		`UPDATE patients SET deleted_at = NOW() WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
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
	Table:   "patients",
	Columns: cols,
	Filters: map[string]listing.Filter{
		"favorites":  {Kind: listing.FilterTrueString, Column: "favorite"},
		"blood_type": {Kind: listing.FilterEquals, Column: "blood_type"},
	},
	SearchCols: []string{"patient_name", "nome_completo", "patient_email", "patient_phone"},
	SortAllow: map[string]string{
		"patient_name":    "patients.patient_name",
		"data_nascimento": "patients.data_nascimento",
		"created_at":      "patients.created_at",
	},
	DefaultSort: "patients.patient_name ASC",
}

func (r *repoPG) List(ctx context.Context, doctorID uuid.UUID, params map[string]string, limit, offset int) ([]*Patient, int, error) {
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

	var items []*Patient
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) QuickSearch(ctx context.Context, doctorID uuid.UUID, term string, limit int) ([]*Summary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_name, patient_phone, data_nascimento
		FROM patients
		WHERE doctor_id = $1 AND deleted_at IS NULL
		  AND (patient_name ILIKE $2 OR nome_completo ILIKE $2 OR patient_email ILIKE $2)
		ORDER BY patient_name ASC
		LIMIT $3`, doctorID, "%"+listing.EscapeLike(term)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.PatientName, &s.PatientPhone, &s.DataNascimento); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context, doctorID uuid.UUID) (map[string]interface{}, error) {
	var total, favorites, newThisMonth int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE favorite),
		       COUNT(*) FILTER (WHERE created_at >= date_trunc('month', NOW()))
		FROM patients WHERE doctor_id = $1 AND deleted_at IS NULL`, doctorID).
		Scan(&total, &favorites, &newThisMonth)
	if err != nil {
		return nil, err
	}

	byBloodType := map[string]int{}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT blood_type, COUNT(*)
		FROM patients
		WHERE doctor_id = $1 AND deleted_at IS NULL AND blood_type IS NOT NULL
		GROUP BY blood_type`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var bt string
		var n int
		if err := rows.Scan(&bt, &n); err != nil {
			return nil, err
		}
		byBloodType[bt] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"total":          total,
		"favorites":      favorites,
		"new_this_month": newThisMonth,
		"by_blood_type":  byBloodType,
	}, nil
}

func (r *repoPG) Exists(ctx context.Context, doctorID, id uuid.UUID) (bool, error) {
	var one int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT 1 FROM patients WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		id, doctorID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *repoPG) SetLastConsultationDate(ctx context.Context, doctorID, patientID uuid.UUID, when time.Time) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE patients SET last_consultation_date = $3, updated_at = NOW()
		 WHERE id = $1 AND doctor_id = $2 AND deleted_at IS NULL`,
		patientID, doctorID, when)
	return err
}
