package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/giygas/pediatric-drug-calculator/entities"
	"github.com/giygas/pediatric-drug-calculator/interfaces"
	"github.com/giygas/pediatric-drug-calculator/logging"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Compile-time check to ensure PostgresStore implements ReferenceStore
var _ interfaces.ReferenceStore = (*PostgresStore)(nil)

//go:embed schema.sql
var schemaSQL string

// Open opens a pgx-backed database/sql pool and checks connectivity.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// PostgresStore persists the catalog in Postgres
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the tables when they do not exist yet
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close releases the pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) ListSystems(ctx context.Context) ([]entities.MedicalSystem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, icon, category
		FROM medical_systems
		ORDER BY seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entities.MedicalSystem, 0, 18)
	for rows.Next() {
		var m entities.MedicalSystem
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Icon, &m.Category); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const drugColumns = `id, name, generic_name, brand_name, description, indications,
			contraindications, side_effects, monitoring, medical_system_id`

func (s *PostgresStore) ListDrugsBySystem(ctx context.Context, systemID string) ([]entities.Drug, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+drugColumns+`
		FROM drugs
		WHERE medical_system_id = $1
		ORDER BY seq
	`, systemID)
	if err != nil {
		return nil, err
	}
	return scanDrugs(rows)
}

const dosageColumns = `id, drug_id, age_group, weight_range, dose, frequency,
			route, max_dose, min_dose, notes`

func (s *PostgresStore) ListDosagesByDrug(ctx context.Context, drugID string) ([]entities.DosageBand, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+dosageColumns+`
		FROM dosages
		WHERE drug_id = $1
		ORDER BY seq
	`, drugID)
	if err != nil {
		return nil, err
	}
	return scanDosages(rows)
}

func (s *PostgresStore) Snapshot(ctx context.Context) (interfaces.Catalog, error) {
	systems, err := s.ListSystems(ctx)
	if err != nil {
		return interfaces.Catalog{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+drugColumns+` FROM drugs ORDER BY seq`)
	if err != nil {
		return interfaces.Catalog{}, err
	}
	drugs, err := scanDrugs(rows)
	if err != nil {
		return interfaces.Catalog{}, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT `+dosageColumns+` FROM dosages ORDER BY seq`)
	if err != nil {
		return interfaces.Catalog{}, err
	}
	dosages, err := scanDosages(rows)
	if err != nil {
		return interfaces.Catalog{}, err
	}

	return interfaces.Catalog{Systems: systems, Drugs: drugs, Dosages: dosages}, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (interfaces.StoreStats, error) {
	var st interfaces.StoreStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT count(*) FROM medical_systems),
			(SELECT count(*) FROM drugs),
			(SELECT count(*) FROM dosages),
			(SELECT count(*) FROM calculations)
	`).Scan(&st.Systems, &st.Drugs, &st.Dosages, &st.Calculations)
	return st, err
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Reset clears calculations, dosages, drugs and systems, then inserts the
// given systems. Everything happens in one transaction.
func (s *PostgresStore) Reset(ctx context.Context, systems []entities.MedicalSystem) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				logging.Warn("Failed to rollback catalog reset", "error", rbErr)
			}
		}
	}()

	for _, table := range []string{"calculations", "dosages", "drugs", "medical_systems"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, m := range systems {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO medical_systems (id, name, description, icon, category)
			VALUES ($1,$2,$3,$4,$5)
		`, m.ID, m.Name, m.Description, m.Icon, m.Category); err != nil {
			return fmt.Errorf("failed to insert medical system %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// CreateDrug inserts one drug and its dosage bands in a single transaction.
func (s *PostgresStore) CreateDrug(ctx context.Context, drug entities.Drug, dosages []entities.DosageBand) (_ entities.Drug, _ []entities.DosageBand, err error) {
	if err := validateDrug(drug, dosages); err != nil {
		return entities.Drug{}, nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return entities.Drug{}, nil, err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				logging.Warn("Failed to rollback drug insert", "drug", drug.Name, "error", rbErr)
			}
		}
	}()

	drug.ID = uuid.NewString()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO drugs (`+drugColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		drug.ID,
		drug.Name,
		drug.GenericName,
		drug.BrandName,
		drug.Description,
		drug.Indications,
		drug.Contraindications,
		drug.SideEffects,
		drug.Monitoring,
		drug.MedicalSystemID,
	); err != nil {
		return entities.Drug{}, nil, fmt.Errorf("failed to insert drug %q: %w", drug.Name, err)
	}

	bands := make([]entities.DosageBand, len(dosages))
	for i, b := range dosages {
		b.ID = uuid.NewString()
		b.DrugID = drug.ID
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO dosages (`+dosageColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`,
			b.ID,
			b.DrugID,
			string(b.AgeGroup),
			b.WeightRange,
			b.Dose,
			b.Frequency,
			b.Route,
			b.MaxDose,
			b.MinDose,
			b.Notes,
		); err != nil {
			return entities.Drug{}, nil, fmt.Errorf("failed to insert dosage for %q: %w", drug.Name, err)
		}
		bands[i] = b
	}

	if err = tx.Commit(); err != nil {
		return entities.Drug{}, nil, err
	}
	return drug, bands, nil
}

func scanDrugs(rows *sql.Rows) ([]entities.Drug, error) {
	defer rows.Close()

	out := make([]entities.Drug, 0)
	for rows.Next() {
		var d entities.Drug
		if err := rows.Scan(
			&d.ID,
			&d.Name,
			&d.GenericName,
			&d.BrandName,
			&d.Description,
			&d.Indications,
			&d.Contraindications,
			&d.SideEffects,
			&d.Monitoring,
			&d.MedicalSystemID,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDosages(rows *sql.Rows) ([]entities.DosageBand, error) {
	defer rows.Close()

	out := make([]entities.DosageBand, 0)
	for rows.Next() {
		var b entities.DosageBand
		var ageGroup string
		if err := rows.Scan(
			&b.ID,
			&b.DrugID,
			&ageGroup,
			&b.WeightRange,
			&b.Dose,
			&b.Frequency,
			&b.Route,
			&b.MaxDose,
			&b.MinDose,
			&b.Notes,
		); err != nil {
			return nil, err
		}
		b.AgeGroup = entities.AgeGroup(ageGroup)
		out = append(out, b)
	}
	return out, rows.Err()
}
