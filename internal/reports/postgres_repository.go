package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores reports in the incident_reports table.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("reports: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithDB(db pgxQuerier) *PostgresRepository {
	if db == nil {
		panic("reports: querier required")
	}
	return &PostgresRepository{db: db}
}

const reportColumns = `id, org_id, user_id, offense_id, narrative, fields, missing_fields, body, attempts, created_at`

func (r *PostgresRepository) Create(ctx context.Context, report *Report) error {
	fields, err := json.Marshal(nonNilFields(report.Fields))
	if err != nil {
		return fmt.Errorf("reports: encode fields: %w", err)
	}
	missing := report.MissingFields
	if missing == nil {
		missing = []string{}
	}

	query := `
		INSERT INTO incident_reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := r.db.Exec(ctx, query,
		report.ID,
		report.OrgID,
		report.UserID,
		report.OffenseID,
		report.Narrative,
		fields,
		missing,
		report.Body,
		report.Attempts,
		report.CreatedAt,
	); err != nil {
		return fmt.Errorf("reports: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches a report scoped to the org.
func (r *PostgresRepository) GetByID(ctx context.Context, orgID, id string) (*Report, error) {
	query := `SELECT ` + reportColumns + ` FROM incident_reports WHERE id = $1 AND org_id = $2`
	report, err := scanReport(r.db.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("reports: select failed: %w", err)
	}
	return report, nil
}

func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, filter ListFilter) ([]*Report, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + reportColumns + `
		FROM incident_reports
		WHERE org_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, orgID, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("reports: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("reports: scan failed: %w", err)
		}
		out = append(out, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reports: list failed: %w", err)
	}
	return out, nil
}

func scanReport(row pgx.Row) (*Report, error) {
	var (
		report Report
		fields []byte
	)
	if err := row.Scan(
		&report.ID,
		&report.OrgID,
		&report.UserID,
		&report.OffenseID,
		&report.Narrative,
		&fields,
		&report.MissingFields,
		&report.Body,
		&report.Attempts,
		&report.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &report.Fields); err != nil {
			return nil, fmt.Errorf("decode fields: %w", err)
		}
	}
	return &report, nil
}

func nonNilFields(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
