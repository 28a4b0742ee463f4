package companies

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const companyColumns = `id, name, industry, headquarters, report_year, report_type, pages_analyzed,
    overall_score, focus_score, environment_score, claims_score, actions_score,
    net_action_direction, key_findings, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a company.
func (r *PGRepo) Create(ctx context.Context, c Company) error {
	const query = `
INSERT INTO analyzed_companies (
    id, name, industry, headquarters, report_year, report_type, pages_analyzed,
    overall_score, focus_score, environment_score, claims_score, actions_score,
    net_action_direction, key_findings, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	findings, err := marshalFindings(c.KeyFindings)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		c.ID, c.Name, c.Industry, c.Headquarters, c.ReportYear, c.ReportType, c.PagesAnalyzed,
		c.OverallScore, c.FocusScore, c.EnvironmentScore, c.ClaimsScore, c.ActionsScore,
		c.NetActionDirection, findings, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// Update overwrites a company's mutable fields.
func (r *PGRepo) Update(ctx context.Context, c Company) error {
	const query = `
UPDATE analyzed_companies SET
    name = $2, industry = $3, headquarters = $4, report_year = $5, report_type = $6,
    pages_analyzed = $7, overall_score = $8, focus_score = $9, environment_score = $10,
    claims_score = $11, actions_score = $12, net_action_direction = $13, key_findings = $14,
    updated_at = $15
WHERE id = $1`

	findings, err := marshalFindings(c.KeyFindings)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query,
		c.ID, c.Name, c.Industry, c.Headquarters, c.ReportYear, c.ReportType,
		c.PagesAnalyzed, c.OverallScore, c.FocusScore, c.EnvironmentScore,
		c.ClaimsScore, c.ActionsScore, c.NetActionDirection, findings, c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Get returns a company by ID.
func (r *PGRepo) Get(ctx context.Context, id string) (Company, error) {
	query := `SELECT ` + companyColumns + ` FROM analyzed_companies WHERE id = $1`
	c, err := scanCompany(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Company{}, ErrNotFound
	}
	return c, err
}

// List returns companies matching the filter, newest first.
func (r *PGRepo) List(ctx context.Context, f Filter) ([]Company, error) {
	query := `SELECT ` + companyColumns + `
FROM analyzed_companies
WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR industry ILIKE '%' || $1 || '%' OR headquarters ILIKE '%' || $1 || '%')
  AND ($2 = '' OR lower(industry) = lower($2))
ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, strings.TrimSpace(f.Search), strings.TrimSpace(f.Industry))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a company.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM analyzed_companies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Count returns the number of companies.
func (r *PGRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyzed_companies`).Scan(&n)
	return n, err
}

func scanCompany(row rowScanner) (Company, error) {
	var c Company
	var findings []byte
	err := row.Scan(
		&c.ID, &c.Name, &c.Industry, &c.Headquarters, &c.ReportYear, &c.ReportType, &c.PagesAnalyzed,
		&c.OverallScore, &c.FocusScore, &c.EnvironmentScore, &c.ClaimsScore, &c.ActionsScore,
		&c.NetActionDirection, &findings, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return Company{}, err
	}
	if len(findings) > 0 {
		if err := json.Unmarshal(findings, &c.KeyFindings); err != nil {
			return Company{}, fmt.Errorf("decode key_findings: %w", err)
		}
	}
	return c, nil
}

func marshalFindings(findings []KeyFinding) ([]byte, error) {
	if findings == nil {
		findings = []KeyFinding{}
	}
	return json.Marshal(findings)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
