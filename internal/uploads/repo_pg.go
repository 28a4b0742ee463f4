package uploads

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const uploadColumns = `id, user_id, company_name, report_year, file_name, file_path, status,
    error_message, analysis_results, processing_progress, version, created_at, updated_at, analyzed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new upload.
func (r *PGRepo) Create(ctx context.Context, u Upload) error {
	const query = `
INSERT INTO pdf_uploads (
    id, user_id, company_name, report_year, file_name, file_path, status,
    error_message, processing_progress, version, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	version := u.Version
	if version == 0 {
		version = 1
	}
	_, err := r.DB.ExecContext(ctx, query,
		u.ID, u.UserID, u.CompanyName, u.ReportYear, u.FileName, u.FilePath, string(u.Status),
		nullString(u.ErrorMessage), u.ProcessingProgress, version, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

// Get returns an upload by ID.
func (r *PGRepo) Get(ctx context.Context, id string) (Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM pdf_uploads WHERE id = $1`
	u, err := scanUpload(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Upload{}, ErrNotFound
	}
	return u, err
}

// List returns uploads matching the filter, newest first.
func (r *PGRepo) List(ctx context.Context, f Filter) ([]Upload, error) {
	query := `SELECT ` + uploadColumns + `
FROM pdf_uploads
WHERE ($1 = '' OR user_id = $1)
  AND ($2 = '' OR status = $2)
  AND ($3 = '' OR file_name ILIKE '%' || $3 || '%' OR company_name ILIKE '%' || $3 || '%' OR user_id ILIKE '%' || $3 || '%')
ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, f.UserID, string(f.Status), strings.TrimSpace(f.Search))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateIfVersion applies a status change only when the stored version
// matches expected.
func (r *PGRepo) UpdateIfVersion(ctx context.Context, u Upload, expected int64) (Upload, error) {
	query := `
UPDATE pdf_uploads SET
    status = $3, error_message = $4, analysis_results = $5, processing_progress = $6,
    updated_at = $7, analyzed_at = $8, version = version + 1
WHERE id = $1 AND version = $2
RETURNING ` + uploadColumns

	updated, err := scanUpload(r.DB.QueryRowContext(ctx, query,
		u.ID, expected, string(u.Status), nullString(u.ErrorMessage), nullJSON(u.AnalysisResults),
		u.ProcessingProgress, u.UpdatedAt, nullTime(u.AnalyzedAt),
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Upload{}, err
	}

	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pdf_uploads WHERE id = $1)`, u.ID).Scan(&exists); err != nil {
		return Upload{}, err
	}
	if !exists {
		return Upload{}, ErrNotFound
	}
	return Upload{}, ErrConflict
}

// Delete removes an upload.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM pdf_uploads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStatus returns the number of uploads per status.
func (r *PGRepo) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM pdf_uploads GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[Status(status)] = n
	}
	return out, rows.Err()
}

func scanUpload(row rowScanner) (Upload, error) {
	var u Upload
	var status string
	var errMsg sql.NullString
	var results []byte
	var analyzedAt sql.NullTime
	err := row.Scan(
		&u.ID, &u.UserID, &u.CompanyName, &u.ReportYear, &u.FileName, &u.FilePath, &status,
		&errMsg, &results, &u.ProcessingProgress, &u.Version, &u.CreatedAt, &u.UpdatedAt, &analyzedAt,
	)
	if err != nil {
		return Upload{}, err
	}
	u.Status = Status(status)
	if errMsg.Valid {
		msg := errMsg.String
		u.ErrorMessage = &msg
	}
	if len(results) > 0 {
		u.AnalysisResults = json.RawMessage(results)
	}
	if analyzedAt.Valid {
		at := analyzedAt.Time
		u.AnalyzedAt = &at
	}
	return u, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

var _ Repo = (*PGRepo)(nil)
