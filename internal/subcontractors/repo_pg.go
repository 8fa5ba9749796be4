package subcontractors

import (
	"context"
	"database/sql"
	"time"

	"ascend-backend/internal/dates"
	"ascend-backend/internal/extraction"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Upsert inserts or updates the subcontractor keyed by email.
func (r *PGRepo) Upsert(ctx context.Context, s Subcontractor) (string, error) {
	const query = `
INSERT INTO subcontractors (
    id, first_name, last_name, email, phone, business_name,
    abn, business_address, bsb, account_number, account_name,
    created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
ON CONFLICT (email) DO UPDATE SET
  first_name = EXCLUDED.first_name,
  last_name = EXCLUDED.last_name,
  phone = EXCLUDED.phone,
  business_name = EXCLUDED.business_name,
  abn = EXCLUDED.abn,
  business_address = EXCLUDED.business_address,
  bsb = EXCLUDED.bsb,
  account_number = EXCLUDED.account_number,
  account_name = EXCLUDED.account_name,
  updated_at = EXCLUDED.updated_at
RETURNING id`

	var id string
	err := r.DB.QueryRowContext(ctx, query,
		s.ID,
		s.FirstName,
		s.LastName,
		s.Email,
		s.Phone,
		s.BusinessName,
		nullableString(s.ABN),
		nullableString(s.BusinessAddress),
		s.BSB,
		s.AccountNumber,
		s.AccountName,
		s.UpdatedAt,
	).Scan(&id)
	return id, err
}

// AddDocument appends a document row.
func (r *PGRepo) AddDocument(ctx context.Context, doc InsuranceDocument) error {
	const query = `
INSERT INTO insurance_documents (
    id, subcontractor_id, document_type, expiry_date, policy_number,
    insurer_name, extraction_confidence, extraction_error,
    file_name, mime_type, storage_key, created_at
) VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10, $11, $12)`

	var confidence any
	if doc.Confidence != nil {
		confidence = *doc.Confidence
	}
	_, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.SubcontractorID,
		string(doc.DocumentType),
		nullableString(doc.ExpiryDate),
		nullableString(doc.PolicyNumber),
		nullableString(doc.InsurerName),
		confidence,
		nullableString(doc.ExtractionError),
		nullableString(doc.FileName),
		nullableString(doc.MimeType),
		nullableString(doc.StorageKey),
		doc.CreatedAt,
	)
	return err
}

// ListDue selects documents in the reminder window with their owners.
func (r *PGRepo) ListDue(ctx context.Context, from, to time.Time) ([]DueDocument, error) {
	const query = `
SELECT d.id, d.subcontractor_id, d.document_type, d.expiry_date, d.policy_number,
       d.insurer_name, d.extraction_confidence, d.file_name, d.created_at,
       s.first_name, s.last_name, s.email, s.phone, s.business_name
FROM insurance_documents d
JOIN subcontractors s ON s.id = d.subcontractor_id
WHERE d.expiry_date IS NOT NULL
  AND d.expiry_date >= $1::date
  AND d.expiry_date <= $2::date
  AND d.reminded_at IS NULL
ORDER BY d.expiry_date ASC, d.created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, from.Format(dates.Layout), to.Format(dates.Layout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DueDocument
	for rows.Next() {
		var due DueDocument
		var docType string
		var expiry sql.NullTime
		var policy, insurer, fileName sql.NullString
		var confidence sql.NullFloat64
		if err := rows.Scan(
			&due.Document.ID,
			&due.Document.SubcontractorID,
			&docType,
			&expiry,
			&policy,
			&insurer,
			&confidence,
			&fileName,
			&due.Document.CreatedAt,
			&due.Owner.FirstName,
			&due.Owner.LastName,
			&due.Owner.Email,
			&due.Owner.Phone,
			&due.Owner.BusinessName,
		); err != nil {
			return nil, err
		}
		due.Document.DocumentType = extraction.DocumentType(docType)
		due.Owner.ID = due.Document.SubcontractorID
		if expiry.Valid {
			due.Document.ExpiryDate = expiry.Time.Format(dates.Layout)
		}
		if policy.Valid {
			due.Document.PolicyNumber = policy.String
		}
		if insurer.Valid {
			due.Document.InsurerName = insurer.String
		}
		if fileName.Valid {
			due.Document.FileName = fileName.String
		}
		if confidence.Valid {
			c := confidence.Float64
			due.Document.Confidence = &c
		}
		out = append(out, due)
	}
	return out, rows.Err()
}

// MarkReminded sets reminded_at once. A document that is missing or already
// reminded yields ErrNotFound.
func (r *PGRepo) MarkReminded(ctx context.Context, documentID string, at time.Time) error {
	const query = `
UPDATE insurance_documents
SET reminded_at = $2
WHERE id = $1 AND reminded_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, documentID, at)
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

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
