package subcontractors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascend-backend/internal/extraction"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoUpsertReturnsStoredID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO subcontractors").
		WithArgs("new-id", "Jane", "Citizen", "jane@ridge.com.au", "0400", "Ridge Roofing",
			nil, nil, "062-000", "12345678", "Ridge Roofing Pty Ltd", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-id"))

	id, err := repo.Upsert(context.Background(), Subcontractor{
		ID:            "new-id",
		FirstName:     "Jane",
		LastName:      "Citizen",
		Email:         "jane@ridge.com.au",
		Phone:         "0400",
		BusinessName:  "Ridge Roofing",
		BSB:           "062-000",
		AccountNumber: "12345678",
		AccountName:   "Ridge Roofing Pty Ltd",
		UpdatedAt:     now,
	})
	require.NoError(t, err)
	assert.Equal(t, "existing-id", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoAddDocumentWritesNulls(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	confidence := 0.75

	mock.ExpectExec("INSERT INTO insurance_documents").
		WithArgs("doc-1", "sub-1", "workers_comp", nil, "WC-9", nil, 0.75, nil, "wc.png", "image/png", nil, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.AddDocument(context.Background(), InsuranceDocument{
		ID:              "doc-1",
		SubcontractorID: "sub-1",
		DocumentType:    extraction.WorkersComp,
		PolicyNumber:    "WC-9",
		Confidence:      &confidence,
		FileName:        "wc.png",
		MimeType:        "image/png",
		CreatedAt:       now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoListDueScansRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 90)
	created := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "subcontractor_id", "document_type", "expiry_date", "policy_number",
		"insurer_name", "extraction_confidence", "file_name", "created_at",
		"first_name", "last_name", "email", "phone", "business_name",
	}).
		AddRow("doc-1", "sub-1", "public_liability", time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC), "PL-1",
			"QBE", 0.9, "pl.pdf", created, "Jane", "Citizen", "jane@ridge.com.au", "0400", "Ridge Roofing").
		AddRow("doc-2", "sub-1", "other", time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), nil,
			nil, nil, nil, created, "Jane", "Citizen", "jane@ridge.com.au", "0400", "Ridge Roofing")

	mock.ExpectQuery("FROM insurance_documents d").
		WithArgs("2026-03-01", "2026-05-30").
		WillReturnRows(rows)

	due, err := repo.ListDue(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, due, 2)

	assert.Equal(t, "2026-03-21", due[0].Document.ExpiryDate)
	assert.Equal(t, extraction.PublicLiability, due[0].Document.DocumentType)
	require.NotNil(t, due[0].Document.Confidence)
	assert.Equal(t, 0.9, *due[0].Document.Confidence)
	assert.Equal(t, "sub-1", due[0].Owner.ID)
	assert.Equal(t, "Ridge Roofing", due[0].Owner.BusinessName)

	assert.Empty(t, due[1].Document.PolicyNumber)
	assert.Nil(t, due[1].Document.Confidence)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoMarkReminded(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE insurance_documents").
		WithArgs("doc-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE insurance_documents").
		WithArgs("doc-1", at).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE insurance_documents").
		WithArgs("doc-2", at).
		WillReturnError(errors.New("conn closed"))

	require.NoError(t, repo.MarkReminded(context.Background(), "doc-1", at))
	assert.ErrorIs(t, repo.MarkReminded(context.Background(), "doc-1", at), ErrNotFound)
	assert.EqualError(t, repo.MarkReminded(context.Background(), "doc-2", at), "conn closed")
	require.NoError(t, mock.ExpectationsWereMet())
}
