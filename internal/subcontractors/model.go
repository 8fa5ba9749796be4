package subcontractors

import (
	"time"

	"ascend-backend/internal/extraction"
)

// Subcontractor is an onboarded trade business, keyed by email.
type Subcontractor struct {
	ID              string
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	BusinessName    string
	ABN             string
	BusinessAddress string
	BSB             string
	AccountNumber   string
	AccountName     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// InsuranceDocument is one certificate uploaded with a pack. Rows are
// append-only; RemindedAt is set once by the reminder job and never cleared.
// ExpiryDate is canonical YYYY-MM-DD or empty when unknown.
type InsuranceDocument struct {
	ID              string
	SubcontractorID string
	DocumentType    extraction.DocumentType
	ExpiryDate      string
	PolicyNumber    string
	InsurerName     string
	Confidence      *float64
	ExtractionError string
	FileName        string
	MimeType        string
	StorageKey      string
	RemindedAt      *time.Time
	CreatedAt       time.Time
}

// DueDocument is a document awaiting a reminder, joined with its owner.
type DueDocument struct {
	Document InsuranceDocument
	Owner    Subcontractor
}
