package subcontractors

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ascend-backend/internal/dates"
)

// MemoryRepo is an in-memory implementation of Repo for local runs and tests.
type MemoryRepo struct {
	mu       sync.RWMutex
	byEmail  map[string]Subcontractor
	byID     map[string]string // id -> email
	docs     []InsuranceDocument
	failMark map[string]error
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byEmail: make(map[string]Subcontractor),
		byID:    make(map[string]string),
	}
}

// Upsert stores s, keeping the original id and created_at for a known email.
func (r *MemoryRepo) Upsert(ctx context.Context, s Subcontractor) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(s.Email)
	if existing, ok := r.byEmail[key]; ok {
		s.ID = existing.ID
		s.CreatedAt = existing.CreatedAt
	} else if s.CreatedAt.IsZero() {
		s.CreatedAt = s.UpdatedAt
	}
	r.byEmail[key] = s
	r.byID[s.ID] = key
	return s.ID, nil
}

// AddDocument appends a document. The owner must exist.
func (r *MemoryRepo) AddDocument(ctx context.Context, doc InsuranceDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[doc.SubcontractorID]; !ok {
		return ErrNotFound
	}
	r.docs = append(r.docs, doc)
	return nil
}

// ListDue mirrors the Postgres query.
func (r *MemoryRepo) ListDue(ctx context.Context, from, to time.Time) ([]DueDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []DueDocument
	for _, doc := range r.docs {
		if doc.RemindedAt != nil || doc.ExpiryDate == "" {
			continue
		}
		expiry, ok := dates.Parse(doc.ExpiryDate)
		if !ok || expiry.Before(from) || expiry.After(to) {
			continue
		}
		owner := r.byEmail[r.byID[doc.SubcontractorID]]
		out = append(out, DueDocument{Document: doc, Owner: owner})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Document.ExpiryDate < out[j].Document.ExpiryDate
	})
	return out, nil
}

// MarkReminded stamps a document once.
func (r *MemoryRepo) MarkReminded(ctx context.Context, documentID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failMark[documentID]; ok {
		return err
	}
	for i := range r.docs {
		if r.docs[i].ID == documentID && r.docs[i].RemindedAt == nil {
			stamped := at
			r.docs[i].RemindedAt = &stamped
			return nil
		}
	}
	return ErrNotFound
}

// FailMarkFor makes MarkReminded return err for documentID. Test hook.
func (r *MemoryRepo) FailMarkFor(documentID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failMark == nil {
		r.failMark = make(map[string]error)
	}
	r.failMark[documentID] = err
}

// Subcontractors returns a snapshot of stored subcontractors.
func (r *MemoryRepo) Subcontractors() []Subcontractor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Subcontractor, 0, len(r.byEmail))
	for _, s := range r.byEmail {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

// Documents returns a snapshot of stored documents in insertion order.
func (r *MemoryRepo) Documents() []InsuranceDocument {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]InsuranceDocument, len(r.docs))
	copy(out, r.docs)
	return out
}

var _ Repo = (*MemoryRepo)(nil)
