package reminders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ascend-backend/internal/extraction"
	"ascend-backend/internal/notify"
	"ascend-backend/internal/subcontractors"
)

var fixedNow = time.Date(2026, time.March, 1, 1, 0, 0, 0, time.UTC)

type fakeSender struct {
	mu     sync.Mutex
	sent   []notify.Message
	failTo map[string]bool
}

func (f *fakeSender) Send(ctx context.Context, msg notify.Message) (notify.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if f.failTo[msg.Subject] {
		return notify.Receipt{}, errors.New("provider rejected message")
	}
	return notify.Receipt{ID: "r-1"}, nil
}

func addOwner(t *testing.T, repo *subcontractors.MemoryRepo, id, business, email string) {
	t.Helper()
	_, err := repo.Upsert(context.Background(), subcontractors.Subcontractor{
		ID:           id,
		FirstName:    "Sam",
		LastName:     business,
		Email:        email,
		Phone:        "0400 111 222",
		BusinessName: business,
		UpdatedAt:    fixedNow,
	})
	require.NoError(t, err)
}

func addDoc(t *testing.T, repo *subcontractors.MemoryRepo, id, owner string, daysOut int) {
	t.Helper()
	confidence := 0.8
	err := repo.AddDocument(context.Background(), subcontractors.InsuranceDocument{
		ID:              id,
		SubcontractorID: owner,
		DocumentType:    extraction.PublicLiability,
		ExpiryDate:      fixedNow.AddDate(0, 0, daysOut).Format("2006-01-02"),
		PolicyNumber:    "POL-" + id,
		InsurerName:     "QBE",
		Confidence:      &confidence,
		CreatedAt:       fixedNow,
	})
	require.NoError(t, err)
}

func newJob(store Store, sender notify.Sender) *Job {
	job := &Job{
		Store:         store,
		From:          "Ascend Roofing <onboarding@resend.dev>",
		BusinessEmail: "office@ascend.example",
		Location:      time.UTC,
		Now:           func() time.Time { return fixedNow },
	}
	if sender != nil {
		job.Sender = sender
	}
	return job
}

func remindedIDs(repo *subcontractors.MemoryRepo) []string {
	var out []string
	for _, d := range repo.Documents() {
		if d.RemindedAt != nil {
			out = append(out, d.ID)
		}
	}
	return out
}
