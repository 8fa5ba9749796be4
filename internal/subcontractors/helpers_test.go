package subcontractors

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"sync"
	"time"

	"ascend-backend/internal/extraction"
	"ascend-backend/internal/notify"
)

type fakeExtractor struct {
	mu      sync.Mutex
	results map[extraction.DocumentType]extraction.Result
	calls   []extraction.Input
}

func (f *fakeExtractor) Extract(ctx context.Context, in extraction.Input) extraction.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, in)
	if res, ok := f.results[in.DocumentType]; ok {
		return res
	}
	return extraction.Result{Outcome: extraction.OutcomeOK, Fields: extraction.Fields{DocumentType: string(in.DocumentType), Confidence: 0.5}}
}

type fakeSender struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg notify.Message) (notify.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if f.err != nil {
		return notify.Receipt{}, f.err
	}
	return notify.Receipt{ID: "email-1"}, nil
}

type fakeArchive struct {
	keys []string
	err  error
}

func (f *fakeArchive) Put(ctx context.Context, namespace, fileName, contentType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	key := namespace + "/" + fileName
	f.keys = append(f.keys, key)
	return key, nil
}

func (f *fakeArchive) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

type failingRepo struct {
	*MemoryRepo
	upsertErr error
	calls     int
}

func (r *failingRepo) Upsert(ctx context.Context, s Subcontractor) (string, error) {
	r.calls++
	if r.upsertErr != nil {
		return "", r.upsertErr
	}
	return r.MemoryRepo.Upsert(ctx, s)
}

func dataURI(mime, content string) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString([]byte(content))
}

func validSubmission() Submission {
	return Submission{
		FirstName:       "Jane",
		LastName:        "Citizen",
		Email:           "Jane@Ridge.com.au",
		Phone:           "0400 000 000",
		BusinessName:    "Ridge Roofing",
		ABN:             "12 345 678 901",
		BusinessAddress: "1 Tile St, Penrith NSW",
		BSB:             "062-000",
		AccountNumber:   "12345678",
		AccountName:     "Ridge Roofing Pty Ltd",
		Files: Files{
			PublicLiability: &File{Name: "pl.pdf", Type: "application/pdf", Data: dataURI("application/pdf", "%PDF-pl")},
			WorkersComp:     &File{Name: "wc.png", Type: "image/png", Data: dataURI("image/png", "png-wc")},
		},
	}
}

var fixedNow = time.Date(2026, time.March, 1, 1, 0, 0, 0, time.UTC)

func newTestService(ext Extractor, repo Repo, sender notify.Sender) *IntakeService {
	return &IntakeService{
		Extractor: ext,
		Repo:      repo,
		Sender:    sender,
		From:      "Ascend Website <onboarding@resend.dev>",
		To:        "office@ascend.example",
		Location:  time.UTC,
		Now:       func() time.Time { return fixedNow },
	}
}
