package subcontractors

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"ascend-backend/internal/dates"
	"ascend-backend/internal/extraction"
	"ascend-backend/internal/notify"
	"ascend-backend/internal/shared/metrics"
	"ascend-backend/internal/shared/storage/object"
	"ascend-backend/internal/shared/telemetry"
)

// Extractor reads insurance fields off one upload.
type Extractor interface {
	Extract(ctx context.Context, in extraction.Input) extraction.Result
}

// IntakeService runs a subcontractor pack through extraction, storage and
// notification. Repo, Archive and Sender may be nil, in which case that step
// is skipped.
type IntakeService struct {
	Extractor Extractor
	Repo      Repo
	Archive   object.Store
	Sender    notify.Sender
	From      string
	To        string
	Location  *time.Location
	Now       func() time.Time
}

// ProcessedFile is one upload after extraction.
type ProcessedFile struct {
	Purpose    extraction.DocumentType
	File       File
	Content    []byte
	Result     extraction.Result
	StorageKey string
}

// Outcome is what the pack endpoint reports back.
type Outcome struct {
	Success         bool
	Simulated       bool
	Receipt         *notify.Receipt
	SubcontractorID string
	EmailError      error
	Files           []ProcessedFile
}

// Submit processes a pack. Only validation failures are returned as errors;
// extraction, archive and storage failures are logged and the email is still
// attempted. A delivery failure is reported in Outcome.EmailError.
func (s *IntakeService) Submit(ctx context.Context, sub Submission) (Outcome, error) {
	sub = sub.normalize()
	if err := sub.Validate(); err != nil {
		metrics.IncSubmission("subby-pack", "rejected")
		return Outcome{}, err
	}

	now := s.now()
	files := s.extractAll(ctx, sub)
	s.archive(ctx, sub.Email, files)
	subID := s.persist(ctx, sub, files, now)

	out := Outcome{SubcontractorID: subID, Files: files}
	if s.Sender == nil {
		telemetry.Info("intake.simulated", map[string]any{
			"business": sub.BusinessName,
			"email":    sub.Email,
			"files":    len(files),
		})
		metrics.IncSubmission("subby-pack", "simulated")
		out.Success = true
		out.Simulated = true
		return out, nil
	}

	html, err := renderIntakeEmail(sub, files, dates.Today(now, s.Location))
	if err != nil {
		return Outcome{}, err
	}
	msg := notify.Message{
		From:        s.From,
		To:          []string{s.To},
		ReplyTo:     sub.Email,
		Subject:     intakeSubject(sub),
		HTML:        html,
		Attachments: attachments(files),
	}
	receipt, err := s.Sender.Send(ctx, msg)
	if err != nil {
		telemetry.Error("intake.email_failed", map[string]any{"business": sub.BusinessName, "error": err})
		metrics.IncSubmission("subby-pack", "failed")
		out.EmailError = err
		return out, nil
	}

	telemetry.Info("intake.email_sent", map[string]any{
		"business":         sub.BusinessName,
		"email_id":         receipt.ID,
		"subcontractor_id": subID,
	})
	metrics.IncSubmission("subby-pack", "sent")
	out.Success = true
	out.Receipt = &receipt
	return out, nil
}

func (s *IntakeService) extractAll(ctx context.Context, sub Submission) []ProcessedFile {
	var out []ProcessedFile
	for _, u := range sub.uploads() {
		pf := ProcessedFile{Purpose: u.purpose, File: *u.file}
		if mime, data, err := extraction.DecodeDataURI(u.file.Data); err == nil {
			pf.Content = data
			if pf.File.Type == "" {
				pf.File.Type = mime
			}
		} else {
			// Forward the undecoded payload so the office still receives the file.
			pf.Content = []byte(extraction.Base64Payload(strings.TrimSpace(u.file.Data)))
			telemetry.Warn("intake.bad_upload", map[string]any{"purpose": string(u.purpose), "file": u.file.Name, "error": err})
		}

		if s.Extractor == nil {
			pf.Result = extraction.Result{Outcome: extraction.OutcomeUnconfigured, Message: "AI extraction not configured"}
		} else {
			pf.Result = s.Extractor.Extract(ctx, extraction.Input{
				DataURI:      u.file.Data,
				MimeType:     pf.File.Type,
				DocumentType: u.purpose,
			})
		}
		if !pf.Result.OK() {
			telemetry.Warn("intake.extraction_failed", map[string]any{
				"purpose": string(u.purpose),
				"outcome": pf.Result.Outcome.String(),
				"message": pf.Result.Message,
			})
		}
		out = append(out, pf)
	}
	return out
}

func (s *IntakeService) archive(ctx context.Context, owner string, files []ProcessedFile) {
	if s.Archive == nil {
		return
	}
	for i := range files {
		if len(files[i].Content) == 0 {
			continue
		}
		key, err := s.Archive.Put(ctx, owner, files[i].File.Name, files[i].File.Type, files[i].Content)
		if err != nil {
			telemetry.Error("intake.archive_failed", map[string]any{"file": files[i].File.Name, "error": err})
			continue
		}
		files[i].StorageKey = key
	}
}

// persist upserts the subcontractor and appends one row per successful
// extraction. The first failure stops the remaining writes.
func (s *IntakeService) persist(ctx context.Context, sub Submission, files []ProcessedFile, now time.Time) string {
	if s.Repo == nil {
		return ""
	}
	id, err := s.Repo.Upsert(ctx, Subcontractor{
		ID:              uuid.NewString(),
		FirstName:       sub.FirstName,
		LastName:        sub.LastName,
		Email:           sub.Email,
		Phone:           sub.Phone,
		BusinessName:    sub.BusinessName,
		ABN:             sub.ABN,
		BusinessAddress: sub.BusinessAddress,
		BSB:             sub.BSB,
		AccountNumber:   sub.AccountNumber,
		AccountName:     sub.AccountName,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		telemetry.Error("intake.store_failed", map[string]any{"step": "upsert", "error": err})
		return ""
	}

	for _, pf := range files {
		if !pf.Result.OK() {
			continue
		}
		confidence := pf.Result.Fields.Confidence
		doc := InsuranceDocument{
			ID:              uuid.NewString(),
			SubcontractorID: id,
			DocumentType:    pf.Purpose,
			ExpiryDate:      pf.Result.Fields.ExpiryDate,
			PolicyNumber:    pf.Result.Fields.PolicyNumber,
			InsurerName:     pf.Result.Fields.InsurerName,
			Confidence:      &confidence,
			FileName:        pf.File.Name,
			MimeType:        pf.File.Type,
			StorageKey:      pf.StorageKey,
			CreatedAt:       now,
		}
		if err := s.Repo.AddDocument(ctx, doc); err != nil {
			telemetry.Error("intake.store_failed", map[string]any{"step": "document", "purpose": string(pf.Purpose), "error": err})
			break
		}
	}
	telemetry.Info("intake.stored", map[string]any{"subcontractor_id": id})
	return id
}

func (s *IntakeService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func attachments(files []ProcessedFile) []notify.Attachment {
	var out []notify.Attachment
	for _, pf := range files {
		if len(pf.Content) == 0 {
			continue
		}
		out = append(out, notify.Attachment{
			FileName:    pf.File.Name,
			ContentType: pf.File.Type,
			Content:     pf.Content,
		})
	}
	return out
}
