// Package reminders emails the business about insurance certificates that are
// about to lapse.
package reminders

import (
	"context"
	"fmt"
	"time"

	"ascend-backend/internal/dates"
	"ascend-backend/internal/notify"
	"ascend-backend/internal/shared/metrics"
	"ascend-backend/internal/shared/telemetry"
	"ascend-backend/internal/subcontractors"
)

const defaultWindowDays = 90

// Store is the slice of the subcontractor repo the job needs.
type Store interface {
	ListDue(ctx context.Context, from, to time.Time) ([]subcontractors.DueDocument, error)
	MarkReminded(ctx context.Context, documentID string, at time.Time) error
}

// Job selects documents expiring inside the window and sends one reminder
// per subcontractor. A nil Store makes Run a no-op; a nil Sender skips every
// group without marking anything.
type Job struct {
	Store           Store
	Sender          notify.Sender
	From            string
	BusinessEmail   string
	ToSubcontractor bool
	WindowDays      int
	Location        *time.Location
	Now             func() time.Time
}

// Sent describes one delivered reminder.
type Sent struct {
	Subcontractor  string `json:"subcontractor"`
	Email          string `json:"email"`
	DocumentsCount int    `json:"documentsCount"`
}

// Report summarises a run.
type Report struct {
	StoreConfigured bool
	DocumentsFound  int
	Details         []Sent
}

// EmailsSent is the number of reminders delivered.
func (r Report) EmailsSent() int { return len(r.Details) }

type group struct {
	owner subcontractors.Subcontractor
	docs  []subcontractors.InsuranceDocument
}

// Run performs one reminder pass. Only a failure to list documents is
// returned; delivery and marking failures are logged per group.
func (j *Job) Run(ctx context.Context) (Report, error) {
	if j.Store == nil {
		telemetry.Info("reminders.skipped", map[string]any{"reason": "store not configured"})
		return Report{}, nil
	}

	now := time.Now()
	if j.Now != nil {
		now = j.Now()
	}
	today := dates.Today(now, j.Location)
	window := j.WindowDays
	if window <= 0 {
		window = defaultWindowDays
	}

	due, err := j.Store.ListDue(ctx, today, today.AddDate(0, 0, window))
	if err != nil {
		return Report{StoreConfigured: true}, fmt.Errorf("list due documents: %w", err)
	}
	report := Report{StoreConfigured: true, DocumentsFound: len(due)}
	telemetry.Info("reminders.selected", map[string]any{
		"documents": len(due),
		"today":     today.Format(dates.Layout),
		"window":    window,
	})

	for _, g := range groupByOwner(due) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if sent, ok := j.remind(ctx, g, today, now); ok {
			report.Details = append(report.Details, sent)
		}
	}
	return report, nil
}

func (j *Job) remind(ctx context.Context, g group, today, now time.Time) (Sent, bool) {
	fields := map[string]any{
		"subcontractor_id": g.owner.ID,
		"business":         g.owner.BusinessName,
		"documents":        len(g.docs),
	}
	if j.Sender == nil {
		telemetry.Warn("reminders.email_unconfigured", fields)
		return Sent{}, false
	}

	html, err := renderReminder(g, today)
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Error("reminders.render_failed", fields)
		return Sent{}, false
	}
	to := j.BusinessEmail
	if j.ToSubcontractor && g.owner.Email != "" {
		to = g.owner.Email
	}
	_, err = j.Sender.Send(ctx, notify.Message{
		From:    j.From,
		To:      []string{to},
		Subject: reminderSubject(g.owner),
		HTML:    html,
	})
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Error("reminders.send_failed", fields)
		return Sent{}, false
	}

	marked := 0
	for _, doc := range g.docs {
		if err := j.Store.MarkReminded(ctx, doc.ID, now); err != nil {
			fields["document_id"] = doc.ID
			fields["error"] = err.Error()
			telemetry.Error("reminders.mark_failed", fields)
			break
		}
		marked++
	}
	metrics.AddReminders(marked)
	fields["marked"] = marked
	telemetry.Info("reminders.sent", fields)

	return Sent{
		Subcontractor:  g.owner.BusinessName,
		Email:          g.owner.Email,
		DocumentsCount: len(g.docs),
	}, true
}

// groupByOwner keeps the order in which subcontractors first appear.
func groupByOwner(due []subcontractors.DueDocument) []group {
	var out []group
	index := make(map[string]int)
	for _, d := range due {
		i, ok := index[d.Owner.ID]
		if !ok {
			i = len(out)
			index[d.Owner.ID] = i
			out = append(out, group{owner: d.Owner})
		}
		out[i].docs = append(out[i].docs, d.Document)
	}
	return out
}
