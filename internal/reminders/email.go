package reminders

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"ascend-backend/internal/dates"
	"ascend-backend/internal/shared/util"
	"ascend-backend/internal/subcontractors"
)

//go:embed templates/*.html
var templateFiles embed.FS

var reminderTmpl = template.Must(template.New("reminder_email.html").
	Funcs(template.FuncMap{
		"esc": func(s string) template.HTML { return template.HTML(util.EscapeHTML(s)) },
	}).
	ParseFS(templateFiles, "templates/reminder_email.html"))

type docLine struct {
	Label      string
	Expiry     string
	Days       int
	Tier       Tier
	Insurer    string
	Policy     string
	Confidence string
}

type reminderEmail struct {
	Owner subcontractors.Subcontractor
	Docs  []docLine
}

func reminderSubject(owner subcontractors.Subcontractor) string {
	return "⚠️ Insurance Expiring Soon: " + owner.BusinessName
}

func renderReminder(g group, today time.Time) (string, error) {
	data := reminderEmail{Owner: g.owner}
	for _, doc := range g.docs {
		line := docLine{
			Label:      doc.DocumentType.Label(),
			Expiry:     doc.ExpiryDate,
			Insurer:    doc.InsurerName,
			Policy:     doc.PolicyNumber,
			Confidence: "N/A",
		}
		if expiry, ok := dates.Parse(doc.ExpiryDate); ok {
			line.Days = dates.DaysUntil(today, expiry)
		}
		line.Tier = TierFor(line.Days)
		if doc.Confidence != nil && *doc.Confidence > 0 {
			line.Confidence = fmt.Sprintf("%.0f%%", *doc.Confidence*100)
		}
		data.Docs = append(data.Docs, line)
	}

	var buf bytes.Buffer
	if err := reminderTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render reminder email: %w", err)
	}
	return buf.String(), nil
}
