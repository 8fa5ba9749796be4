package subcontractors

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"ascend-backend/internal/dates"
	"ascend-backend/internal/shared/util"
)

//go:embed templates/*.html
var templateFiles embed.FS

// esc runs user and model text through EscapeHTML and marks the result safe so
// html/template does not escape it a second time.
var funcs = template.FuncMap{
	"esc": func(s string) template.HTML { return template.HTML(util.EscapeHTML(s)) },
}

var intakeTmpl = template.Must(template.New("intake_email.html").Funcs(funcs).ParseFS(templateFiles, "templates/intake_email.html"))

const notDetected = "Not detected"

// Warning window for the intake email, in days.
const warnWithinDays = 60

type expiryWarning struct {
	Label   string
	Date    string
	Days    int
	Expired bool
}

type summaryRow struct {
	Label      string
	Expiry     string
	Policy     string
	Insurer    string
	Confidence string
}

type intakeEmail struct {
	Sub      Submission
	Warnings []expiryWarning
	Rows     []summaryRow
}

func intakeSubject(sub Submission) string {
	return fmt.Sprintf("Subcontractor Pack: %s — %s %s", sub.BusinessName, sub.FirstName, sub.LastName)
}

func renderIntakeEmail(sub Submission, files []ProcessedFile, today time.Time) (string, error) {
	data := intakeEmail{Sub: sub}
	for _, pf := range files {
		row := summaryRow{
			Label:      pf.Purpose.Label(),
			Expiry:     notDetected,
			Policy:     notDetected,
			Insurer:    notDetected,
			Confidence: "N/A",
		}
		if pf.Result.OK() {
			f := pf.Result.Fields
			row.Expiry = orNotDetected(f.ExpiryDate)
			row.Policy = orNotDetected(f.PolicyNumber)
			row.Insurer = orNotDetected(f.InsurerName)
			if f.Confidence > 0 {
				row.Confidence = fmt.Sprintf("%.0f%%", f.Confidence*100)
			}
			if w, ok := warningFor(pf.Purpose.Label(), f.ExpiryDate, today); ok {
				data.Warnings = append(data.Warnings, w)
			}
		}
		data.Rows = append(data.Rows, row)
	}

	var buf bytes.Buffer
	if err := intakeTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render intake email: %w", err)
	}
	return buf.String(), nil
}

// warningFor flags certificates expiring within warnWithinDays and ones that
// have already lapsed.
func warningFor(label, expiry string, today time.Time) (expiryWarning, bool) {
	date, ok := dates.Parse(expiry)
	if !ok {
		return expiryWarning{}, false
	}
	days := dates.DaysUntil(today, date)
	switch {
	case days < 0:
		return expiryWarning{Label: label, Date: expiry, Days: -days, Expired: true}, true
	case days <= warnWithinDays:
		return expiryWarning{Label: label, Date: expiry, Days: days}, true
	default:
		return expiryWarning{}, false
	}
}

func orNotDetected(s string) string {
	if s == "" {
		return notDetected
	}
	return s
}
