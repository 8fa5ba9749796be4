package reminders

// Tier grades how close a certificate is to lapsing.
type Tier struct {
	Level string
	Color string
	Icon  string
}

var (
	Urgent  = Tier{Level: "Urgent", Color: "#dc2626", Icon: "🔴"}
	Soon    = Tier{Level: "Soon", Color: "#ea580c", Icon: "🟠"}
	Warning = Tier{Level: "Warning", Color: "#f59e0b", Icon: "🟡"}
)

// TierFor grades a document by days remaining.
func TierFor(days int) Tier {
	switch {
	case days <= 30:
		return Urgent
	case days <= 60:
		return Soon
	default:
		return Warning
	}
}
