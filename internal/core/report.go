package core

import (
	"fmt"
	"strings"
)

// DisplayedMessageLimit is how many error/skip messages the notification
// shows verbatim. The full list is always logged.
const DisplayedMessageLimit = 3

const notificationTitle = "Import Results"

// Aggregator tallies row outcomes for one import run.
type Aggregator struct {
	rows     int
	created  int
	updated  int
	messages []string
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add records one row outcome. Skipped and Failed outcomes contribute their
// message, in the order they are added.
func (a *Aggregator) Add(o RowOutcome) {
	a.rows++
	switch o.Kind {
	case OutcomeCreated:
		a.created++
	case OutcomeUpdated:
		a.updated++
	case OutcomeSkipped, OutcomeFailed:
		a.messages = append(a.messages, o.Message)
	}
}

// Report builds the final report, including its notification.
func (a *Aggregator) Report() *ImportReport {
	messages := make([]string, len(a.messages))
	copy(messages, a.messages)

	report := &ImportReport{
		TotalRows: a.rows,
		Created:   a.created,
		Updated:   a.updated,
		Messages:  messages,
	}
	report.Notification = BuildNotification(report)
	return report
}

// Aggregate is a convenience for tallying a complete outcome sequence.
func Aggregate(outcomes []RowOutcome) *ImportReport {
	a := NewAggregator()
	for _, o := range outcomes {
		a.Add(o)
	}
	return a.Report()
}

// BuildNotification renders the bounded operator notification for r.
func BuildNotification(r *ImportReport) Notification {
	if len(r.Messages) == 0 {
		return Notification{
			Title:    notificationTitle,
			Message:  r.Summary(),
			Severity: SeveritySuccess,
		}
	}

	var b strings.Builder
	b.WriteString(r.Summary())
	fmt.Fprintf(&b, "\n\nErrors/Skipped (%d):", len(r.Messages))

	shown := r.Messages
	if len(shown) > DisplayedMessageLimit {
		shown = shown[:DisplayedMessageLimit]
	}
	for _, m := range shown {
		b.WriteString("\n")
		b.WriteString(m)
	}
	if extra := len(r.Messages) - len(shown); extra > 0 {
		fmt.Fprintf(&b, "\n...and %d more errors", extra)
	}

	return Notification{
		Title:    notificationTitle,
		Message:  b.String(),
		Severity: SeverityWarning,
		Sticky:   true,
	}
}

// LogText returns the unbounded result log: the summary followed by every
// error/skip message, one per line.
func (r *ImportReport) LogText() string {
	if len(r.Messages) == 0 {
		return r.Summary()
	}
	return r.Summary() + "\n" + strings.Join(r.Messages, "\n")
}
