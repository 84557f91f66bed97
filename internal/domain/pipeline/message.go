package pipeline

import (
	"fmt"
	"strings"

	"github.com/ganot/mongoose/internal/domain/activity"
)

// FormatCommitMessage renders a one-line summary for a batch. The last
// record of the batch is the headline: its action tag is upper-cased and
// bracketed, followed by its description, an optional scaled value, and
// the wall-clock time of day. The same batch always yields the same
// string.
func FormatCommitMessage(batch []activity.Record) string {
	if len(batch) == 0 {
		return ""
	}
	head := batch[len(batch)-1]

	desc := head.Description
	if desc == "" {
		desc = string(head.Action)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(string(head.Action)), desc)
	if head.Value > 0 {
		b.WriteString(" • ")
		b.WriteString(formatValue(head.Value))
	}
	b.WriteString(" • ")
	b.WriteString(head.Timestamp.Format("15:04:05"))
	return b.String()
}

// formatValue scales a magnitude into trillions, billions, or millions,
// always with two decimal places. Tier boundaries are inclusive: exactly
// 1e6 renders as $1.00M. Below a million the raw value is rendered.
func formatValue(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}
