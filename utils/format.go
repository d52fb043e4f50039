package utils

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// NotAvailable is shown for missing dates.
const NotAvailable = "N/A"

// Badge is the label and css class used to render an enumerated value.
type Badge struct {
	Text  string
	Class string
}

var statusBadges = map[string]Badge{
	"lead":      {"Lead", "badge-info"},
	"prospect":  {"Prospect", "badge-warning"},
	"customer":  {"Customer", "badge-success"},
	"inactive":  {"Inactive", "badge-secondary"},
	"active":    {"Active", "badge-success"},
	"scheduled": {"Scheduled", "badge-primary"},
	"completed": {"Completed", "badge-success"},
	"cancelled": {"Cancelled", "badge-danger"},
}

var stageBadges = map[string]Badge{
	"qualification": {"Qualification", "badge-info"},
	"proposal":      {"Proposal", "badge-primary"},
	"negotiation":   {"Negotiation", "badge-warning"},
	"closed_won":    {"Closed Won", "badge-success"},
	"closed_lost":   {"Closed Lost", "badge-danger"},
}

var plainLabels = map[string]string{
	"call":    "Call",
	"meeting": "Meeting",
	"email":   "Email",
	"task":    "Task",
	"note":    "Note",
	"admin":   "Administrator",
	"manager": "Manager",
	"sales":   "Sales Rep",
}

var alertClasses = map[string]string{
	"success": "alert-success",
	"error":   "alert-danger",
	"warning": "alert-warning",
	"info":    "alert-info",
}

// StatusBadge maps contact, user and activity statuses to a badge.
func StatusBadge(status string) Badge {
	if b, ok := statusBadges[status]; ok {
		return b
	}
	return Badge{Text: humanizeCode(status), Class: "badge-secondary"}
}

// StageBadge maps deal stages to a badge.
func StageBadge(stage string) Badge {
	if b, ok := stageBadges[stage]; ok {
		return b
	}
	return Badge{Text: humanizeCode(stage), Class: "badge-secondary"}
}

// Label returns the display text of any enumerated code.
func Label(code string) string {
	if l, ok := plainLabels[code]; ok {
		return l
	}
	if b, ok := statusBadges[code]; ok {
		return b.Text
	}
	if b, ok := stageBadges[code]; ok {
		return b.Text
	}
	return humanizeCode(code)
}

// AlertClass maps a flash type to its alert class.
func AlertClass(kind string) string {
	if c, ok := alertClasses[kind]; ok {
		return c
	}
	return "alert-info"
}

// FormatDate renders a date as "Jan 02, 2006".
func FormatDate(v interface{}) string {
	return formatTime(v, "Jan 02, 2006")
}

// FormatDateTime renders a timestamp as "Jan 02, 2006 15:04".
func FormatDateTime(v interface{}) string {
	return formatTime(v, "Jan 02, 2006 15:04")
}

// FormatCurrency renders an amount with a dollar sign, thousands
// separators and two decimals.
func FormatCurrency(amount float64) string {
	if amount < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -amount)
	}
	return "$" + humanize.FormatFloat("#,###.##", amount)
}

// Placeholder substitutes a dash for an empty display value, such as the
// name of a deleted related record.
func Placeholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

func formatTime(v interface{}, layout string) string {
	var t time.Time
	switch val := v.(type) {
	case time.Time:
		t = val
	case *time.Time:
		if val == nil {
			return NotAvailable
		}
		t = *val
	case string:
		parsed, ok := parseTime(val)
		if !ok {
			return NotAvailable
		}
		t = parsed
	default:
		return NotAvailable
	}
	if t.IsZero() {
		return NotAvailable
	}
	return t.Format(layout)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "0000-00-00") {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// humanizeCode is the fallback text of an unknown code: underscores become
// spaces and the first letter is upper-cased.
func humanizeCode(code string) string {
	if code == "" {
		return code
	}
	code = strings.ReplaceAll(code, "_", " ")
	r, size := utf8.DecodeRuneInString(code)
	if r == utf8.RuneError {
		return code
	}
	return string(unicode.ToUpper(r)) + code[size:]
}
