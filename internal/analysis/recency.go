package analysis

import (
	"sort"
	"strings"
	"time"
)

// TimestampLayout is the ISO 8601 form the client writes into created_at.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts RFC 3339 timestamps with or without fractional seconds.
func ParseTimestamp(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SortByRecency returns a copy of reports ordered by created_at, newest first.
// Reports with unparseable timestamps go last. Ties are broken by id so the
// result does not depend on the input order.
func SortByRecency(reports []Report) []Report {
	type keyed struct {
		report Report
		at     time.Time
		ok     bool
	}
	items := make([]keyed, len(reports))
	for i, r := range reports {
		at, ok := ParseTimestamp(r.CreatedAt)
		items[i] = keyed{report: r, at: at, ok: ok}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.ok != b.ok {
			return a.ok
		}
		if a.ok && !a.at.Equal(b.at) {
			return a.at.After(b.at)
		}
		return a.report.ID < b.report.ID
	})
	out := make([]Report, len(items))
	for i, it := range items {
		out[i] = it.report
	}
	return out
}
