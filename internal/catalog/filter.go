package catalog

import (
	"strings"

	"valvefinder/internal"
)

// Query is one filter pass: a free-text search and the active bank tags.
type Query struct {
	Text  string
	Banks BankSet
}

// Filter returns the records matching q, in input order. The text stage is a
// case-insensitive substring match on ref (or id), name and serial number;
// location is deliberately not searched. The bank stage keeps records whose
// inferred banks intersect q.Banks and is skipped when q.Banks is empty. The
// input slice is never modified.
func Filter(records []internal.ValveRecord, q Query) []internal.ValveRecord {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	out := make([]internal.ValveRecord, 0, len(records))
	for _, r := range records {
		if text != "" && !matchesText(r, text) {
			continue
		}
		if len(q.Banks) > 0 && !GetBanks(r).Intersects(q.Banks) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesText(r internal.ValveRecord, lowerQuery string) bool {
	fields := []string{r.Key(), r.Name, r.SerialNumber}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), lowerQuery) {
			return true
		}
	}
	return false
}
