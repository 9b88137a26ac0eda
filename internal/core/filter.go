package core

import (
	"strings"

	"github.com/valter-silva-au/delegation-dashboard/pkg/models"
)

// FilterHistory returns the records matching query, preserving order. A record
// matches when the query is a case-insensitive substring of its summary or of
// any task's title or assignee. An empty or whitespace-only query matches
// everything.
func FilterHistory(query string, records []models.DelegationRecord) []models.DelegationRecord {
	if strings.TrimSpace(query) == "" {
		out := make([]models.DelegationRecord, len(records))
		copy(out, records)
		return out
	}

	q := strings.ToLower(query)
	out := make([]models.DelegationRecord, 0, len(records))
	for _, rec := range records {
		if recordMatches(rec, q) {
			out = append(out, rec)
		}
	}
	return out
}

func recordMatches(rec models.DelegationRecord, lowerQuery string) bool {
	if strings.Contains(strings.ToLower(rec.Summary), lowerQuery) {
		return true
	}
	for _, t := range rec.Tasks {
		if strings.Contains(strings.ToLower(t.Title), lowerQuery) ||
			strings.Contains(strings.ToLower(t.Assignee), lowerQuery) {
			return true
		}
	}
	return false
}
