package core

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/valter-silva-au/delegation-dashboard/pkg/models"
	"pgregory.net/rapid"
)

func TestFilterHistory(t *testing.T) {
	records := DefaultSampleDataset().History

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"sample-1", "sample-2"}},
		{"   ", []string{"sample-1", "sample-2"}},
		{"sarah", []string{"sample-2"}},
		{"SARAH", []string{"sample-2"}},
		{"marketing", []string{"sample-1"}},
		{"via slack", []string{"sample-1", "sample-2"}},
		{"1 task email", []string{"sample-2"}},
		{"contract", []string{"sample-2"}},
		{"nothing matches this", []string{}},
		// Description and email fields are not searched.
		{"legal team", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := FilterHistory(tt.query, records)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("FilterHistory(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestFilterHistory_DoesNotAlias(t *testing.T) {
	records := []models.DelegationRecord{record("a"), record("b")}
	got := FilterHistory("", records)
	got[0] = record("z")
	if records[0].ID != "a" {
		t.Error("FilterHistory returned a slice sharing the input's backing array")
	}
}

func TestProperty_FilterIsOrderedSubset(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 6).Draw(t, "n")
		records := make([]models.DelegationRecord, n)
		for i := range records {
			records[i] = models.DelegationRecord{
				ID:      string(rune('a' + i)),
				Summary: rapid.StringMatching(`[A-Za-z ]{0,12}`).Draw(t, "summary"),
				Tasks: []models.TaskItem{{
					Title:    rapid.StringMatching(`[A-Za-z ]{0,8}`).Draw(t, "title"),
					Assignee: rapid.StringMatching(`[A-Za-z ]{0,8}`).Draw(t, "assignee"),
				}},
			}
		}
		query := rapid.StringMatching(`[A-Za-z]{0,3}`).Draw(t, "query")

		got := FilterHistory(query, records)

		j := 0
		for _, r := range records {
			match := query == "" ||
				strings.Contains(strings.ToLower(r.Summary), strings.ToLower(query)) ||
				strings.Contains(strings.ToLower(r.Tasks[0].Title), strings.ToLower(query)) ||
				strings.Contains(strings.ToLower(r.Tasks[0].Assignee), strings.ToLower(query))
			if !match {
				continue
			}
			if j >= len(got) || got[j].ID != r.ID {
				t.Fatalf("record %s should match %q at position %d; got %v", r.ID, query, j, ids(got))
			}
			j++
		}
		if j != len(got) {
			t.Fatalf("FilterHistory returned extra records: %v", ids(got))
		}
	})
}
