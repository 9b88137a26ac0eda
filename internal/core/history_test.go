package core

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/valter-silva-au/delegation-dashboard/pkg/models"
	"pgregory.net/rapid"
)

func record(id string, titles ...string) models.DelegationRecord {
	tasks := make([]models.TaskItem, len(titles))
	for i, title := range titles {
		tasks[i] = models.TaskItem{Title: title}
	}
	return models.DelegationRecord{
		ID:        id,
		Tasks:     tasks,
		Summary:   "summary " + id,
		Timestamp: time.Date(2024, 6, 9, 15, 0, 0, 0, time.UTC),
	}
}

func ids(records []models.DelegationRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestHistoryStore_AppendNewestFirst(t *testing.T) {
	s := NewHistoryStore(0)
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Append(record(id)); err != nil {
			t.Fatalf("Append(%s): %v", id, err)
		}
	}

	if diff := cmp.Diff([]string{"c", "b", "a"}, ids(s.All())); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestHistoryStore_DuplicateID(t *testing.T) {
	s := NewHistoryStore(0)
	if err := s.Append(record("a", "first")); err != nil {
		t.Fatal(err)
	}

	err := s.Append(record("a", "second"))
	if !errors.Is(err, ErrDuplicateRecordID) {
		t.Fatalf("expected ErrDuplicateRecordID, got %v", err)
	}
	got, _ := s.Get("a")
	if got.Tasks[0].Title != "first" {
		t.Errorf("stored record was replaced: %+v", got)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestHistoryStore_EmptyID(t *testing.T) {
	s := NewHistoryStore(0)
	if err := s.Append(record("")); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestHistoryStore_Capacity(t *testing.T) {
	s := NewHistoryStore(2)
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Append(record(id)); err != nil {
			t.Fatal(err)
		}
	}

	if diff := cmp.Diff([]string{"c", "b"}, ids(s.All())); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if _, ok := s.Get("a"); ok {
		t.Error("oldest record should have been dropped")
	}
	// A dropped id may be reused.
	if err := s.Append(record("a")); err != nil {
		t.Errorf("re-appending dropped id: %v", err)
	}
}

func TestHistoryStore_Isolation(t *testing.T) {
	s := NewHistoryStore(0)
	in := record("a", "original")
	if err := s.Append(in); err != nil {
		t.Fatal(err)
	}
	in.Tasks[0].Title = "mutated input"

	all := s.All()
	all[0].Tasks[0].Title = "mutated output"
	all[0].Summary = "changed"

	got, ok := s.Get("a")
	if !ok {
		t.Fatal("record not found")
	}
	if got.Tasks[0].Title != "original" || got.Summary != "summary a" {
		t.Errorf("stored record was mutated: %+v", got)
	}
}

func TestHistoryStore_GetMissing(t *testing.T) {
	s := NewHistoryStore(0)
	if _, ok := s.Get("nope"); ok {
		t.Error("expected missing record")
	}
}

func TestNewHistoryStoreFrom(t *testing.T) {
	s, err := NewHistoryStoreFrom([]models.DelegationRecord{record("new"), record("old")})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"new", "old"}, ids(s.All())); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	_, err = NewHistoryStoreFrom([]models.DelegationRecord{record("x"), record("x")})
	if !errors.Is(err, ErrDuplicateRecordID) {
		t.Errorf("expected ErrDuplicateRecordID, got %v", err)
	}
}

func TestHistoryStore_ConcurrentAppend(t *testing.T) {
	s := NewHistoryStore(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Append(record(fmt.Sprintf("r%d", i)))
			_ = s.All()
		}(i)
	}
	wg.Wait()
	if s.Len() != 50 {
		t.Errorf("Len() = %d, want 50", s.Len())
	}
}

func TestRecordIDGenerator_Unique(t *testing.T) {
	g := NewRecordIDGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := g.NewRecordID()
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(id, "rec-") {
			t.Fatalf("id %q lacks rec- prefix", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

// TestProperty_HistoryAppendOnly checks that after any sequence of appends the
// store holds the accepted records newest first, bounded by capacity.
func TestProperty_HistoryAppendOnly(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(0, 5).Draw(t, "capacity")
		appends := rapid.SliceOf(rapid.StringMatching(`[a-e]`)).Draw(t, "ids")

		s := NewHistoryStore(capacity)
		var model []string
		for _, id := range appends {
			err := s.Append(record(id))
			dup := false
			for _, m := range model {
				if m == id {
					dup = true
				}
			}
			if dup != errors.Is(err, ErrDuplicateRecordID) {
				t.Fatalf("Append(%s): dup=%v err=%v", id, dup, err)
			}
			if dup {
				continue
			}
			model = append([]string{id}, model...)
			if capacity > 0 && len(model) > capacity {
				model = model[:capacity]
			}
		}

		if diff := cmp.Diff(model, ids(s.All()), cmpEmptyEqual); diff != "" {
			t.Fatalf("history mismatch (-model +store):\n%s", diff)
		}
	})
}

// cmpEmptyEqual treats nil and empty slices as equal.
var cmpEmptyEqual = cmp.Comparer(func(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
})
