package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/valter-silva-au/delegation-dashboard/pkg/models"
)

var (
	// ErrDuplicateRecordID is returned when appending a record whose id is
	// already present in the store.
	ErrDuplicateRecordID = errors.New("duplicate delegation record id")

	// ErrRecordNotFound is returned when a history id does not exist.
	ErrRecordNotFound = errors.New("delegation record not found")
)

// HistoryStore is the append-only, newest-first list of past delegation runs.
// There is deliberately no update or remove operation.
type HistoryStore interface {
	Append(record models.DelegationRecord) error
	All() []models.DelegationRecord
	Get(id string) (models.DelegationRecord, bool)
	Len() int
}

// memoryHistoryStore keeps records newest first. Records are copied on the
// way in and on the way out so callers can never mutate stored entries.
type memoryHistoryStore struct {
	mu       sync.RWMutex
	records  []models.DelegationRecord
	ids      map[string]struct{}
	capacity int
}

// NewHistoryStore creates an in-memory HistoryStore. A capacity greater than
// zero drops the oldest records once the store holds more than capacity
// entries; zero keeps everything.
func NewHistoryStore(capacity int) HistoryStore {
	if capacity < 0 {
		capacity = 0
	}
	return &memoryHistoryStore{
		ids:      make(map[string]struct{}),
		capacity: capacity,
	}
}

// NewHistoryStoreFrom creates an unbounded store pre-populated with records
// given newest first. The dashboard keeps its sample history in one.
func NewHistoryStoreFrom(records []models.DelegationRecord) (HistoryStore, error) {
	s := &memoryHistoryStore{ids: make(map[string]struct{}, len(records))}
	for i := len(records) - 1; i >= 0; i-- {
		if err := s.Append(records[i]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Append prepends the record.
func (s *memoryHistoryStore) Append(record models.DelegationRecord) error {
	if record.ID == "" {
		return fmt.Errorf("appending delegation record: empty id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[record.ID]; exists {
		return fmt.Errorf("appending delegation record %s: %w", record.ID, ErrDuplicateRecordID)
	}

	s.records = append([]models.DelegationRecord{record.Clone()}, s.records...)
	s.ids[record.ID] = struct{}{}

	if s.capacity > 0 && len(s.records) > s.capacity {
		for _, dropped := range s.records[s.capacity:] {
			delete(s.ids, dropped.ID)
		}
		s.records = s.records[:s.capacity]
	}
	return nil
}

// All returns a copy of every record, newest first.
func (s *memoryHistoryStore) All() []models.DelegationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DelegationRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

func (s *memoryHistoryStore) Get(id string) (models.DelegationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return models.DelegationRecord{}, false
}

func (s *memoryHistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// RecordIDGenerator produces identifiers for new delegation records.
type RecordIDGenerator interface {
	NewRecordID() (string, error)
}

// uuidRecordIDGenerator uses UUIDv7, which embeds the creation time in
// milliseconds and a random tail, so ids sort by creation time and do not
// collide within the same millisecond.
type uuidRecordIDGenerator struct {
	prefix string
}

// NewRecordIDGenerator returns a generator producing ids like
// "rec-0190f5b2-...".
func NewRecordIDGenerator() RecordIDGenerator {
	return &uuidRecordIDGenerator{prefix: "rec-"}
}

func (g *uuidRecordIDGenerator) NewRecordID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating record id: %w", err)
	}
	return g.prefix + id.String(), nil
}
