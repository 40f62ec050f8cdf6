// Package store holds the authoritative in-memory state of the app:
// the ordered log collection and the single optional user profile.
// Durability lives elsewhere; the store only exposes state and a change
// notification so the persistence strategy can change without touching
// frontend logic.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rkeshri04/CalPal/internal/model"
)

var (
	// ErrNotFound is returned when an update or remove names an id
	// that is not in the collection.
	ErrNotFound = errors.New("log entry not found")

	// ErrDuplicateID is returned when Add is called with an id that
	// is already present.
	ErrDuplicateID = errors.New("log entry id already exists")
)

// Patch carries the mutable fields of a log entry. Nil fields are left
// unchanged. The id and creation date of an entry are immutable and
// therefore not patchable.
type Patch struct {
	Name      *string
	Image     *string
	Barcode   *string
	Cost      *float64
	Weight    *float64
	Calories  *float64
	Fat       *float64
	Carbs     *float64
	Protein   *float64
	LocalDate *string
}

// Snapshot is a point-in-time copy of the store's state, safe to read
// after the store has moved on.
type Snapshot struct {
	Entries []model.LogEntry
	Profile *model.UserProfile
}

// RecordStore keeps log entries most-recent-first and notifies
// subscribers synchronously on every mutation. All methods are safe for
// concurrent use; the persistence saver snapshots from another
// goroutine.
type RecordStore struct {
	mu          sync.Mutex
	entries     []model.LogEntry
	profile     *model.UserProfile
	subscribers []func()
}

func New() *RecordStore {
	return &RecordStore{entries: make([]model.LogEntry, 0)}
}

// Subscribe registers fn to run synchronously after every mutation.
// Subscribers must not mutate the store from the callback.
func (s *RecordStore) Subscribe(fn func()) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// Add inserts the entry at the head of the collection.
func (s *RecordStore) Add(entry model.LogEntry) error {
	s.mu.Lock()
	if s.indexOf(entry.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("add log %q: %w", entry.ID, ErrDuplicateID)
	}
	s.entries = append([]model.LogEntry{entry.Clone()}, s.entries...)
	s.mu.Unlock()
	s.notify()
	return nil
}

// ReplaceAll swaps in a whole new collection, preserving input order.
// Used after a full load from storage.
func (s *RecordStore) ReplaceAll(entries []model.LogEntry) {
	next := make([]model.LogEntry, 0, len(entries))
	for _, e := range entries {
		next = append(next, e.Clone())
	}
	s.mu.Lock()
	s.entries = next
	s.mu.Unlock()
	s.notify()
}

// Update applies the patch to the entry with the given id, keeping its
// position, id, and creation date.
func (s *RecordStore) Update(id string, p Patch) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("update log %q: %w", id, ErrNotFound)
	}
	e := s.entries[i].Clone()
	applyPatch(&e, p)
	s.entries[i] = e
	s.mu.Unlock()
	s.notify()
	return nil
}

// Remove deletes the entry with the given id.
func (s *RecordStore) Remove(id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("remove log %q: %w", id, ErrNotFound)
	}
	s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
	s.mu.Unlock()
	s.notify()
	return nil
}

// SetProfile replaces the single profile slot.
func (s *RecordStore) SetProfile(p model.UserProfile) {
	c := p.Clone()
	s.mu.Lock()
	s.profile = &c
	s.mu.Unlock()
	s.notify()
}

// Profile returns a copy of the profile, or nil when none has been set.
func (s *RecordStore) Profile() *model.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	c := s.profile.Clone()
	return &c
}

// Entries returns a copy of the ordered collection.
func (s *RecordStore) Entries() []model.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEntries(s.entries)
}

// Snapshot copies entries and profile in one lock acquisition so the
// two are from the same instant.
func (s *RecordStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{Entries: cloneEntries(s.entries)}
	if s.profile != nil {
		c := s.profile.Clone()
		snap.Profile = &c
	}
	return snap
}

// Len reports the number of log entries.
func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear empties both the collection and the profile slot. Used by the
// full data reset flow.
func (s *RecordStore) Clear() {
	s.mu.Lock()
	s.entries = make([]model.LogEntry, 0)
	s.profile = nil
	s.mu.Unlock()
	s.notify()
}

func (s *RecordStore) indexOf(id string) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *RecordStore) notify() {
	s.mu.Lock()
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func applyPatch(e *model.LogEntry, p Patch) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Image != nil {
		e.Image = *p.Image
	}
	if p.Barcode != nil {
		e.Barcode = *p.Barcode
	}
	if p.Cost != nil {
		e.Cost = *p.Cost
	}
	if p.Weight != nil {
		e.Weight = *p.Weight
	}
	if p.Calories != nil {
		v := *p.Calories
		e.Calories = &v
	}
	if p.Fat != nil {
		v := *p.Fat
		e.Fat = &v
	}
	if p.Carbs != nil {
		v := *p.Carbs
		e.Carbs = &v
	}
	if p.Protein != nil {
		v := *p.Protein
		e.Protein = &v
	}
	if p.LocalDate != nil {
		e.LocalDate = *p.LocalDate
	}
}

func cloneEntries(entries []model.LogEntry) []model.LogEntry {
	out := make([]model.LogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Clone())
	}
	return out
}
