package service

import (
	"errors"
	"testing"
	"time"

	"github.com/rkeshri04/CalPal/internal/provider"
	"github.com/rkeshri04/CalPal/internal/store"
)

func TestNewEntryGeneratesIDAndDates(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

	entry, err := NewEntry(NewEntryInput{Name: "  Oatmeal ", Cost: 2.5, Weight: 60, Calories: f(220), Now: now})
	if err != nil {
		t.Fatalf("failed to build entry: %v", err)
	}
	if entry.ID == "" {
		t.Fatalf("expected generated id")
	}
	if entry.Name != "Oatmeal" {
		t.Fatalf("expected trimmed name, got %q", entry.Name)
	}
	if entry.Date != "2024-03-10T09:30:00Z" {
		t.Fatalf("unexpected date %q", entry.Date)
	}
	if entry.LocalDate == "" {
		t.Fatalf("expected local date")
	}

	other, err := NewEntry(NewEntryInput{Name: "Oatmeal", Now: now})
	if err != nil {
		t.Fatalf("failed to build second entry: %v", err)
	}
	if other.ID == entry.ID {
		t.Fatalf("expected unique ids per entry")
	}
}

func TestNewEntryValidation(t *testing.T) {
	t.Parallel()

	cases := []NewEntryInput{
		{Name: ""},
		{Name: "   "},
		{Name: "Bad Cost", Cost: -1},
		{Name: "Bad Weight", Weight: -5},
		{Name: "Bad Calories", Calories: f(-10)},
	}
	for _, in := range cases {
		if _, err := NewEntry(in); err == nil {
			t.Fatalf("expected input %+v to be rejected", in)
		}
	}
}

func TestUpdateEntryRejectsOutOfRangePatch(t *testing.T) {
	t.Parallel()
	s := store.New()
	entry, err := NewEntry(NewEntryInput{Name: "Apple", Cost: 0.5, Weight: 150})
	if err != nil {
		t.Fatalf("failed to build entry: %v", err)
	}
	if err := s.Add(entry); err != nil {
		t.Fatalf("failed to add entry: %v", err)
	}

	// An invalid patch must be refused up front; the in-memory value
	// never diverges from what the schema will accept at save time.
	if err := UpdateEntry(s, entry.ID, store.Patch{Cost: f(-5)}); err == nil {
		t.Fatalf("expected negative cost patch to be rejected")
	}
	if got := s.Entries()[0].Cost; got != 0.5 {
		t.Fatalf("store cost changed after rejected patch: %v", got)
	}

	for field, patch := range map[string]store.Patch{
		"weight":   {Weight: f(-1)},
		"calories": {Calories: f(-10)},
		"fat":      {Fat: f(-1)},
		"carbs":    {Carbs: f(-1)},
		"protein":  {Protein: f(-1)},
	} {
		if err := UpdateEntry(s, entry.ID, patch); err == nil {
			t.Fatalf("expected negative %s patch to be rejected", field)
		}
	}
	blank := "   "
	if err := UpdateEntry(s, entry.ID, store.Patch{Name: &blank}); err == nil {
		t.Fatalf("expected blank name patch to be rejected")
	}
}

func TestUpdateEntryAppliesValidPatch(t *testing.T) {
	t.Parallel()
	s := store.New()
	entry, err := NewEntry(NewEntryInput{Name: "Apple", Cost: 0.5})
	if err != nil {
		t.Fatalf("failed to build entry: %v", err)
	}
	if err := s.Add(entry); err != nil {
		t.Fatalf("failed to add entry: %v", err)
	}

	if err := UpdateEntry(s, entry.ID, store.Patch{Cost: f(2.0)}); err != nil {
		t.Fatalf("valid patch failed: %v", err)
	}
	if got := s.Entries()[0].Cost; got != 2.0 {
		t.Fatalf("patch not applied, cost = %v", got)
	}

	if err := UpdateEntry(s, "missing", store.Patch{Cost: f(1)}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestEntryFromDescriptorCostPrecedence(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	d := provider.Descriptor{Name: "Burrito", Cost: 9.5, Weight: 300, Calories: f(650)}

	entry, err := EntryFromDescriptor(d, 0, now)
	if err != nil {
		t.Fatalf("failed to build entry: %v", err)
	}
	if entry.Cost != 9.5 {
		t.Fatalf("expected descriptor cost fallback, got %v", entry.Cost)
	}

	entry, err = EntryFromDescriptor(d, 7.25, now)
	if err != nil {
		t.Fatalf("failed to build entry: %v", err)
	}
	if entry.Cost != 7.25 {
		t.Fatalf("user cost should win, got %v", entry.Cost)
	}
}
