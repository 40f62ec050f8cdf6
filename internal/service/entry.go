package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rkeshri04/CalPal/internal/model"
	"github.com/rkeshri04/CalPal/internal/provider"
	"github.com/rkeshri04/CalPal/internal/store"
)

// NewEntryInput carries a manual log submission.
type NewEntryInput struct {
	Name     string
	Barcode  string
	Image    string
	Cost     float64
	Weight   float64
	Calories *float64
	Fat      *float64
	Carbs    *float64
	Protein  *float64
	Now      time.Time
}

// NewEntry builds a log entry with a fresh client-generated id and
// creation timestamps.
func NewEntry(in NewEntryInput) (model.LogEntry, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return model.LogEntry{}, fmt.Errorf("entry name is required")
	}
	if in.Cost < 0 {
		return model.LogEntry{}, fmt.Errorf("cost must be >= 0")
	}
	if in.Weight < 0 {
		return model.LogEntry{}, fmt.Errorf("weight must be >= 0")
	}
	for name, v := range map[string]*float64{"calories": in.Calories, "fat": in.Fat, "carbs": in.Carbs, "protein": in.Protein} {
		if v != nil && *v < 0 {
			return model.LogEntry{}, fmt.Errorf("%s must be >= 0", name)
		}
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	return model.LogEntry{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Image:     strings.TrimSpace(in.Image),
		Barcode:   strings.TrimSpace(in.Barcode),
		Cost:      in.Cost,
		Weight:    in.Weight,
		Calories:  in.Calories,
		Fat:       in.Fat,
		Carbs:     in.Carbs,
		Protein:   in.Protein,
		Date:      model.NewLogDate(in.Now),
		LocalDate: model.LocalDateOf(in.Now),
	}.Clone(), nil
}

// UpdateEntry validates a patch and applies it. The bounds NewEntry
// enforces hold for edits too; an invalid patch never reaches the
// store, so no out-of-range value can survive until save time.
func UpdateEntry(s *store.RecordStore, id string, p store.Patch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("entry name is required")
	}
	for name, v := range map[string]*float64{"cost": p.Cost, "weight": p.Weight, "calories": p.Calories, "fat": p.Fat, "carbs": p.Carbs, "protein": p.Protein} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be >= 0", name)
		}
	}
	return s.Update(id, p)
}

// EntryFromDescriptor builds a log entry out of a provider lookup.
// cost comes from the user; providers rarely know prices, but when the
// descriptor carries one (the AI backend does) and cost is zero, the
// descriptor's value is used.
func EntryFromDescriptor(d provider.Descriptor, cost float64, now time.Time) (model.LogEntry, error) {
	if cost == 0 {
		cost = d.Cost
	}
	return NewEntry(NewEntryInput{
		Name:     d.Name,
		Barcode:  d.Barcode,
		Image:    d.Image,
		Cost:     cost,
		Weight:   d.Weight,
		Calories: d.Calories,
		Fat:      d.Fat,
		Carbs:    d.Carbs,
		Protein:  d.Protein,
		Now:      now,
	})
}
