package service

import (
	"fmt"
	"time"

	"github.com/rkeshri04/CalPal/internal/model"
	"github.com/rkeshri04/CalPal/internal/store"
)

// StatsInput carries one body-stats submission in canonical metric
// units. Display-unit conversion happens at the frontend boundary,
// never here.
type StatsInput struct {
	Age        int
	HeightCm   float64
	WeightKg   float64
	UnitSystem string
	Now        time.Time
}

// SubmitStats records a body-stats edit: it updates the profile's
// canonical height/weight, appends exactly one BMI history snapshot,
// and stamps the refresh prompt. Prior history entries are never
// touched.
func SubmitStats(s *store.RecordStore, in StatsInput) (model.UserProfile, error) {
	if in.Age <= 0 {
		return model.UserProfile{}, fmt.Errorf("age must be > 0")
	}
	unitSystem, err := NormalizeUnitSystem(in.UnitSystem)
	if err != nil {
		return model.UserProfile{}, err
	}
	bmi, err := BMI(in.WeightKg, in.HeightCm)
	if err != nil {
		return model.UserProfile{}, err
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}

	p := s.Profile()
	if p == nil {
		p = &model.UserProfile{BmiHistory: make([]model.BmiEntry, 0)}
	}
	p.Age = in.Age
	p.Height = in.HeightCm
	p.Weight = in.WeightKg
	p.UnitSystem = unitSystem
	p.LastPrompt = in.Now.UTC().Format(time.RFC3339)
	p.BmiHistory = append(p.BmiHistory, model.BmiEntry{
		Date:   in.Now.UTC().Format(time.RFC3339),
		BMI:    RoundBMI(bmi),
		Weight: in.WeightKg,
		Height: in.HeightCm,
	})

	s.SetProfile(*p)
	return *p, nil
}

// MarkPrompted stamps the profile with the time the user was last
// asked to refresh their stats, without touching the history.
func MarkPrompted(s *store.RecordStore, now time.Time) error {
	p := s.Profile()
	if p == nil {
		return fmt.Errorf("no profile to mark")
	}
	p.LastPrompt = now.UTC().Format(time.RFC3339)
	s.SetProfile(*p)
	return nil
}

// ShouldPromptRefresh reports whether enough time has passed since the
// last stats prompt. A missing or unparsable timestamp always prompts.
func ShouldPromptRefresh(p *model.UserProfile, now time.Time, interval time.Duration) bool {
	if p == nil {
		return true
	}
	last, err := time.Parse(time.RFC3339, p.LastPrompt)
	if err != nil {
		return true
	}
	return now.Sub(last) >= interval
}
