package model

import "time"

// Unit systems selectable for display. Height and weight are always
// stored in metric (cm/kg); the preference only affects conversion at
// the presentation boundary.
const (
	UnitSystemUS     = "us"
	UnitSystemMetric = "metric"
)

// LogEntry is one scanned or entered food event. The id is supplied by
// the caller at creation time and stays stable for the entry's lifetime.
// Optional nutrition fields are nil when the value was never known.
type LogEntry struct {
	ID        string
	Name      string
	Image     string
	Barcode   string
	Cost      float64
	Weight    float64
	Calories  *float64
	Fat       *float64
	Carbs     *float64
	Protein   *float64
	Date      string
	LocalDate string
}

// BmiEntry is one append-only snapshot in a profile's BMI history.
type BmiEntry struct {
	Date   string  `json:"date"`
	BMI    float64 `json:"bmi"`
	Weight float64 `json:"weight"`
	Height float64 `json:"height"`
}

// UserProfile holds the user's body metrics. Height is centimeters and
// weight is kilograms regardless of UnitSystem.
type UserProfile struct {
	Age        int
	Height     float64
	Weight     float64
	UnitSystem string
	BmiHistory []BmiEntry
	LastPrompt string
}

// NewLogDate formats a creation instant the way entries store it.
func NewLogDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// LocalDateOf returns the calendar day of t in the local timezone,
// used for day-bucketed grouping.
func LocalDateOf(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

// Clone returns a deep copy of the entry so callers cannot alias
// store-owned memory through the optional nutrition pointers.
func (e LogEntry) Clone() LogEntry {
	c := e
	c.Calories = clonePtr(e.Calories)
	c.Fat = clonePtr(e.Fat)
	c.Carbs = clonePtr(e.Carbs)
	c.Protein = clonePtr(e.Protein)
	return c
}

// Clone returns a deep copy of the profile including its history.
func (p UserProfile) Clone() UserProfile {
	c := p
	c.BmiHistory = make([]BmiEntry, len(p.BmiHistory))
	copy(c.BmiHistory, p.BmiHistory)
	return c
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
