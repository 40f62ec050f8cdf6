package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/rkeshri04/CalPal/internal/model"
)

const (
	kgPerLb = 0.45359237
	cmPerIn = 2.54
)

// KgFromLb converts pounds to kilograms.
func KgFromLb(lb float64) float64 {
	return lb * kgPerLb
}

// LbFromKg converts kilograms to pounds.
func LbFromKg(kg float64) float64 {
	return kg / kgPerLb
}

// CmFromFeetInches converts a US-customary height to centimeters.
func CmFromFeetInches(feet, inches float64) float64 {
	return (feet*12 + inches) * cmPerIn
}

// FeetInchesFromCm converts centimeters to whole feet and remaining
// inches for display.
func FeetInchesFromCm(cm float64) (feet int, inches float64) {
	totalInches := cm / cmPerIn
	feet = int(totalInches / 12)
	inches = totalInches - float64(feet)*12
	return feet, inches
}

// BMI computes body mass index from canonical metric units.
func BMI(weightKg, heightCm float64) (float64, error) {
	if weightKg <= 0 {
		return 0, fmt.Errorf("weight must be > 0")
	}
	if heightCm <= 0 {
		return 0, fmt.Errorf("height must be > 0")
	}
	m := heightCm / 100
	return weightKg / (m * m), nil
}

// RoundBMI rounds to the two decimals the history stores.
func RoundBMI(bmi float64) float64 {
	return math.Round(bmi*100) / 100
}

// NormalizeUnitSystem validates a display unit-system name.
func NormalizeUnitSystem(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", model.UnitSystemMetric:
		return model.UnitSystemMetric, nil
	case model.UnitSystemUS:
		return model.UnitSystemUS, nil
	default:
		return "", fmt.Errorf("invalid unit system %q (use us or metric)", value)
	}
}
