// Package persist bridges RecordStore snapshots and the embedded
// sqlite database. It is the only component that performs storage I/O.
package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rkeshri04/CalPal/internal/model"
)

// Adapter persists log entries and the user profile. Log saves are
// full-replace inside one transaction; the profile is upserted in
// place so its row identity stays stable across edits.
type Adapter struct {
	db *sql.DB
}

func NewAdapter(db *sql.DB) *Adapter {
	return &Adapter{db: db}
}

// LoadLogs reads every persisted log row in stored order. Optional
// nutrition columns that are NULL come back as nil pointers.
func (a *Adapter) LoadLogs(ctx context.Context) ([]model.LogEntry, error) {
	rows, err := a.db.QueryContext(ctx, `
SELECT id, name, IFNULL(image, ''), barcode, cost, weight, calories, fat, carbs, protein, date, IFNULL(local_date, '')
FROM logs
ORDER BY position ASC
`)
	if err != nil {
		return nil, &ReadError{Op: "query logs", Err: err}
	}
	defer rows.Close()

	entries := make([]model.LogEntry, 0)
	for rows.Next() {
		var e model.LogEntry
		var calories, fat, carbs, protein sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.Name, &e.Image, &e.Barcode, &e.Cost, &e.Weight, &calories, &fat, &carbs, &protein, &e.Date, &e.LocalDate); err != nil {
			return nil, &ReadError{Op: "scan log row", Err: err}
		}
		e.Calories = nullableFloat(calories)
		e.Fat = nullableFloat(fat)
		e.Carbs = nullableFloat(carbs)
		e.Protein = nullableFloat(protein)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &ReadError{Op: "iterate log rows", Err: err}
	}
	return entries, nil
}

// SaveLogs replaces the whole logs table with the given collection in
// a single transaction: a crash mid-save can never leave the table
// half-wiped. Optional nutrition values default to zero once
// persisted. Calling it twice with the same snapshot is a no-op the
// second time.
func (a *Adapter) SaveLogs(ctx context.Context, entries []model.LogEntry) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return &WriteError{Op: "begin logs tx", Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM logs`); err != nil {
		_ = tx.Rollback()
		return &WriteError{Op: "clear logs", Err: err}
	}
	for i, e := range entries {
		_, err := tx.ExecContext(ctx, `
INSERT INTO logs(id, name, image, barcode, cost, weight, calories, fat, carbs, protein, date, local_date, position)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, e.ID, e.Name, e.Image, e.Barcode, e.Cost, e.Weight,
			zeroDefault(e.Calories), zeroDefault(e.Fat), zeroDefault(e.Carbs), zeroDefault(e.Protein),
			e.Date, e.LocalDate, i)
		if err != nil {
			_ = tx.Rollback()
			return &WriteError{Op: fmt.Sprintf("insert log %q", e.ID), Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &WriteError{Op: "commit logs tx", Err: err}
	}
	return nil
}

// LoadProfile returns the stored profile, or nil when none exists. If
// more than one row exists the first is returned; extras are orphaned.
func (a *Adapter) LoadProfile(ctx context.Context) (*model.UserProfile, error) {
	var p model.UserProfile
	var history string
	err := a.db.QueryRowContext(ctx, `
SELECT age, height, weight, unit_system, bmi_history, last_prompt
FROM user_profiles
ORDER BY id ASC
LIMIT 1
`).Scan(&p.Age, &p.Height, &p.Weight, &p.UnitSystem, &history, &p.LastPrompt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &ReadError{Op: "query profile", Err: err}
	}
	p.BmiHistory = make([]model.BmiEntry, 0)
	if history != "" {
		if err := json.Unmarshal([]byte(history), &p.BmiHistory); err != nil {
			return nil, &ReadError{Op: "decode bmi history", Err: err}
		}
	}
	return &p, nil
}

// SaveProfile upserts the single profile row in place. Unlike log
// saves it never deletes and recreates, so the row identity is stable
// across edits. The BMI history rides along as a JSON blob.
func (a *Adapter) SaveProfile(ctx context.Context, p model.UserProfile) error {
	history, err := json.Marshal(p.BmiHistory)
	if err != nil {
		return &WriteError{Op: "encode bmi history", Err: err}
	}
	res, err := a.db.ExecContext(ctx, `
UPDATE user_profiles
SET age = ?, height = ?, weight = ?, unit_system = ?, bmi_history = ?, last_prompt = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = (SELECT id FROM user_profiles ORDER BY id ASC LIMIT 1)
`, p.Age, p.Height, p.Weight, p.UnitSystem, string(history), p.LastPrompt)
	if err != nil {
		return &WriteError{Op: "update profile", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &WriteError{Op: "profile rows affected", Err: err}
	}
	if affected > 0 {
		return nil
	}
	if _, err := a.db.ExecContext(ctx, `
INSERT INTO user_profiles(age, height, weight, unit_system, bmi_history, last_prompt)
VALUES(?, ?, ?, ?, ?, ?)
`, p.Age, p.Height, p.Weight, p.UnitSystem, string(history), p.LastPrompt); err != nil {
		return &WriteError{Op: "insert profile", Err: err}
	}
	return nil
}

// Reset wipes both tables in one transaction. Backs the "clear all
// data" flow.
func (a *Adapter) Reset(ctx context.Context) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return &WriteError{Op: "begin reset tx", Err: err}
	}
	for _, stmt := range []string{`DELETE FROM logs`, `DELETE FROM user_profiles`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return &WriteError{Op: "reset tables", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &WriteError{Op: "commit reset tx", Err: err}
	}
	return nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func zeroDefault(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
