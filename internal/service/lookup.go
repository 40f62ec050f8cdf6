package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rkeshri04/CalPal/internal/provider"
	"github.com/rkeshri04/CalPal/internal/provider/openfoodfacts"
	"github.com/rkeshri04/CalPal/internal/provider/spoonacular"
	"github.com/rkeshri04/CalPal/internal/provider/usda"
)

const (
	ProviderOpenFoodFacts = "openfoodfacts"
	ProviderUSDA          = "usda"
	ProviderSpoonacular   = "spoonacular"

	defaultLookupTTL = 30 * 24 * time.Hour
)

var barcodeRe = regexp.MustCompile(`^\d{8,14}$`)

// LookupOptions carries per-provider credentials.
type LookupOptions struct {
	APIKey string
}

// LookupCandidate is one provider in a fallback chain.
type LookupCandidate struct {
	Provider string
	Options  LookupOptions
}

// LookupResult is a descriptor plus where it came from.
type LookupResult struct {
	provider.Descriptor
	Provider  string
	FromCache bool
}

// LookupClient builds the client for a provider name.
func LookupClient(name string, opts LookupOptions) (provider.Lookup, error) {
	switch normalizeProvider(name) {
	case "", ProviderOpenFoodFacts:
		return &openfoodfacts.Client{}, nil
	case ProviderUSDA:
		return &usda.Client{APIKey: opts.APIKey}, nil
	case ProviderSpoonacular:
		return &spoonacular.Client{APIKey: opts.APIKey}, nil
	default:
		return nil, fmt.Errorf("unsupported nutrition provider %q", name)
	}
}

// LookupBarcode resolves a scanned barcode through one provider,
// consulting the on-device cache first. Successful provider hits are
// cached with a TTL so rescanning the same product stays offline.
func LookupBarcode(ctx context.Context, db *sql.DB, providerName, barcode string, opts LookupOptions) (LookupResult, error) {
	providerName = normalizeProvider(providerName)
	if providerName == "" {
		providerName = ProviderOpenFoodFacts
	}
	client, err := LookupClient(providerName, opts)
	if err != nil {
		return LookupResult{}, err
	}
	return lookupBarcodeWithClient(ctx, db, providerName, client, barcode)
}

func lookupBarcodeWithClient(ctx context.Context, db *sql.DB, providerName string, client provider.Lookup, barcode string) (LookupResult, error) {
	barcode = strings.TrimSpace(barcode)
	if !barcodeRe.MatchString(barcode) {
		return LookupResult{}, fmt.Errorf("invalid barcode %q (expected 8-14 digits)", barcode)
	}

	if cached, found, err := cachedLookup(db, providerName, barcode); err != nil {
		return LookupResult{}, err
	} else if found {
		return LookupResult{Descriptor: cached, Provider: providerName, FromCache: true}, nil
	}

	d, err := client.LookupBarcode(ctx, barcode)
	if err != nil {
		return LookupResult{}, err
	}
	if err := upsertLookupCache(db, providerName, barcode, d); err != nil {
		return LookupResult{}, err
	}
	return LookupResult{Descriptor: d, Provider: providerName}, nil
}

// LookupBarcodeWithFallback tries each candidate in order and returns
// the first hit.
func LookupBarcodeWithFallback(ctx context.Context, db *sql.DB, barcode string, candidates []LookupCandidate) (LookupResult, error) {
	if len(candidates) == 0 {
		return LookupResult{}, fmt.Errorf("no lookup providers configured")
	}
	errs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		name := normalizeProvider(c.Provider)
		if name == "" {
			continue
		}
		result, err := LookupBarcode(ctx, db, name, barcode, c.Options)
		if err == nil {
			return result, nil
		}
		errs = append(errs, fmt.Sprintf("%s: %v", name, err))
	}
	return LookupResult{}, fmt.Errorf("lookup failed for %q across providers [%s]", barcode, strings.Join(errs, "; "))
}

// SearchFoods runs a free-text product search through one provider.
// Searches are not cached; queries rarely repeat exactly.
func SearchFoods(ctx context.Context, providerName, query string, limit int, opts LookupOptions) ([]provider.Descriptor, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is required")
	}
	client, err := LookupClient(providerName, opts)
	if err != nil {
		return nil, err
	}
	return client.Search(ctx, query, limit)
}

// PurgeLookupCache deletes cached lookups. With purgeAll set the whole
// cache goes; otherwise provider and/or barcode scope the delete.
func PurgeLookupCache(db *sql.DB, providerName, barcode string, purgeAll bool) (int64, error) {
	providerName = normalizeProvider(providerName)
	barcode = strings.TrimSpace(barcode)

	var (
		res sql.Result
		err error
	)
	switch {
	case purgeAll:
		res, err = db.Exec(`DELETE FROM barcode_cache`)
	case providerName != "" && barcode != "":
		res, err = db.Exec(`DELETE FROM barcode_cache WHERE provider = ? AND barcode = ?`, providerName, barcode)
	case providerName != "":
		res, err = db.Exec(`DELETE FROM barcode_cache WHERE provider = ?`, providerName)
	case barcode != "":
		res, err = db.Exec(`DELETE FROM barcode_cache WHERE barcode = ?`, barcode)
	default:
		return 0, fmt.Errorf("specify --all, --provider, --barcode, or provider+barcode")
	}
	if err != nil {
		return 0, fmt.Errorf("purge lookup cache: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge lookup cache rows affected: %w", err)
	}
	return affected, nil
}

func cachedLookup(db *sql.DB, providerName, barcode string) (provider.Descriptor, bool, error) {
	var d provider.Descriptor
	var calories, fat, carbs, protein sql.NullFloat64
	err := db.QueryRow(`
SELECT name, image, weight, calories, fat, carbs, protein
FROM barcode_cache
WHERE provider = ? AND barcode = ? AND expires_at > ?
`, providerName, barcode, time.Now().UTC().Format(time.RFC3339)).Scan(&d.Name, &d.Image, &d.Weight, &calories, &fat, &carbs, &protein)
	if err == sql.ErrNoRows {
		return provider.Descriptor{}, false, nil
	}
	if err != nil {
		return provider.Descriptor{}, false, fmt.Errorf("read lookup cache: %w", err)
	}
	d.Barcode = barcode
	if calories.Valid {
		d.Calories = &calories.Float64
	}
	if fat.Valid {
		d.Fat = &fat.Float64
	}
	if carbs.Valid {
		d.Carbs = &carbs.Float64
	}
	if protein.Valid {
		d.Protein = &protein.Float64
	}
	return d, true, nil
}

func upsertLookupCache(db *sql.DB, providerName, barcode string, d provider.Descriptor) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode lookup cache row: %w", err)
	}
	now := time.Now().UTC()
	_, err = db.Exec(`
INSERT INTO barcode_cache(provider, barcode, name, image, weight, calories, fat, carbs, protein, raw_json, fetched_at, expires_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, barcode) DO UPDATE SET
  name=excluded.name, image=excluded.image, weight=excluded.weight,
  calories=excluded.calories, fat=excluded.fat, carbs=excluded.carbs, protein=excluded.protein,
  raw_json=excluded.raw_json, fetched_at=excluded.fetched_at, expires_at=excluded.expires_at
`, providerName, barcode, d.Name, d.Image, d.Weight,
		nullable(d.Calories), nullable(d.Fat), nullable(d.Carbs), nullable(d.Protein),
		string(raw), now.Format(time.RFC3339), now.Add(defaultLookupTTL).Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write lookup cache: %w", err)
	}
	return nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func normalizeProvider(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "off" {
		return ProviderOpenFoodFacts
	}
	return n
}
