package service

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rkeshri04/CalPal/internal/db"
	"github.com/rkeshri04/CalPal/internal/provider"
)

func newServiceDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "service_test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.ApplyMigrations(database); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	return database
}

type fakeLookupClient struct {
	calls      int
	descriptor provider.Descriptor
	err        error
}

func (c *fakeLookupClient) LookupBarcode(ctx context.Context, barcode string) (provider.Descriptor, error) {
	c.calls++
	if c.err != nil {
		return provider.Descriptor{}, c.err
	}
	d := c.descriptor
	d.Barcode = barcode
	return d, nil
}

func (c *fakeLookupClient) Search(ctx context.Context, query string, limit int) ([]provider.Descriptor, error) {
	c.calls++
	return []provider.Descriptor{c.descriptor}, nil
}

func TestLookupBarcodeCachesProviderHit(t *testing.T) {
	t.Parallel()
	database := newServiceDB(t)

	client := &fakeLookupClient{descriptor: provider.Descriptor{
		Name:     "Granola Bar",
		Weight:   40,
		Calories: provider.Float(190),
		Protein:  provider.Float(4),
	}}

	first, err := lookupBarcodeWithClient(context.Background(), database, ProviderOpenFoodFacts, client, "0123456789012")
	if err != nil {
		t.Fatalf("first lookup failed: %v", err)
	}
	if first.FromCache {
		t.Fatalf("first lookup should not come from cache")
	}
	if first.Descriptor.Name != "Granola Bar" {
		t.Fatalf("unexpected descriptor name %q", first.Descriptor.Name)
	}

	second, err := lookupBarcodeWithClient(context.Background(), database, ProviderOpenFoodFacts, client, "0123456789012")
	if err != nil {
		t.Fatalf("second lookup failed: %v", err)
	}
	if !second.FromCache {
		t.Fatalf("second lookup should come from cache")
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 provider call due to cache hit, got %d", client.calls)
	}
	if second.Descriptor.Calories == nil || *second.Descriptor.Calories != 190 {
		t.Fatalf("cached descriptor lost calories: %+v", second.Descriptor)
	}
	if second.Descriptor.Fat != nil {
		t.Fatalf("cached descriptor grew fat value: %+v", second.Descriptor)
	}
}

func TestLookupBarcodeCacheScopedByProvider(t *testing.T) {
	t.Parallel()
	database := newServiceDB(t)

	off := &fakeLookupClient{descriptor: provider.Descriptor{Name: "OFF Name"}}
	usda := &fakeLookupClient{descriptor: provider.Descriptor{Name: "USDA Name"}}

	if _, err := lookupBarcodeWithClient(context.Background(), database, ProviderOpenFoodFacts, off, "0123456789012"); err != nil {
		t.Fatalf("off lookup failed: %v", err)
	}
	result, err := lookupBarcodeWithClient(context.Background(), database, ProviderUSDA, usda, "0123456789012")
	if err != nil {
		t.Fatalf("usda lookup failed: %v", err)
	}
	if result.FromCache {
		t.Fatalf("cache should not cross providers")
	}
	if usda.calls != 1 {
		t.Fatalf("expected usda provider call, got %d", usda.calls)
	}
}

func TestLookupBarcodeRejectsInvalidBarcode(t *testing.T) {
	t.Parallel()
	database := newServiceDB(t)
	client := &fakeLookupClient{}

	for _, barcode := range []string{"", "abc", "1234567", "123456789012345"} {
		if _, err := lookupBarcodeWithClient(context.Background(), database, ProviderOpenFoodFacts, client, barcode); err == nil {
			t.Fatalf("expected barcode %q to be rejected", barcode)
		}
	}
	if client.calls != 0 {
		t.Fatalf("invalid barcodes should not reach the provider, got %d calls", client.calls)
	}
}

func TestLookupBarcodeProviderErrorNotCached(t *testing.T) {
	t.Parallel()
	database := newServiceDB(t)

	client := &fakeLookupClient{err: fmt.Errorf("product not found")}
	if _, err := lookupBarcodeWithClient(context.Background(), database, ProviderOpenFoodFacts, client, "0123456789012"); err == nil {
		t.Fatalf("expected provider error to surface")
	}

	client.err = nil
	client.descriptor = provider.Descriptor{Name: "Now Found"}
	result, err := lookupBarcodeWithClient(context.Background(), database, ProviderOpenFoodFacts, client, "0123456789012")
	if err != nil {
		t.Fatalf("retry lookup failed: %v", err)
	}
	if result.FromCache {
		t.Fatalf("failed lookups must not populate the cache")
	}
	if client.calls != 2 {
		t.Fatalf("expected retry to reach the provider, got %d calls", client.calls)
	}
}

func TestPurgeLookupCache(t *testing.T) {
	t.Parallel()
	database := newServiceDB(t)

	off := &fakeLookupClient{descriptor: provider.Descriptor{Name: "A"}}
	usda := &fakeLookupClient{descriptor: provider.Descriptor{Name: "B"}}
	if _, err := lookupBarcodeWithClient(context.Background(), database, ProviderOpenFoodFacts, off, "0123456789012"); err != nil {
		t.Fatalf("seed off cache: %v", err)
	}
	if _, err := lookupBarcodeWithClient(context.Background(), database, ProviderUSDA, usda, "0123456789012"); err != nil {
		t.Fatalf("seed usda cache: %v", err)
	}

	affected, err := PurgeLookupCache(database, ProviderOpenFoodFacts, "", false)
	if err != nil {
		t.Fatalf("purge by provider failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 purged row, got %d", affected)
	}

	result, err := lookupBarcodeWithClient(context.Background(), database, ProviderUSDA, usda, "0123456789012")
	if err != nil {
		t.Fatalf("usda lookup after purge failed: %v", err)
	}
	if !result.FromCache {
		t.Fatalf("purge by provider should not touch other providers")
	}

	affected, err = PurgeLookupCache(database, "", "", true)
	if err != nil {
		t.Fatalf("purge all failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 remaining row purged, got %d", affected)
	}

	if _, err := PurgeLookupCache(database, "", "", false); err == nil {
		t.Fatalf("expected unscoped purge to be rejected")
	}
}
