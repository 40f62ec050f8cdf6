// Package provider defines the normalized product descriptor every
// nutrition backend maps into. The store and persistence core never see
// a provider-specific response shape.
package provider

import "context"

// Descriptor is a normalized nutrition lookup result. Nutrition fields
// are nil when the backend did not report them; Weight is grams and
// zero when unknown.
type Descriptor struct {
	Name     string
	Image    string
	Barcode  string
	Weight   float64
	Cost     float64
	Calories *float64
	Fat      *float64
	Carbs    *float64
	Protein  *float64
}

// Lookup is the capability shared by the barcode/search backends.
// Implementations: Open Food Facts, USDA FoodData Central, Spoonacular.
type Lookup interface {
	// LookupBarcode resolves a scanned barcode to a product.
	LookupBarcode(ctx context.Context, barcode string) (Descriptor, error)

	// Search returns up to limit products matching a free-text query.
	Search(ctx context.Context, query string, limit int) ([]Descriptor, error)
}

// Float returns a pointer to v, for building descriptors literally.
func Float(v float64) *float64 {
	return &v
}
