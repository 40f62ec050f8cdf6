package openfoodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookupBarcodeParsesOpenFoodFactsResponse(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "status": 1,
  "product": {
    "code": "12345678",
    "product_name": "Yogurt Cup",
    "brands": "Brand Co",
    "image_front_url": "https://images.example/yogurt.jpg",
    "product_quantity": "170",
    "nutriments": {
      "energy-kcal_serving": 120,
      "proteins_serving": 10,
      "carbohydrates_serving": 15,
      "fat_serving": 2
    }
  }
}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	d, err := c.LookupBarcode(context.Background(), "12345678")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if d.Name != "Yogurt Cup" || d.Barcode != "12345678" {
		t.Fatalf("unexpected descriptor: %+v", d)
	}
	if d.Image != "https://images.example/yogurt.jpg" {
		t.Fatalf("unexpected image: %q", d.Image)
	}
	if d.Weight != 170 {
		t.Fatalf("expected weight 170 from product_quantity, got %v", d.Weight)
	}
	if d.Calories == nil || *d.Calories != 120 {
		t.Fatalf("unexpected calories: %v", d.Calories)
	}
	if d.Protein == nil || *d.Protein != 10 {
		t.Fatalf("unexpected protein: %v", d.Protein)
	}
}

func TestLookupBarcodeFallsBackToServingSizeWeight(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "status": 1,
  "product": {
    "product_name": "Granola Bar",
    "serving_size": "45 g",
    "nutriments": {}
  }
}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	d, err := c.LookupBarcode(context.Background(), "00000001")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if d.Weight != 45 {
		t.Fatalf("expected weight 45 from serving size, got %v", d.Weight)
	}
	if d.Calories != nil {
		t.Fatalf("expected missing calories to stay nil, got %v", *d.Calories)
	}
}

func TestLookupBarcodeNotFound(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": 0, "product": {}}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	if _, err := c.LookupBarcode(context.Background(), "99999999"); err == nil {
		t.Fatalf("expected missing product to fail")
	}
}

func TestSearchParsesProducts(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "products": [
    {"code": "111", "product_name": "Oat Milk", "nutriments": {"energy-kcal_100g": 46}},
    {"code": "222", "product_name": "", "nutriments": {}},
    {"code": "333", "product_name": "Oat Bar", "nutriments": {"proteins_100g": "7.5"}}
  ]
}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	got, err := c.Search(context.Background(), "oat", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 named products, got %d", len(got))
	}
	if got[0].Barcode != "111" || got[1].Barcode != "333" {
		t.Fatalf("unexpected barcodes: %+v", got)
	}
	if got[1].Protein == nil || *got[1].Protein != 7.5 {
		t.Fatalf("expected string nutriment parsed, got %v", got[1].Protein)
	}
}
