package usda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rkeshri04/CalPal/internal/provider"
)

const defaultBaseURL = "https://api.nal.usda.gov"

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// LookupBarcode searches USDA FoodData Central branded foods for a GTIN
// match and maps it to the normalized descriptor.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (provider.Descriptor, error) {
	foods, err := c.search(ctx, barcode, 20)
	if err != nil {
		return provider.Descriptor{}, err
	}
	food, ok := selectBarcodeMatch(foods, barcode)
	if !ok {
		return provider.Descriptor{}, fmt.Errorf("no USDA branded food found for barcode %q", barcode)
	}
	d := descriptorFromFood(food)
	d.Barcode = strings.TrimSpace(barcode)
	return d, nil
}

// Search runs a free-text branded food search.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]provider.Descriptor, error) {
	if limit <= 0 {
		limit = 10
	}
	foods, err := c.search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]provider.Descriptor, 0, len(foods))
	for _, f := range foods {
		if strings.TrimSpace(f.Description) == "" {
			continue
		}
		d := descriptorFromFood(f)
		d.Barcode = strings.TrimSpace(f.GTINUPC)
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no USDA branded food found for query %q", query)
	}
	return out, nil
}

func (c *Client) search(ctx context.Context, query string, pageSize int) ([]searchFood, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("missing USDA API key")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}

	reqBody := map[string]any{
		"query":    query,
		"dataType": []string{"Branded"},
		"pageSize": pageSize,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal USDA search payload: %w", err)
	}

	u := fmt.Sprintf("%s/fdc/v1/foods/search?api_key=%s", baseURL, c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create USDA request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute USDA request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read USDA response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("USDA request failed with status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode USDA response: %w", err)
	}
	return parsed.Foods, nil
}

func descriptorFromFood(f searchFood) provider.Descriptor {
	d := provider.Descriptor{Name: strings.TrimSpace(f.Description)}
	if strings.EqualFold(strings.TrimSpace(f.ServingSizeUnit), "g") && f.ServingSize > 0 {
		d.Weight = f.ServingSize
	}
	for _, n := range f.FoodNutrients {
		name := strings.ToLower(strings.TrimSpace(n.NutrientName))
		v := n.Value
		switch name {
		case "energy":
			d.Calories = &v
		case "total lipid (fat)":
			d.Fat = &v
		case "carbohydrate, by difference":
			d.Carbs = &v
		case "protein":
			d.Protein = &v
		}
	}
	return d
}

func selectBarcodeMatch(foods []searchFood, barcode string) (searchFood, bool) {
	want := strings.TrimLeft(strings.TrimSpace(barcode), "0")
	for _, f := range foods {
		got := strings.TrimLeft(strings.TrimSpace(f.GTINUPC), "0")
		if got != "" && got == want {
			return f, true
		}
	}
	if len(foods) > 0 {
		return foods[0], true
	}
	return searchFood{}, false
}

type searchResponse struct {
	Foods []searchFood `json:"foods"`
}

type searchFood struct {
	FDCID           int64            `json:"fdcId"`
	Description     string           `json:"description"`
	BrandOwner      string           `json:"brandOwner"`
	GTINUPC         string           `json:"gtinUpc"`
	ServingSize     float64          `json:"servingSize"`
	ServingSizeUnit string           `json:"servingSizeUnit"`
	FoodNutrients   []searchNutrient `json:"foodNutrients"`
}

type searchNutrient struct {
	NutrientName string  `json:"nutrientName"`
	Value        float64 `json:"value"`
}
