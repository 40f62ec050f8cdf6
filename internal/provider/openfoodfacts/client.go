package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rkeshri04/CalPal/internal/provider"
)

const defaultBaseURL = "https://world.openfoodfacts.org"

var servingSizeRe = regexp.MustCompile(`\d+(\.\d+)?`)

type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// LookupBarcode fetches a product by barcode and maps it to the
// normalized descriptor. Weight is taken from product_quantity when
// numeric, else parsed out of the serving size string.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (provider.Descriptor, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	u := fmt.Sprintf("%s/api/v2/product/%s.json?fields=product_name,product_quantity,nutriments,brands,code,image_front_url,serving_size", base, url.PathEscape(strings.TrimSpace(barcode)))
	body, err := c.get(ctx, u)
	if err != nil {
		return provider.Descriptor{}, err
	}

	var parsed offResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return provider.Descriptor{}, fmt.Errorf("decode openfoodfacts response: %w", err)
	}
	if parsed.Status != 1 || strings.TrimSpace(parsed.Product.ProductName) == "" {
		return provider.Descriptor{}, fmt.Errorf("no openfoodfacts product found for barcode %q", barcode)
	}
	d := descriptorFromProduct(parsed.Product)
	d.Barcode = strings.TrimSpace(barcode)
	return d, nil
}

// Search runs a free-text product search.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]provider.Descriptor, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	if limit <= 0 {
		limit = 10
	}
	u := fmt.Sprintf("%s/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=%d",
		base, url.QueryEscape(strings.TrimSpace(query)), limit)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var parsed offSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode openfoodfacts search response: %w", err)
	}
	out := make([]provider.Descriptor, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		if strings.TrimSpace(p.ProductName) == "" {
			continue
		}
		d := descriptorFromProduct(p)
		d.Barcode = strings.TrimSpace(p.Code)
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no openfoodfacts product found for query %q", query)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create openfoodfacts request: %w", err)
	}
	ua := strings.TrimSpace(c.UserAgent)
	if ua == "" {
		ua = "calpal/1.0 (+https://github.com/rkeshri04/CalPal)"
	}
	req.Header.Set("User-Agent", ua)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute openfoodfacts request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openfoodfacts response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openfoodfacts request failed with status %d", resp.StatusCode)
	}
	return body, nil
}

func descriptorFromProduct(p offProduct) provider.Descriptor {
	d := provider.Descriptor{
		Name:   strings.TrimSpace(p.ProductName),
		Image:  strings.TrimSpace(p.ImageFrontURL),
		Weight: productWeight(p),
	}
	if v, ok := nutrientValue(p.Nutriments, "energy-kcal"); ok {
		d.Calories = &v
	}
	if v, ok := nutrientValue(p.Nutriments, "fat"); ok {
		d.Fat = &v
	}
	if v, ok := nutrientValue(p.Nutriments, "carbohydrates"); ok {
		d.Carbs = &v
	}
	if v, ok := nutrientValue(p.Nutriments, "proteins"); ok {
		d.Protein = &v
	}
	return d
}

func productWeight(p offProduct) float64 {
	if w, ok := parseFloatAny(p.ProductQuantity); ok && w > 0 {
		return w
	}
	if m := servingSizeRe.FindString(p.ServingSize); m != "" {
		if w, err := strconv.ParseFloat(m, 64); err == nil {
			return w
		}
	}
	return 0
}

func nutrientValue(n map[string]any, base string) (float64, bool) {
	for _, key := range []string{base + "_serving", base + "_100g"} {
		if v, ok := parseFloatAny(n[key]); ok {
			return v, true
		}
	}
	return 0, false
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	Code            string         `json:"code"`
	ProductName     string         `json:"product_name"`
	Brands          string         `json:"brands"`
	ImageFrontURL   string         `json:"image_front_url"`
	ProductQuantity any            `json:"product_quantity"`
	ServingSize     string         `json:"serving_size"`
	Nutriments      map[string]any `json:"nutriments"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}
