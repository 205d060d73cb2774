//go:build integration

package integration

import (
	"net/http"
	"testing"
)

type adminProductResponse struct {
	ID             string `json:"id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	MRP            string `json:"mrp"`
	RetailPrice    string `json:"retail_price"`
	WholesalePrice string `json:"wholesale_price"`
	Stock          int    `json:"stock"`
	Active         bool   `json:"active"`
}

func TestAdminProductCRUD(t *testing.T) {
	create := map[string]any{
		"code":            "TEST-CRUD",
		"name":            "Test Product",
		"mrp":             "100.00",
		"retail_price":    "40.00",
		"wholesale_price": "30.00",
		"stock":           10,
	}

	resp := doAdmin(t, http.MethodPost, "/api/admin/products", create)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decodeBody[adminProductResponse](t, resp)
	if created.ID == "" {
		t.Fatal("created product has no id")
	}

	update := map[string]any{
		"code":            "TEST-CRUD",
		"name":            "Test Product Renamed",
		"mrp":             "100.00",
		"retail_price":    "45.00",
		"wholesale_price": "35.00",
		"stock":           5,
		"active":          true,
	}
	resp = doAdmin(t, http.MethodPut, "/api/admin/products/"+created.ID, update)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	updated := decodeBody[adminProductResponse](t, resp)
	if updated.Name != "Test Product Renamed" {
		t.Errorf("update name: got %q", updated.Name)
	}

	resp = doAdmin(t, http.MethodDelete, "/api/admin/products/"+created.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Soft delete: gone from the storefront, still visible to admin.
	storefront := decodeBody[[]productResponse](t, doGet(t, "/api/products?search=TEST-CRUD"))
	if len(storefront) != 0 {
		t.Error("deleted product still listed on storefront")
	}

	admin := decodeBody[[]adminProductResponse](t, doAdmin(t, http.MethodGet, "/api/admin/products?search=TEST-CRUD", nil))
	found := false
	for _, p := range admin {
		if p.Code == "TEST-CRUD" && !p.Active {
			found = true
		}
	}
	if !found {
		t.Error("soft-deleted product missing from admin listing")
	}
}

func TestAdminProduct_RejectsInvalid(t *testing.T) {
	bad := map[string]any{
		"code":            "",
		"name":            "No Code",
		"mrp":             "10.00",
		"retail_price":    "5.00",
		"wholesale_price": "4.00",
	}
	resp := doAdmin(t, http.MethodPost, "/api/admin/products", bad)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAdminSettingsRoundTrip(t *testing.T) {
	resp := doAdmin(t, http.MethodGet, "/api/admin/settings", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.StatusCode)
	}
	cfg := decodeBody[map[string]any](t, resp)

	cfg["store_tagline"] = "Integration tagline"
	resp = doAdmin(t, http.MethodPut, "/api/admin/settings", cfg)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	reread := decodeBody[map[string]any](t, doAdmin(t, http.MethodGet, "/api/admin/settings", nil))
	if reread["store_tagline"] != "Integration tagline" {
		t.Errorf("tagline not persisted: %v", reread["store_tagline"])
	}
}

func TestAdminSettings_RejectsNegative(t *testing.T) {
	cfg := decodeBody[map[string]any](t, doAdmin(t, http.MethodGet, "/api/admin/settings", nil))
	cfg["min_order_value"] = "-1"

	resp := doAdmin(t, http.MethodPut, "/api/admin/settings", cfg)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAdminAnalytics(t *testing.T) {
	resp := doAdmin(t, http.MethodGet, "/api/admin/analytics?period=week", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	report := decodeBody[map[string]any](t, resp)

	for _, key := range []string{"total_revenue", "total_orders", "revenue_by_day", "orders_by_status"} {
		if _, ok := report[key]; !ok {
			t.Errorf("report missing %s", key)
		}
	}

	resp = doAdmin(t, http.MethodGet, "/api/admin/analytics?period=bogus", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bogus period: expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminAnnouncements(t *testing.T) {
	create := map[string]any{
		"title":  "Diwali Sale",
		"body":   "Flat 60% off on all gift boxes",
		"active": true,
	}
	resp := doAdmin(t, http.MethodPost, "/api/admin/announcements", create)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decodeBody[map[string]any](t, resp)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("created announcement has no id")
	}

	// Active announcement shows on the storefront.
	public := decodeBody[[]map[string]any](t, doGet(t, "/api/announcements"))
	found := false
	for _, a := range public {
		if a["title"] == "Diwali Sale" {
			found = true
		}
	}
	if !found {
		t.Error("active announcement not visible on storefront")
	}

	resp = doAdmin(t, http.MethodDelete, "/api/admin/announcements/"+id, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
