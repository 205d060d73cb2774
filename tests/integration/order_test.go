//go:build integration

package integration

import (
	"bytes"
	"net/http"
	"sort"
	"strings"
	"testing"
)

var testCustomer = map[string]any{
	"name":    "Test Customer",
	"phone":   "+91 99999 88888",
	"address": "42 Test Street, Chennai",
}

// fillCart puts enough in the cart to clear the retail minimum-order floor.
func fillCart(t *testing.T, headers map[string]string) {
	t.Helper()
	p := findProduct(t, "GIFT-25") // retail 1000, above the 500 floor
	addToCart(t, headers, p.ID, 1)
}

func TestPlaceOrder(t *testing.T) {
	_, headers := newSession(t)
	fillCart(t, headers)

	resp := doRequest(t, http.MethodPost, "/api/orders", testCustomer, headers)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	placed := decodeBody[placeOrderResponse](t, resp)

	if placed.Order.OrderNumber == "" || !strings.HasPrefix(placed.Order.OrderNumber, "GKP-") {
		t.Errorf("order number: got %q, want GKP- prefix", placed.Order.OrderNumber)
	}
	if placed.Order.Status != "pending" {
		t.Errorf("status: got %q, want pending", placed.Order.Status)
	}
	if placed.Order.TotalItems != 1 {
		t.Errorf("total items: got %d, want 1", placed.Order.TotalItems)
	}

	// Cart is cleared after a successful order.
	cart := decodeBody[cartResponse](t, doRequest(t, http.MethodGet, "/api/cart", nil, headers))
	if len(cart.Items) != 0 {
		t.Errorf("cart not cleared after order: %d lines", len(cart.Items))
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	_, headers := newSession(t)

	resp := doRequest(t, http.MethodPost, "/api/orders", testCustomer, headers)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeBody[errorResponse](t, resp)
	if !strings.Contains(body.Error, "empty") {
		t.Errorf("error: got %q, want empty cart message", body.Error)
	}
}

func TestPlaceOrder_MissingField(t *testing.T) {
	_, headers := newSession(t)
	fillCart(t, headers)

	req := map[string]any{"name": "Test", "phone": "", "address": "somewhere"}
	resp := doRequest(t, http.MethodPost, "/api/orders", req, headers)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeBody[errorResponse](t, resp)
	if body.Field != "phone" {
		t.Errorf("field: got %q, want phone", body.Field)
	}
}

func TestPlaceOrder_BelowMinimum(t *testing.T) {
	_, headers := newSession(t)
	p := findProduct(t, "SPK-7CM") // retail 20, below the 500 floor
	addToCart(t, headers, p.ID, 1)

	resp := doRequest(t, http.MethodPost, "/api/orders", testCustomer, headers)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	body := decodeBody[errorResponse](t, resp)
	if body.Shortfall == "" {
		t.Error("expected shortfall in response body")
	}
}

func TestEstimate_WhatsAppHandoff(t *testing.T) {
	_, headers := newSession(t)
	fillCart(t, headers)

	resp := doRequest(t, http.MethodPost, "/api/orders/estimate", testCustomer, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	est := decodeBody[estimateResponse](t, resp)

	if !strings.HasPrefix(est.WhatsAppURL, "https://wa.me/") {
		t.Errorf("whatsapp url: got %q, want wa.me link", est.WhatsAppURL)
	}
	if !strings.Contains(est.Message, "Test Customer") {
		t.Error("message missing customer name")
	}
	if !strings.Contains(est.Message, "FINAL TOTAL") {
		t.Error("message missing final total line")
	}

	// Estimate does not clear the cart.
	cart := decodeBody[cartResponse](t, doRequest(t, http.MethodGet, "/api/cart", nil, headers))
	if len(cart.Items) == 0 {
		t.Error("estimate must not clear the cart")
	}
}

func TestAdminOrderLifecycle(t *testing.T) {
	_, headers := newSession(t)
	fillCart(t, headers)
	placed := decodeBody[placeOrderResponse](t, doRequest(t, http.MethodPost, "/api/orders", testCustomer, headers))
	id := placed.Order.ID

	// pending -> confirmed is legal.
	resp := doAdmin(t, http.MethodPatch, "/api/admin/orders/"+id+"/status", map[string]any{"status": "confirmed"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Skipping ahead to delivered is not.
	resp = doAdmin(t, http.MethodPatch, "/api/admin/orders/"+id+"/status", map[string]any{"status": "delivered"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("skip: expected 422, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Cancelling from a non-terminal state is always legal.
	resp = doAdmin(t, http.MethodPatch, "/api/admin/orders/"+id+"/status", map[string]any{"status": "cancelled"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Cancelled is absorbing.
	resp = doAdmin(t, http.MethodPatch, "/api/admin/orders/"+id+"/status", map[string]any{"status": "confirmed"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("revive: expected 422, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

// A transition that loses a concurrent race must surface as an illegal
// transition on an existing order, never as 404.
func TestAdminOrderStatus_ConcurrentTransition(t *testing.T) {
	_, headers := newSession(t)
	fillCart(t, headers)
	placed := decodeBody[placeOrderResponse](t, doRequest(t, http.MethodPost, "/api/orders", testCustomer, headers))
	id := placed.Order.ID

	statuses := make(chan int, 2)
	for i := 0; i < 2; i++ {
		go func() {
			req, err := http.NewRequest(http.MethodPatch,
				baseURL+"/api/admin/orders/"+id+"/status",
				bytes.NewReader([]byte(`{"status":"confirmed"}`)))
			if err != nil {
				statuses <- 0
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-API-Key", adminKey)
			resp, err := httpClient.Do(req)
			if err != nil {
				statuses <- 0
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	got := []int{<-statuses, <-statuses}
	sort.Ints(got)

	if got[0] != http.StatusOK || got[1] != http.StatusUnprocessableEntity {
		t.Fatalf("expected one 200 and one 422, got %v", got)
	}
}

func TestAdmin_RequiresKey(t *testing.T) {
	resp := doGet(t, "/api/admin/orders")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAdmin_RejectsBadKey(t *testing.T) {
	resp := doRequest(t, http.MethodGet, "/api/admin/orders", nil, map[string]string{"X-API-Key": "wrong-key"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
