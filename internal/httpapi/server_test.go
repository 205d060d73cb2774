package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkpcrackers/storefront/internal/domain/analytics"
	"github.com/gkpcrackers/storefront/internal/domain/announcement"
	"github.com/gkpcrackers/storefront/internal/domain/auth"
	"github.com/gkpcrackers/storefront/internal/domain/cart"
	"github.com/gkpcrackers/storefront/internal/domain/catalog"
	"github.com/gkpcrackers/storefront/internal/domain/order"
	"github.com/gkpcrackers/storefront/internal/domain/profile"
	"github.com/gkpcrackers/storefront/internal/domain/referral"
	"github.com/gkpcrackers/storefront/internal/domain/settings"
	"github.com/gkpcrackers/storefront/internal/domain/wallet"
)

// --- Mock implementations ---

type mockCatalogRepo struct {
	catalog.Repository
	products []catalog.Product
	byID     map[string]*catalog.Product
}

func (m *mockCatalogRepo) List(_ context.Context, filter catalog.ProductFilter) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range m.products {
		if p.Active || filter.IncludeInactive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockCatalogRepo) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m *mockCatalogRepo) ListCategories(_ context.Context) ([]catalog.Category, error) {
	return []catalog.Category{{ID: "c1", Name: "Sparklers"}}, nil
}

func (m *mockCatalogRepo) ListBrands(_ context.Context) ([]catalog.Brand, error) {
	return []catalog.Brand{{ID: "b1", Name: "Standard"}}, nil
}

type mockProfileRepo struct {
	byID map[string]*profile.Profile
}

func (m *mockProfileRepo) GetByID(_ context.Context, id string) (*profile.Profile, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, profile.ErrNotFound
	}
	return p, nil
}

func (m *mockProfileRepo) List(_ context.Context) ([]profile.Profile, error) {
	return nil, nil
}

func (m *mockProfileRepo) SetVerified(_ context.Context, _ string, _ bool) error {
	return nil
}

type mockCartStore struct {
	carts map[string]*cart.Cart
}

func (m *mockCartStore) Load(_ context.Context, sessionID string) (*cart.Cart, error) {
	if c, ok := m.carts[sessionID]; ok {
		return c, nil
	}
	return &cart.Cart{}, nil
}

func (m *mockCartStore) Save(_ context.Context, sessionID string, c *cart.Cart) error {
	m.carts[sessionID] = c
	return nil
}

func (m *mockCartStore) Clear(_ context.Context, sessionID string) error {
	delete(m.carts, sessionID)
	return nil
}

type mockOrderRepo struct {
	order.Repository
	lastOrder *order.Order
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	o.ID = "order-1"
	o.OrderNumber = "GKP-20260101-0001"
	m.lastOrder = o
	return nil
}

func (m *mockOrderRepo) ListByCustomer(_ context.Context, _ string) ([]order.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) List(_ context.Context, _ order.ListFilter) ([]order.Order, error) {
	return nil, nil
}

type mockWalletRepo struct {
	balance decimal.Decimal
}

func (m *mockWalletRepo) Balance(_ context.Context, _ string) (decimal.Decimal, error) {
	return m.balance, nil
}

func (m *mockWalletRepo) Apply(_ context.Context, tx *wallet.Transaction) error {
	m.balance = m.balance.Sub(tx.Amount)
	return nil
}

func (m *mockWalletRepo) ListTransactions(_ context.Context, _ string) ([]wallet.Transaction, error) {
	return nil, nil
}

func (m *mockWalletRepo) TotalLiability(_ context.Context) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type mockReferralRepo struct {
	referral.Repository
}

func (m *mockReferralRepo) ListByReferrer(_ context.Context, _ string) ([]referral.Referral, error) {
	return nil, nil
}

type mockAnnouncementRepo struct {
	announcement.Repository
	active []announcement.Announcement
}

func (m *mockAnnouncementRepo) ListActive(_ context.Context, _ time.Time) ([]announcement.Announcement, error) {
	return m.active, nil
}

type mockSettingsRepo struct {
	cfg settings.Settings
}

func (m *mockSettingsRepo) Load(_ context.Context) (*settings.Settings, error) {
	cfg := m.cfg
	return &cfg, nil
}

func (m *mockSettingsRepo) Save(_ context.Context, s *settings.Settings) error {
	m.cfg = *s
	return nil
}

type mockAPIKeyRepo struct {
	byHash map[string]*auth.APIKeyInfo
}

func (m *mockAPIKeyRepo) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	info, ok := m.byHash[hash]
	if !ok {
		return nil, errors.New("api key not found")
	}
	return info, nil
}

// --- Helpers ---

var testPepper = []byte("test-pepper")

const (
	adminKey  = "admin-raw-key"
	dealerKey = "dealer-raw-key"
)

type fixture struct {
	catalog  *mockCatalogRepo
	carts    *mockCartStore
	orders   *mockOrderRepo
	wallets  *mockWalletRepo
	settings *mockSettingsRepo
	api      *Server
	srv      *httptest.Server
}

func newTestProduct(id, code string, retail, wholesale int64, active bool) catalog.Product {
	return catalog.Product{
		ID:             id,
		Code:           code,
		Name:           "Product " + code,
		MRP:            decimal.NewFromInt(retail * 2),
		RetailPrice:    decimal.NewFromInt(retail),
		WholesalePrice: decimal.NewFromInt(wholesale),
		Stock:          100,
		CategoryID:     "c1",
		CategoryName:   "Sparklers",
		Active:         active,
	}
}

func newFixture(t *testing.T, products ...catalog.Product) *fixture {
	t.Helper()

	byID := make(map[string]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	f := &fixture{
		catalog:  &mockCatalogRepo{products: products, byID: byID},
		carts:    &mockCartStore{carts: make(map[string]*cart.Cart)},
		orders:   &mockOrderRepo{},
		wallets:  &mockWalletRepo{},
		settings: &mockSettingsRepo{cfg: settings.Defaults()},
	}

	profiles := &mockProfileRepo{byID: map[string]*profile.Profile{
		"u-dealer": {ID: "u-dealer", Classification: profile.Dealer, Verified: true},
	}}
	apikeys := &mockAPIKeyRepo{byHash: map[string]*auth.APIKeyInfo{
		auth.HashKey(adminKey, testPepper): {
			ID:      "key-admin",
			KeyHash: auth.HashKey(adminKey, testPepper),
			Scopes:  []string{auth.ScopeAdmin},
		},
		auth.HashKey(dealerKey, testPepper): {
			ID:      "key-dealer",
			KeyHash: auth.HashKey(dealerKey, testPepper),
			UserID:  "u-dealer",
		},
	}}

	ledger := wallet.NewLedger(f.wallets)
	orderSvc := order.NewService(f.carts, f.orders, ledger, f.settings)
	analyticsSvc := analytics.NewService(f.orders, profiles, f.catalog)

	s := NewServer(
		Config{APIKeyPepper: testPepper},
		f.catalog, profiles, f.carts, orderSvc, f.orders, ledger,
		&mockReferralRepo{}, &mockAnnouncementRepo{}, f.settings,
		analyticsSvc, apikeys, nil,
	)
	f.api = s
	f.srv = httptest.NewServer(s.Router())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, headers map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func session(id string) map[string]string {
	return map[string]string{SessionHeader: id}
}

// --- Tests ---

func TestListProducts_Pricing(t *testing.T) {
	f := newFixture(t,
		newTestProduct("p1", "SPK-7CM", 20, 12, true),
		newTestProduct("p2", "OLD-ITEM", 30, 18, false),
	)

	type productBody struct {
		Code    string          `json:"code"`
		Price   decimal.Decimal `json:"price"`
		Savings decimal.Decimal `json:"savings"`
	}

	t.Run("anonymous sees retail and no inactive products", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/api/products", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		products := decodeBody[[]productBody](t, resp)
		require.Len(t, products, 1)
		assert.Equal(t, "SPK-7CM", products[0].Code)
		assert.True(t, products[0].Price.Equal(decimal.NewFromInt(20)))
		assert.True(t, products[0].Savings.Equal(decimal.NewFromInt(20)))
	})

	t.Run("verified dealer sees wholesale", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/api/products", nil, map[string]string{
			"X-API-Key": dealerKey,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		products := decodeBody[[]productBody](t, resp)
		require.Len(t, products, 1)
		assert.True(t, products[0].Price.Equal(decimal.NewFromInt(12)))
	})

	t.Run("invalid key is rejected", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/api/products", nil, map[string]string{
			"X-API-Key": "bogus",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestCartEndpoints(t *testing.T) {
	f := newFixture(t, newTestProduct("p1", "SPK-7CM", 20, 12, true))

	type cartBody struct {
		Items       []cart.LineItem `json:"items"`
		TotalItems  int             `json:"total_items"`
		TotalAmount decimal.Decimal `json:"total_amount"`
	}

	t.Run("missing session header", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/api/cart", nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("add accumulates quantity", func(t *testing.T) {
		body := map[string]any{"product_id": "p1", "quantity": 2}
		resp := f.do(t, http.MethodPost, "/api/cart/items", body, session("s1"))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = f.do(t, http.MethodPost, "/api/cart/items", body, session("s1"))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		c := decodeBody[cartBody](t, resp)
		require.Len(t, c.Items, 1)
		assert.Equal(t, 4, c.TotalItems)
		assert.True(t, c.TotalAmount.Equal(decimal.NewFromInt(80)))
	})

	t.Run("unknown product", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/api/cart/items",
			map[string]any{"product_id": "missing", "quantity": 1}, session("s2"))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("dealer price is frozen on the line", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/api/cart/items",
			map[string]any{"product_id": "p1", "quantity": 1},
			map[string]string{SessionHeader: "s3", "X-API-Key": dealerKey})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		c := decodeBody[cartBody](t, resp)
		require.Len(t, c.Items, 1)
		assert.True(t, c.Items[0].UnitPrice.Equal(decimal.NewFromInt(12)))
	})

	t.Run("update sets quantity and zero removes", func(t *testing.T) {
		f.do(t, http.MethodPost, "/api/cart/items",
			map[string]any{"product_id": "p1", "quantity": 5}, session("s4"))

		resp := f.do(t, http.MethodPatch, "/api/cart/items/p1",
			map[string]any{"quantity": 2}, session("s4"))
		c := decodeBody[cartBody](t, resp)
		require.Len(t, c.Items, 1)
		assert.Equal(t, 2, c.Items[0].Quantity)

		resp = f.do(t, http.MethodPatch, "/api/cart/items/p1",
			map[string]any{"quantity": 0}, session("s4"))
		c = decodeBody[cartBody](t, resp)
		assert.Empty(t, c.Items)
	})
}

func TestPlaceOrder_ErrorMapping(t *testing.T) {
	customer := map[string]any{
		"name":    "Asha",
		"phone":   "+91 90000 00000",
		"address": "1 Market Road",
	}

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t)
		resp := f.do(t, http.MethodPost, "/api/orders", customer, session("s1"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing field", func(t *testing.T) {
		f := newFixture(t, newTestProduct("p1", "GIFT-25", 1000, 800, true))
		f.do(t, http.MethodPost, "/api/cart/items",
			map[string]any{"product_id": "p1", "quantity": 1}, session("s1"))

		resp := f.do(t, http.MethodPost, "/api/orders",
			map[string]any{"name": "Asha", "address": "x"}, session("s1"))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody[errorBody](t, resp)
		assert.Equal(t, "phone", body.Field)
	})

	t.Run("below minimum order value", func(t *testing.T) {
		f := newFixture(t, newTestProduct("p1", "SPK-7CM", 20, 12, true))
		f.do(t, http.MethodPost, "/api/cart/items",
			map[string]any{"product_id": "p1", "quantity": 1}, session("s1"))

		resp := f.do(t, http.MethodPost, "/api/orders", customer, session("s1"))
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		body := decodeBody[map[string]json.RawMessage](t, resp)
		assert.Contains(t, body, "threshold")
		assert.Contains(t, body, "shortfall")
	})

	t.Run("success clears cart", func(t *testing.T) {
		f := newFixture(t, newTestProduct("p1", "GIFT-25", 1000, 800, true))
		f.do(t, http.MethodPost, "/api/cart/items",
			map[string]any{"product_id": "p1", "quantity": 1}, session("s1"))

		resp := f.do(t, http.MethodPost, "/api/orders", customer, session("s1"))
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody[struct {
			Order struct {
				OrderNumber string `json:"order_number"`
				Status      string `json:"status"`
			} `json:"order"`
		}](t, resp)
		assert.Equal(t, "GKP-20260101-0001", body.Order.OrderNumber)
		assert.Equal(t, "pending", body.Order.Status)
		assert.Empty(t, f.carts.carts["s1"])
	})
}

func TestEstimateOrder_DoesNotPersist(t *testing.T) {
	f := newFixture(t, newTestProduct("p1", "GIFT-25", 1000, 800, true))
	f.do(t, http.MethodPost, "/api/cart/items",
		map[string]any{"product_id": "p1", "quantity": 1}, session("s1"))

	resp := f.do(t, http.MethodPost, "/api/orders/estimate", map[string]any{
		"name": "Asha", "phone": "1", "address": "x",
	}, session("s1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[struct {
		WhatsAppURL string `json:"whatsapp_url"`
		Message     string `json:"message"`
	}](t, resp)
	assert.Contains(t, body.WhatsAppURL, "https://wa.me/")
	assert.Contains(t, body.Message, "Asha")

	assert.Nil(t, f.orders.lastOrder)
	assert.NotEmpty(t, f.carts.carts["s1"].Items, "estimate must not clear the cart")
}

func TestAdminAuth(t *testing.T) {
	f := newFixture(t)

	t.Run("missing key", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/api/admin/orders", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("key without admin scope", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/api/admin/orders", nil, map[string]string{
			"X-API-Key": dealerKey,
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin key via bearer token", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/api/admin/orders", nil, map[string]string{
			"Authorization": "Bearer " + adminKey,
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestMaintenanceGate(t *testing.T) {
	f := newFixture(t, newTestProduct("p1", "SPK-7CM", 20, 12, true))
	f.settings.cfg.MaintenanceMode = true

	resp := f.do(t, http.MethodGet, "/api/products", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	// The admin surface stays reachable so the switch can be flipped back.
	resp = f.do(t, http.MethodGet, "/api/admin/settings", nil, map[string]string{
		"X-API-Key": adminKey,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPublicSettings_OmitsAdminFields(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/api/settings", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]json.RawMessage](t, resp)
	assert.Contains(t, body, "store_name")
	assert.Contains(t, body, "min_order_value")
	assert.NotContains(t, body, "maintenance_mode")
	assert.NotContains(t, body, "referral_bonus")
}

func TestListMyOrders_RequiresProfileKey(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/api/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/orders", nil, map[string]string{
		"X-API-Key": dealerKey,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouteFinder_ResolvesPatternsOutsideMux(t *testing.T) {
	f := newFixture(t)
	find := f.api.RouteFinder()

	cases := []struct {
		method  string
		path    string
		pattern string
	}{
		{http.MethodGet, "/api/products", "/api/products"},
		{http.MethodPatch, "/api/cart/items/p1", "/api/cart/items/{productID}"},
		{http.MethodGet, "/api/admin/products", "/api/admin/products"},
		{http.MethodPatch, "/api/admin/orders/abc/status", "/api/admin/orders/{id}/status"},
	}
	for _, tc := range cases {
		// Bare requests: the finder must not depend on routing context
		// injected while serving.
		r := httptest.NewRequest(tc.method, tc.path, nil)
		pattern, ok := find(r)
		require.True(t, ok, "%s %s", tc.method, tc.path)
		assert.Equal(t, tc.pattern, pattern)
	}

	_, ok := find(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.False(t, ok)
}
