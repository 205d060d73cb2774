// Package httpapi exposes the storefront and admin REST surface. Routing is
// chi based; handlers delegate business decisions to the domain services and
// translate domain errors into HTTP responses.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

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
	"github.com/gkpcrackers/storefront/pkg/httpmiddleware"
)

// SessionHeader identifies the shopper's cart across requests. The client
// generates an opaque value once and sends it on every cart and order call.
const SessionHeader = "X-Session-ID"

// Config holds non-dependency configuration for the API server.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product
	// responses. When empty, paths are returned as stored.
	ImageBaseURL string
	// APIKeyPepper is the HMAC pepper for API key hashing.
	APIKeyPepper []byte
}

// Server bundles the HTTP handlers with their domain dependencies.
type Server struct {
	cfg     Config
	metrics *Metrics
	router  *chi.Mux

	products      catalog.Repository
	profiles      profile.Repository
	carts         cart.Store
	orders        *order.Service
	orderRepo     order.Repository
	ledger        *wallet.Ledger
	referrals     referral.Repository
	announcements announcement.Repository
	settings      settings.Repository
	analytics     *analytics.Service
	apikeys       auth.Repository
}

// NewServer constructs a Server with the required domain dependencies.
func NewServer(
	cfg Config,
	products catalog.Repository,
	profiles profile.Repository,
	carts cart.Store,
	orders *order.Service,
	orderRepo order.Repository,
	ledger *wallet.Ledger,
	referrals referral.Repository,
	announcements announcement.Repository,
	cfgRepo settings.Repository,
	analyticsSvc *analytics.Service,
	apikeys auth.Repository,
	metrics *Metrics,
) *Server {
	return &Server{
		cfg:           cfg,
		metrics:       metrics,
		products:      products,
		profiles:      profiles,
		carts:         carts,
		orders:        orders,
		orderRepo:     orderRepo,
		ledger:        ledger,
		referrals:     referrals,
		announcements: announcements,
		settings:      cfgRepo,
		analytics:     analyticsSvc,
		apikeys:       apikeys,
	}
}

// Router builds the full route tree under /api. The tree is built once and
// reused; call it before serving.
func (s *Server) Router() chi.Router {
	if s.router != nil {
		return s.router
	}
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		// Storefront surface. Keys are optional here: a profile-bound key
		// identifies the caller for pricing and wallet routes.
		r.Group(func(r chi.Router) {
			r.Use(s.withCaller)
			r.Use(s.maintenanceGate)

			r.Get("/products", s.listProducts)
			r.Get("/categories", s.listCategories)
			r.Get("/brands", s.listBrands)
			r.Get("/announcements", s.listAnnouncements)
			r.Get("/settings", s.publicSettings)

			r.Get("/cart", s.getCart)
			r.Post("/cart/items", s.addCartItem)
			r.Patch("/cart/items/{productID}", s.updateCartItem)
			r.Delete("/cart/items/{productID}", s.removeCartItem)
			r.Delete("/cart", s.clearCart)

			r.Post("/orders", s.placeOrder)
			r.Post("/orders/estimate", s.estimateOrder)
			r.Get("/orders", s.listMyOrders)

			r.Get("/wallet", s.walletBalance)
			r.Get("/wallet/transactions", s.walletTransactions)
			r.Get("/referrals", s.myReferrals)
		})

		// Back office. Every route requires a key with the admin scope.
		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Get("/products", s.adminListProducts)
			r.Post("/products", s.adminCreateProduct)
			r.Put("/products/{id}", s.adminUpdateProduct)
			r.Delete("/products/{id}", s.adminDeleteProduct)

			r.Post("/categories", s.adminCreateCategory)
			r.Put("/categories/{id}", s.adminUpdateCategory)
			r.Delete("/categories/{id}", s.adminDeleteCategory)

			r.Post("/brands", s.adminCreateBrand)
			r.Put("/brands/{id}", s.adminUpdateBrand)
			r.Delete("/brands/{id}", s.adminDeleteBrand)

			r.Get("/announcements", s.adminListAnnouncements)
			r.Post("/announcements", s.adminCreateAnnouncement)
			r.Put("/announcements/{id}", s.adminUpdateAnnouncement)
			r.Delete("/announcements/{id}", s.adminDeleteAnnouncement)

			r.Get("/settings", s.adminGetSettings)
			r.Put("/settings", s.adminPutSettings)

			r.Get("/orders", s.adminListOrders)
			r.Get("/orders/{id}", s.adminGetOrder)
			r.Patch("/orders/{id}/status", s.adminUpdateOrderStatus)

			r.Post("/wallet/transactions", s.adminWalletAdjust)

			r.Get("/referrals", s.adminListReferrals)
			r.Post("/referrals/{id}/claim", s.adminClaimReferral)

			r.Get("/analytics", s.adminAnalytics)

			r.Get("/customers", s.adminListCustomers)
			r.Patch("/customers/{id}/verify", s.adminVerifyCustomer)
		})
	})

	s.router = r
	return r
}

// RouteFinder resolves requests to their chi route pattern for logging and
// instrumentation. Matching runs against the route tree without serving the
// request, so it works from middleware outside the mux.
func (s *Server) RouteFinder() httpmiddleware.RouteFinder {
	s.Router()
	return func(r *http.Request) (string, bool) {
		rctx := chi.NewRouteContext()
		if s.router.Match(rctx, r.Method, r.URL.Path) {
			return rctx.RoutePattern(), true
		}
		return "", false
	}
}

// respondJSON writes v as the JSON response body.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Warn("Encoding response", zap.Error(err))
	}
}

// errorBody is the uniform error envelope.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respondJSON(w, r, status, errorBody{Error: msg})
}

// decode reads the request body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// sessionID extracts the cart session header; empty means the caller did
// not establish a session.
func sessionID(r *http.Request) string {
	return r.Header.Get(SessionHeader)
}
