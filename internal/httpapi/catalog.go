package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gkpcrackers/storefront/internal/domain/announcement"
	"github.com/gkpcrackers/storefront/internal/domain/catalog"
	"github.com/gkpcrackers/storefront/internal/domain/pricing"
)

// productResponse is the storefront view of a product: a single resolved
// price for the caller's classification, plus the MRP for savings display.
// The wholesale price is never exposed here.
type productResponse struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	ImageURL     string          `json:"image_url,omitempty"`
	MRP          decimal.Decimal `json:"mrp"`
	Price        decimal.Decimal `json:"price"`
	Savings      decimal.Decimal `json:"savings"`
	Stock        int             `json:"stock"`
	CategoryID   string          `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	BrandID      string          `json:"brand_id,omitempty"`
	BrandName    string          `json:"brand_name,omitempty"`
}

func (s *Server) toProductResponse(p catalog.Product, r *http.Request) productResponse {
	price := pricing.ForProfile(p, callerProfile(r.Context()))
	return productResponse{
		ID:           p.ID,
		Code:         p.Code,
		Name:         p.Name,
		ImageURL:     s.imageURL(p.ImageURL),
		MRP:          p.MRP,
		Price:        price,
		Savings:      p.MRP.Sub(price),
		Stock:        p.Stock,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		BrandID:      p.BrandID,
		BrandName:    p.BrandName,
	}
}

// imageURL prepends the configured base URL to relative image paths.
func (s *Server) imageURL(path string) string {
	if path == "" || s.cfg.ImageBaseURL == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimSuffix(s.cfg.ImageBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	filter := catalog.ProductFilter{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
	}
	products, err := s.products.List(r.Context(), filter)
	if err != nil {
		zctx.From(r.Context()).Error("Listing products", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = s.toProductResponse(p, r)
	}
	respondJSON(w, r, http.StatusOK, out)
}

type namedResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.products.ListCategories(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("Listing categories", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	out := make([]namedResponse, len(categories))
	for i, c := range categories {
		out[i] = namedResponse{ID: c.ID, Name: c.Name}
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (s *Server) listBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := s.products.ListBrands(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("Listing brands", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	out := make([]namedResponse, len(brands))
	for i, b := range brands {
		out[i] = namedResponse{ID: b.ID, Name: b.Name}
	}
	respondJSON(w, r, http.StatusOK, out)
}

type announcementResponse struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Body     string     `json:"body,omitempty"`
	Active   bool       `json:"active"`
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

func toAnnouncementResponse(a announcement.Announcement) announcementResponse {
	return announcementResponse{
		ID:       a.ID,
		Title:    a.Title,
		Body:     a.Body,
		Active:   a.Active,
		StartsAt: a.StartsAt,
		EndsAt:   a.EndsAt,
	}
}

func (s *Server) listAnnouncements(w http.ResponseWriter, r *http.Request) {
	active, err := s.announcements.ListActive(r.Context(), time.Now())
	if err != nil {
		zctx.From(r.Context()).Error("Listing announcements", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	out := make([]announcementResponse, len(active))
	for i, a := range active {
		out[i] = toAnnouncementResponse(a)
	}
	respondJSON(w, r, http.StatusOK, out)
}

// publicSettings exposes the subset of settings the storefront needs to
// render: store identity, order floors, and feature toggles. Referral
// bonus amounts and maintenance state stay admin-only.
func (s *Server) publicSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.settings.Load(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("Loading settings", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"store_name":             cfg.StoreName,
		"store_tagline":          cfg.StoreTagline,
		"store_phone":            cfg.StorePhone,
		"store_whatsapp":         cfg.StoreWhatsApp,
		"store_address":          cfg.StoreAddress,
		"store_timings":          cfg.StoreTimings,
		"min_order_value":        cfg.MinOrderValue,
		"min_order_value_dealer": cfg.MinOrderValueDealer,
		"delivery_charge":        cfg.DeliveryCharge,
		"free_delivery_above":    cfg.FreeDeliveryAbove,
		"enable_referrals":       cfg.EnableReferrals,
		"enable_wallet":          cfg.EnableWallet,
	})
}
