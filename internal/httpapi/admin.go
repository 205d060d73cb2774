package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gkpcrackers/storefront/internal/domain/analytics"
	"github.com/gkpcrackers/storefront/internal/domain/announcement"
	"github.com/gkpcrackers/storefront/internal/domain/catalog"
	"github.com/gkpcrackers/storefront/internal/domain/order"
	"github.com/gkpcrackers/storefront/internal/domain/profile"
	"github.com/gkpcrackers/storefront/internal/domain/referral"
	"github.com/gkpcrackers/storefront/internal/domain/settings"
	"github.com/gkpcrackers/storefront/internal/domain/wallet"
)

// internalError logs err and writes the opaque 500 body.
func internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	zctx.From(r.Context()).Error(msg, zap.Error(err))
	respondError(w, r, http.StatusInternalServerError, "internal server error")
}

// adminProduct is the back-office product payload: both price points are
// visible and editable here, unlike the storefront view.
type adminProduct struct {
	ID             string          `json:"id,omitempty"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	ImageURL       string          `json:"image_url,omitempty"`
	MRP            decimal.Decimal `json:"mrp"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	Stock          int             `json:"stock"`
	CategoryID     string          `json:"category_id,omitempty"`
	CategoryName   string          `json:"category_name,omitempty"`
	BrandID        string          `json:"brand_id,omitempty"`
	BrandName      string          `json:"brand_name,omitempty"`
	Active         bool            `json:"active"`
}

func toAdminProduct(p catalog.Product) adminProduct {
	return adminProduct{
		ID:             p.ID,
		Code:           p.Code,
		Name:           p.Name,
		ImageURL:       p.ImageURL,
		MRP:            p.MRP,
		RetailPrice:    p.RetailPrice,
		WholesalePrice: p.WholesalePrice,
		Stock:          p.Stock,
		CategoryID:     p.CategoryID,
		CategoryName:   p.CategoryName,
		BrandID:        p.BrandID,
		BrandName:      p.BrandName,
		Active:         p.Active,
	}
}

func (ap adminProduct) toDomain() catalog.Product {
	return catalog.Product{
		ID:             ap.ID,
		Code:           ap.Code,
		Name:           ap.Name,
		ImageURL:       ap.ImageURL,
		MRP:            ap.MRP,
		RetailPrice:    ap.RetailPrice,
		WholesalePrice: ap.WholesalePrice,
		Stock:          ap.Stock,
		CategoryID:     ap.CategoryID,
		BrandID:        ap.BrandID,
		Active:         ap.Active,
	}
}

func validateAdminProduct(ap adminProduct) *errorBody {
	switch {
	case ap.Code == "":
		return &errorBody{Error: "code is required", Field: "code"}
	case ap.Name == "":
		return &errorBody{Error: "name is required", Field: "name"}
	case ap.MRP.IsNegative(), ap.RetailPrice.IsNegative(), ap.WholesalePrice.IsNegative():
		return &errorBody{Error: "prices must not be negative"}
	case ap.Stock < 0:
		return &errorBody{Error: "stock must not be negative", Field: "stock"}
	}
	return nil
}

func (s *Server) adminListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.List(r.Context(), catalog.ProductFilter{
		Search:          r.URL.Query().Get("search"),
		Category:        r.URL.Query().Get("category"),
		IncludeInactive: true,
	})
	if err != nil {
		internalError(w, r, "Listing products", err)
		return
	}
	out := make([]adminProduct, len(products))
	for i, p := range products {
		out[i] = toAdminProduct(p)
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (s *Server) adminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req adminProduct
	if err := decode(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if bad := validateAdminProduct(req); bad != nil {
		respondJSON(w, r, http.StatusBadRequest, bad)
		return
	}
	p := req.toDomain()
	p.Active = true
	if err := s.products.Create(r.Context(), &p); err != nil {
		internalError(w, r, "Creating product", err)
		return
	}
	respondJSON(w, r, http.StatusCreated, toAdminProduct(p))
}

func (s *Server) adminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req adminProduct
	if err := decode(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if bad := validateAdminProduct(req); bad != nil {
		respondJSON(w, r, http.StatusBadRequest, bad)
		return
	}
	p := req.toDomain()
	p.ID = chi.URLParam(r, "id")
	if err := s.products.Update(r.Context(), &p); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, r, http.StatusNotFound, "product not found")
			return
		}
		internalError(w, r, "Updating product", err)
		return
	}
	respondJSON(w, r, http.StatusOK, toAdminProduct(p))
}

func (s *Server) adminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, r, http.StatusNotFound, "product not found")
			return
		}
		internalError(w, r, "Deleting product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type namedRequest struct {
	Name string `json:"name"`
}

func (s *Server) adminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req namedRequest
	if err := decode(r, &req); err != nil || req.Name == "" {
		respondError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	c := catalog.Category{Name: req.Name}
	if err := s.products.CreateCategory(r.Context(), &c); err != nil {
		internalError(w, r, "Creating category", err)
		return
	}
	respondJSON(w, r, http.StatusCreated, namedResponse{ID: c.ID, Name: c.Name})
}

func (s *Server) adminUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req namedRequest
	if err := decode(r, &req); err != nil || req.Name == "" {
		respondError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	c := catalog.Category{ID: chi.URLParam(r, "id"), Name: req.Name}
	if err := s.products.UpdateCategory(r.Context(), &c); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			respondError(w, r, http.StatusNotFound, "category not found")
			return
		}
		internalError(w, r, "Updating category", err)
		return
	}
	respondJSON(w, r, http.StatusOK, namedResponse{ID: c.ID, Name: c.Name})
}

func (s *Server) adminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.products.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			respondError(w, r, http.StatusNotFound, "category not found")
			return
		}
		internalError(w, r, "Deleting category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminCreateBrand(w http.ResponseWriter, r *http.Request) {
	var req namedRequest
	if err := decode(r, &req); err != nil || req.Name == "" {
		respondError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	b := catalog.Brand{Name: req.Name}
	if err := s.products.CreateBrand(r.Context(), &b); err != nil {
		internalError(w, r, "Creating brand", err)
		return
	}
	respondJSON(w, r, http.StatusCreated, namedResponse{ID: b.ID, Name: b.Name})
}

func (s *Server) adminUpdateBrand(w http.ResponseWriter, r *http.Request) {
	var req namedRequest
	if err := decode(r, &req); err != nil || req.Name == "" {
		respondError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	b := catalog.Brand{ID: chi.URLParam(r, "id"), Name: req.Name}
	if err := s.products.UpdateBrand(r.Context(), &b); err != nil {
		if errors.Is(err, catalog.ErrBrandNotFound) {
			respondError(w, r, http.StatusNotFound, "brand not found")
			return
		}
		internalError(w, r, "Updating brand", err)
		return
	}
	respondJSON(w, r, http.StatusOK, namedResponse{ID: b.ID, Name: b.Name})
}

func (s *Server) adminDeleteBrand(w http.ResponseWriter, r *http.Request) {
	if err := s.products.DeleteBrand(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrBrandNotFound) {
			respondError(w, r, http.StatusNotFound, "brand not found")
			return
		}
		internalError(w, r, "Deleting brand", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type announcementRequest struct {
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	Active   bool       `json:"active"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

func (s *Server) adminListAnnouncements(w http.ResponseWriter, r *http.Request) {
	all, err := s.announcements.List(r.Context())
	if err != nil {
		internalError(w, r, "Listing announcements", err)
		return
	}
	out := make([]announcementResponse, len(all))
	for i, a := range all {
		out[i] = toAnnouncementResponse(a)
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (s *Server) adminCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req announcementRequest
	if err := decode(r, &req); err != nil || req.Title == "" {
		respondError(w, r, http.StatusBadRequest, "title is required")
		return
	}
	a := announcement.Announcement{
		Title:    req.Title,
		Body:     req.Body,
		Active:   req.Active,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	}
	if err := s.announcements.Create(r.Context(), &a); err != nil {
		internalError(w, r, "Creating announcement", err)
		return
	}
	respondJSON(w, r, http.StatusCreated, toAnnouncementResponse(a))
}

func (s *Server) adminUpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req announcementRequest
	if err := decode(r, &req); err != nil || req.Title == "" {
		respondError(w, r, http.StatusBadRequest, "title is required")
		return
	}
	a := announcement.Announcement{
		ID:       chi.URLParam(r, "id"),
		Title:    req.Title,
		Body:     req.Body,
		Active:   req.Active,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	}
	if err := s.announcements.Update(r.Context(), &a); err != nil {
		if errors.Is(err, announcement.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "announcement not found")
			return
		}
		internalError(w, r, "Updating announcement", err)
		return
	}
	respondJSON(w, r, http.StatusOK, toAnnouncementResponse(a))
}

func (s *Server) adminDeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	if err := s.announcements.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, announcement.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "announcement not found")
			return
		}
		internalError(w, r, "Deleting announcement", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.settings.Load(r.Context())
	if err != nil {
		internalError(w, r, "Loading settings", err)
		return
	}
	respondJSON(w, r, http.StatusOK, cfg)
}

// adminPutSettings replaces the whole settings bag after validating every
// field. Partial updates are a client concern: read, merge, put.
func (s *Server) adminPutSettings(w http.ResponseWriter, r *http.Request) {
	cfg := settings.Defaults()
	if err := decode(r, &cfg); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := cfg.Validate(); err != nil {
		var fieldErr *settings.FieldError
		if errors.As(err, &fieldErr) {
			respondJSON(w, r, http.StatusBadRequest, errorBody{Error: fieldErr.Error(), Field: fieldErr.Field})
			return
		}
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.settings.Save(r.Context(), &cfg); err != nil {
		internalError(w, r, "Saving settings", err)
		return
	}
	respondJSON(w, r, http.StatusOK, cfg)
}

func (s *Server) adminListOrders(w http.ResponseWriter, r *http.Request) {
	filter := order.ListFilter{}
	if st := r.URL.Query().Get("status"); st != "" {
		status := order.Status(st)
		if !status.Valid() {
			respondError(w, r, http.StatusBadRequest, "unknown status "+st)
			return
		}
		filter.Status = status
	}
	orders, err := s.orderRepo.List(r.Context(), filter)
	if err != nil {
		internalError(w, r, "Listing orders", err)
		return
	}
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (s *Server) adminGetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, err := s.orderRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "order not found")
			return
		}
		internalError(w, r, "Getting order", err)
		return
	}
	items, err := s.orderRepo.ListItems(r.Context(), id)
	if err != nil {
		internalError(w, r, "Listing order items", err)
		return
	}
	o.Items = items
	respondJSON(w, r, http.StatusOK, toOrderResponse(o))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) adminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), order.Status(req.Status))
	if err != nil {
		var transErr *order.InvalidTransitionError
		switch {
		case errors.Is(err, order.ErrNotFound):
			respondError(w, r, http.StatusNotFound, "order not found")
		case errors.As(err, &transErr):
			respondError(w, r, http.StatusUnprocessableEntity, transErr.Error())
		default:
			internalError(w, r, "Updating order status", err)
		}
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": req.Status})
}

type walletAdjustRequest struct {
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
}

// adminWalletAdjust credits or debits a customer's wallet with a ledger
// entry. Overdrawing debits are rejected by the ledger.
func (s *Server) adminWalletAdjust(w http.ResponseWriter, r *http.Request) {
	var req walletAdjustRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		respondError(w, r, http.StatusBadRequest, "user_id is required")
		return
	}
	typ := wallet.TransactionType(req.Type)
	if typ != wallet.Credit && typ != wallet.Debit {
		respondError(w, r, http.StatusBadRequest, "type must be credit or debit")
		return
	}

	err := s.ledger.AdminAdjust(r.Context(), req.UserID, req.Amount, typ, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrNonPositiveAmount):
			respondError(w, r, http.StatusBadRequest, "amount must be positive")
		case errors.Is(err, wallet.ErrInsufficientBalance):
			respondError(w, r, http.StatusUnprocessableEntity, "insufficient wallet balance")
		default:
			internalError(w, r, "Adjusting wallet", err)
		}
		return
	}

	balance, err := s.ledger.Balance(r.Context(), req.UserID)
	if err != nil {
		internalError(w, r, "Reading wallet balance", err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

type adminReferralResponse struct {
	referralResponse
	ReferrerID string `json:"referrer_id"`
	ReferredID string `json:"referred_id"`
}

func (s *Server) adminListReferrals(w http.ResponseWriter, r *http.Request) {
	records, err := s.referrals.List(r.Context())
	if err != nil {
		internalError(w, r, "Listing referrals", err)
		return
	}
	out := make([]adminReferralResponse, len(records))
	for i, rec := range records {
		out[i] = adminReferralResponse{
			referralResponse: toReferralResponse(rec),
			ReferrerID:       rec.ReferrerID,
			ReferredID:       rec.ReferredID,
		}
	}
	respondJSON(w, r, http.StatusOK, out)
}

// adminClaimReferral releases the configured bonuses into both wallets.
// The bonus amounts are read from settings at claim time, not at signup.
func (s *Server) adminClaimReferral(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.settings.Load(r.Context())
	if err != nil {
		internalError(w, r, "Loading settings", err)
		return
	}
	err = s.referrals.Claim(r.Context(), chi.URLParam(r, "id"), cfg.ReferralBonus, cfg.ReferralBonusReferred)
	if err != nil {
		switch {
		case errors.Is(err, referral.ErrNotFound):
			respondError(w, r, http.StatusNotFound, "referral not found")
		case errors.Is(err, referral.ErrAlreadyClaimed):
			respondError(w, r, http.StatusConflict, "referral already claimed")
		default:
			internalError(w, r, "Claiming referral", err)
		}
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]bool{"claimed": true})
}

func (s *Server) adminAnalytics(w http.ResponseWriter, r *http.Request) {
	period := analytics.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = analytics.PeriodAll
	}
	if !period.Valid() {
		respondError(w, r, http.StatusBadRequest, "period must be week, month, or all")
		return
	}
	report, err := s.analytics.Report(r.Context(), period)
	if err != nil {
		internalError(w, r, "Building analytics report", err)
		return
	}
	respondJSON(w, r, http.StatusOK, report)
}

type customerResponse struct {
	ID             string          `json:"id"`
	FullName       string          `json:"full_name"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email,omitempty"`
	Address        string          `json:"address,omitempty"`
	Classification string          `json:"classification"`
	BusinessName   string          `json:"business_name,omitempty"`
	GSTNumber      string          `json:"gst_number,omitempty"`
	Verified       bool            `json:"verified"`
	ReferralCode   string          `json:"referral_code"`
	WalletBalance  decimal.Decimal `json:"wallet_balance"`
}

func (s *Server) adminListCustomers(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.profiles.List(r.Context())
	if err != nil {
		internalError(w, r, "Listing customers", err)
		return
	}
	out := make([]customerResponse, len(profiles))
	for i, p := range profiles {
		out[i] = customerResponse{
			ID:             p.ID,
			FullName:       p.FullName,
			Phone:          p.Phone,
			Email:          p.Email,
			Address:        p.Address,
			Classification: string(p.Classification),
			BusinessName:   p.BusinessName,
			GSTNumber:      p.GSTNumber,
			Verified:       p.Verified,
			ReferralCode:   p.ReferralCode,
			WalletBalance:  p.WalletBalance,
		}
	}
	respondJSON(w, r, http.StatusOK, out)
}

type verifyRequest struct {
	Verified bool `json:"verified"`
}

// adminVerifyCustomer flips dealer verification. Until verified, a dealer
// profile prices as retail.
func (s *Server) adminVerifyCustomer(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.profiles.SetVerified(r.Context(), chi.URLParam(r, "id"), req.Verified)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "customer not found")
			return
		}
		internalError(w, r, "Verifying customer", err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]bool{"verified": req.Verified})
}
