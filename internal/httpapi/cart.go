package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gkpcrackers/storefront/internal/domain/cart"
	"github.com/gkpcrackers/storefront/internal/domain/catalog"
	"github.com/gkpcrackers/storefront/internal/domain/pricing"
)

// cartResponse is the cart plus its derived totals, computed on read.
type cartResponse struct {
	Items        []cart.LineItem `json:"items"`
	TotalItems   int             `json:"total_items"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TotalMRP     decimal.Decimal `json:"total_mrp"`
	TotalSavings decimal.Decimal `json:"total_savings"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	items := c.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	return cartResponse{
		Items:        items,
		TotalItems:   c.TotalItems(),
		TotalAmount:  c.TotalAmount(),
		TotalMRP:     c.TotalMRP(),
		TotalSavings: c.TotalSavings(),
	}
}

// requireSession extracts the session header or fails the request.
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid := sessionID(r)
	if sid == "" {
		respondError(w, r, http.StatusBadRequest, SessionHeader+" header is required")
		return "", false
	}
	return sid, true
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	c, err := s.carts.Load(r.Context(), sid)
	if err != nil {
		zctx.From(r.Context()).Error("Loading cart", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResponse(c))
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// addCartItem resolves the product's price for the caller's classification
// and freezes it on the new line. Quantities accumulate across repeated
// adds of the same product.
func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	var req addCartItemRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		respondError(w, r, http.StatusBadRequest, "product_id is required")
		return
	}

	p, err := s.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, r, http.StatusNotFound, "product not found")
			return
		}
		zctx.From(r.Context()).Error("Getting product", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	if !p.Active {
		respondError(w, r, http.StatusNotFound, "product not found")
		return
	}

	c, err := s.carts.Load(r.Context(), sid)
	if err != nil {
		zctx.From(r.Context()).Error("Loading cart", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	c.AddItem(cart.LineItem{
		ProductID:   p.ID,
		ProductCode: p.Code,
		Name:        p.Name,
		ImageURL:    s.imageURL(p.ImageURL),
		UnitPrice:   pricing.ForProfile(*p, callerProfile(r.Context())),
		MRP:         p.MRP,
	}, req.Quantity)

	if err := s.carts.Save(r.Context(), sid, c); err != nil {
		zctx.From(r.Context()).Error("Saving cart", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.metrics.cartMutated(r.Context(), "add")
	respondJSON(w, r, http.StatusOK, toCartResponse(c))
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// updateCartItem sets the line quantity; zero or negative removes the line.
func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	var req updateCartItemRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := s.carts.Load(r.Context(), sid)
	if err != nil {
		zctx.From(r.Context()).Error("Loading cart", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	c.UpdateQuantity(chi.URLParam(r, "productID"), req.Quantity)

	if err := s.carts.Save(r.Context(), sid, c); err != nil {
		zctx.From(r.Context()).Error("Saving cart", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.metrics.cartMutated(r.Context(), "update")
	respondJSON(w, r, http.StatusOK, toCartResponse(c))
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	c, err := s.carts.Load(r.Context(), sid)
	if err != nil {
		zctx.From(r.Context()).Error("Loading cart", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	c.RemoveItem(chi.URLParam(r, "productID"))

	if err := s.carts.Save(r.Context(), sid, c); err != nil {
		zctx.From(r.Context()).Error("Saving cart", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.metrics.cartMutated(r.Context(), "remove")
	respondJSON(w, r, http.StatusOK, toCartResponse(c))
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.carts.Clear(r.Context(), sid); err != nil {
		zctx.From(r.Context()).Error("Clearing cart", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.metrics.cartMutated(r.Context(), "clear")
	respondJSON(w, r, http.StatusOK, toCartResponse(&cart.Cart{}))
}
