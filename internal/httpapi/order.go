package httpapi

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gkpcrackers/storefront/internal/domain/order"
)

type placeOrderRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Notes     string `json:"notes"`
	UseWallet bool   `json:"use_wallet"`
}

type orderItemResponse struct {
	ProductName string          `json:"product_name"`
	ProductCode string          `json:"product_code"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	MRP         decimal.Decimal `json:"mrp"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type orderResponse struct {
	ID             string                `json:"id"`
	OrderNumber    string                `json:"order_number"`
	Customer       order.CustomerDetails `json:"customer"`
	TotalItems     int                   `json:"total_items"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	WalletDiscount decimal.Decimal       `json:"wallet_discount"`
	FinalAmount    decimal.Decimal       `json:"final_amount"`
	Classification string                `json:"classification"`
	Status         string                `json:"status"`
	CreatedAt      string                `json:"created_at"`
	Items          []orderItemResponse   `json:"items,omitempty"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductName: it.ProductName,
			ProductCode: it.ProductCode,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			MRP:         it.MRP,
			LineTotal:   it.LineTotal,
		}
	}
	return orderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		Customer:       o.Customer,
		TotalItems:     o.TotalItems,
		Subtotal:       o.Subtotal,
		WalletDiscount: o.WalletDiscount,
		FinalAmount:    o.FinalAmount,
		Classification: string(o.Classification),
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Items:          items,
	}
}

// writeOrderError maps the composition error taxonomy onto HTTP statuses.
func writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr   *order.ValidationError
		minErr *order.MinimumOrderNotMetError
		pErr   *order.PersistenceError
	)
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		respondError(w, r, http.StatusBadRequest, "cart is empty")
	case errors.As(err, &vErr):
		respondJSON(w, r, http.StatusBadRequest, errorBody{Error: vErr.Error(), Field: vErr.Field})
	case errors.As(err, &minErr):
		respondJSON(w, r, http.StatusUnprocessableEntity, map[string]any{
			"error":     minErr.Error(),
			"threshold": minErr.Threshold,
			"subtotal":  minErr.Subtotal,
			"shortfall": minErr.Shortfall,
		})
	case errors.As(err, &pErr):
		zctx.From(r.Context()).Error("Persisting order", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "could not save order, please retry")
	case errors.Is(err, order.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "order not found")
	default:
		zctx.From(r.Context()).Error("Composing order", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	var req placeOrderRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		SessionID: sid,
		Customer: order.CustomerDetails{
			Name:    req.Name,
			Phone:   req.Phone,
			Address: req.Address,
			Notes:   req.Notes,
		},
		UseWallet: req.UseWallet,
	}, callerProfile(r.Context()))
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	s.metrics.orderPlaced(r.Context(), string(result.Order.Classification))

	body := map[string]any{
		"order":          toOrderResponse(result.Order),
		"wallet_balance": result.WalletBalance,
	}
	if result.Warning != nil {
		body["warning"] = result.Warning.Error()
	}
	respondJSON(w, r, http.StatusCreated, body)
}

// estimateOrder runs the same validation as placement but persists nothing:
// it returns the itemized message and the wa.me link for manual fulfilment.
func (s *Server) estimateOrder(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	var req placeOrderRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	est, err := s.orders.ComposeEstimate(r.Context(), order.PlaceOrderRequest{
		SessionID: sid,
		Customer: order.CustomerDetails{
			Name:    req.Name,
			Phone:   req.Phone,
			Address: req.Address,
			Notes:   req.Notes,
		},
		UseWallet: req.UseWallet,
	}, callerProfile(r.Context()))
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	s.metrics.estimateComposed(r.Context())

	respondJSON(w, r, http.StatusOK, map[string]any{
		"message":         est.Message,
		"whatsapp_url":    est.WhatsAppURL,
		"total_items":     est.TotalItems,
		"subtotal":        est.Subtotal,
		"savings":         est.Savings,
		"wallet_discount": est.WalletDiscount,
		"final_amount":    est.FinalAmount,
	})
}

// listMyOrders returns the authenticated caller's order history.
func (s *Server) listMyOrders(w http.ResponseWriter, r *http.Request) {
	prof := callerProfile(r.Context())
	if prof == nil {
		respondError(w, r, http.StatusUnauthorized, "a profile-bound api key is required")
		return
	}
	orders, err := s.orderRepo.ListByCustomer(r.Context(), prof.ID)
	if err != nil {
		zctx.From(r.Context()).Error("Listing orders", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	respondJSON(w, r, http.StatusOK, out)
}
