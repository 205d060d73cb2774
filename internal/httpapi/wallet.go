package httpapi

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gkpcrackers/storefront/internal/domain/referral"
	"github.com/gkpcrackers/storefront/internal/domain/wallet"
)

// requireProfile resolves the caller's profile or rejects the request.
// Wallet and referral routes are meaningless for anonymous shoppers.
func (s *Server) requireProfile(w http.ResponseWriter, r *http.Request) (string, bool) {
	prof := callerProfile(r.Context())
	if prof == nil {
		respondError(w, r, http.StatusUnauthorized, "a profile-bound api key is required")
		return "", false
	}
	return prof.ID, true
}

func (s *Server) walletBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireProfile(w, r)
	if !ok {
		return
	}
	balance, err := s.ledger.Balance(r.Context(), userID)
	if err != nil {
		zctx.From(r.Context()).Error("Reading wallet balance", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

type transactionResponse struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	CreatedAt   string          `json:"created_at"`
}

func toTransactionResponse(t wallet.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		OrderID:     t.OrderID,
		Amount:      t.Amount,
		Type:        string(t.Type),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *Server) walletTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireProfile(w, r)
	if !ok {
		return
	}
	txs, err := s.ledger.Transactions(r.Context(), userID)
	if err != nil {
		zctx.From(r.Context()).Error("Listing wallet transactions", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	out := make([]transactionResponse, len(txs))
	for i, t := range txs {
		out[i] = toTransactionResponse(t)
	}
	respondJSON(w, r, http.StatusOK, out)
}

type referralResponse struct {
	ID           string          `json:"id"`
	ReferredName string          `json:"referred_name"`
	BonusAmount  decimal.Decimal `json:"bonus_amount"`
	Claimed      bool            `json:"claimed"`
	CreatedAt    string          `json:"created_at"`
}

func toReferralResponse(rec referral.Referral) referralResponse {
	return referralResponse{
		ID:           rec.ID,
		ReferredName: rec.ReferredName,
		BonusAmount:  rec.BonusAmount,
		Claimed:      rec.Claimed,
		CreatedAt:    rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// myReferrals returns the caller's referral records together with the
// aggregate summary the profile page renders.
func (s *Server) myReferrals(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireProfile(w, r)
	if !ok {
		return
	}
	records, err := s.referrals.ListByReferrer(r.Context(), userID)
	if err != nil {
		zctx.From(r.Context()).Error("Listing referrals", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	out := make([]referralResponse, len(records))
	for i, rec := range records {
		out[i] = toReferralResponse(rec)
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"referrals": out,
		"summary":   referral.Summarize(records),
	})
}
