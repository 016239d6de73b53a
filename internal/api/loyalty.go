package api

import (
	"net/http"
	"strconv"

	model "github.com/glkeru/barbershop/internal/models"
)

// Карта штампов

func (h *Handler) LegacyStateHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Legacy.GetState(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) LegacyQRHandler(w http.ResponseWriter, r *http.Request) {
	qr, err := h.svc.Legacy.GenerateQR(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qr)
}

func (h *Handler) LegacyRedeemHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Legacy.Redeem(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) LegacyHistoryHandler(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.Legacy.History(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if history == nil {
		history = []model.LegacyRedemption{}
	}
	writeJSON(w, http.StatusOK, history)
}

// Обе программы на одном экране
func (h *Handler) OverviewHandler(w http.ResponseWriter, r *http.Request) {
	programs := make([]model.LedgerSummary, 0, len(h.ledgers))
	for _, l := range h.ledgers {
		s, err := l.Summary(r.Context(), userID(r))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		programs = append(programs, s)
	}
	writeJSON(w, http.StatusOK, map[string]any{"programs": programs})
}

// Баллы

func (h *Handler) AccountHandler(w http.ResponseWriter, r *http.Request) {
	acct, err := h.svc.Loyalty.GetAccount(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (h *Handler) EarnQRHandler(w http.ResponseWriter, r *http.Request) {
	qr, err := h.svc.Loyalty.GenerateEarnQR(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qr)
}

func (h *Handler) RewardsHandler(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.svc.Loyalty.ListRewards(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *Handler) RedeemRewardHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.Loyalty.RedeemReward(r.Context(), userID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) RedemptionsHandler(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.svc.Loyalty.ListRedemptions(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if vouchers == nil {
		vouchers = []model.Voucher{}
	}
	writeJSON(w, http.StatusOK, vouchers)
}

func (h *Handler) VoucherQRHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	qr, err := h.svc.Loyalty.GenerateVoucherQR(r.Context(), userID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qr)
}

func (h *Handler) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	txs, err := h.svc.Loyalty.ListTransactions(r.Context(), userID(r), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// 0 если параметра нет
func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, model.ErrValidation.WithMessage(key + " must be a positive number")
	}
	return n, nil
}
