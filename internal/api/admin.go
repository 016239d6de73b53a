package api

import (
	"net/http"

	model "github.com/glkeru/barbershop/internal/models"
	"github.com/glkeru/barbershop/internal/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type scanRequest struct {
	Payload   string `json:"payload"`
	ServiceID string `json:"serviceId,omitempty"`
}

type earnResponse struct {
	UserID         string `json:"userId"`
	PointsEarned   int    `json:"pointsEarned"`
	NewBalance     int    `json:"newBalance"`
	LifetimeEarned int    `json:"lifetimeEarned"`
	Tier           string `json:"tier"`
}

// Сканы на кассе

func (h *Handler) LegacyScanHandler(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	red, err := h.svc.Legacy.ScanQR(r.Context(), req.Payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.audit("legacy scan", r, red.UserID)
	writeJSON(w, http.StatusOK, red)
}

func (h *Handler) EarnHandler(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.ServiceID == "" {
		h.fail(w, r, model.ErrValidation.WithMessage("serviceId is required"))
		return
	}
	res, err := h.svc.Loyalty.AdminEarnPoints(r.Context(), req.Payload, req.ServiceID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.audit("earn scan", r, res.UserID)
	writeJSON(w, http.StatusOK, earnResponse{
		UserID:         res.UserID,
		PointsEarned:   res.Points,
		NewBalance:     res.After.CurrentBalance,
		LifetimeEarned: res.After.LifetimeEarned,
		Tier:           string(services.TierFor(res.After.LifetimeEarned)),
	})
}

func (h *Handler) VoucherScanHandler(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.svc.Loyalty.AdminRedeemVoucher(r.Context(), req.Payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.audit("voucher scan", r, v.ID.String())
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) audit(msg string, r *http.Request, subject string) {
	h.logger.Info(msg,
		zap.String("admin", userID(r)),
		zap.String("subject", subject),
		zap.String("request", r.Header.Get(requestIDHeader)))
}

// Каталог наград

func (h *Handler) AllRewardsHandler(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.svc.Loyalty.AllRewards(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

// POST создает, PUT /rewards/{id} заменяет
func (h *Handler) SaveRewardHandler(w http.ResponseWriter, r *http.Request) {
	var reward model.Reward
	if err := decode(r, &reward); err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if r.Method == http.MethodPut {
		id, err := pathID(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		reward.ID = id
		status = http.StatusOK
	} else {
		reward.ID = uuid.Nil
	}
	saved, err := h.svc.Loyalty.SaveReward(r.Context(), reward)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, saved)
}

// Прайс услуг

func (h *Handler) OffersHandler(w http.ResponseWriter, r *http.Request) {
	offers, err := h.svc.Loyalty.ListOffers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if offers == nil {
		offers = []model.Offer{}
	}
	writeJSON(w, http.StatusOK, offers)
}

func (h *Handler) SaveOfferHandler(w http.ResponseWriter, r *http.Request) {
	var offer model.Offer
	if err := decode(r, &offer); err != nil {
		h.fail(w, r, err)
		return
	}
	saved, err := h.svc.Loyalty.SaveOffer(r.Context(), offer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
