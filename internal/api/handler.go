// Package api is the HTTP surface of the app backend.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	interf "github.com/glkeru/barbershop/internal/interfaces"
	model "github.com/glkeru/barbershop/internal/models"
	"github.com/glkeru/barbershop/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Services struct {
	Legacy        *services.LegacyService
	Loyalty       *services.LoyaltyService
	Bookings      *services.BookingService
	Notifications *services.NotificationService
}

type Options struct {
	JWTSecret     string
	AdminScanRate float64
	Production    bool
}

type Handler struct {
	router     *mux.Router
	logger     *zap.Logger
	svc        Services
	ledgers    []interf.Ledger
	secret     []byte
	scans      *scanLimiter
	production bool
}

func NewHandler(logger *zap.Logger, svc Services, opts Options) *Handler {
	router := mux.NewRouter()
	h := &Handler{
		router:     router,
		logger:     logger,
		svc:        svc,
		ledgers:    []interf.Ledger{svc.Legacy, svc.Loyalty},
		secret:     []byte(opts.JWTSecret),
		scans:      newScanLimiter(opts.AdminScanRate),
		production: opts.Production,
	}
	router.Use(MiddlewareRequestID(), MiddlewareMetrics())
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(h.authenticate)

	// карта штампов
	api.HandleFunc("/v1/loyalty/state", h.LegacyStateHandler).Methods(http.MethodGet)
	api.HandleFunc("/v1/loyalty/qr", h.LegacyQRHandler).Methods(http.MethodPost)
	api.HandleFunc("/v1/loyalty/redeem", h.LegacyRedeemHandler).Methods(http.MethodPost)
	api.HandleFunc("/v1/loyalty/history", h.LegacyHistoryHandler).Methods(http.MethodGet)
	api.HandleFunc("/v1/loyalty/overview", h.OverviewHandler).Methods(http.MethodGet)

	// баллы
	api.HandleFunc("/v2/loyalty/account", h.AccountHandler).Methods(http.MethodGet)
	api.HandleFunc("/v2/loyalty/qr", h.EarnQRHandler).Methods(http.MethodPost)
	api.HandleFunc("/v2/loyalty/rewards", h.RewardsHandler).Methods(http.MethodGet)
	api.HandleFunc("/v2/loyalty/rewards/{id}/redeem", h.RedeemRewardHandler).Methods(http.MethodPost)
	api.HandleFunc("/v2/loyalty/redemptions", h.RedemptionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/v2/loyalty/redemptions/{id}/qr", h.VoucherQRHandler).Methods(http.MethodPost)
	api.HandleFunc("/v2/loyalty/transactions", h.TransactionsHandler).Methods(http.MethodGet)

	// запись
	api.HandleFunc("/branches", h.BranchesHandler).Methods(http.MethodGet)
	api.HandleFunc("/branches/{id}/services", h.BranchServicesHandler).Methods(http.MethodGet)
	api.HandleFunc("/availability", h.AvailabilityHandler).Methods(http.MethodGet)
	api.HandleFunc("/bookings", h.ListBookingsHandler).Methods(http.MethodGet)
	api.HandleFunc("/bookings/reserve", h.ReserveHandler).Methods(http.MethodPost)
	api.HandleFunc("/bookings/confirm", h.ConfirmHandler).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/cancel", h.CancelHandler).Methods(http.MethodPost)
	api.HandleFunc("/devices", h.RegisterDeviceHandler).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.requireAdmin)
	admin.HandleFunc("/rewards", h.AllRewardsHandler).Methods(http.MethodGet)
	admin.HandleFunc("/rewards", h.SaveRewardHandler).Methods(http.MethodPost)
	admin.HandleFunc("/rewards/{id}", h.SaveRewardHandler).Methods(http.MethodPut)
	admin.HandleFunc("/offers", h.OffersHandler).Methods(http.MethodGet)
	admin.HandleFunc("/offers", h.SaveOfferHandler).Methods(http.MethodPost)

	scans := admin.PathPrefix("/loyalty").Subrouter()
	scans.Use(h.throttleScans)
	scans.HandleFunc("/scan", h.LegacyScanHandler).Methods(http.MethodPost)
	scans.HandleFunc("/earn", h.EarnHandler).Methods(http.MethodPost)
	scans.HandleFunc("/vouchers/scan", h.VoucherScanHandler).Methods(http.MethodPost)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// fail writes the uniform error body. Unclassified errors become INTERNAL.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	e := model.AsError(err)
	if e == nil {
		h.logger.Error("unhandled error",
			zap.String("path", r.URL.Path),
			zap.String("request", r.Header.Get(requestIDHeader)),
			zap.Error(err),
			zap.Stack("stack"))
		e = model.ErrInternal
		if !h.production {
			e = e.WithMessage(err.Error())
		}
	}
	writeJSON(w, e.Status, errorBody{errorDetail{e.Code, e.Message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// пустое тело допустимо
func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return model.ErrValidation.WithMessage("body is not correct")
	}
	return nil
}

// неверный id считаем несуществующим
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, model.ErrNotFound
	}
	return id, nil
}
