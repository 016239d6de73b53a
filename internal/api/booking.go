package api

import (
	"net/http"
	"time"

	model "github.com/glkeru/barbershop/internal/models"
	"github.com/glkeru/barbershop/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func (h *Handler) BranchesHandler(w http.ResponseWriter, r *http.Request) {
	branches, err := h.svc.Bookings.ListBranches(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if branches == nil {
		branches = []model.Branch{}
	}
	writeJSON(w, http.StatusOK, branches)
}

func (h *Handler) BranchServicesHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Bookings.ListServices(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []model.Service{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) AvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	slots, err := h.svc.Bookings.Availability(r.Context(),
		q.Get("branchId"), q.Get("serviceId"), q.Get("from"), q.Get("to"), q.Get("resourceId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if slots == nil {
		slots = []model.Slot{}
	}
	writeJSON(w, http.StatusOK, slots)
}

type reserveResponse struct {
	ReservationID uuid.UUID `json:"reservationId"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// Фаза 1
func (h *Handler) ReserveHandler(w http.ResponseWriter, r *http.Request) {
	var req services.ReserveRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.Bookings.Reserve(r.Context(), userID(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reserveResponse{
		ReservationID: res.ID,
		ExpiresAt:     res.ExpiresAt.UTC(),
	})
}

type confirmRequest struct {
	ReservationID string `json:"reservationId"`
}

// Фаза 2
func (h *Handler) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := uuid.Parse(req.ReservationID)
	if err != nil {
		h.fail(w, r, model.ErrBookingValidation.WithMessage("reservationId is not valid"))
		return
	}
	b, err := h.svc.Bookings.Confirm(r.Context(), userID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) ListBookingsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	page, err := h.svc.Bookings.ListBookings(r.Context(), userID(r), q.Get("status"), q.Get("cursor"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	b, err := h.svc.Bookings.CancelBooking(r.Context(), userID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type deviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

func (h *Handler) RegisterDeviceHandler(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	err := h.svc.Notifications.RegisterDevice(r.Context(), userID(r), req.Token, req.Platform)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
