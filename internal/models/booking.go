package models

import (
	"time"

	"github.com/google/uuid"
)

// Provider hold on a slot
type Reservation struct {
	ID                  uuid.UUID  `json:"id"`
	UserID              string     `json:"userId"`
	BranchID            string     `json:"branchId"`
	ServiceID           string     `json:"serviceId"`
	ResourceID          string     `json:"resourceId,omitempty"`
	ReservedDate        string     `json:"date"`
	ReservedTime        string     `json:"time"`
	TimifyReservationID string     `json:"-"`
	TimifySecret        string     `json:"-"`
	ExpiresAt           time.Time  `json:"expiresAt"`
	UsedAt              *time.Time `json:"usedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
}

const (
	BookingConfirmed = "CONFIRMED"
	BookingCanceled  = "CANCELED"
)

// Confirmed appointment
type Booking struct {
	ID                  uuid.UUID `json:"id"`
	UserID              string    `json:"userId"`
	BranchID            string    `json:"branchId"`
	ServiceID           string    `json:"serviceId"`
	ResourceID          string    `json:"resourceId,omitempty"`
	StartDateTime       time.Time `json:"startDateTime"`
	TimifyAppointmentID string    `json:"timifyAppointmentId,omitempty"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"createdAt"`

	BranchName  string `json:"branchName,omitempty"`
	ServiceName string `json:"serviceName,omitempty"`
}

const (
	FilterUpcoming = "upcoming"
	FilterPast     = "past"
	FilterAll      = "all"
)

// Keyset position
type Cursor struct {
	Start time.Time
	ID    uuid.UUID
}

// Booking list request
type BookingQuery struct {
	UserID string
	Status string
	Now    time.Time
	After  *Cursor
	Limit  int
}

// Descending reports the sort order for the filter.
func (q BookingQuery) Descending() bool {
	return q.Status != FilterUpcoming
}

// Published when a reservation becomes a booking, consumed inside the same unit of work
type BookingConfirmedEvent struct {
	BookingID uuid.UUID `json:"bookingId"`
	UserID    string    `json:"userId"`
	BranchID  string    `json:"branchId"`
	ServiceID string    `json:"serviceId"`
	Start     time.Time `json:"start"`
}

const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCanceled  = "booking.canceled"
)

// Booking lifecycle message on Kafka
type BookingEvent struct {
	Type      string    `json:"type"`
	BookingID uuid.UUID `json:"bookingId"`
	UserID    string    `json:"userId"`
	BranchID  string    `json:"branchId"`
	ServiceID string    `json:"serviceId"`
	Start     time.Time `json:"start"`
}

// Provider directory entries
type Branch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Service struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Duration int     `json:"duration"`
	Price    float64 `json:"price"`
}

type Slot struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

// Provider reservation request
type ProviderReservationRequest struct {
	CompanyID  string
	ServiceID  string
	Date       string
	Time       string
	ResourceID string
}

type ProviderReservation struct {
	ReservationID string
	Secret        string
	ExpiresAt     time.Time
}

type ProviderConfirmRequest struct {
	CompanyID          string
	ReservationID      string
	Secret             string
	ExternalCustomerID string
	Region             string
}

type ProviderAppointment struct {
	AppointmentID string
	Status        string
}
