package interfaces

import (
	"context"
	"time"

	model "github.com/glkeru/barbershop/internal/models"
	"github.com/google/uuid"
)

//go:generate mockgen -destination=./../services/mock_storage_test.go -package=services . RewardStorage,CacheStorage,Notifier,EventPublisher,SchedulingProvider,PushSender,DeviceStorage

// Stamp card storage. Every method is one atomic operation.
type LegacyStorage interface {
	GetStamps(ctx context.Context, userID string) (stamps int, err error)
	// IssueToken invalidates the user's active tokens and stores the new one.
	IssueToken(ctx context.Context, userID string, hash string, expiresAt time.Time, now time.Time) error
	// RedeemToken consumes a valid token of a user with at least target stamps,
	// records history and resets stamps.
	RedeemToken(ctx context.Context, hash string, target int, now time.Time) (model.LegacyRedemption, error)
	// RedeemStamps subtracts target stamps if the user has at least target.
	RedeemStamps(ctx context.Context, userID string, target int) (stamps int, err error)
	History(ctx context.Context, userID string) ([]model.LegacyRedemption, error)
}

// Points account storage (v2)
type LoyaltyStorage interface {
	EnsureAccount(ctx context.Context, userID string) (model.Account, error)
	IssueEarnToken(ctx context.Context, accountID uuid.UUID, hash string, expiresAt time.Time) error
	GetEarnToken(ctx context.Context, hash string) (model.QRToken, error)
	// Earn consumes the token and credits points in one transaction.
	Earn(ctx context.Context, hash string, offer model.Offer, points int, now time.Time) (model.EarnResult, error)
	// Redeem debits the reward cost if the balance covers it and creates a pending voucher.
	Redeem(ctx context.Context, accountID uuid.UUID, reward model.Reward, now time.Time) (model.Voucher, int, error)
	GetVoucher(ctx context.Context, id uuid.UUID) (model.Voucher, error)
	SetVoucherQR(ctx context.Context, id uuid.UUID, accountID uuid.UUID, hash string, expiresAt time.Time) error
	// UseVoucher marks the pending voucher behind a valid QR hash as used.
	UseVoucher(ctx context.Context, hash string, now time.Time) (model.Voucher, string, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]model.Transaction, error)
	ListVouchers(ctx context.Context, accountID uuid.UUID) ([]model.Voucher, error)
	GetOffer(ctx context.Context, id string) (model.Offer, error)
	SaveOffer(ctx context.Context, offer model.Offer) error
	ListOffers(ctx context.Context) ([]model.Offer, error)
}

// Reward catalog
type RewardStorage interface {
	GetAllRewards(ctx context.Context) ([]model.Reward, error)
	GetActiveRewards(ctx context.Context) ([]model.Reward, error)
	GetReward(ctx context.Context, id uuid.UUID) (model.Reward, error)
	SaveReward(ctx context.Context, reward model.Reward) (model.Reward, error)
}

// Booking storage
type BookingStorage interface {
	CreateReservation(ctx context.Context, r model.Reservation) error
	GetReservation(ctx context.Context, id uuid.UUID) (model.Reservation, error)
	GetBooking(ctx context.Context, id uuid.UUID) (model.Booking, error)
	// CancelBooking flips a CONFIRMED booking to CANCELED.
	CancelBooking(ctx context.Context, id uuid.UUID) error
	ListBookings(ctx context.Context, q model.BookingQuery) ([]model.Booking, error)
	// WithinTx runs fn in one transaction, committed only if fn returns nil.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Unit of work shared by booking confirmation and its subscribers
type Tx interface {
	// ConsumeReservation sets used_at if the reservation is unused and not expired.
	ConsumeReservation(ctx context.Context, id uuid.UUID, now time.Time) error
	CreateBooking(ctx context.Context, b model.Booking) error
	IncrementStamps(ctx context.Context, userID string) (stamps int, err error)
	// Savepoint runs fn in a nested scope, rolled back alone if fn fails.
	Savepoint(ctx context.Context, fn func(tx Tx) error) error
}

// Push registrations
type DeviceStorage interface {
	SaveDevice(ctx context.Context, d model.Device) error
	GetDevices(ctx context.Context, userID string) ([]model.Device, error)
}

// Storage hygiene for the cleanup job
type Purger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// Branch and service names
type CacheStorage interface {
	GetName(ctx context.Context, kind string, id string) (name string, err error)
	SetName(ctx context.Context, kind string, id string, name string) error
}

type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// Push gateway
type PushSender interface {
	Send(ctx context.Context, deviceToken, title, body string, data map[string]string) error
}

type EventPublisher interface {
	PublishBooking(ctx context.Context, ev model.BookingEvent) error
}

// External scheduling provider
type SchedulingProvider interface {
	ListCompanies(ctx context.Context) ([]model.Branch, error)
	ListServices(ctx context.Context, companyID string) ([]model.Service, error)
	GetAvailability(ctx context.Context, companyID, serviceID, from, to, resourceID string) ([]model.Slot, error)
	CreateReservation(ctx context.Context, req model.ProviderReservationRequest) (model.ProviderReservation, error)
	ConfirmAppointment(ctx context.Context, req model.ProviderConfirmRequest) (model.ProviderAppointment, error)
}

// Capability shared by the stamp card and the points ledger
type Ledger interface {
	Program() string
	Summary(ctx context.Context, userID string) (model.LedgerSummary, error)
	GenerateQR(ctx context.Context, userID string) (model.QRCode, error)
}
