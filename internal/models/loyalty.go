package models

import (
	"time"

	"github.com/google/uuid"
)

// Legacy stamp card
type LegacyState struct {
	UserID    string `json:"userId"`
	Stamps    int    `json:"stamps"`
	Target    int    `json:"target"`
	Remaining int    `json:"remaining"`
	Eligible  bool   `json:"eligible"`
}

// Single-use QR token, only the hash is stored
type QRToken struct {
	ID        uuid.UUID
	OwnerID   string // user id (legacy) or account id (earn)
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Redeemable reports whether the token may still be consumed at now.
func (t QRToken) Redeemable(now time.Time) bool {
	return t.UsedAt == nil && t.ExpiresAt.After(now)
}

// Legacy stamp card redemption history
type LegacyRedemption struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"userId"`
	TokenID      uuid.UUID `json:"tokenId"`
	StampsBefore int       `json:"stampsBefore"`
	RedeemedAt   time.Time `json:"redeemedAt"`
}

// Points account (v2)
type Account struct {
	ID             uuid.UUID `json:"id"`
	UserID         string    `json:"userId"`
	CurrentBalance int       `json:"currentBalance"`
	LifetimeEarned int       `json:"lifetimeEarned"`
	EnrolledAt     time.Time `json:"enrolledAt"`
}

const (
	TxEarn   = "EARN"
	TxRedeem = "REDEEM"
)

// Ledger entry, append-only
type Transaction struct {
	ID          uuid.UUID `json:"id"`
	AccountID   uuid.UUID `json:"accountId"`
	Type        string    `json:"type"`
	Points      int       `json:"points"` // signed
	Description string    `json:"description"`
	ReferenceID string    `json:"referenceId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Reward catalog entry
type Reward struct {
	ID          uuid.UUID `bson:"id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	CostPoints  int       `bson:"costPoints" json:"costPoints"`
	Active      bool      `bson:"active" json:"isActive"`
}

const (
	VoucherPending = "PENDING"
	VoucherUsed    = "USED"
)

// Voucher created by a reward redemption
type Voucher struct {
	ID          uuid.UUID  `json:"id"`
	AccountID   uuid.UUID  `json:"accountId"`
	RewardID    uuid.UUID  `json:"rewardId"`
	PointsSpent int        `json:"pointsSpent"`
	Status      string     `json:"status"`
	QRTokenHash *string    `json:"-"`
	QRExpiresAt *time.Time `json:"qrExpiresAt,omitempty"`
	QRUsedAt    *time.Time `json:"qrUsedAt,omitempty"`
	RedeemedAt  time.Time  `json:"redeemedAt"`
	UsedAt      *time.Time `json:"usedAt,omitempty"`
}

// Service/offer sold in a salon, price as stored
type Offer struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Active bool    `json:"isActive"`
}

// Result of a credited earn QR
type EarnResult struct {
	UserID      string
	Points      int
	Before      Account
	After       Account
	Transaction Transaction
}

// Issued QR payload for the app
type QRCode struct {
	Payload   string    `json:"payload"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Ledger overview row
type LedgerSummary struct {
	Program string         `json:"program"`
	Balance int            `json:"balance"`
	Details map[string]any `json:"details,omitempty"`
}

// Push registration
type Device struct {
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Push message, queued for the notifications worker
type Notification struct {
	UserID string            `json:"userId"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}
