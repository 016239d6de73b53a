// Package memory keeps every storage in process. Used for local runs and tests;
// a single mutex gives the same exactly-once guarantees the SQL statements give.
package memory

import (
	"bytes"
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	interf "github.com/glkeru/barbershop/internal/interfaces"
	model "github.com/glkeru/barbershop/internal/models"
	"github.com/google/uuid"
)

type state struct {
	stamps        map[string]int
	legacyTokens  map[uuid.UUID]model.QRToken
	legacyHistory []model.LegacyRedemption
	accounts      map[string]model.Account
	earnTokens    map[uuid.UUID]model.QRToken
	transactions  []model.Transaction
	vouchers      map[uuid.UUID]model.Voucher
	offers        map[string]model.Offer
	rewards       map[uuid.UUID]model.Reward
	reservations  map[uuid.UUID]model.Reservation
	bookings      map[uuid.UUID]model.Booking
	devices       map[string]model.Device
	names         map[string]string
}

func (s *state) clone() *state {
	return &state{
		stamps:        maps.Clone(s.stamps),
		legacyTokens:  maps.Clone(s.legacyTokens),
		legacyHistory: slices.Clone(s.legacyHistory),
		accounts:      maps.Clone(s.accounts),
		earnTokens:    maps.Clone(s.earnTokens),
		transactions:  slices.Clone(s.transactions),
		vouchers:      maps.Clone(s.vouchers),
		offers:        maps.Clone(s.offers),
		rewards:       maps.Clone(s.rewards),
		reservations:  maps.Clone(s.reservations),
		bookings:      maps.Clone(s.bookings),
		devices:       maps.Clone(s.devices),
		names:         maps.Clone(s.names),
	}
}

type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: &state{
		stamps:       map[string]int{},
		legacyTokens: map[uuid.UUID]model.QRToken{},
		accounts:     map[string]model.Account{},
		earnTokens:   map[uuid.UUID]model.QRToken{},
		vouchers:     map[uuid.UUID]model.Voucher{},
		offers:       map[string]model.Offer{},
		rewards:      map[uuid.UUID]model.Reward{},
		reservations: map[uuid.UUID]model.Reservation{},
		bookings:     map[uuid.UUID]model.Booking{},
		devices:      map[string]model.Device{},
		names:        map[string]string{},
	}}
}

var (
	_ interf.LegacyStorage  = (*Store)(nil)
	_ interf.LoyaltyStorage = (*Store)(nil)
	_ interf.RewardStorage  = (*Store)(nil)
	_ interf.BookingStorage = (*Store)(nil)
	_ interf.DeviceStorage  = (*Store)(nil)
	_ interf.CacheStorage   = (*Store)(nil)
	_ interf.Purger         = (*Store)(nil)
)

// atomic runs fn under the lock and drops its changes if it fails.
func (s *Store) atomic(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.st.clone()
	err := fn(s.st)
	if err != nil {
		s.st = snap
	}
	return err
}

func (s *Store) locked(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.st)
}

// Legacy

func (s *Store) GetStamps(ctx context.Context, userID string) (int, error) {
	var n int
	s.locked(func(st *state) { n = st.stamps[userID] })
	return n, nil
}

// SetStamps seeds a stamp count.
func (s *Store) SetStamps(userID string, stamps int) {
	s.locked(func(st *state) { st.stamps[userID] = stamps })
}

func (s *Store) IssueToken(ctx context.Context, userID string, hash string, expiresAt time.Time, now time.Time) error {
	return s.atomic(func(st *state) error {
		for id, t := range st.legacyTokens {
			if t.OwnerID == userID && t.Redeemable(now) {
				t.ExpiresAt = now
				st.legacyTokens[id] = t
			}
		}
		id := uuid.New()
		st.legacyTokens[id] = model.QRToken{ID: id, OwnerID: userID, TokenHash: hash, ExpiresAt: expiresAt, CreatedAt: now}
		return nil
	})
}

func (s *Store) RedeemToken(ctx context.Context, hash string, target int, now time.Time) (model.LegacyRedemption, error) {
	var red model.LegacyRedemption
	err := s.atomic(func(st *state) error {
		t, ok := findToken(st.legacyTokens, hash)
		if !ok || !t.Redeemable(now) || st.stamps[t.OwnerID] < target {
			return model.ErrInvalidOrExpiredQR
		}
		t.UsedAt = &now
		st.legacyTokens[t.ID] = t

		red = model.LegacyRedemption{
			ID:           uuid.New(),
			UserID:       t.OwnerID,
			TokenID:      t.ID,
			StampsBefore: st.stamps[t.OwnerID],
			RedeemedAt:   now,
		}
		st.legacyHistory = append(st.legacyHistory, red)
		st.stamps[t.OwnerID] = 0
		return nil
	})
	return red, err
}

func (s *Store) RedeemStamps(ctx context.Context, userID string, target int) (int, error) {
	var n int
	err := s.atomic(func(st *state) error {
		if st.stamps[userID] < target {
			return model.ErrLoyaltyNotReady
		}
		st.stamps[userID] -= target
		n = st.stamps[userID]
		return nil
	})
	return n, err
}

func (s *Store) History(ctx context.Context, userID string) ([]model.LegacyRedemption, error) {
	var out []model.LegacyRedemption
	s.locked(func(st *state) {
		for _, r := range st.legacyHistory {
			if r.UserID == userID {
				out = append(out, r)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].RedeemedAt.After(out[j].RedeemedAt) })
	return out, nil
}

func findToken(tokens map[uuid.UUID]model.QRToken, hash string) (model.QRToken, bool) {
	for _, t := range tokens {
		if t.TokenHash == hash {
			return t, true
		}
	}
	return model.QRToken{}, false
}

// Points ledger

func (s *Store) EnsureAccount(ctx context.Context, userID string) (model.Account, error) {
	var a model.Account
	err := s.atomic(func(st *state) error {
		var ok bool
		a, ok = st.accounts[userID]
		if !ok {
			a = model.Account{ID: uuid.New(), UserID: userID, EnrolledAt: time.Now()}
			st.accounts[userID] = a
		}
		return nil
	})
	return a, err
}

// SetAccount seeds balances.
func (s *Store) SetAccount(a model.Account) {
	s.locked(func(st *state) { st.accounts[a.UserID] = a })
}

func accountByID(st *state, id uuid.UUID) (model.Account, bool) {
	for _, a := range st.accounts {
		if a.ID == id {
			return a, true
		}
	}
	return model.Account{}, false
}

func (s *Store) IssueEarnToken(ctx context.Context, accountID uuid.UUID, hash string, expiresAt time.Time) error {
	return s.atomic(func(st *state) error {
		id := uuid.New()
		st.earnTokens[id] = model.QRToken{ID: id, OwnerID: accountID.String(), TokenHash: hash, ExpiresAt: expiresAt, CreatedAt: time.Now()}
		return nil
	})
}

func (s *Store) GetEarnToken(ctx context.Context, hash string) (model.QRToken, error) {
	var (
		t  model.QRToken
		ok bool
	)
	s.locked(func(st *state) { t, ok = findToken(st.earnTokens, hash) })
	if !ok {
		return model.QRToken{}, model.ErrNotFound
	}
	return t, nil
}

func (s *Store) Earn(ctx context.Context, hash string, offer model.Offer, points int, now time.Time) (model.EarnResult, error) {
	var res model.EarnResult
	err := s.atomic(func(st *state) error {
		t, ok := findToken(st.earnTokens, hash)
		if !ok || !t.Redeemable(now) {
			return model.ErrInvalidQR
		}
		t.UsedAt = &now
		st.earnTokens[t.ID] = t

		accountID, err := uuid.Parse(t.OwnerID)
		if err != nil {
			return model.ErrInvalidQR
		}
		before, ok := accountByID(st, accountID)
		if !ok {
			return model.ErrInvalidQR
		}
		after := before
		after.CurrentBalance += points
		after.LifetimeEarned += points
		st.accounts[after.UserID] = after

		tx := model.Transaction{
			ID:          uuid.New(),
			AccountID:   after.ID,
			Type:        model.TxEarn,
			Points:      points,
			Description: "Earned for " + offer.Name,
			ReferenceID: offer.ID,
			CreatedAt:   now,
		}
		st.transactions = append(st.transactions, tx)
		res = model.EarnResult{UserID: after.UserID, Points: points, Before: before, After: after, Transaction: tx}
		return nil
	})
	return res, err
}

func (s *Store) Redeem(ctx context.Context, accountID uuid.UUID, reward model.Reward, now time.Time) (model.Voucher, int, error) {
	var (
		v       model.Voucher
		balance int
	)
	err := s.atomic(func(st *state) error {
		a, ok := accountByID(st, accountID)
		if !ok {
			return model.ErrNotFound.WithMessage("account not found")
		}
		if a.CurrentBalance < reward.CostPoints {
			return model.ErrInsufficientPoints
		}
		a.CurrentBalance -= reward.CostPoints
		st.accounts[a.UserID] = a
		balance = a.CurrentBalance

		v = model.Voucher{
			ID:          uuid.New(),
			AccountID:   a.ID,
			RewardID:    reward.ID,
			PointsSpent: reward.CostPoints,
			Status:      model.VoucherPending,
			RedeemedAt:  now,
		}
		st.vouchers[v.ID] = v
		st.transactions = append(st.transactions, model.Transaction{
			ID:          uuid.New(),
			AccountID:   a.ID,
			Type:        model.TxRedeem,
			Points:      -reward.CostPoints,
			Description: "Redeemed " + reward.Name,
			ReferenceID: v.ID.String(),
			CreatedAt:   now,
		})
		return nil
	})
	return v, balance, err
}

func (s *Store) GetVoucher(ctx context.Context, id uuid.UUID) (model.Voucher, error) {
	var (
		v  model.Voucher
		ok bool
	)
	s.locked(func(st *state) { v, ok = st.vouchers[id] })
	if !ok {
		return model.Voucher{}, model.ErrNotFound.WithMessage("redemption not found")
	}
	return v, nil
}

func (s *Store) SetVoucherQR(ctx context.Context, id uuid.UUID, accountID uuid.UUID, hash string, expiresAt time.Time) error {
	return s.atomic(func(st *state) error {
		v, ok := st.vouchers[id]
		if !ok || v.AccountID != accountID || v.Status != model.VoucherPending {
			return model.ErrInvalidOrExpiredQR
		}
		v.QRTokenHash = &hash
		v.QRExpiresAt = &expiresAt
		v.QRUsedAt = nil
		st.vouchers[id] = v
		return nil
	})
}

func (s *Store) UseVoucher(ctx context.Context, hash string, now time.Time) (model.Voucher, string, error) {
	var (
		v      model.Voucher
		userID string
	)
	err := s.atomic(func(st *state) error {
		for id, cur := range st.vouchers {
			if cur.QRTokenHash == nil || *cur.QRTokenHash != hash {
				continue
			}
			if cur.Status != model.VoucherPending || cur.QRUsedAt != nil || cur.QRExpiresAt == nil || !cur.QRExpiresAt.After(now) {
				return model.ErrInvalidOrExpiredQR
			}
			cur.Status = model.VoucherUsed
			cur.UsedAt = &now
			cur.QRUsedAt = &now
			st.vouchers[id] = cur
			v = cur
			if a, ok := accountByID(st, cur.AccountID); ok {
				userID = a.UserID
			}
			return nil
		}
		return model.ErrInvalidOrExpiredQR
	})
	return v, userID, err
}

func (s *Store) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]model.Transaction, error) {
	var out []model.Transaction
	s.locked(func(st *state) {
		for i := len(st.transactions) - 1; i >= 0 && len(out) < limit; i-- {
			if st.transactions[i].AccountID == accountID {
				out = append(out, st.transactions[i])
			}
		}
	})
	return out, nil
}

func (s *Store) ListVouchers(ctx context.Context, accountID uuid.UUID) ([]model.Voucher, error) {
	var out []model.Voucher
	s.locked(func(st *state) {
		for _, v := range st.vouchers {
			if v.AccountID == accountID {
				out = append(out, v)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RedeemedAt.After(out[j].RedeemedAt) })
	return out, nil
}

func (s *Store) GetOffer(ctx context.Context, id string) (model.Offer, error) {
	var (
		o  model.Offer
		ok bool
	)
	s.locked(func(st *state) { o, ok = st.offers[id] })
	if !ok {
		return model.Offer{}, model.ErrNotFound
	}
	return o, nil
}

func (s *Store) SaveOffer(ctx context.Context, offer model.Offer) error {
	s.locked(func(st *state) { st.offers[offer.ID] = offer })
	return nil
}

func (s *Store) ListOffers(ctx context.Context) ([]model.Offer, error) {
	var out []model.Offer
	s.locked(func(st *state) { out = slices.Collect(maps.Values(st.offers)) })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Reward catalog

func (s *Store) GetAllRewards(ctx context.Context) ([]model.Reward, error) {
	return s.rewardList(false), nil
}

func (s *Store) GetActiveRewards(ctx context.Context) ([]model.Reward, error) {
	return s.rewardList(true), nil
}

func (s *Store) rewardList(activeOnly bool) []model.Reward {
	var out []model.Reward
	s.locked(func(st *state) {
		for _, r := range st.rewards {
			if !activeOnly || r.Active {
				out = append(out, r)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CostPoints < out[j].CostPoints })
	return out
}

func (s *Store) GetReward(ctx context.Context, id uuid.UUID) (model.Reward, error) {
	var (
		r  model.Reward
		ok bool
	)
	s.locked(func(st *state) { r, ok = st.rewards[id] })
	if !ok {
		return model.Reward{}, model.ErrNotFound.WithMessage("reward not found")
	}
	return r, nil
}

func (s *Store) SaveReward(ctx context.Context, reward model.Reward) (model.Reward, error) {
	if reward.ID == uuid.Nil {
		reward.ID = uuid.New()
	}
	s.locked(func(st *state) { st.rewards[reward.ID] = reward })
	return reward, nil
}

// Bookings

func (s *Store) CreateReservation(ctx context.Context, r model.Reservation) error {
	s.locked(func(st *state) { st.reservations[r.ID] = r })
	return nil
}

func (s *Store) GetReservation(ctx context.Context, id uuid.UUID) (model.Reservation, error) {
	var (
		r  model.Reservation
		ok bool
	)
	s.locked(func(st *state) { r, ok = st.reservations[id] })
	if !ok {
		return model.Reservation{}, model.ErrNotFound.WithMessage("reservation not found")
	}
	return r, nil
}

func (s *Store) GetBooking(ctx context.Context, id uuid.UUID) (model.Booking, error) {
	var (
		b  model.Booking
		ok bool
	)
	s.locked(func(st *state) { b, ok = st.bookings[id] })
	if !ok {
		return model.Booking{}, model.ErrNotFound.WithMessage("booking not found")
	}
	return b, nil
}

// SaveBooking seeds a booking.
func (s *Store) SaveBooking(b model.Booking) {
	s.locked(func(st *state) { st.bookings[b.ID] = b })
}

func (s *Store) CancelBooking(ctx context.Context, id uuid.UUID) error {
	return s.atomic(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return model.ErrNotFound.WithMessage("booking not found")
		}
		if b.Status != model.BookingConfirmed {
			return model.ErrBookingNotCancelable
		}
		b.Status = model.BookingCanceled
		st.bookings[id] = b
		return nil
	})
}

func (s *Store) ListBookings(ctx context.Context, q model.BookingQuery) ([]model.Booking, error) {
	var out []model.Booking
	s.locked(func(st *state) {
		for _, b := range st.bookings {
			if b.UserID == q.UserID && matchFilter(b, q) && afterCursor(b, q) {
				out = append(out, b)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if q.Descending() {
			return keyLess(out[j], out[i])
		}
		return keyLess(out[i], out[j])
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matchFilter(b model.Booking, q model.BookingQuery) bool {
	switch q.Status {
	case model.FilterUpcoming:
		return b.Status == model.BookingConfirmed && !b.StartDateTime.Before(q.Now)
	case model.FilterPast:
		return b.StartDateTime.Before(q.Now) || b.Status == model.BookingCanceled
	}
	return true
}

func afterCursor(b model.Booking, q model.BookingQuery) bool {
	if q.After == nil {
		return true
	}
	c := model.Booking{StartDateTime: q.After.Start, ID: q.After.ID}
	if q.Descending() {
		return keyLess(b, c)
	}
	return keyLess(c, b)
}

// (start, id) order, ids compare bytewise like the uuid column
func keyLess(a, b model.Booking) bool {
	if !a.StartDateTime.Equal(b.StartDateTime) {
		return a.StartDateTime.Before(b.StartDateTime)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx interf.Tx) error) error {
	return s.atomic(func(st *state) error {
		return fn(&memTx{store: s})
	})
}

// memTx works on the locked state of its store.
type memTx struct {
	store *Store
}

func (t *memTx) ConsumeReservation(ctx context.Context, id uuid.UUID, now time.Time) error {
	st := t.store.st
	r, ok := st.reservations[id]
	if !ok {
		return model.ErrNotFound.WithMessage("reservation not found")
	}
	if r.UsedAt != nil || !r.ExpiresAt.After(now) {
		return model.ErrBookingValidation.WithMessage("reservation already used or expired")
	}
	r.UsedAt = &now
	st.reservations[id] = r
	return nil
}

func (t *memTx) CreateBooking(ctx context.Context, b model.Booking) error {
	t.store.st.bookings[b.ID] = b
	return nil
}

func (t *memTx) IncrementStamps(ctx context.Context, userID string) (int, error) {
	st := t.store.st
	st.stamps[userID]++
	return st.stamps[userID], nil
}

func (t *memTx) Savepoint(ctx context.Context, fn func(tx interf.Tx) error) error {
	snap := t.store.st.clone()
	err := fn(t)
	if err != nil {
		t.store.st = snap
	}
	return err
}

// Devices

func (s *Store) SaveDevice(ctx context.Context, d model.Device) error {
	s.locked(func(st *state) { st.devices[d.Token] = d })
	return nil
}

func (s *Store) GetDevices(ctx context.Context, userID string) ([]model.Device, error) {
	var out []model.Device
	s.locked(func(st *state) {
		for _, d := range st.devices {
			if d.UserID == userID {
				out = append(out, d)
			}
		}
	})
	return out, nil
}

// Name cache

func (s *Store) GetName(ctx context.Context, kind string, id string) (string, error) {
	var (
		name string
		ok   bool
	)
	s.locked(func(st *state) { name, ok = st.names[kind+":"+id] })
	if !ok {
		return "", model.ErrNotFound
	}
	return name, nil
}

func (s *Store) SetName(ctx context.Context, kind string, id string, name string) error {
	s.locked(func(st *state) { st.names[kind+":"+id] = name })
	return nil
}

func (s *Store) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := s.atomic(func(st *state) error {
		for id, t := range st.legacyTokens {
			if t.UsedAt == nil && t.ExpiresAt.Before(before) {
				delete(st.legacyTokens, id)
				n++
			}
		}
		for id, t := range st.earnTokens {
			if t.UsedAt == nil && t.ExpiresAt.Before(before) {
				delete(st.earnTokens, id)
				n++
			}
		}
		for id, r := range st.reservations {
			if r.UsedAt == nil && r.ExpiresAt.Before(before) {
				delete(st.reservations, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
