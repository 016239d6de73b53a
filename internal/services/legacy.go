package services

import (
	"context"
	"errors"
	"time"

	interf "github.com/glkeru/barbershop/internal/interfaces"
	model "github.com/glkeru/barbershop/internal/models"
	"github.com/glkeru/barbershop/internal/qrcode"
	"go.uber.org/zap"
)

// LegacyService is the stamp card: one stamp per booking, a reward every target stamps.
type LegacyService struct {
	logger *zap.Logger
	db     interf.LegacyStorage
	hasher qrcode.Hasher
	target int
	ttl    time.Duration
	now    func() time.Time
}

func NewLegacyService(logger *zap.Logger, db interf.LegacyStorage, hasher qrcode.Hasher, target int, ttl time.Duration) *LegacyService {
	return &LegacyService{
		logger: logger,
		db:     db,
		hasher: hasher,
		target: target,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *LegacyService) Program() string {
	return "stamps"
}

// текущее состояние карты
func (s *LegacyService) GetState(ctx context.Context, userID string) (model.LegacyState, error) {
	stamps, err := s.db.GetStamps(ctx, userID)
	if err != nil {
		return model.LegacyState{}, err
	}
	return s.state(userID, stamps), nil
}

func (s *LegacyService) state(userID string, stamps int) model.LegacyState {
	return model.LegacyState{
		UserID:    userID,
		Stamps:    stamps,
		Target:    s.target,
		Remaining: max(0, s.target-stamps),
		Eligible:  stamps >= s.target,
	}
}

func (s *LegacyService) Summary(ctx context.Context, userID string) (model.LedgerSummary, error) {
	st, err := s.GetState(ctx, userID)
	if err != nil {
		return model.LedgerSummary{}, err
	}
	return model.LedgerSummary{
		Program: s.Program(),
		Balance: st.Stamps,
		Details: map[string]any{
			"target":    st.Target,
			"remaining": st.Remaining,
			"eligible":  st.Eligible,
		},
	}, nil
}

// OnBookingConfirmed adds the booking's stamp within the confirming transaction.
func (s *LegacyService) OnBookingConfirmed(ctx context.Context, tx interf.Tx, ev model.BookingConfirmedEvent) error {
	stamps, err := tx.IncrementStamps(ctx, ev.UserID)
	if err != nil {
		return err
	}
	s.logger.Debug("stamp added",
		zap.String("user", ev.UserID),
		zap.Int("stamps", stamps))
	return nil
}

// GenerateQR issues the reward QR once the card is full.
func (s *LegacyService) GenerateQR(ctx context.Context, userID string) (model.QRCode, error) {
	stamps, err := s.db.GetStamps(ctx, userID)
	if err != nil {
		return model.QRCode{}, err
	}
	if stamps < s.target {
		return model.QRCode{}, model.ErrLoyaltyNotReady
	}

	raw, hash, err := s.hasher.Issue()
	if err != nil {
		return model.QRCode{}, err
	}
	now := s.now()
	expires := now.Add(s.ttl)
	err = s.db.IssueToken(ctx, userID, hash, expires, now)
	if err != nil {
		return model.QRCode{}, err
	}
	return model.QRCode{Payload: qrcode.Encode(qrcode.LegacyPoint, raw), ExpiresAt: expires}, nil
}

// ScanQR redeems a stamp card QR shown in the salon.
func (s *LegacyService) ScanQR(ctx context.Context, payload string) (model.LegacyRedemption, error) {
	p, ok := qrcode.Decode(payload)
	if !ok || !p.Legacy() {
		return model.LegacyRedemption{}, model.ErrInvalidOrExpiredQR
	}
	red, err := s.db.RedeemToken(ctx, s.hasher.Hash(p.Token), s.target, s.now())
	if err != nil {
		if !errors.Is(err, model.ErrInvalidOrExpiredQR) {
			s.logger.Error("legacy redeem", zap.Error(err))
		}
		return model.LegacyRedemption{}, err
	}
	s.logger.Info("stamp card redeemed",
		zap.String("user", red.UserID),
		zap.Int("stamps", red.StampsBefore))
	return red, nil
}

// Redeem spends target stamps without a QR.
func (s *LegacyService) Redeem(ctx context.Context, userID string) (model.LegacyState, error) {
	stamps, err := s.db.RedeemStamps(ctx, userID, s.target)
	if err != nil {
		return model.LegacyState{}, err
	}
	return s.state(userID, stamps), nil
}

func (s *LegacyService) History(ctx context.Context, userID string) ([]model.LegacyRedemption, error) {
	return s.db.History(ctx, userID)
}
