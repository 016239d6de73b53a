package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	interf "github.com/glkeru/barbershop/internal/interfaces"
	model "github.com/glkeru/barbershop/internal/models"
	"github.com/glkeru/barbershop/internal/qrcode"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LoyaltyOptions struct {
	EarnTTL             time.Duration
	VoucherTTL          time.Duration
	NearRewardThreshold int
}

// LoyaltyService is the points ledger with tiers, rewards and vouchers.
type LoyaltyService struct {
	logger   *zap.Logger
	db       interf.LoyaltyStorage
	rewards  interf.RewardStorage
	notifier interf.Notifier
	hasher   qrcode.Hasher
	opts     LoyaltyOptions
	now      func() time.Time
}

// notifier may be nil, pushes are skipped then
func NewLoyaltyService(logger *zap.Logger, db interf.LoyaltyStorage, rewards interf.RewardStorage, notifier interf.Notifier, hasher qrcode.Hasher, opts LoyaltyOptions) *LoyaltyService {
	return &LoyaltyService{
		logger:   logger,
		db:       db,
		rewards:  rewards,
		notifier: notifier,
		hasher:   hasher,
		opts:     opts,
		now:      time.Now,
	}
}

type AccountView struct {
	model.Account
	Tier     Tier          `json:"tier"`
	NextTier *TierProgress `json:"nextTier"`
}

type RedeemResult struct {
	VoucherID  uuid.UUID `json:"redemptionId"`
	NewBalance int       `json:"newBalance"`
}

func (s *LoyaltyService) Program() string {
	return "points"
}

// аккаунт с уровнем
func (s *LoyaltyService) GetAccount(ctx context.Context, userID string) (AccountView, error) {
	acct, err := s.db.EnsureAccount(ctx, userID)
	if err != nil {
		return AccountView{}, err
	}
	return AccountView{
		Account:  acct,
		Tier:     TierFor(acct.LifetimeEarned),
		NextTier: NextTier(acct.LifetimeEarned),
	}, nil
}

func (s *LoyaltyService) Summary(ctx context.Context, userID string) (model.LedgerSummary, error) {
	v, err := s.GetAccount(ctx, userID)
	if err != nil {
		return model.LedgerSummary{}, err
	}
	details := map[string]any{
		"tier":           v.Tier,
		"lifetimeEarned": v.LifetimeEarned,
	}
	if v.NextTier != nil {
		details["nextTier"] = v.NextTier
	}
	return model.LedgerSummary{Program: s.Program(), Balance: v.CurrentBalance, Details: details}, nil
}

func (s *LoyaltyService) GenerateQR(ctx context.Context, userID string) (model.QRCode, error) {
	return s.GenerateEarnQR(ctx, userID)
}

// QR для начисления баллов на кассе
func (s *LoyaltyService) GenerateEarnQR(ctx context.Context, userID string) (model.QRCode, error) {
	acct, err := s.db.EnsureAccount(ctx, userID)
	if err != nil {
		return model.QRCode{}, err
	}
	raw, hash, err := s.hasher.Issue()
	if err != nil {
		return model.QRCode{}, err
	}
	expires := s.now().Add(s.opts.EarnTTL)
	err = s.db.IssueEarnToken(ctx, acct.ID, hash, expires)
	if err != nil {
		return model.QRCode{}, err
	}
	return model.QRCode{Payload: qrcode.Encode(qrcode.Earn, raw), ExpiresAt: expires}, nil
}

// AdminEarnPoints credits the price of a service to the account behind an earn QR.
// Missing, used and expired tokens all give INVALID_QR.
func (s *LoyaltyService) AdminEarnPoints(ctx context.Context, payload string, serviceID string) (model.EarnResult, error) {
	p, ok := qrcode.Decode(payload)
	if !ok || p.Type != qrcode.Earn {
		return model.EarnResult{}, model.ErrInvalidQR
	}
	hash := s.hasher.Hash(p.Token)
	now := s.now()

	tok, err := s.db.GetEarnToken(ctx, hash)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.EarnResult{}, model.ErrInvalidQR
		}
		return model.EarnResult{}, err
	}
	if !tok.Redeemable(now) {
		return model.EarnResult{}, model.ErrInvalidQR
	}

	offer, err := s.db.GetOffer(ctx, serviceID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.EarnResult{}, model.ErrOfferNotFound
		}
		return model.EarnResult{}, err
	}
	if !offer.Active {
		return model.EarnResult{}, model.ErrOfferNotFound
	}

	points := PointsForPrice(offer.Price)
	if points <= 0 {
		return model.EarnResult{}, model.ErrValidation.WithMessage("service price gives no points")
	}

	// токен перепроверяется атомарно вместе с начислением
	res, err := s.db.Earn(ctx, hash, offer, points, now)
	if err != nil {
		return model.EarnResult{}, err
	}
	s.logger.Info("points earned",
		zap.String("user", res.UserID),
		zap.String("service", offer.ID),
		zap.Int("points", points),
		zap.Int("balance", res.After.CurrentBalance))

	s.earnNotifications(ctx, res)
	return res, nil
}

func (s *LoyaltyService) earnNotifications(ctx context.Context, res model.EarnResult) {
	balance := res.After.CurrentBalance
	s.notify(ctx, model.Notification{
		UserID: res.UserID,
		Title:  "Points added",
		Body:   fmt.Sprintf("You earned %d points. Your balance is %d.", res.Points, balance),
		Data:   map[string]string{"type": "points_earned"},
	})

	before, after := TierFor(res.Before.LifetimeEarned), TierFor(res.After.LifetimeEarned)
	if before != after {
		s.notify(ctx, model.Notification{
			UserID: res.UserID,
			Title:  "New tier",
			Body:   fmt.Sprintf("Congratulations, you reached %s.", after),
			Data:   map[string]string{"type": "tier_changed", "tier": string(after)},
		})
	}

	cheapest, ok := s.cheapestReward(ctx)
	if ok && cheapest.CostPoints > balance && cheapest.CostPoints-balance <= s.opts.NearRewardThreshold {
		s.notify(ctx, model.Notification{
			UserID: res.UserID,
			Title:  "Almost there",
			Body:   fmt.Sprintf("Only %d points left to %s.", cheapest.CostPoints-balance, cheapest.Name),
			Data:   map[string]string{"type": "near_reward", "rewardId": cheapest.ID.String()},
		})
	}
}

func (s *LoyaltyService) cheapestReward(ctx context.Context) (model.Reward, bool) {
	rewards, err := s.rewards.GetActiveRewards(ctx)
	if err != nil {
		s.logger.Error("active rewards", zap.Error(err))
		return model.Reward{}, false
	}
	var cheapest model.Reward
	found := false
	for _, r := range rewards {
		if !found || r.CostPoints < cheapest.CostPoints {
			cheapest = r
			found = true
		}
	}
	return cheapest, found
}

// push не влияет на результат операции
func (s *LoyaltyService) notify(ctx context.Context, n model.Notification) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Notify(ctx, n)
	if err != nil {
		s.logger.Warn("notification failed",
			zap.String("user", n.UserID),
			zap.String("title", n.Title),
			zap.Error(err))
	}
}

// RedeemReward spends the reward cost and creates a pending voucher.
func (s *LoyaltyService) RedeemReward(ctx context.Context, userID string, rewardID uuid.UUID) (RedeemResult, error) {
	reward, err := s.rewards.GetReward(ctx, rewardID)
	if err != nil {
		return RedeemResult{}, err
	}
	if !reward.Active {
		return RedeemResult{}, model.ErrNotFound.WithMessage("reward not found")
	}
	acct, err := s.db.EnsureAccount(ctx, userID)
	if err != nil {
		return RedeemResult{}, err
	}
	v, balance, err := s.db.Redeem(ctx, acct.ID, reward, s.now())
	if err != nil {
		return RedeemResult{}, err
	}
	s.logger.Info("reward redeemed",
		zap.String("user", userID),
		zap.String("reward", reward.ID.String()),
		zap.String("voucher", v.ID.String()),
		zap.Int("balance", balance))
	return RedeemResult{VoucherID: v.ID, NewBalance: balance}, nil
}

// GenerateVoucherQR issues a QR for a pending voucher; only the latest one is valid.
func (s *LoyaltyService) GenerateVoucherQR(ctx context.Context, userID string, voucherID uuid.UUID) (model.QRCode, error) {
	acct, err := s.db.EnsureAccount(ctx, userID)
	if err != nil {
		return model.QRCode{}, err
	}
	v, err := s.db.GetVoucher(ctx, voucherID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.QRCode{}, model.ErrInvalidOrExpiredQR
		}
		return model.QRCode{}, err
	}
	if v.AccountID != acct.ID || v.Status != model.VoucherPending {
		return model.QRCode{}, model.ErrInvalidOrExpiredQR
	}

	raw, hash, err := s.hasher.Issue()
	if err != nil {
		return model.QRCode{}, err
	}
	expires := s.now().Add(s.opts.VoucherTTL)
	err = s.db.SetVoucherQR(ctx, v.ID, acct.ID, hash, expires)
	if err != nil {
		return model.QRCode{}, err
	}
	return model.QRCode{Payload: qrcode.Encode(qrcode.Voucher, raw), ExpiresAt: expires}, nil
}

// AdminRedeemVoucher marks the voucher behind the QR as used. Balance is not touched.
func (s *LoyaltyService) AdminRedeemVoucher(ctx context.Context, payload string) (model.Voucher, error) {
	p, ok := qrcode.Decode(payload)
	if !ok || p.Type != qrcode.Voucher {
		return model.Voucher{}, model.ErrInvalidOrExpiredQR
	}
	v, userID, err := s.db.UseVoucher(ctx, s.hasher.Hash(p.Token), s.now())
	if err != nil {
		return model.Voucher{}, err
	}
	s.logger.Info("voucher used",
		zap.String("user", userID),
		zap.String("voucher", v.ID.String()))

	s.notify(ctx, model.Notification{
		UserID: userID,
		Title:  "Reward used",
		Body:   "Your reward has been redeemed. Enjoy!",
		Data:   map[string]string{"type": "voucher_used", "redemptionId": v.ID.String()},
	})
	return v, nil
}

const (
	defaultTxLimit = 50
	maxTxLimit     = 200
)

func (s *LoyaltyService) ListTransactions(ctx context.Context, userID string, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = defaultTxLimit
	}
	limit = min(limit, maxTxLimit)
	acct, err := s.db.EnsureAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.db.ListTransactions(ctx, acct.ID, limit)
}

func (s *LoyaltyService) ListRedemptions(ctx context.Context, userID string) ([]model.Voucher, error) {
	acct, err := s.db.EnsureAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.db.ListVouchers(ctx, acct.ID)
}

// каталог для приложения
func (s *LoyaltyService) ListRewards(ctx context.Context) ([]model.Reward, error) {
	return s.rewards.GetActiveRewards(ctx)
}

func (s *LoyaltyService) AllRewards(ctx context.Context) ([]model.Reward, error) {
	return s.rewards.GetAllRewards(ctx)
}

// SaveReward creates or replaces a catalog entry.
func (s *LoyaltyService) SaveReward(ctx context.Context, reward model.Reward) (model.Reward, error) {
	if reward.Name == "" {
		return model.Reward{}, model.ErrValidation.WithMessage("name is required")
	}
	if reward.CostPoints <= 0 {
		return model.Reward{}, model.ErrValidation.WithMessage("costPoints must be positive")
	}
	if reward.ID == uuid.Nil {
		reward.ID = uuid.New()
	}
	return s.rewards.SaveReward(ctx, reward)
}

// прайс услуг для начисления
func (s *LoyaltyService) SaveOffer(ctx context.Context, offer model.Offer) (model.Offer, error) {
	if offer.ID == "" || offer.Name == "" {
		return model.Offer{}, model.ErrValidation.WithMessage("id and name are required")
	}
	if offer.Price < 0 {
		return model.Offer{}, model.ErrValidation.WithMessage("price must not be negative")
	}
	err := s.db.SaveOffer(ctx, offer)
	if err != nil {
		return model.Offer{}, err
	}
	return offer, nil
}

func (s *LoyaltyService) ListOffers(ctx context.Context) ([]model.Offer, error) {
	return s.db.ListOffers(ctx)
}
