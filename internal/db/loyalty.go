package db

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	model "github.com/glkeru/barbershop/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v5"
)

var accountColumns = []string{"id", "user_id", "current_balance", "lifetime_earned", "enrolled_at"}

func scanAccount(row pgx.Row, a *model.Account) error {
	var id pgtype.UUID
	err := row.Scan(&id, &a.UserID, &a.CurrentBalance, &a.LifetimeEarned, &a.EnrolledAt)
	if err != nil {
		return err
	}
	a.ID = fromPG(id)
	return nil
}

// Аккаунт создается при первом обращении, гонку решает уникальный user_id
func (p *DB) EnsureAccount(ctx context.Context, userID string) (model.Account, error) {
	_, err := p.exec(ctx, p.pool, psql.Insert("loyalty_accounts").
		Columns("id", "user_id").
		Values(uuid.New(), userID).
		Suffix("ON CONFLICT (user_id) DO NOTHING"))
	if err != nil {
		return model.Account{}, err
	}

	sql, args, err := psql.Select(accountColumns...).
		From("loyalty_accounts").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return model.Account{}, err
	}
	var a model.Account
	err = scanAccount(p.pool.QueryRow(ctx, sql, args...), &a)
	if err != nil {
		p.logSQL(err, sql, args)
		return model.Account{}, err
	}
	return a, nil
}

func (p *DB) IssueEarnToken(ctx context.Context, accountID uuid.UUID, hash string, expiresAt time.Time) error {
	_, err := p.exec(ctx, p.pool, psql.Insert("loyalty_account_qr_tokens").
		Columns("id", "account_id", "token_hash", "expires_at").
		Values(uuid.New(), accountID, hash, expiresAt))
	return err
}

func (p *DB) GetEarnToken(ctx context.Context, hash string) (model.QRToken, error) {
	var (
		t             model.QRToken
		id, accountID pgtype.UUID
	)
	err := p.scanOne(ctx, p.pool, psql.Select("id", "account_id", "token_hash", "expires_at", "used_at", "created_at").
		From("loyalty_account_qr_tokens").
		Where(sq.Eq{"token_hash": hash}),
		&id, &accountID, &t.TokenHash, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		return model.QRToken{}, notFound(err, model.ErrNotFound)
	}
	t.ID = fromPG(id)
	t.OwnerID = fromPG(accountID).String()
	return t, nil
}

func consumeEarnTokenQuery(hash string, now time.Time) sq.UpdateBuilder {
	return psql.Update("loyalty_account_qr_tokens").
		Set("used_at", now).
		Where(sq.Eq{"token_hash": hash, "used_at": nil}).
		Where(sq.Gt{"expires_at": now}).
		Suffix("RETURNING account_id")
}

// Баланс не уходит в минус
func debitQuery(accountID uuid.UUID, cost int) sq.UpdateBuilder {
	return psql.Update("loyalty_accounts").
		Set("current_balance", sq.Expr("current_balance - ?", cost)).
		Where(sq.Eq{"id": accountID}).
		Where(sq.GtOrEq{"current_balance": cost}).
		Suffix("RETURNING current_balance")
}

// Начисление: токен гасится условным UPDATE, баланс меняется арифметикой в SQL
func (p *DB) Earn(ctx context.Context, hash string, offer model.Offer, points int, now time.Time) (res model.EarnResult, err error) {
	err = p.inTx(ctx, func(tx pgx.Tx) error {
		var accountID pgtype.UUID
		err := p.scanOne(ctx, tx, consumeEarnTokenQuery(hash, now), &accountID)
		if err != nil {
			return notFound(err, model.ErrInvalidQR)
		}

		sql, args, err := psql.Update("loyalty_accounts").
			Set("current_balance", sq.Expr("current_balance + ?", points)).
			Set("lifetime_earned", sq.Expr("lifetime_earned + ?", points)).
			Where(sq.Eq{"id": fromPG(accountID)}).
			Suffix("RETURNING id, user_id, current_balance, lifetime_earned, enrolled_at").
			ToSql()
		if err != nil {
			return err
		}
		err = scanAccount(tx.QueryRow(ctx, sql, args...), &res.After)
		if err != nil {
			p.logSQL(err, sql, args)
			return err
		}
		res.Before = res.After
		res.Before.CurrentBalance -= points
		res.Before.LifetimeEarned -= points
		res.UserID = res.After.UserID
		res.Points = points

		res.Transaction = model.Transaction{
			ID:          uuid.New(),
			AccountID:   res.After.ID,
			Type:        model.TxEarn,
			Points:      points,
			Description: "Earned for " + offer.Name,
			ReferenceID: offer.ID,
			CreatedAt:   now,
		}
		return p.insertTransaction(ctx, tx, res.Transaction)
	})
	if err != nil {
		return model.EarnResult{}, err
	}
	return res, nil
}

func (p *DB) insertTransaction(ctx context.Context, q querier, t model.Transaction) error {
	_, err := p.exec(ctx, q, psql.Insert("loyalty_transactions").
		Columns("id", "account_id", "type", "points", "description", "reference_id", "created_at").
		Values(t.ID, t.AccountID, t.Type, t.Points, t.Description, t.ReferenceID, t.CreatedAt))
	return err
}

// Списание за награду: баланс уменьшается только если его хватает
func (p *DB) Redeem(ctx context.Context, accountID uuid.UUID, reward model.Reward, now time.Time) (v model.Voucher, balance int, err error) {
	err = p.inTx(ctx, func(tx pgx.Tx) error {
		err := p.scanOne(ctx, tx, debitQuery(accountID, reward.CostPoints), &balance)
		if err != nil {
			return notFound(err, model.ErrInsufficientPoints)
		}

		v = model.Voucher{
			ID:          uuid.New(),
			AccountID:   accountID,
			RewardID:    reward.ID,
			PointsSpent: reward.CostPoints,
			Status:      model.VoucherPending,
			RedeemedAt:  now,
		}
		_, err = p.exec(ctx, tx, psql.Insert("loyalty_redemption_vouchers").
			Columns("id", "account_id", "reward_id", "points_spent", "status", "redeemed_at").
			Values(v.ID, v.AccountID, v.RewardID, v.PointsSpent, v.Status, v.RedeemedAt))
		if err != nil {
			return err
		}

		return p.insertTransaction(ctx, tx, model.Transaction{
			ID:          uuid.New(),
			AccountID:   accountID,
			Type:        model.TxRedeem,
			Points:      -reward.CostPoints,
			Description: "Redeemed " + reward.Name,
			ReferenceID: v.ID.String(),
			CreatedAt:   now,
		})
	})
	if err != nil {
		return model.Voucher{}, 0, err
	}
	return v, balance, nil
}

var voucherColumns = []string{"id", "account_id", "reward_id", "points_spent", "status",
	"qr_token_hash", "qr_expires_at", "qr_used_at", "redeemed_at", "used_at"}

func scanVoucher(row pgx.Row, v *model.Voucher, extra ...any) error {
	var id, accountID, rewardID pgtype.UUID
	dest := append([]any{&id, &accountID, &rewardID, &v.PointsSpent, &v.Status,
		&v.QRTokenHash, &v.QRExpiresAt, &v.QRUsedAt, &v.RedeemedAt, &v.UsedAt}, extra...)
	err := row.Scan(dest...)
	if err != nil {
		return err
	}
	v.ID, v.AccountID, v.RewardID = fromPG(id), fromPG(accountID), fromPG(rewardID)
	return nil
}

func (p *DB) GetVoucher(ctx context.Context, id uuid.UUID) (model.Voucher, error) {
	sql, args, err := psql.Select(voucherColumns...).
		From("loyalty_redemption_vouchers").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Voucher{}, err
	}
	var v model.Voucher
	err = scanVoucher(p.pool.QueryRow(ctx, sql, args...), &v)
	if err != nil {
		return model.Voucher{}, notFound(err, model.ErrNotFound.WithMessage("redemption not found"))
	}
	return v, nil
}

// Новый QR ваучера перезаписывает прежний
func (p *DB) SetVoucherQR(ctx context.Context, id uuid.UUID, accountID uuid.UUID, hash string, expiresAt time.Time) error {
	tag, err := p.exec(ctx, p.pool, psql.Update("loyalty_redemption_vouchers").
		Set("qr_token_hash", hash).
		Set("qr_expires_at", expiresAt).
		Set("qr_used_at", nil).
		Where(sq.Eq{"id": id, "account_id": accountID, "status": model.VoucherPending}))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrInvalidOrExpiredQR
	}
	return nil
}

const useVoucherSQL = `
UPDATE loyalty_redemption_vouchers v
SET status = 'USED', used_at = $2, qr_used_at = $2
FROM loyalty_accounts a
WHERE v.qr_token_hash = $1
  AND v.status = 'PENDING'
  AND v.qr_used_at IS NULL
  AND v.qr_expires_at > $2
  AND a.id = v.account_id
RETURNING v.id, v.account_id, v.reward_id, v.points_spent, v.status,
  v.qr_token_hash, v.qr_expires_at, v.qr_used_at, v.redeemed_at, v.used_at, a.user_id`

// Погашение ваучера на кассе, одним условным UPDATE
func (p *DB) UseVoucher(ctx context.Context, hash string, now time.Time) (model.Voucher, string, error) {
	var (
		v      model.Voucher
		userID string
	)
	err := scanVoucher(p.pool.QueryRow(ctx, useVoucherSQL, hash, now), &v, &userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			p.logSQL(err, useVoucherSQL, []any{hash, now})
		}
		return model.Voucher{}, "", notFound(err, model.ErrInvalidOrExpiredQR)
	}
	return v, userID, nil
}

func (p *DB) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]model.Transaction, error) {
	rows, err := p.query(ctx, p.pool, psql.Select("id", "account_id", "type", "points", "description", "reference_id", "created_at").
		From("loyalty_transactions").
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var (
			t       model.Transaction
			id, acc pgtype.UUID
		)
		err = rows.Scan(&id, &acc, &t.Type, &t.Points, &t.Description, &t.ReferenceID, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		t.ID, t.AccountID = fromPG(id), fromPG(acc)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *DB) ListVouchers(ctx context.Context, accountID uuid.UUID) ([]model.Voucher, error) {
	rows, err := p.query(ctx, p.pool, psql.Select(voucherColumns...).
		From("loyalty_redemption_vouchers").
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("redeemed_at DESC"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Voucher
	for rows.Next() {
		var v model.Voucher
		err = scanVoucher(rows, &v)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Услуги с ценами

func (p *DB) GetOffer(ctx context.Context, id string) (model.Offer, error) {
	var o model.Offer
	err := p.scanOne(ctx, p.pool, psql.Select("id", "name", "price", "is_active").
		From("offers").
		Where(sq.Eq{"id": id}), &o.ID, &o.Name, &o.Price, &o.Active)
	if err != nil {
		return model.Offer{}, notFound(err, model.ErrNotFound)
	}
	return o, nil
}

func (p *DB) SaveOffer(ctx context.Context, o model.Offer) error {
	_, err := p.exec(ctx, p.pool, psql.Insert("offers").
		Columns("id", "name", "price", "is_active").
		Values(o.ID, o.Name, o.Price, o.Active).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price, is_active = EXCLUDED.is_active"))
	return err
}

func (p *DB) ListOffers(ctx context.Context) ([]model.Offer, error) {
	rows, err := p.query(ctx, p.pool, psql.Select("id", "name", "price", "is_active").
		From("offers").
		OrderBy("id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Offer
	for rows.Next() {
		var o model.Offer
		err = rows.Scan(&o.ID, &o.Name, &o.Price, &o.Active)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
