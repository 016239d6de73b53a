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

// Кол-во штампов
func (p *DB) GetStamps(ctx context.Context, userID string) (int, error) {
	var stamps int
	err := p.scanOne(ctx, p.pool, psql.Select("stamps").
		From("loyalty_state").
		Where(sq.Eq{"user_id": userID}), &stamps)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return stamps, err
}

// Выпуск QR одного пользователя сериализуется до конца транзакции
func lockUserQuery(userID string) sq.SelectBuilder {
	return psql.Select().Column(sq.Expr("pg_advisory_xact_lock(hashtext(?))", userID))
}

func expireLegacyTokensQuery(userID string, now time.Time) sq.UpdateBuilder {
	return psql.Update("loyalty_redemption_tokens").
		Set("expires_at", now).
		Where(sq.Eq{"user_id": userID, "used_at": nil}).
		Where(sq.Gt{"expires_at": now})
}

func consumeLegacyTokenQuery(hash string, now time.Time) sq.UpdateBuilder {
	return psql.Update("loyalty_redemption_tokens").
		Set("used_at", now).
		Where(sq.Eq{"token_hash": hash, "used_at": nil}).
		Where(sq.Gt{"expires_at": now}).
		Suffix("RETURNING id, user_id")
}

// Карта блокируется и читается только если штампов хватает
func fullCardQuery(userID string, target int) sq.SelectBuilder {
	return psql.Select("stamps").
		From("loyalty_state").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{"stamps": target}).
		Suffix("FOR UPDATE")
}

func redeemStampsQuery(userID string, target int) sq.UpdateBuilder {
	return psql.Update("loyalty_state").
		Set("stamps", sq.Expr("stamps - ?", target)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{"stamps": target}).
		Suffix("RETURNING stamps")
}

// Новый QR: прежние активные токены пользователя гасятся
func (p *DB) IssueToken(ctx context.Context, userID string, hash string, expiresAt time.Time, now time.Time) error {
	return p.inTx(ctx, func(tx pgx.Tx) error {
		_, err := p.exec(ctx, tx, lockUserQuery(userID))
		if err != nil {
			return err
		}
		_, err = p.exec(ctx, tx, expireLegacyTokensQuery(userID, now))
		if err != nil {
			return err
		}
		_, err = p.exec(ctx, tx, psql.Insert("loyalty_redemption_tokens").
			Columns("id", "user_id", "token_hash", "expires_at", "created_at").
			Values(uuid.New(), userID, hash, expiresAt, now))
		return err
	})
}

// Погашение QR: токен, история и сброс штампов в одной транзакции.
// Условный UPDATE выигрывает ровно один из конкурентных запросов.
// Если штампы уже списаны без QR, токен не гасится.
func (p *DB) RedeemToken(ctx context.Context, hash string, target int, now time.Time) (red model.LegacyRedemption, err error) {
	err = p.inTx(ctx, func(tx pgx.Tx) error {
		var tokenID pgtype.UUID
		err := p.scanOne(ctx, tx, consumeLegacyTokenQuery(hash, now), &tokenID, &red.UserID)
		if err != nil {
			return notFound(err, model.ErrInvalidOrExpiredQR)
		}
		red.TokenID = fromPG(tokenID)

		err = p.scanOne(ctx, tx, fullCardQuery(red.UserID, target), &red.StampsBefore)
		if err != nil {
			return notFound(err, model.ErrInvalidOrExpiredQR)
		}

		red.ID = uuid.New()
		red.RedeemedAt = now
		_, err = p.exec(ctx, tx, psql.Insert("loyalty_redemptions").
			Columns("id", "user_id", "token_id", "stamps_before", "redeemed_at").
			Values(red.ID, red.UserID, red.TokenID, red.StampsBefore, red.RedeemedAt))
		if err != nil {
			return err
		}

		_, err = p.exec(ctx, tx, psql.Update("loyalty_state").
			Set("stamps", 0).
			Set("updated_at", now).
			Where(sq.Eq{"user_id": red.UserID}))
		return err
	})
	if err != nil {
		return model.LegacyRedemption{}, err
	}
	return red, nil
}

// Списание target штампов без QR
func (p *DB) RedeemStamps(ctx context.Context, userID string, target int) (int, error) {
	var stamps int
	err := p.scanOne(ctx, p.pool, redeemStampsQuery(userID, target), &stamps)
	if err != nil {
		return 0, notFound(err, model.ErrLoyaltyNotReady)
	}
	return stamps, nil
}

func (p *DB) History(ctx context.Context, userID string) ([]model.LegacyRedemption, error) {
	rows, err := p.query(ctx, p.pool, psql.Select("id", "user_id", "token_id", "stamps_before", "redeemed_at").
		From("loyalty_redemptions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("redeemed_at DESC"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LegacyRedemption
	for rows.Next() {
		var (
			r           model.LegacyRedemption
			id, tokenID pgtype.UUID
		)
		err = rows.Scan(&id, &r.UserID, &tokenID, &r.StampsBefore, &r.RedeemedAt)
		if err != nil {
			return nil, err
		}
		r.ID, r.TokenID = fromPG(id), fromPG(tokenID)
		out = append(out, r)
	}
	return out, rows.Err()
}

// +1 штамп, внутри транзакции подтверждения брони
func (p *DB) incrementStamps(ctx context.Context, q querier, userID string) (int, error) {
	var stamps int
	err := p.scanOne(ctx, q, psql.Insert("loyalty_state").
		Columns("user_id", "stamps", "updated_at").
		Values(userID, 1, sq.Expr("now()")).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET stamps = loyalty_state.stamps + 1, updated_at = now() RETURNING stamps"),
		&stamps)
	return stamps, err
}
