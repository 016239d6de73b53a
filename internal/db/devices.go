package db

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	model "github.com/glkeru/barbershop/internal/models"
	"go.uber.org/zap"
)

// Токен устройства принадлежит последнему зарегистрировавшему его пользователю
func (p *DB) SaveDevice(ctx context.Context, d model.Device) error {
	_, err := p.exec(ctx, p.pool, psql.Insert("devices").
		Columns("token", "user_id", "platform", "updated_at").
		Values(d.Token, d.UserID, d.Platform, d.UpdatedAt).
		Suffix("ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, updated_at = EXCLUDED.updated_at"))
	return err
}

func (p *DB) GetDevices(ctx context.Context, userID string) ([]model.Device, error) {
	rows, err := p.query(ctx, p.pool, psql.Select("token", "user_id", "platform", "updated_at").
		From("devices").
		Where(sq.Eq{"user_id": userID}))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Device
	for rows.Next() {
		var d model.Device
		err = rows.Scan(&d.Token, &d.UserID, &d.Platform, &d.UpdatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// PurgeExpired deletes unused tokens and reservations that expired before the given time.
func (p *DB) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"loyalty_redemption_tokens", "loyalty_account_qr_tokens", "timify_reservations"} {
		tag, err := p.exec(ctx, p.pool, psql.Delete(table).
			Where(sq.Eq{"used_at": nil}).
			Where(sq.Lt{"expires_at": before}))
		if err != nil {
			return total, err
		}
		p.logger.Info("purged",
			zap.String("table", table),
			zap.Int64("rows", tag.RowsAffected()))
		total += tag.RowsAffected()
	}
	return total, nil
}
