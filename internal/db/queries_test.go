package db

import (
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	model "github.com/glkeru/barbershop/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestConditionalQueries(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	id := uuid.MustParse("9b0f2c4e-6a1d-4f53-8c1e-2f7d9a3b5c60")

	tests := []struct {
		name  string
		query sq.Sqlizer
		sql   string
		args  []any
	}{
		{
			name:  "legacy token consume",
			query: consumeLegacyTokenQuery("h1", now),
			sql:   "UPDATE loyalty_redemption_tokens SET used_at = $1 WHERE token_hash = $2 AND used_at IS NULL AND expires_at > $3 RETURNING id, user_id",
			args:  []any{now, "h1", now},
		},
		{
			name:  "legacy tokens expire",
			query: expireLegacyTokensQuery("u1", now),
			sql:   "UPDATE loyalty_redemption_tokens SET expires_at = $1 WHERE used_at IS NULL AND user_id = $2 AND expires_at > $3",
			args:  []any{now, "u1", now},
		},
		{
			name:  "user lock",
			query: lockUserQuery("u1"),
			sql:   "SELECT pg_advisory_xact_lock(hashtext($1))",
			args:  []any{"u1"},
		},
		{
			name:  "full card",
			query: fullCardQuery("u1", 10),
			sql:   "SELECT stamps FROM loyalty_state WHERE user_id = $1 AND stamps >= $2 FOR UPDATE",
			args:  []any{"u1", 10},
		},
		{
			name:  "stamps redeem",
			query: redeemStampsQuery("u1", 10),
			sql:   "UPDATE loyalty_state SET stamps = stamps - $1, updated_at = now() WHERE user_id = $2 AND stamps >= $3 RETURNING stamps",
			args:  []any{10, "u1", 10},
		},
		{
			name:  "earn token consume",
			query: consumeEarnTokenQuery("h2", now),
			sql:   "UPDATE loyalty_account_qr_tokens SET used_at = $1 WHERE token_hash = $2 AND used_at IS NULL AND expires_at > $3 RETURNING account_id",
			args:  []any{now, "h2", now},
		},
		{
			name:  "balance debit",
			query: debitQuery(id, 150),
			sql:   "UPDATE loyalty_accounts SET current_balance = current_balance - $1 WHERE id = $2 AND current_balance >= $3 RETURNING current_balance",
			args:  []any{150, id.String(), 150},
		},
		{
			name:  "reservation consume",
			query: consumeReservationQuery(id, now),
			sql:   "UPDATE timify_reservations SET used_at = $1 WHERE id = $2 AND used_at IS NULL AND expires_at > $3",
			args:  []any{now, id.String(), now},
		},
	}
	for _, ts := range tests {
		t.Run(ts.name, func(t *testing.T) {
			sql, args, err := ts.query.ToSql()
			require.NoError(t, err)
			require.Equal(t, ts.sql, sql)
			require.Equal(t, ts.args, args)
		})
	}
}

func TestListBookingsQuery(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	after := &model.Cursor{Start: now.Add(time.Hour), ID: uuid.MustParse("0c5a8e1b-3d7f-4b2a-9e6c-1a4f8d2b7e90")}
	const columns = "SELECT id, user_id, branch_id, service_id, resource_id, start_date_time, timify_appointment_id, status, created_at FROM bookings"

	tests := []struct {
		name  string
		query model.BookingQuery
		sql   string
		args  []any
	}{
		{
			name:  "upcoming after cursor",
			query: model.BookingQuery{UserID: "u1", Status: model.FilterUpcoming, Now: now, After: after, Limit: 21},
			sql:   columns + " WHERE user_id = $1 AND status = $2 AND start_date_time >= $3 AND (start_date_time, id) > ($4, $5) ORDER BY start_date_time ASC, id ASC LIMIT 21",
			args:  []any{"u1", model.BookingConfirmed, now, after.Start, after.ID},
		},
		{
			name:  "past after cursor",
			query: model.BookingQuery{UserID: "u1", Status: model.FilterPast, Now: now, After: after, Limit: 21},
			sql:   columns + " WHERE user_id = $1 AND (start_date_time < $2 OR status = $3) AND (start_date_time, id) < ($4, $5) ORDER BY start_date_time DESC, id DESC LIMIT 21",
			args:  []any{"u1", now, model.BookingCanceled, after.Start, after.ID},
		},
		{
			name:  "all first page",
			query: model.BookingQuery{UserID: "u1", Status: model.FilterAll, Now: now},
			sql:   columns + " WHERE user_id = $1 ORDER BY start_date_time DESC, id DESC",
			args:  []any{"u1"},
		},
	}
	for _, ts := range tests {
		t.Run(ts.name, func(t *testing.T) {
			sql, args, err := listBookingsQuery(ts.query).ToSql()
			require.NoError(t, err)
			require.Equal(t, ts.sql, sql)
			require.Equal(t, ts.args, args)
		})
	}
}

func TestUseVoucherSQL(t *testing.T) {
	for _, cond := range []string{
		"v.status = 'PENDING'",
		"v.qr_used_at IS NULL",
		"v.qr_expires_at > $2",
		"v.qr_token_hash = $1",
		"SET status = 'USED'",
	} {
		require.Contains(t, useVoucherSQL, cond)
	}
}
