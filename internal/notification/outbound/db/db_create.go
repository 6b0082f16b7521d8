package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danupratama/authgate/internal/notification/entity"
	"github.com/jackc/pgx/v5"
)

const createNotificationSQL = `
INSERT INTO notifications (id, user_id, category_id, trigger_key, data, metadata)
VALUES ($1, $2, $3, $4, $5, $6)`

const createDeliveryLogSQL = `
INSERT INTO notification_delivery_logs (notification_id, channel, status)
VALUES ($1, $2, $3)
RETURNING id`

func (s *DB) CreateNotification(ctx context.Context, data entity.CreateNotification) (err error) {
	ctx, span := s.startSpan(ctx, "CreateNotification")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, createNotificationSQL,
		data.ID, data.UserID, data.CategoryID, data.TriggerKey.String(), data.Data, data.Metadata)
	return s.mapError(err)
}

func (s *DB) CreateNotificationWithDeliveryLog(ctx context.Context, n entity.CreateNotification, dl entity.CreateDeliveryLog) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CreateNotificationWithDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	if _, err := tx.Exec(ctx, createNotificationSQL,
		n.ID, n.UserID, n.CategoryID, n.TriggerKey.String(), n.Data, n.Metadata); err != nil {
		return 0, s.mapError(err)
	}

	var logID int64
	if err := tx.QueryRow(ctx, createDeliveryLogSQL,
		dl.NotificationID, dl.Channel, dl.Status).Scan(&logID); err != nil {
		return 0, s.mapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return logID, nil
}
