package db

import (
	"context"

	"github.com/danupratama/authgate/internal/notification/entity"
)

const updateDeliveryLogSQL = `
UPDATE notification_delivery_logs
SET status = $2, provider_response = $3, next_retry_at = $4, updated_at = NOW()
WHERE id = $1`

func (s *DB) UpdateDeliveryLogStatus(ctx context.Context, u entity.UpdateDeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateDeliveryLogStatus")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, updateDeliveryLogSQL, u.ID, u.Status, u.ProviderResponse, u.NextRetryAt)
	return s.mapError(err)
}
