package db

import (
	"context"

	"github.com/danupratama/authgate/internal/notification/entity"
)

const getTemplateSQL = `
SELECT id, trigger_key, category_id, channel, subject, body
FROM notification_templates
WHERE trigger_key = $1 AND channel = $2 AND is_active = TRUE
LIMIT 1`

func (s *DB) GetTemplateByTriggerChannel(ctx context.Context, tk entity.TriggerKey, ch entity.Channel) (_ *entity.Template, err error) {
	ctx, span := s.startSpan(ctx, "GetTemplateByTriggerChannel")
	defer func() { s.endSpan(span, err) }()

	var tpl entity.Template
	err = s.conn.QueryRow(ctx, getTemplateSQL, tk.String(), ch).
		Scan(&tpl.ID, &tpl.TriggerKey, &tpl.CategoryID, &tpl.Channel, &tpl.Subject, &tpl.Body)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &tpl, nil
}
