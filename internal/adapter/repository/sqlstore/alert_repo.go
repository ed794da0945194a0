package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/simaogato/pricewatch-backend/internal/domain"
)

// alertRepository implements domain.AlertRepository
type alertRepository struct {
	db *DB
}

// NewAlertRepository creates a new triggered alert repository
func NewAlertRepository(db *DB) domain.AlertRepository {
	return &alertRepository{db: db}
}

// Create appends a triggered alert
func (r *alertRepository) Create(ctx context.Context, alert *domain.TriggeredAlert) error {
	details := alert.Details
	if details == nil {
		details = domain.AlertDetails{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode alert details: %w", err)
	}

	query := r.db.rebind(`
		INSERT INTO triggered_alerts (alert_rule_id, tracked_item_id, snapshot_id, message, details_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	createdAt := time.Now().UTC()
	err = r.db.QueryRowContext(ctx, query,
		alert.RuleID,
		alert.TrackedItemID,
		alert.SnapshotID,
		alert.Message,
		string(detailsJSON),
		createdAt,
	).Scan(&alert.ID)
	if err != nil {
		return unavailable("failed to insert triggered alert", err)
	}
	alert.CreatedAt = createdAt

	return nil
}

// ListByUser retrieves the alerts of every item owned by the user, newest first
func (r *alertRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.TriggeredAlert, error) {
	query := r.db.rebind(`
		SELECT ta.id, ta.alert_rule_id, ta.tracked_item_id, ta.snapshot_id, ta.message, ta.details_json, ta.created_at
		FROM triggered_alerts ta
		JOIN tracked_items ti ON ti.id = ta.tracked_item_id
		WHERE ti.user_id = ?
		ORDER BY ta.id DESC
	`)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, unavailable("failed to query triggered alerts", err)
	}
	defer rows.Close()

	alerts := make([]*domain.TriggeredAlert, 0)
	for rows.Next() {
		var alert domain.TriggeredAlert
		var detailsJSON []byte

		err := rows.Scan(
			&alert.ID,
			&alert.RuleID,
			&alert.TrackedItemID,
			&alert.SnapshotID,
			&alert.Message,
			&detailsJSON,
			&alert.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan triggered alert: %w", err)
		}

		if err := json.Unmarshal(detailsJSON, &alert.Details); err != nil {
			return nil, fmt.Errorf("failed to decode alert details: %w", err)
		}

		alerts = append(alerts, &alert)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("error iterating triggered alerts", err)
	}

	return alerts, nil
}
