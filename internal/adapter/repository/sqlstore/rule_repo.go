package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/simaogato/pricewatch-backend/internal/domain"
)

// ruleRepository implements domain.RuleRepository
type ruleRepository struct {
	db *DB
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *DB) domain.RuleRepository {
	return &ruleRepository{db: db}
}

// Create creates a new rule
func (r *ruleRepository) Create(ctx context.Context, rule *domain.Rule) error {
	params := rule.Params
	if params == nil {
		params = domain.RuleParams{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode rule params: %w", err)
	}

	query := r.db.rebind(`
		INSERT INTO alert_rules (tracked_item_id, rule_type, params_json, is_enabled, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)

	err = r.db.QueryRowContext(ctx, query,
		rule.TrackedItemID,
		string(rule.Type),
		string(paramsJSON),
		rule.IsEnabled,
		time.Now().UTC(),
	).Scan(&rule.ID)
	if err != nil {
		return unavailable("failed to create rule", err)
	}

	return nil
}

// ListEnabledByItem retrieves the enabled rules of a tracked item.
// Rows whose params cannot be decoded are returned with empty params.
func (r *ruleRepository) ListEnabledByItem(ctx context.Context, trackedItemID int64) ([]*domain.Rule, error) {
	query := r.db.rebind(`
		SELECT id, tracked_item_id, rule_type, params_json, is_enabled, last_triggered_snapshot_id
		FROM alert_rules
		WHERE tracked_item_id = ? AND is_enabled = ?
		ORDER BY id ASC
	`)

	rows, err := r.db.QueryContext(ctx, query, trackedItemID, true)
	if err != nil {
		return nil, unavailable("failed to query rules", err)
	}
	defer rows.Close()

	rules := make([]*domain.Rule, 0)
	for rows.Next() {
		var rule domain.Rule
		var ruleType string
		var paramsJSON []byte
		var lastTriggered sql.NullInt64

		err := rows.Scan(
			&rule.ID,
			&rule.TrackedItemID,
			&ruleType,
			&paramsJSON,
			&rule.IsEnabled,
			&lastTriggered,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}

		// stored casing may differ from the enumeration
		rule.Type = domain.RuleType(strings.ToUpper(strings.TrimSpace(ruleType)))
		params, err := domain.ParseRuleParams(paramsJSON)
		if err != nil {
			params = domain.RuleParams{}
		}
		rule.Params = params
		if lastTriggered.Valid {
			id := lastTriggered.Int64
			rule.LastTriggeredSnapshotID = &id
		}

		rules = append(rules, &rule)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("error iterating rules", err)
	}

	return rules, nil
}

// UpdateLastTriggered records the snapshot that last made the rule fire
func (r *ruleRepository) UpdateLastTriggered(ctx context.Context, ruleID, snapshotID int64) error {
	query := r.db.rebind(`UPDATE alert_rules SET last_triggered_snapshot_id = ? WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, snapshotID, ruleID)
	if err != nil {
		return unavailable("failed to update rule last triggered snapshot", err)
	}
	return requireAffected(res, fmt.Sprintf("rule %d", ruleID))
}

// Disable stops a rule from being evaluated
func (r *ruleRepository) Disable(ctx context.Context, ruleID int64) error {
	query := r.db.rebind(`UPDATE alert_rules SET is_enabled = ? WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, false, ruleID)
	if err != nil {
		return unavailable("failed to disable rule", err)
	}
	return requireAffected(res, fmt.Sprintf("rule %d", ruleID))
}
