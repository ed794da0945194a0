package cycle

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/pricewatch-backend/internal/domain"
)

// Step names one stage of the per-item pipeline
type Step string

const (
	StepSchedule        Step = "schedule"
	StepLatestSnapshot  Step = "latest_snapshot"
	StepRules           Step = "load_rules"
	StepLookup          Step = "catalog_lookup"
	StepPersistSnapshot Step = "persist_snapshot"
	StepPersistAlerts   Step = "persist_alerts"
)

// StepError is the failure of one pipeline step for one tracked item
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ItemResult summarises what a cycle did for one tracked item.
// SnapshotID is nil when the item failed before its snapshot was written.
// Step and Error are set only for failed items.
type ItemResult struct {
	TrackedItemID  int64
	Marketplace    string
	ExternalID     string
	SnapshotID     *int64
	TriggeredCount int
	Triggered      []domain.FiredRule
	Failed         bool
	Step           Step
	Error          string
}

// Result is the outcome of one cycle run. Items keep the order in which the
// tracked items were listed.
type Result struct {
	RunID      uuid.UUID
	UserID     int64
	StartedAt  time.Time
	FinishedAt time.Time
	Items      []ItemResult
}

// FailedCount returns how many items failed
func (r *Result) FailedCount() int {
	n := 0
	for _, item := range r.Items {
		if item.Failed {
			n++
		}
	}
	return n
}

// TriggeredCount returns how many alerts were persisted across all items
func (r *Result) TriggeredCount() int {
	n := 0
	for _, item := range r.Items {
		n += item.TriggeredCount
	}
	return n
}

func newItemResult(item *domain.TrackedItem) ItemResult {
	return ItemResult{
		TrackedItemID: item.ID,
		Marketplace:   item.Marketplace,
		ExternalID:    item.ExternalID,
		Triggered:     make([]domain.FiredRule, 0),
	}
}

func (r *ItemResult) fail(err *StepError) {
	r.Failed = true
	r.Step = err.Step
	r.Error = err.Err.Error()
}
