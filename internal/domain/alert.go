package domain

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// AlertDetails carries the structured values behind an alert message.
// Decimal values are encoded as bare JSON numbers at full precision.
type AlertDetails map[string]any

// MarshalJSON renders decimal values as JSON numbers instead of quoted strings
func (d AlertDetails) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d))
	for k, v := range d {
		if dec, ok := v.(decimal.Decimal); ok {
			out[k] = json.Number(dec.String())
			continue
		}
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes numbers back into decimal values
func (d *AlertDetails) UnmarshalJSON(data []byte) error {
	raw := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out := make(AlertDetails, len(raw))
	for k, v := range raw {
		if n, ok := v.(json.Number); ok {
			if parsed, err := decimal.NewFromString(n.String()); err == nil {
				out[k] = parsed
				continue
			}
		}
		out[k] = v
	}
	*d = out
	return nil
}

// FiredRule is one rule that evaluated true for a pair of states
type FiredRule struct {
	RuleID  int64
	Message string
	Details AlertDetails
}

// TriggeredAlert represents an append-only record of a rule firing
type TriggeredAlert struct {
	ID            int64
	RuleID        int64
	TrackedItemID int64
	SnapshotID    int64
	Message       string
	Details       AlertDetails
	CreatedAt     time.Time
}
