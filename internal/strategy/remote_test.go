package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/divinecomedylabs/churnlab/go-engine/internal/events"
	"github.com/divinecomedylabs/churnlab/go-engine/internal/rules"
)

func TestEncodeBatchContract(t *testing.T) {
	ts := time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)
	batch := []events.Row{{
		UID:             12,
		Timestamp:       ts,
		EventType:       "browse",
		Severity:        "low",
		SessionID:       "12_2025-03-01",
		SessionPos:      2,
		EngagementScore: 0.5,
		Health:          0.72,
		Fatigue:         1.1,
		Cooldown:        8,
		Tier:            rules.TierPro,
		State:           rules.StateCycling,
		RollingActivity: 0.9,
		Recovered:       true,
	}}

	payload, err := encodeBatch(batch)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var decoded struct {
		UIDField  string `json:"uid_field"`
		TimeField string `json:"time_field"`
		Rows      []map[string]any `json:"rows"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.UIDField != "uid" || decoded.TimeField != "timestamp" {
		t.Fatalf("field naming: %s/%s", decoded.UIDField, decoded.TimeField)
	}
	if len(decoded.Rows) != 1 {
		t.Fatalf("rows: %d", len(decoded.Rows))
	}

	row := decoded.Rows[0]
	if row["uid"].(float64) != 12 {
		t.Fatalf("uid: %v", row["uid"])
	}
	if row["timestamp"].(string) != "2025-03-01T06:00:00Z" {
		t.Fatalf("timestamp: %v", row["timestamp"])
	}
	if row["value_tier"].(string) != "pro" || row["state"].(string) != "cycling" {
		t.Fatalf("tier/state: %v/%v", row["value_tier"], row["state"])
	}
	if row["recovered"].(bool) != true {
		t.Fatalf("recovered: %v", row["recovered"])
	}
}

func TestDecodeDecisions(t *testing.T) {
	out, err := decodeDecisions([]byte(`{"7": {"strategy": "boost"}, "9": {"strategy": "observe"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("decisions: %d", len(out))
	}
	if out[7].Strategy != rules.StrategyBoost || out[9].Strategy != rules.StrategyObserve {
		t.Fatalf("decisions: %+v", out)
	}
}

func TestDecodeDecisionsBadUID(t *testing.T) {
	if _, err := decodeDecisions([]byte(`{"not-a-uid": {"strategy": "boost"}}`)); err == nil {
		t.Fatal("expected error for non-numeric uid")
	}
}

func TestDecodeDecisionsBadPayload(t *testing.T) {
	if _, err := decodeDecisions([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestUnimplementedDecide(t *testing.T) {
	_, err := Unimplemented{}.Decide(context.Background(), nil)
	if !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}
