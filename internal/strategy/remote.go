package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/divinecomedylabs/churnlab/go-engine/internal/events"
	"github.com/divinecomedylabs/churnlab/go-engine/internal/rules"
)

// #region wire-format

// decideMethod is the unary RPC the external decision service must expose.
// Request and response are JSON payloads carried as protobuf BytesValue,
// so the contract stays self-contained without generated stubs.
const decideMethod = "/churnlab.v1.Challenger/Decide"

// wireRow is the JSON shape of one event row on the challenger boundary.
type wireRow struct {
	UID             int     `json:"uid"`
	Timestamp       string  `json:"timestamp"`
	EventType       string  `json:"event_type"`
	Severity        string  `json:"event_severity"`
	SessionID       string  `json:"session_id"`
	SessionPos      int     `json:"session_position"`
	EngagementScore float64 `json:"engagement_score"`
	Health          float64 `json:"user_health"`
	Fatigue         float64 `json:"fatigue"`
	Cooldown        int     `json:"cooldown"`
	Tier            string  `json:"value_tier"`
	State           string  `json:"state"`
	RollingActivity float64 `json:"rolling_activity"`
	Recovered       bool    `json:"recovered"`
}

// wireBatch names the uid and time fields explicitly, per the challenger
// call contract.
type wireBatch struct {
	UIDField  string    `json:"uid_field"`
	TimeField string    `json:"time_field"`
	Rows      []wireRow `json:"rows"`
}

// wireDecision is one entry of the response map, keyed by uid.
type wireDecision struct {
	Strategy string `json:"strategy"`
}

// #endregion wire-format

// #region client

// RemoteChallenger calls an external decision service over gRPC. The
// service is opaque: whatever model answers the Decide RPC drives the
// challenger branch.
type RemoteChallenger struct {
	conn *grpc.ClientConn
}

// NewRemoteChallenger connects to the decision service.
func NewRemoteChallenger(addr string) (*RemoteChallenger, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &RemoteChallenger{conn: conn}, nil
}

// Close shuts down the gRPC connection.
func (c *RemoteChallenger) Close() error {
	return c.conn.Close()
}

// Decide sends the batch to the decision service and returns its verdicts.
// Transport or decode failures propagate to the caller; the engine aborts
// rather than substituting defaults.
func (c *RemoteChallenger) Decide(ctx context.Context, batch []events.Row) (map[int]Decision, error) {
	payload, err := encodeBatch(batch)
	if err != nil {
		return nil, err
	}

	resp := &wrapperspb.BytesValue{}
	if err := c.conn.Invoke(ctx, decideMethod, wrapperspb.Bytes(payload), resp); err != nil {
		return nil, fmt.Errorf("decide rpc: %w", err)
	}

	return decodeDecisions(resp.Value)
}

// #endregion client

// #region codec

// encodeBatch serializes event rows into the JSON request payload.
func encodeBatch(batch []events.Row) ([]byte, error) {
	rows := make([]wireRow, len(batch))
	for i, r := range batch {
		rows[i] = wireRow{
			UID:             r.UID,
			Timestamp:       r.Timestamp.UTC().Format(time.RFC3339),
			EventType:       r.EventType,
			Severity:        r.Severity,
			SessionID:       r.SessionID,
			SessionPos:      r.SessionPos,
			EngagementScore: r.EngagementScore,
			Health:          r.Health,
			Fatigue:         r.Fatigue,
			Cooldown:        r.Cooldown,
			Tier:            string(r.Tier),
			State:           string(r.State),
			RollingActivity: r.RollingActivity,
			Recovered:       r.Recovered,
		}
	}
	payload, err := json.Marshal(wireBatch{UIDField: "uid", TimeField: "timestamp", Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	return payload, nil
}

// decodeDecisions parses the uid→decision response payload.
func decodeDecisions(payload []byte) (map[int]Decision, error) {
	var raw map[string]wireDecision
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode decisions: %w", err)
	}
	out := make(map[int]Decision, len(raw))
	for key, d := range raw {
		uid, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("decode decisions: bad uid %q: %w", key, err)
		}
		out[uid] = Decision{Strategy: rules.Strategy(d.Strategy)}
	}
	return out, nil
}

// #endregion codec
