// Package remote adapts an out-of-process solving engine reachable over a
// WebSocket endpoint. The wire protocol is one JSON request and one JSON
// reply per solve, so any engine in any language can take part in a
// benchmark by speaking it. Running the engine in its own process also
// gives the only hard isolation available against adapters that ignore the
// cooperative time limit.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"vrpbench/internal/model"
	"vrpbench/internal/solver"
)

// Config names the remote engine and where to reach it.
type Config struct {
	// Name is the solver identity used in results. Defaults to "remote".
	Name string
	// URL is the ws:// or wss:// endpoint of the engine.
	URL string
	// ProbeTimeout bounds the Available() dial probe. Defaults to 2s.
	ProbeTimeout time.Duration
}

// Adapter implements solver.Adapter over a WebSocket connection.
type Adapter struct {
	cfg    Config
	dialer *websocket.Dialer
}

// New returns a remote adapter for the configured endpoint.
func New(cfg Config) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "remote"
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 2 * time.Second
	}
	return &Adapter{cfg: cfg, dialer: websocket.DefaultDialer}
}

func (a *Adapter) Name() string { return a.cfg.Name }

// Available probes the endpoint with a short dial and never fails; an
// unreachable engine simply reports false.
func (a *Adapter) Available() bool {
	if a.cfg.URL == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ProbeTimeout)
	defer cancel()
	conn, _, err := a.dialer.DialContext(ctx, a.cfg.URL, nil)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

type solveRequest struct {
	Type         string             `json:"type"`
	Instance     *model.VRPInstance `json:"instance"`
	TimeLimitSec float64            `json:"time_limit_sec"`
	Options      map[string]any     `json:"options,omitempty"`
}

type solveReply struct {
	Type     string             `json:"type"` // "solution" or "error"
	Solution *model.VRPSolution `json:"solution,omitempty"`
	Message  string             `json:"message,omitempty"`
}

// Solve sends the instance to the engine and waits for its reply, bounded
// by the time limit plus a small grace period for transport overhead.
func (a *Adapter) Solve(ctx context.Context, inst *model.VRPInstance, timeLimit time.Duration, opts solver.Options) (*model.VRPSolution, error) {
	if a.cfg.URL == "" {
		return nil, fmt.Errorf("remote: no endpoint configured")
	}

	conn, _, err := a.dialer.DialContext(ctx, a.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: dial %s: %w", a.cfg.URL, err)
	}
	defer func() { _ = conn.Close() }()

	req := solveRequest{
		Type:         "solve",
		Instance:     inst,
		TimeLimitSec: timeLimit.Seconds(),
		Options:      opts,
	}
	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("remote: send instance: %w", err)
	}

	deadline := time.Now().Add(timeLimit + 5*time.Second)
	if d, ok := ctx.Deadline(); ok && d.After(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("remote: set deadline: %w", err)
	}

	_, payload, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("remote: read reply: %w", err)
	}
	var reply solveReply
	if err := json.Unmarshal(payload, &reply); err != nil {
		return nil, fmt.Errorf("remote: malformed reply: %w", err)
	}

	switch reply.Type {
	case "solution":
		if reply.Solution == nil {
			return nil, fmt.Errorf("remote: reply carried no solution")
		}
		sol := reply.Solution
		sol.InstanceName = inst.Name
		sol.Solver = a.cfg.Name
		return sol, nil
	case "error":
		return nil, fmt.Errorf("remote engine: %s", reply.Message)
	default:
		return nil, fmt.Errorf("remote: unexpected reply type %q", reply.Type)
	}
}
