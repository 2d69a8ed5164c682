package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"vrpbench/internal/model"
)

var upgrader = websocket.Upgrader{}

// fakeEngine serves one solve request per connection using reply.
func fakeEngine(t *testing.T, reply func(req solveRequest) solveReply) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req solveRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		_ = conn.WriteJSON(reply(req))
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func tinyInstance() *model.VRPInstance {
	locs := []model.Location{
		{ID: model.DepotID, X: 0, Y: 0},
		{ID: 1, X: 10, Y: 0, Demand: 5},
	}
	return &model.VRPInstance{
		Name:           "tiny",
		Locations:      locs,
		Vehicles:       []model.Vehicle{{ID: 0, Capacity: 20}},
		DistanceMatrix: model.BuildDistanceMatrix(locs, nil),
	}
}

func TestSolveRoundTrip(t *testing.T) {
	srv := fakeEngine(t, func(req solveRequest) solveReply {
		if req.Type != "solve" || req.Instance == nil || req.Instance.Name != "tiny" {
			t.Errorf("bad request: %+v", req)
		}
		if req.TimeLimitSec != 1 {
			t.Errorf("time limit: %v", req.TimeLimitSec)
		}
		return solveReply{Type: "solution", Solution: &model.VRPSolution{
			Routes:        []model.Route{{VehicleID: 0, Stops: []int{0, 1, 0}, Distance: 20, Demand: 5}},
			TotalDistance: 20,
			Feasible:      true,
		}}
	})
	defer srv.Close()

	a := New(Config{Name: "or-tools", URL: wsURL(srv)})
	sol, err := a.Solve(context.Background(), tinyInstance(), time.Second, nil)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Solver != "or-tools" || sol.InstanceName != "tiny" {
		t.Fatalf("solution not stamped: %+v", sol)
	}
	if sol.TotalDistance != 20 {
		t.Fatalf("distance: %v", sol.TotalDistance)
	}
}

func TestSolveEngineError(t *testing.T) {
	srv := fakeEngine(t, func(req solveRequest) solveReply {
		return solveReply{Type: "error", Message: "model too large"}
	})
	defer srv.Close()

	a := New(Config{URL: wsURL(srv)})
	_, err := a.Solve(context.Background(), tinyInstance(), time.Second, nil)
	if err == nil || !strings.Contains(err.Error(), "model too large") {
		t.Fatalf("want engine error, got %v", err)
	}
}

func TestSolveUnexpectedReply(t *testing.T) {
	srv := fakeEngine(t, func(req solveRequest) solveReply {
		return solveReply{Type: "progress"}
	})
	defer srv.Close()

	a := New(Config{URL: wsURL(srv)})
	if _, err := a.Solve(context.Background(), tinyInstance(), time.Second, nil); err == nil {
		t.Fatalf("unexpected reply type accepted")
	}
}

func TestAvailable(t *testing.T) {
	srv := fakeEngine(t, func(req solveRequest) solveReply { return solveReply{} })
	a := New(Config{URL: wsURL(srv)})
	if !a.Available() {
		t.Fatalf("running engine reported unavailable")
	}
	srv.Close()
	if a.Available() {
		t.Fatalf("closed engine reported available")
	}
	if New(Config{}).Available() {
		t.Fatalf("unconfigured endpoint reported available")
	}
}

func TestSolveNoEndpoint(t *testing.T) {
	if _, err := New(Config{}).Solve(context.Background(), tinyInstance(), time.Second, nil); err == nil {
		t.Fatalf("want error without endpoint")
	}
}

func TestDefaults(t *testing.T) {
	a := New(Config{})
	if a.Name() != "remote" {
		t.Fatalf("default name: %q", a.Name())
	}
	if a.cfg.ProbeTimeout != 2*time.Second {
		t.Fatalf("default probe timeout: %v", a.cfg.ProbeTimeout)
	}
}
