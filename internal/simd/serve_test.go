package simd

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/GoSim-25-26J-441/photonic-sim/pkg/config"
)

func TestStartStatusServers(t *testing.T) {
	store := seededStore()
	servers, err := StartStatusServers(&config.Status{HTTPAddr: "127.0.0.1:0", GRPCAddr: "127.0.0.1:0"}, store)
	if err != nil {
		t.Fatalf("StartStatusServers: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := servers.Close(ctx); err != nil {
			t.Errorf("Close: %v", err)
		}
	}()

	resp, err := http.Get("http://" + servers.HTTPAddr() + "/v1/stats")
	if err != nil {
		t.Fatalf("GET stats: %v", err)
	}
	defer resp.Body.Close()
	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Runs != 3 {
		t.Fatalf("expected 3 runs, got %d", stats.Runs)
	}

	conn, err := grpc.NewClient(servers.GRPCAddr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial gRPC: %v", err)
	}
	defer conn.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	run, err := NewStatusClient(conn).GetRun(ctx, "run-b")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Fields["status"].GetStringValue() != "failed" {
		t.Fatalf("unexpected run %v", run)
	}
}

func TestStartStatusServersDisabled(t *testing.T) {
	servers, err := StartStatusServers(nil, NewRunStore())
	if err != nil {
		t.Fatalf("StartStatusServers: %v", err)
	}
	if servers.HTTPAddr() != "" || servers.GRPCAddr() != "" {
		t.Fatalf("expected no listeners")
	}
	if err := servers.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestStartStatusServersBadAddress(t *testing.T) {
	if _, err := StartStatusServers(&config.Status{HTTPAddr: "not-an-address"}, NewRunStore()); err == nil {
		t.Fatalf("expected listen error")
	}
}
