package bench

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/quickvote-go/internal/cli/connection"
)

// newServer answers every request with an envelope naming one of the
// given containers in turn.
func newServer(t *testing.T, status int, containers ...string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			fmt.Fprint(w, `{"code":"QV-SYS-5030","message":"store unavailable"}`)
			return
		}
		c := ""
		if len(containers) > 0 {
			c = containers[int(n)%len(containers)]
		}
		fmt.Fprintf(w, `{"code":"OK","message":"Success","data":{"status":"healthy","container":%q}}`, c)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestRun_Distribution(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, "node-a", "node-b")

	report, err := Run(context.Background(), Config{
		Client:   connection.NewHTTPClient(srv.URL, ""),
		Workers:  4,
		Duration: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Success == 0 {
		t.Fatal("expected successful requests")
	}
	if report.Failed != 0 {
		t.Errorf("Failed = %d, want 0", report.Failed)
	}
	if report.Total != report.Success+report.Failed {
		t.Errorf("Total = %d, want %d", report.Total, report.Success+report.Failed)
	}
	if report.Endpoint != "/api/health" || report.Workers != 4 {
		t.Errorf("report = %+v", report)
	}
	if report.RPS <= 0 {
		t.Errorf("RPS = %v", report.RPS)
	}

	if len(report.Containers) != 2 {
		t.Fatalf("Containers = %+v, want 2 entries", report.Containers)
	}
	var sum int64
	var share float64
	for _, c := range report.Containers {
		sum += c.Requests
		share += c.Share
	}
	if sum != report.Success {
		t.Errorf("container requests = %d, want %d", sum, report.Success)
	}
	if share < 99.9 || share > 100.1 {
		t.Errorf("shares sum to %v", share)
	}
	if report.Containers[0].Requests < report.Containers[1].Requests {
		t.Error("containers should be sorted by request count")
	}
}

func TestRun_Failures(t *testing.T) {
	srv, _ := newServer(t, http.StatusServiceUnavailable)

	report, err := Run(context.Background(), Config{
		Client:   connection.NewHTTPClient(srv.URL, ""),
		Endpoint: EndpointResults,
		Workers:  2,
		Duration: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Success != 0 || report.Failed == 0 {
		t.Errorf("Success = %d, Failed = %d", report.Success, report.Failed)
	}
	if report.RPS != 0 || len(report.Containers) != 0 {
		t.Errorf("report = %+v", report)
	}
	if report.Endpoint != "/api/results" {
		t.Errorf("Endpoint = %q", report.Endpoint)
	}
}

func TestRun_UnknownContainer(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK)

	report, err := Run(context.Background(), Config{
		Client:   connection.NewHTTPClient(srv.URL, ""),
		Workers:  1,
		Duration: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Containers) != 1 || report.Containers[0].Container != "unknown" {
		t.Errorf("Containers = %+v", report.Containers)
	}
}

func TestRun_RateLimited(t *testing.T) {
	srv, hits := newServer(t, http.StatusOK, "node-a")

	report, err := Run(context.Background(), Config{
		Client:   connection.NewHTTPClient(srv.URL, ""),
		Workers:  8,
		Duration: 500 * time.Millisecond,
		Rate:     10,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Burst of 10 plus about 5 more over half a second.
	if got := hits.Load(); got > 17 {
		t.Errorf("server saw %d requests, want at most 17", got)
	}
	if report.Success == 0 {
		t.Error("expected some successful requests")
	}
}

func TestRun_Cancelled(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, "node-a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	report, err := Run(ctx, Config{
		Client:   connection.NewHTTPClient(srv.URL, ""),
		Duration: time.Minute,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Run() should stop when ctx is cancelled")
	}
	if report.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want default %d", report.Workers, DefaultWorkers)
	}
}

func TestRun_Progress(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, "node-a")

	var calls atomic.Int64
	_, err := Run(context.Background(), Config{
		Client:           connection.NewHTTPClient(srv.URL, ""),
		Workers:          2,
		Duration:         250 * time.Millisecond,
		ProgressInterval: 50 * time.Millisecond,
		Progress: func(elapsed time.Duration, success, failed int64) {
			calls.Add(1)
		},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if calls.Load() == 0 {
		t.Error("Progress should be called during the run")
	}
}

func TestRun_RequiresClient(t *testing.T) {
	if _, err := Run(context.Background(), Config{}); err == nil {
		t.Error("Run() without client should fail")
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		want    Endpoint
		wantErr bool
	}{
		{"health", EndpointHealth, false},
		{"results", EndpointResults, false},
		{"vote", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseEndpoint(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseEndpoint(%q) = %q, %v", tt.in, got, err)
		}
	}
}
