package bench

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/quickvote-go/internal/cli/connection"
)

// Defaults for a run.
const (
	DefaultWorkers  = 50
	DefaultDuration = 10 * time.Second
	DefaultEndpoint = EndpointHealth
)

// Endpoint is a read-only API path a run can target.
type Endpoint string

const (
	EndpointHealth  Endpoint = "health"
	EndpointResults Endpoint = "results"
)

// Path returns the API path of the endpoint.
func (e Endpoint) Path() string {
	return "/api/" + string(e)
}

// ParseEndpoint validates an endpoint name.
func ParseEndpoint(s string) (Endpoint, error) {
	switch e := Endpoint(s); e {
	case EndpointHealth, EndpointResults:
		return e, nil
	default:
		return "", fmt.Errorf("unknown endpoint %q (want health or results)", s)
	}
}

// Config configures a run.
type Config struct {
	Client   *connection.HTTPClient
	Endpoint Endpoint
	Workers  int
	Duration time.Duration

	// Rate caps requests per second across all workers. Zero means no cap.
	Rate float64

	// Progress, when set, is called about every ProgressInterval.
	Progress         func(elapsed time.Duration, success, failed int64)
	ProgressInterval time.Duration
}

func (c *Config) setDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Duration <= 0 {
		c.Duration = DefaultDuration
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = 500 * time.Millisecond
	}
}

// ContainerCount is the number of successful responses served by one
// container.
type ContainerCount struct {
	Container string  `json:"container"`
	Requests  int64   `json:"requests"`
	Share     float64 `json:"share"`
}

// Report summarizes a run.
type Report struct {
	Endpoint   string           `json:"endpoint"`
	Workers    int              `json:"workers"`
	Duration   time.Duration    `json:"duration"`
	Total      int64            `json:"total"`
	Success    int64            `json:"success"`
	Failed     int64            `json:"failed"`
	RPS        float64          `json:"rps"`
	Containers []ContainerCount `json:"containers"`
}

// stats collects per-request outcomes from all workers.
type stats struct {
	success atomic.Int64
	failed  atomic.Int64

	mu         sync.Mutex
	containers map[string]int64
}

func (s *stats) ok(container string) {
	s.success.Add(1)
	if container == "" {
		container = "unknown"
	}
	s.mu.Lock()
	s.containers[container]++
	s.mu.Unlock()
}

func (s *stats) fail() {
	s.failed.Add(1)
}

// Run hammers the endpoint until cfg.Duration elapses or ctx is cancelled.
// Requests still in flight when the run ends are not counted.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if cfg.Client == nil {
		return nil, errors.New("bench: client is required")
	}
	cfg.setDefaults()

	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var limiter *rate.Limiter
	if cfg.Rate > 0 {
		burst := int(cfg.Rate)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}

	st := &stats{containers: make(map[string]int64)}
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(runCtx, cfg, limiter, st)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	if cfg.Progress != nil {
		ticker := time.NewTicker(cfg.ProgressInterval)
	loop:
		for {
			select {
			case <-done:
				break loop
			case <-ticker.C:
				cfg.Progress(time.Since(start), st.success.Load(), st.failed.Load())
			}
		}
		ticker.Stop()
	} else {
		<-done
	}

	elapsed := time.Since(start)
	return st.report(cfg, elapsed), nil
}

func worker(ctx context.Context, cfg Config, limiter *rate.Limiter, st *stats) {
	path := cfg.Endpoint.Path()
	for ctx.Err() == nil {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		container, err := request(ctx, cfg.Client, path)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			st.fail()
			continue
		}
		st.ok(container)
	}
}

// request performs one call and returns the container that served it.
func request(ctx context.Context, client *connection.HTTPClient, path string) (string, error) {
	resp, err := client.Get(ctx, path)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var data struct {
		Container string `json:"container"`
	}
	if err := connection.ParseResponse(resp, &data); err != nil {
		return "", err
	}
	return data.Container, nil
}

func (s *stats) report(cfg Config, elapsed time.Duration) *Report {
	r := &Report{
		Endpoint: cfg.Endpoint.Path(),
		Workers:  cfg.Workers,
		Duration: elapsed,
		Success:  s.success.Load(),
		Failed:   s.failed.Load(),
	}
	r.Total = r.Success + r.Failed
	if elapsed > 0 {
		r.RPS = float64(r.Success) / elapsed.Seconds()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r.Containers = make([]ContainerCount, 0, len(s.containers))
	for name, n := range s.containers {
		cc := ContainerCount{Container: name, Requests: n}
		if r.Success > 0 {
			cc.Share = float64(n) / float64(r.Success) * 100
		}
		r.Containers = append(r.Containers, cc)
	}
	sort.Slice(r.Containers, func(i, j int) bool {
		if r.Containers[i].Requests != r.Containers[j].Requests {
			return r.Containers[i].Requests > r.Containers[j].Requests
		}
		return r.Containers[i].Container < r.Containers[j].Container
	})
	return r
}
