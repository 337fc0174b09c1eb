package optimizer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Prober answers whether the optimizer service is reachable right now.
type Prober interface {
	Probe(ctx context.Context) error
}

// HTTPProber calls GET {base}/api/health and expects a 2xx.
type HTTPProber struct {
	url    string
	client *http.Client
}

func NewHTTPProber(baseURL string, timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &HTTPProber{
		url:    strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/api/health",
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: health status %d", ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}

// GRPCProber uses the standard gRPC health service of the optimizer.
type GRPCProber struct {
	conn    *grpc.ClientConn
	client  healthpb.HealthClient
	service string
}

// NewGRPCProber does not block; the connection is established lazily on
// the first probe.
func NewGRPCProber(addr, service string) (*GRPCProber, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", addr, err)
	}
	return &GRPCProber{conn: conn, client: healthpb.NewHealthClient(conn), service: service}, nil
}

func (p *GRPCProber) Probe(ctx context.Context) error {
	resp, err := p.client.Check(ctx, &healthpb.HealthCheckRequest{Service: p.service})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: health %s", ErrServiceUnavailable, resp.GetStatus())
	}
	return nil
}

func (p *GRPCProber) Close() error {
	return p.conn.Close()
}
