package checker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net"
	"strconv"
	"time"

	"netpulse/app/internal/models"

	"github.com/go-ping/ping"
)

// ErrUnreachable means the probe itself could not be carried out (bad address,
// no socket, cancelled). A host that simply did not answer is reported as down instead.
var ErrUnreachable = errors.New("probe could not be performed")

// Probe modes
const (
	ModeICMP = "icmp"
	ModeTCP  = "tcp"
)

// Options configures a Client
type Options struct {
	Mode       string
	Timeout    time.Duration
	TCPPort    int
	Privileged bool
}

// Client measures round-trip latency to a server identifier
type Client struct {
	mode       string
	timeout    time.Duration
	tcpPort    int
	privileged bool
}

// New creates a probe client, filling in defaults for unset options
func New(opts Options) *Client {
	c := &Client{
		mode:       opts.Mode,
		timeout:    opts.Timeout,
		tcpPort:    opts.TCPPort,
		privileged: opts.Privileged,
	}
	if c.mode != ModeTCP {
		c.mode = ModeICMP
	}
	if c.timeout <= 0 {
		c.timeout = time.Second
	}
	if c.tcpPort <= 0 || c.tcpPort > 65535 {
		c.tcpPort = 443
	}
	return c
}

// Mode returns the probe mode in use
func (c *Client) Mode() string {
	return c.mode
}

// Probe performs a single latency check against identifier
func (c *Client) Probe(ctx context.Context, identifier string) (models.ProbeResult, error) {
	if c.mode == ModeTCP {
		return c.probeTCP(ctx, identifier)
	}
	return c.probeICMP(ctx, identifier)
}

func (c *Client) probeICMP(ctx context.Context, identifier string) (models.ProbeResult, error) {
	pinger, err := ping.NewPinger(identifier)
	if err != nil {
		log.Printf("icmp probe setup error addr=%s err=%v", identifier, err)
		return models.ProbeResult{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	pinger.Count = 1
	pinger.Timeout = c.timeout
	pinger.SetPrivileged(c.privileged)

	done := make(chan error, 1)
	go func() { done <- pinger.Run() }()

	select {
	case err = <-done:
	case <-ctx.Done():
		pinger.Stop()
		<-done
		return models.ProbeResult{}, fmt.Errorf("%w: %v", ErrUnreachable, ctx.Err())
	}
	if err != nil {
		log.Printf("icmp probe error addr=%s err=%v", identifier, err)
		return models.ProbeResult{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return models.ProbeResult{IsUp: false}, nil
	}
	return models.ProbeResult{
		IsUp:      true,
		LatencyMs: roundMillis(stats.AvgRtt),
	}, nil
}

func (c *Client) probeTCP(ctx context.Context, identifier string) (models.ProbeResult, error) {
	addr := net.JoinHostPort(identifier, strconv.Itoa(c.tcpPort))
	dialer := net.Dialer{Timeout: c.timeout}

	t0 := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	d := time.Since(t0)
	if err != nil {
		if ctx.Err() != nil {
			return models.ProbeResult{}, fmt.Errorf("%w: %v", ErrUnreachable, ctx.Err())
		}
		var addrErr *net.AddrError
		if errors.As(err, &addrErr) {
			return models.ProbeResult{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
		log.Printf("tcp probe error addr=%s err=%v", addr, err)
		return models.ProbeResult{IsUp: false}, nil
	}
	_ = conn.Close()
	return models.ProbeResult{IsUp: true, LatencyMs: roundMillis(d)}, nil
}

// roundMillis converts d to milliseconds rounded to two decimals
func roundMillis(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}
