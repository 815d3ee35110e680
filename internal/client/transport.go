package client

import (
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/stationfeed/stationfeed/internal/common"
	"github.com/stationfeed/stationfeed/internal/lamport"
	"github.com/stationfeed/stationfeed/internal/protocol"
)

const dialTimeout = 10 * time.Second

// Transport performs one request/response exchange with the aggregation
// server per connection, running the Lamport rule on both sides of the
// exchange: tick before send, merge on the response's clock header.
//
// Connection failures are retried under the backoff policy, with a
// circuit breaker around each attempt.
type Transport struct {
	addr      string
	userAgent string
	clock     *lamport.Clock
	backoff   BackoffPolicy
	circuit   *gobreaker.CircuitBreaker
}

// NewTransport creates a Transport for the server at rawAddr, which may
// be "host:port", "http://host:port" or a bare hostname (defaultPort is
// appended when no port is given).
func NewTransport(rawAddr string, defaultPort int, userAgent string, clock *lamport.Clock) (*Transport, error) {
	addr, err := ParseServerAddr(rawAddr, defaultPort)
	if err != nil {
		return nil, err
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "aggregation-server",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Transport{
		addr:      addr,
		userAgent: userAgent,
		clock:     clock,
		backoff:   DefaultBackoff(),
		circuit:   cb,
	}, nil
}

// Addr returns the resolved host:port this transport connects to.
func (t *Transport) Addr() string {
	return t.addr
}

// Clock returns the transport's logical clock.
func (t *Transport) Clock() *lamport.Clock {
	return t.clock
}

// Exchange sends req and returns the decoded response. Dial and I/O
// failures are retried per the backoff policy; a response with an error
// status is still a successful exchange and is returned as-is.
func (t *Transport) Exchange(req *protocol.Request) (*protocol.Response, error) {
	var resp *protocol.Response

	err := t.backoff.Do(func() error {
		result, err := t.circuit.Execute(func() (interface{}, error) {
			return t.attempt(req)
		})
		if err != nil {
			return err
		}
		resp = result.(*protocol.Response)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("exchange with %s: %w", t.addr, err)
	}
	return resp, nil
}

// attempt performs a single connect/send/receive cycle.
func (t *Transport) attempt(req *protocol.Request) (*protocol.Response, error) {
	conn, err := net.DialTimeout("tcp", t.addr, dialTimeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req.Host = t.addr
	req.UserAgent = t.userAgent
	req.LamportClock = t.clock.Tick()

	if err := protocol.WriteRequest(conn, req); err != nil {
		return nil, err
	}

	resp, err := protocol.ReadResponse(conn)
	if err != nil {
		return nil, err
	}

	merged := t.clock.Merge(resp.LamportClock)
	log.Printf("INFO: server clock %d, local clock now %d", resp.LamportClock, merged)
	return resp, nil
}

// ParseServerAddr normalizes a server address into host:port form.
func ParseServerAddr(raw string, defaultPort int) (string, error) {
	addr := strings.TrimSpace(raw)
	if common.HasAny(addr, "http://") {
		addr = strings.TrimPrefix(addr, "http://")
	}
	if addr == "" {
		return "", fmt.Errorf("empty server address")
	}

	host, port, found := strings.Cut(addr, ":")
	if host == "" {
		return "", fmt.Errorf("invalid server address %q", raw)
	}
	if !found || port == "" {
		return fmt.Sprintf("%s:%d", host, defaultPort), nil
	}
	return net.JoinHostPort(host, port), nil
}
