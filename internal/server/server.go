package server

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/stationfeed/stationfeed/internal/lamport"
	"github.com/stationfeed/stationfeed/internal/payload"
	"github.com/stationfeed/stationfeed/internal/protocol"
	"github.com/stationfeed/stationfeed/internal/store"
)

// Server accepts station protocol connections and answers one request per
// connection. The accept loop never blocks on request work; every accepted
// connection runs on its own goroutine.
type Server struct {
	clock *lamport.Clock
	store *store.Store

	ln     net.Listener
	closed atomic.Bool

	// onPersistFailure is invoked when a snapshot write fails. Disk state
	// lagging memory is not a state worth serving from, so the default
	// aborts the process.
	onPersistFailure func(err error)
}

// New creates a Server over the given clock and store.
func New(clock *lamport.Clock, st *store.Store) *Server {
	return &Server{
		clock: clock,
		store: st,
		onPersistFailure: func(err error) {
			log.Fatalf("FATAL: snapshot write failed: %v", err)
		},
	}
}

// ListenAndServe listens on addr and serves until the listener is closed.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections from ln and dispatches each to a handler
// goroutine.
func (s *Server) Serve(ln net.Listener) error {
	s.ln = ln
	log.Printf("INFO: aggregation server listening on %s", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closed.Load() {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.handleConn(conn)
	}
}

// Addr returns the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Close stops the accept loop. In-flight handlers finish on their own.
func (s *Server) Close() error {
	s.closed.Store(true)
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}

// handleConn serves one request/response cycle, then closes the connection.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	connID := uuid.NewString()[:8]

	req, err := protocol.ReadRequest(bufio.NewReader(conn))
	if req == nil {
		// Nothing usable arrived; drop silently.
		return
	}

	// Merge the carried clock before dispatching, even when the request
	// is about to be rejected.
	merged := s.clock.Merge(req.LamportClock)

	if errors.Is(err, protocol.ErrBadRequestLine) {
		log.Printf("INFO: [%s] rejecting malformed request line", connID)
		s.respond(conn, connID, 400, []byte("Malformed request line."))
		return
	}
	if err != nil {
		log.Printf("WARN: [%s] failed to read request: %v", connID, err)
		return
	}

	log.Printf("INFO: [%s] %s %s (clock %d -> %d)", connID, req.Method, req.Path, req.LamportClock, merged)

	switch strings.ToUpper(req.Method) {
	case "PUT":
		s.handlePut(conn, connID, req)
	case "GET":
		s.handleGet(conn, connID, req)
	default:
		s.respond(conn, connID, 400, []byte("Only PUT and GET methods are supported."))
	}
}

// handlePut validates the payload, replaces the station's record and
// persists the snapshot as one atomic unit, then responds 201 for a new
// station or 200 for a replacement.
func (s *Server) handlePut(conn net.Conn, connID string, req *protocol.Request) {
	doc, err := payload.Parse(req.Body)
	if err != nil {
		log.Printf("INFO: [%s] rejecting unparsable payload: %v", connID, err)
		s.respond(conn, connID, 500, []byte("Could not parse payload body."))
		return
	}

	stationID, err := doc.StationID()
	if err != nil {
		log.Printf("INFO: [%s] rejecting payload without station id", connID)
		s.respond(conn, connID, 500, []byte("Payload must contain an 'id' field."))
		return
	}

	created, err := s.store.Put(stationID, doc, time.Now())
	if err != nil {
		s.onPersistFailure(err)
		return
	}

	if created {
		s.respond(conn, connID, 201, []byte("Weather data successfully stored."))
	} else {
		s.respond(conn, connID, 200, []byte("Weather data successfully updated."))
	}

	// Completing a PUT is a local event in its own right.
	log.Printf("INFO: [%s] clock after PUT: %d", connID, s.clock.Tick())
}

// handleGet answers with one station's payload when the request line
// carries an id filter, or with the whole collection otherwise.
func (s *Server) handleGet(conn net.Conn, connID string, req *protocol.Request) {
	stationID := stationFilter(req.Path)

	if stationID != "" {
		rec, err := s.store.Get(stationID)
		if err != nil {
			s.respond(conn, connID, 404, []byte(fmt.Sprintf("Station id %q not found", stationID)))
		} else {
			body, encErr := rec.Payload.Encode()
			if encErr != nil {
				s.respond(conn, connID, 500, []byte("Failed to encode payload."))
			} else {
				s.respond(conn, connID, 200, body)
			}
		}
		log.Printf("INFO: [%s] clock after GET: %d", connID, s.clock.Tick())
		return
	}

	records := s.store.List()
	if len(records) == 0 {
		s.respond(conn, connID, 204, nil)
		log.Printf("INFO: [%s] clock after GET: %d", connID, s.clock.Tick())
		return
	}

	encoded := make([]string, 0, len(records))
	for _, rec := range records {
		body, err := rec.Payload.Encode()
		if err != nil {
			s.respond(conn, connID, 500, []byte("Failed to encode payload."))
			log.Printf("INFO: [%s] clock after GET: %d", connID, s.clock.Tick())
			return
		}
		encoded = append(encoded, string(body))
	}

	s.respond(conn, connID, 200, []byte("["+strings.Join(encoded, ",")+"]"))
	log.Printf("INFO: [%s] clock after GET: %d", connID, s.clock.Tick())
}

// respond writes one response carrying the current clock value.
func (s *Server) respond(conn net.Conn, connID string, status int, body []byte) {
	resp := &protocol.Response{
		StatusCode:   status,
		LamportClock: s.clock.Current(),
		Body:         body,
	}
	if err := protocol.WriteResponse(conn, resp); err != nil {
		log.Printf("WARN: [%s] failed to write response: %v", connID, err)
	}
}

// stationFilter extracts the id query parameter from a request path like
// /weather.json?id=IDS60901. Empty when no filter is present.
func stationFilter(path string) string {
	_, query, found := strings.Cut(path, "?")
	if !found {
		return ""
	}
	for _, param := range strings.Split(query, "&") {
		if name, value, ok := strings.Cut(param, "="); ok && name == "id" {
			return value
		}
	}
	return ""
}
