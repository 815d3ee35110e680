// Package protocol implements the line-oriented text protocol spoken
// between the aggregation server and its clients. It is HTTP/1.1-shaped
// but deliberately minimal: one request and one response per connection,
// Connection: close always, and a Lamport-Clock header on every message.
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	// Version is the protocol version sent on every request line.
	Version = "HTTP/1.1"

	// HeaderLamportClock carries the sender's logical clock value.
	HeaderLamportClock = "Lamport-Clock"
)

var (
	// ErrBadRequestLine is returned when the request line is not
	// "<METHOD> <path> <version>". The rest of the request is still
	// consumed so the clock header can be merged before rejection.
	ErrBadRequestLine = errors.New("malformed request line")
)

// Request is one decoded wire request.
type Request struct {
	Method  string
	Path    string
	Version string

	Host        string
	UserAgent   string
	ContentType string

	// LamportClock is the sender's clock value at send time.
	LamportClock uint64

	Body []byte
}

// Response is one decoded wire response.
type Response struct {
	StatusCode   int
	StatusText   string
	LamportClock uint64
	Body         []byte
}

// StatusText returns the phrase sent with code on the status line.
func StatusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 400:
		return "Bad Request"
	case 404:
		return "Not Found"
	case 500:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}

// ReadRequest decodes one request from r.
//
// A connection that closes before yielding a request line returns
// (nil, io.EOF); callers drop it silently. A malformed request line
// returns the partially decoded request together with ErrBadRequestLine,
// after the headers have been consumed, so the receiver can still merge
// the carried clock before answering 400.
func ReadRequest(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}

	req := &Request{}
	lineErr := error(nil)

	fields := strings.Fields(line)
	if len(fields) == 3 {
		req.Method = fields[0]
		req.Path = fields[1]
		req.Version = fields[2]
	} else {
		lineErr = fmt.Errorf("%w: %q", ErrBadRequestLine, line)
	}

	contentLength := 0
	for {
		header, err := readLine(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return req, err
		}
		if header == "" {
			break
		}

		name, value, ok := strings.Cut(header, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch {
		case strings.EqualFold(name, HeaderLamportClock):
			if clk, err := strconv.ParseUint(value, 10, 64); err == nil {
				req.LamportClock = clk
			}
		case strings.EqualFold(name, "Content-Length"):
			if n, err := strconv.Atoi(value); err == nil {
				contentLength = n
			}
		case strings.EqualFold(name, "Host"):
			req.Host = value
		case strings.EqualFold(name, "User-Agent"):
			req.UserAgent = value
		case strings.EqualFold(name, "Content-Type"):
			req.ContentType = value
		}
	}

	if lineErr != nil {
		return req, lineErr
	}

	if contentLength > 0 {
		body := make([]byte, contentLength)
		if _, err := io.ReadFull(r, body); err != nil {
			return req, fmt.Errorf("read body: %w", err)
		}
		req.Body = body
	}
	return req, nil
}

// WriteRequest encodes req onto w in wire form.
func WriteRequest(w io.Writer, req *Request) error {
	var b strings.Builder

	version := req.Version
	if version == "" {
		version = Version
	}
	fmt.Fprintf(&b, "%s %s %s\r\n", req.Method, req.Path, version)
	fmt.Fprintf(&b, "Host: %s\r\n", req.Host)
	fmt.Fprintf(&b, "User-Agent: %s\r\n", req.UserAgent)
	if len(req.Body) > 0 {
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
	}
	fmt.Fprintf(&b, "%s: %d\r\n", HeaderLamportClock, req.LamportClock)
	if len(req.Body) > 0 {
		fmt.Fprintf(&b, "Content-Length: %d\r\n", len(req.Body))
	}
	b.WriteString("Connection: close\r\n")
	b.WriteString("\r\n")
	b.Write(req.Body)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteResponse encodes resp onto w in wire form.
func WriteResponse(w io.Writer, resp *Response) error {
	var b strings.Builder

	statusText := resp.StatusText
	if statusText == "" {
		statusText = StatusText(resp.StatusCode)
	}
	fmt.Fprintf(&b, "%s %d %s\r\n", Version, resp.StatusCode, statusText)
	fmt.Fprintf(&b, "%s: %d\r\n", HeaderLamportClock, resp.LamportClock)
	b.WriteString("Content-Type: application/json\r\n")
	b.WriteString("Connection: close\r\n")
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(resp.Body))
	b.WriteString("\r\n")
	b.Write(resp.Body)

	_, err := io.WriteString(w, b.String())
	return err
}

// ReadResponse consumes r until the peer closes the connection, then
// decodes the response. Clients read length-unbounded on purpose: the
// peer always closes after one response.
func ReadResponse(r io.Reader) (*Response, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(raw) == 0 {
		return nil, io.ErrUnexpectedEOF
	}

	head, body, found := strings.Cut(string(raw), "\r\n\r\n")
	if !found {
		head, body, _ = strings.Cut(string(raw), "\n\n")
	}

	resp := &Response{Body: []byte(body)}
	for i, line := range strings.Split(head, "\n") {
		line = strings.TrimRight(line, "\r")
		if i == 0 {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return nil, fmt.Errorf("malformed status line %q", line)
			}
			code, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("malformed status code %q", fields[1])
			}
			resp.StatusCode = code
			resp.StatusText = strings.Join(fields[2:], " ")
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(name, HeaderLamportClock) {
			if clk, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64); err == nil {
				resp.LamportClock = clk
			}
		}
	}
	return resp, nil
}

// readLine reads one CRLF- or LF-terminated line without the terminator.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
