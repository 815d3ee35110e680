package client

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/stationfeed/stationfeed/internal/payload"
	"github.com/stationfeed/stationfeed/internal/protocol"
)

// Producer pushes one weather reading to the aggregation server.
type Producer struct {
	transport *Transport
}

// NewProducer creates a Producer over the given transport.
func NewProducer(transport *Transport) *Producer {
	return &Producer{transport: transport}
}

// ParseSourceFile reads a flat "key: value" data file into raw pairs.
// Blank lines are skipped; a line without a colon is ignored. The value
// keeps everything after the first colon.
func ParseSourceFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read data file %s: %w", path, err)
	}
	defer f.Close()

	fields := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found || strings.TrimSpace(key) == "" {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read data file %s: %w", path, err)
	}
	return fields, nil
}

// BuildPayload converts raw pairs into the wire payload, requiring a
// non-empty id. Validation failures here never reach the network.
func BuildPayload(fields map[string]string) (payload.Document, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no valid data found")
	}
	return payload.FromFields(fields)
}

// Publish PUTs doc to the aggregation server and returns the response.
// A response outside 200/201 is reported as an error by the caller; the
// exchange itself is still complete.
func (p *Producer) Publish(doc payload.Document) (*protocol.Response, error) {
	body, err := doc.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	req := &protocol.Request{
		Method:      "PUT",
		Path:        "/weather.json",
		ContentType: "application/json",
		Body:        body,
	}
	return p.transport.Exchange(req)
}
