package client

import (
	"fmt"
	"strings"

	"github.com/stationfeed/stationfeed/internal/payload"
	"github.com/stationfeed/stationfeed/internal/protocol"
)

// Reader pulls current readings from the aggregation server.
type Reader struct {
	transport *Transport
}

// NewReader creates a Reader over the given transport.
func NewReader(transport *Transport) *Reader {
	return &Reader{transport: transport}
}

// Fetch GETs the whole collection, or a single station when stationID is
// non-empty.
func (r *Reader) Fetch(stationID string) (*protocol.Response, error) {
	path := "/weather.json"
	if stationID != "" {
		path += "?id=" + stationID
	}

	req := &protocol.Request{
		Method: "GET",
		Path:   path,
	}
	return r.transport.Exchange(req)
}

// FormatReport renders a response body as human-readable station blocks,
// one "key: value" line per field. An empty body reports no data.
func FormatReport(body []byte) (string, error) {
	docs, err := payload.ParseAll(body)
	if err != nil {
		return "", fmt.Errorf("parse response body: %w", err)
	}
	if len(docs) == 0 {
		return "No weather data available.", nil
	}

	var b strings.Builder
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Weather Station Data:\n")
		for _, line := range doc.Lines() {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
