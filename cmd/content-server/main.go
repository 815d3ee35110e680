package main

import (
	"fmt"
	"log"
	"os"

	"github.com/stationfeed/stationfeed/internal/client"
	"github.com/stationfeed/stationfeed/internal/lamport"
)

const defaultPort = 4567

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <server_url> <data_file>\n", os.Args[0])
		os.Exit(1)
	}

	serverURL := os.Args[1]
	dataFilePath := os.Args[2]

	// Parse the local data file before touching the network; a file
	// without a usable id never produces a request.
	fields, err := client.ParseSourceFile(dataFilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	doc, err := client.BuildPayload(fields)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	encoded, err := doc.Encode()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated payload:\n%s\n\n", encoded)

	transport, err := client.NewTransport(serverURL, defaultPort, "ContentServer/1.0", lamport.NewClock())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid server URL %q: %v\n", serverURL, err)
		fmt.Fprintln(os.Stderr, "Use format: hostname:port or http://hostname:port")
		os.Exit(1)
	}

	log.Printf("INFO: sending PUT request to %s", transport.Addr())

	resp, err := client.NewProducer(transport).Publish(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to send data to aggregation server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Status: %d %s\n", resp.StatusCode, resp.StatusText)
	if len(resp.Body) > 0 {
		fmt.Printf("Response body: %s\n", resp.Body)
	}

	if resp.StatusCode != 200 && resp.StatusCode != 201 {
		fmt.Println("PUT request failed")
		os.Exit(1)
	}
	fmt.Println("Data successfully sent to aggregation server")
}
