package main

import (
	"fmt"
	"os"

	"github.com/stationfeed/stationfeed/internal/client"
	"github.com/stationfeed/stationfeed/internal/lamport"
)

const defaultPort = 4567

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <server_url> [station_id]\n", os.Args[0])
		os.Exit(1)
	}

	serverURL := os.Args[1]
	stationID := ""
	if len(os.Args) > 2 {
		stationID = os.Args[2]
	}

	transport, err := client.NewTransport(serverURL, defaultPort, "GETClient/1.0", lamport.NewClock())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid server URL %q: %v\n", serverURL, err)
		fmt.Fprintln(os.Stderr, "Use format: hostname:port or http://hostname:port")
		os.Exit(1)
	}

	resp, err := client.NewReader(transport).Fetch(stationID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch data from aggregation server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Status: %d %s\n", resp.StatusCode, resp.StatusText)

	switch resp.StatusCode {
	case 200:
		report, err := client.FormatReport(resp.Body)
		if err != nil {
			fmt.Printf("Error parsing response: %v\nRaw response body: %s\n", err, resp.Body)
			os.Exit(1)
		}
		fmt.Println(report)
	case 204:
		fmt.Println("No weather data available.")
	default:
		if len(resp.Body) > 0 {
			fmt.Printf("%s\n", resp.Body)
		}
		os.Exit(1)
	}
}
