// Solar collector subscribes to a running solar_api instance and prints
// every reading it broadcasts. Depends on the API being online.
package main

import (
	"fmt"
	"os"

	"github.com/vbusmon/vbus_solar_monitor/pkg/wsclient"
)

func main() {
	// Set the host:port from env var SOLAR_API_HOST
	host := os.Getenv("SOLAR_API_HOST")
	if host == "" {
		host = "raspberrypi.local:8088"
	}

	// Subscribe to websocket with revive
	wsclient.StartListener(host, handleReading)
}

func handleReading(payload []byte) {
	fmt.Println(string(payload))
}
