// Solar API reads VBus frames from the solar controller's serial port
// and serves the latest decoded reading over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vbusmon/vbus_solar_monitor/pkg/config"
	"github.com/vbusmon/vbus_solar_monitor/pkg/httpapi"
	"github.com/vbusmon/vbus_solar_monitor/pkg/latest"
	"github.com/vbusmon/vbus_solar_monitor/pkg/port_reader"
	"github.com/vbusmon/vbus_solar_monitor/pkg/schema"
)

func main() {
	// Load config
	if err := config.LoadSolarAPIConfig(); err != nil {
		log.Fatalf("Failed to load solar API config: %v", err)
	}
	cfg := config.ActiveSolarAPIConfig

	// Build the active sensor schema; bad entries stop the start.
	activeSchema, err := schema.FromEntries(cfg.Sensors)
	if err != nil {
		log.Fatalf("Invalid sensor config: %v", err)
	}
	if activeSchema.Len() == 0 {
		log.Println("No sensors enabled; readings will carry device and timestamp only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := latest.NewStore()
	apiServer := httpapi.NewServer(store, activeSchema, cfg.InverterEnabled())

	// Start VBus reader
	vbusReader := port_reader.NewVBusReader(cfg.Serial, cfg.Device.Name, activeSchema, store)
	if err := vbusReader.Connect(); err != nil {
		log.Fatalf("Failed to start VBus reader: %v", err)
	}
	vbusReader.StartReading(ctx,
		apiServer.Broadcast,
		func(err error) {
			// The serial link is gone; without it the service can only
			// serve stale data, so shut down loudly.
			log.Printf("Fatal VBus transport error: %v", err)
			stop()
		},
	)

	// One server on both wildcard addresses.
	server := &http.Server{Handler: apiServer.Mux()}

	listener4, err := net.Listen("tcp4", fmt.Sprintf("0.0.0.0:%d", cfg.Server.ListenPort))
	if err != nil {
		log.Fatalf("Failed to listen on IPv4: %v", err)
	}
	listener6, err := net.Listen("tcp6", fmt.Sprintf("[::]:%d", cfg.Server.ListenPort))
	if err != nil {
		log.Fatalf("Failed to listen on IPv6: %v", err)
	}

	log.Printf("Starting VBus Solar Monitor API on port %d", cfg.Server.ListenPort)
	go serve(server, listener4)
	go serve(server, listener6)

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
}

func serve(server *http.Server, listener net.Listener) {
	if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
}
