// Package httpapi serves the decoded readings: JSON at /, metrics
// exposition at /metrics, a live websocket stream at /ws, and the
// optional inverter power at /solar.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vbusmon/vbus_solar_monitor/pkg/decoder"
	"github.com/vbusmon/vbus_solar_monitor/pkg/latest"
	"github.com/vbusmon/vbus_solar_monitor/pkg/publisher"
	"github.com/vbusmon/vbus_solar_monitor/pkg/schema"
	"github.com/vbusmon/vbus_solar_monitor/pkg/solarinverter"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

type Server struct {
	store  *latest.Store
	schema *schema.Schema

	// ws clients for broadcasting live readings
	wsClients      map[*websocket.Conn]bool
	wsClientsMutex sync.RWMutex

	solarEnabled bool
}

func NewServer(store *latest.Store, s *schema.Schema, solarEnabled bool) *Server {
	return &Server{
		store:        store,
		schema:       s,
		wsClients:    make(map[*websocket.Conn]bool),
		solarEnabled: solarEnabled,
	}
}

func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleJSON)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/ws", s.handleWebSocket)
	if s.solarEnabled {
		mux.HandleFunc("/solar", s.handleSolar)
	}
	return mux
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	reading := s.store.Get()
	if reading == nil {
		// No frame decoded yet
		http.Error(w, "no reading available yet", http.StatusServiceUnavailable)
		return
	}

	body, err := publisher.RenderJSON(reading)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	reading := s.store.Get()
	if reading == nil {
		http.Error(w, "no reading available yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(publisher.RenderMetrics(reading, s.schema)))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	s.addWebSocketClient(conn)

	// Send current reading immediately if available
	if reading := s.store.Get(); reading != nil {
		if body, err := publisher.RenderJSON(reading); err == nil {
			conn.WriteMessage(websocket.TextMessage, body)
		}
	}

	// Keep connection alive
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			s.removeWebSocketClient(conn)
			break
		}
	}
}

func (s *Server) handleSolar(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	power, err := solarinverter.ReadSolarData()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": err.Error(),
		})
		return
	}
	json.NewEncoder(w).Encode(map[string]int32{
		"currentProduction": power,
	})
}

// Broadcast pushes a reading to every connected websocket client.
func (s *Server) Broadcast(reading *decoder.Reading) {
	body, err := publisher.RenderJSON(reading)
	if err != nil {
		log.Printf("Error rendering reading: %v", err)
		return
	}

	s.wsClientsMutex.RLock()
	clients := make([]*websocket.Conn, 0, len(s.wsClients))
	for client := range s.wsClients {
		clients = append(clients, client)
	}
	s.wsClientsMutex.RUnlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, body); err != nil {
			s.removeWebSocketClient(client)
		}
	}
}

func (s *Server) addWebSocketClient(conn *websocket.Conn) {
	s.wsClientsMutex.Lock()
	s.wsClients[conn] = true
	s.wsClientsMutex.Unlock()
}

func (s *Server) removeWebSocketClient(conn *websocket.Conn) {
	s.wsClientsMutex.Lock()
	delete(s.wsClients, conn)
	s.wsClientsMutex.Unlock()
	conn.Close()
}
