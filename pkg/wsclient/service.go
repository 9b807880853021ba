// Package wsclient subscribes to a running solar_api websocket stream
// and hands every reading payload to a consumer.
package wsclient

import (
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

// Manage the websocket connection and call handleReading for each
// reading payload. Payloads are the JSON documents solar_api broadcasts;
// the sensor set depends on the remote schema, so they are delivered raw.
func StartListener(host string, handleReading func(payload []byte)) {
	const (
		maxRetries     = 10
		baseRetryDelay = 2 * time.Second
		maxRetryDelay  = 60 * time.Second
	)

	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}

	// Channel to handle interrupt signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	retryCount := 0

	for {
		select {
		case <-interrupt:
			log.Println("Interrupt received, shutting down...")
			return
		default:
			// Calculate retry delay with exponential backoff
			retryDelay := time.Duration(1<<retryCount) * baseRetryDelay
			if retryDelay > maxRetryDelay {
				retryDelay = maxRetryDelay
			}

			if retryCount > 0 {
				log.Printf("Retrying connection in %v... (attempt %d/%d)", retryDelay, retryCount+1, maxRetries)
				select {
				case <-time.After(retryDelay):
				case <-interrupt:
					log.Println("Interrupt received during retry wait, shutting down...")
					return
				}
			}

			log.Printf("Connecting to %s", u.String())

			dialer := websocket.DefaultDialer
			dialer.HandshakeTimeout = 10 * time.Second
			c, _, err := dialer.Dial(u.String(), nil)
			if err != nil {
				log.Printf("Connection failed: %v", err)
				retryCount++
				if retryCount >= maxRetries {
					log.Printf("Max retries (%d) reached. Giving up.", maxRetries)
					return
				}
				continue
			}

			log.Println("Connected! Accepting readings.")

			// Reset retry count on successful connection
			retryCount = 0

			connectionBroken := handleConnection(c, interrupt, handleReading)

			c.Close()

			if !connectionBroken {
				// Clean shutdown requested
				return
			}

			log.Println("Connection lost, will retry...")
		}
	}
}

func handleConnection(
	c *websocket.Conn,
	interrupt chan os.Signal,
	handleReading func(payload []byte),
) bool {
	done := make(chan struct{})

	// Readings arrive only when the device sends frames; a silent device
	// is legitimate, so the deadline is generous and only catches dead
	// TCP connections after our own pings go unanswered.
	c.SetReadDeadline(time.Now().Add(90 * time.Second))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	// Goroutine to read messages
	go func() {
		defer close(done)
		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket error: %v", err)
				} else {
					log.Printf("Connection closed: %v", err)
				}
				return
			}

			c.SetReadDeadline(time.Now().Add(90 * time.Second))

			if messageType == websocket.TextMessage {
				handleReading(message)
			} else {
				log.Printf("Received unexpected message type: %d", messageType)
			}
		}
	}()

	// Goroutine to send periodic pings to keep connection alive
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
					log.Printf("Failed to send ping: %v", err)
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Wait for connection to break or interrupt signal
	select {
	case <-done:
		// Connection broke
		return true
	case <-interrupt:
		log.Println("Interrupt received, closing connection...")

		err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			log.Println("Error sending close message:", err)
		}

		// Wait for close confirmation or timeout
		select {
		case <-done:
		case <-time.After(time.Second):
		}

		// Clean shutdown
		return false
	}
}
