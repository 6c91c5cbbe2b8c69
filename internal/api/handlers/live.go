package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// UpdatesFeed is the slice of the event bus the live endpoint needs.
type UpdatesFeed interface {
	SubscribeUpdates(ctx context.Context) (<-chan string, func(), error)
}

// LiveHandler streams accepted routes and route updates over a websocket.
type LiveHandler struct {
	Feed UpdatesFeed
}

func (h *LiveHandler) Live(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Read pump: detect client disconnect.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	updates, unsubscribe, err := h.Feed.SubscribeUpdates(ctx)
	if err != nil {
		log.Printf("subscribe updates failed: %v", err)
		return
	}
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, json.RawMessage(payload)); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}
}
