package network

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
)

var errHubStopped = errors.New("hub stopped")

// upgrader holds the settings for turning an HTTP request into a websocket.
var upgrader = websocket.Upgrader{
	// Any origin may follow a game; there is nothing to steal.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// AttachFunc is called once a new subscriber of a game is registered. It
// hands the subscriber its first message through deliver; whatever is
// broadcast to the game after deliver returns reaches the subscriber after
// that message. An error disconnects the subscriber.
type AttachFunc func(deliver func(Message)) error

// Serve upgrades the request, subscribes the connection to gameID and then
// runs attach. When the upgrade fails the error response has already been
// written.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, gameID string, attach AttachFunc) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		conn:   conn,
		hub:    h,
		gameID: gameID,
		send:   make(chan Message, sendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.quit:
		conn.Close()
		return errHubStopped
	}

	go client.writeLoop()
	go client.readLoop()

	if err := attach(func(msg Message) { h.deliver(client, msg) }); err != nil {
		h.release(client)
		return err
	}
	return nil
}
