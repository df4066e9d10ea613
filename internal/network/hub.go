package network

import "log"

// broadcastRequest goes to every subscriber of gameID, or only to client
// when it is set.
type broadcastRequest struct {
	gameID string
	client *Client
	msg    Message
	final  bool
}

type countRequest struct {
	gameID string
	reply  chan int
}

// Hub keeps the websocket subscribers of every game and fans messages out to
// them. All of its state is owned by the Run goroutine.
type Hub struct {
	// Subscribers per game id. Accessed ONLY by the Run goroutine.
	games map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastRequest
	count      chan countRequest
	quit       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		games:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastRequest, 64),
		count:      make(chan countRequest),
		quit:       make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns after Stop, disconnecting everyone.
func (h *Hub) Run() {
	log.Println("[Hub] Started.")
	for {
		select {
		case client := <-h.register:
			clients, ok := h.games[client.gameID]
			if !ok {
				clients = make(map[*Client]bool)
				h.games[client.gameID] = clients
			}
			clients[client] = true

		case client := <-h.unregister:
			h.drop(client)

		case req := <-h.broadcast:
			if req.client != nil {
				h.sendTo(req.client, req)
				continue
			}
			for client := range h.games[req.gameID] {
				h.sendTo(client, req)
			}

		case req := <-h.count:
			req.reply <- len(h.games[req.gameID])

		case <-h.quit:
			for _, clients := range h.games {
				for client := range clients {
					close(client.send)
				}
			}
			h.games = nil
			log.Println("[Hub] Stopped.")
			return
		}
	}
}

// sendTo queues the request's message for one client, dropping the client
// when it is too slow or the message is its last one.
func (h *Hub) sendTo(client *Client, req broadcastRequest) {
	if !h.games[client.gameID][client] {
		return
	}
	select {
	case client.send <- req.msg:
	default:
		log.Printf("[Hub] WARN: subscriber of game %s is too slow, disconnecting.", client.gameID)
		h.drop(client)
		return
	}
	if req.final {
		h.drop(client)
	}
}

// drop forgets a client and closes its send channel, which stops its
// writeLoop. Dropping an unknown client does nothing.
func (h *Hub) drop(client *Client) {
	clients, ok := h.games[client.gameID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.games, client.gameID)
	}
}

// Stop ends Run. It must be called at most once.
func (h *Hub) Stop() {
	close(h.quit)
}

// Broadcast queues msg for every subscriber of gameID.
func (h *Hub) Broadcast(gameID string, msg Message) {
	select {
	case h.broadcast <- broadcastRequest{gameID: gameID, msg: msg}:
	case <-h.quit:
	}
}

// deliver queues msg for client alone. It is ordered with the broadcasts
// queued before and after it.
func (h *Hub) deliver(client *Client, msg Message) {
	select {
	case h.broadcast <- broadcastRequest{gameID: client.gameID, client: client, msg: msg}:
	case <-h.quit:
	}
}

// release disconnects client.
func (h *Hub) release(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// CloseGame sends msg to the subscribers of gameID and then disconnects them.
func (h *Hub) CloseGame(gameID string, msg Message) {
	select {
	case h.broadcast <- broadcastRequest{gameID: gameID, msg: msg, final: true}:
	case <-h.quit:
	}
}

// Subscribers returns how many connections currently follow gameID.
func (h *Hub) Subscribers(gameID string) int {
	reply := make(chan int, 1)
	select {
	case h.count <- countRequest{gameID: gameID, reply: reply}:
		return <-reply
	case <-h.quit:
		return 0
	}
}
