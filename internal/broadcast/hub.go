package broadcast

import (
	"encoding/json"
	"sync"

	"auction-engine/utils"
)

// envelope is what actually goes over the wire: the topic the event was
// published on plus the event itself.
type envelope struct {
	Topic string `json:"topic"`
	Event Event  `json:"event"`
}

// Hub maintains the set of connected clients and fans published events out to
// the global topic (every client) and per-auction topics (clients viewing
// that auction). Delivery is at-most-once per send: a slow client's buffer
// overflowing drops the client, never blocks the publisher.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Published events awaiting fan-out.
	events chan envelope

	// Clients subscribed to a specific auction topic.
	auctionClients map[string][]*Client

	// Guards auctionClients.
	mutex sync.Mutex
}

// NewHub creates a hub ready to Run
func NewHub() *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		events:         make(chan envelope, 256),
		auctionClients: make(map[string][]*Client),
	}
}

// Run dispatches registrations and published events. Call in its own
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			h.subscribe(client)
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.unsubscribe(client)
			}
		case env := <-h.events:
			h.dispatch(env)
		}
	}
}

// Publish sends the event to the global topic and the auction's own topic.
// Fire-and-forget: if the hub's queue is full the event is dropped and
// logged, never blocking or failing the caller's committed state change.
func (h *Hub) Publish(event Event) {
	for _, topic := range []string{TopicGlobal, TopicAuction(event.AuctionID)} {
		select {
		case h.events <- envelope{Topic: topic, Event: event}:
		default:
			utils.Warn("broadcast: event dropped, hub queue full", map[string]any{
				"topic":      topic,
				"event_type": event.Type,
				"auction_id": event.AuctionID,
			})
		}
	}
}

// dispatch delivers one enveloped event to the subscribers of its topic
func (h *Hub) dispatch(env envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		utils.Error("broadcast: failed to marshal event", map[string]any{
			"event_type": env.Event.Type,
			"error":      err.Error(),
		})
		return
	}

	if env.Topic == TopicGlobal {
		for client := range h.clients {
			if client.auctionID != "" {
				continue // detail-view clients follow their auction topic only
			}
			h.deliver(client, payload)
		}
		return
	}

	h.mutex.Lock()
	subscribers := append([]*Client(nil), h.auctionClients[env.Event.AuctionID]...)
	h.mutex.Unlock()

	for _, client := range subscribers {
		h.deliver(client, payload)
	}
}

// deliver pushes a payload to one client, dropping the client if its send
// buffer is full
func (h *Hub) deliver(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		close(client.send)
		delete(h.clients, client)
		h.unsubscribe(client)
	}
}

// subscribe adds a client to its auction topic, if it has one
func (h *Hub) subscribe(client *Client) {
	if client.auctionID == "" {
		return
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.auctionClients[client.auctionID] = append(h.auctionClients[client.auctionID], client)
}

// unsubscribe removes a client from its auction topic
func (h *Hub) unsubscribe(client *Client) {
	if client.auctionID == "" {
		return
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()

	subscribers := h.auctionClients[client.auctionID]
	for i, c := range subscribers {
		if c == client {
			h.auctionClients[client.auctionID] = append(subscribers[:i], subscribers[i+1:]...)
			break
		}
	}
	if len(h.auctionClients[client.auctionID]) == 0 {
		delete(h.auctionClients, client.auctionID)
	}
}
