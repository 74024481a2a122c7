package broadcast

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	model "auction-engine/internal/models"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// startHubServer runs a hub behind a test websocket endpoint. The returned
// channel signals each completed client registration.
func startHubServer(t *testing.T, hub *Hub) (*httptest.Server, chan struct{}) {
	t.Helper()
	registered := make(chan struct{}, 8)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		client := NewClient(hub, conn, r.URL.Query().Get("auction_id"))
		hub.Register <- client
		registered <- struct{}{}

		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(srv.Close)
	return srv, registered
}

func dial(t *testing.T, srv *httptest.Server, auctionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	if auctionID != "" {
		url += "?auction_id=" + auctionID
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(payload, &env))
	return env
}

func sampleAuction(auctionID string) model.Auction {
	return model.Auction{
		AuctionID:  auctionID,
		Status:     model.AuctionActive,
		CurrentBid: decimal.NewFromInt(110),
		BidCount:   1,
		EndTime:    time.Now().UTC().Add(time.Hour),
	}
}

// A global subscriber sees events for every auction; a detail-view
// subscriber sees only its own auction's topic.
func TestHub_Fanout(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv, registered := startHubServer(t, hub)

	globalConn := dial(t, srv, "")
	detailConn := dial(t, srv, "auction1")
	<-registered
	<-registered

	hub.Publish(NewAuctionEvent(EventBidPlaced, sampleAuction("auction1")))
	hub.Publish(NewAuctionEvent(EventAuctionEnded, sampleAuction("auction2")))

	first := readEnvelope(t, globalConn)
	require.Equal(t, TopicGlobal, first.Topic)
	require.Equal(t, "auction1", first.Event.AuctionID)

	second := readEnvelope(t, globalConn)
	require.Equal(t, TopicGlobal, second.Topic)
	require.Equal(t, "auction2", second.Event.AuctionID)

	// The detail client only ever sees auction1's topic.
	env := readEnvelope(t, detailConn)
	require.Equal(t, TopicAuction("auction1"), env.Topic)
	require.Equal(t, EventBidPlaced, env.Event.Type)

	detailConn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := detailConn.ReadMessage()
	require.Error(t, err, "auction2 events must not reach the auction1 subscriber")
}

// The event payload carries the full snapshot a client needs
func TestHub_EventPayload(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv, registered := startHubServer(t, hub)
	conn := dial(t, srv, "auction1")
	<-registered

	auction := sampleAuction("auction1")
	hub.Publish(NewAuctionEvent(EventAuctionStatusChanged, auction))

	env := readEnvelope(t, conn)
	require.Equal(t, EventAuctionStatusChanged, env.Event.Type)
	require.Equal(t, auction.AuctionID, env.Event.Auction.AuctionID)
	require.Equal(t, auction.Status, env.Event.Auction.Status)
	require.True(t, env.Event.Auction.CurrentBid.Equal(auction.CurrentBid))
	require.Equal(t, auction.BidCount, env.Event.Auction.BidCount)
}

// Publishing with no subscribers, or into a saturated queue, never blocks
// or fails the caller.
func TestHub_PublishIsFireAndForget(t *testing.T) {
	hub := NewHub()
	// Run is deliberately not started: the queue fills up and overflow
	// events are dropped.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			hub.Publish(NewAuctionEvent(EventBidPlaced, sampleAuction("auction1")))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish must never block")
	}
}
