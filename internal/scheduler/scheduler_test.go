package scheduler

import (
	"sync"
	"testing"
	"time"

	"auction-engine/internal/broadcast"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// capturePublisher records published events for assertions
type capturePublisher struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (p *capturePublisher) Publish(event broadcast.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) count(eventType, auctionID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType && e.AuctionID == auctionID {
			n++
		}
	}
	return n
}

func seedAuction(t *testing.T, store *repository.MemoryStore, auctionID string, status model.AuctionStatus, start, end time.Time) {
	t.Helper()
	require.NoError(t, store.CreateAuction(model.Auction{
		AuctionID:     auctionID,
		SellerID:      "seller1",
		StartingPrice: decimal.NewFromInt(100),
		BidIncrement:  decimal.NewFromInt(10),
		CurrentBid:    decimal.NewFromInt(100),
		StartTime:     start,
		EndTime:       end,
		Status:        status,
		CreatedAt:     time.Now().UTC(),
	}))
}

// A due SCHEDULED auction activates, a due ACTIVE auction ends, and the
// corresponding events fire once each.
func TestStatusEngine_RunCycle(t *testing.T) {
	now := time.Now().UTC()
	store := repository.NewMemoryStore()
	publisher := &capturePublisher{}

	seedAuction(t, store, "starting", model.AuctionScheduled, now.Add(-time.Minute), now.Add(time.Hour))
	seedAuction(t, store, "ending", model.AuctionActive, now.Add(-2*time.Hour), now.Add(-time.Minute))
	seedAuction(t, store, "future", model.AuctionScheduled, now.Add(time.Hour), now.Add(2*time.Hour))
	seedAuction(t, store, "running", model.AuctionActive, now.Add(-time.Hour), now.Add(time.Hour))

	engine := NewStatusEngine(store, publisher, time.Second, 100)
	engine.clock = func() time.Time { return now }
	engine.RunCycle()

	started, err := store.GetAuction("starting")
	require.NoError(t, err)
	require.Equal(t, model.AuctionActive, started.Status)

	ended, err := store.GetAuction("ending")
	require.NoError(t, err)
	require.Equal(t, model.AuctionEnded, ended.Status)

	untouched, err := store.GetAuction("future")
	require.NoError(t, err)
	require.Equal(t, model.AuctionScheduled, untouched.Status)

	running, err := store.GetAuction("running")
	require.NoError(t, err)
	require.Equal(t, model.AuctionActive, running.Status)

	require.Equal(t, 1, publisher.count(broadcast.EventAuctionStarted, "starting"))
	require.Equal(t, 1, publisher.count(broadcast.EventAuctionStatusChanged, "starting"))
	require.Equal(t, 1, publisher.count(broadcast.EventAuctionEnded, "ending"))
	require.Equal(t, 0, publisher.count(broadcast.EventAuctionEnded, "running"))
}

// Repeated cycles must not re-fire a transition that already happened
func TestStatusEngine_CycleIdempotent(t *testing.T) {
	now := time.Now().UTC()
	store := repository.NewMemoryStore()
	publisher := &capturePublisher{}

	seedAuction(t, store, "ending", model.AuctionActive, now.Add(-2*time.Hour), now.Add(-time.Minute))

	engine := NewStatusEngine(store, publisher, time.Second, 100)
	engine.clock = func() time.Time { return now }

	engine.RunCycle()
	engine.RunCycle()
	engine.RunCycle()

	require.Equal(t, 1, publisher.count(broadcast.EventAuctionEnded, "ending"))
}

// Two engines over the same store, cycles overlapping: each transition
// applies at most once because the conditional update arbitrates.
func TestStatusEngine_ConcurrentEngines(t *testing.T) {
	now := time.Now().UTC()
	store := repository.NewMemoryStore()
	publisher := &capturePublisher{}

	for _, id := range []string{"a1", "a2", "a3"} {
		seedAuction(t, store, id, model.AuctionActive, now.Add(-2*time.Hour), now.Add(-time.Minute))
	}

	first := NewStatusEngine(store, publisher, time.Second, 100)
	first.clock = func() time.Time { return now }
	second := NewStatusEngine(store, publisher, time.Second, 100)
	second.clock = func() time.Time { return now }

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); first.RunCycle() }()
		go func() { defer wg.Done(); second.RunCycle() }()
	}
	wg.Wait()

	for _, id := range []string{"a1", "a2", "a3"} {
		require.Equal(t, 1, publisher.count(broadcast.EventAuctionEnded, id), "auction %s must end exactly once", id)
		a, err := store.GetAuction(id)
		require.NoError(t, err)
		require.Equal(t, model.AuctionEnded, a.Status)
	}
}

// The per-cycle batch bound caps how many transitions one scan applies
func TestStatusEngine_BatchBound(t *testing.T) {
	now := time.Now().UTC()
	store := repository.NewMemoryStore()
	publisher := &capturePublisher{}

	for _, id := range []string{"a1", "a2", "a3", "a4"} {
		seedAuction(t, store, id, model.AuctionScheduled, now.Add(-time.Minute), now.Add(time.Hour))
	}

	engine := NewStatusEngine(store, publisher, time.Second, 2)
	engine.clock = func() time.Time { return now }

	engine.RunCycle()
	activated := 0
	for _, id := range []string{"a1", "a2", "a3", "a4"} {
		a, err := store.GetAuction(id)
		require.NoError(t, err)
		if a.Status == model.AuctionActive {
			activated++
		}
	}
	require.Equal(t, 2, activated)

	// The next cycle picks up the remainder.
	engine.RunCycle()
	for _, id := range []string{"a1", "a2", "a3", "a4"} {
		a, err := store.GetAuction(id)
		require.NoError(t, err)
		require.Equal(t, model.AuctionActive, a.Status)
	}
}

// A full lifecycle pass: SCHEDULED -> ACTIVE -> ENDED across two cycles
func TestStatusEngine_Lifecycle(t *testing.T) {
	start := time.Now().UTC()
	store := repository.NewMemoryStore()
	publisher := &capturePublisher{}

	seedAuction(t, store, "lot", model.AuctionScheduled, start.Add(time.Minute), start.Add(2*time.Minute))

	engine := NewStatusEngine(store, publisher, time.Second, 100)

	current := start
	engine.clock = func() time.Time { return current }

	engine.RunCycle() // nothing due yet
	a, _ := store.GetAuction("lot")
	require.Equal(t, model.AuctionScheduled, a.Status)

	current = start.Add(time.Minute)
	engine.RunCycle()
	a, _ = store.GetAuction("lot")
	require.Equal(t, model.AuctionActive, a.Status)

	current = start.Add(2 * time.Minute)
	engine.RunCycle()
	a, _ = store.GetAuction("lot")
	require.Equal(t, model.AuctionEnded, a.Status)

	require.Equal(t, 1, publisher.count(broadcast.EventAuctionStarted, "lot"))
	require.Equal(t, 1, publisher.count(broadcast.EventAuctionEnded, "lot"))
	require.Equal(t, 2, publisher.count(broadcast.EventAuctionStatusChanged, "lot"))
}
