package scheduler

import (
	"context"
	"errors"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/broadcast"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"
)

// StatusEngine is the periodic reconciliation process that moves auctions
// across their scheduled boundaries: SCHEDULED -> ACTIVE once the start time
// is reached, ACTIVE -> ENDED once the end time is reached. Every transition
// is a conditional update keyed on the expected current status, so a crashed
// run, an overlapping cycle or a second engine replica can never apply the
// same transition twice.
type StatusEngine struct {
	store     repository.AuctionStore
	publisher broadcast.Publisher
	interval  time.Duration
	batchSize int
	clock     func() time.Time
}

// NewStatusEngine creates a status engine scanning on the given period with a
// bounded batch per cycle
func NewStatusEngine(store repository.AuctionStore, publisher broadcast.Publisher, interval time.Duration, batchSize int) *StatusEngine {
	return &StatusEngine{
		store:     store,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// Run scans on a fixed period until the context is cancelled. Call in its
// own goroutine.
func (e *StatusEngine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	utils.Info("status engine started", map[string]any{
		"interval":   e.interval.String(),
		"batch_size": e.batchSize,
	})

	for {
		select {
		case <-ctx.Done():
			utils.Info("status engine stopped", nil)
			return
		case <-ticker.C:
			e.RunCycle()
		}
	}
}

// RunCycle performs one scan: activate due SCHEDULED auctions, then end due
// ACTIVE ones. Exported so tests can drive cycles without the ticker.
func (e *StatusEngine) RunCycle() {
	now := e.clock()
	e.transitionDue(now, model.AuctionScheduled, model.AuctionActive, broadcast.EventAuctionStarted)
	e.transitionDue(now, model.AuctionActive, model.AuctionEnded, broadcast.EventAuctionEnded)
}

// transitionDue applies one boundary crossing to every due auction. Faults
// are isolated per auction: one bad record is logged and skipped, the rest of
// the batch still transitions, and the faulting auction is retried on the
// next cycle.
func (e *StatusEngine) transitionDue(now time.Time, from, to model.AuctionStatus, eventType string) {
	due, err := e.store.ListDueAuctions(from, now, e.batchSize)
	if err != nil {
		utils.Error("status engine: failed to scan due auctions", map[string]any{
			"from":  string(from),
			"error": err.Error(),
		})
		return
	}

	for _, auction := range due {
		updated, err := e.store.TransitionStatus(auction.AuctionID, from, to)
		if errors.Is(err, auctionerrors.ErrStaleTransition) {
			// Another cycle or replica already applied this crossing.
			continue
		}
		if err != nil {
			utils.Error("status engine: transition failed", map[string]any{
				"auction_id": auction.AuctionID,
				"from":       string(from),
				"to":         string(to),
				"error":      err.Error(),
			})
			continue
		}

		// Emitted once per applied transition, from the same unit of work,
		// never speculatively before the store commit.
		e.publisher.Publish(broadcast.NewAuctionEvent(eventType, updated))
		e.publisher.Publish(broadcast.NewAuctionEvent(broadcast.EventAuctionStatusChanged, updated))

		utils.Info("status engine: auction transitioned", map[string]any{
			"auction_id": updated.AuctionID,
			"from":       string(from),
			"to":         string(to),
		})
	}
}
