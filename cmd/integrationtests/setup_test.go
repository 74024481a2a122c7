package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"auction-engine/internal/auction"
	"auction-engine/internal/broadcast"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var testJWTSecret = []byte("integration-test-secret")

// SetupTestRouter initializes the router with an in-memory store seeded with
// the given auctions. The broadcast hub is omitted, the WebSocket surface has
// its own tests.
func SetupTestRouter(auctions ...model.Auction) *gin.Engine {
	gin.SetMode(gin.TestMode)
	store := repository.NewMemoryStore()

	for _, a := range auctions {
		if err := store.CreateAuction(a); err != nil {
			panic(err)
		}
	}

	service := auction.NewAuctionService(store, broadcast.NopPublisher{})
	return server.SetupRouter(service, nil, testJWTSecret)
}

// BearerToken mints a token the auth middleware accepts for the given user.
func BearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := server.IssueToken(testJWTSecret, userID, "user", time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return "Bearer " + token
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses
// the response. An empty userID sends the request unauthenticated.
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url, userID string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", BearerToken(t, userID))
	}
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}

// ActiveAuction builds an auction whose bidding window is currently open.
func ActiveAuction(auctionID, sellerID string, startingPrice, increment int64) model.Auction {
	now := time.Now().UTC()
	return model.Auction{
		AuctionID:     auctionID,
		ProductID:     "product-" + auctionID,
		SellerID:      sellerID,
		Title:         "Auction " + auctionID,
		Category:      "collectibles",
		StartingPrice: decimal.NewFromInt(startingPrice),
		BidIncrement:  decimal.NewFromInt(increment),
		CurrentBid:    decimal.NewFromInt(startingPrice),
		Status:        model.AuctionActive,
		StartTime:     now.Add(-time.Hour),
		EndTime:       now.Add(time.Hour),
		CreatedAt:     now.Add(-time.Hour),
		UpdatedAt:     now.Add(-time.Hour),
	}
}

// EndedAuction builds an auction whose window has already closed.
func EndedAuction(auctionID, sellerID string, startingPrice, increment int64) model.Auction {
	a := ActiveAuction(auctionID, sellerID, startingPrice, increment)
	now := time.Now().UTC()
	a.Status = model.AuctionEnded
	a.StartTime = now.Add(-3 * time.Hour)
	a.EndTime = now.Add(-time.Hour)
	return a
}
