package handler

import (
	"net/http"
	"strconv"
	"time"

	"auction-engine/internal/auction"
	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/services/auction/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AuctionServiceInterface interface {
	PlaceBid(auctionID, bidderID string, amount decimal.Decimal, isAutomatic bool) (model.Bid, error)
	MinimumNextBid(auctionID string) (decimal.Decimal, error)
	ListActiveAuctions(filter repository.AuctionFilter) ([]model.Auction, error)
	GetAuctionDetail(auctionID string) (model.Auction, []model.Bid, error)
	CreateAuction(params auction.CreateAuctionParams) (model.Auction, error)
	RestartAuction(auctionID, callerID string, startTime, endTime time.Time) (model.Auction, error)
	CancelAuction(auctionID, callerID string) (model.Auction, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// callerID returns the authenticated user id injected by the auth middleware
func callerID(c *gin.Context) string {
	return c.GetString("user_id")
}

// ListAuctionsHandler handles GET /auctions
func (h *AuctionHandler) ListAuctionsHandler(c *gin.Context) {
	filter := repository.AuctionFilter{
		Category: c.Query("category"),
		Limit:    50,
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Offset = n
		}
	}
	if v := c.Query("min_price"); v != "" {
		if p, err := decimal.NewFromString(v); err == nil {
			filter.MinPrice = &p
		}
	}
	if v := c.Query("max_price"); v != "" {
		if p, err := decimal.NewFromString(v); err == nil {
			filter.MaxPrice = &p
		}
	}

	auctions, err := h.service.ListActiveAuctions(filter)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, err, message)
		utils.Error("ListAuctionsHandler: failed to list auctions", map[string]any{"error": err.Error()})
		return
	}

	resp := make([]helpers.AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		resp = append(resp, helpers.NewAuctionResponse(a))
	}
	utils.JSONResponse(c, http.StatusOK, resp, "active auctions retrieved successfully")
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, bids, err := h.service.GetAuctionDetail(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, err, message)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionDetailResponse(auction, bids), "auction retrieved successfully")
}

// MinimumBidHandler handles GET /auctions/:auction_id/minimum-bid
func (h *AuctionHandler) MinimumBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	minimum, err := h.service.MinimumNextBid(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, err, message)
		utils.Warn("MinimumBidHandler: error computing minimum bid", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"auction_id": auctionID, "minimum_bid": minimum}, "minimum bid computed successfully")
}

// PlaceBidHandler handles POST /auctions/:auction_id/bid
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	auctionID := c.Param("auction_id")
	bidderID := callerID(c)

	bid, err := h.service.PlaceBid(auctionID, bidderID, req.Amount, req.IsAutomatic)
	if err != nil {
		h.rejectOrFail(c, "PlaceBidHandler", auctionID, err)
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": bid.AuctionID,
		"bidder_id":  bid.BidderID,
		"amount":     bid.Amount.String(),
	})
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	created, err := h.service.CreateAuction(auction.CreateAuctionParams{
		ProductID:     req.ProductID,
		SellerID:      callerID(c),
		Title:         req.Title,
		Category:      req.Category,
		StartingPrice: req.StartingPrice,
		ReservePrice:  req.ReservePrice,
		BidIncrement:  req.BidIncrement,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		h.rejectOrFail(c, "CreateAuctionHandler", "", err)
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewAuctionResponse(created), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": created.AuctionID,
		"seller_id":  created.SellerID,
		"status":     string(created.Status),
	})
}

// RestartAuctionHandler handles POST /auctions/:auction_id/restart
func (h *AuctionHandler) RestartAuctionHandler(c *gin.Context) {
	var req helpers.RestartAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RestartAuctionHandler", err)
		return
	}

	auctionID := c.Param("auction_id")
	restarted, err := h.service.RestartAuction(auctionID, callerID(c), req.StartTime, req.EndTime)
	if err != nil {
		h.rejectOrFail(c, "RestartAuctionHandler", auctionID, err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(restarted), "auction restarted successfully")
	helpers.LogSuccess("RestartAuctionHandler", "auction restarted successfully", map[string]any{
		"auction_id": restarted.AuctionID,
		"status":     string(restarted.Status),
	})
}

// CancelAuctionHandler handles POST /auctions/:auction_id/cancel
func (h *AuctionHandler) CancelAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	cancelled, err := h.service.CancelAuction(auctionID, callerID(c))
	if err != nil {
		h.rejectOrFail(c, "CancelAuctionHandler", auctionID, err)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(cancelled), "auction cancelled successfully")
	helpers.LogSuccess("CancelAuctionHandler", "auction cancelled successfully", map[string]any{
		"auction_id": cancelled.AuctionID,
	})
}

// rejectOrFail renders a business rejection with its machine-readable code
// and retry hint, or a plain error response for everything else. Rejections
// are expected outcomes and logged at info, not as errors.
func (h *AuctionHandler) rejectOrFail(c *gin.Context, handlerName, auctionID string, err error) {
	status, message := helpers.MapErrorToHTTP(err)

	if code := helpers.RejectionCode(err); code != "" {
		var hint any
		if rejection, ok := auctionerrors.AsBidRejection(err); ok {
			hint = gin.H{"minimum_bid": rejection.MinimumBid}
		}
		utils.JSONRejection(c, status, code, hint)
		utils.Info(handlerName+": request rejected", map[string]any{
			"auction_id": auctionID,
			"reason":     code,
		})
		return
	}

	utils.JSONError(c, status, err, message)
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
	} else {
		utils.Warn(handlerName+": request failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
	}
}
