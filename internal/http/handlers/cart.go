package handlers

import (
	"strconv"

	"github.com/nwca-cart/internal/cart"
	"github.com/nwca-cart/internal/http/response"

	"github.com/gin-gonic/gin"
)

// InitializeCart bootstraps the session and returns the cart state.
func (h *Handler) InitializeCart(c *gin.Context) {
	h.Engine.InitializeCart(c.Request.Context())
	response.Success(c, h.Engine.State())
}

// GetCart returns the full cart state, optionally filtered by ?status=.
func (h *Handler) GetCart(c *gin.Context) {
	if status := c.Query("status"); status != "" {
		response.Success(c, gin.H{
			"session_id": h.Engine.SessionID(),
			"items":      h.Engine.Items(status),
		})
		return
	}
	response.Success(c, h.Engine.State())
}

// GetSummary returns the aggregate counters.
func (h *Handler) GetSummary(c *gin.Context) {
	response.Success(c, gin.H{
		"session_id":    h.Engine.SessionID(),
		"count":         h.Engine.Count(),
		"total":         h.Engine.Total(),
		"imprint_types": h.Engine.ImprintTypes(),
		"last_sync":     h.Engine.LastSync(),
		"error":         h.Engine.Err(),
	})
}

// AddToCart adds or merges one style/color/imprint grouping.
func (h *Handler) AddToCart(c *gin.Context) {
	var input cart.AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "invalid add-to-cart payload")
		return
	}
	respondResult(c, h.Engine.AddToCart(c.Request.Context(), input))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateQuantity sets the quantity of one size on an item.
func (h *Handler) UpdateQuantity(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || itemID <= 0 {
		response.BadRequest(c, "invalid cart item id")
		return
	}
	size := c.Param("size")
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid quantity payload")
		return
	}
	respondResult(c, h.Engine.UpdateQuantity(c.Request.Context(), itemID, size, req.Quantity))
}

// RemoveItem deletes one item.
func (h *Handler) RemoveItem(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || itemID <= 0 {
		response.BadRequest(c, "invalid cart item id")
		return
	}
	res := h.Engine.RemoveItem(c.Request.Context(), itemID)
	if !res.Success && res.Error == cart.ErrItemNotFound.Error() {
		response.NotFound(c, res.Error)
		return
	}
	respondResult(c, res)
}

// SaveForLater moves the active items to the saved list.
func (h *Handler) SaveForLater(c *gin.Context) {
	respondResult(c, h.Engine.SaveForLater(c.Request.Context()))
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(c *gin.Context) {
	res := h.Engine.ClearCart(c.Request.Context())
	if !res.Success {
		respondResult(c, res)
		return
	}
	response.SuccessWithMsg(c, "cart cleared", res)
}

// SubmitQuoteRequest submits the active items as a quote request.
func (h *Handler) SubmitQuoteRequest(c *gin.Context) {
	respondResult(c, h.Engine.SubmitQuoteRequest(c.Request.Context()))
}

// SyncWithServer reconciles the local cart with the proxy.
func (h *Handler) SyncWithServer(c *gin.Context) {
	respondSyncResult(c, h.Engine.SyncWithServer(c.Request.Context()))
}

// respondSyncResult flags a blocking sync failure as an upstream fault; a
// partial sync comes back Success with a warning and stays a success reply.
func respondSyncResult(c *gin.Context, res cart.Result) {
	if !res.Success {
		response.ErrorWithData(c, response.CodeUpstream, res.Error, res)
		return
	}
	respondResult(c, res)
}

type recalculateRequest struct {
	ImprintType string `json:"imprint_type" binding:"required"`
}

// RecalculatePrices re-runs the pricing hook for one imprint type.
func (h *Handler) RecalculatePrices(c *gin.Context) {
	var req recalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "imprint_type is required")
		return
	}
	respondResult(c, h.Engine.RecalculatePrices(c.Request.Context(), req.ImprintType))
}

// respondResult maps the uniform engine result into the response envelope.
func respondResult(c *gin.Context, res cart.Result) {
	switch {
	case res.RequiresConfirmation:
		response.ErrorWithData(c, response.CodeConflict, "confirmation required", res)
	case !res.Success:
		response.ErrorWithData(c, response.CodeBadRequest, res.Error, res)
	default:
		response.Success(c, res)
	}
}
