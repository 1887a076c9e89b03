package handlers

import (
	"net/http"
	"strconv"

	portssvc "github.com/dkuznetsov/bank-cards/internal/core/ports/services"
	"github.com/dkuznetsov/bank-cards/internal/dto"
	"github.com/dkuznetsov/bank-cards/internal/middleware"
	"github.com/gin-gonic/gin"
)

type transferHandler struct {
	transferSvc portssvc.TransferSvcFacade
}

func registerTransferRoutes(rg *gin.RouterGroup, transferSvc portssvc.TransferSvcFacade) {
	h := &transferHandler{transferSvc: transferSvc}

	rg.POST("/transfers", h.transfer)
	rg.GET("/transactions", h.listOwnTransactions)
	rg.GET("/cards/:cardID/transactions", h.listCardTransactions)
}

func parseListTransactionsParams(c *gin.Context) (dto.ListTransactionsParams, bool) {
	var params dto.ListTransactionsParams
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return params, false
		}
		params.Limit = limit
	}
	if raw := c.Query("nextToken"); raw != "" {
		params.NextToken = &raw
	}
	return params, true
}

// transfer moves funds between two of the caller's own cards.
func (h *transferHandler) transfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, _, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.transferSvc.Transfer(c.Request.Context(), userID, req.FromCardID, req.ToCardID, req.Amount)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *transferHandler) listOwnTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, _, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	params, ok := parseListTransactionsParams(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	resp, err := h.transferSvc.ListByOwner(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *transferHandler) listCardTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, isAdmin, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	params, ok := parseListTransactionsParams(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	resp, err := h.transferSvc.ListByCard(c.Request.Context(), c.Param("cardID"), userID, isAdmin, params)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
