package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dkuznetsov/bank-cards/internal/core/domain"
	portssvc "github.com/dkuznetsov/bank-cards/internal/core/ports/services"
	"github.com/dkuznetsov/bank-cards/internal/dto"
	"github.com/dkuznetsov/bank-cards/internal/middleware"
	"github.com/gin-gonic/gin"
)

type cardHandler struct {
	cardSvc portssvc.CardSvcFacade
}

func registerCardRoutes(rg, admin *gin.RouterGroup, cardSvc portssvc.CardSvcFacade) {
	h := &cardHandler{cardSvc: cardSvc}

	rg.GET("/cards", h.listOwnCards)
	rg.GET("/cards/:cardID", h.getCard)
	rg.POST("/cards/:cardID/block", h.requestBlock)
	rg.POST("/cards/:cardID/topup", h.topUp)

	admin.POST("/users/:userID/cards", h.createCard)
	admin.GET("/cards", h.listAllCards)
	admin.PATCH("/cards/:cardID/status", h.setStatus)
	admin.DELETE("/cards/:cardID", h.deleteCard)
}

// parseListCardsParams reads the shared filter and pagination query params.
func parseListCardsParams(c *gin.Context) (dto.ListCardsParams, error) {
	var params dto.ListCardsParams

	if raw := c.Query("status"); raw != "" {
		status := domain.CardStatus(raw)
		if !domain.ValidCardStatus(status) {
			return params, fmt.Errorf("unknown status %q", raw)
		}
		params.Status = &status
	}
	params.Last4 = c.Query("last4")
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return params, fmt.Errorf("limit must be a positive integer")
		}
		params.Limit = limit
	}
	if raw := c.Query("nextToken"); raw != "" {
		params.NextToken = &raw
	}
	return params, nil
}

func (h *cardHandler) listOwnCards(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, _, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	params, err := parseListCardsParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.cardSvc.ListOwnCards(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *cardHandler) getCard(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, isAdmin, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	card, err := h.cardSvc.GetCard(c.Request.Context(), c.Param("cardID"), userID, isAdmin)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCardResponse(card))
}

// requestBlock lets an owner ask for their card to be blocked.
func (h *cardHandler) requestBlock(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, _, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	if err := h.cardSvc.RequestBlock(c.Request.Context(), c.Param("cardID"), userID); err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(domain.CardBlockRequested)})
}

func (h *cardHandler) topUp(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, isAdmin, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	var req dto.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.cardSvc.TopUp(c.Request.Context(), c.Param("cardID"), userID, isAdmin, req.Amount); err != nil {
		respondError(c, logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// createCard issues a new card to the user in the path.
func (h *cardHandler) createCard(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	card, err := h.cardSvc.CreateCard(c.Request.Context(), c.Param("userID"), req)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToCardResponse(card))
}

func (h *cardHandler) listAllCards(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	params, err := parseListCardsParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.cardSvc.ListAllCards(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *cardHandler) setStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.cardSvc.AdminSetStatus(c.Request.Context(), c.Param("cardID"), req.Status); err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(req.Status)})
}

func (h *cardHandler) deleteCard(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	if err := h.cardSvc.DeleteCard(c.Request.Context(), c.Param("cardID")); err != nil {
		respondError(c, logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
