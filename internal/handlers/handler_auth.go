package handlers

import (
	"net/http"

	portssvc "github.com/dkuznetsov/bank-cards/internal/core/ports/services"
	"github.com/dkuznetsov/bank-cards/internal/dto"
	"github.com/dkuznetsov/bank-cards/internal/middleware"
	"github.com/gin-gonic/gin"
)

type authHandler struct {
	authSvc portssvc.AuthSvcFacade
	userSvc portssvc.UserSvcFacade
}

func registerAuthRoutes(rg *gin.RouterGroup, authSvc portssvc.AuthSvcFacade, userSvc portssvc.UserSvcFacade) {
	h := &authHandler{authSvc: authSvc, userSvc: userSvc}
	rg.POST("/register", h.register)
	rg.POST("/login", h.login)
}

// register creates a regular user account.
func (h *authHandler) register(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userSvc.Register(c.Request.Context(), req, false)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

// login verifies credentials and returns a signed JWT.
func (h *authHandler) login(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, _, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.LoginResponse{Token: token})
}
