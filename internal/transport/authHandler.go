package transport

import (
	"net/http"

	"github.com/ds124wfegd/ticketbooker/internal/service"
	"github.com/ds124wfegd/ticketbooker/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService service.UserService
}

func NewAuthHandler(userService service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body: "+err.Error())
		return
	}

	res, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusCreated, "User registered successfully", res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body: "+err.Error())
		return
	}

	res, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, "Login successful", res)
}

func (h *AuthHandler) Me(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	user, err := h.userService.Me(c.Request.Context(), principal.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, "", user)
}
