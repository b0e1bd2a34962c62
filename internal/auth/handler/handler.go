package handler

import (
	"membership_backend/internal/auth/repository"
	"membership_backend/internal/auth/service"
	"membership_backend/internal/auth/transport"
	"membership_backend/platform/apperr"
	"membership_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgRegistered    = "Registration successful"
	msgLoggedIn      = "Login successful"
	msgUserRetrieved = "User retrieved successfully"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
}

func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterRequest
	if !httpkit.BindJSON(c, &req) {
		return
	}

	result, err := h.svc.Register(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, msgRegistered, toAuthResponse(result))
}

func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if !httpkit.BindJSON(c, &req) {
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, msgLoggedIn, toAuthResponse(result))
}

func (h *Handler) GetUser(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		httpkit.HandleError(c, apperr.NotFound(service.MsgUserNotFound))
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), identity.UserID(), userID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, msgUserRetrieved, toUserResponse(user))
}

func toAuthResponse(result service.AuthResult) transport.AuthResponse {
	return transport.AuthResponse{
		AccessToken: result.AccessToken,
		User:        toUserResponse(result.User),
	}
}

func toUserResponse(user repository.User) transport.UserResponse {
	return transport.UserResponse{
		UserID:    user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt,
	}
}
