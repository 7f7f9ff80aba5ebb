package auth

import (
	"errors"

	"github.com/askspace/core/internal/middleware"
	"github.com/askspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/logout", authMW, h.logout)
	g.GET("/me", authMW, h.me)
	g.GET("/recommendations", authMW, h.recommendations)
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	res, err := h.svc.Register(&dto, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, errEmailTaken):
			response.UnprocessableEntity(c, "This email is already registered.", nil)
		case errors.Is(err, errUsernameTaken):
			response.UnprocessableEntity(c, "This username is already taken.", nil)
		default:
			response.InternalError(c)
		}
		return
	}
	response.Created(c, "Account created.", res)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	res, err := h.svc.Login(&dto, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			response.Unauthorized(c)
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, "Signed in.", res)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Logout(middleware.CurrentUserID(c), middleware.CurrentSessionID(c)); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, "Signed out.", nil)
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.svc.Me(middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			response.NotFound(c, "User not found.")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, "Profile.", u)
}

func (h *Handler) recommendations(c *gin.Context) {
	items := h.svc.Recommendations(c.Request.Context(), middleware.CurrentUserID(c))
	response.OK(c, "Recommendations.", items)
}
