package auth

import (
	"errors"

	"github.com/askspace/core/internal/middleware"
	"github.com/askspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type socialiteDTO struct {
	Secret string `json:"secret" binding:"required"`
	Name   string `json:"name"`
	Email  string `json:"email" binding:"required,email"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, adminMW gin.HandlerFunc) {
	g := rg.Group("/auth")
	g.POST("/socialite", h.socialite)
	g.POST("/logout", adminMW, h.logout)
	g.GET("/me", adminMW, h.me)
}

func (h *Handler) socialite(c *gin.Context) {
	var dto socialiteDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	res, err := h.svc.SocialiteLogin(dto.Secret, dto.Email, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, errBadSecret):
			response.Unauthorized(c)
		case errors.Is(err, errNotAnAdmin):
			response.Forbidden(c, "This account is not an administrator.")
		case errors.Is(err, errNoRolesAssigned):
			response.Forbidden(c, "No roles are assigned to this administrator.")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, "Signed in.", res)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Logout(middleware.CurrentAdminID(c), middleware.CurrentSessionID(c)); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, "Signed out.", nil)
}

func (h *Handler) me(c *gin.Context) {
	admin, err := h.svc.Me(middleware.CurrentAdminID(c))
	if err != nil {
		response.InternalError(c)
		return
	}
	if admin == nil {
		response.NotFound(c, "Administrator not found.")
		return
	}
	response.OK(c, "Profile.", admin)
}
