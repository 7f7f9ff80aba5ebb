package user

import (
	"errors"

	"github.com/askspace/core/internal/middleware"
	"github.com/askspace/core/internal/pkg/pagination"
	"github.com/askspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/users")
	g.GET("", h.list)
	g.GET("/:id/activity", h.activity)
	g.POST("/:id/block", h.block)
	g.POST("/:id/unblock", h.unblock)
}

func (h *Handler) list(c *gin.Context) {
	f := ListFilters{
		Search: c.Query("search"),
		Status: c.Query("status"),
	}
	users, pag, err := h.svc.List(pagination.FromContext(c), f)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.Paged(c, "Users.", users, pag)
}

func (h *Handler) activity(c *gin.Context) {
	v, err := h.svc.Activity(c.Param("id"))
	if err != nil {
		h.userError(c, err)
		return
	}
	response.OK(c, "User activity.", v)
}

func (h *Handler) block(c *gin.Context) {
	var dto BlockDTO
	if err := c.ShouldBindJSON(&dto); err != nil && c.Request.ContentLength > 0 {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	b, err := h.svc.Block(middleware.CurrentAdminID(c), c.Param("id"), &dto)
	if err != nil {
		h.userError(c, err)
		return
	}
	response.Created(c, "User blocked.", b)
}

func (h *Handler) unblock(c *gin.Context) {
	b, err := h.svc.Unblock(middleware.CurrentAdminID(c), c.Param("id"))
	if err != nil {
		h.userError(c, err)
		return
	}
	response.OK(c, "User unblocked.", b)
}

func (h *Handler) userError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errUserNotFound):
		response.NotFound(c, "User not found.")
	case errors.Is(err, errAlreadyBlocked):
		response.Conflict(c, "This user is already blocked.")
	case errors.Is(err, errNotBlocked):
		response.NotFound(c, "This user has no active block.")
	default:
		response.InternalError(c)
	}
}
