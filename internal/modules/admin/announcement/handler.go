package announcement

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

// RegisterRoutes mounts the public announcement feed.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/announcements", h.listPublic)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/announcements")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) listPublic(c *gin.Context) {
	rows, pag, err := h.svc.ListPublic(pagination.FromContext(c))
	if err != nil {
		response.InternalError(c)
		return
	}
	response.Paged(c, "Announcements.", rows, pag)
}

func (h *Handler) list(c *gin.Context) {
	rows, pag, err := h.svc.List(pagination.FromContext(c), c.Query("status"))
	if err != nil {
		response.InternalError(c)
		return
	}
	response.Paged(c, "Announcements.", rows, pag)
}

func (h *Handler) get(c *gin.Context) {
	a, err := h.svc.Get(c.Param("id"))
	if err != nil {
		h.announcementError(c, err)
		return
	}
	response.OK(c, "Announcement.", a)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	a, err := h.svc.Create(middleware.CurrentAdminID(c), &dto)
	if err != nil {
		h.announcementError(c, err)
		return
	}
	response.Created(c, "Announcement created.", a)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	a, err := h.svc.Update(c.Param("id"), &dto)
	if err != nil {
		h.announcementError(c, err)
		return
	}
	response.OK(c, "Announcement updated.", a)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		h.announcementError(c, err)
		return
	}
	response.OK(c, "Announcement deleted.", nil)
}

func (h *Handler) announcementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errNotFound):
		response.NotFound(c, "Announcement not found.")
	case errors.Is(err, errInvalidStatus):
		response.UnprocessableEntity(c, "Status must be draft, published or archived.", nil)
	default:
		response.InternalError(c)
	}
}
