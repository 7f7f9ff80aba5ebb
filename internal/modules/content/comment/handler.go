package comment

import (
	"errors"

	"github.com/askspace/core/internal/content"
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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, notBlockedMW gin.HandlerFunc) {
	g := rg.Group("/comments")
	g.GET("/for/:type/:id", h.listFor)

	w := g.Group("", authMW, notBlockedMW)
	w.POST("", h.create)
	w.PUT("/:id", h.update)
	w.DELETE("/:id", h.delete)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/comments/:id/restore", h.restore)
}

func (h *Handler) listFor(c *gin.Context) {
	rows, pag, err := h.svc.ListFor(pagination.FromContext(c), c.Param("type"), c.Param("id"))
	if err != nil {
		h.commentError(c, err)
		return
	}
	response.Paged(c, "Comments.", rows, pag)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	cm, err := h.svc.Create(middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.commentError(c, err)
		return
	}
	response.Created(c, "Comment posted.", cm)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	cm, err := h.svc.Update(middleware.CurrentUserID(c), c.Param("id"), &dto)
	if err != nil {
		h.commentError(c, err)
		return
	}
	response.OK(c, "Comment updated.", cm)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(middleware.CurrentUserID(c), c.Param("id")); err != nil {
		h.commentError(c, err)
		return
	}
	response.OK(c, "Comment deleted.", nil)
}

func (h *Handler) restore(c *gin.Context) {
	cm, err := h.svc.Restore(c.Param("id"))
	if err != nil {
		h.commentError(c, err)
		return
	}
	response.OK(c, "Comment restored.", cm)
}

func (h *Handler) commentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, content.ErrUnknownKind), errors.Is(err, errNotCommentable):
		response.BadRequest(c, "Comments can only be left on questions and answers.")
	case errors.Is(err, errCommentNotFound):
		response.NotFound(c, "Comment not found.")
	case errors.Is(err, errParentNotFound):
		response.NotFound(c, "The content you are commenting on was not found.")
	case errors.Is(err, errNotOwner):
		response.Forbidden(c, "You can only modify your own comments.")
	default:
		response.InternalError(c)
	}
}
