package question

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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, notBlockedMW gin.HandlerFunc) {
	g := rg.Group("/questions")
	g.GET("", h.list)
	g.GET("/:id", h.get)

	w := g.Group("", authMW, notBlockedMW)
	w.POST("", h.create)
	w.PUT("/:id", h.update)
	w.DELETE("/:id", h.delete)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/questions")
	g.POST("/:id/restore", h.restore)
	g.DELETE("/:id/force", h.forceDelete)
}

func (h *Handler) list(c *gin.Context) {
	f := ListFilters{
		SubjectID: c.Query("subject_id"),
		UserID:    c.Query("user_id"),
		Search:    c.Query("search"),
	}
	rows, pag, err := h.svc.List(pagination.FromContext(c), f)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.Paged(c, "Questions.", rows, pag)
}

func (h *Handler) get(c *gin.Context) {
	q, err := h.svc.Get(c.Param("id"))
	if err != nil {
		h.questionError(c, err)
		return
	}
	response.OK(c, "Question.", q)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	q, err := h.svc.Create(middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.questionError(c, err)
		return
	}
	response.Created(c, "Question posted.", q)
}

func (h *Handler) update(c *gin.Context) {
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	q, err := h.svc.Update(middleware.CurrentUserID(c), c.Param("id"), &dto)
	if err != nil {
		h.questionError(c, err)
		return
	}
	response.OK(c, "Question updated.", q)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(middleware.CurrentUserID(c), c.Param("id")); err != nil {
		h.questionError(c, err)
		return
	}
	response.OK(c, "Question deleted.", nil)
}

func (h *Handler) restore(c *gin.Context) {
	q, err := h.svc.Restore(c.Param("id"))
	if err != nil {
		h.questionError(c, err)
		return
	}
	response.OK(c, "Question restored.", q)
}

func (h *Handler) forceDelete(c *gin.Context) {
	if err := h.svc.ForceDelete(c.Param("id")); err != nil {
		h.questionError(c, err)
		return
	}
	response.OK(c, "Question permanently deleted.", nil)
}

func (h *Handler) questionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errQuestionNotFound):
		response.NotFound(c, "Question not found.")
	case errors.Is(err, errNotOwner):
		response.Forbidden(c, "You can only modify your own questions.")
	case errors.Is(err, errUnknownSubjects):
		response.UnprocessableEntity(c, "One or more subject ids do not exist.", nil)
	default:
		response.InternalError(c)
	}
}
