package answer

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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, notBlockedMW gin.HandlerFunc) {
	rg.POST("/questions/:id/answers", authMW, notBlockedMW, h.create)

	g := rg.Group("/answers")
	g.GET("/:id", h.get)

	w := g.Group("", authMW, notBlockedMW)
	w.PUT("/:id", h.update)
	w.DELETE("/:id", h.delete)
	w.POST("/:id/verify", h.verify)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/answers/:id/restore", h.restore)
}

func (h *Handler) get(c *gin.Context) {
	a, err := h.svc.Get(c.Param("id"))
	if err != nil {
		h.answerError(c, err)
		return
	}
	response.OK(c, "Answer.", a)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	a, err := h.svc.Create(middleware.CurrentUserID(c), c.Param("id"), &dto)
	if err != nil {
		h.answerError(c, err)
		return
	}
	response.Created(c, "Answer posted.", a)
}

func (h *Handler) update(c *gin.Context) {
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	a, err := h.svc.Update(middleware.CurrentUserID(c), c.Param("id"), &dto)
	if err != nil {
		h.answerError(c, err)
		return
	}
	response.OK(c, "Answer updated.", a)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(middleware.CurrentUserID(c), c.Param("id")); err != nil {
		h.answerError(c, err)
		return
	}
	response.OK(c, "Answer deleted.", nil)
}

func (h *Handler) verify(c *gin.Context) {
	a, err := h.svc.Verify(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		h.answerError(c, err)
		return
	}
	response.OK(c, "Answer accepted.", a)
}

func (h *Handler) restore(c *gin.Context) {
	a, err := h.svc.Restore(c.Param("id"))
	if err != nil {
		h.answerError(c, err)
		return
	}
	response.OK(c, "Answer restored.", a)
}

func (h *Handler) answerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errAnswerNotFound):
		response.NotFound(c, "Answer not found.")
	case errors.Is(err, errQuestionNotFound):
		response.NotFound(c, "Question not found.")
	case errors.Is(err, errNotOwner):
		response.Forbidden(c, "You can only modify your own answers.")
	case errors.Is(err, errNotQuestionOwner):
		response.Forbidden(c, "Only the question owner can accept an answer.")
	default:
		response.InternalError(c)
	}
}
